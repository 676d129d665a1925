package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/plume-im/plume/internal/cryptox"
)

// State is the session state persisted between CLI invocations. It contains
// the master key, so the file is written 0600 and removed at logout.
type State struct {
	ServerURL   string `json:"serverUrl"`
	AccessToken string `json:"accessToken"`
	MasterKey   string `json:"masterKey"`
	DisplayName string `json:"displayName"`
}

// SaveState writes the current session to path.
func (c *Client) SaveState(path string) error {

	masterKey, err := c.keys.MasterKey()
	if err != nil {
		return fmt.Errorf("no session to save: %w", err)
	}
	serialized, err := cryptox.ExportSymmetricKey(masterKey)
	if err != nil {
		return fmt.Errorf("exporting master key: %w", err)
	}

	state := State{
		ServerURL:   c.baseURL,
		AccessToken: c.accessToken,
		MasterKey:   serialized,
		DisplayName: c.displayName,
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadState restores a session from path. Returns a ready client, or nil
// and no error when no state file exists.
func LoadState(path string, opts ...Option) (*Client, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("corrupt state file: %w", err)
	}

	masterKey, err := cryptox.ImportSymmetricKey(state.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("corrupt state file: %w", err)
	}

	opts = append(opts, WithAccessToken(state.AccessToken))
	c := New(state.ServerURL, opts...)
	c.keys.SetMasterKey(masterKey)
	c.displayName = state.DisplayName

	return c, nil
}

// RemoveState deletes the state file. Missing files are fine.
func RemoveState(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
