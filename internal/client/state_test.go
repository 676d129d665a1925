package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plume-im/plume/internal/cryptox"
)

func TestState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	c := New("http://home.example", WithAccessToken("token-1"))
	masterKey := cryptox.GenerateSymmetricKey()
	c.Keyring().SetMasterKey(masterKey)
	c.SetDisplayName("Alice")

	require.NoError(t, c.SaveState(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	restored, err := LoadState(path)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "token-1", restored.AccessToken())
	assert.Equal(t, "Alice", restored.DisplayName())

	restoredKey, err := restored.Keyring().MasterKey()
	require.NoError(t, err)
	assert.Equal(t, masterKey, restoredKey)
}

func TestSaveState_RequiresSession(t *testing.T) {
	c := New("http://home.example")

	err := c.SaveState(filepath.Join(t.TempDir(), "session.json"))
	assert.Error(t, err)
}

func TestLoadState_MissingFile(t *testing.T) {
	c, err := LoadState(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestLoadState_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadState(path)
	assert.Error(t, err)
}

func TestRemoveState_MissingIsFine(t *testing.T) {
	assert.NoError(t, RemoveState(filepath.Join(t.TempDir(), "absent.json")))
}
