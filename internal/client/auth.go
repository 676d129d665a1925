package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/plume-im/plume/internal/api"
	"github.com/plume-im/plume/internal/cryptox"
	"github.com/plume-im/plume/internal/keyring"
)

// proofLength is the size of the random password-proof plaintext.
const proofLength = 32

// Register creates an account. The server never sees the username, the
// password or the master key: it receives a hash, a deterministic proof
// ciphertext and master-key-wrapped material.
func (c *Client) Register(ctx context.Context, username, password, displayName string) error {

	salt := cryptox.GenerateSalt()
	passwordKey := cryptox.DeriveKey([]byte(password), salt)

	proofPlainText := cryptox.SerializeBuffer(cryptox.GenerateRandomBuffer(proofLength))

	proofEnv, err := c.keys.SealText(proofPlainText, keyring.Direct{Key: passwordKey})
	if err != nil {
		return fmt.Errorf("sealing password proof: %w", err)
	}

	masterKey := cryptox.GenerateSymmetricKey()
	masterKeySerialized, err := cryptox.ExportSymmetricKey(masterKey)
	if err != nil {
		return fmt.Errorf("exporting master key: %w", err)
	}

	masterKeyEnv, err := c.keys.SealText(masterKeySerialized, keyring.Direct{Key: passwordKey})
	if err != nil {
		return fmt.Errorf("sealing master key: %w", err)
	}

	displayNameEnv, err := c.keys.SealText(displayName, keyring.Direct{Key: masterKey})
	if err != nil {
		return fmt.Errorf("sealing display name: %w", err)
	}

	req := &api.RegisterRequest{
		UsernameHash:           cryptox.Hash([]byte(username)),
		PasswordSalt:           cryptox.SerializeBuffer(salt),
		PasswordProofPlainText: proofPlainText,
		PasswordProofPK:        proofEnv,
		MasterKeyPK:            masterKeyEnv,
		DisplayNameMK:          displayNameEnv,
	}

	return c.do(ctx, http.MethodPost, api.RouteRegister, req, nil)
}

// Login proves password knowledge by reproducing the stored proof
// ciphertext, then decrypts the master key and display name locally.
func (c *Client) Login(ctx context.Context, username, password string) error {

	usernameHash := cryptox.Hash([]byte(username))

	var info api.LoginInfoResponse
	err := c.do(ctx, http.MethodPost, api.RouteLoginInfo, &api.LoginInfoRequest{UsernameHash: usernameHash}, &info)
	if err != nil {
		return err
	}

	salt, err := cryptox.DeserializeBuffer(info.PasswordSalt)
	if err != nil {
		return fmt.Errorf("decoding salt: %w", err)
	}
	iv, err := cryptox.DeserializeBuffer(info.PasswordProofPKIV)
	if err != nil {
		return fmt.Errorf("decoding proof iv: %w", err)
	}

	passwordKey := cryptox.DeriveKey([]byte(password), salt)

	// Same plaintext, same key, same IV: a correct password reproduces the
	// stored ciphertext exactly.
	proof, err := cryptox.EncryptSym([]byte(info.PasswordProofPlainText), passwordKey, iv)
	if err != nil {
		return fmt.Errorf("encrypting proof: %w", err)
	}

	var resp api.LoginResponse
	err = c.do(ctx, http.MethodPost, api.RouteLogin, &api.LoginRequest{
		UsernameHash:    usernameHash,
		PasswordProofPK: cryptox.SerializeBuffer(proof),
	}, &resp)
	if err != nil {
		return err
	}

	masterKeySerialized, err := c.keys.OpenText(resp.MasterKeyPK, keyring.Direct{Key: passwordKey})
	if err != nil {
		return fmt.Errorf("opening master key: %w", err)
	}

	masterKey, err := cryptox.ImportSymmetricKey(masterKeySerialized)
	if err != nil {
		return fmt.Errorf("importing master key: %w", err)
	}
	c.keys.SetMasterKey(masterKey)

	displayName, err := c.keys.OpenText(resp.DisplayNameMK, keyring.MasterKey{})
	if err != nil {
		return fmt.Errorf("opening display name: %w", err)
	}

	c.accessToken = resp.AccessToken
	c.displayName = displayName

	return nil
}

// Logout revokes the session server-side and wipes the local session state.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, api.RouteLogout, nil, nil); err != nil {
		return err
	}
	c.accessToken = ""
	c.displayName = ""
	c.keys.SetMasterKey(nil)
	return nil
}
