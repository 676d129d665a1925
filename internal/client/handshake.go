package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/plume-im/plume/internal/api"
	"github.com/plume-im/plume/internal/cryptox"
	"github.com/plume-im/plume/internal/keyring"
)

// PendingRequest is a decrypted handshake entry waiting for this user's
// confirmation. CorrespondenceKey stays serialized; the keyring caches the
// imported form.
type PendingRequest struct {
	CorrespondenceInitID string
	CorrespondentName    string
	CorrespondenceKey    string
}

// GenerateCode starts a handshake: it generates a fresh RSA keypair
// locally, wraps the private half under the master key, and stores both on
// the home server in exchange for a shareable code.
func (c *Client) GenerateCode(ctx context.Context) (string, error) {

	pub, priv, err := cryptox.GenerateAsymmetricKeyPair()
	if err != nil {
		return "", fmt.Errorf("generating keypair: %w", err)
	}

	pubSerialized, err := cryptox.ExportPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("exporting public key: %w", err)
	}
	privSerialized, err := cryptox.ExportPrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("exporting private key: %w", err)
	}

	privEnv, err := c.keys.SealText(privSerialized, keyring.MasterKey{})
	if err != nil {
		return "", fmt.Errorf("sealing private key: %w", err)
	}

	var resp api.GenerateCodeResponse
	err = c.do(ctx, http.MethodPost, api.RouteGenerateCode, &api.GenerateCodeRequest{
		CorrespondenceInitPublicKey:  pubSerialized,
		CorrespondenceInitPrivateKey: privEnv,
	}, &resp)
	if err != nil {
		return "", err
	}

	return resp.CorrespondenceCode, nil
}

// Answer accepts a code shared out of band: it fetches the initiator's
// public key straight from their server, generates the correspondence key,
// and hands the wrapped material to the home server for the federated push.
func (c *Client) Answer(ctx context.Context, distantServerURL, correspondenceCode string) error {

	pk, err := c.peers.GetPublicKey(ctx, distantServerURL, correspondenceCode)
	if err != nil {
		return err
	}

	pub, err := c.keys.PublicKey(pk.CorrespondenceInitPublicKey)
	if err != nil {
		return fmt.Errorf("importing init public key: %w", err)
	}

	corrKey := cryptox.GenerateSymmetricKey()
	corrKeySerialized, err := cryptox.ExportSymmetricKey(corrKey)
	if err != nil {
		return fmt.Errorf("exporting correspondence key: %w", err)
	}

	keyEnv, err := c.keys.SealText(corrKeySerialized, keyring.MasterKey{})
	if err != nil {
		return fmt.Errorf("sealing correspondence key: %w", err)
	}

	wrapped, err := cryptox.EncryptAsym([]byte(corrKeySerialized), pub)
	if err != nil {
		return fmt.Errorf("wrapping correspondence key: %w", err)
	}

	nameEnv, err := c.keys.SealText(c.displayName, keyring.PlainKey{Serialized: corrKeySerialized})
	if err != nil {
		return fmt.Errorf("sealing display name: %w", err)
	}

	return c.do(ctx, http.MethodPost, api.RouteCreateAnswered, &api.CreateAnsweredRequest{
		CorrespondenceInitID:  pk.CorrespondenceInitID,
		CorrespondenceKeyMK:   keyEnv,
		ServerURL:             distantServerURL,
		CorrespondenceKeyCIPK: cryptox.SerializeBuffer(wrapped),
		DisplayNameCK:         nameEnv,
	}, nil)
}

// PendingFilled lists answers awaiting this initiator's confirmation. Each
// entry's correspondence key is unwrapped with the init private key, which
// in turn is opened with the master key.
func (c *Client) PendingFilled(ctx context.Context) ([]PendingRequest, error) {

	var resp api.PendingFilledResponse
	if err := c.do(ctx, http.MethodGet, api.RoutePendingFilled, nil, &resp); err != nil {
		return nil, err
	}

	result := make([]PendingRequest, 0, len(resp.Requests))
	for _, r := range resp.Requests {
		privSerialized, err := c.keys.OpenText(r.CorrespondenceInitPrivateKeyMK, keyring.MasterKey{})
		if err != nil {
			return nil, fmt.Errorf("opening init private key: %w", err)
		}
		priv, err := c.keys.PrivateKey(privSerialized)
		if err != nil {
			return nil, fmt.Errorf("importing init private key: %w", err)
		}

		corrKeySerialized, err := c.keys.OpenAsymText(r.CorrespondenceKeyCIPK, priv)
		if err != nil {
			return nil, fmt.Errorf("unwrapping correspondence key: %w", err)
		}

		name, err := c.keys.OpenText(r.UserDisplayNameCK, keyring.PlainKey{Serialized: corrKeySerialized})
		if err != nil {
			return nil, fmt.Errorf("opening correspondent name: %w", err)
		}

		result = append(result, PendingRequest{
			CorrespondenceInitID: r.CorrespondenceInitID,
			CorrespondentName:    name,
			CorrespondenceKey:    corrKeySerialized,
		})
	}
	return result, nil
}

// AcceptFilled confirms a pending filled request: the correspondence key is
// re-wrapped under the master key for this side's records and the display
// name sealed under the correspondence key for the counterpart.
func (c *Client) AcceptFilled(ctx context.Context, pending PendingRequest) error {

	keyEnv, err := c.keys.SealText(pending.CorrespondenceKey, keyring.MasterKey{})
	if err != nil {
		return fmt.Errorf("sealing correspondence key: %w", err)
	}

	nameEnv, err := c.keys.SealText(c.displayName, keyring.PlainKey{Serialized: pending.CorrespondenceKey})
	if err != nil {
		return fmt.Errorf("sealing display name: %w", err)
	}

	return c.do(ctx, http.MethodPost, api.RouteAnswerFilled, &api.AnswerFilledRequest{
		CorrespondenceInitID: pending.CorrespondenceInitID,
		CorrespondenceKeyMK:  keyEnv,
		UserDisplayNameCK:    nameEnv,
	}, nil)
}

// PendingFullyFilled lists handshakes awaiting this target's final
// confirmation.
func (c *Client) PendingFullyFilled(ctx context.Context) ([]PendingRequest, error) {

	var resp api.PendingFullyFilledResponse
	if err := c.do(ctx, http.MethodGet, api.RoutePendingFullyFilled, nil, &resp); err != nil {
		return nil, err
	}

	result := make([]PendingRequest, 0, len(resp.Requests))
	for _, r := range resp.Requests {
		corrKeySerialized, err := c.keys.OpenText(r.CorrespondenceKeyMK, keyring.MasterKey{})
		if err != nil {
			return nil, fmt.Errorf("opening correspondence key: %w", err)
		}

		name, err := c.keys.OpenText(r.UserDisplayNameCK, keyring.PlainKey{Serialized: corrKeySerialized})
		if err != nil {
			return nil, fmt.Errorf("opening correspondent name: %w", err)
		}

		result = append(result, PendingRequest{
			CorrespondenceInitID: r.CorrespondenceInitID,
			CorrespondentName:    name,
			CorrespondenceKey:    corrKeySerialized,
		})
	}
	return result, nil
}

// Accept finalizes the handshake from the target side. After this returns,
// both servers hold each other's access tokens and the correspondence shows
// up in Correspondents on both ends.
func (c *Client) Accept(ctx context.Context, correspondenceInitID string) error {
	return c.do(ctx, http.MethodPost, api.RouteMarkAccepted, &api.MarkAcceptedRequest{
		CorrespondenceInitID: correspondenceInitID,
	}, nil)
}
