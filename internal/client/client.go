// Package client is the Plume client SDK. All cryptography happens here:
// keys are derived and generated locally, secrets are sealed before they
// leave the process, and everything fetched from a server is ciphertext
// until this package opens it with the session keyring.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/plume-im/plume/internal/api"
	"github.com/plume-im/plume/internal/common"
	"github.com/plume-im/plume/internal/federation"
	"github.com/plume-im/plume/internal/keyring"
)

// Client is a logged-in (or logging-in) session against one home server.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	peers       *federation.Client
	keys        *keyring.Keyring
	accessToken string
	displayName string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAccessToken resumes an existing session.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = token
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		keys: keyring.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.peers = federation.New(federation.WithHTTPClient(c.httpClient))

	return c
}

// Keyring exposes the session keyring, mainly for state restore.
func (c *Client) Keyring() *keyring.Keyring {
	return c.keys
}

// AccessToken returns the current session token, empty before login.
func (c *Client) AccessToken() string {
	return c.accessToken
}

// DisplayName returns the user's decrypted display name, empty before login.
func (c *Client) DisplayName() string {
	return c.displayName
}

// SetDisplayName installs a display name restored from saved state.
func (c *Client) SetDisplayName(name string) {
	c.displayName = name
}

func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set(common.AccessTokenHeaderName, common.BearerPrefix+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("%w: %s", api.ErrorFromStatus(resp.StatusCode), errResp.Error)
		}
		return api.ErrorFromStatus(resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
