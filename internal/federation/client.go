// Package federation implements the server-to-server HTTP client used to
// push handshake phases and messages to counterpart servers.
package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/plume-im/plume/internal/api"
)

// Client talks to counterpart servers. The base URL varies per call: each
// handshake record remembers where its counterpart lives.
type Client struct {
	httpClient *http.Client
	retries    int
}

// Option configures the federation client.
type Option func(*Client)

// WithRetries sets the number of retries on 5xx and transport errors.
func WithRetries(retries int) Option {
	return func(c *Client) {
		c.retries = retries
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retries: 3,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) do(ctx context.Context, method, serverURL, path string, body any, result any) error {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		// the body reader is consumed per attempt, so the request is
		// rebuilt each time
		var bodyReader io.Reader
		if data != nil {
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, serverURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil && resp.StatusCode < 500 {
			break
		}
		if resp != nil {
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned %d", resp.StatusCode)
			resp = nil
		}
		if attempt < c.retries {
			select {
			case <-time.After(time.Duration(1<<attempt) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if lastErr != nil {
		return fmt.Errorf("request failed: %w", lastErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// parseErrorResponse turns a non-2xx reply back into the sentinel error the
// remote service raised, so callers keep matching with errors.Is across the
// network hop.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("%w: %s", api.ErrorFromStatus(resp.StatusCode), errResp.Error)
	}

	return api.ErrorFromStatus(resp.StatusCode)
}

// GetPublicKey trades a shareable correspondence code for the counterpart's
// init id and public key.
func (c *Client) GetPublicKey(ctx context.Context, serverURL, correspondenceCode string) (*api.PublicKeyResponse, error) {
	var resp api.PublicKeyResponse
	path := api.RoutePublicKeyPrefix + url.PathEscape(correspondenceCode)
	if err := c.do(ctx, http.MethodGet, serverURL, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) FillInfos(ctx context.Context, serverURL string, req *api.FillInfosRequest) error {
	return c.do(ctx, http.MethodPost, serverURL, api.RouteFillInfos, req, nil)
}

func (c *Client) ReceiveFilledRequestAnswer(ctx context.Context, serverURL string, req *api.FilledRequestAnswer) error {
	return c.do(ctx, http.MethodPost, serverURL, api.RouteFilledRequestAnswer, req, nil)
}

func (c *Client) FullyAcceptRequest(ctx context.Context, serverURL string, req *api.FullyAcceptRequest) (*api.FullyAcceptResponse, error) {
	var resp api.FullyAcceptResponse
	if err := c.do(ctx, http.MethodPost, serverURL, api.RouteFullyAccept, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ReceiveMessage(ctx context.Context, serverURL string, req *api.ReceiveMessageRequest) (*api.ReceiveMessageResponse, error) {
	var resp api.ReceiveMessageResponse
	if err := c.do(ctx, http.MethodPost, serverURL, api.RouteReceiveMessage, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
