package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/plume-im/plume/internal/api"
	"github.com/plume-im/plume/internal/keyring"
)

// Correspondent is a decrypted entry of the user's correspondent list.
type Correspondent struct {
	ID          string
	Name        string
	ServerURL   string
	IsInitiator bool
	IsService   bool
}

// Message is a decrypted message from one of the user's exchanges.
type Message struct {
	ExchangeID      string
	CorrespondentID string
	IsImportant     bool
	Title           string
	Category        string
	Body            string
	CreatedAt       time.Time
}

// Correspondents lists established correspondences with names decrypted.
func (c *Client) Correspondents(ctx context.Context) ([]Correspondent, error) {

	var resp api.CorrespondentsResponse
	if err := c.do(ctx, http.MethodGet, api.RouteCorrespondents, nil, &resp); err != nil {
		return nil, err
	}

	result := make([]Correspondent, 0, len(resp.Correspondents))
	for _, e := range resp.Correspondents {
		name, err := c.keys.OpenText(e.UserDisplayNameCK, keyring.WrappedByMasterKey{Envelope: e.CorrespondenceKeyMK})
		if err != nil {
			return nil, fmt.Errorf("opening correspondent name: %w", err)
		}
		result = append(result, Correspondent{
			ID:          e.ID,
			Name:        name,
			ServerURL:   e.ServerURL,
			IsInitiator: e.IsInitiator,
			IsService:   e.IsService,
		})
	}
	return result, nil
}

// SendMessage seals the message fields under the correspondence key and
// sends them. An empty exchangeID starts a new thread; the returned id
// continues it.
func (c *Client) SendMessage(ctx context.Context, correspondentID, exchangeID string,
	important bool, title, category, body string) (string, error) {

	var found *api.Correspondent
	var resp api.CorrespondentsResponse
	if err := c.do(ctx, http.MethodGet, api.RouteCorrespondents, nil, &resp); err != nil {
		return "", err
	}
	for i := range resp.Correspondents {
		if resp.Correspondents[i].ID == correspondentID {
			found = &resp.Correspondents[i]
			break
		}
	}
	if found == nil {
		return "", fmt.Errorf("unknown correspondent %q", correspondentID)
	}

	strategy := keyring.WrappedByMasterKey{Envelope: found.CorrespondenceKeyMK}

	titleEnv, err := c.keys.SealText(title, strategy)
	if err != nil {
		return "", fmt.Errorf("sealing title: %w", err)
	}
	categoryEnv, err := c.keys.SealText(category, strategy)
	if err != nil {
		return "", fmt.Errorf("sealing category: %w", err)
	}
	bodyEnv, err := c.keys.SealText(body, strategy)
	if err != nil {
		return "", fmt.Errorf("sealing body: %w", err)
	}

	var sendResp api.SendMessageResponse
	err = c.do(ctx, http.MethodPost, api.RouteSendMessage, &api.SendMessageRequest{
		CorrespondentID: correspondentID,
		ExchangeID:      exchangeID,
		Message: api.MessagePayload{
			IsImportant: important,
			TitleCK:     titleEnv,
			CategoryCK:  categoryEnv,
			BodyCK:      bodyEnv,
		},
	}, &sendResp)
	if err != nil {
		return "", err
	}

	return sendResp.ExchangeID, nil
}

// Messages fetches and decrypts the user's messages, newest first.
func (c *Client) Messages(ctx context.Context) ([]Message, error) {

	var resp api.MessagesResponse
	if err := c.do(ctx, http.MethodGet, api.RouteMessages, nil, &resp); err != nil {
		return nil, err
	}

	result := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		strategy := keyring.WrappedByMasterKey{Envelope: m.CorrespondenceKeyMK}

		title, err := c.keys.OpenText(m.TitleCK, strategy)
		if err != nil {
			return nil, fmt.Errorf("opening title: %w", err)
		}
		category, err := c.keys.OpenText(m.CategoryCK, strategy)
		if err != nil {
			return nil, fmt.Errorf("opening category: %w", err)
		}
		body, err := c.keys.OpenText(m.BodyCK, strategy)
		if err != nil {
			return nil, fmt.Errorf("opening body: %w", err)
		}

		result = append(result, Message{
			ExchangeID:      m.ExchangeID,
			CorrespondentID: m.CorrespondentID,
			IsImportant:     m.IsImportant,
			Title:           title,
			Category:        category,
			Body:            body,
			CreatedAt:       m.CreatedAt,
		})
	}
	return result, nil
}
