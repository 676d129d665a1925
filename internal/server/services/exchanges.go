package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/plume-im/plume/internal/api"
	"github.com/plume-im/plume/internal/common"
	"github.com/plume-im/plume/internal/server/models"
	"github.com/plume-im/plume/internal/server/storage"
)

// ExchangeService handles encrypted message threads between correspondents.
// Outbound messages are pushed to the counterpart server with the outgoing
// access token; inbound pushes are authenticated against incoming tokens.
type ExchangeService struct {
	store storage.Store
	peers PeerClient
}

func NewExchangeService(store storage.Store, peers PeerClient) *ExchangeService {
	return &ExchangeService{store: store, peers: peers}
}

func (s *ExchangeService) ListCorrespondents(ctx context.Context, session *models.Session) (*api.CorrespondentsResponse, error) {

	list, err := s.store.Correspondents().ListForUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("error listing correspondents: %w", err)
	}

	resp := &api.CorrespondentsResponse{Correspondents: []api.Correspondent{}}
	for _, c := range list {
		resp.Correspondents = append(resp.Correspondents, api.Correspondent{
			ID:                  c.ID,
			CorrespondenceKeyMK: c.CorrespondenceKeyMK,
			UserDisplayNameCK:   c.UserDisplayNameCK,
			ServerURL:           c.ServerURL,
			IsInitiator:         c.IsInitiator,
			IsService:           c.IsService,
		})
	}
	return resp, nil
}

// SendMessage persists the message locally and pushes it to the
// correspondent's server inside one local transaction. A missing exchange
// id starts a new thread on both sides.
func (s *ExchangeService) SendMessage(ctx context.Context, session *models.Session, req *api.SendMessageRequest) (*api.SendMessageResponse, error) {

	correspondent, err := s.store.Correspondents().FindByID(ctx, req.CorrespondentID)
	if err != nil {
		return nil, fmt.Errorf("error searching correspondent: %w", err)
	}

	if correspondent.ForUserID != session.UserID {
		return nil, common.ErrorForbidden
	}

	newExchange := req.ExchangeID == ""
	exchangeID := req.ExchangeID
	if newExchange {
		exchangeID = uuid.NewString()
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		exchange, err := s.resolveExchange(ctx, tx, session, correspondent, exchangeID, newExchange)
		if err != nil {
			return err
		}

		message := &models.Message{
			ExchangeID:  exchange.ID,
			IsImportant: req.Message.IsImportant,
			TitleCK:     req.Message.TitleCK,
			CategoryCK:  req.Message.CategoryCK,
			BodyCK:      req.Message.BodyCK,
		}
		if _, err := tx.Exchanges().CreateMessage(ctx, message); err != nil {
			return fmt.Errorf("error creating message: %w", err)
		}

		_, err = s.peers.ReceiveMessage(ctx, correspondent.ServerURL, &api.ReceiveMessageRequest{
			AccessToken: correspondent.OutgoingAccessToken,
			ExchangeID:  exchangeID,
			NewExchange: newExchange,
			Message:     req.Message,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &api.SendMessageResponse{ExchangeID: exchangeID}, nil
}

func (s *ExchangeService) resolveExchange(ctx context.Context, tx storage.Store, session *models.Session, correspondent *models.Correspondent, exchangeID string, create bool) (*models.Exchange, error) {

	if create {
		exchange := &models.Exchange{
			ExchangeID:      exchangeID,
			CorrespondentID: correspondent.ID,
			UserID:          session.UserID,
		}
		if _, err := tx.Exchanges().CreateExchange(ctx, exchange); err != nil {
			return nil, fmt.Errorf("error creating exchange: %w", err)
		}
		return exchange, nil
	}

	exchange, err := tx.Exchanges().FindExchangeByExchangeID(ctx, exchangeID)
	if err != nil {
		return nil, fmt.Errorf("error searching exchange: %w", err)
	}
	if exchange.UserID != session.UserID || exchange.CorrespondentID != correspondent.ID {
		return nil, common.ErrorForbidden
	}
	return exchange, nil
}

// ReceiveMessage is the public inbound push. The bearer token must match a
// correspondent's incoming access token.
func (s *ExchangeService) ReceiveMessage(ctx context.Context, req *api.ReceiveMessageRequest) (*api.ReceiveMessageResponse, error) {

	correspondent, err := s.store.Correspondents().FindByIncomingToken(ctx, req.AccessToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching correspondent: %w", err)
	}

	exchangeID := req.ExchangeID
	if req.NewExchange && exchangeID == "" {
		exchangeID = uuid.NewString()
	}
	if exchangeID == "" {
		return nil, fmt.Errorf("%w: missing exchange id", common.ErrorInvalidInput)
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		var exchange *models.Exchange
		if req.NewExchange {
			exchange = &models.Exchange{
				ExchangeID:      exchangeID,
				CorrespondentID: correspondent.ID,
				UserID:          correspondent.ForUserID,
			}
			if _, err := tx.Exchanges().CreateExchange(ctx, exchange); err != nil {
				return fmt.Errorf("error creating exchange: %w", err)
			}
		} else {
			exchange, err = tx.Exchanges().FindExchangeByExchangeID(ctx, exchangeID)
			if err != nil {
				return fmt.Errorf("error searching exchange: %w", err)
			}
			if exchange.CorrespondentID != correspondent.ID {
				return common.ErrorForbidden
			}
		}

		message := &models.Message{
			ExchangeID:  exchange.ID,
			IsImportant: req.Message.IsImportant,
			TitleCK:     req.Message.TitleCK,
			CategoryCK:  req.Message.CategoryCK,
			BodyCK:      req.Message.BodyCK,
		}
		if _, err := tx.Exchanges().CreateMessage(ctx, message); err != nil {
			return fmt.Errorf("error creating message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &api.ReceiveMessageResponse{ExchangeID: exchangeID}, nil
}

func (s *ExchangeService) ListMessages(ctx context.Context, session *models.Session) (*api.MessagesResponse, error) {

	views, err := s.store.Exchanges().ListMessagesForUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}

	resp := &api.MessagesResponse{Messages: []api.Message{}}
	// Newest first.
	for i := len(views) - 1; i >= 0; i-- {
		v := views[i]
		resp.Messages = append(resp.Messages, api.Message{
			ExchangeID:          v.ThreadExchangeID,
			CorrespondentID:     v.CorrespondentID,
			CorrespondenceKeyMK: v.CorrespondenceKeyMK,
			IsImportant:         v.IsImportant,
			TitleCK:             v.TitleCK,
			CategoryCK:          v.CategoryCK,
			BodyCK:              v.BodyCK,
			CreatedAt:           v.CreatedAt,
		})
	}
	return resp, nil
}
