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

// PeerClient pushes handshake phases and messages to a counterpart server.
// Implemented by the federation HTTP client; swapped for fakes in tests.
type PeerClient interface {
	FillInfos(ctx context.Context, serverURL string, req *api.FillInfosRequest) error
	ReceiveFilledRequestAnswer(ctx context.Context, serverURL string, req *api.FilledRequestAnswer) error
	FullyAcceptRequest(ctx context.Context, serverURL string, req *api.FullyAcceptRequest) (*api.FullyAcceptResponse, error)
	ReceiveMessage(ctx context.Context, serverURL string, req *api.ReceiveMessageRequest) (*api.ReceiveMessageResponse, error)
}

// HandshakeService drives the five-phase correspondence handshake. Phases 3
// and 5 write locally and push to the counterpart server inside one local
// transaction, so a failed push leaves no half-finished state behind.
type HandshakeService struct {
	store storage.Store
	peers PeerClient
	// serverURL is this server's public base URL, sent to counterparts so
	// they can push back.
	serverURL string
}

func NewHandshakeService(store storage.Store, peers PeerClient, serverURL string) *HandshakeService {
	return &HandshakeService{store: store, peers: peers, serverURL: serverURL}
}

// GenerateCode starts a handshake: it stores the client-generated keypair
// material under a fresh shareable code and init id.
func (s *HandshakeService) GenerateCode(ctx context.Context, session *models.Session, req *api.GenerateCodeRequest) (*api.GenerateCodeResponse, error) {

	init := &models.CorrespondenceInit{
		ForUserID:            session.UserID,
		CorrespondenceInitID: uuid.NewString(),
		CorrespondenceCode:   uuid.NewString(),
		PublicKey:            req.CorrespondenceInitPublicKey,
		PrivateKeyMK:         req.CorrespondenceInitPrivateKey,
	}

	if _, err := s.store.Handshakes().CreateInit(ctx, init); err != nil {
		return nil, fmt.Errorf("error creating init: %w", err)
	}

	return &api.GenerateCodeResponse{CorrespondenceCode: init.CorrespondenceCode}, nil
}

// GetPublicKey is the only unauthenticated read of the handshake: it trades
// a shareable code for the init id and public key.
func (s *HandshakeService) GetPublicKey(ctx context.Context, correspondenceCode string) (*api.PublicKeyResponse, error) {

	init, err := s.store.Handshakes().FindInitByCode(ctx, correspondenceCode)
	if err != nil {
		return nil, fmt.Errorf("error searching init: %w", err)
	}

	return &api.PublicKeyResponse{
		CorrespondenceInitID:        init.CorrespondenceInitID,
		CorrespondenceInitPublicKey: init.PublicKey,
	}, nil
}

// CreateAnswered records the target side's answer and pushes the filled
// infos to the initiator's server. A second answer for the same init id is
// a conflict. The push runs inside the local transaction: if the
// counterpart cannot be reached, the answer is rolled back and the client
// may retry.
func (s *HandshakeService) CreateAnswered(ctx context.Context, session *models.Session, req *api.CreateAnsweredRequest) error {

	answered := &models.AnsweredRequest{
		ForUserID:            session.UserID,
		CorrespondenceInitID: req.CorrespondenceInitID,
		CorrespondenceKeyMK:  req.CorrespondenceKeyMK,
		ServerURL:            req.ServerURL,
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		if _, err := tx.Handshakes().CreateAnswered(ctx, answered); err != nil {
			return fmt.Errorf("error creating answered request: %w", err)
		}

		return s.peers.FillInfos(ctx, req.ServerURL, &api.FillInfosRequest{
			CorrespondenceInitID:  req.CorrespondenceInitID,
			CorrespondenceKeyCIPK: req.CorrespondenceKeyCIPK,
			DisplayNameCK:         req.DisplayNameCK,
			ServerURL:             s.serverURL,
		})
	})
}

// FillInfos is the public inbound half of phase 3: a counterpart server
// delivers the target's answer for one of our init records. Redelivery for
// an init id already filled is acked as success, so the sender's retry loop
// cannot wedge a handshake whose first push landed but lost its ack.
func (s *HandshakeService) FillInfos(ctx context.Context, req *api.FillInfosRequest) error {

	init, err := s.store.Handshakes().FindInitByID(ctx, req.CorrespondenceInitID)
	if err != nil {
		return fmt.Errorf("error searching init: %w", err)
	}

	filled := &models.FilledRequest{
		ForUserID:             init.ForUserID,
		CorrespondenceInitID:  init.CorrespondenceInitID,
		CorrespondenceKeyCIPK: req.CorrespondenceKeyCIPK,
		UserDisplayNameCK:     req.DisplayNameCK,
		ServerURL:             req.ServerURL,
	}

	if _, err := s.store.Handshakes().CreateFilled(ctx, filled); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil
		}
		return fmt.Errorf("error creating filled request: %w", err)
	}

	return nil
}

func (s *HandshakeService) PendingFilledRequests(ctx context.Context, session *models.Session) (*api.PendingFilledResponse, error) {

	pending, err := s.store.Handshakes().ListPendingFilled(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("error listing filled requests: %w", err)
	}

	resp := &api.PendingFilledResponse{Requests: []api.PendingFilledRequest{}}
	for _, p := range pending {
		resp.Requests = append(resp.Requests, api.PendingFilledRequest{
			CorrespondenceInitID:           p.CorrespondenceInitID,
			CorrespondenceKeyCIPK:          p.CorrespondenceKeyCIPK,
			UserDisplayNameCK:              p.UserDisplayNameCK,
			CorrespondenceInitPrivateKeyMK: p.PrivateKeyMK,
		})
	}
	return resp, nil
}

// AnswerFilledRequest is the initiator's phase-4 confirmation: it parks the
// re-encrypted correspondence key in a relay record and notifies the
// target's server, both inside one local transaction.
func (s *HandshakeService) AnswerFilledRequest(ctx context.Context, session *models.Session, req *api.AnswerFilledRequest) error {

	init, err := s.store.Handshakes().FindInitByID(ctx, req.CorrespondenceInitID)
	if err != nil {
		return fmt.Errorf("error searching init: %w", err)
	}

	if init.ForUserID != session.UserID {
		return common.ErrorForbidden
	}

	filled, err := s.store.Handshakes().FindFilledByInitID(ctx, req.CorrespondenceInitID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: not filled yet", common.ErrorPreconditionFailed)
		}
		return fmt.Errorf("error searching filled request: %w", err)
	}

	relay := &models.AcceptedRelay{
		ForUserID:            session.UserID,
		CorrespondenceInitID: req.CorrespondenceInitID,
		CorrespondenceKeyMK:  req.CorrespondenceKeyMK,
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		if _, err := tx.Handshakes().CreateAcceptedRelay(ctx, relay); err != nil {
			return fmt.Errorf("error creating relay: %w", err)
		}

		return s.peers.ReceiveFilledRequestAnswer(ctx, filled.ServerURL, &api.FilledRequestAnswer{
			CorrespondenceInitID: req.CorrespondenceInitID,
			UserDisplayNameCK:    req.UserDisplayNameCK,
		})
	})
}

// ReceiveFilledRequestAnswer is the public inbound half of phase 4 on the
// target's server. Like FillInfos, redelivery for an init id already
// recorded is acked as success.
func (s *HandshakeService) ReceiveFilledRequestAnswer(ctx context.Context, req *api.FilledRequestAnswer) error {

	answered, err := s.store.Handshakes().FindAnsweredByInitID(ctx, req.CorrespondenceInitID)
	if err != nil {
		return fmt.Errorf("error searching answered request: %w", err)
	}

	ff := &models.FullyFilledRequest{
		ForUserID:            answered.ForUserID,
		CorrespondenceInitID: answered.CorrespondenceInitID,
		UserDisplayNameCK:    req.UserDisplayNameCK,
	}

	if _, err := s.store.Handshakes().CreateFullyFilled(ctx, ff); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil
		}
		return fmt.Errorf("error creating fully filled request: %w", err)
	}

	return nil
}

func (s *HandshakeService) PendingFullyFilledRequests(ctx context.Context, session *models.Session) (*api.PendingFullyFilledResponse, error) {

	pending, err := s.store.Handshakes().ListPendingFullyFilled(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("error listing fully filled requests: %w", err)
	}

	resp := &api.PendingFullyFilledResponse{Requests: []api.PendingFullyFilledRequest{}}
	for _, p := range pending {
		resp.Requests = append(resp.Requests, api.PendingFullyFilledRequest{
			CorrespondenceInitID: p.CorrespondenceInitID,
			CorrespondenceKeyMK:  p.CorrespondenceKeyMK,
			UserDisplayNameCK:    p.UserDisplayNameCK,
			ServerURL:            p.ServerURL,
		})
	}
	return resp, nil
}

// MarkAcceptedRequest is the target's final confirmation. It mints this
// side's incoming access token, finalizes with the initiator's server, and
// records the correspondent, all inside one local transaction. The two
// servers end up holding each other's tokens crosswise.
func (s *HandshakeService) MarkAcceptedRequest(ctx context.Context, session *models.Session, req *api.MarkAcceptedRequest) error {

	answered, err := s.store.Handshakes().FindAnsweredByInitID(ctx, req.CorrespondenceInitID)
	if err != nil {
		return fmt.Errorf("error searching answered request: %w", err)
	}

	if answered.ForUserID != session.UserID {
		return common.ErrorForbidden
	}

	ff, err := s.store.Handshakes().FindFullyFilledByInitID(ctx, req.CorrespondenceInitID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: not fully filled yet", common.ErrorPreconditionFailed)
		}
		return fmt.Errorf("error searching fully filled request: %w", err)
	}

	incomingToken := uuid.NewString()

	return s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		if err := tx.Handshakes().DeleteFullyFilled(ctx, ff.ID); err != nil {
			return fmt.Errorf("error deleting fully filled request: %w", err)
		}

		resp, err := s.peers.FullyAcceptRequest(ctx, answered.ServerURL, &api.FullyAcceptRequest{
			CorrespondenceInitID: req.CorrespondenceInitID,
			AccessToken:          incomingToken,
		})
		if err != nil {
			return err
		}

		correspondent := &models.Correspondent{
			ForUserID:           session.UserID,
			IncomingAccessToken: incomingToken,
			OutgoingAccessToken: resp.AccessToken,
			CorrespondenceKeyMK: answered.CorrespondenceKeyMK,
			UserDisplayNameCK:   ff.UserDisplayNameCK,
			ServerURL:           answered.ServerURL,
			IsInitiator:         false,
		}

		if _, err := tx.Correspondents().Create(ctx, correspondent); err != nil {
			return fmt.Errorf("error creating correspondent: %w", err)
		}
		return nil
	})
}

// FullyAcceptRequest is the public inbound finish on the initiator's
// server. It walks init, filled request and relay, refusing to fabricate
// any missing link, then consumes the relay and returns this side's
// freshly minted incoming token.
func (s *HandshakeService) FullyAcceptRequest(ctx context.Context, req *api.FullyAcceptRequest) (*api.FullyAcceptResponse, error) {

	init, err := s.store.Handshakes().FindInitByID(ctx, req.CorrespondenceInitID)
	if err != nil {
		return nil, fmt.Errorf("error searching init: %w", err)
	}

	filled, err := s.store.Handshakes().FindFilledByInitID(ctx, req.CorrespondenceInitID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: not filled yet", common.ErrorPreconditionFailed)
		}
		return nil, fmt.Errorf("error searching filled request: %w", err)
	}

	relay, err := s.store.Handshakes().FindAcceptedRelayByInitID(ctx, req.CorrespondenceInitID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: not accepted yet", common.ErrorPreconditionFailed)
		}
		return nil, fmt.Errorf("error searching relay: %w", err)
	}

	incomingToken := uuid.NewString()

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		if err := tx.Handshakes().DeleteAcceptedRelay(ctx, relay.ID); err != nil {
			return fmt.Errorf("error deleting relay: %w", err)
		}

		correspondent := &models.Correspondent{
			ForUserID:           init.ForUserID,
			IncomingAccessToken: incomingToken,
			OutgoingAccessToken: req.AccessToken,
			CorrespondenceKeyMK: relay.CorrespondenceKeyMK,
			UserDisplayNameCK:   filled.UserDisplayNameCK,
			ServerURL:           filled.ServerURL,
			IsInitiator:         true,
		}

		if _, err := tx.Correspondents().Create(ctx, correspondent); err != nil {
			return fmt.Errorf("error creating correspondent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &api.FullyAcceptResponse{AccessToken: incomingToken}, nil
}
