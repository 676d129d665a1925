// Package services implements the server-side application logic: account
// lifecycle, the correspondence handshake phases, and message exchanges.
// All cryptographic material passing through here is ciphertext; keys never
// leave the clients.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/plume-im/plume/internal/api"
	"github.com/plume-im/plume/internal/common"
	"github.com/plume-im/plume/internal/server/models"
	"github.com/plume-im/plume/internal/server/storage"
)

type UserService struct {
	store      storage.Store
	sessionTTL time.Duration
}

func NewUserService(store storage.Store, sessionTTL time.Duration) *UserService {
	return &UserService{store: store, sessionTTL: sessionTTL}
}

func (s *UserService) Register(ctx context.Context, req *api.RegisterRequest) error {

	if req.UsernameHash == "" {
		return fmt.Errorf("%w: empty username hash", common.ErrorConflict)
	}

	user := &models.User{
		UsernameHash:           req.UsernameHash,
		PasswordSalt:           req.PasswordSalt,
		PasswordProofPlainText: req.PasswordProofPlainText,
		PasswordProofPK:        req.PasswordProofPK,
		MasterKeyPK:            req.MasterKeyPK,
		DisplayNameMK:          req.DisplayNameMK,
	}

	if _, err := s.store.Users().Create(ctx, user); err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}

	return nil
}

func (s *UserService) GetLoginInfo(ctx context.Context, req *api.LoginInfoRequest) (*api.LoginInfoResponse, error) {

	user, err := s.store.Users().FindByUsernameHash(ctx, req.UsernameHash)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	return &api.LoginInfoResponse{
		PasswordSalt:           user.PasswordSalt,
		PasswordProofPlainText: user.PasswordProofPlainText,
		PasswordProofPKIV:      user.PasswordProofPK.IV,
	}, nil
}

func (s *UserService) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {

	user, err := s.store.Users().FindByUsernameHash(ctx, req.UsernameHash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	// The proof is deterministic ciphertext; knowing the password is the
	// only way to reproduce it.
	if subtle.ConstantTimeCompare([]byte(req.PasswordProofPK), []byte(user.PasswordProofPK.Content)) != 1 {
		return nil, common.ErrorUnauthorized
	}

	session := &models.Session{
		UserID:      user.ID,
		AccessToken: uuid.NewString(),
	}

	if _, err := s.store.Sessions().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	return &api.LoginResponse{
		AccessToken:   session.AccessToken,
		MasterKeyPK:   user.MasterKeyPK,
		DisplayNameMK: user.DisplayNameMK,
	}, nil
}

func (s *UserService) Logout(ctx context.Context, session *models.Session) error {
	if err := s.store.Sessions().Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// Authorize resolves an access token to its session. Expired sessions are
// deleted on sight and reported as invalid.
func (s *UserService) Authorize(ctx context.Context, accessToken string) (*models.Session, error) {

	session, err := s.store.Sessions().FindByToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching session: %w", err)
	}

	if time.Since(session.CreatedAt) > s.sessionTTL {
		if err := s.store.Sessions().Delete(ctx, session.ID); err != nil {
			return nil, fmt.Errorf("error deleting expired session: %w", err)
		}
		return nil, common.ErrInvalidToken
	}

	return session, nil
}
