// Package handshakes persists the per-phase records of the correspondence
// handshake, keyed by the globally unique correspondence init id.
package handshakes

import (
	"context"

	"github.com/plume-im/plume/internal/server/models"
)

type Repository interface {
	// Phase 1 (initiator's server).
	CreateInit(ctx context.Context, init *models.CorrespondenceInit) (*models.CorrespondenceInit, error)
	FindInitByCode(ctx context.Context, correspondenceCode string) (*models.CorrespondenceInit, error)
	FindInitByID(ctx context.Context, correspondenceInitID string) (*models.CorrespondenceInit, error)

	// Phase 2→3 (target's server). A duplicate answer for the same init id
	// yields common.ErrorConflict, never a silent overwrite.
	CreateAnswered(ctx context.Context, answered *models.AnsweredRequest) (*models.AnsweredRequest, error)
	FindAnsweredByInitID(ctx context.Context, correspondenceInitID string) (*models.AnsweredRequest, error)

	// Phase 3→4 (initiator's server).
	CreateFilled(ctx context.Context, filled *models.FilledRequest) (*models.FilledRequest, error)
	FindFilledByInitID(ctx context.Context, correspondenceInitID string) (*models.FilledRequest, error)
	ListPendingFilled(ctx context.Context, userID string) ([]models.PendingFilled, error)

	// Phase 4→5 (target's server).
	CreateFullyFilled(ctx context.Context, req *models.FullyFilledRequest) (*models.FullyFilledRequest, error)
	FindFullyFilledByInitID(ctx context.Context, correspondenceInitID string) (*models.FullyFilledRequest, error)
	ListPendingFullyFilled(ctx context.Context, userID string) ([]models.PendingFullyFilled, error)
	DeleteFullyFilled(ctx context.Context, id string) error

	// Phase 5 relay (initiator's server).
	CreateAcceptedRelay(ctx context.Context, relay *models.AcceptedRelay) (*models.AcceptedRelay, error)
	FindAcceptedRelayByInitID(ctx context.Context, correspondenceInitID string) (*models.AcceptedRelay, error)
	DeleteAcceptedRelay(ctx context.Context, id string) error
}
