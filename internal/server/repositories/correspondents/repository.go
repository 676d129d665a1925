package correspondents

import (
	"context"

	"github.com/plume-im/plume/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, correspondent *models.Correspondent) (*models.Correspondent, error)
	FindByID(ctx context.Context, id string) (*models.Correspondent, error)
	// FindByIncomingToken authenticates a counterpart server's push.
	FindByIncomingToken(ctx context.Context, incomingAccessToken string) (*models.Correspondent, error)
	ListForUser(ctx context.Context, userID string) ([]models.Correspondent, error)
}
