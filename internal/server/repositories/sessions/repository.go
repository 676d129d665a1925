package sessions

import (
	"context"

	"github.com/plume-im/plume/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	FindByToken(ctx context.Context, accessToken string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}
