package users

import (
	"context"

	"github.com/plume-im/plume/internal/server/models"
)

type Repository interface {
	// Create inserts a new user. A duplicate username hash yields
	// common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByUsernameHash(ctx context.Context, usernameHash string) (*models.User, error)
}
