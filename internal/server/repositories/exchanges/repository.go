package exchanges

import (
	"context"

	"github.com/plume-im/plume/internal/server/models"
)

type Repository interface {
	CreateExchange(ctx context.Context, exchange *models.Exchange) (*models.Exchange, error)
	FindExchangeByExchangeID(ctx context.Context, exchangeID string) (*models.Exchange, error)
	CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error)
	// ListMessagesForUser returns every message across the user's exchanges,
	// joined with the envelope material needed to open them client-side.
	ListMessagesForUser(ctx context.Context, userID string) ([]models.MessageView, error)
}
