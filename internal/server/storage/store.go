// Package storage vends repository implementations over a shared backing
// store and provides a transactional view for multi-write operations.
package storage

import (
	"context"

	"github.com/plume-im/plume/internal/server/repositories/correspondents"
	"github.com/plume-im/plume/internal/server/repositories/exchanges"
	"github.com/plume-im/plume/internal/server/repositories/handshakes"
	"github.com/plume-im/plume/internal/server/repositories/sessions"
	"github.com/plume-im/plume/internal/server/repositories/users"
)

type Store interface {
	Users() users.Repository
	Sessions() sessions.Repository
	Handshakes() handshakes.Repository
	Correspondents() correspondents.Repository
	Exchanges() exchanges.Repository

	// WithinTx runs fn against a transactional view of the store. If fn
	// returns an error, every write made through the view is undone.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	RunMigrations(ctx context.Context) error
	Close() error
}
