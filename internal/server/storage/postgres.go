package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/plume-im/plume/internal/dbx"
	"github.com/plume-im/plume/internal/server/migrations"
	"github.com/plume-im/plume/internal/server/repositories/correspondents"
	"github.com/plume-im/plume/internal/server/repositories/exchanges"
	"github.com/plume-im/plume/internal/server/repositories/handshakes"
	"github.com/plume-im/plume/internal/server/repositories/sessions"
	"github.com/plume-im/plume/internal/server/repositories/users"
)

// PostgresStore backs the repositories with PostgreSQL. Repositories vended
// from the root store run against the pool; inside WithinTx they run against
// the open transaction.
type PostgresStore struct {
	db   *sql.DB
	conn dbx.DBTX
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &PostgresStore{db: db, conn: db}, nil
}

func (s *PostgresStore) Users() users.Repository {
	return users.NewPostgresRepository(s.conn)
}

func (s *PostgresStore) Sessions() sessions.Repository {
	return sessions.NewPostgresRepository(s.conn)
}

func (s *PostgresStore) Handshakes() handshakes.Repository {
	return handshakes.NewPostgresRepository(s.conn)
}

func (s *PostgresStore) Correspondents() correspondents.Repository {
	return correspondents.NewPostgresRepository(s.conn)
}

func (s *PostgresStore) Exchanges() exchanges.Repository {
	return exchanges.NewPostgresRepository(s.conn)
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if _, nested := s.conn.(*sql.Tx); nested {
		return fn(ctx, s)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &PostgresStore{db: s.db, conn: tx})
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the backing database.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, s.db, "."); err != nil {
		return err
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
