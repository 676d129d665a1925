package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/plume-im/plume/internal/common"
	"github.com/plume-im/plume/internal/dbx"
	"github.com/plume-im/plume/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {

	query :=
		`INSERT INTO sessions (user_id, access_token)
         VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, session.UserID, session.AccessToken).
		Scan(&session.ID, &session.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return session, nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, accessToken string) (*models.Session, error) {
	query :=
		`SELECT id, user_id, access_token, created_at FROM sessions
		 WHERE access_token = $1
		 `

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, accessToken).
		Scan(&session.ID, &session.UserID, &session.AccessToken, &session.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return session, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
