package correspondents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
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

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const selectColumns = `id, for_user_id, incoming_access_token, outgoing_access_token,
             correspondence_key_mk, correspondence_key_mk_iv,
             user_display_name_ck, user_display_name_ck_iv,
             server_url, is_initiator, is_service, created_at`

func (r *PostgresRepository) Create(ctx context.Context, correspondent *models.Correspondent) (*models.Correspondent, error) {

	query :=
		`INSERT INTO correspondents (for_user_id, incoming_access_token, outgoing_access_token,
             correspondence_key_mk, correspondence_key_mk_iv,
             user_display_name_ck, user_display_name_ck_iv,
             server_url, is_initiator, is_service)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		correspondent.ForUserID, correspondent.IncomingAccessToken, correspondent.OutgoingAccessToken,
		correspondent.CorrespondenceKeyMK.Content, correspondent.CorrespondenceKeyMK.IV,
		correspondent.UserDisplayNameCK.Content, correspondent.UserDisplayNameCK.IV,
		correspondent.ServerURL, correspondent.IsInitiator, correspondent.IsService).Scan(&correspondent.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return correspondent, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Correspondent, error) {
	return r.findOne(ctx, `id`, id)
}

func (r *PostgresRepository) FindByIncomingToken(ctx context.Context, incomingAccessToken string) (*models.Correspondent, error) {
	return r.findOne(ctx, `incoming_access_token`, incomingAccessToken)
}

func (r *PostgresRepository) findOne(ctx context.Context, column, value string) (*models.Correspondent, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM correspondents
		 WHERE %s = $1
		 `, selectColumns, column)

	c := &models.Correspondent{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&c.ID, &c.ForUserID, &c.IncomingAccessToken, &c.OutgoingAccessToken,
		&c.CorrespondenceKeyMK.Content, &c.CorrespondenceKeyMK.IV,
		&c.UserDisplayNameCK.Content, &c.UserDisplayNameCK.IV,
		&c.ServerURL, &c.IsInitiator, &c.IsService, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]models.Correspondent, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM correspondents
		 WHERE for_user_id = $1
         ORDER BY created_at
		 `, selectColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Correspondent
	for rows.Next() {
		var c models.Correspondent
		if err := rows.Scan(
			&c.ID, &c.ForUserID, &c.IncomingAccessToken, &c.OutgoingAccessToken,
			&c.CorrespondenceKeyMK.Content, &c.CorrespondenceKeyMK.IV,
			&c.UserDisplayNameCK.Content, &c.UserDisplayNameCK.IV,
			&c.ServerURL, &c.IsInitiator, &c.IsService, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
