package handshakes

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

func mapRowError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) CreateInit(ctx context.Context, init *models.CorrespondenceInit) (*models.CorrespondenceInit, error) {

	query :=
		`INSERT INTO correspondence_inits (for_user_id, correspondence_init_id, correspondence_code,
             public_key, private_key_mk, private_key_mk_iv)
         VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		init.ForUserID, init.CorrespondenceInitID, init.CorrespondenceCode,
		init.PublicKey, init.PrivateKeyMK.Content, init.PrivateKeyMK.IV).Scan(&init.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return init, nil
}

func (r *PostgresRepository) FindInitByCode(ctx context.Context, correspondenceCode string) (*models.CorrespondenceInit, error) {
	return r.findInit(ctx, `correspondence_code`, correspondenceCode)
}

func (r *PostgresRepository) FindInitByID(ctx context.Context, correspondenceInitID string) (*models.CorrespondenceInit, error) {
	return r.findInit(ctx, `correspondence_init_id`, correspondenceInitID)
}

func (r *PostgresRepository) findInit(ctx context.Context, column, value string) (*models.CorrespondenceInit, error) {
	query := fmt.Sprintf(
		`SELECT id, for_user_id, correspondence_init_id, correspondence_code,
             public_key, private_key_mk, private_key_mk_iv, created_at
         FROM correspondence_inits
		 WHERE %s = $1
		 `, column)

	init := &models.CorrespondenceInit{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&init.ID, &init.ForUserID, &init.CorrespondenceInitID, &init.CorrespondenceCode,
		&init.PublicKey, &init.PrivateKeyMK.Content, &init.PrivateKeyMK.IV, &init.CreatedAt)

	if err != nil {
		return nil, mapRowError(err)
	}

	return init, nil
}

func (r *PostgresRepository) CreateAnswered(ctx context.Context, answered *models.AnsweredRequest) (*models.AnsweredRequest, error) {

	query :=
		`INSERT INTO answered_requests (for_user_id, correspondence_init_id,
             correspondence_key_mk, correspondence_key_mk_iv, server_url)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		answered.ForUserID, answered.CorrespondenceInitID,
		answered.CorrespondenceKeyMK.Content, answered.CorrespondenceKeyMK.IV,
		answered.ServerURL).Scan(&answered.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return answered, nil
}

func (r *PostgresRepository) FindAnsweredByInitID(ctx context.Context, correspondenceInitID string) (*models.AnsweredRequest, error) {
	query :=
		`SELECT id, for_user_id, correspondence_init_id, correspondence_key_mk,
             correspondence_key_mk_iv, server_url, created_at
         FROM answered_requests
		 WHERE correspondence_init_id = $1
		 `

	answered := &models.AnsweredRequest{}
	err := r.db.QueryRowContext(ctx, query, correspondenceInitID).Scan(
		&answered.ID, &answered.ForUserID, &answered.CorrespondenceInitID,
		&answered.CorrespondenceKeyMK.Content, &answered.CorrespondenceKeyMK.IV,
		&answered.ServerURL, &answered.CreatedAt)

	if err != nil {
		return nil, mapRowError(err)
	}

	return answered, nil
}

func (r *PostgresRepository) CreateFilled(ctx context.Context, filled *models.FilledRequest) (*models.FilledRequest, error) {

	query :=
		`INSERT INTO filled_requests (for_user_id, correspondence_init_id,
             correspondence_key_cipk, user_display_name_ck, user_display_name_ck_iv, server_url)
         VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		filled.ForUserID, filled.CorrespondenceInitID, filled.CorrespondenceKeyCIPK,
		filled.UserDisplayNameCK.Content, filled.UserDisplayNameCK.IV,
		filled.ServerURL).Scan(&filled.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return filled, nil
}

func (r *PostgresRepository) FindFilledByInitID(ctx context.Context, correspondenceInitID string) (*models.FilledRequest, error) {
	query :=
		`SELECT id, for_user_id, correspondence_init_id, correspondence_key_cipk,
             user_display_name_ck, user_display_name_ck_iv, server_url, created_at
         FROM filled_requests
		 WHERE correspondence_init_id = $1
		 `

	filled := &models.FilledRequest{}
	err := r.db.QueryRowContext(ctx, query, correspondenceInitID).Scan(
		&filled.ID, &filled.ForUserID, &filled.CorrespondenceInitID, &filled.CorrespondenceKeyCIPK,
		&filled.UserDisplayNameCK.Content, &filled.UserDisplayNameCK.IV,
		&filled.ServerURL, &filled.CreatedAt)

	if err != nil {
		return nil, mapRowError(err)
	}

	return filled, nil
}

func (r *PostgresRepository) ListPendingFilled(ctx context.Context, userID string) ([]models.PendingFilled, error) {
	query :=
		`SELECT f.correspondence_init_id, f.correspondence_key_cipk,
             f.user_display_name_ck, f.user_display_name_ck_iv,
             i.private_key_mk, i.private_key_mk_iv
         FROM filled_requests f
         JOIN correspondence_inits i ON i.correspondence_init_id = f.correspondence_init_id
		 WHERE f.for_user_id = $1
         ORDER BY f.created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var pending []models.PendingFilled
	for rows.Next() {
		var p models.PendingFilled
		if err := rows.Scan(&p.CorrespondenceInitID, &p.CorrespondenceKeyCIPK,
			&p.UserDisplayNameCK.Content, &p.UserDisplayNameCK.IV,
			&p.PrivateKeyMK.Content, &p.PrivateKeyMK.IV); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return pending, nil
}

func (r *PostgresRepository) CreateFullyFilled(ctx context.Context, req *models.FullyFilledRequest) (*models.FullyFilledRequest, error) {

	query :=
		`INSERT INTO fully_filled_requests (for_user_id, correspondence_init_id,
             user_display_name_ck, user_display_name_ck_iv)
         VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		req.ForUserID, req.CorrespondenceInitID,
		req.UserDisplayNameCK.Content, req.UserDisplayNameCK.IV).Scan(&req.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return req, nil
}

func (r *PostgresRepository) FindFullyFilledByInitID(ctx context.Context, correspondenceInitID string) (*models.FullyFilledRequest, error) {
	query :=
		`SELECT id, for_user_id, correspondence_init_id,
             user_display_name_ck, user_display_name_ck_iv, created_at
         FROM fully_filled_requests
		 WHERE correspondence_init_id = $1
		 `

	req := &models.FullyFilledRequest{}
	err := r.db.QueryRowContext(ctx, query, correspondenceInitID).Scan(
		&req.ID, &req.ForUserID, &req.CorrespondenceInitID,
		&req.UserDisplayNameCK.Content, &req.UserDisplayNameCK.IV, &req.CreatedAt)

	if err != nil {
		return nil, mapRowError(err)
	}

	return req, nil
}

func (r *PostgresRepository) ListPendingFullyFilled(ctx context.Context, userID string) ([]models.PendingFullyFilled, error) {
	query :=
		`SELECT ff.correspondence_init_id, a.correspondence_key_mk, a.correspondence_key_mk_iv,
             ff.user_display_name_ck, ff.user_display_name_ck_iv, a.server_url
         FROM fully_filled_requests ff
         JOIN answered_requests a ON a.correspondence_init_id = ff.correspondence_init_id
		 WHERE ff.for_user_id = $1
         ORDER BY ff.created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var pending []models.PendingFullyFilled
	for rows.Next() {
		var p models.PendingFullyFilled
		if err := rows.Scan(&p.CorrespondenceInitID,
			&p.CorrespondenceKeyMK.Content, &p.CorrespondenceKeyMK.IV,
			&p.UserDisplayNameCK.Content, &p.UserDisplayNameCK.IV,
			&p.ServerURL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return pending, nil
}

func (r *PostgresRepository) DeleteFullyFilled(ctx context.Context, id string) error {
	query := `DELETE FROM fully_filled_requests WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateAcceptedRelay(ctx context.Context, relay *models.AcceptedRelay) (*models.AcceptedRelay, error) {

	query :=
		`INSERT INTO accepted_relays (for_user_id, correspondence_init_id,
             correspondence_key_mk, correspondence_key_mk_iv)
         VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		relay.ForUserID, relay.CorrespondenceInitID,
		relay.CorrespondenceKeyMK.Content, relay.CorrespondenceKeyMK.IV).Scan(&relay.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return relay, nil
}

func (r *PostgresRepository) FindAcceptedRelayByInitID(ctx context.Context, correspondenceInitID string) (*models.AcceptedRelay, error) {
	query :=
		`SELECT id, for_user_id, correspondence_init_id,
             correspondence_key_mk, correspondence_key_mk_iv, created_at
         FROM accepted_relays
		 WHERE correspondence_init_id = $1
		 `

	relay := &models.AcceptedRelay{}
	err := r.db.QueryRowContext(ctx, query, correspondenceInitID).Scan(
		&relay.ID, &relay.ForUserID, &relay.CorrespondenceInitID,
		&relay.CorrespondenceKeyMK.Content, &relay.CorrespondenceKeyMK.IV, &relay.CreatedAt)

	if err != nil {
		return nil, mapRowError(err)
	}

	return relay, nil
}

func (r *PostgresRepository) DeleteAcceptedRelay(ctx context.Context, id string) error {
	query := `DELETE FROM accepted_relays WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
