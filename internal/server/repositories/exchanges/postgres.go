package exchanges

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

func (r *PostgresRepository) CreateExchange(ctx context.Context, exchange *models.Exchange) (*models.Exchange, error) {

	query :=
		`INSERT INTO exchanges (exchange_id, correspondent_id, user_id)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		exchange.ExchangeID, exchange.CorrespondentID, exchange.UserID).
		Scan(&exchange.ID, &exchange.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return exchange, nil
}

func (r *PostgresRepository) FindExchangeByExchangeID(ctx context.Context, exchangeID string) (*models.Exchange, error) {
	query :=
		`SELECT id, exchange_id, correspondent_id, user_id, created_at
         FROM exchanges
		 WHERE exchange_id = $1
		 `

	exchange := &models.Exchange{}
	err := r.db.QueryRowContext(ctx, query, exchangeID).Scan(
		&exchange.ID, &exchange.ExchangeID, &exchange.CorrespondentID,
		&exchange.UserID, &exchange.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return exchange, nil
}

func (r *PostgresRepository) CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error) {

	query :=
		`INSERT INTO messages (exchange_id, is_important,
             title_ck, title_ck_iv, category_ck, category_ck_iv, body_ck, body_ck_iv)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		message.ExchangeID, message.IsImportant,
		message.TitleCK.Content, message.TitleCK.IV,
		message.CategoryCK.Content, message.CategoryCK.IV,
		message.BodyCK.Content, message.BodyCK.IV).
		Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return message, nil
}

func (r *PostgresRepository) ListMessagesForUser(ctx context.Context, userID string) ([]models.MessageView, error) {
	query :=
		`SELECT m.id, m.exchange_id, m.is_important,
             m.title_ck, m.title_ck_iv, m.category_ck, m.category_ck_iv,
             m.body_ck, m.body_ck_iv, m.created_at,
             e.exchange_id, e.correspondent_id,
             c.correspondence_key_mk, c.correspondence_key_mk_iv
         FROM messages m
         JOIN exchanges e ON e.id = m.exchange_id
         JOIN correspondents c ON c.id = e.correspondent_id
		 WHERE e.user_id = $1
         ORDER BY m.created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.MessageView
	for rows.Next() {
		var v models.MessageView
		if err := rows.Scan(
			&v.ID, &v.ExchangeID, &v.IsImportant,
			&v.TitleCK.Content, &v.TitleCK.IV,
			&v.CategoryCK.Content, &v.CategoryCK.IV,
			&v.BodyCK.Content, &v.BodyCK.IV, &v.CreatedAt,
			&v.ThreadExchangeID, &v.CorrespondentID,
			&v.CorrespondenceKeyMK.Content, &v.CorrespondenceKeyMK.IV); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
