package users

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username_hash, password_salt, password_proof_plain_text,
             password_proof_pk, password_proof_pk_iv, master_key_pk, master_key_pk_iv,
             display_name_mk, display_name_mk_iv)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UsernameHash, user.PasswordSalt, user.PasswordProofPlainText,
		user.PasswordProofPK.Content, user.PasswordProofPK.IV,
		user.MasterKeyPK.Content, user.MasterKeyPK.IV,
		user.DisplayNameMK.Content, user.DisplayNameMK.IV).Scan(&user.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByUsernameHash(ctx context.Context, usernameHash string) (*models.User, error) {
	query :=
		`SELECT id, username_hash, password_salt, password_proof_plain_text,
             password_proof_pk, password_proof_pk_iv, master_key_pk, master_key_pk_iv,
             display_name_mk, display_name_mk_iv, created_at
         FROM users
		 WHERE username_hash = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, usernameHash).Scan(
		&user.ID, &user.UsernameHash, &user.PasswordSalt, &user.PasswordProofPlainText,
		&user.PasswordProofPK.Content, &user.PasswordProofPK.IV,
		&user.MasterKeyPK.Content, &user.MasterKeyPK.IV,
		&user.DisplayNameMK.Content, &user.DisplayNameMK.IV, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
