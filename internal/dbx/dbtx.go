// Package dbx holds the small database plumbing shared by every Postgres
// repository: the DBTX handle they accept, and WithTx, which the storage
// layer uses to span a handshake phase or a message send over one
// transaction.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is what a repository needs from database/sql. Satisfied by *sql.DB
// and *sql.Tx alike, so the same repository code runs standalone or inside
// a WithTx body.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction on db: commit when fn returns nil,
// rollback when it returns an error or panics (the panic is re-raised after
// rollback). fn must do all its work through the tx it is handed, not
// through db.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if _, err := tx.ExecContext(ctx, deleteFilled, id); err != nil {
//	        return err
//	    }
//	    _, err := tx.ExecContext(ctx, insertCorrespondent, id, name)
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
