// Package dbx provides the small DB abstractions shared by repositories and
// services: DBTX (satisfied by *sql.DB and *sql.Tx), WithTx, and Database,
// which lets a service open its own unit of work without knowing whether the
// backend is PostgreSQL or the in-memory store.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
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

// Database is what services hold instead of a raw *sql.DB.
//
// Conn returns the pooled handle for single statements. WithTx always starts a
// fresh transaction on the pool; it never joins one the caller may hold, so
// work done inside it commits or rolls back on its own.
type Database interface {
	Conn() DBTX
	WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLDatabase is the database/sql backed Database.
type SQLDatabase struct {
	db   *sql.DB
	opts *sql.TxOptions
}

func NewSQLDatabase(db *sql.DB, opts *sql.TxOptions) *SQLDatabase {
	return &SQLDatabase{db: db, opts: opts}
}

func (d *SQLDatabase) Conn() DBTX { return d.db }

func (d *SQLDatabase) WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return WithTx(ctx, d.db, d.opts, fn)
}

// DB exposes the pool, e.g. for migrations and Close.
func (d *SQLDatabase) DB() *sql.DB { return d.db }

// Detached is the Database used with repositories that keep their own state
// (the in-memory backend). Conn is nil and WithTx simply calls fn; every
// repository call is individually atomic but nothing is rolled back.
type Detached struct{}

func (Detached) Conn() DBTX { return nil }

func (Detached) WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return fn(ctx, nil)
}
