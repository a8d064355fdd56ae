package core

import (
	"context"
	"database/sql"
)

type (
	// DBExecutor runs statements; satisfied by *sql.DB, *sql.Tx and their sqlx counterparts.
	DBExecutor interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		PingContext(ctx context.Context) error
		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
		Close() error
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

// TxOptions are the options used by every multi-statement write.
var TxOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
