package core

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DB is implemented by *sqlx.DB and *sqlx.Tx.
type DB interface {
	sqlx.ExtContext

	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}
