// Package sqlxrepos implements the repositories on postgres, with sqlx and squirrel.
// Atomic check-and-writes rely on primary keys and unique constraints (INSERT ... ON CONFLICT).
package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/cheti/core"
)

// postgres error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// pqError returns the postgres error behind err, if any.
func pqError(err error) (*pq.Error, bool) {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return pqErr, ok
}

func isViolation(err error, code, constraint string) bool {
	pqErr, ok := pqError(err)
	return ok && string(pqErr.Code) == code && (constraint == "" || pqErr.Constraint == constraint)
}

// trapNoRowsErr maps "no rows" to notFound
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func get(ctx context.Context, db core.DB, dest interface{}, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return db.GetContext(ctx, dest, q, args...)
}

func query(ctx context.Context, db core.DB, dest interface{}, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return db.SelectContext(ctx, dest, q, args...)
}

func exec(ctx context.Context, db core.DB, b sq.Sqlizer) (sql.Result, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return db.ExecContext(ctx, q, args...)
}
