package sqlxrepos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/YounesFetouaki/edu-path/core"
)

// postgres error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

// withTx runs fn in a transaction: committed if fn succeeds, rolled back otherwise.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, core.TxOptions)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func pqError(err error) (*pq.Error, bool) {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return pqErr, ok
}

// mapError turns foreign key violations into validation errors on the offending field; other errors are wrapped.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := pqError(err); ok && pqErr.Code == foreignKeyViolation {
		field := constraintField(pqErr.Table, pqErr.Constraint)
		return core.NewValidationError(
			errors.Errorf("%s: referenced record does not exist", field),
			core.FieldError{Field: field, Error: "referenced record does not exist"},
		)
	}
	return errors.Wrap(err, msg)
}

// constraintField derives the JSON field name from a postgres default constraint name:
// chapters_quiz_id_fkey -> quizId
func constraintField(table, constraint string) string {
	col := strings.TrimSuffix(strings.TrimPrefix(constraint, table+"_"), "_fkey")
	parts := strings.Split(col, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func int64s(ids []int) pq.Int64Array {
	out := make(pq.Int64Array, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}
