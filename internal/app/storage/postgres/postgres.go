package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"github.com/jackc/pgerrcode"
	pg "github.com/lib/pq"
	"github.com/sony/gobreaker"
	"rewards/internal/app/apperr"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// classify marks store failures that are safe to retry as transient,
// any other error is returned unchanged
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperr.Transient(err)
	}

	var pgErr *pg.Error
	if errors.As(err, &pgErr) {
		code := string(pgErr.Code)
		if code == pgerrcode.LockNotAvailable ||
			pgerrcode.IsTransactionRollback(code) ||
			pgerrcode.IsConnectionException(code) ||
			pgerrcode.IsOperatorIntervention(code) {
			return apperr.Transient(err)
		}
	}

	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pg.Error
	if errors.As(err, &pgErr) {
		return string(pgErr.Code) == pgerrcode.UniqueViolation
	}
	return false
}
