package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"rewards/internal/app/apperr"
	"rewards/internal/app/logger"
	"rewards/internal/app/storage"
	"time"
)

// storage.Transactor interface implementation
var _ storage.Transactor = (*Transactor)(nil)

// Transactor serializes ledger writes per user with a row lock on the user.
// Opening the transaction and taking the lock go through a circuit breaker,
// so a failing database is reported as transient without piling up waiters.
type Transactor struct {
	db          *sql.DB
	cb          *gobreaker.CircuitBreaker
	txTimeout   time.Duration
	lockTimeout time.Duration
}

type TransactorOption func(t *Transactor)

func WithTxTimeout(d time.Duration) TransactorOption {
	return func(t *Transactor) {
		t.txTimeout = d
	}
}

func WithLockTimeout(d time.Duration) TransactorOption {
	return func(t *Transactor) {
		t.lockTimeout = d
	}
}

func WithBreaker(cb *gobreaker.CircuitBreaker) TransactorOption {
	return func(t *Transactor) {
		t.cb = cb
	}
}

func (t *Transactor) LoggerComponent() string {
	return "Transactor"
}

func NewTransactor(db *sql.DB, opts ...TransactorOption) *Transactor {
	t := &Transactor{
		db:          db,
		txTimeout:   5 * time.Second,
		lockTimeout: 3 * time.Second,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.cb == nil {
		t.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "ledger"})
	}

	return t
}

// WithUserLock implementation of interface storage.Transactor
func (t *Transactor) WithUserLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx *sql.Tx) error) error {
	l := logger.Get(ctx, t)

	if t.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.txTimeout)
		defer cancel()
	}

	// errors of the caller are not failures of the store
	var callerErr error
	res, err := t.cb.Execute(func() (interface{}, error) {
		tx, err := t.lock(ctx, userID)
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, context.Canceled) {
			callerErr = err
			return nil, nil
		}
		return tx, err
	})
	if err != nil {
		l.Debug().Err(err).Str("user_id", userID.String()).Msg("Lock failed")
		return classify(err)
	}
	if callerErr != nil {
		return callerErr
	}

	tx := res.(*sql.Tx)

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return classify(withCtxErr(ctx, err))
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Str("user_id", userID.String()).Msg("Commit failed")
		return classify(withCtxErr(ctx, fmt.Errorf("tx commit: %w", err)))
	}

	return nil
}

// withCtxErr attaches the deadline or cancellation that ended the transaction,
// database/sql reports those as sql.ErrTxDone on the next statement
func withCtxErr(ctx context.Context, err error) error {
	ctxErr := ctx.Err()
	if ctxErr == nil || errors.Is(err, ctxErr) || apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return fmt.Errorf("%w: %v", ctxErr, err)
}

func (t *Transactor) lock(ctx context.Context, userID uuid.UUID) (*sql.Tx, error) {
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return nil, fmt.Errorf("tx begin: %w", err)
	}

	if t.lockTimeout > 0 {
		SQL := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", t.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, SQL); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	const sqlLock = `SELECT id FROM users WHERE id=$1 FOR UPDATE`

	var id uuid.UUID
	if err := tx.QueryRowContext(ctx, sqlLock, userID).Scan(&id); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("user lock: %w", err)
	}

	return tx, nil
}
