package postgres

import (
	"context"
	"database/sql"
	"errors"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	pg "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regexp"
	"rewards/internal/app/apperr"
	"testing"
	"time"
)

const sqlLockQuery = "SELECT id FROM users WHERE id=$1 FOR UPDATE"

func expectLock(mock sqlmock.Sqlmock, userID uuid.UUID) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '3000ms'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(sqlLockQuery)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(userID.String()))
}

func TestTransactor_WithUserLock(t *testing.T) {
	userID := uuid.New()

	t.Run("commit", func(t *testing.T) {
		db, mock := newMock(t)
		tr := NewTransactor(db)

		expectLock(mock, userID)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tr.WithUserLock(context.Background(), userID, func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.Exec("INSERT INTO transactions (id) VALUES ('x')")
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("business error rolls back unchanged", func(t *testing.T) {
		db, mock := newMock(t)
		tr := NewTransactor(db)

		expectLock(mock, userID)
		mock.ExpectRollback()

		fundsErr := &apperr.InsufficientFundsError{
			Requested: decimal.RequireFromString("60"),
			Available: decimal.RequireFromString("40"),
		}
		err := tr.WithUserLock(context.Background(), userID, func(ctx context.Context, tx *sql.Tx) error {
			return fundsErr
		})
		assert.Same(t, fundsErr, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		db, mock := newMock(t)
		tr := NewTransactor(db)

		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(sqlLockQuery)).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		called := false
		err := tr.WithUserLock(context.Background(), userID, func(ctx context.Context, tx *sql.Tx) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock timeout is transient", func(t *testing.T) {
		db, mock := newMock(t)
		tr := NewTransactor(db)

		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(sqlLockQuery)).
			WithArgs(userID).
			WillReturnError(&pg.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})
		mock.ExpectRollback()

		err := tr.WithUserLock(context.Background(), userID, func(ctx context.Context, tx *sql.Tx) error {
			return nil
		})
		assert.ErrorIs(t, err, apperr.ErrTransient)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit failure is classified", func(t *testing.T) {
		db, mock := newMock(t)
		tr := NewTransactor(db)

		expectLock(mock, userID)
		mock.ExpectCommit().WillReturnError(&pg.Error{Code: "40001"})

		err := tr.WithUserLock(context.Background(), userID, func(ctx context.Context, tx *sql.Tx) error {
			return nil
		})
		assert.ErrorIs(t, err, apperr.ErrTransient)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tx timeout mid-fn is transient", func(t *testing.T) {
		db, mock := newMock(t)
		tr := NewTransactor(db, WithTxTimeout(50*time.Millisecond))

		expectLock(mock, userID)
		// database/sql rolls back once the deadline passes
		mock.ExpectRollback()

		err := tr.WithUserLock(context.Background(), userID, func(ctx context.Context, tx *sql.Tx) error {
			time.Sleep(150 * time.Millisecond)
			_, err := tx.ExecContext(ctx, "INSERT INTO transactions (id) VALUES ('x')")
			return err
		})
		assert.ErrorIs(t, err, apperr.ErrTransient)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, apperr.Retryable(err))
		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("cancel mid-fn is returned to caller", func(t *testing.T) {
		db, mock := newMock(t)
		tr := NewTransactor(db)

		expectLock(mock, userID)
		mock.ExpectRollback()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		err := tr.WithUserLock(ctx, userID, func(ctx context.Context, tx *sql.Tx) error {
			cancel()
			_, err := tx.ExecContext(ctx, "INSERT INTO transactions (id) VALUES ('x')")
			return err
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, apperr.Retryable(err))
		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})
}

func TestWithCtxErr(t *testing.T) {
	expired, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	canceled, cancel2 := context.WithCancel(context.Background())
	cancel2()

	fundsErr := &apperr.InsufficientFundsError{Requested: decimal.NewFromInt(2), Available: decimal.NewFromInt(1)}

	tests := []struct {
		name      string
		ctx       context.Context
		err       error
		want      error
		transient bool
	}{
		{"live ctx", context.Background(), sql.ErrTxDone, sql.ErrTxDone, false},
		{"deadline after rollback", expired, sql.ErrTxDone, context.DeadlineExceeded, true},
		{"canceled after rollback", canceled, sql.ErrTxDone, context.Canceled, false},
		{"business error kept", expired, fundsErr, apperr.ErrInsufficientFunds, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(withCtxErr(tt.ctx, tt.err))

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.transient, apperr.Retryable(err))
		})
	}
}

func TestTransactor_BreakerOpens(t *testing.T) {
	db, mock := newMock(t)
	userID := uuid.New()

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "test",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	})
	tr := NewTransactor(db, WithBreaker(cb), WithLockTimeout(0))

	connErr := errors.New("dial tcp: connection refused")
	mock.ExpectBegin().WillReturnError(connErr)
	mock.ExpectBegin().WillReturnError(connErr)

	noop := func(ctx context.Context, tx *sql.Tx) error { return nil }

	for i := 0; i < 2; i++ {
		err := tr.WithUserLock(context.Background(), userID, noop)
		assert.ErrorIs(t, err, connErr)
	}

	err := tr.WithUserLock(context.Background(), userID, noop)
	assert.ErrorIs(t, err, apperr.ErrTransient)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	assert.NoError(t, mock.ExpectationsWereMet())
}
