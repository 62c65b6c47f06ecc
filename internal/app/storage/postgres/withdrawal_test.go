package postgres

import (
	"context"
	"database/sql"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regexp"
	"rewards/internal/app/apperr"
	"rewards/internal/app/model"
	"testing"
	"time"
)

var withdrawalColumns = []string{"id", "user_id", "method_id", "transaction_id", "amount", "status", "requested_at", "completed_at"}

func TestWithdrawalRepository_LatestCompleted(t *testing.T) {
	db, mock := newMock(t)
	r, err := NewWithdrawalRepository(db)
	require.NoError(t, err)

	userID := uuid.New()
	amount := decimal.RequireFromString("25.00")
	since := time.Now().Add(-5 * time.Minute)
	requestedAt := time.Now().Add(-time.Minute)
	id := uuid.New()

	const query = "FROM withdrawals WHERE user_id=$1 AND status='completed' AND amount=$2 AND requested_at >= $3 ORDER BY requested_at DESC LIMIT 1"

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(userID, amount, since).
		WillReturnRows(sqlmock.NewRows(withdrawalColumns))
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(userID, amount, since).
		WillReturnRows(sqlmock.NewRows(withdrawalColumns).
			AddRow(id.String(), userID.String(), uuid.New().String(), uuid.New().String(), "25.00", "completed", requestedAt, requestedAt))

	_, err = r.LatestCompleted(context.Background(), userID, amount, since)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	m, err := r.LatestCompleted(context.Background(), userID, amount, since)
	require.NoError(t, err)
	assert.Equal(t, id, m.ID)
	assert.Equal(t, model.WithdrawalStatusCompleted, m.Status)
	assert.True(t, m.TransactionID.Valid)
	require.NotNil(t, m.CompletedAt)
	assert.True(t, requestedAt.Equal(*m.CompletedAt))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalRepository_TxCreateComplete(t *testing.T) {
	db, mock := newMock(t)
	r, err := NewWithdrawalRepository(db)
	require.NoError(t, err)

	ctx := context.Background()
	w := &model.Withdrawal{
		UserID:   uuid.New(),
		MethodID: uuid.New(),
		Amount:   decimal.RequireFromString("50.00"),
	}
	txID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO withdrawals")).
		WithArgs(sqlmock.AnyArg(), w.UserID, w.MethodID, w.Amount, "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE withdrawals SET status=$1, transaction_id=$2, completed_at=$3 WHERE id=$4 AND status='pending'")).
		WithArgs("completed", txID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE withdrawals")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	require.NoError(t, err)

	w, err = r.TxCreate(ctx, tx, w)
	require.NoError(t, err)
	assert.Equal(t, model.WithdrawalStatusPending, w.Status)
	assert.NotEqual(t, uuid.Nil, w.ID)

	w.Complete(txID, time.Now())
	require.NoError(t, r.TxComplete(ctx, tx, w))

	// second completion finds no pending row
	assert.ErrorIs(t, r.TxComplete(ctx, tx, w), errNotPending)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalRepository_TxCompleteRequiresLedgerEntry(t *testing.T) {
	db, mock := newMock(t)
	r, err := NewWithdrawalRepository(db)
	require.NoError(t, err)

	err = r.TxComplete(context.Background(), nil, &model.Withdrawal{ID: uuid.New(), Status: model.WithdrawalStatusPending})
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
