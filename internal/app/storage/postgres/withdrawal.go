package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"rewards/internal/app/apperr"
	"rewards/internal/app/model"
	"rewards/internal/app/storage"
	"time"
)

// storage.WithdrawalRepository interface implementation
var _ storage.WithdrawalRepository = (*WithdrawalRepository)(nil)

var errNotPending = errors.New("withdrawal is not pending")

type WithdrawalRepository struct {
	db *sql.DB
}

func (r *WithdrawalRepository) LoggerComponent() string {
	return "WithdrawalRepository"
}

func NewWithdrawalRepository(db *sql.DB) (*WithdrawalRepository, error) {
	s := &WithdrawalRepository{
		db: db,
	}
	return s, nil
}

// TxCreate implementation of interface storage.WithdrawalRepository
func (r *WithdrawalRepository) TxCreate(ctx context.Context, tx *sql.Tx, m *model.Withdrawal) (*model.Withdrawal, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.RequestedAt.IsZero() {
		m.RequestedAt = time.Now()
	}
	m.Status = model.WithdrawalStatusPending

	const SQL = `
		INSERT INTO withdrawals (id, user_id, method_id, amount, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6)
`

	_, err := tx.ExecContext(ctx, SQL, m.ID, m.UserID, m.MethodID, m.Amount, string(m.Status), m.RequestedAt)
	if err != nil {
		return nil, classify(fmt.Errorf("insert: %w", err))
	}

	return m, nil
}

// TxComplete implementation of interface storage.WithdrawalRepository
func (r *WithdrawalRepository) TxComplete(ctx context.Context, tx *sql.Tx, m *model.Withdrawal) error {
	if m.Status != model.WithdrawalStatusCompleted || !m.TransactionID.Valid || m.CompletedAt == nil {
		return fmt.Errorf("complete %s: withdrawal has no ledger entry", m.ID)
	}

	const SQL = `
		UPDATE withdrawals
		SET status=$1, transaction_id=$2, completed_at=$3
		WHERE id=$4 AND status='pending'
`

	res, err := tx.ExecContext(ctx, SQL, string(m.Status), m.TransactionID.UUID, *m.CompletedAt, m.ID)
	if err != nil {
		return classify(fmt.Errorf("update: %w", err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("complete %s: %w", m.ID, errNotPending)
	}

	return nil
}

// Read implementation of interface storage.WithdrawalRepository
func (r *WithdrawalRepository) Read(ctx context.Context, id uuid.UUID) (*model.Withdrawal, error) {
	const SQL = `
		SELECT id, user_id, method_id, transaction_id, amount, status, requested_at, completed_at
		FROM withdrawals
		WHERE id=$1
`
	return r.scan(r.db.QueryRowContext(ctx, SQL, id))
}

// LatestCompleted implementation of interface storage.WithdrawalRepository
func (r *WithdrawalRepository) LatestCompleted(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, since time.Time) (*model.Withdrawal, error) {
	const SQL = `
		SELECT id, user_id, method_id, transaction_id, amount, status, requested_at, completed_at
		FROM withdrawals
		WHERE user_id=$1 AND status='completed' AND amount=$2 AND requested_at >= $3
		ORDER BY requested_at DESC
		LIMIT 1
`
	return r.scan(r.db.QueryRowContext(ctx, SQL, userID, amount, since))
}

func (r *WithdrawalRepository) scan(row *sql.Row) (*model.Withdrawal, error) {
	m := &model.Withdrawal{}
	var completedAt sql.NullTime

	err := row.Scan(&m.ID, &m.UserID, &m.MethodID, &m.TransactionID, &m.Amount, &m.Status, &m.RequestedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, classify(fmt.Errorf("select: %w", err))
	}

	if completedAt.Valid {
		m.CompletedAt = &completedAt.Time
	}

	return m, nil
}
