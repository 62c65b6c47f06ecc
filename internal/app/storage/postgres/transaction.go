package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"rewards/internal/app/apperr"
	"rewards/internal/app/logger"
	"rewards/internal/app/model"
	"rewards/internal/app/storage"
	"time"
)

// storage.TransactionRepository interface implementation
var _ storage.TransactionRepository = (*TransactionRepository)(nil)

type TransactionRepository struct {
	db *sql.DB
}

func (r *TransactionRepository) LoggerComponent() string {
	return "TransactionRepository"
}

func NewTransactionRepository(db *sql.DB) (*TransactionRepository, error) {
	s := &TransactionRepository{
		db: db,
	}
	return s, nil
}

// Balance implementation of interface storage.TransactionRepository
func (r *TransactionRepository) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return r.balance(ctx, r.db, userID)
}

// TxBalance implementation of interface storage.TransactionRepository
func (r *TransactionRepository) TxBalance(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (decimal.Decimal, error) {
	return r.balance(ctx, tx, userID)
}

func (r *TransactionRepository) balance(ctx context.Context, q querier, userID uuid.UUID) (decimal.Decimal, error) {
	const SQL = `
		SELECT coalesce(sum(amount), 0)
		FROM transactions
		WHERE user_id=$1
`
	sum := decimal.Zero

	if err := q.QueryRowContext(ctx, SQL, userID).Scan(&sum); err != nil {
		return decimal.Zero, classify(fmt.Errorf("select: %w", err))
	}

	return sum, nil
}

// List implementation of interface storage.TransactionRepository
func (r *TransactionRepository) List(ctx context.Context, userID uuid.UUID, f model.TransactionFilter) ([]*model.Transaction, error) {
	l := logger.Get(ctx, r).With().Str("method", "List").Logger()

	const SQL = `
		SELECT id, user_id, kind, amount, description, created_at
		FROM transactions
		WHERE user_id=$1 AND ($2::text = '' OR kind = $2::text)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
`
	rows, err := r.db.QueryContext(ctx, SQL, userID, string(f.Kind), f.Limit, f.Offset)
	if err != nil {
		return nil, classify(fmt.Errorf("select: %w", err))
	}
	defer func() {
		_ = rows.Close()
	}()

	res := make([]*model.Transaction, 0)

	for rows.Next() {
		m := &model.Transaction{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.Kind, &m.Amount, &m.Description, &m.CreatedAt); err != nil {
			l.Debug().Err(err).Send()
			return nil, fmt.Errorf("scan: %w", err)
		}
		res = append(res, m)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("rows: %w", err))
	}

	return res, nil
}

// Count implementation of interface storage.TransactionRepository
func (r *TransactionRepository) Count(ctx context.Context, userID uuid.UUID, kind model.TransactionKind) (int, error) {
	const SQL = `
		SELECT count(*)
		FROM transactions
		WHERE user_id=$1 AND ($2::text = '' OR kind = $2::text)
`
	var n int

	if err := r.db.QueryRowContext(ctx, SQL, userID, string(kind)).Scan(&n); err != nil {
		return 0, classify(fmt.Errorf("select: %w", err))
	}

	return n, nil
}

// Create implementation of interface storage.TransactionRepository.
// Only credits are accepted here, withdrawal entries are written by the withdrawal processor.
func (r *TransactionRepository) Create(ctx context.Context, m *model.Transaction) (*model.Transaction, error) {
	if m.Kind == model.TransactionKindWithdrawal || !m.Kind.Valid() {
		return nil, apperr.NewValidationError("type", fmt.Sprintf("%q is not a credit kind", m.Kind))
	}
	if !m.Amount.IsPositive() {
		return nil, apperr.NewValidationError("amount", "must be positive")
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelDefault,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("tx begin: %w", err))
	}

	res, err := r.TxCreate(ctx, tx, m)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("tx create: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(fmt.Errorf("tx commit: %w", err))
	}

	return res, nil
}

// TxCreate implementation of interface storage.TransactionRepository
func (r *TransactionRepository) TxCreate(ctx context.Context, tx *sql.Tx, m *model.Transaction) (*model.Transaction, error) {
	if !m.Kind.Valid() {
		return nil, apperr.NewValidationError("type", fmt.Sprintf("unknown kind %q", m.Kind))
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	const SQL = `
		INSERT INTO transactions (id, user_id, kind, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
`

	_, err := tx.ExecContext(ctx, SQL, m.ID, m.UserID, string(m.Kind), m.Amount, m.Description, m.CreatedAt)
	if err != nil {
		return nil, classify(fmt.Errorf("insert: %w", err))
	}

	return m, nil
}
