package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"rewards/internal/app/apperr"
	"rewards/internal/app/logger"
	"rewards/internal/app/model"
	"rewards/internal/app/storage"
	"time"
)

// storage.MethodRepository interface implementation
var _ storage.MethodRepository = (*MethodRepository)(nil)

type MethodRepository struct {
	db *sql.DB
}

func (r *MethodRepository) LoggerComponent() string {
	return "MethodRepository"
}

func NewMethodRepository(db *sql.DB) (*MethodRepository, error) {
	s := &MethodRepository{
		db: db,
	}
	return s, nil
}

// Create implementation of interface storage.MethodRepository
func (r *MethodRepository) Create(ctx context.Context, m *model.WithdrawalMethod) (*model.WithdrawalMethod, error) {
	if m.AccountType != model.AccountTypeChecking && m.AccountType != model.AccountTypeSavings {
		return nil, apperr.NewValidationError("account_type", fmt.Sprintf("unknown account type %q", m.AccountType))
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	const SQL = `
		INSERT INTO withdrawal_methods (id, user_id, bank_name, account_number, account_type, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
`

	_, err := r.db.ExecContext(ctx, SQL, m.ID, m.UserID, m.BankName, m.AccountNumber, string(m.AccountType), m.Active, m.CreatedAt)
	if err != nil {
		return nil, classify(fmt.Errorf("insert: %w", err))
	}

	return m, nil
}

// Read implementation of interface storage.MethodRepository
func (r *MethodRepository) Read(ctx context.Context, id uuid.UUID) (*model.WithdrawalMethod, error) {
	const SQL = `
		SELECT id, user_id, bank_name, account_number, account_type, active, created_at
		FROM withdrawal_methods
		WHERE id=$1
`
	m := &model.WithdrawalMethod{}

	err := r.db.QueryRowContext(ctx, SQL, id).
		Scan(&m.ID, &m.UserID, &m.BankName, &m.AccountNumber, &m.AccountType, &m.Active, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, classify(fmt.Errorf("select: %w", err))
	}

	return m, nil
}

// AllActiveByUserID implementation of interface storage.MethodRepository
func (r *MethodRepository) AllActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*model.WithdrawalMethod, error) {
	l := logger.Get(ctx, r).With().Str("method", "AllActiveByUserID").Logger()

	const SQL = `
		SELECT id, user_id, bank_name, account_number, account_type, active, created_at
		FROM withdrawal_methods
		WHERE user_id=$1 AND active
		ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, SQL, userID)
	if err != nil {
		return nil, classify(fmt.Errorf("select: %w", err))
	}
	defer func() {
		_ = rows.Close()
	}()

	res := make([]*model.WithdrawalMethod, 0)

	for rows.Next() {
		m := &model.WithdrawalMethod{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.BankName, &m.AccountNumber, &m.AccountType, &m.Active, &m.CreatedAt); err != nil {
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
