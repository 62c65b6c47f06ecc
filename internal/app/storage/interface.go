//go:generate mockgen -source=./interface.go -destination=./mock/storage.go -package=storagemock
package storage

import (
	"context"
	"database/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"rewards/internal/app/model"
	"time"
)

type UserRepository interface {
	// Create a new model.User
	Create(ctx context.Context, m *model.User) (*model.User, error)
	// Read instance of model.User
	Read(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type TransactionRepository interface {
	// Balance is the sum of all transaction amounts of the user
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	// TxBalance is Balance within the tx
	TxBalance(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (decimal.Decimal, error)
	// List transactions of user, newest first
	List(ctx context.Context, userID uuid.UUID, f model.TransactionFilter) ([]*model.Transaction, error)
	// Count transactions of user, empty kind counts all
	Count(ctx context.Context, userID uuid.UUID, kind model.TransactionKind) (int, error)
	// Create appends a credit model.Transaction, withdrawal kind is rejected
	Create(ctx context.Context, m *model.Transaction) (*model.Transaction, error)
	// TxCreate appends a model.Transaction within the tx
	TxCreate(ctx context.Context, tx *sql.Tx, m *model.Transaction) (*model.Transaction, error)
}

type WithdrawalRepository interface {
	// TxCreate a new model.Withdrawal within the tx
	TxCreate(ctx context.Context, tx *sql.Tx, m *model.Withdrawal) (*model.Withdrawal, error)
	// TxComplete stores completion of model.Withdrawal within the tx
	TxComplete(ctx context.Context, tx *sql.Tx, m *model.Withdrawal) error
	// Read instance of model.Withdrawal
	Read(ctx context.Context, id uuid.UUID) (*model.Withdrawal, error)
	// LatestCompleted returns the most recent completed withdrawal of user with exactly
	// the same amount requested not before since
	LatestCompleted(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, since time.Time) (*model.Withdrawal, error)
}

type MethodRepository interface {
	// Create a new model.WithdrawalMethod
	Create(ctx context.Context, m *model.WithdrawalMethod) (*model.WithdrawalMethod, error)
	// Read instance of model.WithdrawalMethod
	Read(ctx context.Context, id uuid.UUID) (*model.WithdrawalMethod, error)
	// AllActiveByUserID returns active methods of user, newest first
	AllActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*model.WithdrawalMethod, error)
}

type Transactor interface {
	// WithUserLock runs fn in one transaction holding the ledger lock of the user.
	// fn must use the ctx it is given, which carries the transaction deadline.
	// The transaction is committed if fn returns nil and rolled back otherwise.
	WithUserLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx *sql.Tx) error) error
}
