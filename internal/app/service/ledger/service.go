package ledger

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"rewards/internal/app/apperr"
	"rewards/internal/app/model"
	"rewards/internal/app/storage"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Query for transaction listing. Zero Limit means DefaultLimit, empty Kind means all kinds.
type Query struct {
	Limit  int
	Offset int
	Kind   model.TransactionKind
}

// Service derives balances from the ledger. There is no stored balance.
type Service struct {
	transactions storage.TransactionRepository
}

func (svc *Service) LoggerComponent() string {
	return "Ledger.Service"
}

func NewService(transactions storage.TransactionRepository) *Service {
	return &Service{
		transactions: transactions,
	}
}

// Balance is the sum of all ledger entries of the user, 0.00 for none
func (svc *Service) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	sum, err := svc.transactions.Balance(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance: %w", err)
	}
	return sum.Round(2), nil
}

// List returns a page of the user's ledger, newest first, and the total count
// of entries matching the filter.
func (svc *Service) List(ctx context.Context, userID uuid.UUID, q Query) ([]*model.Transaction, int, error) {
	f, err := q.filter()
	if err != nil {
		return nil, 0, err
	}

	items, err := svc.transactions.List(ctx, userID, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list: %w", err)
	}

	total, err := svc.transactions.Count(ctx, userID, f.Kind)
	if err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	return items, total, nil
}

func (q Query) filter() (model.TransactionFilter, error) {
	if q.Kind != "" && !q.Kind.Valid() {
		return model.TransactionFilter{}, apperr.NewValidationError("type", fmt.Sprintf("unknown transaction type %q", q.Kind))
	}

	f := model.TransactionFilter{
		Kind:   q.Kind,
		Limit:  q.Limit,
		Offset: q.Offset,
	}

	switch {
	case f.Limit == 0:
		f.Limit = DefaultLimit
	case f.Limit < 1:
		f.Limit = 1
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}

	if f.Offset < 0 {
		f.Offset = 0
	}

	return f, nil
}
