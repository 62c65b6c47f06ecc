package handler

import (
	"context"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"rewards/internal/app/model"
	"rewards/internal/app/service/ledger"
	"rewards/internal/app/service/withdrawal"
)

type Ledger interface {
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, userID uuid.UUID, q ledger.Query) ([]*model.Transaction, int, error)
}

type MethodLister interface {
	ListActive(ctx context.Context, userID uuid.UUID) ([]model.MethodView, error)
}

type WithdrawalProcessor interface {
	Process(ctx context.Context, req withdrawal.Request) (*withdrawal.Result, error)
}

type WithdrawalReader interface {
	Read(ctx context.Context, id uuid.UUID) (*model.Withdrawal, error)
}
