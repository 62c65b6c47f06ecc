package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"time"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
)

type Withdrawal struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"-"`
	MethodID      uuid.UUID        `json:"method_id"`
	TransactionID uuid.NullUUID    `json:"transaction_id"`
	Amount        decimal.Decimal  `json:"amount"`
	Status        WithdrawalStatus `json:"status"`
	RequestedAt   time.Time        `json:"requested_at"`
	CompletedAt   *time.Time       `json:"completed_at"`
}

// Complete links the withdrawal to its ledger entry
func (w *Withdrawal) Complete(transactionID uuid.UUID, at time.Time) {
	w.TransactionID = uuid.NullUUID{UUID: transactionID, Valid: true}
	w.Status = WithdrawalStatusCompleted
	w.CompletedAt = &at
}

// RecentWithdrawal is a completed withdrawal found by the duplicate guard
type RecentWithdrawal struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	RequestedAt time.Time       `json:"requested_at"`
}

// WithdrawalView is the completed withdrawal as exposed to callers
type WithdrawalView struct {
	ID            uuid.UUID        `json:"id"`
	TransactionID uuid.UUID        `json:"transaction_id"`
	Amount        decimal.Decimal  `json:"amount"`
	Status        WithdrawalStatus `json:"status"`
	Method        MethodView       `json:"method"`
	RequestedAt   time.Time        `json:"requested_at"`
	CompletedAt   *time.Time       `json:"completed_at"`
}

func NewWithdrawalView(w *Withdrawal, m *WithdrawalMethod) WithdrawalView {
	return WithdrawalView{
		ID:            w.ID,
		TransactionID: w.TransactionID.UUID,
		Amount:        w.Amount,
		Status:        w.Status,
		Method:        m.View(),
		RequestedAt:   w.RequestedAt,
		CompletedAt:   w.CompletedAt,
	}
}
