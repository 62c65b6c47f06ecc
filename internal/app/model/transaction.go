package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"time"
)

// Transaction is an append-only ledger entry. Balance of a user is the sum
// of amounts of all his transactions.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Kind        TransactionKind `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"timestamp"`
}

type TransactionKind string

const (
	TransactionKindCashback      TransactionKind = "cashback"
	TransactionKindReferralBonus TransactionKind = "referral_bonus"
	TransactionKindWithdrawal    TransactionKind = "withdrawal"
)

// TransactionKinds lists every valid kind
var TransactionKinds = []TransactionKind{
	TransactionKindCashback,
	TransactionKindReferralBonus,
	TransactionKindWithdrawal,
}

func (k TransactionKind) Valid() bool {
	for _, v := range TransactionKinds {
		if k == v {
			return true
		}
	}
	return false
}

// TransactionFilter for ledger listing. Empty Kind means all kinds.
type TransactionFilter struct {
	Kind   TransactionKind
	Limit  int
	Offset int
}
