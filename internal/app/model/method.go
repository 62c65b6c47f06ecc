package model

import (
	"github.com/google/uuid"
	"time"
)

const accountMask = "****"

type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

// WithdrawalMethod is a payout destination linked to a user. AccountNumber is raw
// and never leaves the core unmasked.
type WithdrawalMethod struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	BankName      string
	AccountNumber string
	AccountType   AccountType
	Active        bool
	CreatedAt     time.Time
}

type MethodView struct {
	ID            uuid.UUID   `json:"id"`
	BankName      string      `json:"bank_name"`
	AccountNumber string      `json:"account_number"`
	AccountType   AccountType `json:"account_type"`
}

func (m *WithdrawalMethod) View() MethodView {
	return MethodView{
		ID:            m.ID,
		BankName:      m.BankName,
		AccountNumber: MaskAccountNumber(m.AccountNumber),
		AccountType:   m.AccountType,
	}
}

// MaskAccountNumber keeps the last 4 characters only
func MaskAccountNumber(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return s
	}
	return accountMask + string(r[len(r)-4:])
}
