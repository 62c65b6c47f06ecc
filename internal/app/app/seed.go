package app

import (
	"context"
	"fmt"
	"github.com/shopspring/decimal"
	"rewards/internal/app/model"
)

type seedCredit struct {
	kind        model.TransactionKind
	amount      string
	description string
}

var demoCredits = []seedCredit{
	{model.TransactionKindCashback, "25.50", "Cashback from grocery purchase"},
	{model.TransactionKindCashback, "15.75", "Cashback from gas station"},
	{model.TransactionKindCashback, "30.00", "Cashback from online shopping"},
	{model.TransactionKindReferralBonus, "50.00", "Referral bonus"},
	{model.TransactionKindReferralBonus, "50.00", "Referral bonus"},
}

// Seed creates the demo user with two payout methods and a credited ledger,
// returns the user and a session token for it
func (a *App) Seed(ctx context.Context, email string) (*model.User, string, error) {
	l := a.logger.WithComponent("Seed")

	u, err := a.users.Create(ctx, &model.User{Name: "John Doe", Email: email})
	if err != nil {
		return nil, "", fmt.Errorf("user create: %w", err)
	}
	l.Info().Str("user_id", u.ID.String()).Msg("User created")

	for _, m := range []*model.WithdrawalMethod{
		{UserID: u.ID, BankName: "Chase Bank", AccountNumber: "1234567890", AccountType: model.AccountTypeChecking, Active: true},
		{UserID: u.ID, BankName: "Bank of America", AccountNumber: "9876543210", AccountType: model.AccountTypeSavings, Active: true},
	} {
		if _, err := a.methodRepo.Create(ctx, m); err != nil {
			return nil, "", fmt.Errorf("method create: %w", err)
		}
		l.Info().Str("method_id", m.ID.String()).Str("bank", m.BankName).Msg("Method created")
	}

	for _, c := range demoCredits {
		_, err := a.transactions.Create(ctx, &model.Transaction{
			UserID:      u.ID,
			Kind:        c.kind,
			Amount:      decimal.RequireFromString(c.amount),
			Description: c.description,
		})
		if err != nil {
			return nil, "", fmt.Errorf("transaction create: %w", err)
		}
	}

	balance, err := a.ledger.Balance(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	l.Info().Str("balance", balance.StringFixed(2)).Msg("Ledger seeded")

	token, err := a.session.Create(ctx, u)
	if err != nil {
		return nil, "", fmt.Errorf("session create: %w", err)
	}

	return u, token, nil
}
