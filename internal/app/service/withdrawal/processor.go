package withdrawal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"rewards/internal/app/apperr"
	"rewards/internal/app/logger"
	"rewards/internal/app/model"
	"rewards/internal/app/storage"
	"time"
)

// largest amount NUMERIC(14,2) holds
var maxAmount = decimal.New(1, 12)

type MethodFinder interface {
	FindActive(ctx context.Context, userID, methodID uuid.UUID) (*model.WithdrawalMethod, error)
}

type DuplicateChecker interface {
	Check(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*model.RecentWithdrawal, error)
}

type BalanceCalculator interface {
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// Ledger is the part of the ledger store written by withdrawals
type Ledger interface {
	TxBalance(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (decimal.Decimal, error)
	TxCreate(ctx context.Context, tx *sql.Tx, m *model.Transaction) (*model.Transaction, error)
}

type Withdrawals interface {
	TxCreate(ctx context.Context, tx *sql.Tx, m *model.Withdrawal) (*model.Withdrawal, error)
	TxComplete(ctx context.Context, tx *sql.Tx, m *model.Withdrawal) error
}

type Request struct {
	UserID                 uuid.UUID
	MethodID               uuid.UUID
	Amount                 decimal.NullDecimal
	OverrideDuplicateCheck bool
}

type Result struct {
	Withdrawal model.WithdrawalView `json:"withdrawal"`
	NewBalance decimal.Decimal      `json:"new_balance"`
}

// Processor is the only writer of withdrawals and of withdrawal ledger entries
type Processor struct {
	methods     MethodFinder
	duplicates  DuplicateChecker
	balances    BalanceCalculator
	ledger      Ledger
	withdrawals Withdrawals
	tx          storage.Transactor
	now         func() time.Time
}

func (p *Processor) LoggerComponent() string {
	return "Withdrawal.Processor"
}

func NewProcessor(
	methods MethodFinder,
	duplicates DuplicateChecker,
	balances BalanceCalculator,
	ledger Ledger,
	withdrawals Withdrawals,
	tx storage.Transactor,
) *Processor {
	return &Processor{
		methods:     methods,
		duplicates:  duplicates,
		balances:    balances,
		ledger:      ledger,
		withdrawals: withdrawals,
		tx:          tx,
		now:         time.Now,
	}
}

// Process validates the request and commits the withdrawal together with its
// ledger entry. Funds are verified again under the user lock before writing.
// A user missing at lock time is reported as apperr.ErrUnauthorized.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	l := logger.Get(ctx, p).With().
		Str("user_id", req.UserID.String()).
		Str("method_id", req.MethodID.String()).
		Logger()

	r := &run{log: l, state: StateValidating}
	r.log.Debug().Str("state", string(r.state)).Msg("Withdrawal requested")

	amount, err := validate(req)
	if err != nil {
		return nil, r.abort(err)
	}
	r.log = r.log.With().Str("amount", amount.StringFixed(2)).Logger()

	m, err := p.methods.FindActive(ctx, req.UserID, req.MethodID)
	if err != nil {
		return nil, r.abort(err)
	}

	r.enter(StateDuplicateCheck)
	if req.OverrideDuplicateCheck {
		r.log.Info().Msg("Duplicate check overridden")
	} else {
		recent, err := p.duplicates.Check(ctx, req.UserID, amount)
		if err != nil {
			return nil, r.abort(err)
		}
		if recent != nil {
			return nil, r.abort(&apperr.DuplicateError{
				Amount:           recent.Amount,
				LastWithdrawalAt: recent.RequestedAt,
				AllowOverride:    true,
			})
		}
	}

	r.enter(StateBalanceCheck)
	balance, err := p.balances.Balance(ctx, req.UserID)
	if err != nil {
		return nil, r.abort(err)
	}
	if balance.LessThan(amount) {
		return nil, r.abort(&apperr.InsufficientFundsError{Requested: amount, Available: balance})
	}

	r.enter(StateCommitting)
	res, err := p.commit(ctx, req.UserID, m, amount)
	if err != nil {
		return nil, r.abort(err)
	}

	r.enter(StateCompleted)
	r.log.Info().
		Str("withdrawal_id", res.Withdrawal.ID.String()).
		Str("new_balance", res.NewBalance.StringFixed(2)).
		Msg("Withdrawal completed")

	return res, nil
}

func (p *Processor) commit(ctx context.Context, userID uuid.UUID, m *model.WithdrawalMethod, amount decimal.Decimal) (*Result, error) {
	var res *Result
	requestedAt := p.now()

	err := p.tx.WithUserLock(ctx, userID, func(ctx context.Context, tx *sql.Tx) error {
		balance, err := p.ledger.TxBalance(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("balance recheck: %w", err)
		}
		if balance.LessThan(amount) {
			return &apperr.InsufficientFundsError{Requested: amount, Available: balance.Round(2)}
		}

		w, err := p.withdrawals.TxCreate(ctx, tx, &model.Withdrawal{
			UserID:      userID,
			MethodID:    m.ID,
			Amount:      amount,
			Status:      model.WithdrawalStatusPending,
			RequestedAt: requestedAt,
		})
		if err != nil {
			return fmt.Errorf("withdrawal create: %w", err)
		}

		t, err := p.ledger.TxCreate(ctx, tx, &model.Transaction{
			UserID:      userID,
			Kind:        model.TransactionKindWithdrawal,
			Amount:      amount.Neg(),
			Description: fmt.Sprintf("Withdrawal to %s %s", m.BankName, model.MaskAccountNumber(m.AccountNumber)),
			CreatedAt:   requestedAt,
		})
		if err != nil {
			return fmt.Errorf("ledger entry create: %w", err)
		}

		w.Complete(t.ID, p.now())
		if err := p.withdrawals.TxComplete(ctx, tx, w); err != nil {
			return fmt.Errorf("withdrawal complete: %w", err)
		}

		newBalance, err := p.ledger.TxBalance(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("new balance: %w", err)
		}

		res = &Result{
			Withdrawal: model.NewWithdrawalView(w, m),
			NewBalance: newBalance.Round(2),
		}
		return nil
	})
	if errors.Is(err, apperr.ErrNotFound) {
		// user row vanished after authentication
		return nil, fmt.Errorf("%w: user %s", apperr.ErrUnauthorized, userID)
	}
	if err != nil {
		return nil, err
	}

	return res, nil
}

func validate(req Request) (decimal.Decimal, error) {
	if req.UserID == uuid.Nil {
		return decimal.Zero, apperr.NewValidationError("user_id", "is required")
	}
	if req.MethodID == uuid.Nil {
		return decimal.Zero, apperr.NewValidationError("method_id", "is required")
	}
	if !req.Amount.Valid {
		return decimal.Zero, apperr.NewValidationError("amount", "is required")
	}

	amount := req.Amount.Decimal
	switch {
	case !amount.IsPositive():
		return decimal.Zero, apperr.NewValidationError("amount", "must be greater than zero")
	case !amount.Equal(amount.Round(2)):
		return decimal.Zero, apperr.NewValidationError("amount", "must have at most two decimal places")
	case amount.GreaterThanOrEqual(maxAmount):
		return decimal.Zero, apperr.NewValidationError("amount", "is too large")
	}

	return amount, nil
}

// run tracks the state of a single Process call for logging
type run struct {
	log   zerolog.Logger
	state State
}

func (r *run) enter(s State) {
	r.log.Debug().Str("from", string(r.state)).Str("state", string(s)).Msg("Withdrawal state")
	r.state = s
}

func (r *run) abort(err error) error {
	from := r.state
	r.state = StateAborted

	var e *zerolog.Event
	switch kind := apperr.KindOf(err); {
	case errors.Is(err, context.Canceled):
		e = r.log.Info()
	case kind == apperr.KindInternal:
		e = r.log.Error()
	case kind == apperr.KindTransient:
		e = r.log.Warn()
	default:
		e = r.log.Info()
	}
	e.Err(err).
		Str("from", string(from)).
		Str("kind", apperr.KindOf(err).String()).
		Msg("Withdrawal aborted")

	return err
}
