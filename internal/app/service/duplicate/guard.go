package duplicate

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"rewards/internal/app/apperr"
	"rewards/internal/app/logger"
	"rewards/internal/app/model"
	"rewards/internal/app/storage"
	"time"
)

const DefaultWindow = 5 * time.Minute

// Guard finds a recent completed withdrawal of the same amount.
// It is advisory, callers may override it.
type Guard struct {
	withdrawals storage.WithdrawalRepository
	window      time.Duration
	now         func() time.Time
}

type Option func(g *Guard)

// WithWindow sets the lookback window
func WithWindow(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.window = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

func (g *Guard) LoggerComponent() string {
	return "Duplicate.Guard"
}

func NewGuard(withdrawals storage.WithdrawalRepository, opts ...Option) *Guard {
	g := &Guard{
		withdrawals: withdrawals,
		window:      DefaultWindow,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Guard) Window() time.Duration {
	return g.window
}

// Check returns the most recent completed withdrawal of exactly amount requested
// within the window, or nil when there is none.
func (g *Guard) Check(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*model.RecentWithdrawal, error) {
	since := g.now().Add(-g.window)

	w, err := g.withdrawals.LatestCompleted(ctx, userID, amount, since)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest withdrawal: %w", err)
	}

	l := logger.Get(ctx, g)
	l.Debug().
		Str("withdrawal_id", w.ID.String()).
		Time("requested_at", w.RequestedAt).
		Msg("Recent withdrawal of same amount")

	return &model.RecentWithdrawal{
		ID:          w.ID,
		Amount:      w.Amount,
		RequestedAt: w.RequestedAt,
	}, nil
}
