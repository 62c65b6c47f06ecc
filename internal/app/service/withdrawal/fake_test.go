package withdrawal

import (
	"context"
	"database/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"rewards/internal/app/apperr"
	"rewards/internal/app/model"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory ledger. WithUserLock serializes callers and
// restores the previous state when fn fails.
type memStore struct {
	lock sync.Mutex

	mu            sync.RWMutex
	transactions  []*model.Transaction
	withdrawals   map[uuid.UUID]*model.Withdrawal
	methods       map[uuid.UUID]*model.WithdrawalMethod
	beforeBalance func()
	failTxCreate  error
}

func newMemStore() *memStore {
	return &memStore{
		withdrawals: make(map[uuid.UUID]*model.Withdrawal),
		methods:     make(map[uuid.UUID]*model.WithdrawalMethod),
	}
}

func (s *memStore) credit(userID uuid.UUID, amounts ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range amounts {
		s.transactions = append(s.transactions, &model.Transaction{
			ID:        uuid.New(),
			UserID:    userID,
			Kind:      model.TransactionKindCashback,
			Amount:    decimal.RequireFromString(a),
			CreatedAt: time.Now(),
		})
	}
}

func (s *memStore) addMethod(userID uuid.UUID, bank, account string, active bool) *model.WithdrawalMethod {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &model.WithdrawalMethod{
		ID:            uuid.New(),
		UserID:        userID,
		BankName:      bank,
		AccountNumber: account,
		AccountType:   model.AccountTypeChecking,
		Active:        active,
		CreatedAt:     time.Now(),
	}
	s.methods[m.ID] = m
	return m
}

func (s *memStore) WithUserLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx *sql.Tx) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.mu.RLock()
	txs := append([]*model.Transaction(nil), s.transactions...)
	ws := make(map[uuid.UUID]model.Withdrawal, len(s.withdrawals))
	for id, w := range s.withdrawals {
		ws[id] = *w
	}
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := fn(ctx, nil); err != nil {
		s.mu.Lock()
		s.transactions = txs
		s.withdrawals = make(map[uuid.UUID]*model.Withdrawal, len(ws))
		for id, w := range ws {
			w := w
			s.withdrawals[id] = &w
		}
		s.mu.Unlock()
		return err
	}

	return nil
}

func (s *memStore) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if s.beforeBalance != nil {
		s.beforeBalance()
	}
	return s.TxBalance(ctx, nil, userID)
}

func (s *memStore) TxBalance(_ context.Context, _ *sql.Tx, userID uuid.UUID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, t := range s.transactions {
		if t.UserID == userID {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (s *memStore) TxCreate(ctx context.Context, _ *sql.Tx, m *model.Transaction) (*model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.failTxCreate != nil {
		return nil, s.failTxCreate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = uuid.New()
	s.transactions = append(s.transactions, m)
	return m, nil
}

func (s *memStore) byKind(userID uuid.UUID, kind model.TransactionKind) []*model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*model.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID && t.Kind == kind {
			res = append(res, t)
		}
	}
	return res
}

func (s *memStore) userWithdrawals(userID uuid.UUID) []*model.Withdrawal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*model.Withdrawal, 0)
	for _, w := range s.withdrawals {
		if w.UserID == userID {
			res = append(res, w)
		}
	}
	return res
}

// memWithdrawals implements the withdrawal side of memStore
type memWithdrawals struct {
	*memStore
}

func (s memWithdrawals) TxCreate(ctx context.Context, _ *sql.Tx, m *model.Withdrawal) (*model.Withdrawal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = uuid.New()
	m.Status = model.WithdrawalStatusPending
	w := *m
	s.withdrawals[m.ID] = &w
	return m, nil
}

func (s memWithdrawals) TxComplete(_ context.Context, _ *sql.Tx, m *model.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := *m
	s.withdrawals[m.ID] = &w
	return nil
}

func (s memWithdrawals) Check(_ context.Context, userID uuid.UUID, amount decimal.Decimal) (*model.RecentWithdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	since := time.Now().Add(-5 * time.Minute)
	found := make([]*model.Withdrawal, 0)
	for _, w := range s.withdrawals {
		if w.UserID == userID && w.Status == model.WithdrawalStatusCompleted && w.Amount.Equal(amount) && !w.RequestedAt.Before(since) {
			found = append(found, w)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].RequestedAt.After(found[j].RequestedAt)
	})

	return &model.RecentWithdrawal{ID: found[0].ID, Amount: found[0].Amount, RequestedAt: found[0].RequestedAt}, nil
}

func (s memWithdrawals) FindActive(_ context.Context, userID, methodID uuid.UUID) (*model.WithdrawalMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.methods[methodID]
	if !ok || m.UserID != userID || !m.Active {
		return nil, apperr.ErrNotUsable
	}
	return m, nil
}

func newMemProcessor(s *memStore) *Processor {
	w := memWithdrawals{s}
	return NewProcessor(w, w, s, s, w, s)
}

// cancelingTransactor cancels the request once the lock is held
type cancelingTransactor struct {
	next   *memStore
	cancel context.CancelFunc
}

func (c *cancelingTransactor) WithUserLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return c.next.WithUserLock(ctx, userID, func(ctx context.Context, tx *sql.Tx) error {
		c.cancel()
		return fn(ctx, tx)
	})
}
