package ledger

import (
	"context"
	"errors"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rewards/internal/app/apperr"
	"rewards/internal/app/model"
	storagemock "rewards/internal/app/storage/mock"
	"testing"
)

func TestService_Balance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transactions := storagemock.NewMockTransactionRepository(ctrl)
	svc := NewService(transactions)
	userID := uuid.New()

	transactions.EXPECT().Balance(gomock.Any(), userID).Return(decimal.Zero, nil)
	transactions.EXPECT().Balance(gomock.Any(), userID).Return(decimal.RequireFromString("171.25"), nil)

	b, err := svc.Balance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", b.StringFixed(2))

	b, err = svc.Balance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "171.25", b.StringFixed(2))
}

func TestService_BalanceIsSumOfEntries(t *testing.T) {
	amounts := []string{"25.50", "15.75", "30.00", "50.00", "50.00", "-50.00", "0.10", "0.20"}
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(decimal.RequireFromString(a))
	}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transactions := storagemock.NewMockTransactionRepository(ctrl)
	transactions.EXPECT().Balance(gomock.Any(), gomock.Any()).Return(sum, nil)

	b, err := NewService(transactions).Balance(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "121.55", b.StringFixed(2))
}

func TestService_BalanceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transactions := storagemock.NewMockTransactionRepository(ctrl)
	transactions.EXPECT().Balance(gomock.Any(), gomock.Any()).Return(decimal.Zero, apperr.Transient(errors.New("conn reset")))

	_, err := NewService(transactions).Balance(context.Background(), uuid.New())
	assert.True(t, apperr.Retryable(err))
}

func TestService_List(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name string
		in   Query
		want model.TransactionFilter
	}{
		{"defaults", Query{}, model.TransactionFilter{Limit: DefaultLimit}},
		{"limit too big", Query{Limit: 1000}, model.TransactionFilter{Limit: MaxLimit}},
		{"negative limit", Query{Limit: -5}, model.TransactionFilter{Limit: 1}},
		{"negative offset", Query{Limit: 10, Offset: -1}, model.TransactionFilter{Limit: 10}},
		{"kind", Query{Limit: 20, Offset: 40, Kind: model.TransactionKindWithdrawal}, model.TransactionFilter{Limit: 20, Offset: 40, Kind: model.TransactionKindWithdrawal}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			transactions := storagemock.NewMockTransactionRepository(ctrl)
			items := []*model.Transaction{{ID: uuid.New()}}
			transactions.EXPECT().List(gomock.Any(), userID, tt.want).Return(items, nil)
			transactions.EXPECT().Count(gomock.Any(), userID, tt.want.Kind).Return(7, nil)

			res, total, err := NewService(transactions).List(context.Background(), userID, tt.in)
			require.NoError(t, err)
			assert.Equal(t, items, res)
			assert.Equal(t, 7, total)
		})
	}
}

func TestService_ListRejectsUnknownKind(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transactions := storagemock.NewMockTransactionRepository(ctrl)

	_, _, err := NewService(transactions).List(context.Background(), uuid.New(), Query{Kind: "refund"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
