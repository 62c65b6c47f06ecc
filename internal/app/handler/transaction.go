package handler

import (
	"github.com/shopspring/decimal"
	"net/http"
	"rewards/internal/app/logger"
	"rewards/internal/app/model"
	"rewards/internal/app/service/ledger"
	"strconv"
)

type TransactionHandler struct {
	ledger Ledger
}

func NewTransactionHandler(ledger Ledger) *TransactionHandler {
	return &TransactionHandler{
		ledger: ledger,
	}
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logger.Get(ctx, "Handler.Transaction.List")

	u, err := ReadContextUser(ctx)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	// unparsable paging falls back to defaults
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	q := ledger.Query{
		Limit:  limit,
		Offset: offset,
		Kind:   model.TransactionKind(query.Get("type")),
	}

	items, total, err := h.ledger.List(ctx, u.ID, q)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	balance, err := h.ledger.Balance(ctx, u.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	l.Debug().Int("count", len(items)).Int("total", total).Send()

	out := struct {
		Transactions []*model.Transaction `json:"transactions"`
		Total        int                  `json:"total"`
		Balance      decimal.Decimal      `json:"balance"`
	}{
		Transactions: items,
		Total:        total,
		Balance:      balance,
	}

	WriteData(w, out, "", http.StatusOK)
}
