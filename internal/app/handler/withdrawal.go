package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"net/http"
	"rewards/internal/app/apperr"
	"rewards/internal/app/logger"
	"rewards/internal/app/service/withdrawal"
)

type WithdrawalHandler struct {
	processor   WithdrawalProcessor
	withdrawals WithdrawalReader
}

func NewWithdrawalHandler(processor WithdrawalProcessor, withdrawals WithdrawalReader) *WithdrawalHandler {
	return &WithdrawalHandler{
		processor:   processor,
		withdrawals: withdrawals,
	}
}

func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logger.Get(ctx, "Handler.Withdrawal.Create")

	u, err := ReadContextUser(ctx)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	in := struct {
		MethodID               string              `json:"method_id" validate:"required,uuid"`
		Amount                 decimal.NullDecimal `json:"amount"`
		OverrideDuplicateCheck bool                `json:"override_duplicate_check"`
	}{}

	if err := readBody(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := validateData(in); err != nil {
		WriteError(w, r, err)
		return
	}

	res, err := h.processor.Process(ctx, withdrawal.Request{
		UserID:                 u.ID,
		MethodID:               uuid.MustParse(in.MethodID),
		Amount:                 in.Amount,
		OverrideDuplicateCheck: in.OverrideDuplicateCheck,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	l.Debug().Str("withdrawal_id", res.Withdrawal.ID.String()).Send()

	WriteData(w, res, "Withdrawal completed successfully", http.StatusCreated)
}

func (h *WithdrawalHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, err := ReadContextUser(ctx)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, apperr.NewValidationError("id", "must be a uuid"))
		return
	}

	m, err := h.withdrawals.Read(ctx, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	// other users' withdrawals do not exist for the caller
	if m.UserID != u.ID {
		WriteError(w, r, apperr.ErrNotFound)
		return
	}

	out := struct {
		Withdrawal interface{} `json:"withdrawal"`
	}{m}

	WriteData(w, out, "", http.StatusOK)
}
