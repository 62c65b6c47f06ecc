package handler

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"net/http"
	"rewards/internal/app/logger"
	"time"
)

type UserHandler struct {
	ledger Ledger
}

func NewUserHandler(ledger Ledger) *UserHandler {
	return &UserHandler{
		ledger: ledger,
	}
}

type profile struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	CreatedAt time.Time       `json:"created_at"`
	Balance   decimal.Decimal `json:"balance"`
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logger.Get(ctx, "Handler.User.Profile")

	u, err := ReadContextUser(ctx)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	balance, err := h.ledger.Balance(ctx, u.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	l.Debug().Str("user_id", u.ID.String()).Str("balance", balance.StringFixed(2)).Send()

	out := struct {
		User profile `json:"user"`
	}{
		User: profile{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
			Balance:   balance,
		},
	}

	WriteData(w, out, "", http.StatusOK)
}
