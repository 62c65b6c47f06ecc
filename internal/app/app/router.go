package app

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"net/http"
	"rewards/internal/app/handler"
	middleware2 "rewards/internal/app/middleware"
)

func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware2.Log(a.logger))
	r.Use(middleware.Recoverer)

	uh := handler.NewUserHandler(a.ledger)
	th := handler.NewTransactionHandler(a.ledger)
	mh := handler.NewMethodHandler(a.methods)
	wh := handler.NewWithdrawalHandler(a.processor, a.withdrawals)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware2.Auth(a.session))

		r.Get("/user/profile", uh.Profile)
		r.Get("/transactions", th.List)
		r.Get("/withdrawal-methods", mh.List)
		r.Post("/withdrawals", wh.Create)
		r.Get("/withdrawals/{id}", wh.Get)
	})

	return r
}
