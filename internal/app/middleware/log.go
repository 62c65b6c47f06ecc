package middleware

import (
	"github.com/justinas/alice"
	"github.com/rs/zerolog/hlog"
	"net/http"
	"rewards/internal/app/logger"
	"time"
)

// Log puts request scoped logger with request id into context and writes access log
func Log(l logger.Logger) func(next http.Handler) http.Handler {
	chain := alice.New(
		hlog.NewHandler(l.Logger),
		hlog.RequestIDHandler("req_id", "X-Request-Id"),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Stringer("url", r.URL).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("Request")
		}),
	)

	return chain.Then
}
