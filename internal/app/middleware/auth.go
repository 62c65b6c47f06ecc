package middleware

import (
	"context"
	"net/http"
	"rewards/internal/app/apperr"
	"rewards/internal/app/handler"
	"rewards/internal/app/logger"
	"rewards/internal/app/session"
	"strings"
)

// Auth resolves bearer token to the user and stores it in request context
func Auth(jwt session.Reader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.Get(r.Context(), "Middleware.Auth")

			reqHeader := r.Header.Get("Authorization")
			splitToken := strings.Split(reqHeader, "Bearer ")
			if len(splitToken) != 2 || splitToken[1] == "" {
				log.Debug().Msg("Invalid Authorization header")
				handler.WriteError(w, r, apperr.ErrUnauthorized)
				return
			}

			u, err := jwt.Read(r.Context(), splitToken[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				handler.WriteError(w, r, apperr.ErrUnauthorized)
				return
			}

			log.Debug().Str("user_id", u.ID.String()).Msg("User authorized")
			r = r.WithContext(context.WithValue(r.Context(), handler.ContextKeyUser{}, u))
			next.ServeHTTP(w, r)
		})
	}
}
