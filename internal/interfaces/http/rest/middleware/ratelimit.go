package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	apperrors "soundgraph-backend/pkg/errors"
)

// RateLimit rejects requests beyond the limiter's budget with 429.
func RateLimit(limiter *rate.Limiter, errorHandler *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				errorHandler.Handle(w, r, apperrors.NewRateLimitError("api"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
