package middleware

import (
	"errors"
	"net/http"

	"github.com/Togather-Foundation/books/internal/api/problem"
	"github.com/Togather-Foundation/books/internal/auth"
	"github.com/Togather-Foundation/books/internal/metrics"
)

// KeyVerifier checks the credentials carried by a request.
type KeyVerifier interface {
	VerifyRequest(r *http.Request) error
}

// RequireAPIKey rejects requests without a valid X-API-Key with 403.
func RequireAPIKey(verifier KeyVerifier, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := auth.ErrInvalidAPIKey
			if verifier != nil {
				err = verifier.VerifyRequest(r)
			}
			if err != nil {
				reason := "invalid"
				if errors.Is(err, auth.ErrMissingAPIKey) {
					reason = "missing"
				}
				metrics.APIKeyRejections.WithLabelValues(reason).Inc()
				problem.Forbidden.Write(w, r, err, env,
					problem.WithDetail("a valid "+auth.HeaderAPIKey+" header is required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
