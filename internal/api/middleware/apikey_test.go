package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Togather-Foundation/books/internal/api/problem"
	"github.com/Togather-Foundation/books/internal/auth"
	"github.com/Togather-Foundation/books/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRequireAPIKey(t *testing.T) {
	verifier, err := auth.NewVerifier("write-key", "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		key    string
		status int
		reason string
	}{
		{"missing", "", http.StatusForbidden, "missing"},
		{"wrong", "nope", http.StatusForbidden, "invalid"},
		{"padded", " write-key ", http.StatusForbidden, "invalid"},
		{"valid", "write-key", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := RequireAPIKey(verifier, "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusNoContent)
			}))

			var before float64
			if tt.reason != "" {
				before = testutil.ToFloat64(metrics.APIKeyRejections.WithLabelValues(tt.reason))
			}

			req := httptest.NewRequest(http.MethodDelete, "/api/books/1", nil)
			if tt.key != "" {
				req.Header.Set(auth.HeaderAPIKey, tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.reason == "" {
				require.True(t, called)
				return
			}
			require.False(t, called)
			require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			var body problem.ProblemDetails
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			require.Equal(t, problem.Forbidden.Type, body.Type)
			require.Equal(t, before+1, testutil.ToFloat64(metrics.APIKeyRejections.WithLabelValues(tt.reason)))
		})
	}
}

func TestRequireAPIKeyNilVerifierDenies(t *testing.T) {
	handler := RequireAPIKey(nil, "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
	req.Header.Set(auth.HeaderAPIKey, "anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
