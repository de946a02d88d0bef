package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Togather-Foundation/books/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.CORSConfig
		origin    string
		allowed   bool
		rejectLog bool
	}{
		{"no origin", config.CORSConfig{}, "", false, false},
		{"allow all", config.CORSConfig{AllowAllOrigins: true}, "http://localhost:3000", true, false},
		{"whitelisted", config.CORSConfig{AllowedOrigins: []string{"https://Books.example.com"}}, "https://books.example.com", true, false},
		{"rejected", config.CORSConfig{AllowedOrigins: []string{"https://books.example.com"}}, "https://evil.example.com", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := CORS(tt.cfg, zerolog.New(&buf))(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			if tt.allowed {
				require.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
			} else {
				require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
			require.Equal(t, tt.rejectLog, bytes.Contains(buf.Bytes(), []byte("CORS request rejected")))
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS(config.CORSConfig{AllowAllOrigins: true}, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the router")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/books/1", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}
