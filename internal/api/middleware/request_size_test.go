package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestSize(t *testing.T) {
	tests := []struct {
		name     string
		maxBytes int64
		bodySize int
		chunked  bool
		status   int
	}{
		{"small request accepted", 1024, 512, false, http.StatusOK},
		{"exact limit accepted", 1024, 1024, false, http.StatusOK},
		{"declared oversize rejected early", 1024, 2048, false, http.StatusRequestEntityTooLarge},
		{"chunked oversize cut off", 1024, 2048, true, http.StatusRequestEntityTooLarge},
		{"default limit", DefaultMaxBodySize, int(DefaultMaxBodySize) + 1, false, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequestSize(tt.maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, err := io.ReadAll(r.Body)
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					w.WriteHeader(http.StatusRequestEntityTooLarge)
					return
				}
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
			}))

			body := bytes.Repeat([]byte("x"), tt.bodySize)
			req := httptest.NewRequest(http.MethodPost, "/api/books", bytes.NewReader(body))
			if tt.chunked {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequestSizeEmptyBody(t *testing.T) {
	handler := RequestSize(10)(okHandler())
	req := httptest.NewRequest(http.MethodDelete, "/api/books/1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
