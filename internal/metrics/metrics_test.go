package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	Init("v1.0.0", "abc123", "2026-01-30")
	Init("v1.0.1", "def456", "2026-02-01")

	require.Equal(t, 1, testutil.CollectAndCount(AppInfo))
	require.Equal(t, 1.0, testutil.ToFloat64(AppInfo.WithLabelValues("v1.0.1", "def456", "2026-02-01")))
}

func TestHTTPMiddleware(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/books/{id}", "404"))

	req := httptest.NewRequest(http.MethodGet, "/api/books/42", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/books/{id}", "404"))
	require.Equal(t, before+1, after)
	require.Zero(t, testutil.ToFloat64(HTTPRequestsInFlight))
}

func TestHTTPMiddlewareImplicitOK(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodHead, "/healthz", "200"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodHead, "/healthz", nil))

	require.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodHead, "/healthz", "200")))
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/api/books", "/api/books"},
		{"/api/books/17", "/api/books/{id}"},
		{"/api/books/stats", "/api/books/stats"},
		{"/api/books/17/", "/api/books/{id}/"},
		{"", ""},
		{"api/books/1", "api/books/1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, normalizePath(tt.input))
		})
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	BookWrites.WithLabelValues("create").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "books_api_book_writes_total"))
}

func TestRecordQuery(t *testing.T) {
	before := testutil.ToFloat64(DBErrors.WithLabelValues("get_book", "timeout"))

	RecordQuery("get_book", time.Now(), nil)
	RecordQuery("get_book", time.Now(), context.DeadlineExceeded)

	require.Equal(t, before+1, testutil.ToFloat64(DBErrors.WithLabelValues("get_book", "timeout")))

	wrapped := errors.Join(errors.New("query"), context.Canceled)
	RecordQuery("get_book", time.Now(), wrapped)
	require.GreaterOrEqual(t, testutil.ToFloat64(DBErrors.WithLabelValues("get_book", "canceled")), 1.0)
}

func TestDBCollectorStopsOnCancel(t *testing.T) {
	collector := NewDBCollector(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- collector.Run(ctx, 10*time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
