package middleware

import (
	"fmt"
	"net/http"

	"github.com/Togather-Foundation/books/internal/api/problem"
)

// DefaultMaxBodySize caps book payloads at 1MB
const DefaultMaxBodySize int64 = 1 << 20

// RequestSize limits the size of incoming request bodies. A declared
// Content-Length above the limit is rejected with 413 immediately; chunked
// bodies are cut off by http.MaxBytesReader and surface as
// *http.MaxBytesError to the decoder.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				problem.PayloadTooLarge.Write(w, r,
					fmt.Errorf("request body of %d bytes exceeds limit of %d bytes", r.ContentLength, maxBytes), "")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
