package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Togather-Foundation/books/internal/api/handlers"
	"github.com/Togather-Foundation/books/internal/api/middleware"
	"github.com/Togather-Foundation/books/internal/api/problem"
	"github.com/Togather-Foundation/books/internal/config"
	"github.com/Togather-Foundation/books/internal/domain/books"
	"github.com/Togather-Foundation/books/internal/metrics"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Config   config.Config
	Logger   zerolog.Logger
	Books    *books.Service
	Health   handlers.HealthStore
	Verifier middleware.KeyVerifier

	Version   string
	GitCommit string
	BuildDate string
}

// NewRouter wires routes and the middleware stack. ctx bounds background
// work started by middleware such as limiter cleanup.
func NewRouter(ctx context.Context, deps Deps) http.Handler {
	cfg := deps.Config
	env := cfg.Environment

	booksHandler := handlers.NewBooksHandler(deps.Books, env)
	health := handlers.NewHealthChecker(deps.Health, deps.Version, deps.GitCommit, env)
	requireKey := middleware.RequireAPIKey(deps.Verifier, env)
	openAPI := OpenAPIHandler(env)

	mux := http.NewServeMux()
	mux.Handle("/{$}", methodMux(env, map[string]http.Handler{
		http.MethodGet: handlers.Root(),
	}))
	mux.Handle("/api/books", methodMux(env, map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(booksHandler.List),
		http.MethodPost: requireKey(http.HandlerFunc(booksHandler.Create)),
	}))
	mux.Handle("/api/books/stats", methodMux(env, map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(booksHandler.Stats),
	}))
	mux.Handle("/api/books/{id}", methodMux(env, map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(booksHandler.Get),
		http.MethodPut:    requireKey(http.HandlerFunc(booksHandler.Replace)),
		http.MethodPatch:  requireKey(http.HandlerFunc(booksHandler.Patch)),
		http.MethodDelete: requireKey(http.HandlerFunc(booksHandler.Delete)),
	}))

	getOnly := func(h http.Handler) http.Handler {
		return methodMux(env, map[string]http.Handler{http.MethodGet: h})
	}
	mux.Handle("/docs", getOnly(openAPI))
	mux.Handle("/openapi.json", getOnly(openAPI))
	mux.Handle("/healthz", getOnly(handlers.Healthz()))
	mux.Handle("/readyz", getOnly(health.Readyz()))
	mux.Handle("/health", getOnly(health.Health()))
	mux.Handle("/version", getOnly(VersionHandler(deps.Version, deps.GitCommit, deps.BuildDate)))
	mux.Handle("/metrics", getOnly(metrics.Handler()))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		problem.NotFound.Write(w, r, fmt.Errorf("no route for %s", r.URL.Path), env)
	}))

	return middleware.Chain(mux,
		metrics.HTTPMiddleware,
		middleware.CorrelationID(deps.Logger),
		middleware.Tracing,
		middleware.RequestLogging(deps.Logger),
		middleware.SecurityHeaders(env == "production"),
		middleware.CORS(cfg.CORS, deps.Logger),
		middleware.RateLimit(ctx, cfg.RateLimit),
		middleware.RequestSize(middleware.DefaultMaxBodySize),
	)
}

// methodMux dispatches on method and answers anything else with 405 and an
// Allow header. HEAD is served by the GET handler.
func methodMux(env string, handlers map[string]http.Handler) http.Handler {
	if get, ok := handlers[http.MethodGet]; ok {
		if _, hasHead := handlers[http.MethodHead]; !hasHead {
			handlers[http.MethodHead] = get
		}
	}
	allow := allowedMethods(handlers)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allow)
		problem.MethodNotAllowed.Write(w, r, fmt.Errorf("method %s not allowed", r.Method), env)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
