package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Togather-Foundation/books/internal/api/problem"
	"github.com/jackc/pgx/v5/pgxpool"
)

const checkTimeout = 2 * time.Second

// HealthStore is the subset of the store the health endpoints inspect.
type HealthStore interface {
	Ping(ctx context.Context) error
	MigrationState(ctx context.Context) (int64, bool, error)
	Stat() *pgxpool.Stat
}

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms"`
	Details   map[string]any `json:"details,omitempty"`
}

type HealthChecker struct {
	store     HealthStore
	version   string
	gitCommit string
	env       string
	now       func() time.Time
}

func NewHealthChecker(store HealthStore, version, gitCommit, env string) *HealthChecker {
	return &HealthChecker{
		store:     store,
		version:   version,
		gitCommit: gitCommit,
		env:       env,
		now:       time.Now,
	}
}

// Health reports database connectivity and migration state. Any failing
// check turns the response into a 503.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Err() != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
			return
		}

		checks := map[string]CheckResult{
			"database":   h.checkDatabase(r.Context()),
			"migrations": h.checkMigrations(r.Context()),
		}

		overall, status := "healthy", http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				overall, status = "unhealthy", http.StatusServiceUnavailable
				break
			}
		}

		writeJSON(w, status, HealthCheck{
			Status:    overall,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: h.now().UTC().Format(time.RFC3339),
		})
	}
}

// Readyz succeeds once the database answers a ping.
func (h *HealthChecker) Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil {
			problem.ServiceUnavailable.Write(w, r, errors.New("database not configured"), h.env)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			problem.ServiceUnavailable.Write(w, r, fmt.Errorf("database ping: %w", err), h.env)
			return
		}
		respondHealth(w, http.StatusOK, "ready")
	})
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.store == nil {
		return CheckResult{Status: "fail", Message: "Database pool not initialized"}
	}

	start := time.Now()
	dbCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	err := h.store.Ping(dbCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		message := "Database ping failed"
		switch {
		case errors.Is(dbCtx.Err(), context.DeadlineExceeded):
			message = "Database ping timed out"
		case strings.Contains(err.Error(), "connection refused"):
			message = "Database connection refused"
		case strings.Contains(err.Error(), "authentication failed"):
			message = "Database authentication failed"
		}
		return CheckResult{
			Status:    "fail",
			Message:   message,
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}

	details := map[string]any{}
	if stat := h.store.Stat(); stat != nil {
		details["max_connections"] = stat.MaxConns()
		details["total_connections"] = stat.TotalConns()
		details["idle_connections"] = stat.IdleConns()
		details["acquired_connections"] = stat.AcquiredConns()
	}
	return CheckResult{
		Status:    "pass",
		Message:   "PostgreSQL connection successful",
		LatencyMs: latency,
		Details:   details,
	}
}

func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	if h.store == nil {
		return CheckResult{Status: "fail", Message: "Database pool not initialized"}
	}

	start := time.Now()
	migCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	version, dirty, err := h.store.MigrationState(migCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		message := "Failed to query migration version"
		if strings.Contains(err.Error(), "does not exist") {
			message = "Migrations table not found; run `server migrate up`"
		}
		return CheckResult{
			Status:    "fail",
			Message:   message,
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}

	details := map[string]any{"version": version, "dirty": dirty}
	if dirty {
		return CheckResult{
			Status:    "fail",
			Message:   "Database in dirty migration state - manual intervention required",
			LatencyMs: latency,
			Details:   details,
		}
	}
	return CheckResult{
		Status:    "pass",
		Message:   fmt.Sprintf("Migrations applied (version %d)", version),
		LatencyMs: latency,
		Details:   details,
	}
}

// Healthz is a liveness check that never touches dependencies.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	writeJSON(w, status, healthResponse{Status: value})
}
