package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthCheck is the readiness payload.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult is the result of one dependency probe.
type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

// HealthChecker probes the dependencies readiness cares about. The
// search index is optional: a failing index degrades search, it does
// not take the service out of rotation.
type HealthChecker struct {
	pool       *pgxpool.Pool
	searchPing func(ctx context.Context) error
	version    string
	gitCommit  string
}

func NewHealthChecker(pool *pgxpool.Pool, searchPing func(ctx context.Context) error, version, gitCommit string) *HealthChecker {
	return &HealthChecker{pool: pool, searchPing: searchPing, version: version, gitCommit: gitCommit}
}

// Healthz is the liveness probe: the process is up.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Readyz reports whether the service can serve traffic.
func (h *HealthChecker) Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		check := HealthCheck{
			Status:    "ok",
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    map[string]CheckResult{},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		status := http.StatusOK

		check.Checks["database"] = h.probe(ctx, func(ctx context.Context) error {
			return h.pool.Ping(ctx)
		})
		if check.Checks["database"].Status != "pass" {
			check.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}

		if h.searchPing != nil {
			result := h.probe(ctx, h.searchPing)
			check.Checks["search_index"] = result
			if result.Status != "pass" && check.Status == "ok" {
				check.Status = "degraded"
			}
		}

		writeJSON(w, status, check)
	})
}

func (h *HealthChecker) probe(ctx context.Context, fn func(ctx context.Context) error) CheckResult {
	start := time.Now()
	if err := fn(ctx); err != nil {
		return CheckResult{Status: "fail", Message: err.Error(), LatencyMs: time.Since(start).Milliseconds()}
	}
	return CheckResult{Status: "pass", LatencyMs: time.Since(start).Milliseconds()}
}
