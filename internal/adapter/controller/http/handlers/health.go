package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/config"
)

var startTime = time.Now()

// Pinger tests a dependency's liveness
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the health probe payload
type HealthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Uptime      string            `json:"uptime"`
	Environment string            `json:"environment"`
	Timestamp   time.Time         `json:"timestamp"`
	Checks      map[string]string `json:"checks"`
}

// HealthCheck returns the health probe handler. Process and runtime
// stats live on /metrics; this endpoint answers whether the connector
// is up and can reach its stores. auditDB may be nil when the audit
// trail is disabled.
func HealthCheck(cfg *config.Config, auditDB Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"api": "ok"}

		if auditDB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			if err := auditDB.Ping(ctx); err != nil {
				checks["audit_db"] = "unreachable"
			} else {
				checks["audit_db"] = "ok"
			}
			cancel()
		}

		status := "healthy"
		for _, c := range checks {
			if c != "ok" {
				status = "degraded"
				break
			}
		}

		JSONResponse(w, http.StatusOK, HealthResponse{
			Status:      status,
			Version:     "1.0.0",
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			Environment: cfg.App.Env,
			Timestamp:   time.Now().UTC(),
			Checks:      checks,
		})
	}
}
