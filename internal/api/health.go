// Package api provides HTTP handlers for the conceptmap server.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DBChecker reports database reachability.
type DBChecker interface {
	HealthCheck(ctx context.Context) error
}

// SchemaVersionFunc returns the migration version applied to the database.
type SchemaVersionFunc func(ctx context.Context) (int64, error)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	db             DBChecker
	appliedVersion SchemaVersionFunc
	wantVersion    int64
	log            *logrus.Logger
	version        string
	startTime      time.Time
}

// NewHealthHandler creates a HealthHandler. wantVersion is the schema version
// the running binary was built against.
func NewHealthHandler(db DBChecker, applied SchemaVersionFunc, wantVersion int64, log *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		db:             db,
		appliedVersion: applied,
		wantVersion:    wantVersion,
		log:            log,
		version:        version,
		startTime:      time.Now(),
	}
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthResponse is the JSON payload returned by the health/liveness endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Liveness handles GET /api/v1/health. It always answers 200; the database
// field is informational.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Database:      "connected",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}
	} else {
		resp.Database = "not_configured"
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready: the database must answer and carry
// the schema version this binary expects.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{
		"database": "ok",
		"schema":   "ok",
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		h.log.WithError(err).Error("readiness: database health check failed")
		checks["database"] = "error"
		checks["schema"] = "unknown"
	} else if err := h.checkSchema(ctx); err != nil {
		h.log.WithError(err).Error("readiness: schema check failed")
		checks["schema"] = "error"
	}

	if checks["database"] != "ok" || checks["schema"] != "ok" {
		c.JSON(http.StatusServiceUnavailable, readinessResponse{Status: "not_ready", Checks: checks})

		return
	}

	c.JSON(http.StatusOK, readinessResponse{Status: "ready", Checks: checks})
}

func (h *HealthHandler) checkSchema(ctx context.Context) error {
	got, err := h.appliedVersion(ctx)
	if err != nil {
		return err
	}

	if got != h.wantVersion {
		return fmt.Errorf("schema version %d, want %d", got, h.wantVersion)
	}

	return nil
}
