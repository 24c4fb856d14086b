// Package health exposes liveness, readiness and dependency health.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything whose reachability the checker reports on.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DBPinger matches the sqlx-backed database handle.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

type dbAdapter struct{ db DBPinger }

func (a dbAdapter) Ping(ctx context.Context) error { return a.db.PingContext(ctx) }

// Checker handles health check endpoints
type Checker struct {
	db        Pinger
	redis     Pinger
	version   string
	startTime time.Time
	ready     atomic.Bool
}

// NewChecker creates a new health checker. redis may be nil when rate
// limiting is disabled.
func NewChecker(db DBPinger, redis Pinger, version string) *Checker {
	checker := &Checker{
		redis:     redis,
		version:   version,
		startTime: time.Now(),
	}
	if db != nil {
		checker.db = dbAdapter{db}
	}
	return checker
}

// SetReady sets the readiness state
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// RegisterRoutes registers health check endpoints
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Checks     map[string]*CheckResult `json:"checks"`
	ReportedAt time.Time               `json:"reported_at"`
}

// CheckResult represents an individual check result
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

func (c *Checker) check(ctx context.Context, p Pinger) *CheckResult {
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return &CheckResult{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}
	return &CheckResult{
		Status:  "healthy",
		Latency: time.Since(start).String(),
	}
}

// Health returns the overall health status
func (c *Checker) Health(ectx echo.Context) error {
	ctx, cancel := context.WithTimeout(ectx.Request().Context(), 5*time.Second)
	defer cancel()

	status := &HealthStatus{
		Status:     "healthy",
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     make(map[string]*CheckResult),
		ReportedAt: time.Now(),
	}

	if c.db != nil {
		status.Checks["database"] = c.check(ctx, c.db)
	} else {
		status.Checks["database"] = &CheckResult{
			Status:  "unhealthy",
			Message: "database not configured",
		}
	}

	if c.redis != nil {
		status.Checks["redis"] = c.check(ctx, c.redis)
	}

	for _, result := range status.Checks {
		if result.Status != "healthy" {
			status.Status = "unhealthy"
		}
	}

	httpStatus := http.StatusOK
	if status.Status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	return ectx.JSON(httpStatus, status)
}

// Live returns the liveness status (is the service running)
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready returns the readiness status (is the service ready to accept traffic)
func (c *Checker) Ready(ctx echo.Context) error {
	if c.ready.Load() {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}
