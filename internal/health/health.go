// Package health computes the service health state reported on GET /health.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/kjstillabower/solawi/internal/traffic"
)

// Health states in reporting priority order.
const (
	StatusShuttingDown = "shutting-down"
	StatusDegraded     = "degraded"
	StatusOverloaded   = "overloaded"
	StatusHealthy      = "healthy"
)

var shuttingDown atomic.Bool

// SetShuttingDown sets the process-wide shutting-down flag.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether shutdown has begun.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Config holds the thresholds of the health evaluation.
type Config struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int
	DegradedWindow       time.Duration
	DegradedErrorPct     int
	// DBPing checks database reachability. Required.
	DBPing func(ctx context.Context) error
	// CachePing, when set, checks the remote cache backend. A failing cache is reported
	// in checks but does not degrade the service.
	CachePing func() error
}

// Result is the outcome of one health evaluation.
type Result struct {
	Status     string
	StatusCode int
	Reason     string
	Checks     map[string]string
}

// Checker evaluates health against Config.
type Checker struct {
	cfg Config
}

// NewChecker returns a Checker for cfg.
func NewChecker(cfg Config) *Checker {
	return &Checker{cfg: cfg}
}

// Check evaluates shutting-down, database, overload and error rate in that order.
func (c *Checker) Check(ctx context.Context) Result {
	checks := map[string]string{"database": "healthy"}
	dbErr := error(nil)
	if c.cfg.DBPing != nil {
		dbErr = c.cfg.DBPing(ctx)
	}
	if dbErr != nil {
		checks["database"] = "unhealthy"
	}
	if c.cfg.CachePing != nil {
		if c.cfg.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}

	res := Result{Status: StatusHealthy, StatusCode: http.StatusOK, Checks: checks}
	switch {
	case IsShuttingDown():
		res.Status, res.StatusCode, res.Reason = StatusShuttingDown, http.StatusServiceUnavailable, "signal"
	case dbErr != nil:
		res.Status, res.StatusCode, res.Reason = StatusDegraded, http.StatusServiceUnavailable, "database_unreachable"
	case c.overloaded():
		res.Status, res.StatusCode, res.Reason = StatusOverloaded, http.StatusServiceUnavailable, "overload_threshold"
	case c.errorRateBreached():
		res.Status, res.StatusCode, res.Reason = StatusDegraded, http.StatusServiceUnavailable, "error_rate_breach"
	}
	return res
}

// overloaded reports whether rate limit denials in the window exceed the configured
// share of what the limiter admits in that window.
func (c *Checker) overloaded() bool {
	if c.cfg.OverloadWindow <= 0 || c.cfg.RateLimitRPS <= 0 || c.cfg.OverloadThresholdPct <= 0 {
		return false
	}
	threshold := float64(c.cfg.RateLimitRPS) * c.cfg.OverloadWindow.Seconds() * float64(c.cfg.OverloadThresholdPct) / 100
	return float64(traffic.DenialCount(c.cfg.OverloadWindow)) > threshold
}

func (c *Checker) errorRateBreached() bool {
	if c.cfg.DegradedWindow <= 0 || c.cfg.DegradedErrorPct <= 0 {
		return false
	}
	failures, total := traffic.ErrorRate(c.cfg.DegradedWindow)
	if total == 0 {
		return false
	}
	return float64(failures)*100/float64(total) >= float64(c.cfg.DegradedErrorPct)
}
