// Package health runs the environment checks behind "pimis doctor".
//
// Each Checker verifies one dependency of a session: the backend, the
// session store, and the session itself. The Manager runs them in parallel
// with a per-check timeout and reports them in registration order.
//
//	manager := health.NewManager()
//	manager.AddChecker(health.NewBackendChecker(client))
//	manager.AddChecker(health.NewStoreChecker(backend))
//
//	report := manager.Check(ctx)
//	if report.Status != health.StatusHealthy { ... }
package health

import (
	"context"
	"time"
)

// Checker defines the interface for health checks.
type Checker interface {
	// Name is lowercase with hyphens (e.g., "session-store").
	Name() string

	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status represents the health check status.
type Status string

const (
	// StatusHealthy indicates the checked component is fully operational.
	StatusHealthy Status = "healthy"

	// StatusDegraded means commands still run but some will fail, for
	// example when nobody is signed in.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means session commands cannot work.
	StatusUnhealthy Status = "unhealthy"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Result represents the result of a health check.
type Result struct {
	Status  Status         `json:"status" yaml:"status"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration  `json:"latency_ns" yaml:"latency"`
}

// NewResult creates a new health check result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]any),
	}
}

// WithDetail adds a detail to the result and returns the result for chaining.
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

// Healthy creates a healthy result with the given message.
func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

// Degraded creates a degraded result with the given message.
func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

// Unhealthy creates an unhealthy result with the given message.
func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
