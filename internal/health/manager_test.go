package health

import (
	"context"
	"testing"
	"time"
)

// mockChecker is a test double for health checks
type mockChecker struct {
	name   string
	result *Result
	delay  time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) *Result {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return Unhealthy("check cancelled").
				WithDetail("error", ctx.Err().Error())
		}
	}
	return m.result
}

func TestNewManager(t *testing.T) {
	manager := NewManager()

	if manager.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", manager.timeout, DefaultTimeout)
	}
	if len(manager.CheckNames()) != 0 {
		t.Errorf("checkers should be empty, got %v", manager.CheckNames())
	}
}

func TestWithTimeout(t *testing.T) {
	manager := NewManager()
	returned := manager.WithTimeout(time.Second)

	if returned != manager {
		t.Error("WithTimeout should return same manager for chaining")
	}
	if manager.timeout != time.Second {
		t.Errorf("timeout = %v, want %v", manager.timeout, time.Second)
	}
}

func TestCheckKeepsRegistrationOrder(t *testing.T) {
	manager := NewManager()
	manager.AddChecker(&mockChecker{name: "slow", result: Healthy("ok"), delay: 20 * time.Millisecond})
	manager.AddChecker(&mockChecker{name: "fast", result: Healthy("ok")})

	report := manager.Check(context.Background())

	if len(report.Checks) != 2 {
		t.Fatalf("got %d results, want 2", len(report.Checks))
	}
	if report.Checks[0].Name != "slow" || report.Checks[1].Name != "fast" {
		t.Errorf("order = %s, %s; want slow, fast", report.Checks[0].Name, report.Checks[1].Name)
	}
	if report.Checks[0].Latency == 0 {
		t.Error("latency should be filled in")
	}
	if report.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", report.Status)
	}
}

func TestCheckTimeout(t *testing.T) {
	manager := NewManager().WithTimeout(10 * time.Millisecond)
	manager.AddChecker(&mockChecker{name: "hang", result: Healthy("ok"), delay: time.Second})

	report := manager.Check(context.Background())

	if report.Checks[0].Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", report.Checks[0].Status)
	}
	if report.Status != StatusUnhealthy {
		t.Errorf("overall = %v, want unhealthy", report.Status)
	}
}

func TestCheckNilResult(t *testing.T) {
	manager := NewManager()
	manager.AddChecker(&mockChecker{name: "broken"})

	report := manager.Check(context.Background())
	if report.Checks[0].Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", report.Checks[0].Status)
	}
}

func TestOverallStatus(t *testing.T) {
	named := func(statuses ...Status) []NamedResult {
		out := make([]NamedResult, len(statuses))
		for i, s := range statuses {
			out[i] = NamedResult{Name: string(s), Result: NewResult(s, "")}
		}
		return out
	}

	tests := []struct {
		name   string
		checks []NamedResult
		want   Status
	}{
		{"none", nil, StatusHealthy},
		{"all healthy", named(StatusHealthy, StatusHealthy), StatusHealthy},
		{"one degraded", named(StatusHealthy, StatusDegraded), StatusDegraded},
		{"unhealthy wins", named(StatusDegraded, StatusUnhealthy, StatusHealthy), StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverallStatus(tt.checks); got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}
