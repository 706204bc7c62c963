package health

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/pimis/internal/errors"
	"github.com/felixgeelhaar/pimis/internal/store"
)

// Pinger reports whether the backend answers at all.
type Pinger interface {
	Ping(ctx context.Context) (int, error)
}

// BackendChecker checks that the backend API is reachable.
type BackendChecker struct {
	api     Pinger
	baseURL string
}

// NewBackendChecker creates a backend reachability checker. baseURL is only
// reported.
func NewBackendChecker(api Pinger, baseURL string) *BackendChecker {
	return &BackendChecker{api: api, baseURL: baseURL}
}

// Name returns the checker name.
func (c *BackendChecker) Name() string {
	return "backend"
}

// Check pings the backend. A 4xx still proves the API is there.
func (c *BackendChecker) Check(ctx context.Context) *Result {
	start := time.Now()
	status, err := c.api.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return Unhealthy("backend is not reachable").
			WithDetail("url", c.baseURL).
			WithDetail("error", err.Error())
	}

	var result *Result
	if status >= http.StatusInternalServerError {
		result = Degraded(fmt.Sprintf("backend answered with status %d", status))
	} else {
		result = Healthy("backend is reachable")
	}
	result.Latency = latency
	return result.WithDetail("url", c.baseURL).WithDetail("status", status)
}

// StoreChecker checks that the session store can be read.
type StoreChecker struct {
	backend store.Backend
	driver  string
}

// NewStoreChecker creates a session store checker. driver is only reported.
func NewStoreChecker(backend store.Backend, driver string) *StoreChecker {
	return &StoreChecker{backend: backend, driver: driver}
}

// Name returns the checker name.
func (c *StoreChecker) Name() string {
	return "session-store"
}

// Check loads the access token key. Nothing is written.
func (c *StoreChecker) Check(ctx context.Context) *Result {
	if _, _, err := c.backend.Load(ctx, store.KeyAccessToken); err != nil {
		return Unhealthy("session store is not readable").
			WithDetail("driver", c.driver).
			WithDetail("error", err.Error())
	}
	result := Healthy("session store is readable").WithDetail("driver", c.driver)
	if fb, ok := c.backend.(*store.FileBackend); ok {
		result.WithDetail("path", fb.Path())
	}
	if rb, ok := c.backend.(*store.RedisBackend); ok {
		result.WithDetail("key", rb.HashKey())
	}
	return result
}

// SessionState is the part of the session manager the session check reads.
type SessionState interface {
	CheckAuth(ctx context.Context) error
	RefreshDue(ctx context.Context) (bool, error)
}

// SessionChecker reports whether someone is signed in.
type SessionChecker struct {
	session SessionState
}

// NewSessionChecker creates a session checker.
func NewSessionChecker(session SessionState) *SessionChecker {
	return &SessionChecker{session: session}
}

// Name returns the checker name.
func (c *SessionChecker) Name() string {
	return "session"
}

// Check inspects the stored session without calling the backend.
func (c *SessionChecker) Check(ctx context.Context) *Result {
	if err := c.session.CheckAuth(ctx); err != nil {
		if stderrors.Is(err, errors.ErrUnauthorized) {
			return Degraded("not signed in").
				WithDetail("suggestion", "pimis auth login -u <username>")
		}
		return Unhealthy("session could not be read").WithDetail("error", err.Error())
	}

	due, err := c.session.RefreshDue(ctx)
	if err != nil {
		return Unhealthy("session could not be read").WithDetail("error", err.Error())
	}
	if due {
		return Degraded("access token is due for refresh").
			WithDetail("suggestion", "pimis auth refresh")
	}
	return Healthy("signed in")
}
