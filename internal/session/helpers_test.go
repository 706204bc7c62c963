package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/internal/log"
	"github.com/felixgeelhaar/pimis/internal/metrics"
	"github.com/felixgeelhaar/pimis/internal/platform"
	"github.com/felixgeelhaar/pimis/internal/store"
)

// signToken builds an HS256 token; the manager never verifies the signature.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func bareToken(t *testing.T, sub any) string {
	return signToken(t, jwt.MapClaims{"sub": sub})
}

func assertedToken(t *testing.T, roleID int64) string {
	return signToken(t, jwt.MapClaims{"identity": map[string]any{
		"id":           1,
		"current_role": map[string]any{"role_id": roleID},
	}})
}

func role(id int64, perms ...domain.Permission) domain.UserRole {
	return domain.UserRole{
		ID:     id * 10,
		RoleID: domain.RoleID(id),
		Role:   domain.Role{ID: id, Name: "role", Permissions: domain.NewPermissionSet(perms...)},
	}
}

func profile(roles ...domain.UserRole) *domain.Profile {
	return &domain.Profile{ID: 1, Username: "alice", FullName: "Alice A", UserRoles: roles}
}

// stubAPI lets each test script the backend.
type stubAPI struct {
	login      func(ctx context.Context, username, password string) (*platform.TokenResponse, error)
	switchRole func(ctx context.Context, token string, roleID domain.RoleID) (*platform.TokenResponse, error)
	refresh    func(ctx context.Context, token string) (*platform.TokenResponse, error)
	me         func(ctx context.Context, token string) (*domain.Profile, error)
}

func (s *stubAPI) Login(ctx context.Context, u, p string) (*platform.TokenResponse, error) {
	return s.login(ctx, u, p)
}

func (s *stubAPI) SwitchRole(ctx context.Context, token string, id domain.RoleID) (*platform.TokenResponse, error) {
	return s.switchRole(ctx, token, id)
}

func (s *stubAPI) Refresh(ctx context.Context, token string) (*platform.TokenResponse, error) {
	return s.refresh(ctx, token)
}

func (s *stubAPI) CurrentUser(ctx context.Context, token string) (*domain.Profile, error) {
	return s.me(ctx, token)
}

func tokens(access, refresh string) func(context.Context, string, string) (*platform.TokenResponse, error) {
	return func(context.Context, string, string) (*platform.TokenResponse, error) {
		return &platform.TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
	}
}

func profileOf(p *domain.Profile) func(context.Context, string) (*domain.Profile, error) {
	return func(context.Context, string) (*domain.Profile, error) { return p, nil }
}

type fixture struct {
	api     *stubAPI
	backend *store.MemoryBackend
	store   *store.SessionStore
	mgr     *Manager
	metrics *metrics.Metrics
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api:     &stubAPI{},
		backend: store.NewMemoryBackend(),
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.store = store.NewSessionStore(f.backend)
	f.metrics = metrics.NewMetrics(prometheus.NewRegistry())
	f.mgr = NewManager(f.api, f.store,
		WithLogger(log.Discard()),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}
