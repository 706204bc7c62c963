package navigation

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/internal/log"
	"github.com/felixgeelhaar/pimis/internal/metrics"
	"github.com/felixgeelhaar/pimis/pkg/pimis/features"
)

type staticPerms struct {
	set   domain.PermissionSet
	err   error
	calls int
}

func (s *staticPerms) GetPermissions(context.Context) (domain.PermissionSet, error) {
	s.calls++
	return s.set, s.err
}

func testCatalog() *Catalog {
	return NewCatalog(map[string][]Node{
		"ug": {
			leaf("Help", "/help"),
			gated(leaf("Projects", "/projects"), "list_projects"),
			branch("Admin",
				gated(leaf("Users", "/users"), "list_users"),
				flagged(leaf("Reports", "/reports"), features.FlagMEReports),
			),
		},
		"jm": {leaf("Only JM", "/jm")},
	})
}

func TestAuthorizerMenu(t *testing.T) {
	perms := &staticPerms{set: domain.NewPermissionSet("list_projects")}
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	a := NewAuthorizer(testCatalog(), perms, features.ForVariant(features.VariantUG),
		WithLogger(log.Discard()), WithMetrics(m))

	got, err := a.Menu(context.Background(), features.VariantUG, "")
	require.NoError(t, err)
	require.Equal(t, []string{"Help", "Projects", "Admin"}, titles(got))
	assert.Equal(t, []string{"Reports"}, titles(got[2].Children))

	perms.set = domain.NewPermissionSet("list_projects", "list_users")
	got, err = a.Menu(context.Background(), features.VariantUG, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Users", "Reports"}, titles(got[2].Children), "permissions are re-read on each call")

	assert.Equal(t, 2, perms.calls)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.MenuRenders.WithLabelValues("ug")))
}

func TestAuthorizerMenuWithSearch(t *testing.T) {
	perms := &staticPerms{set: domain.NewPermissionSet("list_users")}
	a := NewAuthorizer(testCatalog(), perms, features.NewSet(), WithLogger(log.Discard()))

	got, err := a.Menu(context.Background(), features.VariantMZB, "USERS")
	require.NoError(t, err)
	require.Equal(t, []string{"Admin"}, titles(got))
	assert.Equal(t, []string{"Users"}, titles(got[0].Children))
}

func TestAuthorizerMenuFailsClosed(t *testing.T) {
	perms := &staticPerms{err: stderrors.New("store down")}
	a := NewAuthorizer(testCatalog(), perms, features.NewSet(), WithLogger(log.Discard()))

	got, err := a.Menu(context.Background(), features.VariantUG, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Help"}, titles(got))
}

func TestAuthorizerMenuCanceled(t *testing.T) {
	a := NewAuthorizer(testCatalog(), &staticPerms{}, features.NewSet(), WithLogger(log.Discard()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Menu(ctx, features.VariantUG, "")
	assert.ErrorIs(t, err, context.Canceled)
}
