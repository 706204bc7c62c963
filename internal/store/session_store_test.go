package store

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/internal/errors"
)

func testUser() domain.UserInfo {
	roles := []domain.UserRole{
		{RoleID: 1, Role: domain.Role{Name: "Viewer", Permissions: domain.NewPermissionSet("view_profile")}},
		{RoleID: 2, Role: domain.Role{Name: "Editor", Permissions: domain.NewPermissionSet("edit_profile", "list_projects")}},
	}
	return domain.UserInfo{ID: "1", Username: "alice", UserRoles: roles, CurrentRole: &roles[1]}
}

func TestSessionStore_TokensAndUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(NewMemoryBackend())

	require.NoError(t, s.MarkPasswordReset(ctx))
	require.NoError(t, s.SaveTokens(ctx, "access", "refresh"))

	pending, err := s.PasswordResetPending(ctx)
	require.NoError(t, err)
	assert.False(t, pending)

	require.NoError(t, s.PublishUser(ctx, testUser()))

	user, ok, err := s.User(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, user.CurrentRole)
	assert.Same(t, &user.UserRoles[1], user.CurrentRole)

	perms, err := s.Permissions(ctx)
	require.NoError(t, err)
	assert.True(t, perms.Equal(domain.NewPermissionSet("edit_profile", "list_projects")))

	pref, ok, err := s.PreferredRoleID(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.RoleID(2), pref)

	authed, err := s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, authed)
}

func TestSessionStore_SaveTokensDropsPreviousUser(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(NewMemoryBackend())

	require.NoError(t, s.PublishUser(ctx, testUser()))
	require.NoError(t, s.SaveTokens(ctx, "a2", "r2"))

	_, ok, err := s.User(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	perms, err := s.Permissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, perms.Len())

	_, ok, _ = s.PreferredRoleID(ctx)
	assert.True(t, ok, "preferred role survives a token change")
}

func TestSessionStore_ClearKeepsPreferredRole(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := NewSessionStore(backend)

	require.NoError(t, s.SaveTokens(ctx, "a", "r"))
	require.NoError(t, s.PublishUser(ctx, testUser()))
	require.NoError(t, s.SaveAccessToken(ctx, "a2", time.Now().Add(2*time.Minute)))
	require.NoError(t, s.SetPreference(ctx, PreferenceChartView, "bar"))
	require.NoError(t, s.SetPreference(ctx, PreferenceValidation, "{}"))

	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, []Key{KeyPreferredRole}, backend.Keys())
}

func TestSessionStore_RefreshTokenOnlyReplacesAccess(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(NewMemoryBackend())
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.SaveTokens(ctx, "a", "r"))
	require.NoError(t, s.SaveAccessToken(ctx, "a2", at))

	access, _ := s.AccessToken(ctx)
	refresh, _ := s.RefreshToken(ctx)
	assert.Equal(t, "a2", access)
	assert.Equal(t, "r", refresh)

	got, ok, err := s.RefreshTime(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}

func TestSessionStore_ClearAccessToken(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(NewMemoryBackend())

	require.NoError(t, s.SaveTokens(ctx, "a", "r"))
	require.NoError(t, s.ClearAccessToken(ctx))

	access, err := s.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, access)
	refresh, _ := s.RefreshToken(ctx)
	assert.Equal(t, "r", refresh)
}

func TestSessionStore_TolerantReads(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := NewSessionStore(backend)

	require.NoError(t, backend.Apply(ctx, Batch{Set: map[Key]string{
		KeyPermissions:   `"admin"`,
		KeyPreferredRole: "abc",
		KeyUser:          "{",
		KeyRefreshTime:   "yesterday",
	}}))

	perms, err := s.Permissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, perms.Len())

	_, ok, err := s.PreferredRoleID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.User(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.RefreshTime(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_UnknownPreference(t *testing.T) {
	s := NewSessionStore(NewMemoryBackend())
	assert.Error(t, s.SetPreference(context.Background(), Preference(KeyAccessToken), "x"))
}

type failingBackend struct{}

func (failingBackend) Load(context.Context, Key) (string, bool, error) {
	return "", false, stderrors.New("disk gone")
}

func (failingBackend) Apply(context.Context, Batch) error {
	return stderrors.New("disk gone")
}

func (failingBackend) Close() error { return nil }

func TestSessionStore_BackendErrorsAreCoded(t *testing.T) {
	s := NewSessionStore(failingBackend{})
	ctx := context.Background()

	err := s.SaveTokens(ctx, "a", "r")
	assert.True(t, stderrors.Is(err, errors.ErrStoreFailed))

	_, err = s.AccessToken(ctx)
	assert.True(t, stderrors.Is(err, errors.ErrStoreFailed))

	perms, err := s.Permissions(ctx)
	assert.Error(t, err)
	assert.NotNil(t, perms)
}
