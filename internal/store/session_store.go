package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/internal/errors"
)

// SessionStore is the typed view of the durable session. Every mutation is
// a single Backend batch, so readers never observe half of a flow's writes.
type SessionStore struct {
	backend Backend
}

// NewSessionStore wraps a backend.
func NewSessionStore(backend Backend) *SessionStore {
	return &SessionStore{backend: backend}
}

// Backend returns the underlying storage
func (s *SessionStore) Backend() Backend {
	return s.backend
}

func (s *SessionStore) load(ctx context.Context, key Key) (string, bool, error) {
	v, ok, err := s.backend.Load(ctx, key)
	if err != nil {
		return "", false, errors.NewStoreError("read "+string(key), err)
	}
	return v, ok, nil
}

func (s *SessionStore) apply(ctx context.Context, op string, batch Batch) error {
	if err := s.backend.Apply(ctx, batch); err != nil {
		return errors.NewStoreError(op, err)
	}
	return nil
}

// AccessToken returns the stored access token, or "" when absent.
func (s *SessionStore) AccessToken(ctx context.Context) (string, error) {
	v, _, err := s.load(ctx, KeyAccessToken)
	return v, err
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *SessionStore) RefreshToken(ctx context.Context) (string, error) {
	v, _, err := s.load(ctx, KeyRefreshToken)
	return v, err
}

// SaveTokens writes both tokens together. The previous user and permissions
// are dropped in the same batch so they never pair with the new token, and
// the password-reset marker goes with them.
func (s *SessionStore) SaveTokens(ctx context.Context, access, refresh string) error {
	return s.apply(ctx, "save tokens", Batch{
		Set: map[Key]string{
			KeyAccessToken:  access,
			KeyRefreshToken: refresh,
		},
		Delete: []Key{KeyResetPassword, KeyUser, KeyPermissions, KeyIsAuth},
	})
}

// SaveAccessToken replaces only the access token and records when the
// caller should consider refreshing next.
func (s *SessionStore) SaveAccessToken(ctx context.Context, access string, refreshAt time.Time) error {
	return s.apply(ctx, "save access token", Batch{
		Set: map[Key]string{
			KeyAccessToken: access,
			KeyRefreshTime: refreshAt.UTC().Format(time.RFC3339Nano),
		},
	})
}

// ClearAccessToken forgets the access token and nothing else.
func (s *SessionStore) ClearAccessToken(ctx context.Context) error {
	return s.apply(ctx, "clear access token", Batch{Delete: []Key{KeyAccessToken}})
}

// MarkPasswordReset records that the next screen is the password-reset flow.
func (s *SessionStore) MarkPasswordReset(ctx context.Context) error {
	return s.apply(ctx, "mark password reset", Batch{Set: map[Key]string{KeyResetPassword: "true"}})
}

// PasswordResetPending reports whether MarkPasswordReset was called since
// the last token save.
func (s *SessionStore) PasswordResetPending(ctx context.Context) (bool, error) {
	_, ok, err := s.load(ctx, KeyResetPassword)
	return ok, err
}

// PublishUser writes the user, its permission set and the authenticated
// flag in one batch. When the user has a current role it also becomes the
// preferred role.
func (s *SessionStore) PublishUser(ctx context.Context, user domain.UserInfo) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return errors.NewStoreError("encode user", err)
	}
	permsJSON, err := json.Marshal(user.Permissions())
	if err != nil {
		return errors.NewStoreError("encode permissions", err)
	}

	set := map[Key]string{
		KeyUser:        string(userJSON),
		KeyPermissions: string(permsJSON),
		KeyIsAuth:      "true",
	}
	if user.CurrentRole != nil {
		set[KeyPreferredRole] = user.CurrentRole.RoleID.String()
	}
	return s.apply(ctx, "publish user", Batch{Set: set})
}

// ClearUser removes the user and its permissions, leaving tokens alone.
func (s *SessionStore) ClearUser(ctx context.Context) error {
	return s.apply(ctx, "clear user", Batch{Delete: []Key{KeyUser, KeyPermissions, KeyIsAuth}})
}

// User returns the published user. ok is false when none is stored or the
// stored value cannot be decoded.
func (s *SessionStore) User(ctx context.Context) (user domain.UserInfo, ok bool, err error) {
	v, found, err := s.load(ctx, KeyUser)
	if err != nil || !found {
		return domain.UserInfo{}, false, err
	}
	if err := json.Unmarshal([]byte(v), &user); err != nil {
		return domain.UserInfo{}, false, nil
	}
	relinkCurrentRole(&user)
	return user, true, nil
}

// relinkCurrentRole points CurrentRole back into UserRoles after decoding.
func relinkCurrentRole(user *domain.UserInfo) {
	if user.CurrentRole == nil {
		return
	}
	for i := range user.UserRoles {
		if user.UserRoles[i].RoleID == user.CurrentRole.RoleID {
			user.CurrentRole = &user.UserRoles[i]
			return
		}
	}
	user.CurrentRole = nil
}

// Permissions returns the stored permission set, or the empty set.
func (s *SessionStore) Permissions(ctx context.Context) (domain.PermissionSet, error) {
	v, ok, err := s.load(ctx, KeyPermissions)
	if err != nil {
		return domain.PermissionSet{}, err
	}
	if !ok {
		return domain.PermissionSet{}, nil
	}
	var perms domain.PermissionSet
	if err := json.Unmarshal([]byte(v), &perms); err != nil || perms == nil {
		return domain.PermissionSet{}, nil
	}
	return perms, nil
}

// IsAuthenticated returns the stored authenticated flag.
func (s *SessionStore) IsAuthenticated(ctx context.Context) (bool, error) {
	v, _, err := s.load(ctx, KeyIsAuth)
	return v == "true", err
}

// PreferredRoleID returns the role to re-select on the next login.
// A malformed stored value reads as absent.
func (s *SessionStore) PreferredRoleID(ctx context.Context) (domain.RoleID, bool, error) {
	v, ok, err := s.load(ctx, KeyPreferredRole)
	if err != nil || !ok {
		return 0, false, err
	}
	id, perr := domain.ParseRoleID(v)
	if perr != nil {
		return 0, false, nil
	}
	return id, true, nil
}

// RefreshTime returns the refresh hint written by SaveAccessToken.
func (s *SessionStore) RefreshTime(ctx context.Context) (time.Time, bool, error) {
	v, ok, err := s.load(ctx, KeyRefreshTime)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, perr := time.Parse(time.RFC3339Nano, v)
	if perr != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// Preference is a view-preference cache slot cleared on logout.
type Preference Key

const (
	PreferenceChartView  = Preference(KeyChartView)
	PreferenceValidation = Preference(KeyValidation)
)

// SetPreference stores a view preference.
func (s *SessionStore) SetPreference(ctx context.Context, p Preference, value string) error {
	switch p {
	case PreferenceChartView, PreferenceValidation:
	default:
		return fmt.Errorf("unknown preference %q", string(p))
	}
	return s.apply(ctx, "set preference", Batch{Set: map[Key]string{Key(p): value}})
}

// Preference reads a view preference.
func (s *SessionStore) Preference(ctx context.Context, p Preference) (string, bool, error) {
	return s.load(ctx, Key(p))
}

// Clear removes the whole session except the preferred role.
func (s *SessionStore) Clear(ctx context.Context) error {
	return s.apply(ctx, "clear session", Batch{Delete: append([]Key(nil), sessionKeys...)})
}
