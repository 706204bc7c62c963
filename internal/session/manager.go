// Package session owns the authenticated identity: tokens, the current role
// and its permissions, and the flows that change them.
package session

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/internal/errors"
	"github.com/felixgeelhaar/pimis/internal/log"
	"github.com/felixgeelhaar/pimis/internal/metrics"
	"github.com/felixgeelhaar/pimis/internal/platform"
	"github.com/felixgeelhaar/pimis/internal/store"
	"github.com/felixgeelhaar/pimis/internal/telemetry"
)

// RefreshHint is how far ahead RefreshToken schedules the next refresh.
const RefreshHint = 2 * time.Minute

// HomePath is where callers navigate after login or a role switch.
const HomePath = "/"

// API is the part of the backend the manager talks to.
type API interface {
	Login(ctx context.Context, username, password string) (*platform.TokenResponse, error)
	SwitchRole(ctx context.Context, accessToken string, roleID domain.RoleID) (*platform.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*platform.TokenResponse, error)
	CurrentUser(ctx context.Context, accessToken string) (*domain.Profile, error)
}

// Result describes a completed login or role switch.
type Result struct {
	// User is nil when the profile could not be fetched.
	User *domain.UserInfo
	// Complete is false when tokens were stored but no user was published.
	Complete bool
	// Redirect is the route to show next.
	Redirect string
	// FullReload asks the caller to rebuild all state derived from the old role.
	FullReload bool
}

// Manager runs the session flows against one SessionStore.
//
// Login and SwitchRole share an identity generation; RefreshToken has its own
// and also remembers the identity generation it started under. A flow writes
// only while both of its generations are still current, so a response that
// arrives after Logout or a newer login is discarded instead of overwriting
// newer state.
type Manager struct {
	api     API
	store   *store.SessionStore
	logger  *log.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu          sync.Mutex
	identityGen uint64
	refreshGen  uint64

	subMu   sync.Mutex
	subs    map[uint64]func(*domain.UserInfo)
	nextSub uint64
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics records flow outcomes
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager
func NewManager(api API, st *store.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		store:  st,
		logger: log.DefaultLogger(),
		now:    time.Now,
		subs:   make(map[uint64]func(*domain.UserInfo)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the session store the manager writes to
func (m *Manager) Store() *store.SessionStore {
	return m.store
}

type ticket struct {
	identity uint64
	refresh  uint64
	flow     string
	// fencedByRefresh is set on refresh tickets only. A refresh never
	// supersedes a login or switch.
	fencedByRefresh bool
}

// beginIdentity starts a login or switch, superseding every earlier flow.
func (m *Manager) beginIdentity(flow string) ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identityGen++
	return ticket{identity: m.identityGen, refresh: m.refreshGen, flow: flow}
}

// beginRefresh starts a refresh, superseding earlier refreshes only.
func (m *Manager) beginRefresh() ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshGen++
	return ticket{identity: m.identityGen, refresh: m.refreshGen, flow: "refresh", fencedByRefresh: true}
}

// commit runs write only if t is still current. The check and the write
// happen under one lock so no newer flow can start in between. Login and
// switch are superseded by a newer login, switch or logout; a refresh is
// also superseded by a newer refresh.
func (m *Manager) commit(ctx context.Context, t ticket, write func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.identity != m.identityGen || (t.fencedByRefresh && t.refresh != m.refreshGen) {
		m.logger.WarnContext(ctx, "discarding stale session response", "flow", t.flow)
		return staleError(t.flow)
	}
	return write()
}

// Subscribe registers fn to receive every published user. fn receives nil
// when the session is cleared or a flow ends without a user.
func (m *Manager) Subscribe(fn func(*domain.UserInfo)) (cancel func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) notify(user *domain.UserInfo) {
	m.subMu.Lock()
	fns := make([]func(*domain.UserInfo), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

func (m *Manager) finish(flow string, start time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.CodeOf(err) == errors.ErrCodeStaleResponse:
		outcome = metrics.OutcomeStale
	case errors.CodeOf(err) == errors.ErrCodeNetworkOrServer, errors.CodeOf(err) == errors.ErrCodeStoreFailed:
		outcome = metrics.OutcomeError
	default:
		outcome = metrics.OutcomeRejected
	}
	m.metrics.RecordFlow(flow, outcome, m.now().Sub(start))
	if err != nil {
		m.metrics.RecordError(string(errors.CodeOf(err)))
	}
}

// Login exchanges credentials for tokens, resolves the current role and
// publishes the user.
func (m *Manager) Login(ctx context.Context, username, password string) (res *Result, err error) {
	ctx, span := telemetry.StartFlowSpan(ctx, "login")
	defer span.End()
	start := m.now()
	defer func() {
		if res != nil && !res.Complete {
			m.metrics.RecordFlow("login", metrics.OutcomeDegraded, m.now().Sub(start))
		} else {
			m.finish("login", start, err)
		}
		telemetry.RecordError(span, err)
	}()

	t := m.beginIdentity("login")

	resp, err := m.api.Login(ctx, username, password)
	if err != nil {
		return nil, classify(err, errors.NewInvalidCredentialsError)
	}

	if resp.PasswordExpired {
		if err := m.commit(ctx, t, func() error { return m.store.MarkPasswordReset(ctx) }); err != nil {
			return nil, err
		}
		m.logger.InfoContext(ctx, "password expired, reset required", "user", username)
		return nil, &PasswordExpiredError{ResetToken: resp.AccessToken}
	}
	if resp.AccessToken == "" {
		return nil, errors.NewInvalidCredentialsError()
	}

	identity, err := DecodeIdentity(resp.AccessToken)
	if err != nil {
		return nil, err
	}

	if err := m.commit(ctx, t, func() error {
		return m.store.SaveTokens(ctx, resp.AccessToken, resp.RefreshToken)
	}); err != nil {
		return nil, err
	}

	preferred, _, err := m.store.PreferredRoleID(ctx)
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, t, resp.AccessToken, identity, preferred, ResolveForLogin, false)
}

// SwitchRole asks the backend to act under roleID and republishes the user.
// Only the role asserted by the new token is accepted.
func (m *Manager) SwitchRole(ctx context.Context, roleID domain.RoleID) (res *Result, err error) {
	ctx, span := telemetry.StartFlowSpan(ctx, "switch_role")
	span.SetAttributes(attribute.Int64("role_id", int64(roleID)))
	defer span.End()
	start := m.now()
	defer func() {
		if res != nil && !res.Complete {
			m.metrics.RecordFlow("switch_role", metrics.OutcomeDegraded, m.now().Sub(start))
		} else {
			m.finish("switch_role", start, err)
		}
		telemetry.RecordError(span, err)
	}()

	if err := roleID.Validate(); err != nil {
		return nil, errors.NewIncorrectRoleError(int64(roleID))
	}

	access, err := m.store.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, errors.NewUnauthorizedError()
	}
	currentRefresh, err := m.store.RefreshToken(ctx)
	if err != nil {
		return nil, err
	}

	t := m.beginIdentity("switch_role")

	resp, err := m.api.SwitchRole(ctx, access, roleID)
	if err != nil {
		return nil, classify(err, func() *errors.AppError { return errors.NewIncorrectRoleError(int64(roleID)) })
	}
	if resp.AccessToken == "" {
		return nil, errors.NewIncorrectRoleError(int64(roleID))
	}

	identity, err := DecodeIdentity(resp.AccessToken)
	if err != nil {
		return nil, err
	}

	refresh := resp.RefreshToken
	if refresh == "" {
		refresh = currentRefresh
	}
	if err := m.commit(ctx, t, func() error {
		return m.store.SaveTokens(ctx, resp.AccessToken, refresh)
	}); err != nil {
		return nil, err
	}

	return m.establish(ctx, t, resp.AccessToken, identity, 0, ResolveForSwitch, true)
}

// establish fetches the profile with the new token, resolves the role and
// publishes the user. Tokens are already stored; the previous user was
// dropped with them, so a failed fetch leaves no permissions behind.
func (m *Manager) establish(ctx context.Context, t ticket, access string, identity domain.Identity,
	preferred domain.RoleID, mode Resolution, fullReload bool) (*Result, error) {
	res := &Result{Redirect: HomePath, FullReload: fullReload}

	profile, err := m.api.CurrentUser(ctx, access)
	if err != nil {
		if serr := m.commit(ctx, t, func() error { return nil }); serr != nil {
			return nil, serr
		}
		m.logger.WithContext(ctx).WithError(err).Warn("profile unavailable, session has no current role", "flow", t.flow)
		m.notify(nil)
		return res, nil
	}
	if verr := profile.Validate(); verr != nil {
		m.logger.WarnContext(ctx, "profile role list is inconsistent", "flow", t.flow, "error", verr.Error())
	}

	current := ResolveRole(identity, profile.UserRoles, preferred, mode)
	info := domain.NewUserInfo(identity, *profile, current)

	if err := m.commit(ctx, t, func() error { return m.store.PublishUser(ctx, info) }); err != nil {
		return nil, err
	}

	roleID := int64(0)
	if info.CurrentRole != nil {
		roleID = int64(info.CurrentRole.RoleID)
	}
	m.logger.InfoContext(ctx, "session established", "flow", t.flow, "user", info.Username, "role_id", roleID)

	m.notify(&info)
	res.User = &info
	res.Complete = true
	return res, nil
}

// Logout clears the session except the preferred role and fences off every
// flow still in flight.
func (m *Manager) Logout(ctx context.Context) error {
	ctx, span := telemetry.StartFlowSpan(ctx, "logout")
	defer span.End()
	start := m.now()

	m.mu.Lock()
	m.identityGen++
	m.refreshGen++
	err := m.store.Clear(ctx)
	m.mu.Unlock()

	m.finish("logout", start, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	m.logger.InfoContext(ctx, "logged out")
	m.notify(nil)
	return nil
}

// CheckError applies the session consequences of an HTTP status seen
// anywhere in the application. 401 drops the access token; 403 keeps it.
func (m *Manager) CheckError(ctx context.Context, status int) error {
	m.metrics.RecordCheckError(status)

	switch status {
	case 401:
		if err := m.store.ClearAccessToken(ctx); err != nil {
			m.logger.WithError(err).WarnContext(ctx, "could not clear access token after 401")
		}
		return errors.NewUnauthorizedError()
	case 403:
		return errors.NewForbiddenError()
	default:
		return nil
	}
}

// CheckAuth succeeds iff an access token is stored. Token freshness is not
// checked here.
func (m *Manager) CheckAuth(ctx context.Context) error {
	token, err := m.store.AccessToken(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return &RedirectError{To: NoAccessPath}
	}
	return nil
}

// GetPermissions returns the stored permission set, empty when none.
func (m *Manager) GetPermissions(ctx context.Context) (domain.PermissionSet, error) {
	return m.store.Permissions(ctx)
}

// CurrentUser returns the published user, or nil.
func (m *Manager) CurrentUser(ctx context.Context) (*domain.UserInfo, error) {
	user, ok, err := m.store.User(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return &user, nil
}

// RefreshToken mints a new access token. The refresh token itself is not
// replaced.
func (m *Manager) RefreshToken(ctx context.Context) (token string, err error) {
	ctx, span := telemetry.StartFlowSpan(ctx, "refresh")
	defer span.End()
	start := m.now()
	defer func() {
		m.finish("refresh", start, err)
		telemetry.RecordError(span, err)
	}()

	refresh, err := m.store.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	if refresh == "" {
		return "", errors.NewRefreshFailedError(errors.New(errors.ErrCodeUnauthorized, "no refresh token stored"))
	}

	t := m.beginRefresh()

	resp, err := m.api.Refresh(ctx, refresh)
	if err != nil {
		return "", errors.NewRefreshFailedError(err)
	}
	if resp.AccessToken == "" {
		return "", errors.NewRefreshFailedError(nil)
	}

	if err := m.commit(ctx, t, func() error {
		return m.store.SaveAccessToken(ctx, resp.AccessToken, m.now().Add(RefreshHint))
	}); err != nil {
		return "", err
	}

	m.logger.DebugContext(ctx, "access token refreshed")
	return resp.AccessToken, nil
}

// RefreshDue reports whether the refresh hint recorded by RefreshToken has passed.
func (m *Manager) RefreshDue(ctx context.Context) (bool, error) {
	at, ok, err := m.store.RefreshTime(ctx)
	if err != nil || !ok {
		return false, err
	}
	return !m.now().Before(at), nil
}

// NeedsRefresh is RefreshDue for the background refresher. A session that
// was never refreshed has no hint yet and counts as due while a refresh
// token is stored.
func (m *Manager) NeedsRefresh(ctx context.Context) (bool, error) {
	at, ok, err := m.store.RefreshTime(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		return !m.now().Before(at), nil
	}
	refresh, err := m.store.RefreshToken(ctx)
	if err != nil {
		return false, err
	}
	return refresh != "", nil
}
