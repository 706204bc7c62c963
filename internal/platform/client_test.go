package platform

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/internal/errors"
	"github.com/felixgeelhaar/pimis/internal/log"
	"github.com/felixgeelhaar/pimis/internal/metrics"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	_, m := metrics.NewRegistry()
	return NewClient(srv.URL+"/", WithLogger(log.Discard()), WithMetrics(m)), m
}

func TestClient_Login(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Username)
		assert.Equal(t, "secret", req.Password)

		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "a", "refresh_token": "r"})
	})

	resp, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a", resp.AccessToken)
	assert.Equal(t, "r", resp.RefreshToken)
	assert.False(t, resp.PasswordExpired)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BackendRequests.WithLabelValues("/auth/login", "2xx")))
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"message field", `{"message":"Incorrect role"}`, "Incorrect role"},
		{"msg field", `{"msg":"Token has expired"}`, "Token has expired"},
		{"plain body", `nope`, "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.SwitchRole(context.Background(), "tok", 3)
			var apiErr *APIError
			require.True(t, stderrors.As(err, &apiErr))
			assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
			assert.Equal(t, "/auth/switch", apiErr.Path)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestClient_SwitchAndRefreshSendBearer(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/switch":
			assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(4), body["role_id"])
		case "/auth/refresh":
			assert.Equal(t, "Bearer refresh", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"access_token":"new"}`))
	})

	resp, err := c.SwitchRole(context.Background(), "access", domain.RoleID(4))
	require.NoError(t, err)
	assert.Equal(t, "new", resp.AccessToken)

	resp, err = c.Refresh(context.Background(), "refresh")
	require.NoError(t, err)
	assert.Equal(t, "new", resp.AccessToken)
}

func TestClient_CurrentUser(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": 1, "username": "alice", "full_name": "Alice A",
			"organization": {"id": 2, "code": "MOF", "name": "Finance"},
			"user_roles": [
				{"id": 10, "role_id": 3, "role": {"id": 3, "name": "Admin", "permissions": ["list_projects"]}},
				{"id": 11, "role_id": 4, "role": {"id": 4, "name": "Guest", "permissions": null}}
			]
		}`))
	})

	p, err := c.CurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	require.Len(t, p.UserRoles, 2)
	assert.True(t, p.UserRoles[0].Role.Permissions.Has("list_projects"))
	assert.Equal(t, 0, p.UserRoles[1].Role.Permissions.Len())
	assert.Equal(t, "MOF", p.Organization.Code)
}

func TestClient_Get(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		assert.Equal(t, "/projects", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1}]`))
	})

	raw, err := c.Get(context.Background(), "tok", "projects")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(raw))

	raw, err = c.Get(context.Background(), "tok", "/empty")
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, WithLogger(log.Discard()))
	_, err := c.Login(context.Background(), "a", "b")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNetworkOrServer))

	var apiErr *APIError
	assert.False(t, stderrors.As(err, &apiErr))
}

func TestClient_MalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":`))
	})
	_, err := c.Login(context.Background(), "a", "b")
	assert.True(t, stderrors.Is(err, errors.ErrNetworkOrServer))
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", WithTimeout(0))
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.NotZero(t, c.HTTPClient.Timeout)
}

func TestClient_Ping(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})
	code, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, code)

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err = NewClient(url, WithLogger(log.Discard())).Ping(context.Background())
	assert.True(t, stderrors.Is(err, errors.ErrNetworkOrServer))
}
