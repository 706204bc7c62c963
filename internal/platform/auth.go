package platform

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/pimis/internal/domain"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SwitchRequest asks the backend to re-issue tokens under another role.
type SwitchRequest struct {
	RoleID domain.RoleID `json:"role_id"`
}

// TokenResponse is returned by login, switch and refresh.
type TokenResponse struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	PasswordExpired bool   `json:"password_expired"`
}

// Login exchanges credentials for tokens.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.call(ctx, http.MethodPost, "/auth/login", "", LoginRequest{Username: username, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SwitchRole asks for tokens that assert roleID as the current role.
func (c *Client) SwitchRole(ctx context.Context, accessToken string, roleID domain.RoleID) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.call(ctx, http.MethodPost, "/auth/switch", accessToken, SwitchRequest{RoleID: roleID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh mints a new access token using the refresh token as bearer.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.call(ctx, http.MethodPost, "/auth/refresh", refreshToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser fetches the profile and role assignments of the token's user.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*domain.Profile, error) {
	var out domain.Profile
	if err := c.call(ctx, http.MethodGet, "/users/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
