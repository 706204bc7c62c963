package session

import (
	stderrors "errors"
	"net/http"

	"github.com/felixgeelhaar/pimis/internal/errors"
	"github.com/felixgeelhaar/pimis/internal/platform"
)

// NoAccessPath is where unauthenticated callers are sent.
const NoAccessPath = "/no-access"

// PasswordExpiredError is the expected outcome of logging in with an
// expired password. ResetToken authorizes the password-reset call.
type PasswordExpiredError struct {
	ResetToken string
}

func (e *PasswordExpiredError) Error() string {
	return "password expired: a password reset is required"
}

func (e *PasswordExpiredError) Unwrap() error {
	return errors.ErrPasswordExpired
}

// RedirectError rejects CheckAuth and names where the caller should go.
type RedirectError struct {
	To string
}

func (e *RedirectError) Error() string {
	return "not authenticated: redirect to " + e.To
}

func (e *RedirectError) Unwrap() error {
	return errors.ErrUnauthorized
}

// classify maps a backend failure onto the error taxonomy. onUnauthorized
// builds the error for a 401, which means different things per endpoint.
func classify(err error, onUnauthorized func() *errors.AppError) error {
	var apiErr *platform.APIError
	if !stderrors.As(err, &apiErr) {
		return err
	}
	if apiErr.StatusCode == http.StatusUnauthorized && onUnauthorized != nil {
		appErr := onUnauthorized()
		appErr.Cause = apiErr
		return appErr
	}
	return errors.Wrap(errors.ErrCodeNetworkOrServer, "backend rejected the request", apiErr)
}

func staleError(flow string) error {
	return errors.New(errors.ErrCodeStaleResponse, flow+" response superseded by a newer session change")
}
