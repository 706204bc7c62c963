package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeInvalidCredentials ErrorCode = "AUTH-001"
	ErrCodePasswordExpired    ErrorCode = "AUTH-002"
	ErrCodeIncorrectRole      ErrorCode = "AUTH-003"
	ErrCodeRefreshFailed      ErrorCode = "AUTH-004"
	ErrCodeUnauthorized       ErrorCode = "AUTH-005"
	ErrCodeForbidden          ErrorCode = "AUTH-006"
	ErrCodeTokenMalformed     ErrorCode = "AUTH-007"
	ErrCodeStaleResponse      ErrorCode = "AUTH-008"

	// Transport errors (NET-001 to NET-099)
	ErrCodeNetworkOrServer ErrorCode = "NET-001"

	// Configuration errors (CFG-001 to CFG-099)
	ErrCodeConfigInvalid ErrorCode = "CFG-001"

	// Session storage errors (STORE-001 to STORE-099)
	ErrCodeStoreFailed ErrorCode = "STORE-001"

	// Navigation errors (NAV-001 to NAV-099)
	ErrCodeUnknownMenuNode ErrorCode = "NAV-001"
)

// Sentinels for errors.Is checks. An *AppError matches a sentinel when the codes are equal.
var (
	ErrInvalidCredentials = New(ErrCodeInvalidCredentials, "incorrect username and password")
	ErrPasswordExpired    = New(ErrCodePasswordExpired, "password expired")
	ErrIncorrectRole      = New(ErrCodeIncorrectRole, "incorrect role identity")
	ErrRefreshFailed      = New(ErrCodeRefreshFailed, "token refresh failed")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "not authenticated")
	ErrForbidden          = New(ErrCodeForbidden, "not permitted under the current role")
	ErrTokenMalformed     = New(ErrCodeTokenMalformed, "access token payload cannot be decoded")
	ErrStaleResponse      = New(ErrCodeStaleResponse, "response superseded by a newer request")
	ErrNetworkOrServer    = New(ErrCodeNetworkOrServer, "backend request failed")
	ErrStoreFailed        = New(ErrCodeStoreFailed, "session storage failed")
	ErrUnknownMenuNode    = New(ErrCodeUnknownMenuNode, "unknown menu entry")
)

// AppError represents an enhanced error with code and suggestions
type AppError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Common error constructors for frequently used errors

// NewInvalidCredentialsError creates a login rejection error
func NewInvalidCredentialsError() *AppError {
	return New(ErrCodeInvalidCredentials, "incorrect username and password").
		WithSuggestion("Check the username and password and try again").
		WithSuggestion("Contact your administrator if your account is blocked")
}

// NewIncorrectRoleError creates a role-switch rejection error
func NewIncorrectRoleError(roleID int64) *AppError {
	return New(ErrCodeIncorrectRole, fmt.Sprintf("incorrect role identity: %d", roleID)).
		WithSuggestion("Run 'pimis auth status' to list the roles assigned to you")
}

// NewRefreshFailedError creates a refresh failure error
func NewRefreshFailedError(cause error) *AppError {
	return Wrap(ErrCodeRefreshFailed, "token refresh failed", cause).
		WithSuggestion("Run 'pimis auth login' to start a new session")
}

// NewUnauthorizedError creates a 401 error
func NewUnauthorizedError() *AppError {
	return New(ErrCodeUnauthorized, "session is not authenticated").
		WithSuggestion("Run 'pimis auth login' to authenticate")
}

// NewForbiddenError creates a 403 error
func NewForbiddenError() *AppError {
	return New(ErrCodeForbidden, "action not permitted under the current role").
		WithSuggestion("Run 'pimis auth switch' to act under another role")
}

// NewHTTPError creates an error for a non-2xx backend response that has no dedicated code
func NewHTTPError(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}
	return New(ErrCodeNetworkOrServer, fmt.Sprintf("backend returned %d: %s", status, message))
}

// NewStoreError wraps a backend storage failure
func NewStoreError(op string, cause error) *AppError {
	return Wrap(ErrCodeStoreFailed, fmt.Sprintf("session store %s failed", op), cause).
		WithSuggestion("Check the store settings with 'pimis config view'")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'pimis config path' to locate the configuration file").
		WithSuggestion("Run 'pimis config view' to inspect the current values")
}

// NewUnknownMenuNodeError creates an error for a menu key that is not in the authorized tree
func NewUnknownMenuNodeError(key string) *AppError {
	return New(ErrCodeUnknownMenuNode, fmt.Sprintf("no menu entry %q", key)).
		WithSuggestion("Run 'pimis nav tree' to list the entries available to your role")
}
