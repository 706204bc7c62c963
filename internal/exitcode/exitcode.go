package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/pimis/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// PermissionDenied indicates the action is not allowed under the current role
	PermissionDenied = 3

	// StoreError indicates the session store could not be read or written
	StoreError = 4

	// AuthError indicates an authentication failure
	AuthError = 5

	// NetworkError indicates a network connectivity issue or backend failure
	NetworkError = 6

	// ConfigError indicates invalid configuration
	ConfigError = 7

	// Interrupted indicates the user cancelled with SIGINT or SIGTERM
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Coded application errors are mapped by code; anything else falls back to
// inspecting the message.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		if code, ok := fromCode(appErr.Code); ok {
			return code
		}
	}

	errMsg := strings.ToLower(err.Error())

	// Authorization errors
	if strings.Contains(errMsg, "forbidden") || strings.Contains(errMsg, "not permitted") {
		return PermissionDenied
	}

	// Authentication errors
	if strings.Contains(errMsg, "authentication") || strings.Contains(errMsg, "unauthorized") {
		return AuthError
	}
	if strings.Contains(errMsg, "credentials") || strings.Contains(errMsg, "token") {
		return AuthError
	}

	// Network errors
	if strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "missing argument") {
		return UsageError
	}
	if strings.Contains(errMsg, "accepts") && strings.Contains(errMsg, "arg") {
		return UsageError
	}

	// Default to general error
	return GeneralError
}

func fromCode(code errors.ErrorCode) (int, bool) {
	switch code {
	case errors.ErrCodeInvalidCredentials,
		errors.ErrCodePasswordExpired,
		errors.ErrCodeIncorrectRole,
		errors.ErrCodeRefreshFailed,
		errors.ErrCodeUnauthorized,
		errors.ErrCodeTokenMalformed,
		errors.ErrCodeStaleResponse:
		return AuthError, true
	case errors.ErrCodeForbidden:
		return PermissionDenied, true
	case errors.ErrCodeNetworkOrServer:
		return NetworkError, true
	case errors.ErrCodeStoreFailed:
		return StoreError, true
	case errors.ErrCodeConfigInvalid:
		return ConfigError, true
	case errors.ErrCodeUnknownMenuNode:
		return UsageError, true
	default:
		return 0, false
	}
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case PermissionDenied:
		return "Not permitted under the current role"
	case StoreError:
		return "Session store error"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case ConfigError:
		return "Configuration error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
