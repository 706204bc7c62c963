package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/pimis/internal/domain"
)

// Credentials are a username and password entered at the login prompt
type Credentials struct {
	Username string
	Password string
}

// PromptForCredentials asks for a username (pre-filled with username) and a
// masked password.
func PromptForCredentials(username string) (Credentials, error) {
	creds := Credentials{Username: username}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Username").
			Value(&creds.Username).
			Validate(required("username")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&creds.Password).
			Validate(required("password")),
	))

	if err := form.Run(); err != nil {
		return Credentials{}, fmt.Errorf("prompt failed: %w", err)
	}
	creds.Username = strings.TrimSpace(creds.Username)
	return creds, nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// RoleOptions builds one option per assigned role, labelled with the role
// name and marking the current one.
func RoleOptions(roles []domain.UserRole, current domain.RoleID) []huh.Option[int64] {
	opts := make([]huh.Option[int64], len(roles))
	for i, r := range roles {
		label := r.Role.Name
		if label == "" {
			label = r.RoleID.String()
		}
		if r.RoleID == current {
			label += " (current)"
		}
		opts[i] = huh.NewOption(label, int64(r.RoleID)).Selected(r.RoleID == current)
	}
	return opts
}

// PromptForRole asks the user to pick one of their roles
func PromptForRole(roles []domain.UserRole, current domain.RoleID) (domain.RoleID, error) {
	if len(roles) == 0 {
		return 0, fmt.Errorf("no roles assigned")
	}

	selected := int64(current)
	field := huh.NewSelect[int64]().
		Title("Switch role").
		Options(RoleOptions(roles, current)...).
		Value(&selected)

	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return 0, fmt.Errorf("prompt failed: %w", err)
	}
	return domain.RoleID(selected), nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	// Check common CI environment variables
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
