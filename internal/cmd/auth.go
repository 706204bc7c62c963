package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/internal/errors"
	"github.com/felixgeelhaar/pimis/internal/session"
	"github.com/felixgeelhaar/pimis/internal/tui"
	"github.com/felixgeelhaar/pimis/internal/ux"
)

// EnvPassword supplies the login password without a prompt
const EnvPassword = "PIMIS_PASSWORD"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in, switch role and inspect the session",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with username and password",
	Long: `Sign in and select a role. The role asserted by the token wins, then the
role used last time, then the first assigned role.

The password is read from --password, then $PIMIS_PASSWORD, then a prompt.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session (the last role is remembered)",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signed-in user and current role",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authSwitchCmd = &cobra.Command{
	Use:   "switch [role-id]",
	Short: "Switch to another assigned role",
	Long:  `Switch the current role. Without a role id you are asked to pick one.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthSwitch,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Mint a new access token from the refresh token",
	Args:  cobra.NoArgs,
	RunE:  runAuthRefresh,
}

var authPermissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "List the permissions of the current role",
	Args:  cobra.NoArgs,
	RunE:  runAuthPermissions,
}

func init() {
	authLoginCmd.Flags().StringP("username", "u", "", "username")
	authLoginCmd.Flags().StringP("password", "p", "", "password (prefer $PIMIS_PASSWORD or the prompt)")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authSwitchCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authPermissionsCmd)

	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv(EnvPassword)
	}

	if strings.TrimSpace(username) == "" || password == "" {
		if !tui.ShouldPrompt() {
			return fmt.Errorf("missing argument: --username and a password are required when not running interactively")
		}
		creds, err := tui.PromptForCredentials(username)
		if err != nil {
			return err
		}
		username, password = creds.Username, creds.Password
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		res, err := a.manager.Login(ctx, username, password)
		var expired *session.PasswordExpiredError
		if stderrors.As(err, &expired) {
			return ux.NewErrorWithSuggestion(err, "Reset the password in the web client, then sign in again")
		}
		if err != nil {
			return err
		}
		if !res.Complete {
			a.logger.Warn("signed in, but the user profile could not be loaded; no role is active")
		}
		return a.render(cmd.OutOrStdout(), newResultView("Signed in", res))
	})
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.manager.Logout(ctx); err != nil {
			return err
		}
		return a.render(cmd.OutOrStdout(), "✓ Signed out")
	})
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		view, err := loadStatus(ctx, a)
		if err != nil {
			return err
		}
		return a.render(cmd.OutOrStdout(), view)
	})
}

func runAuthSwitch(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		user, err := a.manager.CurrentUser(ctx)
		if err != nil {
			return err
		}
		if user == nil {
			return errors.NewUnauthorizedError().WithSuggestion("Run 'pimis auth login' first")
		}

		var roleID domain.RoleID
		if len(args) == 1 {
			roleID, err = domain.ParseRoleID(args[0])
			if err != nil {
				return fmt.Errorf("invalid role id %q: %w", args[0], err)
			}
		} else {
			if !tui.ShouldPrompt() {
				return fmt.Errorf("missing argument: role-id is required when not running interactively")
			}
			roleID, err = tui.PromptForRole(user.UserRoles, currentRoleID(user))
			if err != nil {
				return err
			}
		}

		res, err := a.manager.SwitchRole(ctx, roleID)
		if err != nil {
			return err
		}
		return a.render(cmd.OutOrStdout(), newResultView("Switched role", res))
	})
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if _, err := a.manager.RefreshToken(ctx); err != nil {
			return err
		}
		next, _, err := a.store.RefreshTime(ctx)
		if err != nil {
			return err
		}
		return a.render(cmd.OutOrStdout(), refreshView{Refreshed: true, NextRefresh: next})
	})
}

func runAuthPermissions(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		perms, err := a.manager.GetPermissions(ctx)
		if err != nil {
			return err
		}
		names := make([]string, 0, perms.Len())
		for _, p := range perms.Names() {
			names = append(names, string(p))
		}
		return a.render(cmd.OutOrStdout(), names)
	})
}

func currentRoleID(u *domain.UserInfo) domain.RoleID {
	if u == nil || u.CurrentRole == nil {
		return 0
	}
	return u.CurrentRole.RoleID
}

// roleView is a role assignment as shown to the user
type roleView struct {
	ID          domain.RoleID `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Permissions int           `json:"permissions" yaml:"permissions"`
	Current     bool          `json:"current" yaml:"current"`
}

// userView flattens UserInfo for output
type userView struct {
	ID           string     `json:"id" yaml:"id"`
	Username     string     `json:"username" yaml:"username"`
	Name         string     `json:"name" yaml:"name"`
	Email        string     `json:"email,omitempty" yaml:"email,omitempty"`
	Organization string     `json:"organization,omitempty" yaml:"organization,omitempty"`
	Roles        []roleView `json:"roles" yaml:"roles"`
}

func newUserView(u *domain.UserInfo) *userView {
	if u == nil {
		return nil
	}
	v := &userView{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.DisplayName(),
		Email:    u.Email,
		Roles:    make([]roleView, len(u.UserRoles)),
	}
	if u.Organization != nil {
		v.Organization = u.Organization.Name
	}
	current := currentRoleID(u)
	for i, r := range u.UserRoles {
		v.Roles[i] = roleView{
			ID:          r.RoleID,
			Name:        r.Role.Name,
			Permissions: r.Role.Permissions.Len(),
			Current:     current != 0 && r.RoleID == current,
		}
	}
	return v
}

func (v *userView) currentRole() *roleView {
	for i := range v.Roles {
		if v.Roles[i].Current {
			return &v.Roles[i]
		}
	}
	return nil
}

func (v *userView) renderText(w io.Writer) {
	fmt.Fprintf(w, "User:     %s (%s)\n", v.Name, v.Username)
	if v.Organization != "" {
		fmt.Fprintf(w, "Org:      %s\n", v.Organization)
	}
	if r := v.currentRole(); r != nil {
		fmt.Fprintf(w, "Role:     %s [%d] with %d permissions\n", r.Name, r.ID, r.Permissions)
	} else {
		fmt.Fprintln(w, "Role:     none")
	}
	if len(v.Roles) > 1 {
		fmt.Fprintln(w, "Roles:")
		for _, r := range v.Roles {
			marker := " "
			if r.Current {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %d %s\n", marker, r.ID, r.Name)
		}
	}
}

// resultView reports a login or role switch
type resultView struct {
	heading    string
	User       *userView `json:"user" yaml:"user"`
	Complete   bool      `json:"complete" yaml:"complete"`
	Redirect   string    `json:"redirect" yaml:"redirect"`
	FullReload bool      `json:"full_reload" yaml:"full_reload"`
}

func newResultView(heading string, res *session.Result) resultView {
	return resultView{
		heading:    heading,
		User:       newUserView(res.User),
		Complete:   res.Complete,
		Redirect:   res.Redirect,
		FullReload: res.FullReload,
	}
}

func (v resultView) RenderText(w io.Writer) error {
	if v.User == nil {
		fmt.Fprintf(w, "✓ %s, but no user profile is available\n", v.heading)
		return nil
	}
	fmt.Fprintf(w, "✓ %s\n\n", v.heading)
	v.User.renderText(w)
	return nil
}

// statusView is the output of auth status
type statusView struct {
	Authenticated        bool      `json:"authenticated" yaml:"authenticated"`
	User                 *userView `json:"user,omitempty" yaml:"user,omitempty"`
	Permissions          int       `json:"permissions" yaml:"permissions"`
	PreferredRole        int64     `json:"preferred_role,omitempty" yaml:"preferred_role,omitempty"`
	RefreshDue           bool      `json:"refresh_due" yaml:"refresh_due"`
	PasswordResetPending bool      `json:"password_reset_pending,omitempty" yaml:"password_reset_pending,omitempty"`
	Variant              string    `json:"variant" yaml:"variant"`
	Store                string    `json:"store" yaml:"store"`
}

func loadStatus(ctx context.Context, a *app) (statusView, error) {
	view := statusView{Variant: string(a.variant()), Store: a.cfg.Store.Driver}

	authErr := a.manager.CheckAuth(ctx)
	var redirect *session.RedirectError
	switch {
	case authErr == nil:
		view.Authenticated = true
	case stderrors.As(authErr, &redirect):
	default:
		return view, authErr
	}

	user, err := a.manager.CurrentUser(ctx)
	if err != nil {
		return view, err
	}
	view.User = newUserView(user)

	perms, err := a.manager.GetPermissions(ctx)
	if err != nil {
		return view, err
	}
	view.Permissions = perms.Len()

	if id, ok, err := a.store.PreferredRoleID(ctx); err != nil {
		return view, err
	} else if ok {
		view.PreferredRole = int64(id)
	}

	if view.RefreshDue, err = a.manager.RefreshDue(ctx); err != nil {
		return view, err
	}
	if view.PasswordResetPending, err = a.store.PasswordResetPending(ctx); err != nil {
		return view, err
	}
	return view, nil
}

func (v statusView) RenderText(w io.Writer) error {
	if !v.Authenticated {
		fmt.Fprintln(w, "Not signed in")
		if v.PasswordResetPending {
			fmt.Fprintln(w, "A password reset is pending")
		}
		if v.PreferredRole != 0 {
			fmt.Fprintf(w, "Last role: %d\n", v.PreferredRole)
		}
		return nil
	}

	fmt.Fprintf(w, "Signed in (%s, %s store)\n\n", v.Variant, v.Store)
	if v.User != nil {
		v.User.renderText(w)
	} else {
		fmt.Fprintln(w, "No user profile is loaded")
	}
	fmt.Fprintf(w, "\nPermissions: %d\n", v.Permissions)
	if v.RefreshDue {
		fmt.Fprintln(w, "Access token refresh is due: run 'pimis auth refresh'")
	}
	return nil
}

// refreshView is the output of auth refresh. The token itself is never printed.
type refreshView struct {
	Refreshed   bool      `json:"refreshed" yaml:"refreshed"`
	NextRefresh time.Time `json:"next_refresh" yaml:"next_refresh"`
}

func (v refreshView) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "✓ Access token refreshed (next refresh after %s)\n", v.NextRefresh.Local().Format(time.Kitchen))
	return nil
}
