package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pimis/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the backend, the session store and the session",
	Long: `Run diagnostics for the current configuration.

Checks include:
  • Backend API reachability
  • Session store readability (file, memory or redis)
  • Whether someone is signed in and the token is fresh

The command fails only when a check is unhealthy; a signed-out session is
reported as degraded.

Examples:
  pimis doctor
  pimis doctor --format json`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		report := newDoctor(a).Check(ctx)
		if err := a.render(cmd.OutOrStdout(), doctorView{report}); err != nil {
			return err
		}
		if report.Status == health.StatusUnhealthy {
			return fmt.Errorf("health check failed")
		}
		return nil
	})
}

func newDoctor(a *app) *health.Manager {
	manager := health.NewManager()
	manager.AddChecker(health.NewBackendChecker(a.client, a.cfg.API.URL))
	manager.AddChecker(health.NewStoreChecker(a.backend, a.cfg.Store.Driver))
	manager.AddChecker(health.NewSessionChecker(a.manager))
	return manager
}

type doctorView struct {
	health.Report `yaml:",inline"`
}

func (v doctorView) RenderText(w io.Writer) error {
	var steps []string
	for _, c := range v.Checks {
		icon := " "
		switch c.Status {
		case health.StatusHealthy:
			icon = "✓"
		case health.StatusDegraded:
			icon = "⚠"
		case health.StatusUnhealthy:
			icon = "✗"
		}
		fmt.Fprintf(w, "  %s %s: %s\n", icon, c.Name, c.Message)
		if s, ok := c.Details["suggestion"].(string); ok {
			steps = append(steps, s)
		}
	}

	if len(steps) > 0 {
		fmt.Fprintln(w, "\nNext steps:")
		for i, s := range steps {
			fmt.Fprintf(w, "   %d. %s\n", i+1, s)
		}
	}

	fmt.Fprintln(w)
	switch v.Status {
	case health.StatusHealthy:
		fmt.Fprintln(w, "Ready.")
	case health.StatusDegraded:
		fmt.Fprintln(w, "Usable, with warnings.")
	default:
		fmt.Fprintln(w, "Not usable until the failing checks are fixed.")
	}
	return nil
}
