package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pimis",
	Short: "Session and navigation client for the public investment platform",
	Long: `pimis signs in to an IBP/PIMIS backend, keeps the session (tokens, current
role and its permissions) in a local or shared store, and shows the
navigation menu the current role is allowed to see.

Examples:
  # Sign in, prompting for credentials
  pimis auth login

  # Show the menu for the current role, marking the active route
  pimis nav tree --route '#/projects/12'

  # Browse the menu interactively
  pimis nav browse`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to every RunE
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("home", "", "directory holding config and session files (default $PIMIS_HOME or ~/.pimis)")
	flags.String("api-url", "", "backend base url (overrides api.url)")
	flags.String("variant", "", "deployment variant: ug, mzb or jm (overrides app.variant)")
	flags.StringP("format", "f", "text", "output format: text, json or yaml")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")
}
