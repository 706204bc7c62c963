package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/pimis/internal/platform"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Call the backend with the current session",
}

var apiGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "GET a backend path with the access token",
	Long: `Perform an authenticated GET and print the JSON body.

A 401 answer drops the access token, so the next command asks you to sign in
again; a 403 answer keeps the session.

Examples:
  pimis api get /projects?page=1
  pimis api get users/me --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runAPIGet,
}

func init() {
	apiCmd.AddCommand(apiGetCmd)
	rootCmd.AddCommand(apiCmd)
}

func runAPIGet(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		raw, err := authorizedGet(ctx, a, args[0])
		if err != nil {
			return err
		}
		return writeBody(cmd, a.cmdCtx.Format, raw)
	})
}

// authorizedGet sends the stored access token and funnels a failed status
// through the session manager.
func authorizedGet(ctx context.Context, a *app, path string) (json.RawMessage, error) {
	if err := a.manager.CheckAuth(ctx); err != nil {
		return nil, err
	}
	token, err := a.store.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := a.client.Get(ctx, token, path)
	if err == nil {
		return raw, nil
	}

	var apiErr *platform.APIError
	if stderrors.As(err, &apiErr) {
		if sessionErr := a.manager.CheckError(ctx, apiErr.StatusCode); sessionErr != nil {
			return nil, sessionErr
		}
	}
	return nil, err
}

func writeBody(cmd *cobra.Command, format string, raw json.RawMessage) error {
	out := cmd.OutOrStdout()
	if len(raw) == 0 {
		return nil
	}

	switch format {
	case "yaml":
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("formatting response: %w", err)
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(out)
		return err
	}
}
