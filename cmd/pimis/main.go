package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/pimis/internal/cmd"
	"github.com/felixgeelhaar/pimis/internal/exitcode"
	"github.com/felixgeelhaar/pimis/internal/security"
	"github.com/felixgeelhaar/pimis/internal/ux"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		if stderrors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
			exitcode.Exit(exitcode.Interrupted)
		}

		fmt.Fprintln(os.Stderr, errorLine(err))
		exitcode.ExitWithError(err)
	}
	exitcode.Exit(exitcode.Success)
}

// errorLine prefixes the message with the kind of failure the exit code
// reports. Backend messages can echo the request, so tokens are redacted.
func errorLine(err error) string {
	kind := exitcode.GetExitCodeDescription(exitcode.DetermineExitCode(err))
	return fmt.Sprintf("Error (%s): %s", kind, security.Redact(ux.EnhanceError(err).Error()))
}
