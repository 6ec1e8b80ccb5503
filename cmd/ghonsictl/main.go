// Command ghonsictl submits and inspects Ghonsi proofs on Solana.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"ghonsi-proof/internal/config"
	"ghonsi-proof/internal/observability/logging"

	"github.com/spf13/cobra"
)

// exitError ends the process with code after the command printed its own output.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintf(stderr, "\nFatal Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "ghonsictl",
		Short:         "Submit and inspect Ghonsi proofs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(
		newSubmitCmd(),
		newProofsCmd(),
		newStatusCmd(),
		newAPISubmitCmd(),
	)
	return root
}

// loadConfig reads the environment and routes library logs to stderr.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	slog.SetDefault(logging.NewLogger(logging.Config{
		ServiceName: "ghonsictl",
		Environment: cfg.Environment,
		Level:       "warn",
		Output:      cmd.ErrOrStderr(),
	}))
	return cfg
}
