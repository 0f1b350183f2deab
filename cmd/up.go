package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stagehand/internal/app"
	"stagehand/internal/formatting"
)

// newUpCmd creates the command that boots the platform and keeps it running
// until interrupted.
func newUpCmd() *cobra.Command {
	var (
		timeout  time.Duration
		interval time.Duration
		once     bool
		silent   bool
		output   string
	)

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the platform and keep it running until Ctrl+C",
		Long: `Starts every enabled container, waits until all of them report healthy
and prints a health report. The platform keeps running until SIGINT,
SIGTERM or SIGHUP, then every container and the network are removed.

Exit codes:
  0  clean shutdown
  1  startup failure or readiness timeout (the platform is torn down first)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseFormat(output)
			if err != nil {
				return err
			}

			cfg := newAppConfig(timeout)
			cfg.ReadyInterval = interval
			cfg.Once = once
			cfg.Silent = silent
			cfg.Format = format
			cfg.Output = cmd.OutOrStdout()

			application, err := app.NewApplication(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", app.DefaultReadyTimeout, "How long to wait for every container to become healthy")
	cmd.Flags().DurationVar(&interval, "interval", app.DefaultReadyInterval, "Health polling interval while waiting")
	cmd.Flags().BoolVar(&once, "once", false, "Stop the platform right after the health report")
	cmd.Flags().BoolVar(&silent, "silent", false, "Suppress log output")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Health report format (table|json|yaml)")
	return cmd
}
