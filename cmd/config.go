package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stagehand/internal/formatting"
)

// newConfigCmd creates the command that prints the effective configuration.
func newConfigCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective platform configuration",
		Long: `Prints the configuration stagehand up would use: the file named by
--config, otherwise the first valid file below --config-root, otherwise the
compiled-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseFormat(output)
			if err != nil {
				return err
			}

			cfg, source, err := loadConfig(newLogger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			if format == formatting.FormatTable {
				fmt.Fprintf(cmd.OutOrStdout(), "Source: %s\n", source)
			}
			return formatting.NewFormatter(formatting.Options{Format: format}, cmd.OutOrStdout()).FormatConfig(cfg)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format (table|json|yaml)")
	return cmd
}
