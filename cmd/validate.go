package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stagehand/internal/config"
)

// newValidateCmd creates the command that checks a configuration file
// against the schema and the semantic rules without starting anything.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate an integration-tests.json file",
		Long: `Validates a configuration file against the embedded JSON schema and the
semantic rules (known services, satisfiable dependencies, unique custom
aliases). Without an argument the file named by --config is checked, or
the first file found below --config-root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr())
			validator, err := config.NewValidator(logger)
			if err != nil {
				return err
			}

			var result config.ValidationResult
			switch {
			case len(args) == 1:
				result = validator.ValidateFile(args[0])
			case configPath != "":
				result = validator.ValidateFile(configPath)
			default:
				result = validator.Load(configRoot)
			}

			out := cmd.OutOrStdout()
			if result.Valid {
				fmt.Fprintf(out, "✓ %s is valid\n", result.Path)
				return nil
			}

			name := result.Path
			if name == "" {
				name = "configuration"
			}
			fmt.Fprintf(out, "✗ %s is invalid:\n", name)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  - %s\n", e)
			}
			return fmt.Errorf("%s is invalid", name)
		},
	}
}
