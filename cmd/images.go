package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"stagehand/internal/containerizer"
	"stagehand/internal/formatting"
	"stagehand/internal/images"
	"stagehand/internal/platform"
)

// newImagesCmd creates the command that lists the image of every container
// the effective configuration starts.
func newImagesCmd() *cobra.Command {
	var (
		output        string
		verify        bool
		verifyTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "images",
		Short: "List the images the platform will run",
		Long: `Lists the default image, the configured override and the image that
will actually run for every container of the effective configuration.

With --verify every image is pulled (or found locally) through the container
runtime. Overrides that fail verification fall back to the default, exactly
as stagehand up does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseFormat(output)
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr())
			cfg, _, err := loadConfig(logger)
			if err != nil {
				return err
			}

			var verifier images.Verifier
			if verify {
				runtime, err := containerizer.NewRuntime(runtimeType, logger)
				if err != nil {
					return fmt.Errorf("failed to create container runtime: %w", err)
				}
				verifier = images.NewRuntimeVerifier(runtime, verifyTimeout, logger)
			}
			resolver := images.NewResolver(nil, verifier, logger)

			quiet := format != formatting.FormatTable || !verify
			progress := formatting.StartProgress(cmd.ErrOrStderr(), "Verifying images...", quiet)
			names, overrides := platform.ImageRequests(cfg)
			resolved, err := resolver.ResolveAll(cmd.Context(), names, overrides)
			if err != nil {
				progress.Fail("Some images could not be resolved")
				logger.Warn("CLI", "Some images could not be resolved: %v", err)
			} else {
				progress.Done("Images resolved")
			}

			var rows []formatting.ImageRow
			seen := make(map[string]bool)
			for _, name := range names {
				if seen[name] {
					continue
				}
				seen[name] = true
				def, _ := resolver.Default(name)
				rows = append(rows, formatting.ImageRow{
					Name:     name,
					Default:  def,
					Override: overrides[name],
					Resolved: resolved[name],
				})
			}

			return formatting.NewFormatter(formatting.Options{
				Format: format,
				Color:  cmd.OutOrStdout() == os.Stdout,
			}, cmd.OutOrStdout()).FormatImages(rows)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table|json|yaml)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Pull or look up every image through the container runtime")
	cmd.Flags().DurationVar(&verifyTimeout, "verify-timeout", images.DefaultVerifyTimeout, "Timeout of one image verification")
	return cmd
}
