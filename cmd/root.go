package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"stagehand/internal/app"
	"stagehand/internal/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates a clean run or a clean shutdown.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a startup failure, a readiness timeout or an
	// invalid configuration.
	ExitCodeError = 1
)

// Flags shared by every command.
var (
	// configPath names an integration-tests.json file. When empty the file
	// is searched below configRoot.
	configPath string
	configRoot string

	// debug enables debug logging.
	debug bool

	// runtimeType selects the container runtime.
	runtimeType string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Boot a disposable OneCX platform for integration tests",
	Long: `stagehand boots a complete platform in containers on one private network:
a Postgres server, a Keycloak identity provider, the enabled backend
services, the shell gateway and the shell UI, plus any custom containers
declared in integration-tests.json.

It waits until every container is healthy, optionally imports fixture data
and tears everything down again on Ctrl+C.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with ExitCodeError on failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "stagehand version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(getExitCode(err))
	}
}

// printError reports a failed command. Configuration errors are followed
// by their dependency, field and suggestions.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		fmt.Fprintf(w, "\n%s\n", cfgErr.DetailedError())
	}
}

func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	return ExitCodeError
}

// newAppConfig maps the shared flags onto an application configuration.
func newAppConfig(timeout time.Duration) *app.Config {
	cfg := app.NewConfig(debug, configPath, configRoot)
	cfg.RuntimeType = runtimeType
	if timeout > 0 {
		cfg.ReadyTimeout = timeout
	}
	return cfg
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to an integration-tests.json file (default: search the working directory)")
	rootCmd.PersistentFlags().StringVar(&configRoot, "config-root", ".", "Directory searched for integration-tests.json when --config is not set")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&runtimeType, "runtime", "docker", "Container runtime (docker)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newUpCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newImagesCmd())
}
