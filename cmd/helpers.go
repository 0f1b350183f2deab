package cmd

import (
	"fmt"
	"io"
	"strings"

	"stagehand/internal/config"
	"stagehand/pkg/logging"
)

// newLogger creates the logger used by the short-lived commands.
func newLogger(w io.Writer) *logging.Logger {
	level := logging.LevelWarn
	if debug {
		level = logging.LevelDebug
	}
	return logging.New(level, w)
}

// loadConfig returns the effective platform configuration and where it came
// from. An explicitly named file must be valid; a searched file that is
// invalid is ignored in favour of the defaults.
func loadConfig(logger *logging.Logger) (config.PlatformConfig, string, error) {
	validator, err := config.NewValidator(logger)
	if err != nil {
		return config.PlatformConfig{}, "", err
	}

	if configPath != "" {
		result := validator.ValidateFile(configPath)
		if !result.Valid {
			return config.PlatformConfig{}, "", fmt.Errorf("invalid configuration %s: %s", configPath, strings.Join(result.Errors, "; "))
		}
		return *result.Config, configPath, nil
	}

	result := validator.Load(configRoot)
	if result.Valid {
		return *result.Config, result.Path, nil
	}
	if result.Path != "" {
		logger.Warn("CLI", "Ignoring invalid configuration %s, using defaults: %v", result.Path, result.Errors)
	}
	return config.Default(), "defaults", nil
}
