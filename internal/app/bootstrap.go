package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"stagehand/internal/config"
	"stagehand/internal/containerizer"
	"stagehand/internal/formatting"
	"stagehand/internal/platform"
	"stagehand/pkg/logging"
)

// Application wires the logger, the container runtime and the platform
// manager for one CLI run.
//
// Example usage:
//
//	cfg := app.NewConfig(false, "", ".")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config         *Config
	logger         *logging.Logger
	manager        *platform.Manager
	platformConfig *config.PlatformConfig
	formatter      formatting.Formatter

	stopOnce sync.Once
	stopErr  error
}

// NewApplication creates the logger, loads an explicitly named
// configuration file, connects the container runtime and creates the
// platform manager.
//
// An explicitly named file must be valid. A searched file that is invalid
// is ignored with a warning when the platform starts.
func NewApplication(cfg *Config) (*Application, error) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	if cfg.Silent {
		logOutput = io.Discard
	}
	logger := logging.New(level, logOutput)

	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.ReadyInterval <= 0 {
		cfg.ReadyInterval = DefaultReadyInterval
	}

	validator, err := config.NewValidator(logger)
	if err != nil {
		return nil, err
	}

	var explicit *config.PlatformConfig
	if cfg.ConfigPath != "" {
		result := validator.ValidateFile(cfg.ConfigPath)
		if !result.Valid {
			logger.Error("Bootstrap", nil, "Configuration %s is invalid", cfg.ConfigPath)
			return nil, fmt.Errorf("invalid configuration %s: %s", cfg.ConfigPath, strings.Join(result.Errors, "; "))
		}
		explicit = result.Config
	}

	runtime := cfg.Runtime
	if runtime == nil {
		runtime, err = containerizer.NewRuntime(cfg.RuntimeType, logger)
		if err != nil {
			logger.Error("Bootstrap", err, "Failed to create container runtime")
			return nil, fmt.Errorf("failed to create container runtime: %w", err)
		}
	}

	manager := platform.New(platform.Options{
		Runtime:     runtime,
		Logger:      logger,
		Validator:   validator,
		ConfigRoot:  cfg.ConfigRoot,
		Provisioner: cfg.Provisioner,
		Verifier:    cfg.Verifier,
	})

	return &Application{
		config:         cfg,
		logger:         logger,
		manager:        manager,
		platformConfig: explicit,
		formatter:      formatting.NewFormatter(formatting.Options{Format: cfg.Format, Color: cfg.Output == os.Stdout}, cfg.Output),
	}, nil
}

// Manager returns the platform manager.
func (a *Application) Manager() *platform.Manager {
	return a.manager
}
