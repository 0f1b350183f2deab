package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"stagehand/internal/config"
	"stagehand/internal/containers"
	"stagehand/internal/registry"
	"stagehand/pkg/logging"
)

const subsystem = "DataImporter"

// ImportTimeoutError is returned when the import runner is still busy after
// the configured timeout.
type ImportTimeoutError struct {
	Timeout time.Duration
}

func (e *ImportTimeoutError) Error() string {
	return fmt.Sprintf("data import did not finish within %s", e.Timeout)
}

// Unwrap lets errors.Is match context.DeadlineExceeded.
func (e *ImportTimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// ImageResolver decides which image the import runner uses.
type ImageResolver interface {
	Resolve(ctx context.Context, name, override string) (string, error)
}

// Config holds the collaborators of an Importer.
type Config struct {
	Importer config.ImporterConfig
	Env      containers.Env
	Registry *registry.Registry
	Images   ImageResolver
	Logger   *logging.Logger
}

// Importer runs the fixture data import against a started platform.
type Importer struct {
	cfg      config.ImporterConfig
	env      containers.Env
	registry *registry.Registry
	images   ImageResolver
	logger   *logging.Logger
}

// New creates an importer. Zero timeouts and an empty process name fall back
// to the defaults.
func New(cfg Config) *Importer {
	ic := cfg.Importer
	if ic.Timeout <= 0 {
		ic.Timeout = config.Millis(config.DefaultImportTimeout)
	}
	if ic.PollInterval <= 0 {
		ic.PollInterval = config.Millis(config.DefaultImportPollInterval)
	}
	if ic.ProcessName == "" {
		ic.ProcessName = config.DefaultImportProcessName
	}
	if ic.Image == "" {
		ic.Image = config.DefaultImporterImage
	}
	env := cfg.Env
	if env.Logger == nil {
		env.Logger = cfg.Logger
	}
	return &Importer{
		cfg:      ic,
		env:      env,
		registry: cfg.Registry,
		images:   cfg.Images,
		logger:   cfg.Logger,
	}
}

// descriptorPath returns the configured path or a unique file in the temp
// directory.
func (i *Importer) descriptorPath() string {
	if i.cfg.DescriptorPath != "" {
		return i.cfg.DescriptorPath
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("stagehand-container-info-%s.json", uuid.NewString()))
}

// Run writes the descriptor, starts the import runner and waits until the
// import process has exited. The descriptor is removed and the runner is
// stopped and unregistered on every path.
func (i *Importer) Run(ctx context.Context) error {
	d, err := BuildDescriptor(i.registry)
	if err != nil {
		return err
	}

	path := i.descriptorPath()
	if err := WriteDescriptor(path, d); err != nil {
		return err
	}
	defer i.removeDescriptor(path)
	i.logger.Debug(subsystem, "Wrote container info for %d services to %s", len(d.Services), path)

	image := i.cfg.Image
	if i.images != nil {
		image, err = i.images.Resolve(ctx, config.KeyImportManager, i.cfg.Image)
		if err != nil {
			return fmt.Errorf("failed to resolve import runner image: %w", err)
		}
	}

	runner, err := containers.ImportRunnerSpec{
		Image:          image,
		DescriptorPath: path,
	}.Start(ctx, i.env)
	if err != nil {
		return fmt.Errorf("failed to start import runner: %w", err)
	}
	i.registry.Add(runner.Key(), runner)
	defer i.stopRunner(runner)

	i.logger.Info(subsystem, "Import runner started, waiting for %s to finish", i.cfg.ProcessName)
	start := time.Now()
	if err := i.waitForCompletion(ctx, runner); err != nil {
		return err
	}
	i.logger.Info(subsystem, "Data import finished after %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// waitForCompletion polls pgrep inside the runner until the import process
// is gone. An exec error means the container has exited, which counts as
// finished.
func (i *Importer) waitForCompletion(ctx context.Context, runner *containers.StartedImportRunner) error {
	timeout := i.cfg.Timeout.Duration()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(i.cfg.PollInterval.Duration())
	defer ticker.Stop()

	cmd := []string{"pgrep", "-f", i.cfg.ProcessName}
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return &ImportTimeoutError{Timeout: timeout}
			}
			return ctx.Err()
		case <-ticker.C:
			res, err := runner.Container().Exec(ctx, cmd)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				i.logger.Debug(subsystem, "Polling import runner failed, assuming it finished: %v", err)
				return nil
			}
			if res.ExitCode != 0 {
				return nil
			}
		}
	}
}

func (i *Importer) removeDescriptor(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		i.logger.Warn(subsystem, "Failed to remove container info %s: %v", path, err)
	}
}

func (i *Importer) stopRunner(runner *containers.StartedImportRunner) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := runner.Stop(ctx); err != nil {
		i.logger.Warn(subsystem, "Failed to stop import runner: %v", err)
	}
	i.registry.Remove(runner.Key())
}
