package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stagehand/internal/config"
	"stagehand/internal/containerizer"
	"stagehand/internal/containers"
	"stagehand/internal/healthcheck"
	"stagehand/internal/images"
	"stagehand/internal/importer"
	"stagehand/internal/registry"
	"stagehand/internal/starter"
	"stagehand/pkg/logging"
)

const subsystem = "Platform"

var (
	// ErrNotInitialized is returned by health accessors before Start.
	ErrNotInitialized = errors.New("platform has not been started")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("platform has already been started")

	// ErrNotHealthy is returned by WaitUntilHealthy when the platform did
	// not become healthy in time.
	ErrNotHealthy = errors.New("platform is not healthy")
)

// Options holds the collaborators of a Manager. Only Runtime is required.
type Options struct {
	Runtime containerizer.Runtime
	Logger  *logging.Logger

	// Validator and ConfigRoot locate a configuration file when Start is
	// called without an explicit configuration.
	Validator  *config.Validator
	ConfigRoot string

	// Provisioner defaults to a lib/pq based provisioner.
	Provisioner containers.Provisioner

	// Verifier defaults to pulling through Runtime.
	Verifier images.Verifier

	// Images replaces the compiled-in image catalog.
	Images map[string]string

	// StopTimeout bounds each container stop during teardown.
	StopTimeout time.Duration
}

// Manager starts and stops one platform. A Manager can be started once.
type Manager struct {
	opts   Options
	logger *logging.Logger

	mu       sync.Mutex
	started  bool
	stopped  bool
	runID    string
	config   config.PlatformConfig
	network  containerizer.Network
	registry *registry.Registry
	checker  *healthcheck.Checker
}

// New creates a manager.
func New(opts Options) *Manager {
	if opts.Provisioner == nil {
		opts.Provisioner = containers.NewPostgresProvisioner()
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 30 * time.Second
	}
	return &Manager{
		opts:     opts,
		logger:   opts.Logger,
		registry: registry.New(),
	}
}

// Start resolves the effective configuration, creates the network and runs
// every stage, the optional data import and the optional heartbeat.
//
// A failed Start leaves the containers started so far running and
// registered; call Stop to remove them.
func (m *Manager) Start(ctx context.Context, explicit *config.PlatformConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if m.opts.Runtime == nil {
		return fmt.Errorf("no container runtime configured")
	}
	m.started = true
	m.runID = uuid.NewString()

	cfg := m.resolveConfig(explicit)
	m.config = cfg
	m.checker = healthcheck.NewChecker(m.registry, m.logger, healthcheck.HeartbeatOptions{
		Interval:         cfg.Heartbeat.Interval.Duration(),
		FailureThreshold: cfg.Heartbeat.FailureThreshold,
	})

	m.logger.Info(subsystem, "Starting platform run %s", m.runID)

	network, err := m.opts.Runtime.CreateNetwork(ctx)
	if err != nil {
		return fmt.Errorf("failed to create platform network: %w", err)
	}
	m.network = network

	env := containers.Env{
		Runtime:     m.opts.Runtime,
		Network:     network.Name(),
		Logger:      m.logger,
		Logging:     cfg.EnableLogging,
		Provisioner: m.opts.Provisioner,
	}
	resolver := m.newResolver()
	imgs := m.resolveImages(ctx, resolver, cfg)

	s := starter.New(starter.Config{
		Platform: cfg,
		Env:      env,
		Registry: m.registry,
		Images:   imgs,
		Logger:   m.logger,
	})
	if err := s.StartAll(ctx); err != nil {
		m.logger.Error(subsystem, err, "Platform start failed with %d containers running", m.registry.Len())
		return err
	}

	if cfg.ImportData {
		imp := importer.New(importer.Config{
			Importer: cfg.Importer,
			Env:      env,
			Registry: m.registry,
			Images:   imgs,
			Logger:   m.logger,
		})
		if err := imp.Run(ctx); err != nil {
			return fmt.Errorf("data import failed: %w", err)
		}
	}

	if cfg.Heartbeat.Enabled {
		m.checker.StartHeartbeat()
	}

	m.logger.Info(subsystem, "Platform started with %d containers", m.registry.Len())
	return nil
}

func (m *Manager) resolveConfig(explicit *config.PlatformConfig) config.PlatformConfig {
	if explicit != nil {
		return *explicit
	}
	v := m.opts.Validator
	if v == nil {
		var err error
		v, err = config.NewValidator(m.logger)
		if err != nil {
			m.logger.Warn(subsystem, "Configuration validator unavailable, using defaults: %v", err)
			return config.Default()
		}
	}
	return v.Resolve(nil, m.opts.ConfigRoot)
}

func (m *Manager) newResolver() *images.Resolver {
	verifier := m.opts.Verifier
	if verifier == nil {
		verifier = images.NewRuntimeVerifier(m.opts.Runtime, 0, m.logger)
	}
	return images.NewResolver(m.opts.Images, verifier, m.logger)
}

// resolveImages verifies every image the run needs once, concurrently.
func (m *Manager) resolveImages(ctx context.Context, resolver *images.Resolver, cfg config.PlatformConfig) *resolvedImages {
	names, overrides := ImageRequests(cfg)
	table, err := resolver.ResolveAll(ctx, names, overrides)
	if err != nil {
		m.logger.Warn(subsystem, "Some images could not be resolved: %v", err)
	}
	return &resolvedImages{table: table, resolver: resolver}
}

// Stop tears the platform down: heartbeat off, containers stopped in reverse
// registration order, network removed, registry cleared. It keeps going past
// failures and returns them joined. Calling Stop again is a no-op.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started || m.stopped {
		return nil
	}
	m.stopped = true

	if m.checker != nil {
		m.checker.StopHeartbeat()
	}

	var errs []error
	keys := m.registry.Keys()
	m.logger.Info(subsystem, "Stopping %d containers", len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		h, ok := m.registry.Get(key)
		if !ok {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, m.opts.StopTimeout)
		err := h.Stop(stopCtx)
		cancel()
		if err != nil {
			m.logger.Error(subsystem, err, "Failed to stop %s", key)
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", key, err))
			continue
		}
		m.logger.Debug(subsystem, "Stopped %s", key)
	}

	if m.network != nil {
		if err := m.network.Remove(ctx); err != nil {
			m.logger.Warn(subsystem, "Failed to remove network %s: %v", m.network.Name(), err)
		}
	}
	m.registry.Clear()

	m.logger.Info(subsystem, "Platform run %s stopped", m.runID)
	return errors.Join(errs...)
}

// RunID identifies the current run. It is empty before Start.
func (m *Manager) RunID() string {
	return m.runID
}

// Config returns the effective configuration. ok is false before Start.
func (m *Manager) Config() (cfg config.PlatformConfig, ok bool) {
	return m.config, m.started
}

// GetContainer returns the handle registered under key.
func (m *Manager) GetContainer(key registry.Key) (registry.Handle, bool) {
	return m.registry.Get(key)
}

// ContainerAs returns the handle registered under key as T.
func ContainerAs[T registry.Handle](m *Manager, key registry.Key) (T, bool) {
	return registry.GetAs[T](m.registry, key)
}

// HasContainer reports whether key is registered.
func (m *Manager) HasContainer(key registry.Key) bool {
	return m.registry.Has(key)
}

// GetAllContainers returns a copy of every registered handle.
func (m *Manager) GetAllContainers() map[registry.Key]registry.Handle {
	return m.registry.GetAll()
}

// CheckAllHealthy probes every registered container.
func (m *Manager) CheckAllHealthy(ctx context.Context) ([]healthcheck.Result, error) {
	if m.checker == nil {
		return nil, ErrNotInitialized
	}
	return m.checker.CheckAllHealthy(ctx), nil
}

// CheckHealthy probes the container registered under name.
func (m *Manager) CheckHealthy(ctx context.Context, name string) (healthcheck.Result, error) {
	if m.checker == nil {
		return healthcheck.Result{}, ErrNotInitialized
	}
	return m.checker.CheckHealthy(ctx, name), nil
}

// StartHeartbeat starts (or restarts) the periodic health sweep.
func (m *Manager) StartHeartbeat() error {
	if m.checker == nil {
		return ErrNotInitialized
	}
	m.checker.StartHeartbeat()
	return nil
}

// StopHeartbeat stops the periodic health sweep.
func (m *Manager) StopHeartbeat() error {
	if m.checker == nil {
		return ErrNotInitialized
	}
	m.checker.StopHeartbeat()
	return nil
}

// IsHeartbeatRunning reports whether the heartbeat goroutine runs.
func (m *Manager) IsHeartbeatRunning() (bool, error) {
	if m.checker == nil {
		return false, ErrNotInitialized
	}
	return m.checker.IsHeartbeatRunning(), nil
}

// WaitUntilHealthy polls CheckAllHealthy every interval until every
// container is healthy or timeout elapses. The last results are returned
// either way.
func (m *Manager) WaitUntilHealthy(ctx context.Context, timeout, interval time.Duration) ([]healthcheck.Result, error) {
	if m.checker == nil {
		return nil, ErrNotInitialized
	}
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		results := m.checker.CheckAllHealthy(ctx)
		if healthcheck.AllHealthy(results) {
			return results, nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return results, fmt.Errorf("%w after %s: %s", ErrNotHealthy, timeout, unhealthyNames(results))
			}
			return results, ctx.Err()
		case <-ticker.C:
		}
	}
}

func unhealthyNames(results []healthcheck.Result) string {
	var names []string
	for _, r := range results {
		if !r.Healthy {
			names = append(names, r.Name)
		}
	}
	return strings.Join(names, ", ")
}
