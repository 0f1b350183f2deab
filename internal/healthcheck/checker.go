package healthcheck

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stagehand/internal/registry"
	"stagehand/pkg/logging"
)

const (
	checkerSubsystem   = "HealthChecker"
	heartbeatSubsystem = "Heartbeat"

	// DefaultHeartbeatInterval is used when HeartbeatOptions.Interval is zero.
	DefaultHeartbeatInterval = 30 * time.Second
	// DefaultFailureThreshold is used when HeartbeatOptions.FailureThreshold is zero.
	DefaultFailureThreshold = 3
)

// Checkable is implemented by handles that expose a health probe.
type Checkable interface {
	HealthProbe(ctx context.Context) (Probe, error)
}

// HeartbeatOptions configures the periodic health sweep.
type HeartbeatOptions struct {
	Interval         time.Duration
	FailureThreshold int
}

// Checker runs one-shot and periodic health sweeps over a registry.
type Checker struct {
	registry *registry.Registry
	logger   *logging.Logger

	interval  time.Duration
	threshold int

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	failures map[registry.Key]int
}

// NewChecker creates a checker over reg.
func NewChecker(reg *registry.Registry, logger *logging.Logger, opts HeartbeatOptions) *Checker {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	threshold := opts.FailureThreshold
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	return &Checker{
		registry:  reg,
		logger:    logger,
		interval:  interval,
		threshold: threshold,
		failures:  make(map[registry.Key]int),
	}
}

// CheckHealthy probes the container registered under name. Lookup failures
// and probe construction errors are reported as an unhealthy result.
func (c *Checker) CheckHealthy(ctx context.Context, name string) Result {
	handle, ok := c.registry.Get(registry.Key(name))
	if !ok {
		result := Result{Name: name, Error: "container not registered"}
		c.logger.Warn(checkerSubsystem, "Health check for %s failed: %s", name, result.Error)
		return result
	}
	return c.check(ctx, name, handle)
}

func (c *Checker) check(ctx context.Context, name string, handle registry.Handle) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Name: name, Error: fmt.Sprintf("health check panicked: %v", r)}
			c.logger.Warn(checkerSubsystem, "Health check for %s failed: %s", name, result.Error)
		}
	}()

	checkable, ok := handle.(Checkable)
	if !ok {
		result = Execute(ctx, name, Skip("container has no health probe"))
		c.logger.Debug(checkerSubsystem, "%s has no health probe, treating as healthy", name)
		return result
	}

	probe, err := checkable.HealthProbe(ctx)
	if err != nil {
		result = Result{Name: name, Error: fmt.Sprintf("failed to build health probe: %v", err)}
		c.logger.Warn(checkerSubsystem, "Health check for %s failed: %s", name, result.Error)
		return result
	}

	result = Execute(ctx, name, probe)
	switch {
	case result.Healthy && probe.Kind == ProbeSkip:
		c.logger.Debug(checkerSubsystem, "%s skipped: %s", name, result.Reason)
	case result.Healthy:
		c.logger.Debug(checkerSubsystem, "%s healthy (%s probe, %s)", name, probe.Kind, result.ResponseTime)
	default:
		c.logger.Warn(checkerSubsystem, "%s unhealthy (%s probe): %s", name, probe.Kind, result.Error)
	}
	return result
}

// CheckAllHealthy probes every registered container in parallel and returns
// all results sorted by name. An empty registry yields an empty slice.
func (c *Checker) CheckAllHealthy(ctx context.Context) []Result {
	handles := c.registry.GetAll()
	results := make([]Result, 0, len(handles))
	if len(handles) == 0 {
		return results
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for key, handle := range handles {
		wg.Add(1)
		go func(name string, h registry.Handle) {
			defer wg.Done()
			r := c.check(ctx, name, h)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}(key.String(), handle)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Name < results[j].Name
	})
	return results
}

// AllHealthy reports whether every result is healthy.
func AllHealthy(results []Result) bool {
	for _, r := range results {
		if !r.Healthy {
			return false
		}
	}
	return true
}
