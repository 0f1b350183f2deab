package healthcheck

import (
	"context"
	"errors"
	"time"

	"stagehand/internal/registry"
)

// StartHeartbeat starts the periodic health sweep. A heartbeat that is
// already running is stopped first, so at most one ticker is ever active.
func (c *Checker) StartHeartbeat() {
	c.StopHeartbeat()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	c.logger.Info(heartbeatSubsystem, "Starting heartbeat (interval %s, failure threshold %d)", c.interval, c.threshold)

	go c.run(ctx, done)
}

// StopHeartbeat stops the periodic sweep, waits for an in-flight tick to
// finish and clears all failure counters. It is safe to call when no
// heartbeat is running.
func (c *Checker) StopHeartbeat() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	c.mu.Lock()
	c.failures = make(map[registry.Key]int)
	c.mu.Unlock()

	c.logger.Info(heartbeatSubsystem, "Heartbeat stopped")
}

// IsHeartbeatRunning reports whether a heartbeat is active.
func (c *Checker) IsHeartbeatRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// FailureCount returns the consecutive failure count for key.
func (c *Checker) FailureCount(key registry.Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures[key]
}

func (c *Checker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick runs one sweep and updates the consecutive failure counters.
func (c *Checker) tick(ctx context.Context) {
	results := c.CheckAllHealthy(ctx)
	if ctx.Err() != nil {
		// Stopped mid-sweep; results of cancelled probes are not failures.
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[registry.Key]bool, len(results))
	for _, r := range results {
		key := registry.Key(r.Name)
		seen[key] = true
		previous := c.failures[key]

		if r.Healthy {
			if previous > 0 {
				c.logger.Info(heartbeatSubsystem, "%s recovered after %d failed checks", r.Name, previous)
			}
			delete(c.failures, key)
			continue
		}

		count := previous + 1
		c.failures[key] = count
		if count == 1 {
			c.logger.Warn(heartbeatSubsystem, "%s failed health check: %s", r.Name, r.Error)
		}
		if count >= c.threshold {
			c.logger.Error(heartbeatSubsystem, errors.New(r.Error),
				"%s unhealthy for %d consecutive checks (threshold %d)", r.Name, count, c.threshold)
		}
	}

	// Containers removed from the registry no longer carry a counter.
	for key := range c.failures {
		if !seen[key] {
			delete(c.failures, key)
		}
	}
}
