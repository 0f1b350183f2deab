package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"stagehand/internal/formatting"
)

// Run starts the platform, waits until it is healthy, prints the health
// report and then blocks until SIGINT, SIGTERM or SIGHUP. The platform is
// stopped exactly once on every path.
//
// Run returns nil on a clean shutdown (including a signal during startup)
// and an error when the platform failed to start or did not become healthy
// in time.
func (a *Application) Run(ctx context.Context) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	return a.run(ctx, sigChan)
}

func (a *Application) run(ctx context.Context, signals <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var interrupted atomic.Bool
	go func() {
		select {
		case sig := <-signals:
			a.logger.Info("CLI", "Received %s, shutting down", sig)
			interrupted.Store(true)
			cancel()
		case <-ctx.Done():
		}
	}()
	defer a.stop()

	quiet := a.config.Silent || a.config.Debug || a.config.Format != formatting.FormatTable
	progress := formatting.StartProgress(os.Stderr, "Starting platform...", quiet)
	if err := a.manager.Start(ctx, a.platformConfig); err != nil {
		progress.Fail("Platform failed to start")
		if interrupted.Load() {
			return nil
		}
		a.logger.Error("CLI", err, "Failed to start platform")
		return fmt.Errorf("failed to start platform: %w", err)
	}
	progress.Done("Platform started")

	progress = formatting.StartProgress(os.Stderr, "Waiting for containers to become healthy...", quiet)
	results, err := a.manager.WaitUntilHealthy(ctx, a.config.ReadyTimeout, a.config.ReadyInterval)
	if err != nil {
		progress.Fail("Platform is not healthy")
	} else {
		progress.Done("Platform is healthy")
	}
	if ferr := a.formatter.FormatHealth(results); ferr != nil {
		a.logger.Warn("CLI", "Failed to print health report: %v", ferr)
	}
	if err != nil {
		if interrupted.Load() || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if a.config.Once {
		return nil
	}

	a.logger.Info("CLI", "Platform is ready. Press Ctrl+C to stop all containers and exit.")
	<-ctx.Done()
	return nil
}

// stop tears the platform down once; later calls return the first result.
func (a *Application) stop() error {
	a.stopOnce.Do(func() {
		a.logger.Info("CLI", "--- Shutting down platform ---")
		ctx, cancel := context.WithTimeout(context.Background(), DefaultStopTimeout)
		defer cancel()
		if err := a.manager.Stop(ctx); err != nil {
			a.logger.Error("CLI", err, "Teardown finished with errors")
			a.stopErr = err
		}
	})
	return a.stopErr
}
