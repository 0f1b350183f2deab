// Package app provides the application bootstrap and run loop behind
// `stagehand up`.
//
// # Bootstrap (bootstrap.go)
//
// NewApplication performs the whole initialization sequence:
//
//   - **Logging**: one *logging.Logger, Info or Debug level, written to
//     stderr (or discarded in silent mode) and injected everywhere
//   - **Configuration**: an explicitly named file (--config) is validated
//     up front and must be valid; otherwise the platform manager searches
//     the working tree and falls back to defaults with a warning
//   - **Runtime**: the container runtime is created from --runtime
//   - **Platform**: the platform.Manager that owns the run
//
// # Run loop (modes.go)
//
// Run starts the platform, waits for every container to report healthy,
// prints the health report and blocks until SIGINT, SIGTERM or SIGHUP.
//
// Teardown happens exactly once on every path: clean shutdown, startup
// failure, readiness timeout and signals received during startup. A failed
// start is not retried. The containers that did start are stopped before
// Run returns the error.
//
// Exit semantics (applied by the cmd package):
//   - nil: clean shutdown, exit code 0
//   - error: startup failure or readiness timeout, exit code 1
package app
