// Package healthcheck implements health probing for started containers.
//
// # Probes
//
// A Probe is a tagged value with three variants:
//   - HTTP: one GET against a URL, healthy when the status code is in the
//     accepted set (200 by default, 200 or 503 for the gateway)
//   - Command: runs a command inside the container, healthy on exit code 0
//     (used for postgres with pg_isready)
//   - Skip: always healthy, carries a reason (UI, import runner)
//
// Execute is the only place probes are run. It never returns an error:
// timeouts, refused connections, unexpected status codes and failed commands
// all become an unhealthy Result.
//
// Handles opt in by implementing Checkable. A handle without a probe is
// reported healthy with a reason.
//
// # Checker
//
// CheckHealthy probes one registered container. CheckAllHealthy probes every
// container of the registry in parallel and returns results sorted by name,
// without short-circuiting on the first failure.
//
// # Heartbeat
//
// StartHeartbeat runs CheckAllHealthy on a ticker in a single goroutine.
// Calling it again replaces the running heartbeat. Per container it keeps a
// consecutive failure counter:
//   - first failure: warning
//   - at or above the threshold: error on every unhealthy tick
//   - healthy again after failures: info line reporting the recovery
//
// StopHeartbeat cancels the goroutine, waits for it to exit and clears the
// counters. The heartbeat only observes; it never restarts containers.
package healthcheck
