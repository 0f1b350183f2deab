// Package logging provides the structured logger used throughout stagehand.
//
// The logger is built on Go's standard slog package. There is no process-wide
// logger: the application constructs one Logger at startup and passes it to
// every component that needs to log.
//
// # Log Levels
//   - **Debug**: Detailed information for debugging and development
//   - **Info**: General informational messages about platform operation
//   - **Warn**: Recoverable problems (image fallback, heartbeat first failure)
//   - **Error**: Failures, including escalated heartbeat failures
//
// # Usage
//
//	logger := logging.New(logging.LevelInfo, os.Stdout)
//	logger.Info("Starter", "Starting %s", key)
//	logger.Warn("ImageResolver", "Override %s not pullable, using %s", override, image)
//	logger.Error("Platform", err, "Failed to stop %s", key)
//
// Every record carries a subsystem attribute so output can be filtered.
// Container log lines streamed from the runtime use the subsystem
// "container/<alias>".
//
// Tests that do not care about output use logging.Nop().
package logging
