// Package logging provides structured logging for the statmq agent.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the agent.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting agent", "interval", 10)
//	logger.Error("failed to connect", "error", err)
//
// Never log broker credentials; the config section holding them is
// excluded from startup logging on purpose.
package logging
