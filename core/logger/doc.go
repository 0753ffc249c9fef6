// Package logger provides a structured logging facility based on Zap.
//
// New builds the logger of the command line tools from the log section of the
// configuration. Debug runs use zap's development settings.
//
// # Run Awareness
//
// Every merge run is identified by a run ID. The WithRun helper attaches it to
// the logger handed down to the indexers, the planner and the rewrite engine,
// ensuring that all logs of one run can be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json for archived runs or console for an operator
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Merge started")
//
//	l := logger.WithRun(log, runID)
//	l.Warn("Skipping file", zap.String("path", path), zap.String("reason", reason))
package logger
