// Package database handles the run journal connection and schema inspection.
//
// It provides a wrapper around GORM to configure MySQL or SQLite connections
// based on the application's configuration.
//
// # Connect
//
// Connect establishes a connection for the configured driver. MySQL DSNs carry
// the configured timeout for connection setup, reads and writes; SQLite opens
// the named file (or ":memory:") with a single connection.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table. The journal integrity check
// compares them with the columns expected by the journal models.
//
// # Usage
//
//	db, err := database.Connect(cfg.Journal)
//	if err != nil {
//	    log.Warn("Journal disabled", zap.Error(err))
//	}
//
//	columns, err := database.GetTableColumns(db, "merge_runs")
package database
