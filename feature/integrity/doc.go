// Package integrity provides health checks for merged trees and the run journal.
//
// Unlike the reconcile engine, which decides and stages rewrites, this package
// only inspects. It answers whether a plan would leave references behind,
// whether a tree still holds staged rewrites, and whether the journal schema
// matches the models.
//
// # Checks Provided
//
//   - References: resolves every typed reference through the plan and reports those left pointing at undefined identifiers.
//   - Staged: lists staged rewrites awaiting commit or rollback, and staged files whose original is gone.
//   - Journal: validates that the journal tables match the gorm models (columns, types).
package integrity
