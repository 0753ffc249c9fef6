// Package journal records merge runs in a relational database.
//
// Every confirmed run writes one row to merge_runs and its accepted decisions,
// dropped candidates, skipped files and exclusions to child tables keyed by the
// run ID. The journal is optional: callers without a configured database get
// ErrNoDatabase and continue.
//
// # Tables
//
//   - merge_runs: one row per run with aggregate counts.
//   - merge_decisions: accepted and dropped decisions.
//   - merge_skips: files skipped while indexing, planning or rewriting.
//   - merge_exclusions: source paths made redundant by the run.
package journal
