// Package reconcile turns two or more indexed trees into a finalized merge
// plan and applies it.
//
// The reconcile system is designed to handle tens of thousands of files per
// tree efficiently by:
//   - Building the identity and type indices of every tree concurrently
//   - Keeping planning single-threaded so first-wins resolution is reproducible
//   - Providing a caching layer so a root indexed once is never walked twice
//   - Supporting additional decision sources through signals
//
// # Architecture
//
// The reconcile system consists of four main components:
//
// 1. Planner: BuildPlan matches qualified type names, then shader names, of the
// source tree against the targets in priority order, resolves each match to a
// pair of identifiers and keeps at most one decision per superseded identifier.
// Supplied decisions are folded in last; a supplied decision pointing at an
// already superseded identifier is collapsed onto the end of the chain.
//
// 2. Signal: external decision sources such as the duplicate detector and
// decision files.
//
// 3. Cache: singleflight-protected cache of indexed trees.
//
// 4. Engine: orchestrates index, plan, staged rewrite and exclusion. Nothing is
// written unless the run is confirmed and not a dry run.
//
// # Usage Example
//
//	engine, err := reconcile.NewEngine(afero.NewOsFs(), reconcile.EngineOptions{Logger: log})
//	result, err := engine.Run(ctx, reconcile.Request{
//	    Source:  "/exports/Assets",
//	    Targets: []string{"/project/Assets"},
//	    Options: reconcile.Options{Confirmed: true},
//	})
//
//	// result.Staged() lists the staged rewrites awaiting commit.
//	// result.Exclusions lists source files that must not be copied.
package reconcile
