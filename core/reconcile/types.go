package reconcile

import (
	"time"

	"asset-merger/core/asset"
	"asset-merger/core/identity"
	"asset-merger/core/rewrite"
	"asset-merger/core/typeindex"
)

// Decision origins recorded by the planner.
const (
	// OriginType marks a decision derived from a matching qualified type name.
	OriginType = "type"
	// OriginShader marks a decision derived from a matching shader name.
	OriginShader = "shader"
	// OriginSupplied marks a decision loaded from a decisions file.
	OriginSupplied = "supplied"
)

// Drop reasons recorded on DroppedDecision.
const (
	DropUnresolved = "unresolved"
	DropSelf       = "self"
	DropConflict   = "conflict"
	DropCycle      = "cycle"
)

// Tree is one indexed tree.
type Tree struct {
	// Root is the tree root.
	Root string `json:"root"`

	// IDs is the identity database of the tree.
	IDs *identity.Database `json:"-"`

	// Types is the type database of the tree.
	Types *typeindex.Database `json:"-"`

	// Built is the timestamp when the indices were built.
	Built time.Time `json:"built"`
}

// DroppedDecision is a candidate or supplied decision that did not make it into
// the finalized plan.
type DroppedDecision struct {
	// Decision is the candidate as it was considered.
	Decision asset.Decision `json:"decision"`

	// Reason is one of the Drop constants.
	Reason string `json:"reason"`

	// Detail explains the drop, e.g. which decision won the conflict.
	Detail string `json:"detail,omitempty"`
}

// Plan is the finalized, conflict-free decision set of one run.
type Plan struct {
	// RunID identifies the run in logs, journal and report.
	RunID string `json:"run_id"`

	// Source is the root of the source tree.
	Source string `json:"source"`

	// Targets are the target roots in priority order.
	Targets []string `json:"targets"`

	// Decisions holds at most one decision per From, in acceptance order.
	Decisions []asset.Decision `json:"decisions"`

	// Dropped lists every candidate rejected by the planner.
	Dropped []DroppedDecision `json:"dropped,omitempty"`

	// Skipped lists files skipped while indexing and detecting duplicates.
	Skipped []asset.Skip `json:"skipped,omitempty"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// Candidates counts type and shader matches considered.
	Candidates int `json:"candidates"`

	// Supplied counts decisions received from signals.
	Supplied int `json:"supplied"`

	// Accepted counts finalized decisions.
	Accepted int `json:"accepted"`

	// Collapsed counts supplied decisions rewritten to the end of a chain.
	Collapsed int `json:"collapsed"`

	// Unresolved counts candidates without an identity on one side.
	Unresolved int `json:"unresolved"`

	// SelfMerges counts candidates whose two sides share an identity.
	SelfMerges int `json:"self_merges"`

	// Conflicts counts decisions dropped because their From was already decided.
	Conflicts int `json:"conflicts"`

	// Cycles counts supplied decisions that would have closed a cycle.
	Cycles int `json:"cycles"`
}

// Exclusions are the source paths made redundant by an applied plan.
type Exclusions struct {
	// Files are excluded file paths, sorted.
	Files []string `json:"files"`

	// Folders are excluded directory paths, sorted.
	Folders []string `json:"folders"`
}

// Options controls whether a plan is applied.
type Options struct {
	// DryRun prevents any staged write if true.
	DryRun bool

	// Confirmed indicates the user has confirmed the rewrite.
	// If false, nothing is written regardless of DryRun.
	Confirmed bool
}

// Result is the outcome of Engine.Run.
type Result struct {
	// Plan is the finalized plan.
	Plan *Plan `json:"plan"`

	// Applied is true when the rewrite ran.
	Applied bool `json:"applied"`

	// Rewrites holds the rewrite report of every tree, keyed by root.
	Rewrites map[string]*rewrite.Report `json:"rewrites,omitempty"`

	// Exclusions are computed from the source tree's rewrite report.
	Exclusions *Exclusions `json:"exclusions,omitempty"`
}

// Complete reports whether every rewrite of the run succeeded.
func (r *Result) Complete() bool {
	for _, rep := range r.Rewrites {
		if !rep.Complete() {
			return false
		}
	}
	return true
}

// Staged returns every staged path of the run, sorted by root.
func (r *Result) Staged() []string {
	var staged []string
	for _, root := range sortedRoots(r.Rewrites) {
		staged = append(staged, r.Rewrites[root].Staged...)
	}
	return staged
}
