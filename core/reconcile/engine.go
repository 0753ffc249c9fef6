package reconcile

import (
	"context"
	"fmt"
	"sort"

	"asset-merger/core/asset"
	"asset-merger/core/duplicate"
	"asset-merger/core/logger"
	"asset-merger/core/rewrite"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EngineOptions configures an Engine.
type EngineOptions struct {
	Index     IndexOptions
	Rewrite   rewrite.Options
	Duplicate duplicate.Options
	Logger    *zap.Logger
}

// Request describes one merge run.
type Request struct {
	// Source is the root whose identifiers may be superseded.
	Source string

	// Targets are the roots searched for superseding identifiers, in priority order.
	Targets []string

	// Signals supply additional decisions, folded after the duplicate detector.
	Signals []Signal

	// Options gates the rewrite.
	Options Options
}

// Engine runs the index, plan, rewrite and exclusion pipeline.
type Engine struct {
	fs       afero.Fs
	cache    *IndexCache
	detector *duplicate.Detector
	opts     EngineOptions
	logger   *zap.Logger
}

// NewEngine creates an Engine reading and staging through fs.
func NewEngine(fs afero.Fs, opts EngineOptions) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Duplicate.Logger == nil {
		opts.Duplicate.Logger = log
	}
	detector, err := duplicate.New(fs, opts.Duplicate)
	if err != nil {
		return nil, err
	}
	return &Engine{
		fs:       fs,
		cache:    NewIndexCache(fs, opts.Index),
		detector: detector,
		opts:     opts,
		logger:   log,
	}, nil
}

// Index returns the indexed tree for root.
func (e *Engine) Index(ctx context.Context, root string) (*Tree, error) {
	return e.cache.GetOrBuild(ctx, root)
}

// IndexTrees indexes roots concurrently and returns them in the same order.
// The whole set must be indexed before planning; any failure aborts.
func (e *Engine) IndexTrees(ctx context.Context, roots []string) ([]*Tree, error) {
	trees := make([]*Tree, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			t, err := e.cache.GetOrBuild(gctx, root)
			if err != nil {
				return fmt.Errorf("failed to index %s: %w", root, err)
			}
			trees[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}

// Plan indexes the trees of req and builds the finalized plan. It returns the
// source tree followed by the target trees.
func (e *Engine) Plan(ctx context.Context, req Request) (*Plan, []*Tree, error) {
	if req.Source == "" {
		return nil, nil, fmt.Errorf("source root is required")
	}
	if len(req.Targets) == 0 {
		return nil, nil, fmt.Errorf("at least one target root is required")
	}

	runID := uuid.NewString()
	log := logger.WithRun(e.logger, runID)
	log.Info("Planning merge", zap.String("source", req.Source), zap.Strings("targets", req.Targets))

	trees, err := e.IndexTrees(ctx, append([]string{req.Source}, req.Targets...))
	if err != nil {
		return nil, nil, err
	}

	var (
		supplied []asset.Decision
		skipped  []asset.Skip
	)
	for _, t := range trees {
		skipped = append(skipped, t.IDs.Skipped...)
		skipped = append(skipped, t.Types.Skipped...)
	}

	// source duplicates first, then the caller's signals
	sig := &duplicate.Signal{Detector: e.detector, Types: trees[0].Types, IDs: trees[0].IDs}
	duplicates, err := sig.Decisions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("signal %s: %w", sig.Name(), err)
	}
	supplied = append(supplied, duplicates...)
	skipped = append(skipped, sig.Skipped()...)

	extra, err := collectSignals(ctx, req.Signals)
	if err != nil {
		return nil, nil, err
	}
	supplied = append(supplied, extra...)

	plan := BuildPlan(trees[0], trees[1:], supplied, log)
	plan.RunID = runID
	plan.Skipped = skipped
	return plan, trees, nil
}

// Run plans and, when confirmed, applies the plan.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	plan, trees, err := e.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	return e.Apply(ctx, plan, trees, req.Options)
}

// Apply stages the rewrites of a plan returned by Plan and computes the source
// exclusions. The result is not applied unless opts is confirmed and not a dry run.
func (e *Engine) Apply(ctx context.Context, plan *Plan, trees []*Tree, opts Options) (*Result, error) {
	result := &Result{Plan: plan}
	rewrites, err := ApplyPlan(ctx, e.fs, plan, trees, opts, e.rewriteOptions(plan.RunID))
	if err != nil {
		return result, err
	}
	if rewrites == nil {
		return result, nil
	}

	result.Applied = true
	result.Rewrites = rewrites
	result.Exclusions = ComputeExclusions(trees[0].IDs, rewrites[trees[0].Root].Acted)

	logger.WithRun(e.logger, plan.RunID).Info("Merge applied",
		zap.Int("staged", len(result.Staged())),
		zap.Int("excluded_files", len(result.Exclusions.Files)),
		zap.Int("excluded_folders", len(result.Exclusions.Folders)),
		zap.Bool("complete", result.Complete()),
	)
	return result, nil
}

func (e *Engine) rewriteOptions(runID string) rewrite.Options {
	opts := e.opts.Rewrite
	if opts.Logger == nil {
		opts.Logger = e.logger
	}
	opts.Logger = logger.WithRun(opts.Logger, runID)
	return opts
}

// ApplyPlan stages the rewrite of every tree and returns the reports keyed by
// root. Only the source tree has its declaring sidecars rewritten; a target
// keeps declaring its own identifiers so no identifier is declared twice. Requires opts.Confirmed=true and opts.DryRun=false to actually write;
// otherwise it returns nil reports.
func ApplyPlan(ctx context.Context, fs afero.Fs, plan *Plan, trees []*Tree, opts Options, rw rewrite.Options) (map[string]*rewrite.Report, error) {
	// Safety check: do not write if not confirmed or dry-run
	if !opts.Confirmed || opts.DryRun {
		return nil, nil
	}

	reports := make(map[string]*rewrite.Report, len(trees))
	for i, t := range trees {
		if _, done := reports[t.Root]; done {
			continue
		}
		treeOpts := rw
		treeOpts.KeepDeclarations = i > 0
		rep, err := rewrite.Apply(ctx, fs, t.IDs, plan.Decisions, treeOpts)
		if err != nil {
			return reports, fmt.Errorf("failed to rewrite %s: %w", t.Root, err)
		}
		reports[t.Root] = rep
	}
	return reports, nil
}

func sortedRoots(m map[string]*rewrite.Report) []string {
	roots := make([]string, 0, len(m))
	for r := range m {
		roots = append(roots, r)
	}
	sort.Strings(roots)
	return roots
}
