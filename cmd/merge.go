package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asset-merger/core/config"
	"asset-merger/core/database"
	"asset-merger/core/logger"
	"asset-merger/core/reconcile"
	"asset-merger/core/storage"
	"asset-merger/feature/journal"
	"asset-merger/feature/report"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the merge command
	mergeSource    string
	mergeTargets   []string
	mergeDecisions string
	mergeApply     bool
	mergeDryRun    bool
	mergeYes       bool
	mergeJSON      bool
	mergeWorkers   int
)

// mergeCmd plans a merge and optionally stages its rewrites.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Plan and stage the merge of a source tree into target trees",
	Long: `Index the source and target trees, decide which source identities are
superseded by target identities, and optionally stage the rewrites.

The plan is always printed. With --apply (and confirmation) every referencing
file is rewritten to a staged sibling, the exclusion list is written and the
run is journaled and reported. Originals are only replaced by 'staged commit'.

Examples:
  # Report only
  merge --source ./Imported --target ./Assets

  # Stage rewrites with auto-confirm, using extra decisions
  merge --source ./Imported --target ./Assets --decisions dll.json --apply --yes

  # Several targets in priority order, JSON report
  merge --source ./Imported --target ./Assets --target ./Packages --json`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeSource, "source", "", "Source tree root")
	mergeCmd.Flags().StringArrayVar(&mergeTargets, "target", nil, "Target tree root (repeatable, in priority order)")
	mergeCmd.Flags().StringVar(&mergeDecisions, "decisions", "", "JSON file of supplied decisions")
	mergeCmd.Flags().BoolVar(&mergeApply, "apply", false, "Stage the rewrites of the plan")
	mergeCmd.Flags().BoolVar(&mergeDryRun, "dry-run", false, "Force dry-run (no staged writes even with --yes)")
	mergeCmd.Flags().BoolVar(&mergeYes, "yes", false, "Auto-confirm staged rewrites (non-interactive)")
	mergeCmd.Flags().BoolVar(&mergeJSON, "json", false, "Save the detailed JSON report")
	mergeCmd.Flags().IntVar(&mergeWorkers, "workers", 0, "Per-tree parallelism (overrides merge.workers)")
	_ = mergeCmd.MarkFlagRequired("source")
	_ = mergeCmd.MarkFlagRequired("target")

	RootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	startTime := time.Now()

	cfg, l, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	if mergeWorkers > 0 {
		cfg.Merge.Workers = mergeWorkers
	}

	fs := afero.NewOsFs()
	engine, err := reconcile.NewEngine(fs, cfg.Merge.EngineOptions(l))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	req := reconcile.Request{Source: mergeSource, Targets: mergeTargets}
	if mergeDecisions != "" {
		req.Signals = append(req.Signals, &reconcile.FileSignal{FS: fs, Path: mergeDecisions})
	}

	// Step 1: Plan (always runs)
	l.Info("Planning merge...")
	plan, trees, err := engine.Plan(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to plan merge: %w", err)
	}
	runLog := logger.WithRun(l, plan.RunID)

	// Step 2: Print report
	printPlanReport(runLog, plan)

	result := &reconcile.Result{Plan: plan}

	// Step 3: Apply (if requested and confirmed)
	switch {
	case !mergeApply:
		runLog.Info("No actions requested. Use --apply to stage rewrites.")
	case mergeDryRun:
		runLog.Info("Dry-run mode: No changes were made.")
	case len(plan.Decisions) == 0:
		runLog.Info("No decisions accepted; nothing to rewrite.")
	case !confirmDestructiveAction(mergeYes, "Stage rewrites for every tree?"):
		runLog.Warn("Operation cancelled by user. No changes were made.")
	default:
		result, err = engine.Apply(ctx, plan, trees, reconcile.Options{Confirmed: true})
		if err != nil {
			return fmt.Errorf("failed to apply plan: %w", err)
		}
		printApplyReport(result)

		path, err := report.WriteExclusions(fs, cfg.Merge.OutputDir, result.Exclusions, startTime)
		if err != nil {
			return err
		}
		runLog.Info("Exclusion list saved", zap.String("file", path))
		recordJournal(ctx, runLog, cfg, result)
	}

	// Step 4: Report
	if mergeJSON || result.Applied {
		if err := saveReport(ctx, runLog, fs, cfg, result, startTime); err != nil {
			return err
		}
	}

	runLog.Info("Merge completed",
		zap.Bool("applied", result.Applied),
		zap.Duration("execution_time", time.Since(startTime)))
	if result.Applied && !result.Complete() {
		return fmt.Errorf("some rewrites failed; staged files must not be committed")
	}
	return nil
}

// recordJournal writes the run to the journal. The journal is optional, so
// failures are logged and never fail the run.
func recordJournal(ctx context.Context, l *zap.Logger, cfg *config.Config, result *reconcile.Result) {
	if !cfg.Journal.Enabled {
		return
	}
	db, err := database.Connect(cfg.Journal)
	if err != nil {
		l.Warn("Journal unavailable", zap.Error(err))
		return
	}
	j := journal.New(db, l)
	if err := j.Migrate(); err != nil {
		l.Warn("Failed to migrate journal", zap.Error(err))
		return
	}
	if err := j.Record(ctx, result); err != nil && !errors.Is(err, journal.ErrNoDatabase) {
		l.Warn("Failed to record run", zap.Error(err))
	}
}

// saveReport writes the JSON report locally and uploads it when storage is enabled.
func saveReport(ctx context.Context, l *zap.Logger, fs afero.Fs, cfg *config.Config, result *reconcile.Result, now time.Time) error {
	path, err := report.WriteReport(fs, cfg.Merge.OutputDir, result, now)
	if err != nil {
		return err
	}
	l.Info("Detailed JSON report saved", zap.String("file", path))

	if !cfg.Storage.Enabled {
		return nil
	}
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		l.Warn("Report upload unavailable", zap.Error(err))
		return nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	if _, err := report.NewStore(client, cfg.Storage, l).Upload(ctx, report.ReportName(now), data); err != nil {
		l.Warn("Failed to upload report", zap.Error(err))
	}
	return nil
}
