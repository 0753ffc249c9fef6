package journal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"asset-merger/core/asset"
	"asset-merger/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatusAccepted marks a decision that made it into the plan.
const StatusAccepted = "accepted"

// batchSize bounds the rows of one INSERT statement.
const batchSize = 500

// ErrNoDatabase is returned when the journal has no database connection.
var ErrNoDatabase = errors.New("journal database is not configured")

// Journal writes and reads recorded runs.
type Journal struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a journal over db. A nil db yields a journal whose every
// operation returns ErrNoDatabase.
func New(db *gorm.DB, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{db: db, logger: logger}
}

// Migrate creates or updates the journal tables.
func (j *Journal) Migrate() error {
	if j.db == nil {
		return ErrNoDatabase
	}
	if err := j.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate journal: %w", err)
	}
	return nil
}

// Record stores a run and all of its rows in one transaction.
func (j *Journal) Record(ctx context.Context, result *reconcile.Result) error {
	if j.db == nil {
		return ErrNoDatabase
	}
	if result == nil || result.Plan == nil || result.Plan.RunID == "" {
		return fmt.Errorf("result has no run id")
	}

	run, decisions, skips, exclusions := rows(result)

	err := j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		if len(decisions) > 0 {
			if err := tx.CreateInBatches(&decisions, batchSize).Error; err != nil {
				return fmt.Errorf("failed to insert decisions: %w", err)
			}
		}
		if len(skips) > 0 {
			if err := tx.CreateInBatches(&skips, batchSize).Error; err != nil {
				return fmt.Errorf("failed to insert skips: %w", err)
			}
		}
		if len(exclusions) > 0 {
			if err := tx.CreateInBatches(&exclusions, batchSize).Error; err != nil {
				return fmt.Errorf("failed to insert exclusions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	j.logger.Info("Recorded merge run",
		zap.String("run_id", run.ID),
		zap.Int("decisions", len(decisions)),
		zap.Int("skips", len(skips)),
		zap.Int("exclusions", len(exclusions)))
	return nil
}

// Runs returns the most recent runs, newest first. A limit <= 0 returns all.
func (j *Journal) Runs(ctx context.Context, limit int) ([]RunRow, error) {
	if j.db == nil {
		return nil, ErrNoDatabase
	}
	var runs []RunRow
	q := j.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Decisions returns the decisions of one run in recorded order.
func (j *Journal) Decisions(ctx context.Context, runID string) ([]DecisionRow, error) {
	if j.db == nil {
		return nil, ErrNoDatabase
	}
	var decisions []DecisionRow
	if err := j.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&decisions).Error; err != nil {
		return nil, fmt.Errorf("failed to list decisions of run %s: %w", runID, err)
	}
	return decisions, nil
}

func rows(result *reconcile.Result) (RunRow, []DecisionRow, []SkipRow, []ExclusionRow) {
	plan := result.Plan
	runID := plan.RunID

	run := RunRow{
		ID:        runID,
		Source:    plan.Source,
		Targets:   strings.Join(plan.Targets, "\n"),
		Accepted:  len(plan.Decisions),
		Dropped:   len(plan.Dropped),
		Applied:   result.Applied,
		Complete:  result.Complete(),
		CreatedAt: time.Now(),
	}

	decisions := make([]DecisionRow, 0, len(plan.Decisions)+len(plan.Dropped))
	for _, d := range plan.Decisions {
		decisions = append(decisions, decisionRow(runID, d, StatusAccepted))
	}
	for _, d := range plan.Dropped {
		row := decisionRow(runID, d.Decision, d.Reason)
		if d.Detail != "" {
			row.Reason = strings.TrimSpace(row.Reason + " " + d.Detail)
		}
		decisions = append(decisions, row)
	}

	skipped := append([]asset.Skip{}, plan.Skipped...)
	roots := make([]string, 0, len(result.Rewrites))
	for root := range result.Rewrites {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	for _, root := range roots {
		rep := result.Rewrites[root]
		skipped = append(skipped, rep.Refused...)
		skipped = append(skipped, rep.Failed...)
		run.Failed += len(rep.Failed)
	}
	run.Skipped = len(skipped)
	run.Staged = len(result.Staged())

	skips := make([]SkipRow, 0, len(skipped))
	for _, s := range skipped {
		skips = append(skips, SkipRow{RunID: runID, Path: s.Path, Stage: string(s.Stage), Reason: s.Reason})
	}

	var exclusions []ExclusionRow
	if result.Exclusions != nil {
		for _, p := range result.Exclusions.Files {
			exclusions = append(exclusions, ExclusionRow{RunID: runID, Path: p})
		}
		for _, p := range result.Exclusions.Folders {
			exclusions = append(exclusions, ExclusionRow{RunID: runID, Path: p, Folder: true})
		}
	}

	return run, decisions, skips, exclusions
}

func decisionRow(runID string, d asset.Decision, status string) DecisionRow {
	return DecisionRow{
		RunID:   runID,
		From:    string(d.From),
		To:      string(d.To),
		LocalID: string(d.LocalID),
		Kind:    int(d.Kind),
		Origin:  d.Origin,
		Reason:  d.Reason,
		Status:  status,
	}
}
