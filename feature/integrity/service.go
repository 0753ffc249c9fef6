package integrity

import (
	"context"

	"asset-merger/core/asset"
	"asset-merger/core/reconcile"
	"asset-merger/feature/integrity/checks"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	fs     afero.Fs
	engine *reconcile.Engine
	db     *gorm.DB
	suffix string
	logger *zap.Logger
}

// NewService creates a new integrity service. db may be nil when the journal
// is disabled.
func NewService(fs afero.Fs, engine *reconcile.Engine, db *gorm.DB, suffix string, logger *zap.Logger) *Service {
	if suffix == "" {
		suffix = asset.StagedSuffix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fs:     fs,
		engine: engine,
		db:     db,
		suffix: suffix,
		logger: logger,
	}
}

// CheckReferences plans a merge of req without applying it and reports the
// references the plan would leave dangling.
func (s *Service) CheckReferences(ctx context.Context, req reconcile.Request) (*checks.ReferenceReport, error) {
	plan, trees, err := s.engine.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	report, err := checks.CheckReferences(ctx, trees, plan.Decisions, checks.BuiltinIdentifiers)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Reference check complete",
		zap.String("run_id", plan.RunID),
		zap.Int("checked", report.Checked),
		zap.Int("rewritten", report.Rewritten),
		zap.Int("dangling", len(report.Dangling)))
	return report, nil
}

// CheckStaged returns the staged rewrites left below root.
func (s *Service) CheckStaged(root string) (*checks.StagedReport, error) {
	return checks.CheckStaged(s.fs, root, s.suffix)
}

// CheckJournal validates the journal schema.
func (s *Service) CheckJournal() (*checks.SchemaReport, error) {
	return checks.CheckJournalSchema(s.db)
}
