package journal

import (
	"context"
	"errors"
	"testing"

	"asset-merger/core/asset"
	"asset-merger/core/database"
	"asset-merger/core/reconcile"
	"asset-merger/core/rewrite"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   "file:journal_" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func sampleResult(runID string) *reconcile.Result {
	return &reconcile.Result{
		Plan: &reconcile.Plan{
			RunID:   runID,
			Source:  "/src",
			Targets: []string{"/tgt", "/lib"},
			Decisions: []asset.Decision{
				{From: "G1", To: "G2", Origin: reconcile.OriginType, Reason: "type Game.Foo"},
				{From: "GDLL", To: "GSRC", LocalID: "11500000", Kind: asset.KindProcessed, Origin: reconcile.OriginSupplied},
			},
			Dropped: []reconcile.DroppedDecision{
				{Decision: asset.Decision{From: "G3", To: "G3"}, Reason: reconcile.DropSelf},
			},
			Skipped: []asset.Skip{{Path: "/src/x.cs", Reason: "missing identity", Stage: asset.StageTypes}},
		},
		Applied: true,
		Rewrites: map[string]*rewrite.Report{
			"/src": {
				Acted:     []asset.Identifier{"G1"},
				Rewritten: []string{"/src/Bar.asset"},
				Staged:    []string{"/src/Bar.asset.merge-staged"},
				Refused:   []asset.Skip{{Path: "/src/tex.png", Reason: "binary", Stage: asset.StageRewrite}},
			},
			"/tgt": {},
		},
		Exclusions: &reconcile.Exclusions{
			Files:   []string{"/src/Foo.cs", "/src/Foo.cs.meta"},
			Folders: []string{"/src/Old"},
		},
	}
}

func TestJournal_RecordAndRead(t *testing.T) {
	j := New(setupSQLite(t), nil)
	require.NoError(t, j.Migrate())

	ctx := context.Background()
	require.NoError(t, j.Record(ctx, sampleResult("run-1")))

	runs, err := j.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "/tgt\n/lib", run.Targets)
	assert.Equal(t, 2, run.Accepted)
	assert.Equal(t, 1, run.Dropped)
	assert.Equal(t, 2, run.Skipped)
	assert.Equal(t, 1, run.Staged)
	assert.True(t, run.Applied)
	assert.True(t, run.Complete)

	decisions, err := j.Decisions(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, decisions, 3)
	assert.Equal(t, StatusAccepted, decisions[0].Status)
	assert.Equal(t, "G2", decisions[0].To)
	assert.Equal(t, "11500000", decisions[1].LocalID)
	assert.Equal(t, 3, decisions[1].Kind)
	assert.Equal(t, reconcile.DropSelf, decisions[2].Status)

	var exclusions []ExclusionRow
	require.NoError(t, j.db.Where("run_id = ?", "run-1").Order("id").Find(&exclusions).Error)
	require.Len(t, exclusions, 3)
	assert.True(t, exclusions[2].Folder)
}

func TestJournal_RecordRejectsMissingRunID(t *testing.T) {
	j := New(setupSQLite(t), nil)
	require.NoError(t, j.Migrate())
	assert.ErrorContains(t, j.Record(context.Background(), sampleResult("")), "no run id")
	assert.ErrorContains(t, j.Record(context.Background(), nil), "no run id")
}

func TestJournal_NoDatabase(t *testing.T) {
	j := New(nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, j.Migrate(), ErrNoDatabase)
	assert.ErrorIs(t, j.Record(ctx, sampleResult("x")), ErrNoDatabase)
	_, err := j.Runs(ctx, 0)
	assert.ErrorIs(t, err, ErrNoDatabase)
	_, err = j.Decisions(ctx, "x")
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestJournal_TransactionFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	err := New(db, nil).Record(context.Background(), sampleResult("run-2"))
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_InsertRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `merge_runs`").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := New(db, nil).Record(context.Background(), sampleResult("run-3"))
	assert.ErrorContains(t, err, "failed to insert run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModels(t *testing.T) {
	names := []string{}
	for _, m := range Models() {
		names = append(names, m.(interface{ TableName() string }).TableName())
	}
	assert.Equal(t, []string{"merge_runs", "merge_decisions", "merge_skips", "merge_exclusions"}, names)
}
