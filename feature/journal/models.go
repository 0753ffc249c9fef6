package journal

import (
	"time"
)

// RunRow is one recorded merge run.
type RunRow struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	Source    string    `gorm:"column:source;type:varchar(1024)"`
	Targets   string    `gorm:"column:targets;type:text"`
	Accepted  int       `gorm:"column:accepted"`
	Dropped   int       `gorm:"column:dropped"`
	Skipped   int       `gorm:"column:skipped"`
	Staged    int       `gorm:"column:staged"`
	Failed    int       `gorm:"column:failed"`
	Applied   bool      `gorm:"column:applied"`
	Complete  bool      `gorm:"column:complete"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (RunRow) TableName() string {
	return "merge_runs"
}

// DecisionRow is one accepted or dropped decision of a run.
type DecisionRow struct {
	ID      uint   `gorm:"primaryKey;column:id"`
	RunID   string `gorm:"column:run_id;type:varchar(36);index"`
	From    string `gorm:"column:from_guid;type:varchar(64)"`
	To      string `gorm:"column:to_guid;type:varchar(64)"`
	LocalID string `gorm:"column:local_id;type:varchar(32)"`
	Kind    int    `gorm:"column:kind"`
	Origin  string `gorm:"column:origin;type:varchar(32)"`
	Reason  string `gorm:"column:reason;type:text"`
	// Status is "accepted" or one of the drop reasons.
	Status string `gorm:"column:status;type:varchar(16)"`
}

func (DecisionRow) TableName() string {
	return "merge_decisions"
}

// SkipRow is one skipped file of a run.
type SkipRow struct {
	ID     uint   `gorm:"primaryKey;column:id"`
	RunID  string `gorm:"column:run_id;type:varchar(36);index"`
	Path   string `gorm:"column:path;type:varchar(1024)"`
	Stage  string `gorm:"column:stage;type:varchar(16)"`
	Reason string `gorm:"column:reason;type:text"`
}

func (SkipRow) TableName() string {
	return "merge_skips"
}

// ExclusionRow is one excluded source path of a run.
type ExclusionRow struct {
	ID     uint   `gorm:"primaryKey;column:id"`
	RunID  string `gorm:"column:run_id;type:varchar(36);index"`
	Path   string `gorm:"column:path;type:varchar(1024)"`
	Folder bool   `gorm:"column:folder"`
}

func (ExclusionRow) TableName() string {
	return "merge_exclusions"
}

// Models returns every journal model, in migration order.
func Models() []any {
	return []any{&RunRow{}, &DecisionRow{}, &SkipRow{}, &ExclusionRow{}}
}
