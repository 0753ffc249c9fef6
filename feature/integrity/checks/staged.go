package checks

import (
	"strings"

	"asset-merger/core/rewrite"

	"github.com/spf13/afero"
)

// StagedReport lists the staged rewrites left below a root.
type StagedReport struct {
	Root   string   `json:"root"`
	Staged []string `json:"staged"`
	// Orphaned are staged files whose original no longer exists.
	Orphaned []string `json:"orphaned"`
}

// Clean reports whether nothing is awaiting commit or rollback.
func (r *StagedReport) Clean() bool {
	return len(r.Staged) == 0
}

// CheckStaged returns the staged files below root.
func CheckStaged(fs afero.Fs, root, suffix string) (*StagedReport, error) {
	staged, err := rewrite.FindStaged(fs, root, suffix)
	if err != nil {
		return nil, err
	}

	report := &StagedReport{Root: root, Staged: []string{}, Orphaned: []string{}}
	for _, path := range staged {
		report.Staged = append(report.Staged, path)
		exists, err := afero.Exists(fs, strings.TrimSuffix(path, suffix))
		if err != nil {
			return nil, err
		}
		if !exists {
			report.Orphaned = append(report.Orphaned, path)
		}
	}
	return report, nil
}
