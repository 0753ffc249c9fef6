package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"asset-merger/core/reconcile"

	"github.com/spf13/afero"
)

// Document is the serialized form of one run.
type Document struct {
	RunID     string            `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	Complete  bool              `json:"complete"`
	Result    *reconcile.Result `json:"result"`
}

// NewDocument wraps a run result for serialization.
func NewDocument(result *reconcile.Result, now time.Time) *Document {
	doc := &Document{CreatedAt: now.UTC(), Result: result, Complete: result.Complete()}
	if result.Plan != nil {
		doc.RunID = result.Plan.RunID
	}
	return doc
}

// ReportName returns the file name of a report written at now.
func ReportName(now time.Time) string {
	return fmt.Sprintf("merge_report_%d.json", now.Unix())
}

// ExclusionsName returns the file name of an exclusion list written at now.
func ExclusionsName(now time.Time) string {
	return fmt.Sprintf("merge_exclusions_%d.txt", now.Unix())
}

// Marshal encodes the document as indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}

// WriteReport writes the JSON report of result into dir and returns its path.
func WriteReport(fs afero.Fs, dir string, result *reconcile.Result, now time.Time) (string, error) {
	data, err := NewDocument(result, now).Marshal()
	if err != nil {
		return "", err
	}
	return write(fs, dir, ReportName(now), data)
}

// WriteExclusions writes one excluded path per line into dir and returns its
// path. Folders carry a trailing slash.
func WriteExclusions(fs afero.Fs, dir string, ex *reconcile.Exclusions, now time.Time) (string, error) {
	var b strings.Builder
	if ex != nil {
		for _, p := range ex.Files {
			b.WriteString(p)
			b.WriteByte('\n')
		}
		for _, p := range ex.Folders {
			b.WriteString(strings.TrimSuffix(p, "/"))
			b.WriteString("/\n")
		}
	}
	return write(fs, dir, ExclusionsName(now), []byte(b.String()))
}

func write(fs afero.Fs, dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
