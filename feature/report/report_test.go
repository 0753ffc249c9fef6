package report

import (
	"encoding/json"
	"testing"
	"time"

	"asset-merger/core/asset"
	"asset-merger/core/reconcile"
	"asset-merger/core/rewrite"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *reconcile.Result {
	return &reconcile.Result{
		Plan: &reconcile.Plan{
			RunID:     "run-1",
			Source:    "/src",
			Targets:   []string{"/tgt"},
			Decisions: []asset.Decision{{From: "G1", To: "G2", Origin: reconcile.OriginType}},
		},
		Applied:  true,
		Rewrites: map[string]*rewrite.Report{"/src": {Acted: []asset.Identifier{"G1"}}},
		Exclusions: &reconcile.Exclusions{
			Files:   []string{"/src/Foo.cs", "/src/Foo.cs.meta"},
			Folders: []string{"/src/Old"},
		},
	}
}

func TestWriteReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Unix(1700000000, 0)

	path, err := WriteReport(fs, "/out", sampleResult(), now)
	require.NoError(t, err)
	assert.Equal(t, "/out/merge_report_1700000000.json", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	var doc struct {
		RunID    string `json:"run_id"`
		Complete bool   `json:"complete"`
		Result   struct {
			Applied bool `json:"applied"`
			Plan    struct {
				Decisions []asset.Decision `json:"decisions"`
			} `json:"plan"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "run-1", doc.RunID)
	assert.True(t, doc.Complete)
	assert.True(t, doc.Result.Applied)
	assert.Equal(t, asset.Identifier("G2"), doc.Result.Plan.Decisions[0].To)
}

func TestWriteExclusions(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Unix(1700000000, 0)

	path, err := WriteExclusions(fs, "", sampleResult().Exclusions, now)
	require.NoError(t, err)
	assert.Equal(t, "merge_exclusions_1700000000.txt", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "/src/Foo.cs\n/src/Foo.cs.meta\n/src/Old/\n", string(data))

	path, err = WriteExclusions(fs, "/out", nil, now)
	require.NoError(t, err)
	data, err = afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestWriteReport_ReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	_, err := WriteReport(fs, "/out", sampleResult(), time.Now())
	assert.ErrorContains(t, err, "failed to create output directory")
}
