package rewrite

import (
	"testing"

	"asset-merger/core/asset"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingLifecycle(t *testing.T) {
	fs := afero.NewMemMapFs()
	for path, content := range map[string]string{
		"/src/a.asset":                  "old a",
		"/src/a.asset.merge-staged":     "new a",
		"/src/sub/b.asset":              "old b",
		"/src/sub/b.asset.merge-staged": "new b",
	} {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	staged, err := FindStaged(fs, "/src", asset.StagedSuffix)
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/a.asset.merge-staged", "/src/sub/b.asset.merge-staged"}, staged)

	require.NoError(t, Rollback(fs, staged[1:]))
	require.NoError(t, Commit(fs, asset.StagedSuffix, staged[:1]))

	assert.Equal(t, "new a", readFile(t, fs, "/src/a.asset"))
	assert.Equal(t, "old b", readFile(t, fs, "/src/sub/b.asset"))

	left, err := FindStaged(fs, "/src", asset.StagedSuffix)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestCommit_RejectsUnstagedPaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a.asset", []byte("a"), 0o644))

	err := Commit(fs, asset.StagedSuffix, []string{"/src/a.asset"})
	assert.ErrorContains(t, err, "is not a staged file")
	assert.Equal(t, "a", readFile(t, fs, "/src/a.asset"))
}

func TestFindStaged_MissingRoot(t *testing.T) {
	_, err := FindStaged(afero.NewMemMapFs(), "/nope", asset.StagedSuffix)
	assert.Error(t, err)
}
