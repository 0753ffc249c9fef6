package identity

import (
	"context"
	"testing"

	"asset-merger/core/asset"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const barAsset = `%YAML 1.1
%TAG !u! tag:unity3d.com,2011:
--- !u!114 &11400000
MonoBehaviour:
  m_GameObject: {fileID: 0}
  m_Script: {fileID: 11500000, guid: G1, type: 3}
  m_Target: {fileID: 200}
--- !u!1 &200
GameObject:
  m_Icon: {fileID: 2800000, guid: GPNG, type: 3}
`

func newTree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func TestBuild_IndexesIdentitiesAndReferences(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/src/Foo.asset":      "--- !u!114 &11400000\nMonoBehaviour:\n  m_Name: Foo\n",
		"/src/Foo.asset.meta": "fileFormatVersion: 2\nguid: G1\n",
		"/src/Bar.asset":      barAsset,
		"/src/Bar.asset.meta": "fileFormatVersion: 2\nguid: GBAR\n",
		"/src/Icon.png":       "\x89PNG guid: nope",
		"/src/Icon.png.meta":  "guid: GPNG\n",
		"/src/Dir.meta":       "guid: GDIR\nfolderAsset: yes\n",
		"/src/Dir/Child.txt":  "no identity here",
	})

	db, err := Build(context.Background(), fs, "/src", Options{Workers: 2})
	require.NoError(t, err)

	guid, ok := db.GUID("/src/Foo.asset")
	require.True(t, ok)
	assert.Equal(t, asset.Identifier("G1"), guid)

	assert.Equal(t, []string{"/src/Bar.asset", "/src/Foo.asset", "/src/Foo.asset.meta"}, db.AssociatedFilePaths["G1"])
	assert.Equal(t, []string{"/src/Bar.asset", "/src/Icon.png", "/src/Icon.png.meta"}, db.AssociatedFilePaths["GPNG"])

	bar, ok := db.Record("GBAR")
	require.True(t, ok)
	require.Len(t, bar.Objects, 2)
	assert.Equal(t, asset.LocalID("11400000"), bar.Objects[0].LocalID)
	assert.Equal(t, []asset.Reference{{LocalID: "11500000", GUID: "G1", Kind: asset.KindProcessed}}, bar.Objects[0].References)
	assert.Equal(t, []asset.LocalID{"0", "200"}, bar.Objects[0].LocalMentions)
	assert.Equal(t, "1", bar.Objects[1].ClassTag)

	icon, ok := db.Record("GPNG")
	require.True(t, ok)
	assert.True(t, icon.Opaque)
	assert.Empty(t, icon.Objects)

	dir, ok := db.Record("GDIR")
	require.True(t, ok)
	assert.True(t, dir.Opaque, "folders are never scanned")

	require.Len(t, db.Skipped, 1)
	assert.Equal(t, "/src/Dir/Child.txt", db.Skipped[0].Path)
	assert.Equal(t, ErrMissingIdentity.Error(), db.Skipped[0].Reason)
}

func TestBuild_EveryIdentifierHasAssociatedPaths(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/src/A.asset":      "--- !u!1 &1\n",
		"/src/A.asset.meta": "guid: GA\n",
		"/src/B.mat":        "--- !u!21 &2100000\n  m_Shader: {fileID: 4800000, guid: GA, type: 3}\n",
		"/src/B.mat.meta":   "guid: GB\n",
	})

	db, err := Build(context.Background(), fs, "/src", Options{})
	require.NoError(t, err)

	for _, id := range db.Identifiers() {
		paths, ok := db.Associated(id)
		assert.True(t, ok, string(id))
		assert.NotEmpty(t, paths, string(id))
	}
}

func TestBuild_SkipsBrokenSidecarsAndDuplicates(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/src/A.asset":      "--- !u!1 &1\n",
		"/src/A.asset.meta": "guid: SAME\n",
		"/src/B.asset":      "--- !u!1 &1\n",
		"/src/B.asset.meta": "guid: SAME\n",
		"/src/C.asset.meta": "fileFormatVersion: 2\n",
	})

	db, err := Build(context.Background(), fs, "/src", Options{})
	require.NoError(t, err)

	rec, ok := db.Record("SAME")
	require.True(t, ok)
	assert.Equal(t, "/src/A.asset", rec.Path, "first sidecar in path order wins")

	reasons := map[string]string{}
	for _, s := range db.Skipped {
		reasons[s.Path] = s.Reason
	}
	assert.Contains(t, reasons["/src/B.asset.meta"], "duplicate guid")
	assert.Equal(t, "sidecar declares no guid", reasons["/src/C.asset.meta"])
	assert.Equal(t, ErrMissingIdentity.Error(), reasons["/src/B.asset"])
}

func TestBuild_CancelledContext(t *testing.T) {
	fs := newTree(t, map[string]string{
		"/src/A.asset":      "--- !u!1 &1\n",
		"/src/A.asset.meta": "guid: GA\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, fs, "/src", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_MissingRoot(t *testing.T) {
	_, err := Build(context.Background(), afero.NewMemMapFs(), "/nope", Options{})
	assert.Error(t, err)
}

func TestOptions_OpaqueSet(t *testing.T) {
	set := Options{OpaqueExtensions: []string{"PSB", ".raw", " "}}.OpaqueSet()
	assert.Contains(t, set, ".psb")
	assert.Contains(t, set, ".raw")
	assert.Contains(t, set, ".png")
	assert.NotContains(t, set, ".")
}
