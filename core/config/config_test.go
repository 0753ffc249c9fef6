package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ".merge-staged", cfg.Merge.StagedSuffix)
	assert.Equal(t, 4096, cfg.Merge.HashCacheSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, "sqlite", cfg.Journal.Driver)
	assert.Equal(t, 30, cfg.Journal.TimeoutSeconds)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "reports/", cfg.Storage.Prefix)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MERGE_WORKERS", "6")
	t.Setenv("MERGE_IGNORE", "Temp/**,Library/**")
	t.Setenv("JOURNAL_DRIVER", "mysql")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Merge.Workers)
	assert.Equal(t, []string{"Temp/**", "Library/**"}, cfg.Merge.Ignore)
	assert.Equal(t, "mysql", cfg.Journal.Driver)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\nSTORAGE_BUCKET=nightly\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("STORAGE_BUCKET")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "nightly", cfg.Storage.Bucket)
}

func TestLoadConfig_InvalidMerge(t *testing.T) {
	t.Setenv("MERGE_STAGED_SUFFIX", "staged")

	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "must start with a dot")
}
