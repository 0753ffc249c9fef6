package reconcile

import (
	"fmt"
	"strings"

	"asset-merger/core/asset"
	"asset-merger/core/duplicate"
	"asset-merger/core/identity"
	"asset-merger/core/rewrite"
	"asset-merger/core/typeindex"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Config holds configuration for merge runs.
type Config struct {
	// Workers bounds per-tree file parallelism; zero uses GOMAXPROCS.
	Workers int `mapstructure:"workers" default:"0"`
	// Ignore are doublestar patterns excluded from every tree walk.
	Ignore []string `mapstructure:"ignore" default:""`
	// OpaqueExtensions extend the built-in list of never-rewritten file roles.
	OpaqueExtensions []string `mapstructure:"opaque_extensions" default:""`
	// StagedSuffix names staged rewrites.
	StagedSuffix string `mapstructure:"staged_suffix" default:".merge-staged"`
	// HashCacheSize bounds the duplicate detector's content hash cache.
	HashCacheSize int `mapstructure:"hash_cache_size" default:"4096"`
	// OutputDir receives exclusion lists and reports.
	OutputDir string `mapstructure:"output_dir" default:"."`
}

// Validate checks the configured patterns and suffix.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("merge.workers must not be negative")
	}
	if c.StagedSuffix != "" && !strings.HasPrefix(c.StagedSuffix, ".") {
		return fmt.Errorf("merge.staged_suffix %q must start with a dot", c.StagedSuffix)
	}
	if c.StagedSuffix == asset.SidecarSuffix {
		return fmt.Errorf("merge.staged_suffix must differ from the sidecar suffix")
	}
	for _, pat := range c.Ignore {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("merge.ignore: invalid pattern %q", pat)
		}
	}
	return nil
}

// Suffix returns the staged suffix, defaulting to asset.StagedSuffix.
func (c Config) Suffix() string {
	if c.StagedSuffix == "" {
		return asset.StagedSuffix
	}
	return c.StagedSuffix
}

// EngineOptions derives the options of every pipeline stage.
func (c Config) EngineOptions(log *zap.Logger) EngineOptions {
	ignore := append([]string{}, c.Ignore...)
	if suffix := c.Suffix(); suffix != asset.StagedSuffix {
		ignore = append(ignore, "**/*"+suffix)
	}
	return EngineOptions{
		Index: IndexOptions{
			Identity: identity.Options{
				Workers:          c.Workers,
				Ignore:           ignore,
				OpaqueExtensions: c.OpaqueExtensions,
				Logger:           log,
			},
			Types: typeindex.Options{
				Workers: c.Workers,
				Ignore:  ignore,
				Logger:  log,
			},
		},
		Rewrite: rewrite.Options{
			Workers:          c.Workers,
			OpaqueExtensions: c.OpaqueExtensions,
			StagedSuffix:     c.Suffix(),
			Logger:           log,
		},
		Duplicate: duplicate.Options{
			CacheSize: c.HashCacheSize,
			Logger:    log,
		},
		Logger: log,
	}
}
