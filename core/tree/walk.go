// Package tree enumerates the files of an asset tree deterministically.
package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"asset-merger/core/asset"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// defaultIgnores are always excluded from a walk.
var defaultIgnores = []string{
	"**/.git/**",
	"**/.DS_Store",
	"**/*~",
	"**/*" + asset.StagedSuffix,
}

// Options controls a walk.
type Options struct {
	// Ignore are doublestar patterns matched against root-relative slash paths.
	Ignore []string
}

// Entry is one walked path.
type Entry struct {
	// Path is root joined with the relative path, in slash form.
	Path  string
	Rel   string
	IsDir bool
	Size  int64
}

// Walk returns every entry below root (root excluded), sorted by path. The sort
// makes every first-wins reduction downstream reproducible.
func Walk(fs afero.Fs, root string, opts Options) ([]Entry, error) {
	info, err := fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	patterns := append(append([]string{}, defaultIgnores...), opts.Ignore...)
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pat)
		}
	}

	var entries []Entry
	err = afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if ignored(patterns, rel, fi.IsDir()) {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		entries = append(entries, Entry{
			Path:  filepath.ToSlash(path),
			Rel:   rel,
			IsDir: fi.IsDir(),
			Size:  fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

func ignored(patterns []string, rel string, isDir bool) bool {
	candidates := []string{rel}
	if isDir {
		candidates = append(candidates, rel+"/")
	}
	for _, pat := range patterns {
		for _, c := range candidates {
			if matched, err := doublestar.Match(pat, c); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// HasSidecarSuffix reports whether path names a sidecar identity file.
func HasSidecarSuffix(path string) bool {
	return strings.HasSuffix(path, asset.SidecarSuffix)
}

// AssetPath strips the sidecar suffix from a sidecar path.
func AssetPath(sidecar string) string {
	return strings.TrimSuffix(sidecar, asset.SidecarSuffix)
}

// Ext returns the lower-case extension of path including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
