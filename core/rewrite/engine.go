// Package rewrite applies a finalized decision set to a tree.
//
// Every file associated with a superseded identifier is read once, rewritten
// line by line and written to a staged sibling (path + staged suffix). The
// originals are never modified here; Commit promotes staged files and Rollback
// discards them.
//
// A line is only inspected when it contains one of the superseded tokens (fast
// path). Matching lines go through the typed-reference pattern (slow path): a
// matched {fileID, guid, type} triple is rewritten field by field, and any other
// occurrence of the token, such as a sidecar "guid:" line, is substituted in
// place. Superseded identifiers are resolved through the whole decision set to
// their final target so that a second run finds nothing left to change.
package rewrite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"asset-merger/core/asset"
	"asset-merger/core/identity"
	"asset-merger/core/scanner"
	"asset-merger/core/tree"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrBinaryContent is recorded for files whose content must never be rewritten.
var ErrBinaryContent = errors.New("refusing to rewrite binary content")

// binarySniffLen is how much of a file is checked for NUL bytes.
const binarySniffLen = 8000

// Options controls Apply.
type Options struct {
	Workers int
	// OpaqueExtensions are added to identity.DefaultOpaqueExtensions.
	OpaqueExtensions []string
	// StagedSuffix names staged files; empty uses asset.StagedSuffix.
	StagedSuffix string
	// KeepDeclarations leaves the sidecar that declares a superseded identifier
	// untouched. Only references to it are rewritten.
	KeepDeclarations bool
	Scanner          *scanner.Scanner
	Logger           *zap.Logger
}

func (o Options) suffix() string {
	if o.StagedSuffix != "" {
		return o.StagedSuffix
	}
	return asset.StagedSuffix
}

// Report summarizes one Apply run.
type Report struct {
	// Acted are the superseded identifiers that had associated files.
	Acted []asset.Identifier `json:"acted"`
	// NoOps are the superseded identifiers without associated files.
	NoOps []asset.Identifier `json:"no_ops,omitempty"`
	// Rewritten are the original paths whose content changed.
	Rewritten []string `json:"rewritten"`
	// Staged are the staged paths written for Rewritten, in the same order.
	Staged    []string     `json:"staged"`
	Unchanged int          `json:"unchanged"`
	Refused   []asset.Skip `json:"refused,omitempty"`
	Failed    []asset.Skip `json:"failed,omitempty"`
}

// Complete reports whether every staged write succeeded. An incomplete report
// must not be committed.
func (r *Report) Complete() bool {
	return len(r.Failed) == 0
}

type fileOutcome struct {
	changed bool
	staged  string
	refused error
	failed  error
}

// Apply rewrites every file associated with a superseded identifier of db.
// Per-file failures are reported, not returned; only cancellation is an error.
func Apply(ctx context.Context, fs afero.Fs, db *identity.Database, decisions []asset.Decision, opts Options) (*Report, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sc := opts.Scanner
	if sc == nil {
		sc = scanner.New()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	opaque := identity.Options{OpaqueExtensions: opts.OpaqueExtensions}.OpaqueSet()
	res := NewResolver(decisions)

	report := &Report{}

	// group decisions by file so each file is rewritten exactly once
	byFile := make(map[string][]asset.Identifier)
	for _, from := range res.Sources() {
		paths, ok := db.Associated(from)
		if !ok || len(paths) == 0 {
			report.NoOps = append(report.NoOps, from)
			log.Debug("Decision has no associated files", zap.String("from", string(from)))
			continue
		}
		report.Acted = append(report.Acted, from)
		declaring := ""
		if rec, ok := db.Assets[from]; ok && opts.KeepDeclarations {
			declaring = rec.SidecarPath
		}
		for _, p := range paths {
			if p == declaring {
				continue
			}
			byFile[p] = append(byFile[p], from)
		}
	}

	files := make([]string, 0, len(byFile))
	for p := range byFile {
		files = append(files, p)
	}
	sort.Strings(files)

	outcomes := make([]fileOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = rewriteFile(fs, sc, res, opaque, path, byFile[path], opts.suffix())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, path := range files {
		out := outcomes[i]
		switch {
		case out.failed != nil:
			report.Failed = append(report.Failed, asset.Skip{Path: path, Reason: out.failed.Error(), Stage: asset.StageRewrite})
			log.Error("Failed to stage rewrite", zap.String("path", path), zap.Error(out.failed))
		case out.refused != nil:
			report.Refused = append(report.Refused, asset.Skip{Path: path, Reason: out.refused.Error(), Stage: asset.StageRewrite})
			log.Warn("Skipping file", zap.String("path", path), zap.String("reason", out.refused.Error()))
		case out.changed:
			report.Rewritten = append(report.Rewritten, path)
			report.Staged = append(report.Staged, out.staged)
		default:
			report.Unchanged++
		}
	}

	log.Info("Rewrite staged",
		zap.Int("acted", len(report.Acted)),
		zap.Int("no_ops", len(report.NoOps)),
		zap.Int("rewritten", len(report.Rewritten)),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("refused", len(report.Refused)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func rewriteFile(fs afero.Fs, sc *scanner.Scanner, res *Resolver, opaque map[string]struct{}, path string, froms []asset.Identifier, suffix string) fileOutcome {
	info, err := fs.Stat(path)
	if err != nil {
		return fileOutcome{failed: fmt.Errorf("failed to stat: %w", err)}
	}
	if info.IsDir() {
		return fileOutcome{}
	}
	if _, ok := opaque[tree.Ext(path)]; ok {
		return fileOutcome{refused: ErrBinaryContent}
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return fileOutcome{failed: fmt.Errorf("failed to read: %w", err)}
	}
	if bytes.IndexByte(content[:min(len(content), binarySniffLen)], 0) >= 0 {
		return fileOutcome{refused: ErrBinaryContent}
	}

	out, changed := RewriteContent(sc, res, froms, string(content))
	if !changed {
		return fileOutcome{}
	}

	staged := path + suffix
	if err := afero.WriteFile(fs, staged, []byte(out), info.Mode().Perm()); err != nil {
		return fileOutcome{failed: fmt.Errorf("failed to write %s: %w", staged, err)}
	}
	return fileOutcome{changed: true, staged: staged}
}

// RewriteContent rewrites every line of content that mentions one of froms.
// Line terminators are preserved.
func RewriteContent(sc *scanner.Scanner, res *Resolver, froms []asset.Identifier, content string) (string, bool) {
	var (
		b       strings.Builder
		changed bool
	)
	b.Grow(len(content))
	for _, line := range strings.SplitAfter(content, "\n") {
		next := rewriteLine(sc, res, froms, line)
		if next != line {
			changed = true
		}
		b.WriteString(next)
	}
	if !changed {
		return content, false
	}
	return b.String(), true
}

func rewriteLine(sc *scanner.Scanner, res *Resolver, froms []asset.Identifier, line string) string {
	// fast path
	hit := false
	for _, from := range froms {
		if strings.Contains(line, string(from)) {
			hit = true
			break
		}
	}
	if !hit {
		return line
	}

	// slow path
	line = scanner.ReplaceAll(line, sc.FindTypedReferences(line), func(m scanner.Match) (asset.Reference, bool) {
		d, ok := res.Resolve(m.Reference.GUID)
		if !ok {
			return asset.Reference{}, false
		}
		ref := m.Reference
		ref.GUID = d.To
		if !d.HasReplacementTriple() {
			return ref, true
		}
		if d.LocalID != "" {
			ref.LocalID = d.LocalID
		}
		if d.Kind != 0 {
			ref.Kind = d.Kind
		}
		return ref, true
	})
	for _, from := range froms {
		d, ok := res.Resolve(from)
		if !ok {
			continue
		}
		line = replaceToken(line, string(from), string(d.To))
	}
	return line
}

// replaceToken substitutes whole-token occurrences of from. An occurrence
// embedded in a longer identifier is left alone.
func replaceToken(line, from, to string) string {
	if from == "" || !strings.Contains(line, from) {
		return line
	}
	var b strings.Builder
	rest := line
	for {
		i := strings.Index(rest, from)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		end := i + len(from)
		before := len(line) - len(rest) + i
		if isTokenByte(line, before-1) || isTokenByte(line, before+len(from)) {
			b.WriteString(rest[:end])
		} else {
			b.WriteString(rest[:i])
			b.WriteString(to)
		}
		rest = rest[end:]
	}
	return b.String()
}

func isTokenByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c == '_' || c == '-' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
