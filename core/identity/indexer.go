package identity

import (
	"bufio"
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"asset-merger/core/asset"
	"asset-merger/core/scanner"
	"asset-merger/core/tree"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxLineBytes = 16 * 1024 * 1024

// DefaultOpaqueExtensions lists file roles whose content is never scanned nor rewritten.
var DefaultOpaqueExtensions = []string{
	// audio
	".wav", ".mp3", ".ogg", ".aif", ".aiff", ".flac", ".mod", ".it", ".s3m", ".xm",
	// video
	".mp4", ".mov", ".webm", ".avi", ".asf", ".mpg", ".mpeg", ".m4v", ".ogv",
	// images
	".png", ".jpg", ".jpeg", ".tga", ".psd", ".tif", ".tiff", ".exr", ".hdr", ".bmp", ".gif", ".iff", ".pict",
	// models and fonts
	".fbx", ".obj", ".blend", ".dae", ".3ds", ".max", ".ttf", ".otf",
	// compiled and binary payloads
	".dll", ".so", ".dylib", ".a", ".bundle", ".bytes", ".cso", ".spv", ".unitypackage", ".zip",
}

// Options controls Build.
type Options struct {
	// Workers bounds the number of files scanned concurrently; zero uses GOMAXPROCS.
	Workers int
	// Ignore are doublestar patterns excluded from the walk.
	Ignore []string
	// OpaqueExtensions are added to DefaultOpaqueExtensions.
	OpaqueExtensions []string
	// Scanner is the line matcher; nil constructs one.
	Scanner *scanner.Scanner
	// Logger receives skip diagnostics; nil discards them.
	Logger *zap.Logger
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// OpaqueSet returns the lower-case set of opaque extensions.
func (o Options) OpaqueSet() map[string]struct{} {
	set := make(map[string]struct{}, len(DefaultOpaqueExtensions)+len(o.OpaqueExtensions))
	for _, ext := range append(append([]string{}, DefaultOpaqueExtensions...), o.OpaqueExtensions...) {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

type sidecarResult struct {
	guid asset.Identifier
	err  error
}

type scanResult struct {
	objects    []asset.ObjectRecord
	referenced []asset.Identifier
	err        error
}

// Build walks root and produces its identity database.
func Build(ctx context.Context, fs afero.Fs, root string, opts Options) (*Database, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sc := opts.Scanner
	if sc == nil {
		sc = scanner.New()
	}
	opaque := opts.OpaqueSet()

	entries, err := tree.Walk(fs, root, tree.Options{Ignore: opts.Ignore})
	if err != nil {
		return nil, err
	}

	isDir := make(map[string]bool, len(entries))
	var sidecars, contents []string
	for _, e := range entries {
		isDir[e.Path] = e.IsDir
		switch {
		case e.IsDir:
		case tree.HasSidecarSuffix(e.Path):
			sidecars = append(sidecars, e.Path)
		default:
			contents = append(contents, e.Path)
		}
	}

	db := &Database{
		Root:                root,
		Assets:              make(map[asset.Identifier]*asset.AssetRecord),
		FilePathToGUID:      make(map[string]asset.Identifier),
		AssociatedFilePaths: make(map[asset.Identifier][]string),
	}
	associated := make(map[asset.Identifier]map[string]struct{})
	associate := func(id asset.Identifier, paths ...string) {
		set, ok := associated[id]
		if !ok {
			set = make(map[string]struct{})
			associated[id] = set
		}
		for _, p := range paths {
			set[p] = struct{}{}
		}
	}
	skip := func(path, reason string) {
		db.Skipped = append(db.Skipped, asset.Skip{Path: path, Reason: reason, Stage: asset.StageIdentity})
		log.Warn("Skipping file", zap.String("path", path), zap.String("reason", reason))
	}

	// Pass 1: sidecar identities.
	idResults := make([]sidecarResult, len(sidecars))
	if err := forEach(ctx, opts.workers(), len(sidecars), func(i int) {
		idResults[i] = readSidecar(fs, sc, sidecars[i])
	}); err != nil {
		return nil, err
	}

	for i, sidecar := range sidecars {
		res := idResults[i]
		if res.err != nil {
			skip(sidecar, res.err.Error())
			continue
		}
		path := tree.AssetPath(sidecar)
		if prev, dup := db.Assets[res.guid]; dup {
			skip(sidecar, fmt.Sprintf("duplicate guid %s already declared by %s", res.guid, prev.SidecarPath))
			continue
		}
		_, opaqueExt := opaque[tree.Ext(path)]
		db.Assets[res.guid] = &asset.AssetRecord{
			GUID:        res.guid,
			Path:        path,
			SidecarPath: sidecar,
			Opaque:      opaqueExt || isDir[path],
			Folder:      isDir[path],
		}
		db.FilePathToGUID[path] = res.guid
		associate(res.guid, path, sidecar)
	}

	// Pass 2: object-bearing files.
	var scanPaths []string
	for _, path := range contents {
		if _, ok := opaque[tree.Ext(path)]; ok {
			continue
		}
		if _, ok := db.FilePathToGUID[path]; !ok {
			skip(path, ErrMissingIdentity.Error())
			continue
		}
		scanPaths = append(scanPaths, path)
	}

	scans := make([]scanResult, len(scanPaths))
	if err := forEach(ctx, opts.workers(), len(scanPaths), func(i int) {
		scans[i] = scanFile(fs, sc, scanPaths[i])
	}); err != nil {
		return nil, err
	}

	for i, path := range scanPaths {
		res := scans[i]
		if res.err != nil {
			skip(path, res.err.Error())
			continue
		}
		guid := db.FilePathToGUID[path]
		db.Assets[guid].Objects = res.objects
		for _, ref := range res.referenced {
			associate(ref, path)
		}
	}

	// Freeze.
	for id, set := range associated {
		paths := make([]string, 0, len(set))
		for p := range set {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		db.AssociatedFilePaths[id] = paths
	}

	stats := db.Stats()
	log.Info("Identity index built",
		zap.String("root", root),
		zap.Int("assets", stats.Assets),
		zap.Int("objects", stats.Objects),
		zap.Int("references", stats.References),
		zap.Int("skipped", stats.Skipped),
	)
	return db, nil
}

// forEach runs fn for every index in [0,n) on a bounded worker pool. Only
// context cancellation is reported as an error.
func forEach(ctx context.Context, workers, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func readSidecar(fs afero.Fs, sc *scanner.Scanner, path string) sidecarResult {
	f, err := fs.Open(path)
	if err != nil {
		return sidecarResult{err: fmt.Errorf("failed to open sidecar: %w", err)}
	}
	defer f.Close()

	lines := newLineScanner(f)
	for lines.Scan() {
		if id, ok := sc.MatchIdentity(lines.Text()); ok {
			return sidecarResult{guid: id}
		}
	}
	if err := lines.Err(); err != nil {
		return sidecarResult{err: fmt.Errorf("failed to read sidecar: %w", err)}
	}
	return sidecarResult{err: fmt.Errorf("sidecar declares no guid")}
}

func scanFile(fs afero.Fs, sc *scanner.Scanner, path string) scanResult {
	f, err := fs.Open(path)
	if err != nil {
		return scanResult{err: fmt.Errorf("failed to open: %w", err)}
	}
	defer f.Close()

	var (
		objects    []asset.ObjectRecord
		cur        *asset.ObjectRecord
		seenObject = make(map[asset.LocalID]struct{})
		referenced = make(map[asset.Identifier]struct{})
	)
	flush := func() {
		if cur != nil {
			objects = append(objects, *cur)
			cur = nil
		}
	}

	lines := newLineScanner(f)
	for lines.Scan() {
		line := lines.Text()

		if strings.HasPrefix(line, "--- ") {
			flush()
			if h, ok := sc.MatchObjectHeader(line); ok {
				if _, dup := seenObject[h.LocalID]; !dup {
					seenObject[h.LocalID] = struct{}{}
					cur = &asset.ObjectRecord{ClassTag: h.ClassTag, LocalID: h.LocalID}
				}
			}
			continue
		}

		for _, m := range sc.FindTypedReferences(line) {
			referenced[m.Reference.GUID] = struct{}{}
			if cur != nil {
				cur.References = append(cur.References, m.Reference)
			}
		}
		if cur != nil {
			cur.LocalMentions = append(cur.LocalMentions, sc.FindLocalReferences(line)...)
		}
	}
	if err := lines.Err(); err != nil {
		return scanResult{err: fmt.Errorf("failed to scan: %w", err)}
	}
	flush()

	refs := make([]asset.Identifier, 0, len(referenced))
	for id := range referenced {
		refs = append(refs, id)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return scanResult{objects: objects, referenced: refs}
}

func newLineScanner(f afero.File) *bufio.Scanner {
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 64*1024), maxLineBytes)
	return s
}
