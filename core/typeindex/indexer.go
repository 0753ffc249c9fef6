package typeindex

import (
	"context"
	"fmt"
	"runtime"

	"asset-merger/core/asset"
	"asset-merger/core/tree"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	sourceExt = ".cs"
	shaderExt = ".shader"
)

// Options controls Build.
type Options struct {
	Workers int
	Ignore  []string
	// Parser is shared by all workers; nil constructs one.
	Parser *Parser
	Logger *zap.Logger
}

type fileResult struct {
	decls  []Declaration
	shader string
	err    error
}

// Build walks root and produces its type database.
func Build(ctx context.Context, fs afero.Fs, root string, opts Options) (*Database, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	parser := opts.Parser
	if parser == nil {
		parser = NewParser()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	entries, err := tree.Walk(fs, root, tree.Options{Ignore: opts.Ignore})
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		if ext := tree.Ext(e.Path); ext == sourceExt || ext == shaderExt {
			paths = append(paths, e.Path)
		}
	}

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = parseFile(fs, parser, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db := &Database{
		Root:    root,
		Types:   make(map[string]string),
		Shaders: make(map[string][]string),
	}
	for i, path := range paths {
		res := results[i]
		if res.err != nil {
			db.Skipped = append(db.Skipped, asset.Skip{Path: path, Reason: res.err.Error(), Stage: asset.StageTypes})
			log.Warn("Skipping file", zap.String("path", path), zap.String("reason", res.err.Error()))
			continue
		}
		for _, d := range res.decls {
			if kept, dup := db.Types[d.Name]; dup {
				if kept == path {
					continue
				}
				db.Collisions = append(db.Collisions, Collision{Name: d.Name, Kept: kept, Rejected: path})
				log.Warn("Type declared twice",
					zap.String("name", d.Name),
					zap.String("kept", kept),
					zap.String("path", path),
				)
				continue
			}
			db.Types[d.Name] = path
		}
		if res.shader != "" {
			db.Shaders[res.shader] = append(db.Shaders[res.shader], path)
		}
	}

	log.Info("Type index built",
		zap.String("root", root),
		zap.Int("types", len(db.Types)),
		zap.Int("shaders", len(db.Shaders)),
		zap.Int("collisions", len(db.Collisions)),
		zap.Int("skipped", len(db.Skipped)),
	)
	return db, nil
}

func parseFile(fs afero.Fs, parser *Parser, path string) fileResult {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return fileResult{err: fmt.Errorf("failed to read: %w", err)}
	}
	if tree.Ext(path) == shaderExt {
		name, ok, err := parser.ParseShader(path, src)
		if err != nil {
			return fileResult{err: fmt.Errorf("failed to parse shader: %w", err)}
		}
		if !ok {
			return fileResult{}
		}
		return fileResult{shader: name}
	}
	decls, err := parser.ParseSource(path, src)
	if err != nil {
		return fileResult{err: fmt.Errorf("failed to parse source: %w", err)}
	}
	return fileResult{decls: decls}
}
