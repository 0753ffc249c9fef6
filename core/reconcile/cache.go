package reconcile

import (
	"context"
	"sync"
	"time"

	"asset-merger/core/identity"
	"asset-merger/core/typeindex"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

// IndexOptions configures how trees are indexed.
type IndexOptions struct {
	Identity identity.Options
	Types    typeindex.Options

	// TTL is the time-to-live of a cached tree.
	// If zero, a tree is indexed once and kept for the lifetime of the cache.
	TTL time.Duration
}

// IndexCache holds indexed trees keyed by root.
type IndexCache struct {
	fs    afero.Fs
	opts  IndexOptions
	mu    sync.RWMutex
	trees map[string]*Tree
	sf    singleflight.Group
}

// NewIndexCache creates an empty cache reading from fs.
func NewIndexCache(fs afero.Fs, opts IndexOptions) *IndexCache {
	return &IndexCache{
		fs:    fs,
		opts:  opts,
		trees: make(map[string]*Tree),
	}
}

func (c *IndexCache) expired(t *Tree) bool {
	if c.opts.TTL == 0 {
		return false
	}
	return time.Since(t.Built) > c.opts.TTL
}

// BuildTree indexes root without consulting the cache. The identity and type
// indices are built concurrently.
func BuildTree(ctx context.Context, fs afero.Fs, root string, opts IndexOptions) (*Tree, error) {
	var (
		ids      *identity.Database
		types    *typeindex.Database
		idErr    error
		typesErr error
		wg       sync.WaitGroup
	)

	wg.Add(2)

	// Build identity index
	go func() {
		defer wg.Done()
		ids, idErr = identity.Build(ctx, fs, root, opts.Identity)
	}()

	// Build type index
	go func() {
		defer wg.Done()
		types, typesErr = typeindex.Build(ctx, fs, root, opts.Types)
	}()

	wg.Wait()

	if idErr != nil {
		return nil, idErr
	}
	if typesErr != nil {
		return nil, typesErr
	}

	return &Tree{
		Root:  root,
		IDs:   ids,
		Types: types,
		Built: time.Now(),
	}, nil
}

// GetOrBuild returns the cached tree for root, indexing it if absent or
// expired. Concurrent calls for the same root share one build.
func (c *IndexCache) GetOrBuild(ctx context.Context, root string) (*Tree, error) {
	// Fast path: check if tree exists and is fresh
	c.mu.RLock()
	tree, exists := c.trees[root]
	c.mu.RUnlock()

	if exists && !c.expired(tree) {
		return tree, nil
	}

	// Slow path: build using singleflight to prevent stampedes
	result, err, _ := c.sf.Do(root, func() (interface{}, error) {
		c.mu.RLock()
		tree, exists := c.trees[root]
		c.mu.RUnlock()

		if exists && !c.expired(tree) {
			return tree, nil
		}

		built, err := BuildTree(ctx, c.fs, root, c.opts)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.trees[root] = built
		c.mu.Unlock()

		return built, nil
	})

	if err != nil {
		return nil, err
	}

	return result.(*Tree), nil
}

// Invalidate drops root from the cache.
func (c *IndexCache) Invalidate(root string) {
	c.mu.Lock()
	delete(c.trees, root)
	c.mu.Unlock()
}
