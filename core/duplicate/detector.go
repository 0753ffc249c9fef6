// Package duplicate finds byte-identical shader files declared under the same
// lookup name and turns them into merge decisions toward the canonical file.
package duplicate

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"asset-merger/core/asset"
	"asset-merger/core/identity"
	"asset-merger/core/typeindex"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Origin is recorded on every decision emitted by the detector.
const Origin = "duplicate"

const defaultCacheSize = 4096

// Options controls a Detector.
type Options struct {
	// CacheSize bounds the content hash cache; zero uses a default.
	CacheSize int
	Logger    *zap.Logger
}

// digest is valid only while the file keeps its size and modification time.
type digest struct {
	size    int64
	modTime time.Time
	sum     uint64
}

// Detector compares the files of one shader group. It is safe for concurrent use.
type Detector struct {
	fs     afero.Fs
	hashes *lru.Cache[string, digest]
	logger *zap.Logger
}

// New creates a Detector reading from fs.
func New(fs afero.Fs, opts Options) (*Detector, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, digest](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create hash cache: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Detector{fs: fs, hashes: cache, logger: log}, nil
}

// Detect returns one decision per duplicate file: the duplicate's identifier is
// superseded by the identifier of the first file of its group. Groups are
// visited in name order and files in path order.
func (d *Detector) Detect(ctx context.Context, types *typeindex.Database, ids *identity.Database) ([]asset.Decision, []asset.Skip, error) {
	var (
		decisions []asset.Decision
		skipped   []asset.Skip
	)
	skip := func(path, reason string) {
		skipped = append(skipped, asset.Skip{Path: path, Reason: reason, Stage: asset.StagePlan})
		d.logger.Debug("Skipping duplicate candidate", zap.String("path", path), zap.String("reason", reason))
	}

	for _, name := range types.ShaderNames() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		paths := types.Shaders[name]
		if len(paths) < 2 {
			continue
		}

		canonical := paths[0]
		canonicalID, ok := ids.GUID(canonical)
		if !ok {
			skip(canonical, identity.ErrMissingIdentity.Error())
			continue
		}
		canonicalDigest, canonicalContent, err := d.read(canonical)
		if err != nil {
			skip(canonical, err.Error())
			continue
		}

		for _, path := range paths[1:] {
			same, err := d.identical(path, canonicalDigest, canonicalContent)
			if err != nil {
				skip(path, err.Error())
				continue
			}
			if !same {
				continue
			}
			dupID, ok := ids.GUID(path)
			if !ok {
				skip(path, identity.ErrMissingIdentity.Error())
				continue
			}
			if dupID == canonicalID {
				continue
			}
			decisions = append(decisions, asset.Decision{
				From:   dupID,
				To:     canonicalID,
				Origin: Origin,
				Reason: fmt.Sprintf("shader %q identical to %s", name, canonical),
			})
		}
	}

	d.logger.Info("Duplicate detection finished",
		zap.String("root", types.Root),
		zap.Int("decisions", len(decisions)),
		zap.Int("skipped", len(skipped)),
	)
	return decisions, skipped, nil
}

func (d *Detector) read(path string) (digest, []byte, error) {
	info, err := d.fs.Stat(path)
	if err != nil {
		return digest{}, nil, fmt.Errorf("failed to stat: %w", err)
	}
	content, err := afero.ReadFile(d.fs, path)
	if err != nil {
		return digest{}, nil, fmt.Errorf("failed to read: %w", err)
	}
	dg := digest{size: int64(len(content)), modTime: info.ModTime(), sum: xxhash.Sum64(content)}
	d.hashes.Add(path, dg)
	return dg, content, nil
}

// identical compares path with the canonical content. Size and hash mismatches
// short-circuit; a hash match is confirmed byte by byte.
func (d *Detector) identical(path string, want digest, canonical []byte) (bool, error) {
	info, err := d.fs.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat: %w", err)
	}
	if info.Size() != want.size {
		return false, nil
	}
	if dg, ok := d.hashes.Get(path); ok && dg.size == info.Size() && dg.modTime.Equal(info.ModTime()) && dg.sum != want.sum {
		return false, nil
	}
	dg, content, err := d.read(path)
	if err != nil {
		return false, err
	}
	if dg.sum != want.sum {
		return false, nil
	}
	return bytes.Equal(content, canonical), nil
}
