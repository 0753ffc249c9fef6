package identity

import (
	"errors"
	"sort"

	"asset-merger/core/asset"
)

// ErrMissingIdentity is recorded for object-bearing files without a sidecar identity.
var ErrMissingIdentity = errors.New("missing sidecar identity")

// Database is the frozen identity index of one tree. It is read-only once
// returned by Build.
type Database struct {
	// Root is the tree root the database was built from.
	Root string `json:"root"`
	// Assets maps an identifier to its primary record.
	Assets map[asset.Identifier]*asset.AssetRecord `json:"assets"`
	// FilePathToGUID maps an asset path (sidecar suffix removed) to its identifier.
	FilePathToGUID map[string]asset.Identifier `json:"file_path_to_guid"`
	// AssociatedFilePaths maps an identifier to the sorted set of files that
	// must be rewritten when it changes.
	AssociatedFilePaths map[asset.Identifier][]string `json:"associated_file_paths"`
	// Skipped lists the files left out of the index with the reason.
	Skipped []asset.Skip `json:"skipped,omitempty"`
}

// GUID returns the identifier of an asset path.
func (d *Database) GUID(path string) (asset.Identifier, bool) {
	id, ok := d.FilePathToGUID[path]
	return id, ok
}

// Record returns the primary record of an identifier.
func (d *Database) Record(id asset.Identifier) (*asset.AssetRecord, bool) {
	rec, ok := d.Assets[id]
	return rec, ok
}

// Associated returns the files associated with an identifier.
func (d *Database) Associated(id asset.Identifier) ([]string, bool) {
	paths, ok := d.AssociatedFilePaths[id]
	return paths, ok
}

// Defines reports whether the tree declares the identifier.
func (d *Database) Defines(id asset.Identifier) bool {
	_, ok := d.Assets[id]
	return ok
}

// Identifiers returns all declared identifiers in sorted order.
func (d *Database) Identifiers() []asset.Identifier {
	ids := make([]asset.Identifier, 0, len(d.Assets))
	for id := range d.Assets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Stats summarizes the database.
type Stats struct {
	Assets     int `json:"assets"`
	Objects    int `json:"objects"`
	References int `json:"references"`
	Skipped    int `json:"skipped"`
}

// Stats counts records, objects and references.
func (d *Database) Stats() Stats {
	s := Stats{Assets: len(d.Assets), Skipped: len(d.Skipped)}
	for _, rec := range d.Assets {
		s.Objects += len(rec.Objects)
		for _, obj := range rec.Objects {
			s.References += len(obj.References)
		}
	}
	return s
}
