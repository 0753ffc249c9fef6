package reconcile

import (
	"sort"

	"asset-merger/core/asset"
	"asset-merger/core/identity"
)

// ComputeExclusions returns the source paths made redundant by the acted-upon
// identifiers: the asset and sidecar of every acted identifier that has a
// primary record in db. Files that merely reference an acted identifier are
// kept, since their rewritten content is still needed.
func ComputeExclusions(db *identity.Database, acted []asset.Identifier) *Exclusions {
	files := make(map[string]struct{})
	folders := make(map[string]struct{})

	for _, id := range acted {
		rec, ok := db.Record(id)
		if !ok {
			continue
		}
		associated, _ := db.Associated(id)
		if rec.Folder {
			addIfAssociated(folders, associated, rec.Path)
		} else {
			addIfAssociated(files, associated, rec.Path)
		}
		addIfAssociated(files, associated, rec.SidecarPath)
	}

	return &Exclusions{
		Files:   sortedSet(files),
		Folders: sortedSet(folders),
	}
}

func addIfAssociated(set map[string]struct{}, associated []string, path string) {
	i := sort.SearchStrings(associated, path)
	if i < len(associated) && associated[i] == path {
		set[path] = struct{}{}
	}
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
