package checks

import (
	"context"
	"sort"

	"asset-merger/core/asset"
	"asset-merger/core/reconcile"
	"asset-merger/core/rewrite"
)

// BuiltinIdentifiers are engine-provided identifiers that no tree defines.
var BuiltinIdentifiers = []asset.Identifier{
	"0000000000000000d000000000000000",
	"0000000000000000e000000000000000",
	"0000000000000000f000000000000000",
}

// DanglingReference is a typed reference whose identifier, after applying the
// decisions, is defined by none of the checked trees.
type DanglingReference struct {
	Path      string           `json:"path"`
	Object    asset.LocalID    `json:"object"`
	Reference asset.Reference  `json:"reference"`
	Resolved  asset.Identifier `json:"resolved"`
}

// ReferenceReport strictly types the result of a reference check.
type ReferenceReport struct {
	Checked   int                 `json:"checked"`
	Rewritten int                 `json:"rewritten"`
	Dangling  []DanglingReference `json:"dangling"`
}

// CheckReferences resolves every typed reference of trees through decisions
// and reports those left pointing nowhere. Identifiers in builtin are always
// considered defined.
func CheckReferences(ctx context.Context, trees []*reconcile.Tree, decisions []asset.Decision, builtin []asset.Identifier) (*ReferenceReport, error) {
	resolver := rewrite.NewResolver(decisions)
	known := make(map[asset.Identifier]bool, len(builtin))
	for _, id := range builtin {
		known[id] = true
	}
	defined := func(id asset.Identifier) bool {
		if known[id] {
			return true
		}
		for _, t := range trees {
			if t.IDs.Defines(id) {
				return true
			}
		}
		return false
	}

	report := &ReferenceReport{Dangling: []DanglingReference{}}
	for _, t := range trees {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, id := range t.IDs.Identifiers() {
			rec, _ := t.IDs.Record(id)
			for _, obj := range rec.Objects {
				for _, ref := range obj.References {
					report.Checked++
					final := ref.GUID
					if d, ok := resolver.Resolve(ref.GUID); ok {
						final = d.To
						report.Rewritten++
					}
					if defined(final) {
						continue
					}
					report.Dangling = append(report.Dangling, DanglingReference{
						Path:      rec.Path,
						Object:    obj.LocalID,
						Reference: ref,
						Resolved:  final,
					})
				}
			}
		}
	}

	sort.SliceStable(report.Dangling, func(i, j int) bool {
		return report.Dangling[i].Path < report.Dangling[j].Path
	})
	return report, nil
}
