package rewrite

import (
	"asset-merger/core/asset"
)

// Resolver follows decisions from a superseded identifier to its final target.
type Resolver struct {
	byFrom map[asset.Identifier]asset.Decision
	order  []asset.Identifier
}

// NewResolver indexes decisions by From. A later decision for an already
// indexed From is ignored.
func NewResolver(decisions []asset.Decision) *Resolver {
	r := &Resolver{byFrom: make(map[asset.Identifier]asset.Decision, len(decisions))}
	for _, d := range decisions {
		if d.From == d.To {
			continue
		}
		if _, ok := r.byFrom[d.From]; ok {
			continue
		}
		r.byFrom[d.From] = d
		r.order = append(r.order, d.From)
	}
	return r
}

// Sources returns the superseded identifiers in decision order.
func (r *Resolver) Sources() []asset.Identifier {
	return r.order
}

// Resolve returns the decision for id with To replaced by the end of its
// chain. Replacement fields of later links override earlier ones. A cycle stops
// at the last identifier not yet visited.
func (r *Resolver) Resolve(id asset.Identifier) (asset.Decision, bool) {
	d, ok := r.byFrom[id]
	if !ok {
		return asset.Decision{}, false
	}
	out := d
	visited := map[asset.Identifier]bool{id: true}
	for {
		next, ok := r.byFrom[out.To]
		if !ok || visited[next.To] {
			return out, true
		}
		visited[out.To] = true
		out.To = next.To
		if next.LocalID != "" {
			out.LocalID = next.LocalID
		}
		if next.Kind != 0 {
			out.Kind = next.Kind
		}
	}
}
