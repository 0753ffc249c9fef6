package reconcile

import (
	"fmt"
	"testing"

	"asset-merger/core/asset"
	"asset-merger/core/identity"
	"asset-merger/core/typeindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTree builds an indexed tree without touching a filesystem.
func fakeTree(root string, types map[string]string, shaders map[string][]string, guids map[string]asset.Identifier) *Tree {
	if types == nil {
		types = map[string]string{}
	}
	if shaders == nil {
		shaders = map[string][]string{}
	}
	if guids == nil {
		guids = map[string]asset.Identifier{}
	}
	ids := &identity.Database{
		Root:                root,
		Assets:              map[asset.Identifier]*asset.AssetRecord{},
		FilePathToGUID:      guids,
		AssociatedFilePaths: map[asset.Identifier][]string{},
	}
	for path, id := range guids {
		ids.Assets[id] = &asset.AssetRecord{GUID: id, Path: path, SidecarPath: path + asset.SidecarSuffix}
		ids.AssociatedFilePaths[id] = []string{path, path + asset.SidecarSuffix}
	}
	return &Tree{
		Root:  root,
		IDs:   ids,
		Types: &typeindex.Database{Root: root, Types: types, Shaders: shaders},
	}
}

func assertOneDecisionPerSource(t *testing.T, plan *Plan) {
	t.Helper()
	seen := map[asset.Identifier]bool{}
	for _, d := range plan.Decisions {
		assert.False(t, seen[d.From], "duplicate decision for %s", d.From)
		assert.NotEqual(t, d.From, d.To)
		seen[d.From] = true
	}
}

func TestBuildPlan_TypeCandidates(t *testing.T) {
	source := fakeTree("/src",
		map[string]string{
			"Game.Foo":    "/src/Foo.cs",
			"Game.Helper": "/src/Foo.cs",
			"Game.Same":   "/src/Same.cs",
			"Game.NoID":   "/src/NoID.cs",
			"Game.Orphan": "/src/Orphan.cs",
		},
		nil,
		map[string]asset.Identifier{
			"/src/Foo.cs":    "G1",
			"/src/Same.cs":   "GS",
			"/src/Orphan.cs": "GO",
		})
	first := fakeTree("/t1",
		map[string]string{
			"Game.Foo":    "/t1/Foo.cs",
			"Game.Helper": "/t1/Helper.cs",
			"Game.Same":   "/t1/Same.cs",
			"Game.NoID":   "/t1/NoID.cs",
		},
		nil,
		map[string]asset.Identifier{
			"/t1/Foo.cs":    "G2",
			"/t1/Helper.cs": "G3",
			"/t1/Same.cs":   "GS",
			"/t1/NoID.cs":   "GN",
		})
	second := fakeTree("/t2",
		map[string]string{"Game.Foo": "/t2/Foo.cs", "Game.Orphan": "/t2/Orphan.cs"},
		nil,
		map[string]asset.Identifier{"/t2/Foo.cs": "G9"})

	plan := BuildPlan(source, []*Tree{first, second}, nil, nil)

	assert.Equal(t, []string{"/t1", "/t2"}, plan.Targets)
	require.Len(t, plan.Decisions, 1)
	assert.Equal(t, asset.Identifier("G1"), plan.Decisions[0].From)
	assert.Equal(t, asset.Identifier("G2"), plan.Decisions[0].To, "first target in priority order wins")
	assert.Equal(t, OriginType, plan.Decisions[0].Origin)

	assert.Equal(t, PlanSummary{
		Candidates: 5,
		Accepted:   1,
		Unresolved: 2,
		SelfMerges: 1,
		Conflicts:  1,
	}, plan.Summary)

	reasons := map[string]int{}
	for _, d := range plan.Dropped {
		reasons[d.Reason]++
	}
	assert.Equal(t, map[string]int{DropConflict: 1, DropSelf: 1, DropUnresolved: 2}, reasons)
	assertOneDecisionPerSource(t, plan)
}

func TestBuildPlan_ShaderCandidates(t *testing.T) {
	source := fakeTree("/src", nil,
		map[string][]string{"Custom/Water": {"/src/Water.shader", "/src/Water2.shader"}},
		map[string]asset.Identifier{"/src/Water.shader": "GSW", "/src/Water2.shader": "GSW2"})
	target := fakeTree("/tgt", nil,
		map[string][]string{"Custom/Water": {"/tgt/W.shader"}},
		map[string]asset.Identifier{"/tgt/W.shader": "GTW"})

	plan := BuildPlan(source, []*Tree{target}, nil, nil)

	assert.Equal(t, []asset.Decision{{
		From:   "GSW",
		To:     "GTW",
		Origin: OriginShader,
		Reason: "shader Custom/Water: /src/Water.shader -> /tgt/W.shader",
	}}, plan.Decisions)
}

func TestBuildPlan_SuppliedFolding(t *testing.T) {
	source := fakeTree("/src", map[string]string{"A": "/src/A.cs"}, nil, map[string]asset.Identifier{"/src/A.cs": "A"})
	target := fakeTree("/tgt", map[string]string{"A": "/tgt/A.cs"}, nil, map[string]asset.Identifier{"/tgt/A.cs": "B"})

	supplied := []asset.Decision{
		{From: "X", To: "A"}, // collapses to X -> B
		{From: "A", To: "C"}, // conflict: A already superseded
		{From: "B", To: "D"}, // B has no decision of its own: kept unchanged
		{From: "D", To: "A"}, // A -> B -> D leads back to D
		{From: "Y", To: "Y"}, // self
		{From: "Z", To: "W", LocalID: "7", Kind: asset.KindEditable},
	}
	plan := BuildPlan(source, []*Tree{target}, supplied, nil)

	got := map[asset.Identifier]asset.Identifier{}
	for _, d := range plan.Decisions {
		got[d.From] = d.To
	}
	assert.Equal(t, map[asset.Identifier]asset.Identifier{
		"A": "B",
		"X": "B",
		"B": "D",
		"Z": "W",
	}, got)
	assert.Equal(t, asset.LocalID("7"), plan.Decisions[len(plan.Decisions)-1].LocalID)
	assert.Equal(t, OriginSupplied, plan.Decisions[1].Origin)

	assert.Equal(t, 6, plan.Summary.Supplied)
	assert.Equal(t, 1, plan.Summary.Collapsed)
	assert.Equal(t, 1, plan.Summary.Conflicts)
	assert.Equal(t, 1, plan.Summary.Cycles)
	assert.Equal(t, 1, plan.Summary.SelfMerges)
	assertOneDecisionPerSource(t, plan)
}

func TestBuildPlan_SuppliedReverseIsCycle(t *testing.T) {
	source := fakeTree("/src", map[string]string{"A": "/src/A.cs"}, nil, map[string]asset.Identifier{"/src/A.cs": "A"})
	target := fakeTree("/tgt", map[string]string{"A": "/tgt/A.cs"}, nil, map[string]asset.Identifier{"/tgt/A.cs": "B"})

	plan := BuildPlan(source, []*Tree{target}, []asset.Decision{{From: "B", To: "A"}}, nil)

	require.Len(t, plan.Decisions, 1)
	require.Len(t, plan.Dropped, 1)
	assert.Equal(t, DropCycle, plan.Dropped[0].Reason)
}

func TestBuildPlan_OneDecisionPerSourceUnderLoad(t *testing.T) {
	source := fakeTree("/src", nil, nil, nil)
	target := fakeTree("/tgt", nil, nil, nil)

	var supplied []asset.Decision
	for i := 0; i < 200; i++ {
		supplied = append(supplied, asset.Decision{
			From: asset.Identifier(fmt.Sprintf("G%d", i%37)),
			To:   asset.Identifier(fmt.Sprintf("G%d", (i*7+3)%41)),
		})
	}

	plan := BuildPlan(source, []*Tree{target}, supplied, nil)
	assertOneDecisionPerSource(t, plan)
	assert.Equal(t, len(supplied), plan.Summary.Accepted+len(plan.Dropped))
}
