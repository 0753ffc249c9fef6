package reconcile

import (
	"fmt"

	"asset-merger/core/asset"

	"go.uber.org/zap"
)

// planner accumulates decisions under the one-decision-per-From rule.
type planner struct {
	source  *Tree
	targets []*Tree
	plan    *Plan
	byFrom  map[asset.Identifier]int
	logger  *zap.Logger
}

// BuildPlan reconciles the type databases of source and targets, then folds
// the supplied decisions in. It is single-threaded and deterministic: names are
// visited in sorted order, targets in priority order and supplied decisions in
// the order given.
func BuildPlan(source *Tree, targets []*Tree, supplied []asset.Decision, logger *zap.Logger) *Plan {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &planner{
		source:  source,
		targets: targets,
		plan:    &Plan{Source: source.Root},
		byFrom:  make(map[asset.Identifier]int),
		logger:  logger,
	}
	for _, t := range targets {
		p.plan.Targets = append(p.plan.Targets, t.Root)
	}

	// Pass 1: qualified type names
	for _, name := range source.Types.Names() {
		srcPath := source.Types.Types[name]
		for _, t := range targets {
			if tgtPath, ok := t.Types.Lookup(name); ok && tgtPath != srcPath {
				p.candidate(srcPath, tgtPath, OriginType, "type "+name)
				break
			}
		}
	}

	// Pass 2: shader names
	for _, name := range source.Types.ShaderNames() {
		srcPath, _ := source.Types.ShaderPath(name)
		for _, t := range targets {
			if tgtPath, ok := t.Types.ShaderPath(name); ok && tgtPath != srcPath {
				p.candidate(srcPath, tgtPath, OriginShader, "shader "+name)
				break
			}
		}
	}

	// Pass 3: supplied decisions
	for _, d := range supplied {
		p.plan.Summary.Supplied++
		p.fold(d)
	}

	p.plan.Summary.Accepted = len(p.plan.Decisions)
	logger.Info("Merge plan built",
		zap.String("source", source.Root),
		zap.Int("candidates", p.plan.Summary.Candidates),
		zap.Int("supplied", p.plan.Summary.Supplied),
		zap.Int("accepted", p.plan.Summary.Accepted),
		zap.Int("collapsed", p.plan.Summary.Collapsed),
		zap.Int("conflicts", p.plan.Summary.Conflicts),
		zap.Int("unresolved", p.plan.Summary.Unresolved),
	)
	return p.plan
}

// candidate resolves a source path to target path rename into identifiers.
func (p *planner) candidate(srcPath, tgtPath, origin, reason string) {
	p.plan.Summary.Candidates++

	d := asset.Decision{Origin: origin, Reason: fmt.Sprintf("%s: %s -> %s", reason, srcPath, tgtPath)}
	from, ok := p.source.IDs.GUID(srcPath)
	if !ok {
		p.drop(d, DropUnresolved, "no identity for "+srcPath)
		p.plan.Summary.Unresolved++
		return
	}
	d.From = from

	for _, t := range p.targets {
		if to, ok := t.IDs.GUID(tgtPath); ok {
			d.To = to
			break
		}
	}
	if d.To == "" {
		p.drop(d, DropUnresolved, "no identity for "+tgtPath)
		p.plan.Summary.Unresolved++
		return
	}

	if d.From == d.To {
		p.drop(d, DropSelf, "")
		p.plan.Summary.SelfMerges++
		return
	}
	p.accept(d)
}

// fold adds a supplied decision. A decision whose To is already superseded is
// collapsed onto the end of that chain so that every accepted decision points
// at a final target.
func (p *planner) fold(d asset.Decision) {
	if d.Origin == "" {
		d.Origin = OriginSupplied
	}

	if end, ok := p.chainEnd(d.To); ok && end != d.To {
		if end == d.From {
			p.drop(d, DropCycle, fmt.Sprintf("%s already leads back to %s", d.To, d.From))
			p.plan.Summary.Cycles++
			return
		}
		p.logger.Debug("Collapsing supplied decision",
			zap.String("from", string(d.From)),
			zap.String("to", string(d.To)),
			zap.String("final", string(end)),
		)
		d.To = end
		p.plan.Summary.Collapsed++
	}

	if d.From == d.To {
		p.drop(d, DropSelf, "collapses onto itself")
		p.plan.Summary.SelfMerges++
		return
	}
	p.accept(d)
}

// accept applies the first-wins rule.
func (p *planner) accept(d asset.Decision) {
	if i, ok := p.byFrom[d.From]; ok {
		winner := p.plan.Decisions[i]
		p.drop(d, DropConflict, fmt.Sprintf("%s already superseded by %s", d.From, winner.To))
		p.plan.Summary.Conflicts++
		return
	}
	p.byFrom[d.From] = len(p.plan.Decisions)
	p.plan.Decisions = append(p.plan.Decisions, d)
}

func (p *planner) drop(d asset.Decision, reason, detail string) {
	p.plan.Dropped = append(p.plan.Dropped, DroppedDecision{Decision: d, Reason: reason, Detail: detail})
	p.logger.Debug("Dropping decision",
		zap.String("from", string(d.From)),
		zap.String("to", string(d.To)),
		zap.String("reason", reason),
		zap.String("detail", detail),
	)
}

// chainEnd follows accepted decisions from id. ok is false when id is not
// superseded.
func (p *planner) chainEnd(id asset.Identifier) (asset.Identifier, bool) {
	i, ok := p.byFrom[id]
	if !ok {
		return id, false
	}
	seen := map[asset.Identifier]bool{id: true}
	end := p.plan.Decisions[i].To
	for !seen[end] {
		seen[end] = true
		j, ok := p.byFrom[end]
		if !ok {
			break
		}
		end = p.plan.Decisions[j].To
	}
	return end, true
}
