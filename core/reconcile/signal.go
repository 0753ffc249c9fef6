package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	"asset-merger/core/asset"

	"github.com/spf13/afero"
)

// Signal is an external source of merge decisions folded into the plan after
// the type and shader passes. The duplicate detector and decision files
// implement it.
type Signal interface {
	// Name returns a unique name for logs and reports.
	Name() string

	// Decisions returns the decisions in the order they must be folded.
	Decisions(ctx context.Context) ([]asset.Decision, error)
}

// FileSignal loads supplied decisions from a JSON file holding a list of
// {"from", "to", "local_id", "kind", "reason"} objects.
type FileSignal struct {
	FS   afero.Fs
	Path string
}

// Name returns the signal name.
func (s *FileSignal) Name() string {
	return "file:" + s.Path
}

// Decisions reads and validates the file.
func (s *FileSignal) Decisions(ctx context.Context) ([]asset.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.FS, s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read decisions file: %w", err)
	}

	var decisions []asset.Decision
	if err := json.Unmarshal(data, &decisions); err != nil {
		return nil, fmt.Errorf("failed to parse decisions file %s: %w", s.Path, err)
	}
	for i := range decisions {
		d := &decisions[i]
		if d.From == "" || d.To == "" {
			return nil, fmt.Errorf("decision %d in %s: from and to are required", i, s.Path)
		}
		if d.Kind != 0 && !d.Kind.Known() {
			return nil, fmt.Errorf("decision %d in %s: unknown reference kind %d", i, s.Path, d.Kind)
		}
		d.Origin = OriginSupplied
	}
	return decisions, nil
}

// StaticSignal returns a fixed decision list.
type StaticSignal struct {
	Label string
	List  []asset.Decision
}

// Name returns the signal label.
func (s *StaticSignal) Name() string {
	return s.Label
}

// Decisions returns the list.
func (s *StaticSignal) Decisions(context.Context) ([]asset.Decision, error) {
	return s.List, nil
}

// collectSignals gathers decisions from every signal in order.
func collectSignals(ctx context.Context, signals []Signal) ([]asset.Decision, error) {
	var all []asset.Decision
	for _, sig := range signals {
		decisions, err := sig.Decisions(ctx)
		if err != nil {
			return nil, fmt.Errorf("signal %s: %w", sig.Name(), err)
		}
		all = append(all, decisions...)
	}
	return all, nil
}
