package duplicate

import (
	"context"

	"asset-merger/core/asset"
	"asset-merger/core/identity"
	"asset-merger/core/typeindex"
)

// Signal adapts a Detector over one indexed tree to a decision source.
type Signal struct {
	Detector *Detector
	Types    *typeindex.Database
	IDs      *identity.Database

	skipped []asset.Skip
}

// Name identifies the signal in logs and reports.
func (s *Signal) Name() string {
	return Origin + ":" + s.Types.Root
}

// Decisions runs the detector.
func (s *Signal) Decisions(ctx context.Context) ([]asset.Decision, error) {
	decisions, skipped, err := s.Detector.Detect(ctx, s.Types, s.IDs)
	if err != nil {
		return nil, err
	}
	s.skipped = skipped
	return decisions, nil
}

// Skipped returns the candidates skipped by the last Decisions call.
func (s *Signal) Skipped() []asset.Skip {
	return s.skipped
}
