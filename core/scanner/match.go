package scanner

import (
	"strings"

	"asset-merger/core/asset"
)

type span struct {
	start, end int
}

// Match is a typed reference found in a line together with the byte offsets of
// each field, so that a rewrite can substitute fields without touching the
// surrounding whitespace.
type Match struct {
	Reference asset.Reference
	// Start and End delimit the whole {...} triple.
	Start, End int

	fileID span
	guid   span
	kind   span
}

// Replace returns line with the triple's fields set to ref. Fields equal to the
// matched values keep their original bytes, so Replace(line, m.Reference)
// reproduces line exactly.
func (m Match) Replace(line string, ref asset.Reference) string {
	fields := [3]struct {
		at       span
		was, now string
	}{
		{m.fileID, string(m.Reference.LocalID), string(ref.LocalID)},
		{m.guid, string(m.Reference.GUID), string(ref.GUID)},
		{m.kind, line[m.kind.start:m.kind.end], kindLiteral(line[m.kind.start:m.kind.end], m.Reference.Kind, ref.Kind)},
	}

	var b strings.Builder
	b.Grow(len(line) + 8)
	prev := 0
	for _, f := range fields {
		b.WriteString(line[prev:f.at.start])
		if f.now == f.was {
			b.WriteString(line[f.at.start:f.at.end])
		} else {
			b.WriteString(f.now)
		}
		prev = f.at.end
	}
	b.WriteString(line[prev:])
	return b.String()
}

// ReplaceAll rewrites every match of line for which fn returns true. Matches
// must come from FindTypedReferences on the same line.
func ReplaceAll(line string, matches []Match, fn func(Match) (asset.Reference, bool)) string {
	// right to left so earlier offsets stay valid
	for i := len(matches) - 1; i >= 0; i-- {
		ref, ok := fn(matches[i])
		if !ok {
			continue
		}
		line = matches[i].Replace(line, ref)
	}
	return line
}

func kindLiteral(raw string, was, now asset.ReferenceKind) string {
	if was == now {
		return raw
	}
	return now.String()
}
