package scanner

import (
	"regexp"
	"strconv"
	"strings"

	"asset-merger/core/asset"
)

// Header is a matched object header.
type Header struct {
	ClassTag string
	LocalID  asset.LocalID
}

// Scanner matches the line patterns of the serialized format.
type Scanner struct {
	identity *regexp.Regexp
	header   *regexp.Regexp
	local    *regexp.Regexp
	typed    *regexp.Regexp
}

// New compiles the patterns and returns a ready Scanner.
func New() *Scanner {
	return &Scanner{
		identity: regexp.MustCompile(`^\s*guid:\s*([^\s,{}]+)\s*$`),
		header:   regexp.MustCompile(`^--- !u!(-?\d+) &(-?\d+)`),
		local:    regexp.MustCompile(`\{fileID:\s*(-?\d+)\s*\}`),
		typed:    regexp.MustCompile(`\{fileID:\s*(-?\d+)\s*,\s*guid:\s*([^\s,{}]+)\s*,\s*type:\s*(-?\d{1,9})\s*\}`),
	}
}

// MatchIdentity matches a sidecar identity declaration.
func (s *Scanner) MatchIdentity(line string) (asset.Identifier, bool) {
	if !strings.Contains(line, "guid:") {
		return "", false
	}
	m := s.identity.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return asset.Identifier(m[1]), true
}

// MatchObjectHeader matches the start of an object definition. Headers whose
// fileID is the self-referencing value are ignored.
func (s *Scanner) MatchObjectHeader(line string) (Header, bool) {
	if !strings.HasPrefix(line, "--- ") {
		return Header{}, false
	}
	m := s.header.FindStringSubmatch(line)
	if m == nil {
		return Header{}, false
	}
	id := asset.LocalID(m[2])
	if isSelf(id) {
		return Header{}, false
	}
	return Header{ClassTag: m[1], LocalID: id}, true
}

// MatchLocalReference matches the first bare {fileID: X} mention of a line.
func (s *Scanner) MatchLocalReference(line string) (asset.LocalID, bool) {
	if !strings.Contains(line, "fileID") {
		return "", false
	}
	m := s.local.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return asset.LocalID(m[1]), true
}

// FindLocalReferences returns every bare {fileID: X} mention of a line.
func (s *Scanner) FindLocalReferences(line string) []asset.LocalID {
	if !strings.Contains(line, "fileID") {
		return nil
	}
	all := s.local.FindAllStringSubmatch(line, -1)
	out := make([]asset.LocalID, 0, len(all))
	for _, m := range all {
		out = append(out, asset.LocalID(m[1]))
	}
	return out
}

// MatchTypedReference matches the first {fileID, guid, type} triple of a line.
func (s *Scanner) MatchTypedReference(line string) (Match, bool) {
	all := s.FindTypedReferences(line)
	if len(all) == 0 {
		return Match{}, false
	}
	return all[0], true
}

// FindTypedReferences returns every typed reference of a line in order.
func (s *Scanner) FindTypedReferences(line string) []Match {
	if !strings.Contains(line, "guid") {
		return nil
	}
	idx := s.typed.FindAllStringSubmatchIndex(line, -1)
	if len(idx) == 0 {
		return nil
	}
	out := make([]Match, 0, len(idx))
	for _, loc := range idx {
		kind, err := strconv.Atoi(line[loc[6]:loc[7]])
		if err != nil {
			continue
		}
		out = append(out, Match{
			Reference: asset.Reference{
				LocalID: asset.LocalID(line[loc[2]:loc[3]]),
				GUID:    asset.Identifier(line[loc[4]:loc[5]]),
				Kind:    asset.ReferenceKind(kind),
			},
			Start:  loc[0],
			End:    loc[1],
			fileID: span{loc[2], loc[3]},
			guid:   span{loc[4], loc[5]},
			kind:   span{loc[6], loc[7]},
		})
	}
	return out
}

func isSelf(id asset.LocalID) bool {
	return strings.Trim(string(id), "0-") == ""
}
