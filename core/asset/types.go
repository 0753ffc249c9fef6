package asset

import (
	"strconv"
)

// Identifier is the stable cross-file identity (guid) of one logical asset.
// Equality is case-preserving.
type Identifier string

// LocalID is the identity (fileID) of one object within a file.
type LocalID string

// SelfLocalID is the fileID an object uses to refer to its own file's subject.
const SelfLocalID LocalID = "0"

// ReferenceKind discriminates how a typed reference is resolved.
type ReferenceKind int

const (
	// KindEditable marks an asset loaded from the editable tree.
	KindEditable ReferenceKind = 2
	// KindProcessed marks an asset loaded from the processed (library) tree.
	KindProcessed ReferenceKind = 3
)

// Known reports whether the kind is one of the two recognized values.
// Any other value is preserved verbatim and never reinterpreted.
func (k ReferenceKind) Known() bool {
	return k == KindEditable || k == KindProcessed
}

// String returns the numeric literal of the kind.
func (k ReferenceKind) String() string {
	return strconv.Itoa(int(k))
}

// Reference is one typed edge {fileID, guid, type} found inside a file.
type Reference struct {
	LocalID LocalID       `json:"file_id"`
	GUID    Identifier    `json:"guid"`
	Kind    ReferenceKind `json:"type"`
}

// ObjectRecord is one serialized object definition inside a file.
type ObjectRecord struct {
	// ClassTag is the numeric class tag of the object header.
	ClassTag string `json:"class_tag"`
	// LocalID is the fileID of the object, unique within its file.
	LocalID LocalID `json:"file_id"`
	// References are the typed references found in the object body.
	References []Reference `json:"references,omitempty"`
	// LocalMentions are bare {fileID: X} mentions found in the object body.
	LocalMentions []LocalID `json:"local_mentions,omitempty"`
}

// AssetRecord is one file identified by an Identifier.
type AssetRecord struct {
	// GUID is the identifier declared by the sidecar file.
	GUID Identifier `json:"guid"`
	// Path is the asset path (sidecar suffix removed).
	Path string `json:"path"`
	// SidecarPath is the path of the sidecar identity file.
	SidecarPath string `json:"sidecar_path"`
	// Objects holds the objects scanned from the asset; empty for opaque files.
	Objects []ObjectRecord `json:"objects,omitempty"`
	// Opaque is true when the asset content is never scanned nor rewritten.
	Opaque bool `json:"opaque"`
	// Folder is true when the asset path is a directory.
	Folder bool `json:"folder,omitempty"`
}

// Decision states that From is superseded by To.
type Decision struct {
	From Identifier `json:"from"`
	To   Identifier `json:"to"`
	// LocalID optionally replaces the fileID of references to From.
	LocalID LocalID `json:"local_id,omitempty"`
	// Kind optionally replaces the type of references to From; zero keeps the original.
	Kind ReferenceKind `json:"kind,omitempty"`
	// Origin names the signal that produced the decision (type, shader, duplicate, supplied).
	Origin string `json:"origin,omitempty"`
	// Reason is a human readable explanation.
	Reason string `json:"reason,omitempty"`
}

// HasReplacementTriple reports whether the decision replaces the whole reference
// triple rather than only the identifier token.
func (d Decision) HasReplacementTriple() bool {
	return d.LocalID != "" || d.Kind != 0
}

// Stage names the pipeline step that recorded a Skip.
type Stage string

const (
	StageIdentity Stage = "identity"
	StageTypes    Stage = "types"
	StagePlan     Stage = "plan"
	StageRewrite  Stage = "rewrite"
)

// Skip records a file or candidate that was skipped, with the reason.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Stage  Stage  `json:"stage"`
}

const (
	// SidecarSuffix is appended to an asset path to name its identity file.
	SidecarSuffix = ".meta"
	// StagedSuffix is the reserved suffix of staged rewrites awaiting commit.
	StagedSuffix = ".merge-staged"
)
