// Package asset defines the identity model shared by the indexers, the planner
// and the rewrite engine.
//
// # Identity
//
// Every file of a tree is identified by an Identifier (guid) declared in its
// sidecar identity file. Objects inside a file are identified by a LocalID
// (fileID) that is only meaningful together with the owning file.
//
// A Reference is the typed edge {fileID, guid, type} found inside a file; the
// ReferenceKind discriminates editable-tree assets from processed assets.
//
// # Decisions
//
// A Decision states that one Identifier is superseded by another. Decisions are
// produced by the planner and the duplicate detector and consumed by the
// rewrite engine and the exclusion computer.
package asset
