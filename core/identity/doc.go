// Package identity builds the identity database of an asset tree.
//
// The database maps every Identifier to its primary AssetRecord, every asset
// path to its Identifier, and every Identifier to the set of files associated
// with it: its own asset and sidecar plus every file that references it. The
// last map turns "which files must be rewritten when X is superseded" into a
// single lookup.
//
// # Indexing
//
// Build walks the tree once and scans files in two parallel passes:
//
//  1. sidecar identity files, which seed FilePathToGUID and AssetRecords;
//  2. object-bearing files, which are scanned line by line for object headers
//     and typed references.
//
// Opaque files (audio, video, images, compiled binaries) are never scanned.
// Each worker writes to its own slot; the slots are reduced in path order once
// all workers have joined, so the resulting database is identical across runs.
// A file that fails to scan is recorded as a Skip and never aborts the build.
package identity
