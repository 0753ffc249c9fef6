// Package scanner extracts identifiers and references from single lines of the
// serialized asset format.
//
// A Scanner holds the compiled patterns; it is constructed explicitly with New
// and is safe for concurrent use. All matchers are independent: a line may
// match more than one of them and the caller decides which applies based on its
// own parse state.
//
// Recognized grammar (whitespace tolerant):
//
//	guid: <token>
//	--- !u!<classTag> &<localId>
//	{fileID: <localId>}
//	{fileID: <localId>, guid: <identifier>, type: <kind>}
package scanner
