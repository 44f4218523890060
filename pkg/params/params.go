// Package params reads model parameter buffers.
//
// A parameter buffer is a flatbuffer whose root table holds a vector of
// named float32 tensors:
//
//	table Params { tensors: [Tensor]; }
//	table Tensor { uid: string; values: [float]; }
//
// Buffers are validated once when loaded. After that every query is
// offset arithmetic into the loaded bytes and can only fail on a bad
// index or a released store.
package params

import flatbuffers "github.com/google/flatbuffers/go"

// vtable offsets of the schema fields. These must never change.
const (
	paramsTensorsField flatbuffers.VOffsetT = 4

	tensorUIDField    flatbuffers.VOffsetT = 4
	tensorValuesField flatbuffers.VOffsetT = 6
)

// IdentifierSize is the length of an optional flatbuffer file identifier.
const IdentifierSize = 4

// Options control how a buffer is loaded.
type Options struct {
	// Identifier, when set, must match the 4-byte file identifier that
	// follows the root offset.
	Identifier string

	// NoMmap forces Open to read the file into memory instead of mapping it.
	NoMmap bool
}
