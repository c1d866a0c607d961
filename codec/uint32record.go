package codec

import "encoding/binary"

// Uint32RecordInvalid is the tape sorter's sentinel: it doubles as
// end-of-block padding and is never a value a Uint32RecordCodec caller may
// legitimately sort (spec 4.2's "no valid record serializes to [invalid]").
const Uint32RecordInvalid = ^uint32(0)

// Uint32RecordCodec is the concrete test/demo payload for Engine A: one
// little-endian uint32 per record, ordered numerically. The spec leaves the
// real payload type (IntRecord, ordered by prime count) out of scope as an
// external collaborator; this is the stand-in used by the sort engine's own
// tests and CLI, the way the original's IntRecord stood in for its CLI.
func Uint32RecordCodec() Codec[uint32] {
	return Codec[uint32]{
		Size: 4,
		Encode: func(v uint32, buf []byte) {
			binary.LittleEndian.PutUint32(buf, v)
		},
		Decode: func(buf []byte) uint32 {
			return binary.LittleEndian.Uint32(buf)
		},
		Invalid: Uint32RecordInvalid,
		Less: func(a, b uint32) bool {
			return a < b
		},
	}
}
