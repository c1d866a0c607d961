package codec

import (
	"encoding/binary"
	"math"
)

// Int64KeyInvalid is the B-tree's key sentinel. Spec 3 requires it to
// compare greater than any valid key (it is the high-guard record's key),
// so valid keys are constrained to < math.MaxInt64.
const Int64KeyInvalid = int64(math.MaxInt64)

// Int64KeyCodec is the concrete Key type used by the B-tree CLI and tests:
// an 8-byte little-endian signed integer, ordered numerically, mirroring
// original_source/proj-2/src/btree_key.rs's IntKey but widened to 64 bits
// and given a real sentinel (the Rust IntKey never defined invalid()).
func Int64KeyCodec() Codec[int64] {
	return Codec[int64]{
		Size: 8,
		Encode: func(v int64, buf []byte) {
			binary.LittleEndian.PutUint64(buf, uint64(v))
		},
		Decode: func(buf []byte) int64 {
			return int64(binary.LittleEndian.Uint64(buf))
		},
		Invalid: Int64KeyInvalid,
		Less: func(a, b int64) bool {
			return a < b
		},
	}
}
