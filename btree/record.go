package btree

import (
	"encoding/binary"

	"github.com/intellect4all/blockengines/codec"
)

// Record is BTreeRecord<K> (spec section 6): one slot in an index page.
// HasChild corresponds to the wire format's tag byte; a record with
// HasChild==false never participates in descent (it is either a leaf key or
// the page's own terminator sentinel). Grounded on
// original_source/proj-2/src/btree_record.rs's field set, widened from a
// single concrete IntKey to any comparable K.
type Record[K comparable] struct {
	HasChild bool
	ChildLBA uint64
	DataLBA  uint64
	Key      K
}

// NewGuard builds an internal node's trailing high guard: an invalid key
// paired with a valid child pointer to the node's rightmost subtree (spec
// section 9, "Guard record encoding").
func NewGuard[K comparable](childLBA uint64, invalidKey K) Record[K] {
	return Record[K]{HasChild: true, ChildLBA: childLBA, DataLBA: 0, Key: invalidKey}
}

// IsGuard reports whether r is a high guard rather than a real key: it has a
// child pointer but an invalid key. A plain terminator sentinel (no child,
// invalid key) is not a guard.
func IsGuard[K comparable](r Record[K], kc codec.Codec[K]) bool {
	return r.HasChild && kc.IsInvalid(r.Key)
}

// RecordCodec builds the Codec for Record[K] matching spec section 6's
// exact wire layout:
//
//	offset 0:  1-byte tag (0 = no child, 1 = has child)
//	offset 1:  8-byte little-endian child LBA (zero when tag == 0)
//	offset 9:  8-byte little-endian data LBA
//	offset 17: key bytes, sizeof(K) long
//
// The terminator sentinel is tag==0, child_lba==0, data_lba==0, key==invalid
// — a real guard (tag==1) is never mistaken for it (spec section 6's
// parenthetical: "Internal-node high guards... are NOT terminators").
func RecordCodec[K comparable](kc codec.Codec[K]) codec.Codec[Record[K]] {
	size := 1 + 8 + 8 + kc.Size

	return codec.Codec[Record[K]]{
		Size: size,
		Encode: func(r Record[K], buf []byte) {
			if r.HasChild {
				buf[0] = 1
			} else {
				buf[0] = 0
			}

			binary.LittleEndian.PutUint64(buf[1:9], r.ChildLBA)
			binary.LittleEndian.PutUint64(buf[9:17], r.DataLBA)
			kc.Encode(r.Key, buf[17:17+kc.Size])
		},
		Decode: func(buf []byte) Record[K] {
			return Record[K]{
				HasChild: buf[0] != 0,
				ChildLBA: binary.LittleEndian.Uint64(buf[1:9]),
				DataLBA:  binary.LittleEndian.Uint64(buf[9:17]),
				Key:      kc.Decode(buf[17 : 17+kc.Size]),
			}
		},
		Invalid: Record[K]{HasChild: false, ChildLBA: 0, DataLBA: 0, Key: kc.Invalid},
		Less: func(a, b Record[K]) bool {
			return kc.Less(a.Key, b.Key)
		},
	}
}
