package btree

import "github.com/intellect4all/blockengines/codec"

// Pair is a data page's payload: a key alongside its stored value (spec
// 4.5.7), grounded on original_source/proj-2/src/pair.rs's concatenated
// key+value Bytes encoding.
type Pair[K comparable, T comparable] struct {
	Key   K
	Value T
}

// PairCodec builds the Codec for Pair[K, T]: key bytes followed by value
// bytes, with an invalid key marking an empty slot the same way Record's
// terminator does.
func PairCodec[K comparable, T comparable](kc codec.Codec[K], vc codec.Codec[T]) codec.Codec[Pair[K, T]] {
	size := kc.Size + vc.Size

	return codec.Codec[Pair[K, T]]{
		Size: size,
		Encode: func(p Pair[K, T], buf []byte) {
			kc.Encode(p.Key, buf[:kc.Size])
			vc.Encode(p.Value, buf[kc.Size:size])
		},
		Decode: func(buf []byte) Pair[K, T] {
			return Pair[K, T]{
				Key:   kc.Decode(buf[:kc.Size]),
				Value: vc.Decode(buf[kc.Size:size]),
			}
		},
		Invalid: Pair[K, T]{Key: kc.Invalid, Value: vc.Invalid},
		Less: func(a, b Pair[K, T]) bool {
			return kc.Less(a.Key, b.Key)
		},
	}
}
