package codec

// ValueWidth is the fixed width of a Value: the B-tree's companion data
// store holds fixed-size payloads (spec 1's non-goal: "variable-length
// records"), so CLI input is truncated/zero-padded to this width.
const ValueWidth = 64

// Value is the concrete, fixed-width record payload the B-tree CLI stores
// in the data device: a zero-padded byte array, printed back as a
// trimmed string.
type Value [ValueWidth]byte

// ValueFromString truncates s to ValueWidth bytes and zero-pads the rest.
func ValueFromString(s string) Value {
	var v Value
	n := copy(v[:], s)
	_ = n

	return v
}

// String returns the value with trailing zero padding stripped.
func (v Value) String() string {
	i := len(v)
	for i > 0 && v[i-1] == 0 {
		i--
	}

	return string(v[:i])
}

// ValueInvalid is the all-zero Value, indistinguishable from "the string was
// empty". Storing it is still safe in a data page: page loading stops at the
// Pair sentinel, whose key is the invalid key (which Insert rejects), so a
// real pair never matches it whatever its value — see btree/pair.go.
var ValueInvalid = Value{}

// ValueCodec encodes/decodes the fixed-width Value payload.
func ValueCodec() Codec[Value] {
	return Codec[Value]{
		Size: ValueWidth,
		Encode: func(v Value, buf []byte) {
			copy(buf, v[:])
		},
		Decode: func(buf []byte) Value {
			var v Value
			copy(v[:], buf)

			return v
		},
		Invalid: ValueInvalid,
		Less: func(a, b Value) bool {
			return a.String() < b.String()
		},
	}
}
