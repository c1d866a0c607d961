// Package codec supplies the "fixed-width, totally ordered, serializable,
// with an invalid sentinel" contract spec section 2 calls the
// Bytes/Record trait and the Key trait. Go has no associated static
// functions on an interface (no `T::invalid()`), so instead of asking every
// payload type to implement a method set, a Codec[T] is a small table of
// closures passed around wherever the spec says "R" or "T" or "K" — the
// same strategy-object shape the teacher uses for its Page cell parsing,
// generalized to work for any fixed-width type instead of one hardcoded
// cell format.
package codec

// Codec describes how to turn a T to and from its fixed on-disk
// representation, how to order two values, and what its "invalid" sentinel
// is. T must be comparable so Codec can recognize the sentinel with ==.
type Codec[T comparable] struct {
	// Size is the fixed encoded width in bytes.
	Size int

	// Encode writes v into buf[:Size]. buf is guaranteed to be at least
	// Size bytes long.
	Encode func(v T, buf []byte)

	// Decode reads a T from buf[:Size].
	Decode func(buf []byte) T

	// Invalid is the sentinel value used to mark "no record" in a block
	// (spec section 3); no valid value may equal it.
	Invalid T

	// Less reports whether a sorts strictly before b.
	Less func(a, b T) bool
}

// IsInvalid reports whether v is the codec's sentinel.
func (c Codec[T]) IsInvalid(v T) bool {
	return v == c.Invalid
}

// LessOrEqual reports whether a sorts at or before b.
func (c Codec[T]) LessOrEqual(a, b T) bool {
	return !c.Less(b, a)
}

// Equal reports whether a and b compare equal under c (neither is less than
// the other).
func (c Codec[T]) Equal(a, b T) bool {
	return !c.Less(a, b) && !c.Less(b, a)
}
