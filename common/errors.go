package common

import "errors"

var (
	// ErrKeyNotFound is returned by ByteEngine.Search when the key is absent. It is
	// not a failure: the B-tree's delete/search paths treat a miss as a
	// normal, expected outcome (spec section 7, "NotFound").
	ErrKeyNotFound = errors.New("key not found")

	ErrClosed    = errors.New("engine is closed")
	ErrKeyEmpty  = errors.New("key cannot be empty")
	ErrKeyTooBig = errors.New("key exceeds the fixed key width")

	// ErrInvariant marks a programming-error-class invariant violation (spec
	// section 7): splitting a page that isn't the named child, reading a
	// guard record where none should exist, and similar "this should be
	// impossible" conditions. Callers surface it rather than recovering from
	// it, since recovering would paper over a corrupt tree.
	ErrInvariant = errors.New("btree invariant violation")
)
