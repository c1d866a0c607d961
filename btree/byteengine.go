package btree

import (
	"fmt"

	"github.com/intellect4all/blockengines/codec"
	"github.com/intellect4all/blockengines/common"
)

// ByteEngine adapts a concrete BTree[K, T] to common.KeyedEngine, the
// byte-oriented interface the CLI and generic tooling expect. The typed
// BTree stays the primary API; this is a thin wrapper for callers that only
// ever hold fixed-width byte buffers off the wire (cmd/btreecli's REPL).
type ByteEngine[K comparable, T comparable] struct {
	bt *BTree[K, T]
}

var _ common.KeyedEngine = (*ByteEngine[int64, codec.Value])(nil)

// NewByteEngine wraps bt.
func NewByteEngine[K comparable, T comparable](bt *BTree[K, T]) *ByteEngine[K, T] {
	return &ByteEngine[K, T]{bt: bt}
}

func (e *ByteEngine[K, T]) decodeKey(key []byte) (K, error) {
	var zero K

	if len(key) == 0 {
		return zero, common.ErrKeyEmpty
	}

	if len(key) != e.bt.keyCodec.Size {
		return zero, fmt.Errorf("%w: got %d bytes, want %d", common.ErrKeyTooBig, len(key), e.bt.keyCodec.Size)
	}

	return e.bt.keyCodec.Decode(key), nil
}

// Search implements common.KeyedEngine.
func (e *ByteEngine[K, T]) Search(key []byte) ([]byte, error) {
	k, err := e.decodeKey(key)
	if err != nil {
		return nil, err
	}

	val, found, err := e.bt.Search(k)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, common.ErrKeyNotFound
	}

	out := make([]byte, e.bt.valueCodec.Size)
	e.bt.valueCodec.Encode(val, out)

	return out, nil
}

// Insert implements common.KeyedEngine.
func (e *ByteEngine[K, T]) Insert(key, value []byte) error {
	k, err := e.decodeKey(key)
	if err != nil {
		return err
	}

	if len(value) != e.bt.valueCodec.Size {
		return fmt.Errorf("btree: value must be %d bytes, got %d", e.bt.valueCodec.Size, len(value))
	}

	v := e.bt.valueCodec.Decode(value)

	return e.bt.Insert(k, v)
}

// Remove implements common.KeyedEngine.
func (e *ByteEngine[K, T]) Remove(key []byte) error {
	k, err := e.decodeKey(key)
	if err != nil {
		return err
	}

	return e.bt.Remove(k)
}

// Close implements common.KeyedEngine.
func (e *ByteEngine[K, T]) Close() error { return e.bt.Close() }

// Stats implements common.KeyedEngine.
func (e *ByteEngine[K, T]) Stats() common.Stats { return e.bt.Stats() }
