// Package page implements Page[T], the in-memory image of one block typed
// as a sequence of fixed-width records (spec section 4.2). It is shared by
// the B-tree's index pages (T = btree.Record[K]) and data pages
// (T = btree.Pair[K, T]).
package page

import (
	"errors"
	"fmt"

	"github.com/intellect4all/blockengines/block"
	"github.com/intellect4all/blockengines/codec"
)

// ErrOverflow is returned by Append/InsertAt when the page already holds
// MaxRecords() entries.
var ErrOverflow = errors.New("page: record would overflow the block")

// Page is the in-memory image of block LBA on dev, parsed as a sequence of
// T using codec c. Records is exported for direct manipulation by the
// B-tree's split/merge/borrow logic (spec 4.5.5/4.5.6 describe those as
// slice surgery on a node's record list).
type Page[T comparable] struct {
	Records   []T
	LBA       uint64
	ParentLBA uint64
	Dirty     bool

	dev  *block.Device
	c    codec.Codec[T]
	mode int // max records per block, computed once from dev/codec
}

// Load reads LBA from dev and parses records until the sentinel or the
// block's end. A read failure (the block has never been written) yields an
// empty, dirty page instead of an error — the block is materialized on the
// next Flush (spec 4.2: "a failed read... yields an empty, dirty page").
func Load[T comparable](dev *block.Device, lba, parentLBA uint64, c codec.Codec[T]) (*Page[T], error) {
	p := &Page[T]{LBA: lba, ParentLBA: parentLBA, dev: dev, c: c, mode: dev.BlockSize() / c.Size}

	raw, err := dev.Read(lba)
	if err != nil {
		p.Dirty = true

		return p, nil
	}

	for off := 0; off+c.Size <= len(raw); off += c.Size {
		rec := c.Decode(raw[off : off+c.Size])
		if c.IsInvalid(rec) {
			break
		}

		p.Records = append(p.Records, rec)
	}

	return p, nil
}

// Empty creates a fresh, dirty, zero-record page for lba without touching
// the device (spec 4.2's "empty(device, lba, parent_lba)").
func Empty[T comparable](dev *block.Device, lba, parentLBA uint64, c codec.Codec[T]) *Page[T] {
	return &Page[T]{
		LBA: lba, ParentLBA: parentLBA, Dirty: true,
		dev: dev, c: c, mode: dev.BlockSize() / c.Size,
	}
}

// MaxRecords returns floor(block_size / size_of(T)), the capacity named in
// spec section 4.2.
func (p *Page[T]) MaxRecords() int {
	return p.mode
}

// Append adds rec to the end of the page, marking it dirty.
func (p *Page[T]) Append(rec T) error {
	if len(p.Records) >= p.mode {
		return ErrOverflow
	}

	p.Records = append(p.Records, rec)
	p.Dirty = true

	return nil
}

// InsertAt inserts rec at index i, shifting later records right.
func (p *Page[T]) InsertAt(i int, rec T) error {
	if len(p.Records) >= p.mode {
		return ErrOverflow
	}

	p.Records = append(p.Records, p.c.Invalid)
	copy(p.Records[i+1:], p.Records[i:])
	p.Records[i] = rec
	p.Dirty = true

	return nil
}

// RemoveAt deletes the record at index i, shifting later records left.
func (p *Page[T]) RemoveAt(i int) {
	p.Records = append(p.Records[:i], p.Records[i+1:]...)
	p.Dirty = true
}

// Replace overwrites the record at index i.
func (p *Page[T]) Replace(i int, rec T) {
	p.Records[i] = rec
	p.Dirty = true
}

// MarkDirty flags the page as modified without changing Records, for
// mutations done directly on a caller-held slice reference.
func (p *Page[T]) MarkDirty() {
	p.Dirty = true
}

// Flush serializes Records in order, pads the remainder of the block with
// the codec's invalid sentinel, and writes it out (spec 4.2). A no-op if
// the page is clean.
func (p *Page[T]) Flush() error {
	if !p.Dirty {
		return nil
	}

	if len(p.Records) > p.mode {
		return fmt.Errorf("page: %d records exceeds capacity %d for lba %d", len(p.Records), p.mode, p.LBA)
	}

	buf := make([]byte, p.dev.BlockSize())

	off := 0
	for _, rec := range p.Records {
		p.c.Encode(rec, buf[off:off+p.c.Size])
		off += p.c.Size
	}

	for off+p.c.Size <= len(buf) {
		p.c.Encode(p.c.Invalid, buf[off:off+p.c.Size])
		off += p.c.Size
	}

	if err := p.dev.Write(p.LBA, buf); err != nil {
		return fmt.Errorf("page: flush lba %d: %w", p.LBA, err)
	}

	p.Dirty = false

	return nil
}

// Close flushes the page if dirty. Go has no destructors, so callers (the
// page cache on eviction, or a direct caller done with a one-off page) must
// call Close explicitly where the spec's reference implementation relies on
// drop-time flushing (spec section 5).
func (p *Page[T]) Close() error {
	return p.Flush()
}
