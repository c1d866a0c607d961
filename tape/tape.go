// Package tape implements Tape[T], the sequential cursor over a block
// device used by the external merge sort (spec section 4.3). Unlike
// page.Page, a Tape never holds more than one block in memory at a time and
// always advances monotonically; it has no notion of "this page's LBA", only
// "the next record at the current head".
package tape

import (
	"fmt"

	"github.com/intellect4all/blockengines/block"
	"github.com/intellect4all/blockengines/codec"
)

// Tape is a write-once-read-once-per-pass cursor over dev, grounded on
// original_source/proj-1/src/tape.rs. The three-state model (outdated /
// loaded-clean / loaded-dirty) is spec 4.3's and 4.5.8's shared description
// of a block-backed cursor: outdated means buf doesn't reflect lba yet;
// dirty means buf has unflushed writes.
type Tape[T comparable] struct {
	dev *block.Device
	c   codec.Codec[T]

	buf    []byte
	offset int
	lba    uint64

	outdated bool
	dirty    bool
}

// New returns a tape over dev with its head unset (outdated, pointing at
// block 0 until SetHead or a read/write establishes a real position).
func New[T comparable](dev *block.Device, c codec.Codec[T]) *Tape[T] {
	return &Tape[T]{
		dev:      dev,
		c:        c,
		buf:      make([]byte, dev.BlockSize()),
		outdated: true,
	}
}

// Flush writes buf back to lba if dirty.
func (t *Tape[T]) Flush() error {
	if !t.dirty {
		return nil
	}

	if err := t.dev.Write(t.lba, t.buf); err != nil {
		return fmt.Errorf("tape: flush lba %d: %w", t.lba, err)
	}

	t.dirty = false

	return nil
}

// SetHead repositions the cursor. Moving to a different block flushes any
// pending writes to the old block first, then marks the new block outdated
// so the next read pulls it in.
func (t *Tape[T]) SetHead(offset int, lba uint64) error {
	if offset < 0 || offset >= len(t.buf) {
		return fmt.Errorf("tape: offset %d out of range for block size %d", offset, len(t.buf))
	}

	if lba != t.lba || t.outdated {
		if t.dirty {
			if err := t.Flush(); err != nil {
				return err
			}
		}

		for i := range t.buf {
			t.buf[i] = 0
		}

		// Fill every record slot with the invalid sentinel so slots that are
		// never written in this block read back as end-of-tape.
		for off := 0; off+t.c.Size <= len(t.buf); off += t.c.Size {
			t.c.Encode(t.c.Invalid, t.buf[off:off+t.c.Size])
		}

		t.lba = lba
		t.outdated = true
		t.dirty = false
	}

	t.offset = offset

	return nil
}

// moveHeadToNext advances past the just-read-or-written record, rolling
// over to the next block when the current one is exhausted.
func (t *Tape[T]) moveHeadToNext() error {
	offset := t.offset + t.c.Size
	lba := t.lba

	if offset+t.c.Size > len(t.buf) {
		offset = 0
		lba = t.lba + 1
	}

	return t.SetHead(offset, lba)
}

// ReadNextRecord returns the record at the head and advances past it. ok is
// false once the underlying block can no longer be read (end of tape).
func (t *Tape[T]) ReadNextRecord() (rec T, ok bool) {
	if t.outdated {
		raw, err := t.dev.Read(t.lba)
		if err != nil {
			return rec, false
		}

		copy(t.buf, raw)
		t.outdated = false
	}

	rec = t.c.Decode(t.buf[t.offset : t.offset+t.c.Size])
	if t.c.IsInvalid(rec) {
		return rec, false
	}

	if err := t.moveHeadToNext(); err != nil {
		return rec, false
	}

	return rec, true
}

// WriteNextRecord encodes rec at the head and advances past it.
func (t *Tape[T]) WriteNextRecord(rec T) error {
	t.dirty = true
	t.outdated = false

	t.c.Encode(rec, t.buf[t.offset:t.offset+t.c.Size])

	return t.moveHeadToNext()
}

// Split is one pass of the natural merge sort's split phase (spec 4.4): t is
// the fully-sorted-so-far input, helper and otherHelper are the two scratch
// tapes. It rewinds all three tapes, then routes records to helper and
// otherHelper in alternation, switching tapes every time a new ascending run
// begins (current record strictly less than the previous one), and finally
// writes an invalid-record terminator to each helper. It returns the number
// of runs the input was split into: one more than the number of descents, so
// a fully ascending input is a single run and a clean split reports 1, the
// same convention Join uses for "already sorted".
func (t *Tape[T]) Split(helper, otherHelper *Tape[T]) uint64 {
	_ = t.SetHead(0, 0)
	_ = helper.SetHead(0, 0)
	_ = otherHelper.SetHead(0, 0)

	var series uint64 // 0-indexed run id, used for H1/H2 routing parity

	havePrev := false

	var prev T

	for {
		rec, ok := t.ReadNextRecord()
		if !ok {
			break
		}

		if havePrev && t.c.Less(rec, prev) {
			series++
		}

		if series%2 == 0 {
			_ = helper.WriteNextRecord(rec)
		} else {
			_ = otherHelper.WriteNextRecord(rec)
		}

		prev = rec
		havePrev = true
	}

	_ = helper.WriteNextRecord(t.c.Invalid)
	_ = otherHelper.WriteNextRecord(t.c.Invalid)

	return series + 1
}

// Join is one pass of the natural merge sort's join phase (spec 4.4): t is
// the output tape, helper and otherHelper are the two scratch tapes produced
// by the previous Split. It merges runs from both inputs back into a single
// (more-sorted) tape and returns the resulting number of runs.
//
// At each step the candidate is the smaller of the two heads that is still
// >= the last record written; if neither qualifies (both heads start a new
// run), the overall smaller head is taken and a new run begins. Ties between
// the two heads favor helper, matching the original merge's left-to-right
// scan order.
func (t *Tape[T]) Join(helper, otherHelper *Tape[T]) uint64 {
	series := uint64(1)

	_ = t.SetHead(0, 0)
	_ = helper.SetHead(0, 0)
	_ = otherHelper.SetHead(0, 0)

	first, firstOK := helper.ReadNextRecord()
	second, secondOK := otherHelper.ReadNextRecord()

	havePrev := false

	var prev T

	for {
		rec, fromFirst, newRun, any := t.pickNext(first, firstOK, second, secondOK, prev, havePrev)
		if !any {
			break
		}

		if newRun {
			series++
		}

		_ = t.WriteNextRecord(rec)

		if fromFirst {
			first, firstOK = helper.ReadNextRecord()
		} else {
			second, secondOK = otherHelper.ReadNextRecord()
		}

		prev = rec
		havePrev = true
	}

	return series
}

// pickNext chooses the next record to emit during Join. It prefers a head
// that continues the current run (>= prev); if no head qualifies, it falls
// back to the smaller head overall and signals newRun. Ties prefer first
// (helper) over second (otherHelper).
func (t *Tape[T]) pickNext(first T, firstOK bool, second T, secondOK bool, prev T, havePrev bool) (rec T, fromFirst, newRun, any bool) {
	firstQualifies := firstOK && (!havePrev || t.c.LessOrEqual(prev, first))
	secondQualifies := secondOK && (!havePrev || t.c.LessOrEqual(prev, second))

	switch {
	case firstQualifies && secondQualifies:
		if t.c.LessOrEqual(first, second) {
			return first, true, false, true
		}

		return second, false, false, true
	case firstQualifies:
		return first, true, false, true
	case secondQualifies:
		return second, false, false, true
	}

	// Neither head continues the current run: start a new one, picking the
	// overall smaller of whichever heads remain.
	switch {
	case firstOK && secondOK:
		if t.c.LessOrEqual(first, second) {
			return first, true, true, true
		}

		return second, false, true, true
	case firstOK:
		return first, true, true, true
	case secondOK:
		return second, false, true, true
	default:
		return rec, false, false, false
	}
}
