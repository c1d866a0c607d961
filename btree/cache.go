package btree

import (
	"container/list"
	"fmt"

	"github.com/intellect4all/blockengines/block"
	"github.com/intellect4all/blockengines/codec"
	"github.com/intellect4all/blockengines/page"
)

// pageCache is a fixed-capacity LRU of pages backed by dev, keyed by LBA
// (spec 4.5.2). It is generic over the record type so the same cache shape
// serves both the index device (Record[K]) and the data device (Pair[K,T]).
//
// Design note (spec section 9, "Shared mutable page handles" /
// "LRU eviction vs. correctness"): the spec's source enforces a single live
// mutable borrow per LBA with a panicking borrow counter, because Rust has
// no garbage collector to paper over a page being mutated from two call
// frames at once. Go has no borrow checker, and this engine is
// single-threaded (spec section 5), so the simplification the design notes
// explicitly allow — "a single owner-cell per cache entry suffices" — is
// just: the cache hands out the same *page.Page[T] pointer to every caller
// holding lba, so recursive descents that re-touch an already-open page see
// one consistent, already-mutated object instead of a stale copy. There is
// nothing to enforce; there is nothing to get wrong.
type pageCache[T comparable] struct {
	dev *block.Device
	c   codec.Codec[T]
	cap int

	ll      *list.List
	entries map[uint64]*list.Element
}

type cacheEntry[T comparable] struct {
	lba  uint64
	page *page.Page[T]
}

// newPageCache builds a cache of the given capacity over dev.
func newPageCache[T comparable](dev *block.Device, c codec.Codec[T], capacity int) *pageCache[T] {
	return &pageCache[T]{
		dev:     dev,
		c:       c,
		cap:     capacity,
		ll:      list.New(),
		entries: make(map[uint64]*list.Element),
	}
}

// Get returns the page at lba, loading it from dev on a cache miss
// (page.Load's own contract covers "never written" lbas by returning an
// empty, dirty page). parentLBA is recorded on the page for bookkeeping
// (spec B2); it is not re-validated against an existing cached entry.
func (pc *pageCache[T]) Get(lba, parentLBA uint64) (*page.Page[T], error) {
	if el, ok := pc.entries[lba]; ok {
		pc.ll.MoveToFront(el)

		return el.Value.(*cacheEntry[T]).page, nil
	}

	p, err := page.Load(pc.dev, lba, parentLBA, pc.c)
	if err != nil {
		return nil, fmt.Errorf("btree: cache load lba %d: %w", lba, err)
	}

	if err := pc.insert(lba, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (pc *pageCache[T]) insert(lba uint64, p *page.Page[T]) error {
	el := pc.ll.PushFront(&cacheEntry[T]{lba: lba, page: p})
	pc.entries[lba] = el

	for pc.cap > 0 && pc.ll.Len() > pc.cap {
		if err := pc.evictOldest(); err != nil {
			return err
		}
	}

	return nil
}

// evictOldest flushes and drops the least-recently-used entry. A dirty page
// flushes synchronously before its slot is reused (spec section 9,
// "LRU eviction vs. correctness").
func (pc *pageCache[T]) evictOldest() error {
	el := pc.ll.Back()
	if el == nil {
		return nil
	}

	entry := el.Value.(*cacheEntry[T])

	if err := entry.page.Close(); err != nil {
		return fmt.Errorf("btree: evict lba %d: %w", entry.lba, err)
	}

	pc.ll.Remove(el)
	delete(pc.entries, entry.lba)

	return nil
}

// Invalidate drops lba from the cache without flushing it. Used when a page
// is logically destroyed (root collapse, sibling merge) and its LBA is about
// to be reused for unrelated content — flushing the old, now-meaningless
// Records would corrupt whatever gets allocated there next.
func (pc *pageCache[T]) Invalidate(lba uint64) {
	el, ok := pc.entries[lba]
	if !ok {
		return
	}

	pc.ll.Remove(el)
	delete(pc.entries, lba)
}

// Flush writes every dirty cached page without evicting it.
func (pc *pageCache[T]) Flush() error {
	for el := pc.ll.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*cacheEntry[T])
		if err := entry.page.Flush(); err != nil {
			return err
		}
	}

	return nil
}

// Close flushes and evicts every cached page.
func (pc *pageCache[T]) Close() error {
	for pc.ll.Len() > 0 {
		if err := pc.evictOldest(); err != nil {
			return err
		}
	}

	return nil
}
