package btree

// allocator implements spec 4.5.3's LBA allocation scheme: two monotonic
// counters plus two sparse free sets. Index LBAs are popped eagerly;
// data LBAs are only peeked until the page at that LBA actually fills.
type allocator struct {
	nextIndexLBA uint64
	nextDataLBA  uint64

	freeIndex map[uint64]struct{}
	freeData  map[uint64]struct{}
}

// newAllocator starts counters at firstFreeIndexLBA/firstFreeDataLBA — the
// caller has already claimed the lower LBAs (e.g. LBA 0 for the root).
func newAllocator(firstFreeIndexLBA, firstFreeDataLBA uint64) *allocator {
	return &allocator{
		nextIndexLBA: firstFreeIndexLBA,
		nextDataLBA:  firstFreeDataLBA,
		freeIndex:    make(map[uint64]struct{}),
		freeData:     make(map[uint64]struct{}),
	}
}

func minKey(m map[uint64]struct{}) (uint64, bool) {
	first := true

	var min uint64

	for k := range m {
		if first || k < min {
			min = k
			first = false
		}
	}

	return min, !first
}

// NextIndexLBA pops the minimum free index LBA, or mints a fresh one.
func (a *allocator) NextIndexLBA() uint64 {
	if lba, ok := minKey(a.freeIndex); ok {
		delete(a.freeIndex, lba)

		return lba
	}

	lba := a.nextIndexLBA
	a.nextIndexLBA++

	return lba
}

// FreeIndexLBA returns lba to the free set, available for reuse.
func (a *allocator) FreeIndexLBA(lba uint64) {
	a.freeIndex[lba] = struct{}{}
}

// PeekDataLBA returns the LBA inserts should currently target, without
// committing to it (spec 4.5.3: "peeks, does not pop").
func (a *allocator) PeekDataLBA() uint64 {
	if lba, ok := minKey(a.freeData); ok {
		return lba
	}

	return a.nextDataLBA
}

// CommitDataLBA pops lba out of availability once its page has filled to
// capacity (spec 4.5.3: "the insert path pops it once a data page has been
// filled").
func (a *allocator) CommitDataLBA(lba uint64) {
	if _, ok := a.freeData[lba]; ok {
		delete(a.freeData, lba)

		return
	}

	if lba == a.nextDataLBA {
		a.nextDataLBA++
	}
}

// FreeDataLBA re-adds lba to the available set (spec 4.5.7: a data page
// that drops below capacity becomes a target for future inserts again).
func (a *allocator) FreeDataLBA(lba uint64) {
	if lba < a.nextDataLBA {
		a.freeData[lba] = struct{}{}
	}
}
