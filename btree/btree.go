// Package btree implements Engine B: a clustered B-tree index over a
// companion data store (spec section 4.5), built on the page cache, LBA
// allocator, and BTreeRecord/Pair wire formats in this package, plus the
// shared block.Device and page.Page abstractions.
package btree

import (
	"errors"
	"fmt"

	"github.com/intellect4all/blockengines/block"
	"github.com/intellect4all/blockengines/codec"
	"github.com/intellect4all/blockengines/common"
	"github.com/intellect4all/blockengines/page"
)

// cacheCapacity is the page cache's fixed small capacity named as an example
// in spec section 4.5.2.
const cacheCapacity = 4

// noParent marks a page with no parent (the root).
const noParent = ^uint64(0)

// BTree is Engine B: a generic, type-safe index over K/T. ByteEngine adapts
// a concrete instantiation to common.KeyedEngine for the CLI.
type BTree[K comparable, T comparable] struct {
	indexDev *block.Device
	dataDev  *block.Device

	keyCodec   codec.Codec[K]
	valueCodec codec.Codec[T]
	recCodec   codec.Codec[Record[K]]
	pairCodec  codec.Codec[Pair[K, T]]

	index *pageCache[Record[K]]
	data  *pageCache[Pair[K, T]]

	alloc *allocator

	t       int // minimum degree
	maxKeys int // 2t - 1
}

// Open builds a BTree over indexDev/dataDev. The degree t is derived from
// the index block size and BTreeRecord's wire size (spec 4.5.1):
// child_count = block_size / record_size, t = child_count / 2.
func Open[K comparable, T comparable](indexDev, dataDev *block.Device, kc codec.Codec[K], vc codec.Codec[T]) (*BTree[K, T], error) {
	recCodec := RecordCodec(kc)
	pairCodec := PairCodec(kc, vc)

	childCount := indexDev.BlockSize() / recCodec.Size
	t := childCount / 2

	if t < 2 {
		return nil, fmt.Errorf("btree: index block size %d too small for key size %d (t=%d, need t>=2)",
			indexDev.BlockSize(), kc.Size, t)
	}

	bt := &BTree[K, T]{
		indexDev:   indexDev,
		dataDev:    dataDev,
		keyCodec:   kc,
		valueCodec: vc,
		recCodec:   recCodec,
		pairCodec:  pairCodec,
		index:      newPageCache(indexDev, recCodec, cacheCapacity),
		data:       newPageCache(dataDev, pairCodec, cacheCapacity),
		alloc:      newAllocator(1, 0), // LBA 0 is always the root
		t:          t,
		maxKeys:    2*t - 1,
	}

	return bt, nil
}

// keysCount returns the number of real keys in records, excluding a trailing
// guard if present.
func (bt *BTree[K, T]) keysCount(records []Record[K]) int {
	n := len(records)
	if n > 0 && IsGuard(records[n-1], bt.keyCodec) {
		n--
	}

	return n
}

// locate finds the first record in records whose key is >= target, or the
// guard, matching spec 4.5.4's search rule. found reports an exact key
// match (never true for the guard itself). idx == len(records) only when
// records is a guard-less leaf whose keys are all < target.
func locate[K comparable](records []Record[K], target K, kc codec.Codec[K]) (idx int, found bool) {
	for i, r := range records {
		if IsGuard(r, kc) {
			return i, false
		}

		if kc.LessOrEqual(target, r.Key) {
			return i, kc.Equal(target, r.Key)
		}
	}

	return len(records), false
}

// Search implements spec 4.5.4.
func (bt *BTree[K, T]) Search(key K) (T, bool, error) {
	var zero T

	lba := uint64(0)
	parent := noParent

	for {
		node, err := bt.index.Get(lba, parent)
		if err != nil {
			return zero, false, err
		}

		idx, found := locate(node.Records, key, bt.keyCodec)
		if found {
			val, err := bt.readValue(node.Records[idx].DataLBA, key)
			if err != nil {
				return zero, false, err
			}

			return val, true, nil
		}

		if idx == len(node.Records) || !node.Records[idx].HasChild {
			return zero, false, nil
		}

		parent = lba
		lba = node.Records[idx].ChildLBA
	}
}

// readValue scans the data page at dataLBA for key (spec 4.5.7: "linear
// within the page").
func (bt *BTree[K, T]) readValue(dataLBA uint64, key K) (T, error) {
	var zero T

	pg, err := bt.data.Get(dataLBA, 0)
	if err != nil {
		return zero, err
	}

	for _, p := range pg.Records {
		if bt.keyCodec.Equal(p.Key, key) {
			return p.Value, nil
		}
	}

	return zero, fmt.Errorf("btree: data page %d missing key present in index", dataLBA)
}

// writeValue appends (key, value) to the data page the allocator currently
// targets, committing that LBA out of availability once it fills (spec
// 4.5.3/4.5.7).
func (bt *BTree[K, T]) writeValue(key K, value T) (uint64, error) {
	lba := bt.alloc.PeekDataLBA()

	pg, err := bt.data.Get(lba, 0)
	if err != nil {
		return 0, err
	}

	if err := pg.Append(Pair[K, T]{Key: key, Value: value}); err != nil {
		return 0, fmt.Errorf("btree: data page %d: %w", lba, err)
	}

	if len(pg.Records) >= pg.MaxRecords() {
		bt.alloc.CommitDataLBA(lba)
	}

	return lba, nil
}

// removeValue deletes key's pair from the data page at dataLBA, freeing the
// page back to availability if it drops below capacity (spec 4.5.7).
func (bt *BTree[K, T]) removeValue(dataLBA uint64, key K) error {
	pg, err := bt.data.Get(dataLBA, 0)
	if err != nil {
		return err
	}

	wasFull := len(pg.Records) >= pg.MaxRecords()

	for i, p := range pg.Records {
		if bt.keyCodec.Equal(p.Key, key) {
			pg.RemoveAt(i)

			if wasFull {
				bt.alloc.FreeDataLBA(dataLBA)
			}

			return nil
		}
	}

	return fmt.Errorf("btree: data page %d missing key present in index", dataLBA)
}

// Insert implements spec 4.5.5: top-down split-before-descend.
func (bt *BTree[K, T]) Insert(key K, value T) error {
	if bt.keyCodec.IsInvalid(key) {
		return errors.New("btree: key equals the invalid sentinel")
	}

	root, err := bt.index.Get(0, noParent)
	if err != nil {
		return err
	}

	if bt.keysCount(root.Records) >= bt.maxKeys {
		if err := bt.splitRoot(root); err != nil {
			return err
		}
	}

	return bt.insertNode(0, noParent, root, key, value)
}

// splitRoot handles spec 4.5.5 step 1: move the full root's content into a
// fresh working page, leave the root with a single guard pointing at it,
// then run the ordinary split on that guard's child.
func (bt *BTree[K, T]) splitRoot(root *page.Page[Record[K]]) error {
	workingLBA := bt.alloc.NextIndexLBA()

	working, err := bt.index.Get(workingLBA, 0)
	if err != nil {
		return err
	}

	working.Records = append([]Record[K]{}, root.Records...)
	working.MarkDirty()

	root.Records = []Record[K]{NewGuard[K](workingLBA, bt.keyCodec.Invalid)}
	root.MarkDirty()

	_, err = bt.splitChild(root, working)

	return err
}

// splitChild implements spec 4.5.5's split_child. child is truncated
// in place and keeps its own LBA; a new sibling holding the upper half is
// allocated and returned. parent gains a new separator record pointing at
// child, and its former pointer to child is redirected to the sibling.
//
// Deviation from the literal spec text (documented in DESIGN.md as an open
// question resolution): when child is internal, the promoted separator's
// own child pointer (the subtree strictly between child's remaining keys
// and the separator's key) is reattached as child's new trailing guard, not
// the new sibling's — the sibling's range lies entirely above the
// separator's key, so that pointer cannot belong to it without breaking
// search's descend-through-first-key->=target rule.
func (bt *BTree[K, T]) splitChild(parent, child *page.Page[Record[K]]) (uint64, error) {
	keysCount := bt.keysCount(child.Records)
	mid := keysCount / 2
	sep := child.Records[mid]

	siblingLBA := bt.alloc.NextIndexLBA()

	sibling, err := bt.index.Get(siblingLBA, parent.LBA)
	if err != nil {
		return 0, err
	}

	sibling.Records = append([]Record[K]{}, child.Records[mid+1:]...)
	sibling.MarkDirty()

	child.Records = append([]Record[K]{}, child.Records[:mid]...)

	if sep.HasChild {
		child.Records = append(child.Records, NewGuard[K](sep.ChildLBA, bt.keyCodec.Invalid))
	}

	child.MarkDirty()

	idx := -1

	for i, r := range parent.Records {
		if r.HasChild && r.ChildLBA == child.LBA {
			idx = i

			break
		}
	}

	if idx < 0 {
		return 0, fmt.Errorf("%w: no parent slot points at child lba %d", common.ErrInvariant, child.LBA)
	}

	parent.Records[idx].ChildLBA = siblingLBA

	sepForParent := Record[K]{HasChild: true, ChildLBA: child.LBA, DataLBA: sep.DataLBA, Key: sep.Key}
	insertRecordAt(parent, idx, sepForParent)

	return siblingLBA, nil
}

// insertRecordAt inserts rec at index i in page.Records, shifting later
// records right, and marks the page dirty.
func insertRecordAt[K comparable](p *page.Page[Record[K]], i int, rec Record[K]) {
	p.Records = append(p.Records, Record[K]{})
	copy(p.Records[i+1:], p.Records[i:])
	p.Records[i] = rec
	p.MarkDirty()
}

// insertNode implements spec 4.5.5 step 2: the empty-page, leaf, and
// internal cases.
func (bt *BTree[K, T]) insertNode(lba, parentLBA uint64, node *page.Page[Record[K]], key K, value T) error {
	if len(node.Records) == 0 {
		dataLBA, err := bt.writeValue(key, value)
		if err != nil {
			return err
		}

		node.Records = append(node.Records, Record[K]{HasChild: false, DataLBA: dataLBA, Key: key})
		node.MarkDirty()

		return nil
	}

	isLeaf := !node.Records[0].HasChild

	idx, found := locate(node.Records, key, bt.keyCodec)
	if found {
		return nil // first-wins: a re-insert of an existing key is a no-op
	}

	if isLeaf {
		dataLBA, err := bt.writeValue(key, value)
		if err != nil {
			return err
		}

		insertRecordAt(node, idx, Record[K]{HasChild: false, DataLBA: dataLBA, Key: key})

		return nil
	}

	childLBA := node.Records[idx].ChildLBA

	child, err := bt.index.Get(childLBA, lba)
	if err != nil {
		return err
	}

	if bt.keysCount(child.Records) >= bt.maxKeys {
		if _, err := bt.splitChild(node, child); err != nil {
			return err
		}

		// node.Records shifted; re-locate (this also re-checks for a
		// same-key match landing exactly on the newly promoted separator).
		idx, found = locate(node.Records, key, bt.keyCodec)
		if found {
			return nil
		}

		childLBA = node.Records[idx].ChildLBA

		child, err = bt.index.Get(childLBA, lba)
		if err != nil {
			return err
		}
	}

	return bt.insertNode(childLBA, lba, child, key, value)
}

// Close flushes and releases both page caches and closes both devices.
func (bt *BTree[K, T]) Close() error {
	if err := bt.index.Close(); err != nil {
		return err
	}

	if err := bt.data.Close(); err != nil {
		return err
	}

	if err := bt.indexDev.Close(); err != nil {
		return err
	}

	return bt.dataDev.Close()
}

// Stats reports the device I/O counters and tree shape (spec section 6's
// REPL "print stats").
func (bt *BTree[K, T]) Stats() common.Stats {
	numKeys, height := bt.shape()

	return common.Stats{
		IndexReads:  bt.indexDev.Reads(),
		IndexWrites: bt.indexDev.Writes(),
		DataReads:   bt.dataDev.Reads(),
		DataWrites:  bt.dataDev.Writes(),
		NumKeys:     numKeys,
		Height:      height,
	}
}

// shape walks the leftmost spine to measure height and uses Each to count
// keys.
func (bt *BTree[K, T]) shape() (numKeys int64, height int) {
	lba := uint64(0)
	parent := noParent

	for {
		node, err := bt.index.Get(lba, parent)
		if err != nil || len(node.Records) == 0 {
			break
		}

		height++

		if !node.Records[0].HasChild {
			break
		}

		parent = lba
		lba = node.Records[0].ChildLBA
	}

	count := 0

	_ = bt.Each(func(K, T) bool {
		count++

		return true
	})

	return int64(count), height
}
