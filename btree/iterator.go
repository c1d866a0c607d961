package btree

// Each performs an in-order traversal of the tree, invoking fn with every
// (key, value) pair in ascending key order (spec invariant B3). Traversal
// stops early, without error, the first time fn returns false.
func (bt *BTree[K, T]) Each(fn func(K, T) bool) error {
	_, err := bt.eachNode(0, noParent, fn)

	return err
}

// eachNode visits lba's subtree in order. Each record's child pointer (when
// present) covers the range strictly below that record's key, so the child
// is always walked immediately before the record's own key is emitted; the
// trailing guard's child covers the range above every real key in the node.
func (bt *BTree[K, T]) eachNode(lba, parentLBA uint64, fn func(K, T) bool) (bool, error) {
	node, err := bt.index.Get(lba, parentLBA)
	if err != nil {
		return false, err
	}

	for _, rec := range node.Records {
		if rec.HasChild {
			cont, err := bt.eachNode(rec.ChildLBA, lba, fn)
			if err != nil {
				return false, err
			}

			if !cont {
				return false, nil
			}
		}

		if IsGuard(rec, bt.keyCodec) {
			continue
		}

		val, err := bt.readValue(rec.DataLBA, rec.Key)
		if err != nil {
			return false, err
		}

		if !fn(rec.Key, val) {
			return false, nil
		}
	}

	return true, nil
}
