package btree

import (
	"fmt"
	"io"
	"strings"
)

// PrintIndex writes a plain-text, indented dump of the index tree's node
// structure to w: the REPL's "print" command. Non-goal per spec section 1
// excludes colored output, not a textual dump, so this stays un-colorized.
func (bt *BTree[K, T]) PrintIndex(w io.Writer) error {
	return bt.printNode(w, 0, noParent, 0)
}

func (bt *BTree[K, T]) printNode(w io.Writer, lba, parentLBA uint64, depth int) error {
	node, err := bt.index.Get(lba, parentLBA)
	if err != nil {
		return err
	}

	indent := strings.Repeat("  ", depth)

	fmt.Fprintf(w, "%slba=%d parent=%d keys=%d\n", indent, lba, parentLBA, bt.keysCount(node.Records))

	for _, rec := range node.Records {
		if IsGuard(rec, bt.keyCodec) {
			fmt.Fprintf(w, "%s  [guard] -> lba %d\n", indent, rec.ChildLBA)
		} else {
			fmt.Fprintf(w, "%s  key=%v data_lba=%d\n", indent, rec.Key, rec.DataLBA)
		}

		if rec.HasChild {
			if err := bt.printNode(w, rec.ChildLBA, lba, depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}

// PrintData writes every stored (key, value) pair in ascending key order:
// the REPL's "print data" command.
func (bt *BTree[K, T]) PrintData(w io.Writer) error {
	return bt.Each(func(k K, v T) bool {
		fmt.Fprintf(w, "%v: %v\n", k, v)

		return true
	})
}

// PrintStats writes the device counters and tree shape: the REPL's
// "print stats" command.
func (bt *BTree[K, T]) PrintStats(w io.Writer) error {
	s := bt.Stats()

	fmt.Fprintf(w, "index: reads=%d writes=%d\n", s.IndexReads, s.IndexWrites)
	fmt.Fprintf(w, "data:  reads=%d writes=%d\n", s.DataReads, s.DataWrites)
	fmt.Fprintf(w, "keys=%d height=%d\n", s.NumKeys, s.Height)

	return nil
}
