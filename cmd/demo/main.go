// Command demo walks both engines end to end against throwaway files in a
// temp directory: Engine A sorts a small tape, Engine B builds an index over
// a handful of keys and prints it back out.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/intellect4all/blockengines/block"
	"github.com/intellect4all/blockengines/btree"
	"github.com/intellect4all/blockengines/codec"
	"github.com/intellect4all/blockengines/config"
	"github.com/intellect4all/blockengines/sortengine"
)

func main() {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("Block Engines Demo: Engine A (tape sort) and Engine B (B-tree index)")
	fmt.Println(strings.Repeat("=", 72))

	dir, err := os.MkdirTemp("", "blockengines-demo")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	demoTapeSorter(dir)
	fmt.Println()
	demoBTree(dir)
}

func demoTapeSorter(dir string) {
	fmt.Println("\n### Engine A: Tape Sorter ###")
	fmt.Println(strings.Repeat("-", 40))

	cfg := config.Default()

	input := []uint32{42, 7, 19, 3, 88, 1, 56, 23}
	fmt.Printf("unsorted: %v\n", input)

	c := codec.Uint32RecordCodec()

	mainPath := filepath.Join(dir, "tape.txt")

	mainDev, err := block.Open(mainPath, cfg.SortBlockSize, true)
	if err != nil {
		log.Fatal(err)
	}

	buf := make([]byte, cfg.SortBlockSize)

	off := 0
	for _, v := range input {
		c.Encode(v, buf[off:off+c.Size])
		off += c.Size
	}

	for off+c.Size <= len(buf) {
		c.Encode(c.Invalid, buf[off:off+c.Size])
		off += c.Size
	}

	if err := mainDev.Write(0, buf); err != nil {
		log.Fatal(err)
	}

	if err := mainDev.Close(); err != nil {
		log.Fatal(err)
	}

	mainDev, err = block.Open(mainPath, cfg.SortBlockSize, false)
	if err != nil {
		log.Fatal(err)
	}

	h1Dev, err := block.Open(filepath.Join(dir, "helper1.txt"), cfg.SortBlockSize, true)
	if err != nil {
		log.Fatal(err)
	}

	h2Dev, err := block.Open(filepath.Join(dir, "helper2.txt"), cfg.SortBlockSize, true)
	if err != nil {
		log.Fatal(err)
	}

	sorter := sortengine.New[uint32](mainDev, h1Dev, h2Dev, c)

	report, err := sorter.Sort()
	if err != nil {
		log.Fatal(err)
	}

	sorted, err := readTape(mainPath, cfg.SortBlockSize, c)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("sorted:   %v\n", sorted)
	fmt.Printf("report:   runs=%d reads=%d writes=%d\n", report.Runs, report.Reads, report.Writes)
}

func readTape(path string, blockSize int, c codec.Codec[uint32]) ([]uint32, error) {
	dev, err := block.Open(path, blockSize, false)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	var vals []uint32

	for lba := uint64(0); ; lba++ {
		buf, err := dev.Read(lba)
		if err != nil {
			break
		}

		done := false

		for off := 0; off+c.Size <= len(buf); off += c.Size {
			v := c.Decode(buf[off : off+c.Size])
			if c.IsInvalid(v) {
				done = true

				break
			}

			vals = append(vals, v)
		}

		if done {
			break
		}
	}

	return vals, nil
}

func demoBTree(dir string) {
	fmt.Println("\n### Engine B: B-Tree Index ###")
	fmt.Println(strings.Repeat("-", 40))

	cfg := config.Default()

	indexDev, err := block.Open(filepath.Join(dir, "index.hex"), cfg.IndexBlockSize, false)
	if err != nil {
		log.Fatal(err)
	}

	dataDev, err := block.Open(filepath.Join(dir, "data.hex"), cfg.DataBlockSize, false)
	if err != nil {
		log.Fatal(err)
	}

	bt, err := btree.Open(indexDev, dataDev, codec.Int64KeyCodec(), codec.ValueCodec())
	if err != nil {
		log.Fatal(err)
	}
	defer bt.Close()

	records := map[int64]string{
		101: "session:alice",
		205: "session:bob",
		42:  "config:app",
		7:   "config:db",
	}

	fmt.Println("\n[Inserting]")

	for k, v := range records {
		if err := bt.Insert(k, codec.ValueFromString(v)); err != nil {
			log.Fatal(err)
		}

		fmt.Printf("  insert %d -> %s\n", k, v)
	}

	fmt.Println("\n[Searching]")

	v, found, err := bt.Search(42)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("  search 42 -> found=%v value=%s\n", found, v.String())

	fmt.Println("\n[Removing key 7]")

	if err := bt.Remove(7); err != nil {
		log.Fatal(err)
	}

	_, found, err = bt.Search(7)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("  search 7 -> found=%v\n", found)

	fmt.Println("\n[Index layout]")

	if err := bt.PrintIndex(os.Stdout); err != nil {
		log.Fatal(err)
	}

	fmt.Println("\n[Data in key order]")

	if err := bt.PrintData(os.Stdout); err != nil {
		log.Fatal(err)
	}

	fmt.Println("\n[Stats]")

	if err := bt.PrintStats(os.Stdout); err != nil {
		log.Fatal(err)
	}
}
