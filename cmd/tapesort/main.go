// Command tapesort is Engine A's CLI (spec section 6): sort a flat file of
// fixed-size uint32 records via external natural merge sort.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/intellect4all/blockengines/block"
	"github.com/intellect4all/blockengines/codec"
	"github.com/intellect4all/blockengines/config"
	"github.com/intellect4all/blockengines/sortengine"
)

const (
	mainFileName = "tape.txt"
	h1FileName   = "helper1.txt"
	h2FileName   = "helper2.txt"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tapesort: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		stdin      = pflag.BoolP("stdin", "s", false, "read records from standard input, one integer per line")
		random     = pflag.IntP("random", "r", 0, "generate N random records")
		fromFile   = pflag.StringP("file", "f", "", "sort an existing tape file at PATH")
		blockSize  = pflag.IntP("block-size", "b", 0, "block size in bytes (default from config, else 240)")
		configPath = pflag.String("config", config.FileName, "path to an optional JWCC config file")
	)

	pflag.Parse()

	explicit := *configPath != config.FileName

	cfg, err := config.Load(*configPath, explicit)
	if err != nil {
		return err
	}

	bs := cfg.SortBlockSize
	if *blockSize != 0 {
		bs = *blockSize
	}

	mainPath := mainFileName
	if *fromFile != "" {
		mainPath = *fromFile
	}

	switch {
	case *stdin:
		if err := writeFromStdin(mainPath, bs); err != nil {
			return err
		}
	case *random > 0:
		if err := writeRandom(mainPath, bs, *random); err != nil {
			return err
		}
	case *fromFile != "":
		// Sort the file in place; nothing to materialize first.
	default:
		return fmt.Errorf("one of -s, -r N, or -f PATH is required")
	}

	mainDev, err := block.Open(mainPath, bs, false)
	if err != nil {
		return err
	}

	h1Dev, err := block.Open(h1FileName, bs, true)
	if err != nil {
		return err
	}

	h2Dev, err := block.Open(h2FileName, bs, true)
	if err != nil {
		return err
	}

	sorter := sortengine.New[uint32](mainDev, h1Dev, h2Dev, codec.Uint32RecordCodec())

	report, err := sorter.Sort()
	if err != nil {
		return err
	}

	fmt.Printf("runs=%d reads=%d writes=%d\n", report.Runs, report.Reads, report.Writes)

	return nil
}

// writeFromStdin reads one unsigned integer per line (one record per line;
// blank lines are skipped) into a fresh tape file at path (spec section 6:
// "-s").
func writeFromStdin(path string, blockSize int) error {
	vals, err := readIntLines(os.Stdin)
	if err != nil {
		return err
	}

	return writeTape(path, blockSize, vals)
}

// writeRandom generates n pseudo-random records into a fresh tape file at
// path (spec section 6: "-r N").
func writeRandom(path string, blockSize, n int) error {
	vals := make([]uint32, n)
	for i := range vals {
		vals[i] = rand.Uint32() % 1_000_000 //nolint:gosec // test-data generation, not security sensitive
	}

	return writeTape(path, blockSize, vals)
}

func readIntLines(r *os.File) ([]uint32, error) {
	var vals []uint32

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		n, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("tapesort: invalid record %q: %w", line, err)
		}

		vals = append(vals, uint32(n))
	}

	return vals, scanner.Err()
}

func writeTape(path string, blockSize int, vals []uint32) error {
	dev, err := block.Open(path, blockSize, true)
	if err != nil {
		return err
	}

	c := codec.Uint32RecordCodec()

	buf := make([]byte, blockSize)

	maxPerBlock := blockSize / c.Size

	lba := uint64(0)
	off := 0

	flushBlock := func() error {
		for off+c.Size <= len(buf) {
			c.Encode(c.Invalid, buf[off:off+c.Size])
			off += c.Size
		}

		if err := dev.Write(lba, buf); err != nil {
			return err
		}

		lba++
		off = 0

		return nil
	}

	written := 0

	for _, v := range vals {
		c.Encode(v, buf[off:off+c.Size])

		off += c.Size
		written++

		if written == maxPerBlock {
			if err := flushBlock(); err != nil {
				return err
			}

			written = 0
		}
	}

	return flushBlock()
}
