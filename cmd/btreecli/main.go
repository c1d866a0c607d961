// Command btreecli is Engine B's CLI (spec section 6): an interactive
// line-based REPL over a BTree[int64, Value] backed by index.hex/data.hex.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/pflag"

	"github.com/intellect4all/blockengines/block"
	"github.com/intellect4all/blockengines/btree"
	"github.com/intellect4all/blockengines/codec"
	"github.com/intellect4all/blockengines/common"
	"github.com/intellect4all/blockengines/config"
)

const (
	indexFileName = "index.hex"
	dataFileName  = "data.hex"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "btreecli: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		indexBlockSize = pflag.Int("index-block-size", 0, "index device block size (default from config)")
		dataBlockSize  = pflag.Int("data-block-size", 0, "data device block size (default from config)")
		configPath     = pflag.String("config", config.FileName, "path to an optional JWCC config file")
	)

	pflag.Parse()

	explicit := *configPath != config.FileName

	cfg, err := config.Load(*configPath, explicit)
	if err != nil {
		return err
	}

	ibs, dbs := cfg.IndexBlockSize, cfg.DataBlockSize
	if *indexBlockSize != 0 {
		ibs = *indexBlockSize
	}

	if *dataBlockSize != 0 {
		dbs = *dataBlockSize
	}

	indexDev, err := block.Open(indexFileName, ibs, false)
	if err != nil {
		return err
	}

	dataDev, err := block.Open(dataFileName, dbs, false)
	if err != nil {
		return err
	}

	bt, err := btree.Open(indexDev, dataDev, codec.Int64KeyCodec(), codec.ValueCodec())
	if err != nil {
		return err
	}

	r := &repl{engine: btree.NewByteEngine(bt), bt: bt}

	return r.run()
}

// repl reads one command per line from stdin, consuming a second line for
// commands that need an argument (spec section 6's REPL surface).
type repl struct {
	engine common.KeyedEngine
	bt     *btree.BTree[int64, codec.Value]
	in     *liner.State
}

func (r *repl) run() error {
	r.in = liner.NewLiner()
	defer r.in.Close()

	r.in.SetCtrlCAborts(true)

	defer r.printFinalStats()

	for {
		line, err := r.in.Prompt("> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}

			return err
		}

		cmd := strings.TrimSpace(line)
		if cmd == "" {
			continue
		}

		r.in.AppendHistory(line)

		if err := r.dispatch(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func (r *repl) dispatch(cmd string) error {
	switch cmd {
	case "insert":
		return r.cmdInsert()
	case "remove":
		return r.cmdRemove()
	case "search":
		return r.cmdSearch()
	case "print":
		return r.bt.PrintIndex(os.Stdout)
	case "print data":
		return r.bt.PrintData(os.Stdout)
	case "print stats":
		return r.bt.PrintStats(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)

		return nil
	}
}

func (r *repl) nextLine() (string, error) {
	line, err := r.in.Prompt("")
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

func (r *repl) cmdInsert() error {
	line, err := r.nextLine()
	if err != nil {
		return err
	}

	key, rest, ok := strings.Cut(line, ":")
	if !ok {
		return fmt.Errorf("expected key:record, got %q", line)
	}

	k, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid key %q: %w", key, err)
	}

	val := codec.ValueFromString(rest)
	buf := make([]byte, codec.ValueWidth)
	codec.ValueCodec().Encode(val, buf)

	return r.engine.Insert(keyBytes(k), buf)
}

func (r *repl) cmdRemove() error {
	k, err := r.readKey()
	if err != nil {
		return err
	}

	return r.engine.Remove(keyBytes(k))
}

func (r *repl) cmdSearch() error {
	k, err := r.readKey()
	if err != nil {
		return err
	}

	buf, err := r.engine.Search(keyBytes(k))
	if err != nil {
		if err == common.ErrKeyNotFound {
			fmt.Println("not found")

			return nil
		}

		return err
	}

	var v codec.Value

	copy(v[:], buf)
	fmt.Println(v.String())

	return nil
}

func (r *repl) readKey() (int64, error) {
	line, err := r.nextLine()
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(line, 10, 64)
}

func (r *repl) printFinalStats() {
	s := r.bt.Stats()
	fmt.Printf("index: reads=%d writes=%d\n", s.IndexReads, s.IndexWrites)
	fmt.Printf("data:  reads=%d writes=%d\n", s.DataReads, s.DataWrites)
}

func keyBytes(k int64) []byte {
	buf := make([]byte, 8)

	c := codec.Int64KeyCodec()
	c.Encode(k, buf)

	return buf
}
