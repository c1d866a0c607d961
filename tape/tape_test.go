package tape_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intellect4all/blockengines/block"
	"github.com/intellect4all/blockengines/codec"
	"github.com/intellect4all/blockengines/tape"
)

const testBlockSize = 24 // 6 uint32 slots: room for 5 records plus a sentinel

func openTape(t *testing.T, name string) *tape.Tape[uint32] {
	t.Helper()

	dev, err := block.Open(filepath.Join(t.TempDir(), name), testBlockSize, true)
	require.NoError(t, err)

	t.Cleanup(func() { _ = dev.Close() })

	return tape.New[uint32](dev, codec.Uint32RecordCodec())
}

// seed writes vals followed by the invalid sentinel to tp, starting at
// block 0, and flushes.
func seed(t *testing.T, tp *tape.Tape[uint32], vals []uint32) {
	t.Helper()

	require.NoError(t, tp.SetHead(0, 0))

	for _, v := range vals {
		require.NoError(t, tp.WriteNextRecord(v))
	}

	require.NoError(t, tp.WriteNextRecord(codec.Uint32RecordInvalid))
	require.NoError(t, tp.Flush())
	require.NoError(t, tp.SetHead(0, 0))
}

func readAll(t *testing.T, tp *tape.Tape[uint32]) []uint32 {
	t.Helper()

	require.NoError(t, tp.SetHead(0, 0))

	var out []uint32

	for {
		rec, ok := tp.ReadNextRecord()
		if !ok {
			break
		}

		out = append(out, rec)
	}

	return out
}

func TestWriteRead_RoundTrips(t *testing.T) {
	t.Parallel()

	tp := openTape(t, "main.bin")
	seed(t, tp, []uint32{1, 2, 3})

	require.Equal(t, []uint32{1, 2, 3}, readAll(t, tp))
}

func TestSetHead_RejectsOutOfRangeOffset(t *testing.T) {
	t.Parallel()

	tp := openTape(t, "main.bin")
	require.Error(t, tp.SetHead(testBlockSize, 0))
	require.Error(t, tp.SetHead(-1, 0))
}

func TestSplit_CountsSeriesAndAlternatesRouting(t *testing.T) {
	t.Parallel()

	main := openTape(t, "main.bin")
	h1 := openTape(t, "h1.bin")
	h2 := openTape(t, "h2.bin")

	seed(t, main, []uint32{5, 2, 1, 3, 4})

	series := main.Split(h1, h2)
	require.Equal(t, uint64(3), series)

	require.Equal(t, []uint32{5, 1, 3, 4}, readAll(t, h1))
	require.Equal(t, []uint32{2}, readAll(t, h2))
}

func TestJoin_MergesRunsAndReportsNewSeriesCount(t *testing.T) {
	t.Parallel()

	main := openTape(t, "main.bin")
	h1 := openTape(t, "h1.bin")
	h2 := openTape(t, "h2.bin")

	seed(t, h1, []uint32{5, 1, 3, 4})
	seed(t, h2, []uint32{2})

	series := main.Join(h1, h2)
	require.Equal(t, uint64(2), series)
	require.Equal(t, []uint32{2, 5, 1, 3, 4}, readAll(t, main))
}

func TestJoin_TiesPreferFirstHelper(t *testing.T) {
	t.Parallel()

	main := openTape(t, "main.bin")
	h1 := openTape(t, "h1.bin")
	h2 := openTape(t, "h2.bin")

	seed(t, h1, []uint32{1, 2})
	seed(t, h2, []uint32{1, 2})

	series := main.Join(h1, h2)
	require.Equal(t, uint64(1), series)
	require.Equal(t, []uint32{1, 1, 2, 2}, readAll(t, main))
}

func TestSplit_ReversedFiveElements_SeriesIsFive(t *testing.T) {
	t.Parallel()

	main := openTape(t, "main.bin")
	h1 := openTape(t, "h1.bin")
	h2 := openTape(t, "h2.bin")

	seed(t, main, []uint32{5, 4, 3, 2, 1})

	series := main.Split(h1, h2)
	require.Equal(t, uint64(5), series)
}

func TestSplit_AlreadySorted_SingleRunOnFirstHelper(t *testing.T) {
	t.Parallel()

	main := openTape(t, "main.bin")
	h1 := openTape(t, "h1.bin")
	h2 := openTape(t, "h2.bin")

	seed(t, main, []uint32{1, 2, 3, 4})

	series := main.Split(h1, h2)
	require.Equal(t, uint64(1), series)
	require.Equal(t, []uint32{1, 2, 3, 4}, readAll(t, h1))
	require.Empty(t, readAll(t, h2))
}
