package sortengine_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/intellect4all/blockengines/block"
	"github.com/intellect4all/blockengines/codec"
	"github.com/intellect4all/blockengines/sortengine"
	"github.com/intellect4all/blockengines/tape"
)

const sortTestBlockSize = 24 // 6 uint32 slots

func openDevice(t *testing.T, name string) *block.Device {
	t.Helper()

	dev, err := block.Open(filepath.Join(t.TempDir(), name), sortTestBlockSize, true)
	require.NoError(t, err)

	t.Cleanup(func() { _ = dev.Close() })

	return dev
}

// seedMain writes vals to mainDev terminated by the invalid sentinel, ready
// for a fresh TapeSorter to read.
func seedMain(t *testing.T, mainDev *block.Device, vals []uint32) {
	t.Helper()

	c := codec.Uint32RecordCodec()
	tp := tape.New[uint32](mainDev, c)

	require.NoError(t, tp.SetHead(0, 0))

	for _, v := range vals {
		require.NoError(t, tp.WriteNextRecord(v))
	}

	require.NoError(t, tp.WriteNextRecord(c.Invalid))
	require.NoError(t, tp.Flush())
}

func readMain(t *testing.T, mainDev *block.Device) []uint32 {
	t.Helper()

	tp := tape.New[uint32](mainDev, codec.Uint32RecordCodec())
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

func TestSort_UnorderedInput(t *testing.T) {
	t.Parallel()

	mainDev := openDevice(t, "main.bin")
	h1Dev := openDevice(t, "h1.bin")
	h2Dev := openDevice(t, "h2.bin")

	seedMain(t, mainDev, []uint32{5, 2, 1, 3, 4})

	s := sortengine.New[uint32](mainDev, h1Dev, h2Dev, codec.Uint32RecordCodec())
	report, err := s.Sort()
	require.NoError(t, err)
	require.Equal(t, uint64(1), report.Runs)

	if diff := cmp.Diff([]uint32{1, 2, 3, 4, 5}, readMain(t, mainDev)); diff != "" {
		t.Fatalf("sorted output mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_ReversedInput(t *testing.T) {
	t.Parallel()

	mainDev := openDevice(t, "main.bin")
	h1Dev := openDevice(t, "h1.bin")
	h2Dev := openDevice(t, "h2.bin")

	seedMain(t, mainDev, []uint32{5, 4, 3, 2, 1})

	s := sortengine.New[uint32](mainDev, h1Dev, h2Dev, codec.Uint32RecordCodec())
	report, err := s.Sort()
	require.NoError(t, err)
	require.Equal(t, uint64(1), report.Runs)

	require.Equal(t, []uint32{1, 2, 3, 4, 5}, readMain(t, mainDev))
}

func TestSort_AlreadySorted_SingleDevicePassthrough(t *testing.T) {
	t.Parallel()

	mainDev := openDevice(t, "main.bin")
	h1Dev := openDevice(t, "h1.bin")
	h2Dev := openDevice(t, "h2.bin")

	seedMain(t, mainDev, []uint32{1, 2, 3, 4, 5})

	s := sortengine.New[uint32](mainDev, h1Dev, h2Dev, codec.Uint32RecordCodec())
	report, err := s.Sort()
	require.NoError(t, err)
	require.Equal(t, uint64(1), report.Runs)

	if diff := cmp.Diff([]uint32{1, 2, 3, 4, 5}, readMain(t, mainDev)); diff != "" {
		t.Fatalf("sorted output mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_IsPermutationAndReportsIO(t *testing.T) {
	t.Parallel()

	mainDev := openDevice(t, "main.bin")
	h1Dev := openDevice(t, "h1.bin")
	h2Dev := openDevice(t, "h2.bin")

	in := []uint32{9, 1, 8, 2, 7, 3, 6, 4, 5, 0}
	seedMain(t, mainDev, in)

	s := sortengine.New[uint32](mainDev, h1Dev, h2Dev, codec.Uint32RecordCodec())
	report, err := s.Sort()
	require.NoError(t, err)
	require.Equal(t, uint64(1), report.Runs)
	require.Positive(t, report.Reads)
	require.Positive(t, report.Writes)

	out := readMain(t, mainDev)
	require.Len(t, out, len(in))

	for i := 1; i < len(out); i++ {
		require.LessOrEqual(t, out[i-1], out[i])
	}

	wantCounts := map[uint32]int{}
	for _, v := range in {
		wantCounts[v]++
	}

	gotCounts := map[uint32]int{}
	for _, v := range out {
		gotCounts[v]++
	}

	require.Equal(t, wantCounts, gotCounts)
}
