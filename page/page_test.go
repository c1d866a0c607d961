package page_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intellect4all/blockengines/block"
	"github.com/intellect4all/blockengines/codec"
	"github.com/intellect4all/blockengines/page"
)

func openDevice(t *testing.T, blockSize int) *block.Device {
	t.Helper()

	dev, err := block.Open(filepath.Join(t.TempDir(), "dev.bin"), blockSize, true)
	require.NoError(t, err)

	t.Cleanup(func() { _ = dev.Close() })

	return dev
}

func TestLoad_NeverWritten_YieldsEmptyDirtyPage(t *testing.T) {
	t.Parallel()

	c := codec.Uint32RecordCodec()
	dev := openDevice(t, 64)

	p, err := page.Load[uint32](dev, 3, 0, c)
	require.NoError(t, err)
	require.True(t, p.Dirty)
	require.Empty(t, p.Records)
	require.Zero(t, dev.Writes())
}

func TestLoad_NotMutated_PerformsZeroWrites(t *testing.T) {
	t.Parallel()

	c := codec.Uint32RecordCodec()
	dev := openDevice(t, 64)

	seed := page.Empty[uint32](dev, 0, 0, c)
	require.NoError(t, seed.Append(10))
	require.NoError(t, seed.Append(20))
	require.NoError(t, seed.Close())

	writesBefore := dev.Writes()

	p, err := page.Load[uint32](dev, 0, 0, c)
	require.NoError(t, err)
	require.Equal(t, []uint32{10, 20}, p.Records)

	require.NoError(t, p.Close())
	require.Equal(t, writesBefore, dev.Writes())
}

func TestLoad_Mutated_PerformsExactlyOneWrite(t *testing.T) {
	t.Parallel()

	c := codec.Uint32RecordCodec()
	dev := openDevice(t, 64)

	seed := page.Empty[uint32](dev, 0, 0, c)
	require.NoError(t, seed.Append(10))
	require.NoError(t, seed.Close())

	writesBefore := dev.Writes()

	p, err := page.Load[uint32](dev, 0, 0, c)
	require.NoError(t, err)

	require.NoError(t, p.Append(99))
	require.NoError(t, p.Close())
	require.Equal(t, writesBefore+1, dev.Writes())

	reloaded, err := page.Load[uint32](dev, 0, 0, c)
	require.NoError(t, err)
	require.Equal(t, []uint32{10, 99}, reloaded.Records)
}

func TestFlush_PadsWithInvalidSentinel(t *testing.T) {
	t.Parallel()

	c := codec.Uint32RecordCodec()
	dev := openDevice(t, 16) // 4 records per block

	p := page.Empty[uint32](dev, 0, 0, c)
	require.NoError(t, p.Append(7))
	require.NoError(t, p.Close())

	reloaded, err := page.Load[uint32](dev, 0, 0, c)
	require.NoError(t, err)
	require.Equal(t, []uint32{7}, reloaded.Records)
	require.Equal(t, 4, reloaded.MaxRecords())
}

func TestInsertAtAndRemoveAt(t *testing.T) {
	t.Parallel()

	c := codec.Uint32RecordCodec()
	dev := openDevice(t, 64)

	p := page.Empty[uint32](dev, 0, 0, c)
	require.NoError(t, p.Append(1))
	require.NoError(t, p.Append(3))
	require.NoError(t, p.InsertAt(1, 2))
	require.Equal(t, []uint32{1, 2, 3}, p.Records)

	p.RemoveAt(0)
	require.Equal(t, []uint32{2, 3}, p.Records)
}

func TestAppend_OverflowsAtCapacity(t *testing.T) {
	t.Parallel()

	c := codec.Uint32RecordCodec()
	dev := openDevice(t, 8) // 2 records per block

	p := page.Empty[uint32](dev, 0, 0, c)
	require.NoError(t, p.Append(1))
	require.NoError(t, p.Append(2))
	require.ErrorIs(t, p.Append(3), page.ErrOverflow)
}
