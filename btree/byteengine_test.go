package btree_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intellect4all/blockengines/btree"
	"github.com/intellect4all/blockengines/codec"
	"github.com/intellect4all/blockengines/common"
)

func keyBytes(k int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(k))

	return buf
}

func TestByteEngine_RoundTripsThroughKeyedEngineInterface(t *testing.T) {
	t.Parallel()

	bt := openBTree(t, indexBlockSizeT2)

	var engine common.KeyedEngine = btree.NewByteEngine(bt)

	valBuf := make([]byte, codec.ValueWidth)
	copy(valBuf, "hello")

	require.NoError(t, engine.Insert(keyBytes(7), valBuf))

	got, err := engine.Search(keyBytes(7))
	require.NoError(t, err)
	require.Equal(t, "hello", codec.Value(got).String())

	require.NoError(t, engine.Remove(keyBytes(7)))

	_, err = engine.Search(keyBytes(7))
	require.ErrorIs(t, err, common.ErrKeyNotFound)
}

func TestByteEngine_WrongKeyWidth_Fails(t *testing.T) {
	t.Parallel()

	bt := openBTree(t, indexBlockSizeT2)

	engine := btree.NewByteEngine(bt)

	_, err := engine.Search([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestPrintIndexDataStats_DoNotError(t *testing.T) {
	t.Parallel()

	bt := openBTree(t, indexBlockSizeT2)

	for k := int64(1); k <= 10; k++ {
		require.NoError(t, bt.Insert(k, valueFor(k)))
	}

	var idx, data, stats bytes.Buffer
	require.NoError(t, bt.PrintIndex(&idx))
	require.NoError(t, bt.PrintData(&data))
	require.NoError(t, bt.PrintStats(&stats))

	require.Contains(t, idx.String(), "lba=0")
	require.Contains(t, data.String(), "v1")
	require.Contains(t, stats.String(), "keys=10")
}
