package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intellect4all/blockengines/codec"
)

func TestUint32RecordCodec_RoundTrips(t *testing.T) {
	t.Parallel()

	c := codec.Uint32RecordCodec()
	buf := make([]byte, c.Size)
	c.Encode(42, buf)
	require.Equal(t, uint32(42), c.Decode(buf))
	require.True(t, c.Less(1, 2))
	require.False(t, c.IsInvalid(0))
	require.True(t, c.IsInvalid(codec.Uint32RecordInvalid))
}

func TestInt64KeyCodec_InvalidSortsAboveEverything(t *testing.T) {
	t.Parallel()

	c := codec.Int64KeyCodec()
	require.True(t, c.Less(1_000_000, c.Invalid))
	require.True(t, c.Less(-1, 0))
}

func TestValueCodec_RoundTripsAndTrims(t *testing.T) {
	t.Parallel()

	c := codec.ValueCodec()
	v := codec.ValueFromString("hello")
	buf := make([]byte, c.Size)
	c.Encode(v, buf)
	got := c.Decode(buf)
	require.Equal(t, "hello", got.String())
	require.False(t, c.IsInvalid(v))
	require.True(t, c.IsInvalid(codec.ValueInvalid))
}
