package payload

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackAssignsDenseOffsets(t *testing.T) {
	data, ranges := Pack([][]byte{[]byte("hi"), {}, []byte("there")})
	assert.Equal(t, "hithere", string(data))
	assert.Equal(t, []Range{{0, 2}, {2, 0}, {2, 5}}, ranges)
}

func TestSliceRoundTrip(t *testing.T) {
	data, ranges := Pack([][]byte{[]byte("abc"), []byte("defgh")})
	for i, want := range [][]byte{[]byte("abc"), []byte("defgh")} {
		got, err := Slice(data, ranges[i].Offset, ranges[i].Size)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSliceTooShort(t *testing.T) {
	_, err := Slice([]byte("ab"), 0, 10)
	assert.Error(t, err)
}

func TestZstdRoundTrip(t *testing.T) {
	codec := ZstdCodec{}
	original := bytes.Repeat([]byte{0x00}, 100*1024)

	compressed, err := codec.Compress(original, 10)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(original))

	decompressed, err := codec.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestEncodeDecodeRegionRoundTrip(t *testing.T) {
	codec := ZstdCodec{}
	original := []byte("hello world hello world hello world")

	encoded, err := EncodeRegion(codec, original, true, 5)
	require.NoError(t, err)

	decoded, err := DecodeRegion(codec, encoded, true)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)

	passthrough, err := EncodeRegion(codec, original, false, 5)
	require.NoError(t, err)
	assert.Equal(t, original, passthrough)
}
