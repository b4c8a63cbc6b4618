package bitio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderIntegers(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x03, 0, 0, 0, 0, 0, 0, 0, 4})
	u16, err := r.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), u16)

	u24, err := r.Uint24()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), u24)

	u32, err := r.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), u32)

	u64, err := r.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), u64)
}

func TestReaderEOF(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.Uint32()
	assert.ErrorIs(t, err, ErrEOF)
}

func TestRewindRereadsSameByte(t *testing.T) {
	// A single byte 0b1011_0101 split into a 4-bit left field and a
	// 4-bit right field, the way PFS packs drive index/id into one byte.
	r := NewReader([]byte{0xB5})
	high, err := r.Bits(4, Left)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xB), high)

	require.NoError(t, r.Rewind(1))

	low, err := r.Bits(4, Right)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x5), low)
}

func TestSeekOutOfRange(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	assert.Error(t, r.Seek(10))
	assert.Error(t, r.Seek(-1))
	assert.NoError(t, r.Seek(3))
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteUint16(0xABCD)
	w.WriteUint24(0x010203)
	w.WriteUint32(0xDEADBEEF)
	w.WriteUint64(1)

	r := NewReader(w.Bytes())
	u16, _ := r.Uint16()
	assert.Equal(t, uint16(0xABCD), u16)
	u24, _ := r.Uint24()
	assert.Equal(t, uint32(0x010203), u24)
	u32, _ := r.Uint32()
	assert.Equal(t, uint32(0xDEADBEEF), u32)
	u64, _ := r.Uint64()
	assert.Equal(t, uint64(1), u64)
}

func TestPackBits(t *testing.T) {
	b, err := PackBits([2]uint8{0xB, 4}, [2]uint8{0x5, 4})
	require.NoError(t, err)
	assert.Equal(t, byte(0xB5), b)

	_, err = PackBits([2]uint8{1, 4})
	assert.Error(t, err)
}
