// Package payload implements the PortableFS data region codec:
// concatenating per-file byte buffers in tree emission order with
// densely-reassigned offsets, and the pluggable whole-region compression
// contract.
package payload

import (
	"github.com/klauspost/compress/zstd"

	"github.com/minemario64/portablefs/pkg/consts"
	"github.com/minemario64/portablefs/pkg/pfserr"
)

// Codec is the pluggable compression contract: compress the whole data
// region as one unit, or decompress it back. There is no per-file
// compression.
type Codec interface {
	Compress(data []byte, level int) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ZstdCodec is the reference Codec implementation: zstd framed
// compression via klauspost/compress/zstd.
type ZstdCodec struct{}

// Compress encodes data as a single zstd frame at the given level (1-22),
// mapped onto klauspost's coarser encoder levels by levelToEncoderLevel;
// a level of 0 or below uses SpeedDefault, and one above 22 uses
// SpeedBestCompression.
func (ZstdCodec) Compress(data []byte, level int) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(levelToEncoderLevel(level)))
	if err != nil {
		return nil, pfserr.New("payload.Compress", pfserr.Truncated, "", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

// Decompress decodes a single zstd frame produced by Compress.
func (ZstdCodec) Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, pfserr.New("payload.Decompress", pfserr.Truncated, "", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, pfserr.New("payload.Decompress", pfserr.Truncated, "", err)
	}
	return out, nil
}

// levelToEncoderLevel maps a 1-22 zstd level onto klauspost's coarser
// EncoderLevel enum (SpeedFastest..SpeedBestCompression).
func levelToEncoderLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 0:
		return zstd.SpeedDefault
	case level <= 3:
		return zstd.SpeedFastest
	case level <= 9:
		return zstd.SpeedDefault
	case level <= 15:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// Range is a file's byte range within the data region.
type Range struct {
	Offset uint64
	Size   uint64
}

// Pack concatenates buffers in order and returns the concatenated data
// region along with each buffer's densely-assigned (offset, size): each
// buffer's offset is the cumulative size of all buffers before it.
func Pack(buffers [][]byte) ([]byte, []Range) {
	ranges := make([]Range, len(buffers))
	var total uint64
	for i, b := range buffers {
		ranges[i] = Range{Offset: total, Size: uint64(len(b))}
		total += uint64(len(b))
	}
	data := make([]byte, 0, total)
	for _, b := range buffers {
		data = append(data, b...)
	}
	return data, ranges
}

// Slice extracts the byte range [offset, offset+size) from data, failing
// with PayloadTooShort if the range does not fit.
func Slice(data []byte, offset, size uint64) ([]byte, error) {
	end := offset + size
	if end > uint64(len(data)) {
		return nil, pfserr.New("payload.Slice", pfserr.PayloadTooShort, "", nil)
	}
	out := make([]byte, size)
	copy(out, data[offset:end])
	return out, nil
}

// EncodeRegion applies codec compression to data when compressed is true,
// otherwise returns data unchanged. level is only consulted when
// compressed.
func EncodeRegion(codec Codec, data []byte, compressed bool, level int) ([]byte, error) {
	if !compressed {
		return data, nil
	}
	if level < consts.MinCompressionLevel || level > consts.MaxCompressionLevel {
		level = consts.DefaultCompressionLevel
	}
	return codec.Compress(data, level)
}

// DecodeRegion reverses EncodeRegion.
func DecodeRegion(codec Codec, data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}
	return codec.Decompress(data)
}
