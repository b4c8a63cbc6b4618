// Package wire implements the deterministic binary codec for a PortableFS
// container: the fixed-prefix header, the drive table, the directory
// table, and the file table. It operates on already decompressed/
// compressed-as-a-whole data via pkg/payload; wire itself only ever sees
// the raw table bytes and the final data region slice.
package wire

import (
	"github.com/go-logr/logr"

	"github.com/minemario64/portablefs/pkg/bitio"
	"github.com/minemario64/portablefs/pkg/consts"
	"github.com/minemario64/portablefs/pkg/logging"
	"github.com/minemario64/portablefs/pkg/pfserr"
)

// Header is the fixed-prefix portion of a container: magic, format
// version, compression parameters (v2 only), and the container name.
type Header struct {
	Version          int
	Compressed       bool
	CompressionLevel int
	Name             string
}

// Drive is a single entry in the drive table: a single-letter name and its
// 4-bit id.
type Drive struct {
	Name string
	ID   uint8
}

// decodeHeader parses the magic, version, optional compression byte, and
// container name from the front of r. It does not read the drive table.
func decodeHeader(r *bitio.Reader, log logr.Logger) (Header, error) {
	magic, err := r.Bytes(len(consts.Magic))
	if err != nil {
		return Header{}, pfserr.New("wire.decodeHeader", pfserr.Truncated, "", err)
	}
	if string(magic) != consts.Magic {
		return Header{}, pfserr.New("wire.decodeHeader", pfserr.BadMagic, "", nil)
	}

	versionByte, err := r.Byte()
	if err != nil {
		return Header{}, pfserr.New("wire.decodeHeader", pfserr.Truncated, "", err)
	}
	version := int(versionByte) + 1
	if version != consts.FormatV1 && version != consts.FormatV2 {
		return Header{}, pfserr.New("wire.decodeHeader", pfserr.UnsupportedVersion, "", nil)
	}

	h := Header{Version: version}

	if version == consts.FormatV2 {
		compByte, err := r.Byte()
		if err != nil {
			return Header{}, pfserr.New("wire.decodeHeader", pfserr.Truncated, "", err)
		}
		h.Compressed = compByte&consts.CompressedFlagBit != 0
		h.CompressionLevel = int(compByte & consts.CompressionLevelMask)
	}

	nameBytes, err := r.Bytes(consts.ContainerNameSize)
	if err != nil {
		return Header{}, pfserr.New("wire.decodeHeader", pfserr.Truncated, "", err)
	}
	end := len(nameBytes)
	for end > 0 && nameBytes[end-1] == 0 {
		end--
	}
	h.Name = string(nameBytes[:end])

	log.V(logging.LevelTrace).Info("decoded header",
		"version", h.Version, "compressed", h.Compressed, "level", h.CompressionLevel, "name", h.Name)

	return h, nil
}

// decodeDrives parses the drive-count nibble and the per-drive bytes that
// follow it.
func decodeDrives(r *bitio.Reader, log logr.Logger) ([]Drive, error) {
	countByte, err := r.Byte()
	if err != nil {
		return nil, pfserr.New("wire.decodeDrives", pfserr.Truncated, "", err)
	}
	count := int(countByte >> 4)

	drives := make([]Drive, 0, count)
	for i := 0; i < count; i++ {
		b, err := r.Byte()
		if err != nil {
			return nil, pfserr.New("wire.decodeDrives", pfserr.Truncated, "", err)
		}
		idx := b >> 4
		id := b & 0x0F
		if int(idx) >= len(consts.DriveAlphabet) {
			return nil, pfserr.New("wire.decodeDrives", pfserr.BadDriveName, "", nil)
		}
		drives = append(drives, Drive{Name: string(consts.DriveAlphabet[idx]), ID: id})
	}

	log.V(logging.LevelTrace).Info("decoded drive table", "count", len(drives))
	return drives, nil
}

// EncodeHeader appends the header fields to w. v1 omits the compression
// byte entirely; callers must not set Compressed for a v1 encode (the
// caller, not EncodeHeader, is responsible for choosing v1 vs v2).
func EncodeHeader(w *bitio.Writer, h Header) error {
	w.WriteBytes([]byte(consts.Magic))
	if err := w.WriteByte(byte(h.Version - 1)); err != nil {
		return err
	}

	if h.Version == consts.FormatV2 {
		var comp byte
		if h.Compressed {
			comp |= consts.CompressedFlagBit
		}
		comp |= byte(h.CompressionLevel) & consts.CompressionLevelMask
		if err := w.WriteByte(comp); err != nil {
			return err
		}
	}

	nameBytes := []byte(h.Name)
	if len(nameBytes) > consts.ContainerNameSize {
		return pfserr.New("wire.EncodeHeader", pfserr.NameTooLong, h.Name, nil)
	}
	padded := make([]byte, consts.ContainerNameSize)
	copy(padded, nameBytes)
	w.WriteBytes(padded)

	return nil
}

// EncodeDrives appends the drive-count nibble (low nibble reserved zero)
// and the per-drive bytes to w.
func EncodeDrives(w *bitio.Writer, drives []Drive) error {
	if len(drives) > consts.MaxDrives {
		return pfserr.New("wire.EncodeDrives", pfserr.TooManyDrives, "", nil)
	}
	countByte, err := bitio.PackBits([2]uint8{uint8(len(drives)), 4}, [2]uint8{0, 4})
	if err != nil {
		return err
	}
	if err := w.WriteByte(countByte); err != nil {
		return err
	}

	for _, d := range drives {
		idx := indexInAlphabet(d.Name)
		if idx < 0 {
			return pfserr.New("wire.EncodeDrives", pfserr.BadDriveName, d.Name, nil)
		}
		b, err := bitio.PackBits([2]uint8{uint8(idx), 4}, [2]uint8{d.ID, 4})
		if err != nil {
			return err
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

func indexInAlphabet(name string) int {
	for i := 0; i < len(consts.DriveAlphabet); i++ {
		if consts.DriveAlphabet[i] == name[0] {
			return i
		}
	}
	return -1
}
