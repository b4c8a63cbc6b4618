package wire

import (
	"github.com/go-logr/logr"

	"github.com/minemario64/portablefs/pkg/bitio"
	"github.com/minemario64/portablefs/pkg/consts"
	"github.com/minemario64/portablefs/pkg/logging"
	"github.com/minemario64/portablefs/pkg/pfserr"
)

// Container is the fully-decoded table portion of a PortableFS blob, plus
// the (still possibly compressed) trailing data region. pkg/payload is
// responsible for turning Payload into per-file byte slices and for
// compressing/decompressing it; wire never interprets payload bytes.
type Container struct {
	Header      Header
	Drives      []Drive
	Directories []DirectoryRecord
	Files       []FileRecord
	Payload     []byte
}

// Decode parses raw into a Container. It validates the magic, version,
// and directory ids; it does not check file ranges against the payload.
// That check is ValidatePayloadLength, which callers run against the
// decompressed region. In a v1 container the System attribute of every
// file is reported as false.
func Decode(raw []byte, log logr.Logger) (*Container, error) {
	r := bitio.NewReader(raw)

	header, err := decodeHeader(r, log)
	if err != nil {
		return nil, err
	}

	drives, err := decodeDrives(r, log)
	if err != nil {
		return nil, err
	}

	dirs, err := decodeDirectories(r, log)
	if err != nil {
		return nil, err
	}

	files, err := decodeFiles(r, log)
	if err != nil {
		return nil, err
	}
	if header.Version == consts.FormatV1 {
		for i := range files {
			files[i].System = false
		}
	}

	payload, err := r.Bytes(r.Len())
	if err != nil {
		return nil, pfserr.New("wire.Decode", pfserr.Truncated, "", err)
	}

	log.V(logging.LevelDebug).Info("decoded container",
		"version", header.Version, "drives", len(drives), "dirs", len(dirs), "files", len(files), "payloadLen", len(payload))

	return &Container{
		Header:      header,
		Drives:      drives,
		Directories: dirs,
		Files:       files,
		Payload:     payload,
	}, nil
}

// ValidatePayloadLength checks that every file's (offset, size) range fits
// within a data region of the given (decompressed) length, returning
// PayloadTooShort if not. Callers decompress the data region (if
// applicable) before calling this -- wire itself never compresses or
// decompresses.
func ValidatePayloadLength(files []FileRecord, payloadLen int) error {
	var max uint64
	for _, f := range files {
		end := f.Offset + f.Size
		if end > max {
			max = end
		}
	}
	if max > uint64(payloadLen) {
		return pfserr.New("wire.ValidatePayloadLength", pfserr.PayloadTooShort, "", nil)
	}
	return nil
}

// Encode serializes c into a complete container blob. c.Payload is written
// verbatim as the trailing data region -- it must already be the final
// (possibly compressed) bytes; pkg/payload is responsible for producing
// them and for recomputing dense file offsets before this is called.
func Encode(c *Container, log logr.Logger) ([]byte, error) {
	w := bitio.NewWriter()

	if c.Header.Version == consts.FormatV1 && c.Header.Compressed {
		return nil, pfserr.New("wire.Encode", pfserr.UnsupportedVersion, "", nil)
	}

	if err := EncodeHeader(w, c.Header); err != nil {
		return nil, err
	}
	if err := EncodeDrives(w, c.Drives); err != nil {
		return nil, err
	}
	if err := EncodeDirectories(w, c.Directories); err != nil {
		return nil, err
	}
	if err := EncodeFiles(w, c.Files, c.Header.Version); err != nil {
		return nil, err
	}
	w.WriteBytes(c.Payload)

	log.V(logging.LevelDebug).Info("encoded container",
		"version", c.Header.Version, "drives", len(c.Drives), "dirs", len(c.Directories), "files", len(c.Files), "totalLen", w.Len())

	return w.Bytes(), nil
}
