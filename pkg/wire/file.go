package wire

import (
	"github.com/go-logr/logr"

	"github.com/minemario64/portablefs/pkg/bitio"
	"github.com/minemario64/portablefs/pkg/consts"
	"github.com/minemario64/portablefs/pkg/logging"
	"github.com/minemario64/portablefs/pkg/pfserr"
)

// FileRecord is a single entry in the file table: its name, attributes, the
// id of its parent (a drive or directory), and its byte range in the data
// region. In a v1 container the System attribute is always false (the bit
// does not exist on disk).
type FileRecord struct {
	Name     string
	ReadOnly bool
	Hidden   bool
	System   bool
	ParentID uint16
	Offset   uint64
	Size     uint64
}

// decodeFiles parses the 3-byte count followed by that many variable-length
// file records.
func decodeFiles(r *bitio.Reader, log logr.Logger) ([]FileRecord, error) {
	count, err := r.Uint24()
	if err != nil {
		return nil, pfserr.New("wire.decodeFiles", pfserr.Truncated, "", err)
	}

	files := make([]FileRecord, 0, count)
	for i := 0; i < int(count); i++ {
		rec, err := decodeFileRecord(r)
		if err != nil {
			return nil, err
		}
		files = append(files, rec)
	}

	log.V(logging.LevelTrace).Info("decoded file table", "count", len(files))
	return files, nil
}

func decodeFileRecord(r *bitio.Reader) (FileRecord, error) {
	nameLen, err := r.Byte()
	if err != nil {
		return FileRecord{}, pfserr.New("wire.decodeFileRecord", pfserr.Truncated, "", err)
	}
	if r.Len() < int(nameLen) {
		return FileRecord{}, pfserr.New("wire.decodeFileRecord", pfserr.Truncated, "", nil)
	}
	nameBytes, err := r.Bytes(int(nameLen))
	if err != nil {
		return FileRecord{}, pfserr.New("wire.decodeFileRecord", pfserr.Truncated, "", err)
	}

	attr, err := r.Byte()
	if err != nil {
		return FileRecord{}, pfserr.New("wire.decodeFileRecord", pfserr.Truncated, "", err)
	}

	parentID, err := r.Uint16()
	if err != nil {
		return FileRecord{}, pfserr.New("wire.decodeFileRecord", pfserr.Truncated, "", err)
	}

	offset, err := r.Uint64()
	if err != nil {
		return FileRecord{}, pfserr.New("wire.decodeFileRecord", pfserr.Truncated, "", err)
	}
	size, err := r.Uint64()
	if err != nil {
		return FileRecord{}, pfserr.New("wire.decodeFileRecord", pfserr.Truncated, "", err)
	}

	return FileRecord{
		Name:     string(nameBytes),
		ReadOnly: attr&consts.FileAttrReadOnly != 0,
		Hidden:   attr&consts.FileAttrHidden != 0,
		System:   attr&consts.FileAttrSystem != 0,
		ParentID: parentID,
		Offset:   offset,
		Size:     size,
	}, nil
}

// EncodeFiles appends the 3-byte count and every file record to w. When
// version is FormatV1, the System bit is never set regardless of the
// record's System field; rejecting v1 encodes for containers that actually
// have a system file is the session save path's responsibility.
func EncodeFiles(w *bitio.Writer, files []FileRecord, version int) error {
	if len(files) > consts.MaxFiles {
		return pfserr.New("wire.EncodeFiles", pfserr.TooManyFiles, "", nil)
	}
	w.WriteUint24(uint32(len(files)))

	for _, f := range files {
		nameBytes := []byte(f.Name)
		if len(nameBytes) > consts.MaxNameBytes {
			return pfserr.New("wire.EncodeFiles", pfserr.NameTooLong, f.Name, nil)
		}
		if err := w.WriteByte(byte(len(nameBytes))); err != nil {
			return err
		}
		w.WriteBytes(nameBytes)

		var attr byte
		if f.ReadOnly {
			attr |= consts.FileAttrReadOnly
		}
		if f.Hidden {
			attr |= consts.FileAttrHidden
		}
		if f.System && version >= consts.FormatV2 {
			attr |= consts.FileAttrSystem
		}
		if err := w.WriteByte(attr); err != nil {
			return err
		}

		w.WriteUint16(f.ParentID)
		w.WriteUint64(f.Offset)
		w.WriteUint64(f.Size)
	}
	return nil
}
