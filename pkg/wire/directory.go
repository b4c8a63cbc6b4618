package wire

import (
	"github.com/go-logr/logr"

	"github.com/minemario64/portablefs/pkg/bitio"
	"github.com/minemario64/portablefs/pkg/consts"
	"github.com/minemario64/portablefs/pkg/logging"
	"github.com/minemario64/portablefs/pkg/pfserr"
)

// DirectoryRecord is a single entry in the directory table: a 15-bit id,
// its name, the hidden attribute, and its parent id (a drive id or another
// directory id).
type DirectoryRecord struct {
	ID       uint16
	Name     string
	Hidden   bool
	ParentID uint16
}

// decodeDirectories parses the 2-byte count followed by that many
// variable-length directory records.
func decodeDirectories(r *bitio.Reader, log logr.Logger) ([]DirectoryRecord, error) {
	count, err := r.Uint16()
	if err != nil {
		return nil, pfserr.New("wire.decodeDirectories", pfserr.Truncated, "", err)
	}

	dirs := make([]DirectoryRecord, 0, count)
	for i := 0; i < int(count); i++ {
		rec, err := decodeDirectoryRecord(r)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, rec)
	}

	log.V(logging.LevelTrace).Info("decoded directory table", "count", len(dirs))
	return dirs, nil
}

func decodeDirectoryRecord(r *bitio.Reader) (DirectoryRecord, error) {
	id, err := r.Uint16()
	if err != nil {
		return DirectoryRecord{}, pfserr.New("wire.decodeDirectoryRecord", pfserr.Truncated, "", err)
	}
	if id <= 0x0F || id > consts.MaxDirectoryID {
		return DirectoryRecord{}, pfserr.New("wire.decodeDirectoryRecord", pfserr.BadDirectoryID, "", nil)
	}

	nameLen, err := r.Byte()
	if err != nil {
		return DirectoryRecord{}, pfserr.New("wire.decodeDirectoryRecord", pfserr.Truncated, "", err)
	}
	if r.Len() < int(nameLen) {
		return DirectoryRecord{}, pfserr.New("wire.decodeDirectoryRecord", pfserr.Truncated, "", nil)
	}
	nameBytes, err := r.Bytes(int(nameLen))
	if err != nil {
		return DirectoryRecord{}, pfserr.New("wire.decodeDirectoryRecord", pfserr.Truncated, "", err)
	}

	attr, err := r.Byte()
	if err != nil {
		return DirectoryRecord{}, pfserr.New("wire.decodeDirectoryRecord", pfserr.Truncated, "", err)
	}

	parentID, err := r.Uint16()
	if err != nil {
		return DirectoryRecord{}, pfserr.New("wire.decodeDirectoryRecord", pfserr.Truncated, "", err)
	}

	return DirectoryRecord{
		ID:       id,
		Name:     string(nameBytes),
		Hidden:   attr&consts.DirectoryAttrHidden != 0,
		ParentID: parentID,
	}, nil
}

// EncodeDirectories appends the 2-byte count and every directory record to
// w, in the given order.
func EncodeDirectories(w *bitio.Writer, dirs []DirectoryRecord) error {
	if len(dirs) > consts.MaxDirectories {
		return pfserr.New("wire.EncodeDirectories", pfserr.TooManyDirs, "", nil)
	}
	w.WriteUint16(uint16(len(dirs)))

	for _, d := range dirs {
		if d.ID <= 0x0F || d.ID > consts.MaxDirectoryID {
			return pfserr.New("wire.EncodeDirectories", pfserr.DirIDOverflow, d.Name, nil)
		}
		nameBytes := []byte(d.Name)
		if len(nameBytes) > consts.MaxNameBytes {
			return pfserr.New("wire.EncodeDirectories", pfserr.NameTooLong, d.Name, nil)
		}
		w.WriteUint16(d.ID)
		if err := w.WriteByte(byte(len(nameBytes))); err != nil {
			return err
		}
		w.WriteBytes(nameBytes)
		var attr byte
		if d.Hidden {
			attr |= consts.DirectoryAttrHidden
		}
		if err := w.WriteByte(attr); err != nil {
			return err
		}
		w.WriteUint16(d.ParentID)
	}
	return nil
}
