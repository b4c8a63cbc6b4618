package tree

import (
	"github.com/minemario64/portablefs/pkg/payload"
	"github.com/minemario64/portablefs/pkg/wire"
)

// Flatten walks t back into the flat tables wire.Encode expects: a
// depth-first walk rooted at each drive in declaration order, children
// emitted in insertion order within a directory. File offsets are
// recomputed densely over the emitted buffers rather than reusing
// whatever offsets the files happened to carry in memory.
func Flatten(t *Tree) (drives []wire.Drive, dirs []wire.DirectoryRecord, files []wire.FileRecord, data []byte) {
	var buffers [][]byte
	var fileMeta []wire.FileRecord

	for _, d := range t.drives {
		drives = append(drives, wire.Drive{Name: d.Name, ID: d.ID})
		walk(d.Root, uint16(d.ID), &dirs, &fileMeta, &buffers)
	}

	packed, ranges := payload.Pack(buffers)
	for i := range fileMeta {
		fileMeta[i].Offset = ranges[i].Offset
		fileMeta[i].Size = ranges[i].Size
	}

	return drives, dirs, fileMeta, packed
}

func walk(dir *Directory, parentID uint16, dirs *[]wire.DirectoryRecord, files *[]wire.FileRecord, buffers *[][]byte) {
	if !dir.IsRoot {
		*dirs = append(*dirs, wire.DirectoryRecord{
			ID:       dir.ID,
			Name:     dir.Name,
			Hidden:   dir.Hidden,
			ParentID: parentID,
		})
	}

	for _, name := range dir.order {
		n := dir.children[name]
		if n.IsDir() {
			walk(n.Dir, dir.ID, dirs, files, buffers)
			continue
		}
		*files = append(*files, wire.FileRecord{
			Name:     n.File.Name,
			ReadOnly: n.File.ReadOnly,
			Hidden:   n.File.Hidden,
			System:   n.File.System,
			ParentID: dir.ID,
		})
		*buffers = append(*buffers, n.File.Data)
	}
}
