// Package tree implements the PortableFS in-memory filesystem model: the
// tree reconstructor that turns flat (parent_id, name) records into a
// rooted per-drive tree, and the mutable tree model with its mutation API.
package tree

import (
	"github.com/minemario64/portablefs/pkg/pfserr"
)

// File is a leaf node: a name, its attribute bits, and its payload bytes.
// busy tracks the single-writer handle guard: a second concurrent handle
// on the same file is rejected with FileBusy rather than given
// last-close-wins semantics.
type File struct {
	Name     string
	ReadOnly bool
	Hidden   bool
	System   bool
	Data     []byte

	busy bool
}

// Acquire marks the file as having an open handle, failing with FileBusy
// if one is already open.
func (f *File) Acquire() error {
	if f.busy {
		return pfserr.New("File.Acquire", pfserr.FileBusy, f.Name, nil)
	}
	f.busy = true
	return nil
}

// Release clears the busy flag set by Acquire.
func (f *File) Release() {
	f.busy = false
}

// Directory is an interior node. A Directory playing the role of a drive
// root has IsRoot set, ID equal to the drive's 4-bit id, and ParentID
// unused. Children are held in insertion order: order records the
// insertion sequence, children maps name to node.
type Directory struct {
	ID       uint16
	Name     string
	Hidden   bool
	ParentID uint16
	IsRoot   bool

	order    []string
	children map[string]*Node
}

func newDirectory(id uint16, name string, parentID uint16) *Directory {
	return &Directory{
		ID:       id,
		Name:     name,
		ParentID: parentID,
		children: make(map[string]*Node),
	}
}

// Node is a tagged union: exactly one of Dir or File is non-nil.
type Node struct {
	Dir  *Directory
	File *File
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.Dir != nil }

// Name returns the node's name, regardless of kind.
func (n *Node) Name() string {
	if n.Dir != nil {
		return n.Dir.Name
	}
	return n.File.Name
}

// Get looks up an immediate child by name.
func (d *Directory) Get(name string) (*Node, bool) {
	n, ok := d.children[name]
	return n, ok
}

// Names returns the immediate children's names in insertion order.
func (d *Directory) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// insert adds or overwrites a child by name. A second insert under the
// same name replaces the existing node in place (last write wins at load
// time) without disturbing its position in the insertion order.
func (d *Directory) insert(name string, n *Node) {
	if _, exists := d.children[name]; !exists {
		d.order = append(d.order, name)
	}
	d.children[name] = n
}

// remove deletes a child by name, if present.
func (d *Directory) remove(name string) {
	if _, ok := d.children[name]; !ok {
		return
	}
	delete(d.children, name)
	for i, nm := range d.order {
		if nm == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Drive is a top-level root, identified by a single-letter name and a
// 4-bit id. Root is the Directory playing the role of its filesystem root.
type Drive struct {
	Name string
	ID   uint8
	Root *Directory
}

func newDrive(name string, id uint8) *Drive {
	return &Drive{
		Name: name,
		ID:   id,
		Root: &Directory{ID: uint16(id), IsRoot: true, children: make(map[string]*Node)},
	}
}

// GetReadOnly returns the node's read_only attribute. Only applicable to
// files.
func (n *Node) GetReadOnly() (bool, error) {
	if n.File == nil {
		return false, pfserr.New("Node.GetReadOnly", pfserr.AttrNotApplicable, n.Name(), nil)
	}
	return n.File.ReadOnly, nil
}

// SetReadOnly sets the node's read_only attribute. Only applicable to
// files.
func (n *Node) SetReadOnly(v bool) error {
	if n.File == nil {
		return pfserr.New("Node.SetReadOnly", pfserr.AttrNotApplicable, n.Name(), nil)
	}
	n.File.ReadOnly = v
	return nil
}

// GetSystem returns the node's system attribute. Only applicable to files.
func (n *Node) GetSystem() (bool, error) {
	if n.File == nil {
		return false, pfserr.New("Node.GetSystem", pfserr.AttrNotApplicable, n.Name(), nil)
	}
	return n.File.System, nil
}

// SetSystem sets the node's system attribute. Only applicable to files.
func (n *Node) SetSystem(v bool) error {
	if n.File == nil {
		return pfserr.New("Node.SetSystem", pfserr.AttrNotApplicable, n.Name(), nil)
	}
	n.File.System = v
	return nil
}

// GetHidden returns the node's hidden attribute. Applicable to both files
// and directories.
func (n *Node) GetHidden() bool {
	if n.Dir != nil {
		return n.Dir.Hidden
	}
	return n.File.Hidden
}

// SetHidden sets the node's hidden attribute. Applicable to both files and
// directories.
func (n *Node) SetHidden(v bool) {
	if n.Dir != nil {
		n.Dir.Hidden = v
		return
	}
	n.File.Hidden = v
}
