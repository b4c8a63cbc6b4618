package tree

import (
	"github.com/go-logr/logr"

	"github.com/minemario64/portablefs/pkg/consts"
	"github.com/minemario64/portablefs/pkg/logging"
	"github.com/minemario64/portablefs/pkg/payload"
	"github.com/minemario64/portablefs/pkg/pfserr"
	"github.com/minemario64/portablefs/pkg/wire"
)

// Tree is the mutable in-memory filesystem model: a forest of Drives, each
// rooted at a Directory, reachable by name. It is the component other
// packages (vpath, vfile, the root session) operate against; none of them
// see wire.Container or payload bytes directly once a Tree is built.
type Tree struct {
	drives      []*Drive
	driveByName map[string]*Drive
	dirsByID    map[uint16]*Directory

	maxDirID uint16
	log      logr.Logger
}

// New returns an empty Tree with no drives.
func New(log logr.Logger) *Tree {
	return &Tree{
		driveByName: make(map[string]*Drive),
		dirsByID:    make(map[uint16]*Directory),
		maxDirID:    0x0F,
		log:         log,
	}
}

// Drives returns the tree's drives in declaration order.
func (t *Tree) Drives() []*Drive {
	out := make([]*Drive, len(t.drives))
	copy(out, t.drives)
	return out
}

// DriveByName looks up a drive by its single-letter name.
func (t *Tree) DriveByName(name string) (*Drive, bool) {
	d, ok := t.driveByName[name]
	return d, ok
}

// InitDrives populates an empty Tree with drives named in names, assigning
// ids 0..len(names)-1 in order. It is used when constructing a brand new
// container; it fails TooManyDrives or BadDriveName exactly as AddDrive
// would, applied one at a time.
func (t *Tree) InitDrives(names []string) error {
	for _, name := range names {
		if _, err := t.AddDriveWithID(name, uint8(len(t.drives))); err != nil {
			return err
		}
	}
	return nil
}

func validDriveName(name string) bool {
	return len(name) == 1 && indexInAlphabet(name) >= 0
}

func indexInAlphabet(name string) int {
	for i := 0; i < len(consts.DriveAlphabet); i++ {
		if consts.DriveAlphabet[i] == name[0] {
			return i
		}
	}
	return -1
}

// AddDriveWithID appends a new drive with an explicit id, used during
// initial construction where ids are assigned densely from 0.
func (t *Tree) AddDriveWithID(name string, id uint8) (*Drive, error) {
	if !validDriveName(name) {
		return nil, pfserr.New("Tree.AddDrive", pfserr.BadDriveName, name, nil)
	}
	if _, exists := t.driveByName[name]; exists {
		return nil, pfserr.New("Tree.AddDrive", pfserr.DriveExists, name, nil)
	}
	if len(t.drives) >= consts.MaxDrives {
		return nil, pfserr.New("Tree.AddDrive", pfserr.TooManyDrives, name, nil)
	}
	d := newDrive(name, id)
	t.drives = append(t.drives, d)
	t.driveByName[name] = d
	return d, nil
}

// AddDrive appends a new drive, assigning it the lowest free id in [1, 15].
// Id 0 is reserved for the first drive a container is created with; a
// drive added later by mutation never reclaims it. Fails DriveExists,
// TooManyDrives, or BadDriveName.
func (t *Tree) AddDrive(name string) (*Drive, error) {
	if !validDriveName(name) {
		return nil, pfserr.New("Tree.AddDrive", pfserr.BadDriveName, name, nil)
	}
	if _, exists := t.driveByName[name]; exists {
		return nil, pfserr.New("Tree.AddDrive", pfserr.DriveExists, name, nil)
	}
	if len(t.drives) >= consts.MaxDrives {
		return nil, pfserr.New("Tree.AddDrive", pfserr.TooManyDrives, name, nil)
	}

	used := make(map[uint8]bool, len(t.drives))
	for _, d := range t.drives {
		used[d.ID] = true
	}
	var id uint8
	found := false
	for candidate := uint8(1); candidate <= 15; candidate++ {
		if !used[candidate] {
			id = candidate
			found = true
			break
		}
	}
	if !found {
		return nil, pfserr.New("Tree.AddDrive", pfserr.TooManyDrives, name, nil)
	}

	d := newDrive(name, id)
	t.drives = append(t.drives, d)
	t.driveByName[name] = d
	return d, nil
}

// RemoveDrive deletes a drive and its entire subtree. Fails NoSuchDrive if
// no drive by that name exists.
func (t *Tree) RemoveDrive(name string) error {
	d, ok := t.driveByName[name]
	if !ok {
		return pfserr.New("Tree.RemoveDrive", pfserr.NoSuchDrive, name, nil)
	}
	delete(t.driveByName, name)
	for i, dr := range t.drives {
		if dr == d {
			t.drives = append(t.drives[:i], t.drives[i+1:]...)
			break
		}
	}
	return nil
}

// nextDirID returns the next id to assign a newly created directory and
// records it as the new high-water mark. Ids are never reused within a
// session, even across removals.
func (t *Tree) nextDirID() uint16 {
	t.maxDirID++
	return t.maxDirID
}

// Mkdir creates a new, empty subdirectory of parent named name. Fails
// NameTaken if parent already has a child by that name.
func (t *Tree) Mkdir(parent *Directory, name string) (*Directory, error) {
	if _, exists := parent.Get(name); exists {
		return nil, pfserr.New("Tree.Mkdir", pfserr.NameTaken, name, nil)
	}
	id := t.nextDirID()
	dir := newDirectory(id, name, parent.ID)
	parent.insert(name, &Node{Dir: dir})
	t.dirsByID[id] = dir
	return dir, nil
}

// Touch creates a new, empty file in parent named name, with all
// attribute bits false. Fails NameTaken if parent already has a child by
// that name.
func (t *Tree) Touch(parent *Directory, name string) (*File, error) {
	if _, exists := parent.Get(name); exists {
		return nil, pfserr.New("Tree.Touch", pfserr.NameTaken, name, nil)
	}
	f := &File{Name: name}
	parent.insert(name, &Node{File: f})
	return f, nil
}

// Unlink removes a child of parent by name: a file outright, or a
// directory and its entire subtree recursively. Fails NoSuchPath if
// absent, or SystemFileProtected if the child is a file carrying the
// system attribute.
func (t *Tree) Unlink(parent *Directory, name string) error {
	n, ok := parent.Get(name)
	if !ok {
		return pfserr.New("Tree.Unlink", pfserr.NoSuchPath, name, nil)
	}
	if !n.IsDir() && n.File.System {
		return pfserr.New("Tree.Unlink", pfserr.SystemFileProtected, name, nil)
	}
	parent.remove(name)
	return nil
}

// Rename moves the child of parent named name to be a child of newParent
// named newName (a plain rename when parent == newParent). Fails
// NoSuchPath if absent, NameTaken if newParent already has a child by
// newName.
func (t *Tree) Rename(parent *Directory, name string, newParent *Directory, newName string) error {
	n, ok := parent.Get(name)
	if !ok {
		return pfserr.New("Tree.Rename", pfserr.NoSuchPath, name, nil)
	}
	if parent != newParent || name != newName {
		if _, exists := newParent.Get(newName); exists {
			return pfserr.New("Tree.Rename", pfserr.NameTaken, newName, nil)
		}
	}

	parent.remove(name)
	if n.IsDir() {
		n.Dir.Name = newName
		n.Dir.ParentID = newParent.ID
	} else {
		n.File.Name = newName
	}
	newParent.insert(newName, n)
	return nil
}

// Build reconstructs a Tree from a decoded wire.Container's flat tables:
// directories and files are repeatedly swept into place as their declared
// parent becomes known, starting from the drive roots. OrphanOrCycle is
// returned if more than consts.OrphanSweepLimit consecutive sweeps make no
// progress.
func Build(c *wire.Container, data []byte, log logr.Logger) (*Tree, error) {
	t := New(log)
	for _, d := range c.Drives {
		if _, err := t.AddDriveWithID(d.Name, d.ID); err != nil {
			return nil, err
		}
	}

	known := make(map[uint16]*Directory, len(c.Directories)+len(t.drives))
	for _, d := range t.drives {
		known[uint16(d.ID)] = d.Root
	}

	remainingDirs := append([]wire.DirectoryRecord(nil), c.Directories...)
	remainingFiles := append([]wire.FileRecord(nil), c.Files...)

	noProgress := 0
	for len(remainingDirs) > 0 || len(remainingFiles) > 0 {
		progressed := false

		var stillDirs []wire.DirectoryRecord
		for _, dr := range remainingDirs {
			parent, ok := known[dr.ParentID]
			if !ok {
				stillDirs = append(stillDirs, dr)
				continue
			}
			dir := newDirectory(dr.ID, dr.Name, dr.ParentID)
			dir.Hidden = dr.Hidden
			parent.insert(dr.Name, &Node{Dir: dir})
			known[dr.ID] = dir
			t.dirsByID[dr.ID] = dir
			if dr.ID > t.maxDirID {
				t.maxDirID = dr.ID
			}
			progressed = true
		}
		remainingDirs = stillDirs

		var stillFiles []wire.FileRecord
		for _, fr := range remainingFiles {
			parent, ok := known[fr.ParentID]
			if !ok {
				stillFiles = append(stillFiles, fr)
				continue
			}
			buf, err := payload.Slice(data, fr.Offset, fr.Size)
			if err != nil {
				return nil, err
			}
			f := &File{
				Name:     fr.Name,
				ReadOnly: fr.ReadOnly,
				Hidden:   fr.Hidden,
				System:   fr.System,
				Data:     buf,
			}
			parent.insert(fr.Name, &Node{File: f})
			progressed = true
		}
		remainingFiles = stillFiles

		if progressed {
			noProgress = 0
			continue
		}
		noProgress++
		if noProgress > consts.OrphanSweepLimit {
			return nil, pfserr.New("tree.Build", pfserr.OrphanOrCycle, "", nil)
		}
	}

	log.V(logging.LevelDebug).Info("reconstructed tree",
		"drives", len(t.drives), "directories", len(t.dirsByID))

	return t, nil
}
