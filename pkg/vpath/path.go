// Package vpath implements the PortableFS path parser and resolver: the
// "DRIVE:/segment/segment" syntax, resolution against the tree built by
// pkg/tree, and the navigation operations layered on top of it.
package vpath

import (
	"strings"

	"github.com/minemario64/portablefs/pkg/pfserr"
	"github.com/minemario64/portablefs/pkg/tree"
)

// Path is an unresolved or partially-resolved location: a drive name plus
// a sequence of segments. Segments may still contain "." and ".." until
// Resolve (or an internal walk) normalizes them.
//
// liveness, if set, reports whether the owning session has since closed;
// every operation that walks the tree consults it first. Paths constructed
// directly (Root, Parse with a nil cwd carrying no liveness) are always
// considered live.
type Path struct {
	tr       *tree.Tree
	drive    string
	segments []string
	liveness func() error
}

// Root returns the path naming driveName's root, "DRIVE:/".
func Root(tr *tree.Tree, driveName string) *Path {
	return &Path{tr: tr, drive: driveName}
}

// Bind returns a copy of p that consults liveness before every tree walk.
// Sessions call this on paths they hand out so a path derived before
// Session.Close still reports SessionClosed afterward instead of silently
// walking a tree its owner considers gone.
func (p *Path) Bind(liveness func() error) *Path {
	cp := *p
	cp.liveness = liveness
	return &cp
}

func (p *Path) checkLive() error {
	if p.liveness == nil {
		return nil
	}
	return p.liveness()
}

// Parse parses raw: a leading "DRIVE:" segment makes the path absolute;
// otherwise it is resolved against cwd. Empty segments (from "//" or a
// trailing "/") are discarded; "." and ".." segments are kept for Resolve
// to normalize.
func Parse(tr *tree.Tree, raw string, cwd *Path) (*Path, error) {
	parts := strings.Split(raw, "/")
	first := parts[0]

	if strings.HasSuffix(first, ":") {
		p := &Path{tr: tr, drive: strings.TrimSuffix(first, ":"), segments: filterEmpty(parts[1:])}
		if cwd != nil {
			p.liveness = cwd.liveness
		}
		return p, nil
	}

	if cwd == nil {
		return nil, pfserr.New("vpath.Parse", pfserr.NoSuchDrive, raw, nil)
	}
	segs := make([]string, 0, len(cwd.segments)+len(parts))
	segs = append(segs, cwd.segments...)
	segs = append(segs, filterEmpty(parts)...)
	return &Path{tr: tr, drive: cwd.drive, segments: segs, liveness: cwd.liveness}, nil
}

func filterEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String renders the path back into "DRIVE:/seg/seg" form.
func (p *Path) String() string {
	if len(p.segments) == 0 {
		return p.drive + ":/"
	}
	return p.drive + ":/" + strings.Join(p.segments, "/")
}

// Drive returns the path's drive letter.
func (p *Path) Drive() string { return p.drive }

// normalize collapses "." and ".." segments, failing EscapesRoot if ".."
// would ascend above the drive root.
func (p *Path) normalize() ([]string, error) {
	if err := p.checkLive(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(p.segments))
	for _, seg := range p.segments {
		switch seg {
		case ".":
			continue
		case "..":
			if len(out) == 0 {
				return nil, pfserr.New("vpath.resolve", pfserr.EscapesRoot, p.String(), nil)
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return out, nil
}

// Resolve returns a new Path with "." and ".." segments normalized away.
// Fails EscapesRoot if ".." would ascend above the drive root.
func (p *Path) Resolve() (*Path, error) {
	segs, err := p.normalize()
	if err != nil {
		return nil, err
	}
	return &Path{tr: p.tr, drive: p.drive, segments: segs, liveness: p.liveness}, nil
}

// walk locates the node the path names: drive, containing directory, and
// the node itself (nil node means the path names the drive root). Fails
// NoSuchDrive if the drive doesn't exist, NotADirectory if an interior
// segment names a file, NoSuchPath if a segment is absent.
func (p *Path) walk() (*tree.Drive, *tree.Directory, *tree.Node, error) {
	if err := p.checkLive(); err != nil {
		return nil, nil, nil, err
	}
	drive, ok := p.tr.DriveByName(p.drive)
	if !ok {
		return nil, nil, nil, pfserr.New("vpath.walk", pfserr.NoSuchDrive, p.String(), nil)
	}

	segs, err := p.normalize()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(segs) == 0 {
		return drive, nil, nil, nil
	}

	cur := drive.Root
	for i, seg := range segs {
		n, ok := cur.Get(seg)
		if !ok {
			return drive, cur, nil, pfserr.New("vpath.walk", pfserr.NoSuchPath, p.String(), nil)
		}
		if i == len(segs)-1 {
			return drive, cur, n, nil
		}
		if !n.IsDir() {
			return drive, cur, nil, pfserr.New("vpath.walk", pfserr.NotADirectory, p.String(), nil)
		}
		cur = n.Dir
	}
	return drive, cur, nil, nil
}

// Exists reports whether the path resolves to anything.
func (p *Path) Exists() bool {
	_, _, _, err := p.walk()
	return err == nil
}

// IsDrive reports whether the path names a drive root.
func (p *Path) IsDrive() bool {
	_, dir, node, err := p.walk()
	return err == nil && dir == nil && node == nil
}

// IsFile reports whether the path resolves to a file.
func (p *Path) IsFile() bool {
	_, _, node, err := p.walk()
	return err == nil && node != nil && !node.IsDir()
}

// IsDir reports whether the path resolves to a directory or a drive root.
func (p *Path) IsDir() bool {
	_, _, node, err := p.walk()
	if err != nil {
		return false
	}
	return node == nil || node.IsDir()
}

// DirIter is a lazy, finite, non-restartable sequence of child paths
// produced by IterDir. The child names are captured when IterDir is
// called; each child path is built only when Next reaches it.
type DirIter struct {
	parent *Path
	names  []string
	idx    int
}

// Next returns the next child path, or (nil, false) when exhausted.
func (it *DirIter) Next() (*Path, bool) {
	if it.idx >= len(it.names) {
		return nil, false
	}
	p := it.parent.JoinPath(it.names[it.idx])
	it.idx++
	return p, true
}

// IterDir iterates the path's immediate children in insertion order.
// Fails NotADirectory if the path is not a directory or drive root.
func (p *Path) IterDir() (*DirIter, error) {
	_, _, node, err := p.walk()
	if err != nil {
		return nil, err
	}
	var dir *tree.Directory
	if node == nil {
		drive, _ := p.tr.DriveByName(p.drive)
		dir = drive.Root
	} else if node.IsDir() {
		dir = node.Dir
	} else {
		return nil, pfserr.New("vpath.IterDir", pfserr.NotADirectory, p.String(), nil)
	}

	return &DirIter{parent: p, names: dir.Names()}, nil
}

// Parent returns the path's immediate parent. Fails NoParent at a drive
// root.
func (p *Path) Parent() (*Path, error) {
	segs, err := p.normalize()
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, pfserr.New("vpath.Parent", pfserr.NoParent, p.String(), nil)
	}
	return &Path{tr: p.tr, drive: p.drive, segments: append([]string{}, segs[:len(segs)-1]...), liveness: p.liveness}, nil
}

// JoinPath composes additional segments onto the path by pure string
// concatenation; it performs no validation or existence check.
func (p *Path) JoinPath(segs ...string) *Path {
	out := append([]string{}, p.segments...)
	for _, s := range segs {
		out = append(out, filterEmpty(strings.Split(s, "/"))...)
	}
	return &Path{tr: p.tr, drive: p.drive, segments: out, liveness: p.liveness}
}

// resolveDirAndName returns the containing directory and the final
// segment name for a path that is expected to name a not-yet-necessarily-
// existing child (used by Mkdir/Touch/Unlink/Rename). Fails NoSuchParent
// if an intermediate segment is absent, IsDrive if the path names a drive
// root (mkdir/touch of a drive root makes no sense).
func (p *Path) resolveDirAndName() (*tree.Directory, string, error) {
	segs, err := p.normalize()
	if err != nil {
		return nil, "", err
	}
	if len(segs) == 0 {
		return nil, "", pfserr.New("vpath.resolveDirAndName", pfserr.IsDrive, p.String(), nil)
	}

	drive, ok := p.tr.DriveByName(p.drive)
	if !ok {
		return nil, "", pfserr.New("vpath.resolveDirAndName", pfserr.NoSuchDrive, p.String(), nil)
	}

	cur := drive.Root
	for _, seg := range segs[:len(segs)-1] {
		n, ok := cur.Get(seg)
		if !ok {
			return nil, "", pfserr.New("vpath.resolveDirAndName", pfserr.NoSuchParent, p.String(), nil)
		}
		if !n.IsDir() {
			return nil, "", pfserr.New("vpath.resolveDirAndName", pfserr.NotADirectory, p.String(), nil)
		}
		cur = n.Dir
	}
	return cur, segs[len(segs)-1], nil
}

// Mkdir creates the directory this path names. Fails IsDrive if the path
// names a drive root, NoSuchParent if an intermediate segment is absent,
// NameTaken if the final segment already exists.
func (p *Path) Mkdir() (*tree.Directory, error) {
	parent, name, err := p.resolveDirAndName()
	if err != nil {
		return nil, err
	}
	return p.tr.Mkdir(parent, name)
}

// Touch creates the file this path names. Same failure set as Mkdir.
func (p *Path) Touch() (*tree.File, error) {
	parent, name, err := p.resolveDirAndName()
	if err != nil {
		return nil, err
	}
	return p.tr.Touch(parent, name)
}

// Remove removes the file or directory this path names. Fails IsDrive if
// the path names a drive root, NoSuchPath if absent, SystemFileProtected
// if it is a file carrying the system attribute.
func (p *Path) Remove() error {
	parent, name, err := p.resolveDirAndName()
	if err != nil {
		return err
	}
	return p.tr.Unlink(parent, name)
}

// Rename moves this path's node to the location named by dst. Fails
// IsDrive if either path names a drive root, NoSuchPath if the source is
// absent, NoSuchParent if dst's parent is absent, NameTaken if dst already
// exists.
func (p *Path) Rename(dst *Path) error {
	srcParent, srcName, err := p.resolveDirAndName()
	if err != nil {
		return err
	}
	dstParent, dstName, err := dst.resolveDirAndName()
	if err != nil {
		return err
	}
	return p.tr.Rename(srcParent, srcName, dstParent, dstName)
}

// Open resolves the node this path names and returns it, for pkg/vfile to
// build a handle from. Fails
// NoSuchPath if absent, IsDrive if the path names a drive root (a drive
// root cannot be opened as a file).
func (p *Path) Open() (*tree.Node, error) {
	_, _, node, err := p.walk()
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, pfserr.New("vpath.Open", pfserr.IsDrive, p.String(), nil)
	}
	return node, nil
}
