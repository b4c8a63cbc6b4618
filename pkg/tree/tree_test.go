package tree

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minemario64/portablefs/pkg/pfserr"
	"github.com/minemario64/portablefs/pkg/wire"
)

func TestInitDrivesAssignsSequentialIDs(t *testing.T) {
	tr := New(logr.Discard())
	require.NoError(t, tr.InitDrives([]string{"A", "B", "C"}))

	drives := tr.Drives()
	require.Len(t, drives, 3)
	assert.Equal(t, uint8(0), drives[0].ID)
	assert.Equal(t, uint8(1), drives[1].ID)
	assert.Equal(t, uint8(2), drives[2].ID)
}

func TestAddDriveRejectsDuplicateAndBadName(t *testing.T) {
	tr := New(logr.Discard())
	require.NoError(t, tr.InitDrives([]string{"A"}))

	_, err := tr.AddDrive("A")
	assert.True(t, pfserr.Is(err, pfserr.DriveExists))

	_, err = tr.AddDrive("ZZ")
	assert.True(t, pfserr.Is(err, pfserr.BadDriveName))
}

func TestAddDriveSkipsReservedIDZero(t *testing.T) {
	tr := New(logr.Discard())
	require.NoError(t, tr.InitDrives([]string{"A"}))

	d, err := tr.AddDrive("B")
	require.NoError(t, err)
	assert.Equal(t, uint8(1), d.ID)
}

func TestRemoveDriveNoSuchDrive(t *testing.T) {
	tr := New(logr.Discard())
	err := tr.RemoveDrive("A")
	assert.True(t, pfserr.Is(err, pfserr.NoSuchDrive))
}

func TestMkdirAndTouch(t *testing.T) {
	tr := New(logr.Discard())
	require.NoError(t, tr.InitDrives([]string{"A"}))
	drive, _ := tr.DriveByName("A")

	sub, err := tr.Mkdir(drive.Root, "docs")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x10), sub.ID)

	f, err := tr.Touch(sub, "a.txt")
	require.NoError(t, err)
	assert.Empty(t, f.Data)

	_, err = tr.Mkdir(drive.Root, "docs")
	assert.True(t, pfserr.Is(err, pfserr.NameTaken))

	_, err = tr.Touch(sub, "a.txt")
	assert.True(t, pfserr.Is(err, pfserr.NameTaken))
}

func TestDirIDsNeverReused(t *testing.T) {
	tr := New(logr.Discard())
	require.NoError(t, tr.InitDrives([]string{"A"}))
	drive, _ := tr.DriveByName("A")

	d1, err := tr.Mkdir(drive.Root, "one")
	require.NoError(t, err)
	require.NoError(t, tr.Unlink(drive.Root, "one"))

	d2, err := tr.Mkdir(drive.Root, "two")
	require.NoError(t, err)
	assert.Greater(t, d2.ID, d1.ID)
}

func TestUnlinkSystemFileProtected(t *testing.T) {
	tr := New(logr.Discard())
	require.NoError(t, tr.InitDrives([]string{"A"}))
	drive, _ := tr.DriveByName("A")

	f, err := tr.Touch(drive.Root, "sys.dat")
	require.NoError(t, err)
	f.System = true

	err = tr.Unlink(drive.Root, "sys.dat")
	assert.True(t, pfserr.Is(err, pfserr.SystemFileProtected))

	f.System = false
	assert.NoError(t, tr.Unlink(drive.Root, "sys.dat"))
}

func TestUnlinkNoSuchPath(t *testing.T) {
	tr := New(logr.Discard())
	require.NoError(t, tr.InitDrives([]string{"A"}))
	drive, _ := tr.DriveByName("A")

	err := tr.Unlink(drive.Root, "missing")
	assert.True(t, pfserr.Is(err, pfserr.NoSuchPath))
}

func TestFileBusyGuard(t *testing.T) {
	f := &File{Name: "a"}
	require.NoError(t, f.Acquire())

	err := f.Acquire()
	assert.True(t, pfserr.Is(err, pfserr.FileBusy))

	f.Release()
	assert.NoError(t, f.Acquire())
}

func TestAttributeNotApplicable(t *testing.T) {
	dirNode := &Node{Dir: &Directory{Name: "d"}}
	_, err := dirNode.GetReadOnly()
	assert.True(t, pfserr.Is(err, pfserr.AttrNotApplicable))

	fileNode := &Node{File: &File{Name: "f"}}
	assert.False(t, fileNode.GetHidden())
	fileNode.SetHidden(true)
	assert.True(t, fileNode.GetHidden())
}

func TestBuildReconstructsNestedTree(t *testing.T) {
	c := &wire.Container{
		Drives: []wire.Drive{{Name: "A", ID: 0}},
		Directories: []wire.DirectoryRecord{
			// Declared out of dependency order to exercise the sweep.
			{ID: 0x11, Name: "child", ParentID: 0x10},
			{ID: 0x10, Name: "docs", ParentID: 0},
		},
		Files: []wire.FileRecord{
			{Name: "a.txt", ParentID: 0x11, Offset: 0, Size: 2},
		},
	}

	tr, err := Build(c, []byte("hi"), logr.Discard())
	require.NoError(t, err)

	drive, ok := tr.DriveByName("A")
	require.True(t, ok)

	docsNode, ok := drive.Root.Get("docs")
	require.True(t, ok)
	require.True(t, docsNode.IsDir())

	childNode, ok := docsNode.Dir.Get("child")
	require.True(t, ok)
	require.True(t, childNode.IsDir())

	fileNode, ok := childNode.Dir.Get("a.txt")
	require.True(t, ok)
	require.False(t, fileNode.IsDir())
	assert.Equal(t, "hi", string(fileNode.File.Data))
}

func TestBuildDetectsOrphan(t *testing.T) {
	c := &wire.Container{
		Drives: []wire.Drive{{Name: "A", ID: 0}},
		Directories: []wire.DirectoryRecord{
			{ID: 0x10, Name: "orphan", ParentID: 0x99},
		},
	}

	_, err := Build(c, nil, logr.Discard())
	assert.True(t, pfserr.Is(err, pfserr.OrphanOrCycle))
}

func TestBuildDetectsSelfReferentialCycle(t *testing.T) {
	c := &wire.Container{
		Drives: []wire.Drive{{Name: "A", ID: 0}},
		Directories: []wire.DirectoryRecord{
			{ID: 0x10, Name: "loop", ParentID: 0x10},
		},
	}

	_, err := Build(c, nil, logr.Discard())
	assert.True(t, pfserr.Is(err, pfserr.OrphanOrCycle))
}

func TestBuildLastWriteWinsOnDuplicateName(t *testing.T) {
	c := &wire.Container{
		Drives: []wire.Drive{{Name: "A", ID: 0}},
		Files: []wire.FileRecord{
			{Name: "a.txt", ParentID: 0, Offset: 0, Size: 1},
			{Name: "a.txt", ParentID: 0, Offset: 1, Size: 1},
		},
	}

	tr, err := Build(c, []byte("xy"), logr.Discard())
	require.NoError(t, err)

	drive, _ := tr.DriveByName("A")
	node, ok := drive.Root.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "y", string(node.File.Data))
	assert.Len(t, drive.Root.Names(), 1)
}

func TestFlattenRoundTripsThroughBuild(t *testing.T) {
	tr := New(logr.Discard())
	require.NoError(t, tr.InitDrives([]string{"A"}))
	drive, _ := tr.DriveByName("A")

	docs, err := tr.Mkdir(drive.Root, "docs")
	require.NoError(t, err)
	f, err := tr.Touch(docs, "a.txt")
	require.NoError(t, err)
	f.Data = []byte("hello")

	drives, dirs, files, data := Flatten(tr)
	c := &wire.Container{Drives: drives, Directories: dirs, Files: files}

	rebuilt, err := Build(c, data, logr.Discard())
	require.NoError(t, err)

	rd, _ := rebuilt.DriveByName("A")
	docsNode, ok := rd.Root.Get("docs")
	require.True(t, ok)
	fileNode, ok := docsNode.Dir.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "hello", string(fileNode.File.Data))
}
