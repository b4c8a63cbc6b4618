package portablefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minemario64/portablefs/pkg/pfserr"
	"github.com/minemario64/portablefs/pkg/vfile"
)

func TestNewTouchWriteReadRoundTrip(t *testing.T) {
	s, err := New("demo", []string{"A"})
	require.NoError(t, err)

	p, err := s.Path("A:/a.txt")
	require.NoError(t, err)
	_, err = p.Touch()
	require.NoError(t, err)

	node, err := p.Open()
	require.NoError(t, err)

	h, err := vfile.Open(node, "wb", "")
	require.NoError(t, err)
	require.NoError(t, h.WriteBytes([]byte("hi")))
	require.NoError(t, h.Close())

	data, err := s.SaveBytes(nil, nil)
	require.NoError(t, err)

	reopened, err := OpenBytes(data)
	require.NoError(t, err)

	rp, err := reopened.Path("A:/a.txt")
	require.NoError(t, err)
	rnode, err := rp.Open()
	require.NoError(t, err)

	rh, err := vfile.Open(rnode, "rb", "")
	require.NoError(t, err)
	got, err := rh.ReadBytes(-1)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))
}

func TestMkdirIterdirAndUnlinkRestoresTree(t *testing.T) {
	s, err := New("d", []string{"A"})
	require.NoError(t, err)

	x, err := s.Path("A:/x")
	require.NoError(t, err)
	_, err = x.Mkdir()
	require.NoError(t, err)

	y, err := s.Path("A:/x/y")
	require.NoError(t, err)
	_, err = y.Mkdir()
	require.NoError(t, err)

	z, err := s.Path("A:/x/y/z")
	require.NoError(t, err)
	_, err = z.Touch()
	require.NoError(t, err)

	it, err := y.IterDir()
	require.NoError(t, err)
	child, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "A:/x/y/z", child.String())
	_, ok = it.Next()
	assert.False(t, ok)

	// mkdir immediately followed by unlink must restore the starting tree.
	w, err := s.Path("A:/x/w")
	require.NoError(t, err)
	_, err = w.Mkdir()
	require.NoError(t, err)
	require.NoError(t, w.Remove())

	it2, err := x.IterDir()
	require.NoError(t, err)
	names := []string{}
	for {
		c, ok := it2.Next()
		if !ok {
			break
		}
		names = append(names, c.String())
	}
	assert.Equal(t, []string{"A:/x/y"}, names)
}

func TestSessionClosedRejectsFurtherOperations(t *testing.T) {
	s, err := New("demo", []string{"A"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Path("A:/a.txt")
	assert.True(t, pfserr.Is(err, pfserr.SessionClosed))

	err = s.Close()
	assert.True(t, pfserr.Is(err, pfserr.SessionClosed))
}

func TestPathOutlivesCloseFailsSessionClosed(t *testing.T) {
	s, err := New("demo", []string{"A"})
	require.NoError(t, err)

	p, err := s.Path("A:/a.txt")
	require.NoError(t, err)
	_, err = p.Touch()
	require.NoError(t, err)

	require.NoError(t, s.Close())

	assert.False(t, p.Exists())
	_, err = p.Open()
	assert.True(t, pfserr.Is(err, pfserr.SessionClosed))
}

func TestTooManyDrivesRejectsSixteenth(t *testing.T) {
	// The drive count ahead of the drive table is a 4-bit nibble (0-15),
	// so 15 is the real ceiling even though the drive alphabet and the
	// per-drive 4-bit id field both span 16 letters/ids.
	names := make([]string, 15)
	for i := range names {
		names[i] = string(rune('A' + i))
	}
	s, err := New("demo", names)
	require.NoError(t, err)

	_, err = s.AddDrive("P")
	assert.True(t, pfserr.Is(err, pfserr.TooManyDrives))
}

func TestReadOnlyFileRejectsWrite(t *testing.T) {
	s, err := New("demo", []string{"A"})
	require.NoError(t, err)

	p, err := s.Path("A:/s")
	require.NoError(t, err)
	_, err = p.Touch()
	require.NoError(t, err)

	node, err := p.Open()
	require.NoError(t, err)
	require.NoError(t, node.SetReadOnly(true))

	_, err = vfile.Open(node, "w", "")
	assert.True(t, pfserr.Is(err, pfserr.NotWritable))
}
