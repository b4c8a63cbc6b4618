// Package vfile implements the PortableFS virtual file handle:
// mode-string parsing, text/binary reads and writes, seek/tell/truncate,
// and the flush-on-close discipline that writes the in-memory buffer back
// into the tree node.
package vfile

import (
	"github.com/minemario64/portablefs/pkg/pfserr"
	"github.com/minemario64/portablefs/pkg/tree"
)

// Handle is an open file: a working copy of the node's bytes, a cursor,
// and the access mode it was opened with.
type Handle struct {
	file     *tree.File
	mode     Mode
	binary   bool
	encoding Encoding

	buf    []byte
	pos    int
	closed bool
}

// Open opens node (which must be a file, not a directory) with the given
// mode string and text encoding. Fails TypeMismatch if node is a
// directory, NotWritable if the mode requests write access to a
// read_only file, SystemFileProtected if the mode requests write access
// to a system file, FileBusy if another handle on the file is already
// open.
func Open(node *tree.Node, modeStr, encoding string) (*Handle, error) {
	if node.IsDir() {
		return nil, pfserr.New("vfile.Open", pfserr.TypeMismatch, node.Name(), nil)
	}
	f := node.File
	m := parseMode(modeStr)

	if m.writable() {
		if f.ReadOnly {
			return nil, pfserr.New("vfile.Open", pfserr.NotWritable, f.Name, nil)
		}
		if f.System {
			return nil, pfserr.New("vfile.Open", pfserr.SystemFileProtected, f.Name, nil)
		}
	}

	if err := f.Acquire(); err != nil {
		return nil, err
	}

	binary := true
	if m.Text && !m.Binary {
		binary = false
	}
	enc := parseEncoding(encoding)
	if enc == EncodingNone {
		binary = true
	}

	h := &Handle{file: f, mode: m, binary: binary, encoding: enc}
	if m.Write {
		h.buf = nil
	} else {
		h.buf = append([]byte{}, f.Data...)
		h.pos = 0
		if m.Append {
			h.pos = len(h.buf)
		}
	}
	return h, nil
}

func (h *Handle) checkClosed(op string) error {
	if h.closed {
		return pfserr.New(op, pfserr.HandleClosed, h.file.Name, nil)
	}
	return nil
}

// ReadBytes returns up to n bytes from the cursor (the rest, if n<0),
// advancing the cursor. Fails NotReadable if the mode lacks read
// capability, TypeMismatch if the handle is in text mode.
func (h *Handle) ReadBytes(n int) ([]byte, error) {
	if err := h.checkClosed("Handle.ReadBytes"); err != nil {
		return nil, err
	}
	if !h.mode.readable() {
		return nil, pfserr.New("Handle.ReadBytes", pfserr.NotReadable, h.file.Name, nil)
	}
	if !h.binary {
		return nil, pfserr.New("Handle.ReadBytes", pfserr.TypeMismatch, h.file.Name, nil)
	}

	remaining := h.buf[h.pos:]
	if n < 0 || n > len(remaining) {
		n = len(remaining)
	}
	out := append([]byte{}, remaining[:n]...)
	h.pos += n
	return out, nil
}

// ReadText returns up to n characters from the cursor (the rest, if n<0),
// decoded per the handle's encoding, advancing the cursor. Fails
// NotReadable if the mode lacks read capability, TypeMismatch if the
// handle is in binary mode.
func (h *Handle) ReadText(n int) (string, error) {
	if err := h.checkClosed("Handle.ReadText"); err != nil {
		return "", err
	}
	if !h.mode.readable() {
		return "", pfserr.New("Handle.ReadText", pfserr.NotReadable, h.file.Name, nil)
	}
	if h.binary {
		return "", pfserr.New("Handle.ReadText", pfserr.TypeMismatch, h.file.Name, nil)
	}

	full := decodeText(h.buf[h.pos:], h.encoding)
	runes := []rune(full)
	if n < 0 || n > len(runes) {
		n = len(runes)
	}
	selected := string(runes[:n])
	h.pos += len(encodeText(selected, h.encoding))
	return selected, nil
}

// WriteBytes replaces the buffer in w mode or appends in a mode. Fails
// NotWritable if the mode lacks write capability, TypeMismatch if the
// handle is in text mode.
func (h *Handle) WriteBytes(data []byte) error {
	if err := h.checkClosed("Handle.WriteBytes"); err != nil {
		return err
	}
	if !h.mode.writable() {
		return pfserr.New("Handle.WriteBytes", pfserr.NotWritable, h.file.Name, nil)
	}
	if !h.binary {
		return pfserr.New("Handle.WriteBytes", pfserr.TypeMismatch, h.file.Name, nil)
	}

	if h.mode.Append {
		h.buf = append(h.buf, data...)
	} else {
		h.buf = append([]byte{}, data...)
	}
	h.pos = len(h.buf)
	return nil
}

// WriteText replaces the buffer in w mode or appends in a mode, encoding s
// per the handle's encoding. Fails NotWritable if the mode lacks write
// capability, TypeMismatch if the handle is in binary mode.
func (h *Handle) WriteText(s string) error {
	if err := h.checkClosed("Handle.WriteText"); err != nil {
		return err
	}
	if !h.mode.writable() {
		return pfserr.New("Handle.WriteText", pfserr.NotWritable, h.file.Name, nil)
	}
	if h.binary {
		return pfserr.New("Handle.WriteText", pfserr.TypeMismatch, h.file.Name, nil)
	}

	encoded := encodeText(s, h.encoding)
	if h.mode.Append {
		h.buf = append(h.buf, encoded...)
	} else {
		h.buf = encoded
	}
	h.pos = len(h.buf)
	return nil
}

// Seek whence values, matching io.Seeker.
const (
	SeekStart   = 0
	SeekCurrent = 1
	SeekEnd     = 2
)

// Seek moves the cursor to offset relative to whence, clamped to
// [0, len(buffer)].
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	if err := h.checkClosed("Handle.Seek"); err != nil {
		return 0, err
	}
	var base int64
	switch whence {
	case SeekStart:
		base = 0
	case SeekCurrent:
		base = int64(h.pos)
	case SeekEnd:
		base = int64(len(h.buf))
	default:
		base = int64(h.pos)
	}
	newPos := base + offset
	if newPos < 0 {
		newPos = 0
	}
	if newPos > int64(len(h.buf)) {
		newPos = int64(len(h.buf))
	}
	h.pos = int(newPos)
	return int64(h.pos), nil
}

// Tell returns the current cursor position.
func (h *Handle) Tell() (int64, error) {
	if err := h.checkClosed("Handle.Tell"); err != nil {
		return 0, err
	}
	return int64(h.pos), nil
}

// Truncate resizes the buffer to size, zero-padding if it grows, and
// clamps the cursor into range.
func (h *Handle) Truncate(size int64) error {
	if err := h.checkClosed("Handle.Truncate"); err != nil {
		return err
	}
	if size < 0 {
		size = 0
	}
	switch {
	case int(size) < len(h.buf):
		h.buf = h.buf[:size]
	case int(size) > len(h.buf):
		h.buf = append(h.buf, make([]byte, int(size)-len(h.buf))...)
	}
	if h.pos > len(h.buf) {
		h.pos = len(h.buf)
	}
	return nil
}

// Flush writes the in-memory buffer back into the tree node.
func (h *Handle) Flush() error {
	if err := h.checkClosed("Handle.Flush"); err != nil {
		return err
	}
	h.file.Data = append([]byte{}, h.buf...)
	return nil
}

// Close flushes the buffer and releases the file's busy guard. Calling
// Close twice fails HandleClosed.
func (h *Handle) Close() error {
	if err := h.checkClosed("Handle.Close"); err != nil {
		return err
	}
	if err := h.Flush(); err != nil {
		return err
	}
	h.file.Release()
	h.closed = true
	return nil
}
