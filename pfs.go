// Package portablefs implements the PortableFS container session: the
// public factory functions (Open, OpenBytes, New), the mutation surface
// layered on pkg/tree and pkg/vpath, and the save/close lifecycle.
package portablefs

import (
	"os"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/renameio"

	"github.com/minemario64/portablefs/pkg/consts"
	"github.com/minemario64/portablefs/pkg/payload"
	"github.com/minemario64/portablefs/pkg/pfserr"
	"github.com/minemario64/portablefs/pkg/tree"
	"github.com/minemario64/portablefs/pkg/vpath"
	"github.com/minemario64/portablefs/pkg/wire"
)

// Options holds the construction/load-time settings for a Session.
type Options struct {
	logger     logr.Logger
	name       string
	version    int
	compressed bool
	level      int
	codec      payload.Codec
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger a Session (and the packages it drives) logs
// through.
func WithLogger(l logr.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithFormatVersion selects the on-disk format version (consts.FormatV1 or
// consts.FormatV2) a freshly-created Session saves as.
func WithFormatVersion(version int) Option {
	return func(o *Options) { o.version = version }
}

// WithCompression sets whether Save compresses the data region by default,
// and at what zstd level.
func WithCompression(enabled bool, level int) Option {
	return func(o *Options) {
		o.compressed = enabled
		o.level = level
	}
}

// WithCodec overrides the compression codec. The default is ZstdCodec.
func WithCodec(c payload.Codec) Option {
	return func(o *Options) { o.codec = c }
}

func defaultOptions() Options {
	return Options{
		logger:  logr.Discard(),
		version: consts.FormatV2,
		level:   consts.DefaultCompressionLevel,
		codec:   payload.ZstdCodec{},
	}
}

// Session is an open PortableFS container: a mutable tree, its load/save
// settings, and a current working directory for relative path resolution.
type Session struct {
	tree *tree.Tree
	opts Options
	cwd  *vpath.Path

	sourcePath string
	isNew      bool
	closed     bool
}

var (
	registryMu sync.Mutex
	registry   []*Session

	autosaveMu sync.Mutex
	autosave   bool
)

// SetAutosave sets the process-wide autosave flag: when enabled, Close on
// a session opened from a file (not one created fresh with New) saves back
// to its source path before closing.
func SetAutosave(enabled bool) {
	autosaveMu.Lock()
	defer autosaveMu.Unlock()
	autosave = enabled
}

func autosaveEnabled() bool {
	autosaveMu.Lock()
	defer autosaveMu.Unlock()
	return autosave
}

func register(s *Session) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, s)
}

func unregister(s *Session) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i, r := range registry {
		if r == s {
			registry = append(registry[:i], registry[i+1:]...)
			return
		}
	}
}

// CloseAll closes every currently-open Session. It is a convenience for
// callers that want a single shutdown point instead of tracking every
// session they opened. Closing continues past the first failure; the
// first error encountered is returned.
func CloseAll() error {
	registryMu.Lock()
	sessions := append([]*Session{}, registry...)
	registryMu.Unlock()

	var firstErr error
	for _, s := range sessions {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// New creates a fresh, empty container named name with the given drives.
// Fails BadDriveName or TooManyDrives if the drive list is invalid; see
// pkg/tree.Tree.InitDrives.
func New(name string, drives []string, opts ...Option) (*Session, error) {
	o := defaultOptions()
	o.name = name
	for _, opt := range opts {
		opt(&o)
	}

	t := tree.New(o.logger)
	if err := t.InitDrives(drives); err != nil {
		return nil, err
	}

	s := &Session{tree: t, opts: o, isNew: true}
	if len(drives) > 0 {
		s.cwd = vpath.Root(t, drives[0]).Bind(s.livenessCheck)
	}
	register(s)
	return s, nil
}

// livenessCheck reports SessionClosed once s has been closed. Paths handed
// out by the session (via Path or as cwd) bind to this so a reference kept
// past Close starts failing instead of silently walking a torn-down tree.
func (s *Session) livenessCheck() error {
	return s.checkClosed("vpath")
}

// Open loads a container from a file at path.
func Open(path string, opts ...Option) (*Session, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pfserr.New("portablefs.Open", pfserr.Truncated, path, err)
	}

	s, err := OpenBytes(raw, opts...)
	if err != nil {
		return nil, err
	}
	s.sourcePath = path
	return s, nil
}

// OpenBytes loads a container from an in-memory blob, decoding and
// reconstructing its tree.
func OpenBytes(data []byte, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c, err := wire.Decode(data, o.logger)
	if err != nil {
		return nil, err
	}

	raw := c.Payload
	if c.Header.Compressed {
		raw, err = payload.DecodeRegion(o.codec, c.Payload, true)
		if err != nil {
			return nil, err
		}
	}
	if err := wire.ValidatePayloadLength(c.Files, len(raw)); err != nil {
		return nil, err
	}

	t, err := tree.Build(c, raw, o.logger)
	if err != nil {
		return nil, err
	}

	o.name = c.Header.Name
	o.version = c.Header.Version
	o.compressed = c.Header.Compressed
	o.level = c.Header.CompressionLevel

	s := &Session{tree: t, opts: o}
	if drives := t.Drives(); len(drives) > 0 {
		s.cwd = vpath.Root(t, drives[0].Name).Bind(s.livenessCheck)
	}
	register(s)
	return s, nil
}

func (s *Session) checkClosed(op string) error {
	if s.closed {
		return pfserr.New(op, pfserr.SessionClosed, "", nil)
	}
	return nil
}

// Path parses raw relative to the session's current working directory
// (absolute if raw starts with a "DRIVE:" segment).
func (s *Session) Path(raw string) (*vpath.Path, error) {
	if err := s.checkClosed("Session.Path"); err != nil {
		return nil, err
	}
	p, err := vpath.Parse(s.tree, raw, s.cwd)
	if err != nil {
		return nil, err
	}
	return p.Bind(s.livenessCheck), nil
}

// Chdir changes the session's current working directory. Fails
// NotADirectory if raw does not resolve to a directory or drive root.
func (s *Session) Chdir(raw string) error {
	if err := s.checkClosed("Session.Chdir"); err != nil {
		return err
	}
	p, err := s.Path(raw)
	if err != nil {
		return err
	}
	if !p.IsDir() {
		return pfserr.New("Session.Chdir", pfserr.NotADirectory, raw, nil)
	}
	s.cwd = p
	return nil
}

// Name returns the container name.
func (s *Session) Name() string { return s.opts.name }

// FormatVersion returns the on-disk format version Save emits.
func (s *Session) FormatVersion() int { return s.opts.version }

// Compression returns whether Save compresses the data region by default,
// and at what level.
func (s *Session) Compression() (enabled bool, level int) {
	return s.opts.compressed, s.opts.level
}

// Drives returns the session's drives in declaration order.
func (s *Session) Drives() []*tree.Drive {
	return s.tree.Drives()
}

// AddDrive appends a new drive to the session's tree.
func (s *Session) AddDrive(name string) (*tree.Drive, error) {
	if err := s.checkClosed("Session.AddDrive"); err != nil {
		return nil, err
	}
	return s.tree.AddDrive(name)
}

// RemoveDrive deletes a drive and its entire subtree.
func (s *Session) RemoveDrive(name string) error {
	if err := s.checkClosed("Session.RemoveDrive"); err != nil {
		return err
	}
	return s.tree.RemoveDrive(name)
}

// Save re-serializes the entire container and writes it to target, a host
// file path, atomically (write-to-temp-then-rename). A nil compress or
// level argument falls back to the session's configured default.
func (s *Session) Save(target string, compress *bool, level *int) error {
	data, err := s.saveBytes(compress, level)
	if err != nil {
		return err
	}

	f, err := renameio.TempFile("", target)
	if err != nil {
		return pfserr.New("Session.Save", pfserr.Truncated, target, err)
	}
	defer f.Cleanup()

	if _, err := f.Write(data); err != nil {
		return pfserr.New("Session.Save", pfserr.Truncated, target, err)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return pfserr.New("Session.Save", pfserr.Truncated, target, err)
	}
	return nil
}

// SaveBytes re-serializes the entire container and returns the bytes
// without writing them anywhere.
func (s *Session) SaveBytes(compress *bool, level *int) ([]byte, error) {
	return s.saveBytes(compress, level)
}

func (s *Session) saveBytes(compress *bool, level *int) ([]byte, error) {
	if err := s.checkClosed("Session.Save"); err != nil {
		return nil, err
	}

	compressed := s.opts.compressed
	if compress != nil {
		compressed = *compress
	}
	lvl := s.opts.level
	if level != nil {
		lvl = *level
	}

	drives, dirs, files, data := tree.Flatten(s.tree)

	if s.opts.version == consts.FormatV1 {
		for _, f := range files {
			if f.System {
				return nil, pfserr.New("Session.Save", pfserr.UnsupportedVersion, f.Name, nil)
			}
		}
	}

	encodedData, err := payload.EncodeRegion(s.opts.codec, data, compressed, lvl)
	if err != nil {
		return nil, err
	}

	c := &wire.Container{
		Header: wire.Header{
			Version:          s.opts.version,
			Compressed:       compressed,
			CompressionLevel: lvl,
			Name:             s.opts.name,
		},
		Drives:      drives,
		Directories: dirs,
		Files:       files,
		Payload:     encodedData,
	}
	return wire.Encode(c, s.opts.logger)
}

// Close marks the session closed; subsequent operations on it or on any
// path derived from it fail with SessionClosed. A vfile.Handle that is
// already open is not tied to the session and keeps working after Close.
// If the process-wide autosave flag is set and this session was opened
// from a file (not freshly created with New), Close saves back to its
// source path first.
func (s *Session) Close() error {
	if s.closed {
		return pfserr.New("Session.Close", pfserr.SessionClosed, "", nil)
	}

	if autosaveEnabled() && !s.isNew && s.sourcePath != "" {
		if err := s.Save(s.sourcePath, nil, nil); err != nil {
			return err
		}
	}

	s.closed = true
	unregister(s)
	return nil
}
