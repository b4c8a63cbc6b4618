// Package hostfs bridges a PortableFS tree and the host filesystem:
// ExtractTo writes a session's drive out to a host directory, ImportFrom
// loads a host directory tree into a session's drive. Both are layered
// entirely on the public vpath/vfile surface.
package hostfs

import (
	"os"
	"path/filepath"

	"github.com/minemario64/portablefs/pkg/vfile"
	"github.com/minemario64/portablefs/pkg/vpath"
)

// ProgressFunc, if non-nil, is called once per file or directory processed,
// with the PFS path and (for files) the byte count copied.
type ProgressFunc func(path string, bytes int)

// ExtractTo walks root (a drive root or any directory path) and writes its
// contents under outputDir on the host, directories first then files.
func ExtractTo(root *vpath.Path, outputDir string, progress ProgressFunc) error {
	dirs, files, err := collect(root)
	if err != nil {
		return err
	}

	for _, d := range dirs {
		rel, err := relativeTo(root, d)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Join(outputDir, rel), os.ModePerm); err != nil {
			return err
		}
		if progress != nil {
			progress(d.String(), 0)
		}
	}

	for _, f := range files {
		rel, err := relativeTo(root, f)
		if err != nil {
			return err
		}
		fullPath := filepath.Join(outputDir, rel)
		if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
			return err
		}
		n, err := extractFile(f, fullPath)
		if err != nil {
			return err
		}
		if progress != nil {
			progress(f.String(), n)
		}
	}
	return nil
}

func extractFile(p *vpath.Path, fullPath string) (int, error) {
	node, err := p.Open()
	if err != nil {
		return 0, err
	}
	h, err := vfile.Open(node, "rb", "")
	if err != nil {
		return 0, err
	}
	defer h.Close()

	data, err := h.ReadBytes(-1)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return 0, err
	}
	return len(data), nil
}

// collect performs a breadth-first walk of root, returning every descendant
// directory and file path, directories before files in each level, so
// parent directories exist before their children are written.
func collect(root *vpath.Path) (dirs, files []*vpath.Path, err error) {
	queue := []*vpath.Path{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		it, err := cur.IterDir()
		if err != nil {
			return nil, nil, err
		}
		for {
			child, ok := it.Next()
			if !ok {
				break
			}
			if child.IsDir() {
				dirs = append(dirs, child)
				queue = append(queue, child)
			} else {
				files = append(files, child)
			}
		}
	}
	return dirs, files, nil
}

func relativeTo(root, p *vpath.Path) (string, error) {
	rootStr := root.String()
	full := p.String()
	if len(full) < len(rootStr) {
		return "", os.ErrInvalid
	}
	return full[len(rootStr):], nil
}

// ImportFrom walks a host directory tree rooted at inputDir and recreates
// it under dest (a directory path within a session's tree), in
// filepath.Walk's lexical order: each directory is created before its
// contents, but files and directories of one level are interleaved.
func ImportFrom(inputDir string, dest *vpath.Path, progress ProgressFunc) error {
	return filepath.Walk(inputDir, func(hostPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(inputDir, hostPath)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		target := dest.JoinPath(filepath.ToSlash(rel))
		if info.IsDir() {
			if _, err := target.Mkdir(); err != nil {
				return err
			}
			if progress != nil {
				progress(target.String(), 0)
			}
			return nil
		}

		if _, err := target.Touch(); err != nil {
			return err
		}
		node, err := target.Open()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(hostPath)
		if err != nil {
			return err
		}
		h, err := vfile.Open(node, "wb", "")
		if err != nil {
			return err
		}
		defer h.Close()
		if err := h.WriteBytes(data); err != nil {
			return err
		}
		if progress != nil {
			progress(target.String(), len(data))
		}
		return nil
	})
}
