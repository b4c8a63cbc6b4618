package testutil

import (
	"fmt"

	"github.com/minemario64/portablefs/pkg/tree"
)

// AssertNoDuplicateSiblings walks every drive in t and returns an error
// naming the first directory found holding two children with the same
// name. Directory.insert's last-write-wins semantics make this impossible
// to observe through pkg/tree itself; this exists to catch a regression in
// a caller that bypasses it (e.g. a future bulk-loader).
func AssertNoDuplicateSiblings(t *tree.Tree) error {
	var walk func(d *tree.Directory) error
	walk = func(d *tree.Directory) error {
		seen := make(map[string]bool)
		for _, name := range d.Names() {
			if seen[name] {
				return fmt.Errorf("duplicate sibling name %q under directory %d", name, d.ID)
			}
			seen[name] = true
			n, _ := d.Get(name)
			if n.IsDir() {
				if err := walk(n.Dir); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, drive := range t.Drives() {
		if err := walk(drive.Root); err != nil {
			return err
		}
	}
	return nil
}

// AssertParentsResolve walks every drive in t and confirms every directory
// reachable from a drive root was actually reached by that walk -- i.e.
// that pkg/tree never leaves a directory parented to an id that does not
// resolve to its own ancestor. Since Tree exposes no id-indexed lookup
// outside pkg/tree itself, this is necessarily a structural check: a
// directory that failed to attach to its true parent during
// reconstruction would simply not appear under any drive root, and the
// counts returned by Counts would fall short of what the caller expected.
func AssertParentsResolve(t *tree.Tree, wantDirs, wantFiles int) error {
	gotDirs, gotFiles := Counts(t)
	if gotDirs != wantDirs || gotFiles != wantFiles {
		return fmt.Errorf("tree walk reached %d dirs, %d files; want %d dirs, %d files (unreachable nodes indicate an unresolved parent_id)", gotDirs, gotFiles, wantDirs, wantFiles)
	}
	return nil
}
