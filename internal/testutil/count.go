// Package testutil provides tree-walking helpers shared by the package test
// suites: counting files and directories, and asserting structural
// invariants that span more than one package (no duplicate sibling names,
// every directory's parent_id resolving to a live ancestor).
package testutil

import "github.com/minemario64/portablefs/pkg/tree"

// Counts walks every drive in t and returns the total number of directories
// (excluding drive roots) and files.
func Counts(t *tree.Tree) (dirs, files int) {
	var walk func(d *tree.Directory)
	walk = func(d *tree.Directory) {
		for _, name := range d.Names() {
			n, _ := d.Get(name)
			if n.IsDir() {
				dirs++
				walk(n.Dir)
			} else {
				files++
			}
		}
	}
	for _, drive := range t.Drives() {
		walk(drive.Root)
	}
	return dirs, files
}
