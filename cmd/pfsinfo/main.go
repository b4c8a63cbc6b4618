// Command pfsinfo is a command-line tool for inspecting .pfs containers: it
// prints the container name, format version, compression settings, drive
// count, and file/directory counts, with an optional verbose per-drive
// breakdown.
package main

import (
	"fmt"
	"os"

	"github.com/bgrewell/usage"
	"github.com/dustin/go-humanize"

	portablefs "github.com/minemario64/portablefs"
	"github.com/minemario64/portablefs/pkg/version"
	"github.com/minemario64/portablefs/pkg/vpath"
)

// driveStats is the file/directory/byte-size tally for one drive's subtree.
type driveStats struct {
	files, dirs int
	size        uint64
}

func walkDrive(s *portablefs.Session, driveName string) (driveStats, error) {
	var stats driveStats
	root, err := s.Path(driveName + ":/")
	if err != nil {
		return stats, err
	}

	queue := []*vpath.Path{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		it, err := cur.IterDir()
		if err != nil {
			return stats, err
		}
		for {
			child, ok := it.Next()
			if !ok {
				break
			}
			if child.IsDir() {
				stats.dirs++
				queue = append(queue, child)
				continue
			}
			stats.files++
			node, err := child.Open()
			if err != nil {
				return stats, err
			}
			stats.size += uint64(len(node.File.Data))
		}
	}
	return stats, nil
}

func displayInfo(s *portablefs.Session, verbose bool) {
	fmt.Println("=== PortableFS Container ===")
	fmt.Printf("Name: %s\n", s.Name())
	fmt.Printf("Format Version: %d\n", s.FormatVersion())
	if compressed, level := s.Compression(); compressed {
		fmt.Printf("Compression: zstd (level %d)\n", level)
	} else {
		fmt.Println("Compression: off")
	}

	drives := s.Drives()
	var total driveStats
	perDrive := make([]driveStats, len(drives))
	for i, d := range drives {
		st, err := walkDrive(s, d.Name)
		if err != nil {
			fmt.Printf("Failed to walk drive %s: %v\n", d.Name, err)
			continue
		}
		perDrive[i] = st
		total.files += st.files
		total.dirs += st.dirs
		total.size += st.size
	}

	fmt.Printf("Drives: %d\n", len(drives))
	fmt.Printf("Total Files: %d\n", total.files)
	fmt.Printf("Total Directories: %d\n", total.dirs)
	fmt.Printf("Total Size: %s\n", humanize.Bytes(total.size))

	if verbose {
		fmt.Println("\n=== Verbose Information ===")
		for i, d := range drives {
			st := perDrive[i]
			fmt.Printf("  Drive %s (id %d): %d files, %d dirs, %s\n", d.Name, d.ID, st.files, st.dirs, humanize.Bytes(st.size))
		}
	}
	fmt.Println("=============================")
}

func main() {
	u := usage.NewUsage(
		usage.WithApplicationVersion(version.Version()),
		usage.WithApplicationBranch(version.Branch()),
		usage.WithApplicationBuildDate(version.Date()),
		usage.WithApplicationCommitHash(version.Revision()),
		usage.WithApplicationName("pfsinfo"),
		usage.WithApplicationDescription("pfsinfo is a command-line tool for inspecting PortableFS (.pfs) containers. It prints volume information and, with -v, a per-drive breakdown."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Print verbose output", "", nil)
	path := u.AddArgument(1, "pfs-path", "Path to the .pfs container to inspect", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}

	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	if path == nil || *path == "" {
		u.PrintError(fmt.Errorf("location of the .pfs container <pfs-path> must be provided"))
		os.Exit(1)
	}

	s, err := portablefs.Open(*path)
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
	defer s.Close()

	displayInfo(s, *verbose)
}
