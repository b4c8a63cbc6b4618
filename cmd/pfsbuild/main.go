// Command pfsbuild creates a new .pfs container from a host directory tree:
// the source directory is imported as drive A.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bgrewell/usage"

	portablefs "github.com/minemario64/portablefs"
	"github.com/minemario64/portablefs/internal/hostfs"
	"github.com/minemario64/portablefs/pkg/consts"
	"github.com/minemario64/portablefs/pkg/version"
)

func main() {
	u := usage.NewUsage(
		usage.WithApplicationVersion(version.Version()),
		usage.WithApplicationBranch(version.Branch()),
		usage.WithApplicationBuildDate(version.Date()),
		usage.WithApplicationCommitHash(version.Revision()),
		usage.WithApplicationName("pfsbuild"),
		usage.WithApplicationDescription("pfsbuild packs a host directory into a single .pfs container, importing it as drive A."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	compress := u.AddBooleanOption("c", "compress", false, "Compress the data region with zstd", "", nil)
	name := u.AddArgument(1, "name", "Container name (max 13 utf-8 bytes)", "pfsbuild")
	level := u.AddArgument(2, "level", "Zstd compression level (1-22)", strconv.Itoa(consts.DefaultCompressionLevel))
	source := u.AddArgument(3, "source-dir", "Host directory to pack", "")
	output := u.AddArgument(4, "output", "Path to write the .pfs container to", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}
	if *help {
		u.PrintUsage()
		os.Exit(0)
	}
	if source == nil || *source == "" || output == nil || *output == "" {
		u.PrintError(fmt.Errorf("both <source-dir> and <output> must be provided"))
		os.Exit(1)
	}

	lvl, err := strconv.Atoi(*level)
	if err != nil {
		lvl = consts.DefaultCompressionLevel
	}

	s, err := portablefs.New(*name, []string{"A"}, portablefs.WithCompression(*compress, lvl))
	if err != nil {
		u.PrintError(fmt.Errorf("failed to create container: %w", err))
		os.Exit(1)
	}
	defer s.Close()

	root, err := s.Path("A:/")
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}

	progress := func(path string, bytes int) {
		if bytes > 0 {
			fmt.Printf("  + %s (%d bytes)\n", path, bytes)
		} else {
			fmt.Printf("  + %s/\n", path)
		}
	}

	if err := hostfs.ImportFrom(*source, root, progress); err != nil {
		u.PrintError(fmt.Errorf("failed to import %s: %w", *source, err))
		os.Exit(1)
	}

	if err := s.Save(*output, nil, nil); err != nil {
		u.PrintError(fmt.Errorf("failed to save container: %w", err))
		os.Exit(1)
	}

	fmt.Printf("Wrote %s\n", *output)
}
