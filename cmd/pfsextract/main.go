// Command pfsextract extracts a .pfs container's drives to a host
// directory, one subdirectory per drive.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/theckman/yacspin"
	"golang.org/x/term"

	portablefs "github.com/minemario64/portablefs"
	"github.com/minemario64/portablefs/internal/hostfs"
	"github.com/minemario64/portablefs/pkg/logging"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging")
	outputDir := flag.String("o", "./extracted", "Output directory for extracted files")

	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: pfsextract [options] <path-to-pfs>")
		fmt.Println("  -v               Enable verbose logging")
		fmt.Println("  -o <directory>   Output directory (default './extracted')")
		os.Exit(1)
	}
	pfsPath := flag.Arg(0)

	var opts []portablefs.Option
	if *verbose {
		opts = append(opts, portablefs.WithLogger(logging.NewSimpleLogger(os.Stderr, logging.LevelTrace, true)))
	}

	s, err := portablefs.Open(pfsPath, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open container: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	spinner := newSpinner()
	if spinner != nil {
		_ = spinner.Start()
		defer spinner.Stop()
	}

	for _, d := range s.Drives() {
		root, err := s.Path(d.Name + ":/")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to resolve drive %s: %v\n", d.Name, err)
			os.Exit(1)
		}
		dest := *outputDir + "/" + d.Name

		progress := func(path string, bytes int) {
			if spinner != nil {
				spinner.Message(path)
			} else if *verbose {
				fmt.Printf("  + %s\n", path)
			}
		}

		if err := hostfs.ExtractTo(root, dest, progress); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to extract drive %s: %v\n", d.Name, err)
			os.Exit(1)
		}
	}

	if spinner != nil {
		spinner.StopMessage("extraction complete")
	}
	fmt.Printf("Extraction completed successfully to '%s'.\n", *outputDir)
}

// newSpinner returns a running-capable spinner when stdout is an
// interactive terminal, or nil otherwise (plain progress lines are printed
// instead).
func newSpinner() *yacspin.Spinner {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " extracting",
		SuffixAutoColon: true,
		Message:         "starting",
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
	}
	spinner, err := yacspin.New(cfg)
	if err != nil {
		return nil
	}
	return spinner
}
