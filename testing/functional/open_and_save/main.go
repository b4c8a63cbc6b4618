// Command open_and_save is a functional test that is part of portablefs: it
// verifies that a loaded container can be saved back out byte-for-byte and
// reopened.
package main

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"github.com/bgrewell/usage"

	portablefs "github.com/minemario64/portablefs"
)

func generateFileMD5(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

func main() {
	u := usage.NewUsage(
		usage.WithApplicationName("open_and_save"),
		usage.WithApplicationDescription("open_and_save is a functional testing application that is part of portablefs and is designed to verify that the open, parse and save logic of portablefs is working as expected."),
	)
	help := u.AddBooleanOption("h", "help", false, "Display this help message", "", nil)
	rm := u.AddBooleanOption("rm", "remove-test-file", true, "Remove the test file after running the tests", "", nil)
	input := u.AddArgument(1, "input", "The input .pfs file to run the tests against", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}

	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	if input == nil || *input == "" {
		u.PrintError(fmt.Errorf("location of the input .pfs file <input> must be provided"))
		os.Exit(1)
	}

	s, err := portablefs.Open(*input)
	if err != nil {
		fmt.Printf("Failed to open container: %s\n", err)
		os.Exit(1)
	}
	defer s.Close()

	out, err := os.CreateTemp("", "open_and_save_test_*.pfs")
	if err != nil {
		fmt.Printf("Failed to create temporary file: %s\n", err)
		os.Exit(1)
	}
	out.Close()

	if *rm {
		defer os.Remove(out.Name())
	} else {
		fmt.Printf("Temporary file: %s\n", out.Name())
	}

	if err := s.Save(out.Name(), nil, nil); err != nil {
		fmt.Printf("Failed to save container: %s\n", err)
		os.Exit(1)
	}

	reopened, err := portablefs.Open(out.Name())
	if err != nil {
		fmt.Printf("Failed to reopen saved container: %s\n", err)
		os.Exit(1)
	}
	reopened.Close()

	inputHash, err := generateFileMD5(*input)
	if err != nil {
		fmt.Printf("Failed to generate MD5 hash for input file: %s\n", err)
		os.Exit(1)
	}
	outputHash, err := generateFileMD5(out.Name())
	if err != nil {
		fmt.Printf("Failed to generate MD5 hash for output file: %s\n", err)
		os.Exit(1)
	}

	if inputHash != outputHash {
		fmt.Printf("MD5 hash of input file does not match MD5 hash of output file:\n  Input:  %s\n  Output: %s\n", inputHash, outputHash)
		os.Exit(1)
	}

	fmt.Println("OK: container round-tripped byte-for-byte.")
}
