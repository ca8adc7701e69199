package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// maxQueryBytes bounds --query-file so a mistaken path to a data file fails fast.
const maxQueryBytes = 1 << 20

// readQuery loads a jq program from path, or from stdin when path is "-".
func readQuery(path string, stdin io.Reader) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("--query-file needs a path or -")
	}

	r := stdin
	name := "stdin"
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open query file: %w", err)
		}
		defer f.Close()
		r, name = f, path
	}
	if r == nil {
		r = os.Stdin
	}

	data, err := io.ReadAll(io.LimitReader(r, maxQueryBytes+1))
	if err != nil {
		return "", fmt.Errorf("read query from %s: %w", name, err)
	}
	if len(data) > maxQueryBytes {
		return "", fmt.Errorf("query in %s is larger than %d bytes", name, maxQueryBytes)
	}
	return strings.TrimSpace(string(data)), nil
}

// stdinPiped reports whether r is something other than an interactive
// terminal. Non-file readers count as piped.
func stdinPiped(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}
