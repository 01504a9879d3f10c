package dpkg

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultInfoDir is where dpkg keeps per-package file lists.
const DefaultInfoDir = "/var/lib/dpkg/info"

// ErrNotInstalled is returned when no file list exists for a package.
var ErrNotInstalled = errors.New("package is not installed")

// ListFiles returns the paths owned by an installed package, read from
// <infoDir>/<name>.list or <infoDir>/<name>:<arch>.list. The "/." entry
// dpkg records for every package is omitted.
func ListFiles(infoDir, name string) ([]string, error) {
	candidates := []string{filepath.Join(infoDir, name+".list")}
	if !strings.Contains(name, ":") {
		matches, err := filepath.Glob(filepath.Join(infoDir, name+":*.list"))
		if err != nil {
			return nil, fmt.Errorf("failed to search file lists: %w", err)
		}
		sort.Strings(matches)
		candidates = append(candidates, matches...)
	}

	for _, path := range candidates {
		files, err := readList(path)
		if err == nil {
			return files, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	return nil, fmt.Errorf("%s: %w", name, ErrNotInstalled)
}

func readList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var files []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || line == "/." {
			continue
		}
		files = append(files, line)
	}
	return files, s.Err()
}
