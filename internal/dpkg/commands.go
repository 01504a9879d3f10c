package dpkg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// execCommand and lookPath are replaced in tests.
var (
	execCommand = exec.CommandContext
	lookPath    = exec.LookPath
)

// run executes an external tool and returns its stdout.
func run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := execCommand(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s failed: %w (stderr: %s)", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return output, nil
}

// HasTool reports whether an executable is on PATH.
func HasTool(name string) bool {
	_, err := lookPath(name)
	return err == nil
}

// ListAvailable returns every package known to the apt cache, via
// `apt-cache dumpavail`. Installed and State are left unset.
func ListAvailable(ctx context.Context) ([]*Package, error) {
	output, err := run(ctx, "apt-cache", "dumpavail")
	if err != nil {
		return nil, err
	}

	pkgs, err := ParseStatus(bytes.NewReader(output))
	if err != nil {
		return nil, fmt.Errorf("failed to parse apt-cache output: %w", err)
	}
	return pkgs, nil
}

// Deborphan runs deborphan and returns the reported package names.
func Deborphan(ctx context.Context) ([]string, error) {
	output, err := run(ctx, "deborphan")
	if err != nil {
		return nil, err
	}

	var names []string
	s := bufio.NewScanner(bytes.NewReader(output))
	for s.Scan() {
		if name := strings.TrimSpace(s.Text()); name != "" {
			names = append(names, name)
		}
	}
	return names, s.Err()
}

// AutoremoveCandidates simulates `apt-get autoremove` and returns the
// packages it would remove. Nothing is modified.
func AutoremoveCandidates(ctx context.Context) ([]AutoremoveCandidate, error) {
	output, err := run(ctx, "apt-get", "--simulate", "autoremove")
	if err != nil {
		return nil, err
	}
	return parseAutoremove(string(output)), nil
}

// parseAutoremove extracts "Remv <name> [<version>]" lines.
// Example input:
//
//	Remv libfoo1 [1.9-1]
//	Remv python3-bar [2.0-3] [python3-baz:amd64 ]
func parseAutoremove(output string) []AutoremoveCandidate {
	var candidates []AutoremoveCandidate
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "Remv" {
			continue
		}

		c := AutoremoveCandidate{Name: fields[1]}
		if len(fields) > 2 && strings.HasPrefix(fields[2], "[") {
			c.Version = strings.Trim(fields[2], "[]")
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// AptFileList returns the files shipped by a package according to the
// apt-file index. It works for packages that are not installed.
func AptFileList(ctx context.Context, name string) ([]string, error) {
	output, err := run(ctx, "apt-file", "list", name)
	if err != nil {
		return nil, err
	}

	// Output format: "<package>: <path>". apt-file matches by pattern,
	// so keep only exact package matches.
	var files []string
	prefix := name + ": "
	for _, line := range strings.Split(string(output), "\n") {
		if path, ok := strings.CutPrefix(line, prefix); ok {
			files = append(files, strings.TrimSpace(path))
		}
	}
	return files, nil
}
