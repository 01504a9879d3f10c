package dpkg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeExecCommand re-invokes the test binary so TestHelperProcess can play
// the part of the external tool.
func fakeExecCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd
}

func useFakeExec(t *testing.T) {
	t.Helper()
	orig := execCommand
	execCommand = fakeExecCommand
	t.Cleanup(func() { execCommand = orig })
}

// TestHelperProcess is not a real test; it emulates apt tooling output.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}

	switch strings.Join(args[1:], " ") {
	case "deborphan":
		fmt.Println("libfoo1")
		fmt.Println("")
		fmt.Println("libbar2")
	case "apt-get --simulate autoremove":
		fmt.Println("Reading package lists...")
		fmt.Println("The following packages will be REMOVED:")
		fmt.Println("  libfoo1 python3-bar")
		fmt.Println("Remv libfoo1 [1.9-1]")
		fmt.Println("Remv python3-bar [2.0-3] [python3-baz:amd64 ]")
	case "apt-file list htop":
		fmt.Println("htop: /usr/bin/htop")
		fmt.Println("htop: /usr/share/man/man1/htop.1.gz")
		fmt.Println("htop-extra: /usr/bin/htop-extra")
	case "apt-cache dumpavail":
		fmt.Println("Package: cowsay")
		fmt.Println("Version: 3.03+dfsg2-8")
		fmt.Println("Section: games")
		fmt.Println("Description: configurable talking cow")
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %v\n", args[1:])
		os.Exit(100)
	}
	os.Exit(0)
}

func TestDeborphan(t *testing.T) {
	useFakeExec(t)

	got, err := Deborphan(context.Background())
	if err != nil {
		t.Fatalf("Deborphan() error = %v", err)
	}
	if diff := cmp.Diff([]string{"libfoo1", "libbar2"}, got); diff != "" {
		t.Errorf("Deborphan() mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoremoveCandidates(t *testing.T) {
	useFakeExec(t)

	got, err := AutoremoveCandidates(context.Background())
	if err != nil {
		t.Fatalf("AutoremoveCandidates() error = %v", err)
	}
	want := []AutoremoveCandidate{
		{Name: "libfoo1", Version: "1.9-1"},
		{Name: "python3-bar", Version: "2.0-3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AutoremoveCandidates() mismatch (-want +got):\n%s", diff)
	}
}

func TestAptFileList(t *testing.T) {
	useFakeExec(t)

	got, err := AptFileList(context.Background(), "htop")
	if err != nil {
		t.Fatalf("AptFileList() error = %v", err)
	}
	want := []string{"/usr/bin/htop", "/usr/share/man/man1/htop.1.gz"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AptFileList() mismatch (-want +got):\n%s", diff)
	}
}

func TestListAvailable(t *testing.T) {
	useFakeExec(t)

	pkgs, err := ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable() error = %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "cowsay" || pkgs[0].Installed {
		t.Errorf("unexpected available packages: %+v", pkgs)
	}
}

func TestRun_FailureIncludesStderr(t *testing.T) {
	useFakeExec(t)

	_, err := run(context.Background(), "apt-file", "list", "unknown")
	if err == nil {
		t.Fatal("expected error from failing command")
	}
	if !strings.Contains(err.Error(), "apt-file failed") || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("error should name the tool and include stderr, got: %v", err)
	}
}

func TestHasTool(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	lookPath = func(name string) (string, error) {
		if name == "deborphan" {
			return "/usr/bin/deborphan", nil
		}
		return "", exec.ErrNotFound
	}

	if !HasTool("deborphan") {
		t.Error("HasTool(deborphan) = false, want true")
	}
	if HasTool("apt-file") {
		t.Error("HasTool(apt-file) = true, want false")
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	write("htop.list", "/.\n/usr\n/usr/bin\n/usr/bin/htop\n")
	write("libc6:amd64.list", "/.\n/lib/x86_64-linux-gnu/libc.so.6\n")

	files, err := ListFiles(dir, "htop")
	if err != nil {
		t.Fatalf("ListFiles(htop) error = %v", err)
	}
	if diff := cmp.Diff([]string{"/usr", "/usr/bin", "/usr/bin/htop"}, files); diff != "" {
		t.Errorf("ListFiles(htop) mismatch (-want +got):\n%s", diff)
	}

	files, err = ListFiles(dir, "libc6")
	if err != nil {
		t.Fatalf("ListFiles(libc6) error = %v", err)
	}
	if len(files) != 1 {
		t.Errorf("expected arch-qualified list to be found, got %v", files)
	}

	_, err = ListFiles(dir, "missing")
	if !errors.Is(err, ErrNotInstalled) {
		t.Errorf("ListFiles(missing) error = %v, want ErrNotInstalled", err)
	}
}
