package control

import (
	"strings"
	"testing"
)

const mockStatus = `Package: vim
Status: install ok installed
Priority: optional
Section: editors
Version: 2:9.0.1378-2
Depends: vim-common (= 2:9.0.1378-2), vim-runtime (= 2:9.0.1378-2), libc6 (>= 2.34),
 libgpm2 (>= 1.20.7)
Description: Vi IMproved - enhanced vi editor
 Vim is an almost compatible version of the UNIX editor Vi.
 .
 Many new features have been added.

# comment lines are ignored
Package: libgpm2
Status: install ok installed
Version: 1.20.7-10+b1

`

func TestParse(t *testing.T) {
	paragraphs, err := Parse(strings.NewReader(mockStatus))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(paragraphs))
	}

	vim := paragraphs[0]
	if vim.Get("Package") != "vim" {
		t.Errorf("expected Package vim, got %q", vim.Get("Package"))
	}
	if vim.Get("version") != "2:9.0.1378-2" {
		t.Errorf("case-insensitive Get failed, got %q", vim.Get("version"))
	}

	deps := SplitTopLevel(vim.Get("Depends"))
	if len(deps) != 4 {
		t.Errorf("expected 4 folded dependencies, got %d: %v", len(deps), deps)
	}

	desc := vim.Get("Description")
	wantDesc := "Vi IMproved - enhanced vi editor\nVim is an almost compatible version of the UNIX editor Vi.\n\nMany new features have been added."
	if desc != wantDesc {
		t.Errorf("description mismatch:\n got: %q\nwant: %q", desc, wantDesc)
	}

	if paragraphs[1].Get("Package") != "libgpm2" {
		t.Errorf("expected second paragraph libgpm2, got %q", paragraphs[1].Get("Package"))
	}
	if paragraphs[1].Has("Depends") {
		t.Error("libgpm2 should not have a Depends field")
	}
}

func TestParse_Empty(t *testing.T) {
	paragraphs, err := Parse(strings.NewReader("\n\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(paragraphs) != 0 {
		t.Errorf("expected no paragraphs, got %d", len(paragraphs))
	}
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	input := "Package: foo\nthis line has no separator\nVersion: 1.0\n"
	paragraphs, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(paragraphs) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paragraphs))
	}
	if got := len(paragraphs[0].Fields); got != 2 {
		t.Errorf("expected 2 fields, got %d", got)
	}
}

func TestParse_CRLF(t *testing.T) {
	input := "Start-Date: 2024-01-15  10:23:45\r\nCommandline: apt install htop\r\n\r\n"
	paragraphs, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(paragraphs) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paragraphs))
	}
	if got := paragraphs[0].Get("Commandline"); got != "apt install htop" {
		t.Errorf("Commandline = %q", got)
	}
	if got := paragraphs[0].Get("Start-Date"); got != "2024-01-15  10:23:45" {
		t.Errorf("Start-Date = %q", got)
	}
}
