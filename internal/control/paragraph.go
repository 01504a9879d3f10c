// Package control parses Debian control-format text: the dpkg status file,
// apt-cache dumpavail output, apt's extended_states and the stanzas of apt's
// history.log all share the same "Field: value" paragraph layout.
package control

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineSize bounds a single line; long Description fields in the status
// file can exceed bufio's 64 KiB default.
const maxLineSize = 4 * 1024 * 1024

// Field is a single "Name: value" entry of a paragraph. Continuation lines
// are folded into Value separated by "\n".
type Field struct {
	Name  string
	Value string
}

// Paragraph is one blank-line separated stanza. Field order is preserved.
type Paragraph struct {
	Fields []Field
}

// Get returns the value of the named field, matched case-insensitively.
// Returns "" if the field is absent.
func (p Paragraph) Get(name string) string {
	for _, f := range p.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Has reports whether the named field is present.
func (p Paragraph) Has(name string) bool {
	for _, f := range p.Fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// Parse reads every paragraph from r. Lines that are neither a field, a
// continuation nor a blank separator are skipped.
func Parse(r io.Reader) ([]Paragraph, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineSize)

	var (
		paragraphs []Paragraph
		current    Paragraph
	)

	flush := func() {
		if len(current.Fields) > 0 {
			paragraphs = append(paragraphs, current)
		}
		current = Paragraph{}
	}

	for s.Scan() {
		line := strings.TrimRight(s.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if strings.HasPrefix(line, "#") {
			continue
		}

		// Continuation line
		if line[0] == ' ' || line[0] == '\t' {
			if n := len(current.Fields); n > 0 {
				cont := line[1:]
				if strings.TrimSpace(cont) == "." {
					cont = ""
				}
				if current.Fields[n-1].Value == "" {
					current.Fields[n-1].Value = cont
				} else {
					current.Fields[n-1].Value += "\n" + cont
				}
			}
			continue
		}

		idx := strings.IndexByte(line, ':')
		if idx <= 0 {
			continue
		}

		current.Fields = append(current.Fields, Field{
			Name:  strings.TrimSpace(line[:idx]),
			Value: strings.TrimSpace(line[idx+1:]),
		})
	}

	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to read control data: %w", err)
	}

	flush()
	return paragraphs, nil
}
