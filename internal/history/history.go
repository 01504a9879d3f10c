// Package history reads apt's history.log, including rotated and
// gzip-compressed copies, and answers "what was installed when" questions.
package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/blackwell-systems/aptscope/internal/control"
)

// DefaultDir is apt's log directory.
const DefaultDir = "/var/log/apt"

// DayFormat is the accepted --date layout.
const DayFormat = "2006-01-02"

// ErrInvalidDate is returned by ParseDay for malformed input.
var ErrInvalidDate = errors.New("invalid date")

// Actions recorded in history.log.
const (
	ActionInstall   = "install"
	ActionUpgrade   = "upgrade"
	ActionDowngrade = "downgrade"
	ActionReinstall = "reinstall"
	ActionRemove    = "remove"
	ActionPurge     = "purge"
)

// actionFields maps history.log field names to actions.
var actionFields = []struct {
	field  string
	action string
}{
	{"Install", ActionInstall},
	{"Upgrade", ActionUpgrade},
	{"Downgrade", ActionDowngrade},
	{"Reinstall", ActionReinstall},
	{"Remove", ActionRemove},
	{"Purge", ActionPurge},
}

// Event is one package action from a history.log transaction.
type Event struct {
	Time        time.Time
	Action      string
	Package     string
	Arch        string
	Version     string
	OldVersion  string // upgrades and downgrades only
	Automatic   bool
	Commandline string
	RequestedBy string
}

// Load reads every history.log* file in dir and returns the events ordered
// from oldest to newest. A directory without logs yields no events.
func Load(dir string) ([]Event, error) {
	files, err := logFiles(dir)
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, path := range files {
		fileEvents, err := readFile(path)
		if err != nil {
			return nil, err
		}
		events = append(events, fileEvents...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
	return events, nil
}

// logFiles returns history.log* paths ordered oldest first:
// history.log.N.gz ... history.log.1, history.log.
func logFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "history.log*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list history logs: %w", err)
	}

	type logFile struct {
		path string
		seq  int
	}
	var files []logFile
	for _, path := range matches {
		base := filepath.Base(path)
		rest := strings.TrimSuffix(strings.TrimPrefix(base, "history.log"), ".gz")
		if rest == "" {
			files = append(files, logFile{path: path, seq: 0})
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(rest, "."))
		if err != nil || !strings.HasPrefix(rest, ".") {
			continue
		}
		files = append(files, logFile{path: path, seq: n})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].seq > files[j].seq
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

func readFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	events, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return events, nil
}

// Parse reads history.log formatted data from r.
func Parse(r io.Reader) ([]Event, error) {
	paragraphs, err := control.Parse(r)
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, p := range paragraphs {
		start, ok := parseTimestamp(p.Get("Start-Date"))
		if !ok {
			continue
		}

		for _, af := range actionFields {
			for _, entry := range control.SplitTopLevel(p.Get(af.field)) {
				ev := parseEntry(entry, af.action)
				if ev.Package == "" {
					continue
				}
				ev.Time = start
				ev.Commandline = p.Get("Commandline")
				ev.RequestedBy = p.Get("Requested-By")
				events = append(events, ev)
			}
		}
	}
	return events, nil
}

// parseTimestamp parses "2024-01-15  10:23:45" (apt pads with two spaces).
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseEntry parses a single list element such as
//
//	libnl-3-200:amd64 (3.7.0-0.2, automatic)
//	vim:amd64 (2:9.0.1378-1, 2:9.0.1378-2)
func parseEntry(entry, action string) Event {
	rel := control.ParseRelation(entry)
	ev := Event{
		Action:  action,
		Package: rel.Name,
		Arch:    rel.Arch,
	}

	var versions []string
	for _, part := range strings.Split(rel.Constraint, ",") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
		case "automatic":
			ev.Automatic = true
		default:
			versions = append(versions, part)
		}
	}

	switch len(versions) {
	case 0:
	case 1:
		ev.Version = versions[0]
	default:
		ev.OldVersion = versions[0]
		ev.Version = versions[1]
	}
	return ev
}

// ParseDay parses a YYYY-MM-DD date in the local time zone.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayFormat, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected format YYYY-MM-DD", ErrInvalidDate, s)
	}
	return t, nil
}

// Filter selects events for a report.
type Filter struct {
	Actions   []string // empty means installs only
	Automatic bool     // include automatically installed dependencies
}

func (f Filter) match(ev Event) bool {
	if ev.Automatic && !f.Automatic {
		return false
	}
	if len(f.Actions) == 0 {
		return ev.Action == ActionInstall
	}
	for _, a := range f.Actions {
		if a == ev.Action {
			return true
		}
	}
	return false
}

// Latest returns the n most recent matching events, newest first.
func Latest(events []Event, n int, f Filter) []Event {
	var out []Event
	for i := len(events) - 1; i >= 0 && len(out) < n; i-- {
		if f.match(events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}

// OnDate returns the matching events that happened on day, oldest first.
func OnDate(events []Event, day time.Time, f Filter) []Event {
	y, m, d := day.Date()

	var out []Event
	for _, ev := range events {
		ey, em, ed := ev.Time.In(day.Location()).Date()
		if ey == y && em == m && ed == d && f.match(ev) {
			out = append(out, ev)
		}
	}
	return out
}
