package orphan

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// Inputs is the frozen view of the package database a detection runs on.
type Inputs struct {
	Manual    []string
	Automatic []string
	Edges     []Edge
	Providers map[string][]string // optional, see NewGraph
	Versions  map[string]string   // installed package -> version
	Holds     map[string]bool
	Core      CorePatterns
}

// Orphan is an automatic package nothing manual requires.
type Orphan struct {
	Name    string
	Version string
	Held    bool
}

// String formats the orphan as a report line.
func (o Orphan) String() string {
	if o.Held {
		return o.Name + " [hold]"
	}
	return o.Name
}

// StalePair links an orphan to another installed package with the same
// base name and a different version.
type StalePair struct {
	Orphan        string
	OrphanVersion string
	Other         string
	OtherVersion  string
}

// String formats the pair as "orphan (version) → other (version)".
func (p StalePair) String() string {
	return fmt.Sprintf("%s (%s) → %s (%s)", p.Orphan, p.OrphanVersion, p.Other, p.OtherVersion)
}

// Report is the result of a detection run.
type Report struct {
	Reachable int
	Orphans   []Orphan
	Stale     []StalePair
}

// Detect builds the dependency graph, computes the reachable set and
// classifies orphans. It has no side effects.
func Detect(in Inputs) *Report {
	g := NewGraph(in.Edges, in.Providers)
	reachable := g.Reachable(in.Manual)
	orphans := Classify(in, reachable)

	return &Report{
		Reachable: len(reachable),
		Orphans:   orphans,
		Stale:     StaleVersions(orphans, in.Versions, in.Core),
	}
}

// Classify returns the automatic packages that are neither reachable nor
// core, sorted by name. Held packages are annotated, not excluded.
func Classify(in Inputs, reachable Set) []Orphan {
	seen := make(map[string]bool, len(in.Automatic))
	var orphans []Orphan

	for _, name := range in.Automatic {
		if seen[name] || reachable.Has(name) || in.Core.Match(name) {
			continue
		}
		seen[name] = true

		orphans = append(orphans, Orphan{
			Name:    name,
			Version: in.Versions[name],
			Held:    in.Holds[name],
		})
	}

	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].Name < orphans[j].Name
	})
	return orphans
}

var (
	numericSuffix = regexp.MustCompile(`-[0-9]+$`)
	tokenSuffix   = regexp.MustCompile(`-(dev|doc|dbg|common|tools|utils)$`)
	sonameSuffix  = regexp.MustCompile(`([a-zA-Z])[0-9]+$`)
)

// BaseName strips the architecture qualifier and one version-like or
// packaging suffix, so that variants of a package group together:
//
//	libfoo2:amd64 -> libfoo
//	libgtk-3-0    -> libgtk-3
//	libssl-dev    -> libssl
//
// This is a heuristic; a package whose real name ends in one of the
// stripped tokens groups with unrelated packages.
func BaseName(name string) string {
	name = stripArch(name)

	var base string
	switch {
	case numericSuffix.MatchString(name):
		base = numericSuffix.ReplaceAllString(name, "")
	case tokenSuffix.MatchString(name):
		base = tokenSuffix.ReplaceAllString(name, "")
	case sonameSuffix.MatchString(name):
		base = sonameSuffix.ReplaceAllString(name, "$1")
	default:
		return name
	}

	if base == "" {
		return name
	}
	return base
}

func stripArch(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return name
}

// StaleVersions pairs every orphan with the other installed, non-core
// packages that share its base name but carry a different version.
func StaleVersions(orphans []Orphan, versions map[string]string, core CorePatterns) []StalePair {
	if len(orphans) == 0 {
		return nil
	}

	groups := make(map[string][]string)
	for name := range versions {
		if core.Match(name) {
			continue
		}
		base := BaseName(name)
		groups[base] = append(groups[base], name)
	}
	for _, names := range groups {
		sort.Strings(names)
	}

	var pairs []StalePair
	for _, o := range orphans {
		version := versions[o.Name]
		for _, other := range groups[BaseName(o.Name)] {
			if other == o.Name || versions[other] == version {
				continue
			}
			pairs = append(pairs, StalePair{
				Orphan:        o.Name,
				OrphanVersion: version,
				Other:         other,
				OtherVersion:  versions[other],
			})
		}
	}
	return pairs
}

// Render writes the human-readable report.
func (r *Report) Render(w io.Writer) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Reachable packages: %d\n\n", r.Reachable)

	if len(r.Orphans) == 0 {
		sb.WriteString("No orphaned packages found.\n")
	} else {
		sb.WriteString("Orphaned packages:\n")
		for _, o := range r.Orphans {
			fmt.Fprintf(&sb, "  %s\n", o)
		}
		sb.WriteString("\n")
		if len(r.Orphans) == 1 {
			sb.WriteString("Found 1 orphaned package.\n")
		} else {
			fmt.Fprintf(&sb, "Found %d orphaned packages.\n", len(r.Orphans))
		}
	}

	sb.WriteString("\n")
	if len(r.Stale) == 0 {
		sb.WriteString("No stale versions found.\n")
	} else {
		sb.WriteString("Possible stale versions:\n")
		for _, p := range r.Stale {
			fmt.Fprintf(&sb, "  %s\n", p)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// HeldCount returns how many orphans carry a hold.
func (r *Report) HeldCount() int {
	n := 0
	for _, o := range r.Orphans {
		if o.Held {
			n++
		}
	}
	return n
}
