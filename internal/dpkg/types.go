package dpkg

import "strings"

// Package is a single entry from the dpkg status file or the apt cache.
type Package struct {
	Name          string
	Architecture  string
	Version       string
	Section       string
	Priority      string
	Maintainer    string
	Homepage      string
	Source        string
	InstalledSize int64 // KiB, as recorded by dpkg
	Synopsis      string
	Description   string // long description, may be empty

	Want   string // "install", "hold", "deinstall", "purge"
	State  string // "installed", "config-files", ...
	Status string // raw Status field

	Depends    string
	PreDepends string
	Recommends string
	Suggests   string
	Provides   string

	Installed bool
	Auto      bool // marked automatically installed in extended_states
	Hold      bool
}

// QualifiedName returns name:arch, or the bare name for arch-less entries.
func (p *Package) QualifiedName() string {
	if p.Architecture == "" {
		return p.Name
	}
	return p.Name + ":" + p.Architecture
}

// Category returns the Section with any archive area prefix removed,
// e.g. "universe/python" -> "python".
func (p *Package) Category() string {
	return SectionCategory(p.Section)
}

// SectionCategory strips the archive area ("main", "contrib", "non-free",
// "universe", ...) from a Section value.
func SectionCategory(section string) string {
	if i := strings.LastIndexByte(section, '/'); i >= 0 {
		return section[i+1:]
	}
	return section
}

// Origin returns "automatic" or "manual" for installed packages.
func (p *Package) Origin() string {
	if p.Auto {
		return "automatic"
	}
	return "manual"
}

// AutoremoveCandidate is a package apt would remove with autoremove.
type AutoremoveCandidate struct {
	Name    string
	Version string
}
