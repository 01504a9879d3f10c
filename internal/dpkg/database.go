package dpkg

import (
	"sort"
	"strings"

	"github.com/blackwell-systems/aptscope/internal/control"
)

// Paths locates the local package metadata.
type Paths struct {
	StatusFile     string // /var/lib/dpkg/status
	ExtendedStates string // /var/lib/apt/extended_states
}

// DefaultPaths returns the standard Debian locations.
func DefaultPaths() Paths {
	return Paths{
		StatusFile:     "/var/lib/dpkg/status",
		ExtendedStates: "/var/lib/apt/extended_states",
	}
}

// Database is an in-memory view of the installed packages joined with
// apt's automatic-installation flags.
//
// Packages are keyed by bare name unless the same name is installed for
// several architectures, in which case every copy is keyed as name:arch.
type Database struct {
	keys     []string
	packages map[string]*Package
}

// LoadDatabase reads the status file and extended states at paths.
func LoadDatabase(paths Paths) (*Database, error) {
	pkgs, err := ReadStatus(paths.StatusFile)
	if err != nil {
		return nil, err
	}

	auto, err := ReadExtendedStates(paths.ExtendedStates)
	if err != nil {
		return nil, err
	}

	return NewDatabase(pkgs, auto), nil
}

// NewDatabase builds a Database from parsed status entries and the
// auto-installed set returned by ParseExtendedStates. Entries that are not
// in the "installed" state are ignored.
func NewDatabase(pkgs []*Package, auto map[string]bool) *Database {
	autoByName := make(map[string]bool, len(auto))
	for key := range auto {
		name, _, _ := strings.Cut(key, ":")
		autoByName[name] = true
	}

	counts := make(map[string]int)
	for _, pkg := range pkgs {
		if pkg.Installed {
			counts[pkg.Name]++
		}
	}

	db := &Database{packages: make(map[string]*Package)}
	for _, pkg := range pkgs {
		if !pkg.Installed {
			continue
		}

		switch {
		case auto[pkg.QualifiedName()], auto[pkg.Name]:
			pkg.Auto = true
		case pkg.Architecture == "all" && autoByName[pkg.Name]:
			pkg.Auto = true
		}

		key := pkg.Name
		if counts[pkg.Name] > 1 {
			key = pkg.QualifiedName()
		}
		db.packages[key] = pkg
		db.keys = append(db.keys, key)
	}

	sort.Strings(db.keys)
	return db
}

// Len returns the number of installed packages.
func (db *Database) Len() int {
	return len(db.keys)
}

// Get returns the package stored under key.
func (db *Database) Get(key string) (*Package, bool) {
	pkg, ok := db.packages[key]
	return pkg, ok
}

// Packages returns installed packages ordered by key.
func (db *Database) Packages() []*Package {
	out := make([]*Package, 0, len(db.keys))
	for _, key := range db.keys {
		out = append(out, db.packages[key])
	}
	return out
}

// Manual returns the keys of manually installed packages.
func (db *Database) Manual() []string {
	return db.filter(func(p *Package) bool { return !p.Auto })
}

// Automatic returns the keys of automatically installed packages.
func (db *Database) Automatic() []string {
	return db.filter(func(p *Package) bool { return p.Auto })
}

func (db *Database) filter(keep func(*Package) bool) []string {
	var out []string
	for _, key := range db.keys {
		if keep(db.packages[key]) {
			out = append(out, key)
		}
	}
	return out
}

// Holds returns the set of packages with a hold selection.
func (db *Database) Holds() map[string]bool {
	holds := make(map[string]bool)
	for _, key := range db.keys {
		if db.packages[key].Hold {
			holds[key] = true
		}
	}
	return holds
}

// Versions returns the installed version of every package.
func (db *Database) Versions() map[string]string {
	versions := make(map[string]string, len(db.keys))
	for _, key := range db.keys {
		versions[key] = db.packages[key].Version
	}
	return versions
}

// Dependencies returns, for every installed package, the first alternative
// of each Pre-Depends, Depends, Recommends and Suggests entry.
func (db *Database) Dependencies() map[string][]string {
	deps := make(map[string][]string, len(db.keys))
	for _, key := range db.keys {
		pkg := db.packages[key]

		var names []string
		for _, field := range []string{pkg.PreDepends, pkg.Depends, pkg.Recommends, pkg.Suggests} {
			names = append(names, control.FirstAlternatives(field)...)
		}
		deps[key] = names
	}
	return deps
}

// Providers maps names that do not identify a single installed package to
// the keys that satisfy them: virtual packages declared in Provides, and
// bare names of packages installed for several architectures.
func (db *Database) Providers() map[string][]string {
	providers := make(map[string][]string)
	for _, key := range db.keys {
		pkg := db.packages[key]

		if key != pkg.Name {
			providers[pkg.Name] = append(providers[pkg.Name], key)
		}
		for _, name := range control.FirstAlternatives(pkg.Provides) {
			if name == pkg.Name {
				continue
			}
			providers[name] = append(providers[name], key)
		}
	}
	return providers
}

