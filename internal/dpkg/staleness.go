package dpkg

// Unindexed counts installed packages whose names are absent from indexed,
// the names recorded by the last index run. A non-zero count means the
// index predates an installation.
func (db *Database) Unindexed(indexed []string) int {
	known := make(map[string]struct{}, len(indexed))
	for _, name := range indexed {
		known[name] = struct{}{}
	}

	n := 0
	seen := make(map[string]bool)
	for _, pkg := range db.Packages() {
		if seen[pkg.Name] {
			continue
		}
		seen[pkg.Name] = true
		if _, ok := known[pkg.Name]; !ok {
			n++
		}
	}
	return n
}
