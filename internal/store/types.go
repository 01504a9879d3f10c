package store

import "time"

// Dependency kinds recorded in the dependencies table.
const (
	KindPreDepends = "pre-depends"
	KindDepends    = "depends"
	KindRecommends = "recommends"
	KindSuggests   = "suggests"
)

// Dependency is a single relationship between two package names. Every
// alternative of an "a | b" group is recorded.
type Dependency struct {
	Package   string
	DependsOn string
	Kind      string
}

// Category is a section name with the number of packages indexed in it.
type Category struct {
	Name      string
	Count     int
	Installed int
}

// IndexInfo describes the last index run.
type IndexInfo struct {
	IndexedAt time.Time
	Installed int
	Available int
}
