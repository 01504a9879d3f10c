// Package orphan finds automatically installed packages that no manually
// installed package still needs.
//
// The dependency graph is built once from (package, dependency) edges and
// walked breadth-first from the manual set. Automatic packages outside the
// reachable set that do not match a core-system pattern are orphans.
//
// Example usage:
//
//	report := orphan.Detect(orphan.Inputs{
//		Manual:    db.Manual(),
//		Automatic: db.Automatic(),
//		Edges:     orphan.EdgesFrom(db.Dependencies()),
//		Versions:  db.Versions(),
//		Holds:     db.Holds(),
//		Core:      orphan.DefaultCorePatterns(),
//	})
//	report.Render(os.Stdout)
package orphan

import "sort"

// Edge is a directed dependency: From requires To.
type Edge struct {
	From string
	To   string
}

// EdgesFrom flattens a package -> dependencies map into an edge list,
// ordered by package name.
func EdgesFrom(deps map[string][]string) []Edge {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var edges []Edge
	for _, name := range names {
		for _, dep := range deps[name] {
			edges = append(edges, Edge{From: name, To: dep})
		}
	}
	return edges
}

// Set is a set of package names.
type Set map[string]struct{}

// Has reports whether name is a member.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Graph is an immutable adjacency list keyed by package name.
type Graph struct {
	adj       map[string][]string
	providers map[string][]string
}

// NewGraph builds a graph from edges. Duplicate edges and self loops are
// dropped. providers maps a name to additional packages that satisfy it
// (virtual packages, multi-arch copies); it may be nil.
func NewGraph(edges []Edge, providers map[string][]string) *Graph {
	g := &Graph{
		adj:       make(map[string][]string),
		providers: make(map[string][]string, len(providers)),
	}

	seen := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		if e.From == e.To || seen[e] {
			continue
		}
		seen[e] = true
		g.adj[e.From] = append(g.adj[e.From], e.To)
	}

	for name, keys := range providers {
		g.providers[name] = append([]string(nil), keys...)
	}

	return g
}

// Dependencies returns the direct dependencies of name.
func (g *Graph) Dependencies(name string) []string {
	return g.adj[name]
}

// Reachable returns every name reachable from roots, roots included.
// The walk is breadth-first over a work queue, so each vertex and edge is
// visited once.
func (g *Graph) Reachable(roots []string) Set {
	reached := make(Set, len(roots))
	queue := make([]string, 0, len(roots))

	visit := func(name string) {
		if reached.Has(name) {
			return
		}
		reached[name] = struct{}{}
		queue = append(queue, name)
	}

	for _, root := range roots {
		visit(root)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		for _, dep := range g.adj[name] {
			visit(dep)
		}
		for _, p := range g.providers[name] {
			visit(p)
		}
	}

	return reached
}
