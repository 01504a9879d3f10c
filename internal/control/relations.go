package control

import "strings"

// Relation is one entry of a relationship field such as Depends:
//
//	libc6:any (>= 2.34) [amd64] <!nocheck>
//
// Architecture restrictions and build profiles are discarded.
type Relation struct {
	Name       string
	Arch       string // qualifier after ':', e.g. "any"
	Constraint string // text inside the parentheses, e.g. ">= 2.34"
}

// Group is a list of alternatives separated by '|'. Any one of them
// satisfies the relation.
type Group []Relation

// SplitTopLevel splits s on commas that are not nested inside parentheses
// and trims whitespace from each element. Empty elements are dropped.
//
//	SplitTopLevel("foo (>= 1.0, < 2.0), bar") == []string{"foo (>= 1.0, < 2.0)", "bar"}
func SplitTopLevel(s string) []string {
	return splitDepth(s, ',')
}

func splitDepth(s string, sep byte) []string {
	var (
		parts []string
		depth int
		start int
	)

	emit := func(end int) {
		if part := strings.TrimSpace(s[start:end]); part != "" {
			parts = append(parts, part)
		}
	}

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				emit(i)
				start = i + 1
			}
		}
	}
	emit(len(s))

	return parts
}

// ParseRelation parses a single relation entry.
func ParseRelation(s string) Relation {
	s = strings.TrimSpace(s)

	var rel Relation
	if open := strings.IndexByte(s, '('); open >= 0 {
		if end := strings.IndexByte(s[open:], ')'); end >= 0 {
			rel.Constraint = strings.TrimSpace(s[open+1 : open+end])
		} else {
			rel.Constraint = strings.TrimSpace(s[open+1:])
		}
	}

	name := s
	if i := strings.IndexAny(name, " \t([<"); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, ':'); i >= 0 {
		rel.Arch = name[i+1:]
		name = name[:i]
	}
	rel.Name = name

	return rel
}

// ParseRelations parses a full relationship field into its groups.
func ParseRelations(field string) []Group {
	var groups []Group
	for _, entry := range SplitTopLevel(field) {
		var g Group
		for _, alt := range splitDepth(entry, '|') {
			if rel := ParseRelation(alt); rel.Name != "" {
				g = append(g, rel)
			}
		}
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// FirstAlternatives returns, for each group in field, the name of its first
// alternative with version constraints and architecture qualifiers removed.
func FirstAlternatives(field string) []string {
	groups := ParseRelations(field)
	if len(groups) == 0 {
		return nil
	}

	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g[0].Name)
	}
	return names
}
