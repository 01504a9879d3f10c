// Package output provides terminal output utilities for aptscope.
//
// This package includes:
//   - Table rendering functions for packages, sections, reverse dependencies and history
//   - Spinners for indeterminate operations
//   - DOT and SVG rendering of reverse-dependency graphs
//   - Human-readable formatting for sizes, dates, and other data
//
// Styling is applied only when stdout is a terminal and NO_COLOR is unset.
// Spinners are thread-safe.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/aptscope/internal/dpkg"
	"github.com/blackwell-systems/aptscope/internal/history"
	"github.com/blackwell-systems/aptscope/internal/store"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorYellow = lipgloss.Color("220")
	colorGray   = lipgloss.Color("245")

	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHold   = lipgloss.NewStyle().Foreground(colorYellow)
	styleDim    = lipgloss.NewStyle().Foreground(colorGray)
)

// IsColorEnabled returns true if styled output should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// style renders text with s if color is enabled, otherwise returns the
// plain text.
func style(s lipgloss.Style, text string) string {
	if IsColorEnabled() {
		return s.Render(text)
	}
	return text
}

// Header renders a section heading.
func Header(text string) string {
	return style(styleHeader, text)
}

func rule(width int) string {
	return style(styleDim, strings.Repeat("─", width)) + "\n"
}

// StatusLabel describes how a package is installed.
func StatusLabel(pkg *dpkg.Package) string {
	switch {
	case !pkg.Installed:
		return "available"
	case pkg.Hold:
		return "hold"
	case pkg.Auto:
		return "auto"
	default:
		return "manual"
	}
}

func statusCell(pkg *dpkg.Package, width int) string {
	label := fmt.Sprintf("%-*s", width, StatusLabel(pkg))
	if pkg.Hold {
		return style(styleHold, label)
	}
	return label
}

// RenderPackageTable renders packages in the order given.
func RenderPackageTable(packages []*dpkg.Package) string {
	if len(packages) == 0 {
		return "No packages found.\n"
	}

	var sb strings.Builder

	sb.WriteString(Header(fmt.Sprintf("%-32s %-24s %-10s %s",
		"Package", "Version", "Status", "Description")))
	sb.WriteString("\n")
	sb.WriteString(rule(96))

	for _, pkg := range packages {
		sb.WriteString(fmt.Sprintf("%-32s %-24s %s %s\n",
			truncate(pkg.Name, 32),
			truncate(pkg.Version, 24),
			statusCell(pkg, 10),
			truncate(pkg.Synopsis, 60)))
	}

	return sb.String()
}

// RenderNames renders one package name per line.
func RenderNames(packages []*dpkg.Package) string {
	var sb strings.Builder
	for _, pkg := range packages {
		sb.WriteString(pkg.Name)
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderCategoryTable renders sections with their package counts.
func RenderCategoryTable(categories []*store.Category) string {
	if len(categories) == 0 {
		return "No sections found.\n"
	}

	var sb strings.Builder

	sb.WriteString(Header(fmt.Sprintf("%-24s %10s %10s", "Section", "Packages", "Installed")))
	sb.WriteString("\n")
	sb.WriteString(rule(46))

	for _, c := range categories {
		sb.WriteString(fmt.Sprintf("%-24s %10d %10d\n", truncate(c.Name, 24), c.Count, c.Installed))
	}

	return sb.String()
}

// dependencyFields is the display order of relationship kinds.
var dependencyFields = []struct {
	kind  string
	label string
}{
	{store.KindPreDepends, "Pre-Depends"},
	{store.KindDepends, "Depends"},
	{store.KindRecommends, "Recommends"},
	{store.KindSuggests, "Suggests"},
}

// RenderPackageInfo renders every indexed field of pkg followed by its
// relationships.
func RenderPackageInfo(pkg *dpkg.Package, deps []*store.Dependency) string {
	var sb strings.Builder

	field := func(name, value string) {
		if value == "" {
			return
		}
		sb.WriteString(fmt.Sprintf("%-16s %s\n", name+":", value))
	}

	sb.WriteString(Header(pkg.Name))
	sb.WriteString("\n")
	field("Version", pkg.Version)
	field("Architecture", pkg.Architecture)
	field("Status", StatusLabel(pkg))
	field("Section", pkg.Section)
	field("Priority", pkg.Priority)
	if pkg.InstalledSize > 0 {
		field("Installed-Size", formatSize(pkg.InstalledSize*1024))
	}
	field("Maintainer", pkg.Maintainer)
	field("Homepage", pkg.Homepage)
	field("Source", pkg.Source)

	byKind := make(map[string][]string)
	for _, d := range deps {
		byKind[d.Kind] = append(byKind[d.Kind], d.DependsOn)
	}
	for _, f := range dependencyFields {
		field(f.label, strings.Join(byKind[f.kind], ", "))
	}

	if pkg.Synopsis != "" {
		sb.WriteString("\n")
		sb.WriteString(pkg.Synopsis)
		sb.WriteString("\n")
	}
	if pkg.Description != "" {
		for _, line := range strings.Split(pkg.Description, "\n") {
			sb.WriteString("  ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// RenderDependents renders the packages that declare a relationship on name.
func RenderDependents(name string, deps []*store.Dependency) string {
	if len(deps) == 0 {
		return fmt.Sprintf("No packages depend on %s.\n", name)
	}

	var sb strings.Builder
	sb.WriteString(Header(fmt.Sprintf("Reverse dependencies of %s:", name)))
	sb.WriteString("\n")
	for _, d := range deps {
		sb.WriteString(fmt.Sprintf("  %-32s %s\n", d.Package, style(styleDim, d.Kind)))
	}
	sb.WriteString(fmt.Sprintf("\n%d %s\n", len(deps), plural(len(deps), "dependent", "dependents")))

	return sb.String()
}

// RenderHistory renders history events in the order given.
func RenderHistory(events []history.Event) string {
	if len(events) == 0 {
		return "No installation history found.\n"
	}

	var sb strings.Builder

	sb.WriteString(Header(fmt.Sprintf("%-17s %-10s %-32s %s", "Date", "Action", "Package", "Version")))
	sb.WriteString("\n")
	sb.WriteString(rule(84))

	for _, ev := range events {
		version := ev.Version
		if ev.OldVersion != "" {
			version = ev.OldVersion + " → " + ev.Version
		}
		name := ev.Package
		if ev.Automatic {
			name += " (auto)"
		}

		sb.WriteString(fmt.Sprintf("%-17s %-10s %-32s %s\n",
			ev.Time.Format("2006-01-02 15:04"),
			ev.Action,
			truncate(name, 32),
			version))
	}

	return sb.String()
}

// RenderIndexInfo renders a one-line summary of the local index.
func RenderIndexInfo(info *store.IndexInfo) string {
	return fmt.Sprintf("Indexed %d installed and %d available %s (%s)\n",
		info.Installed,
		info.Available,
		plural(info.Installed+info.Available, "package", "packages"),
		formatRelativeTime(info.IndexedAt))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatSize converts bytes to human-readable size (GB, MB, KB).
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.0f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.0f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return ago(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return ago(int(diff.Hours()), "hour")
	case diff < 30*24*time.Hour:
		return ago(int(diff.Hours()/24), "day")
	case diff < 365*24*time.Hour:
		return ago(int(diff.Hours()/24/30), "month")
	default:
		return ago(int(diff.Hours()/24/365), "year")
	}
}

func ago(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
