package dpkg

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/blackwell-systems/aptscope/internal/control"
)

// ReadStatus parses the dpkg status file at path.
// Every paragraph is returned; use Package.Installed to filter.
func ReadStatus(path string) ([]*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open status file: %w", err)
	}
	defer f.Close()

	return ParseStatus(f)
}

// ParseStatus parses status-file formatted data from r.
func ParseStatus(r io.Reader) ([]*Package, error) {
	paragraphs, err := control.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return FromParagraphs(paragraphs), nil
}

// FromParagraphs converts control paragraphs into packages. Paragraphs
// without a Package field are skipped.
func FromParagraphs(paragraphs []control.Paragraph) []*Package {
	packages := make([]*Package, 0, len(paragraphs))
	for _, p := range paragraphs {
		if pkg := packageFromParagraph(p); pkg != nil {
			packages = append(packages, pkg)
		}
	}
	return packages
}

func packageFromParagraph(p control.Paragraph) *Package {
	name := p.Get("Package")
	if name == "" {
		return nil
	}

	pkg := &Package{
		Name:         name,
		Architecture: p.Get("Architecture"),
		Version:      p.Get("Version"),
		Section:      p.Get("Section"),
		Priority:     p.Get("Priority"),
		Maintainer:   p.Get("Maintainer"),
		Homepage:     p.Get("Homepage"),
		Source:       p.Get("Source"),
		Status:       p.Get("Status"),
		Depends:      p.Get("Depends"),
		PreDepends:   p.Get("Pre-Depends"),
		Recommends:   p.Get("Recommends"),
		Suggests:     p.Get("Suggests"),
		Provides:     p.Get("Provides"),
	}

	if size := p.Get("Installed-Size"); size != "" {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil {
			pkg.InstalledSize = n
		}
	}

	desc := p.Get("Description")
	if i := strings.IndexByte(desc, '\n'); i >= 0 {
		pkg.Synopsis = desc[:i]
		pkg.Description = desc[i+1:]
	} else {
		pkg.Synopsis = desc
	}

	// Status: <want> <flag> <state>
	if fields := strings.Fields(pkg.Status); len(fields) == 3 {
		pkg.Want = fields[0]
		pkg.State = fields[2]
		pkg.Installed = fields[2] == "installed"
		pkg.Hold = fields[0] == "hold"
	}

	return pkg
}

// ReadExtendedStates parses apt's extended_states file and returns the set
// of automatically installed packages keyed by "name:arch". Entries without
// an Architecture field are keyed by bare name. A missing file yields an
// empty set.
func ReadExtendedStates(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to open extended states: %w", err)
	}
	defer f.Close()

	return ParseExtendedStates(f)
}

// ParseExtendedStates parses extended_states formatted data from r.
func ParseExtendedStates(r io.Reader) (map[string]bool, error) {
	paragraphs, err := control.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extended states: %w", err)
	}

	auto := make(map[string]bool)
	for _, p := range paragraphs {
		name := p.Get("Package")
		if name == "" || strings.TrimSpace(p.Get("Auto-Installed")) != "1" {
			continue
		}
		if arch := p.Get("Architecture"); arch != "" {
			auto[name+":"+arch] = true
		} else {
			auto[name] = true
		}
	}
	return auto, nil
}
