package output

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/blackwell-systems/aptscope/internal/store"
)

// ToDOT converts the reverse dependencies of root to Graphviz DOT format.
// Each dependent points at root; optional relationships are dashed.
func ToDOT(root string, deps []*store.Dependency) string {
	var buf bytes.Buffer
	buf.WriteString("digraph rdepends {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"sans-serif\"];\n")
	fmt.Fprintf(&buf, "  %q [fillcolor=lightblue];\n", root)
	buf.WriteString("\n")

	seen := make(map[string]bool)
	for _, d := range deps {
		key := d.Package + "\x00" + d.Kind
		if seen[key] {
			continue
		}
		seen[key] = true

		attrs := []string{fmt.Sprintf("label=%q", d.Kind)}
		if d.Kind == store.KindRecommends || d.Kind == store.KindSuggests {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", d.Package, root, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("failed to parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render SVG: %w", err)
	}
	return buf.Bytes(), nil
}
