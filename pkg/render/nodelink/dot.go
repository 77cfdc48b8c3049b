package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/jarscope/pkg/archive"
	"github.com/matzehuels/jarscope/pkg/render"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds location versions to archive labels and the satisfied
	// symbols to edge labels.
	Detailed bool
	// Unresolved draws unresolved requirements as dashed grey nodes.
	Unresolved bool
	// Nesting draws dotted containment edges from nestable archives to
	// their sub-archives.
	Nesting bool
}

// missingPrefix namespaces unresolved-symbol node IDs so they cannot collide
// with archive names.
const missingPrefix = "missing:"

// ToDOT converts a report to Graphviz DOT source. Archives become boxes and
// resolved Depends-On outcomes become edges from consumer to provider.
// Archives with a version conflict are outlined red.
func ToDOT(r *resolve.Report, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#555555\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, a := range r.Universe {
		_, conflict := r.Conflicts.Lookup(a.Name())
		fmt.Fprintf(&buf, "  %q [%s];\n", a.Name(), strings.Join(archiveAttrs(a, conflict, opts.Detailed), ", "))
	}

	missing := map[string]bool{}
	if opts.Unresolved {
		for _, e := range r.DependsOn.Entries {
			for _, o := range e.Unresolved() {
				sym := o.Symbol()
				if missing[sym] {
					continue
				}
				missing[sym] = true
				fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey, fontcolor=\"#333333\"];\n",
					missingPrefix+sym, sym)
			}
		}
	}

	buf.WriteString("\n")
	for _, e := range r.DependsOn.Entries {
		for _, o := range e.Outcomes {
			switch {
			case o.Resolved():
				if opts.Detailed {
					fmt.Fprintf(&buf, "  %q -> %q [label=%q, fontsize=10];\n", e.Archive.Name(), o.Provider.Name(), strings.Join(o.Symbols, "\n"))
				} else {
					fmt.Fprintf(&buf, "  %q -> %q;\n", e.Archive.Name(), o.Provider.Name())
				}
			case opts.Unresolved:
				attrs := "style=dashed, color=grey"
				if o.Suppressed {
					attrs = "style=dotted, color=lightgrey"
				}
				fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Archive.Name(), missingPrefix+o.Symbol(), attrs)
			}
		}
	}

	if opts.Nesting {
		for _, a := range r.Universe {
			for _, c := range a.SubArchives() {
				fmt.Fprintf(&buf, "  %q -> %q [style=dotted, arrowhead=odiamond, color=\"#999999\"];\n", a.Name(), c.Name())
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func archiveAttrs(a *archive.Archive, conflict, detailed bool) []string {
	label := a.Name()
	if detailed {
		var versions []string
		for _, l := range a.Locations() {
			versions = append(versions, render.VersionLabel(l.Version))
		}
		label += "\n" + strings.Join(versions, ", ")
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if a.IsNestable() {
		attrs = append(attrs, "shape=box3d")
	}
	if conflict {
		attrs = append(attrs, "color=red", "penwidth=2")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element with one whose
// viewBox starts at the origin, so browsers scale the graph consistently.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
