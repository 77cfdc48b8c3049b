// Package nodelink renders the resolved dependency graph as a node-link
// diagram.
//
// Archives are boxes (3D boxes for nestable archives) and each resolved
// Depends-On outcome is an arrow from consumer to provider. Archives with a
// version conflict are outlined red. Unresolved requirements can be drawn as
// dashed grey nodes, and containment as dotted edges.
//
//	dot := nodelink.ToDOT(report, nodelink.Options{Unresolved: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source is deterministic for a given report, which makes its hash
// a usable cache key for the rendered SVG.
//
// SVG rendering uses [github.com/goccy/go-graphviz], a WebAssembly build of
// Graphviz, so no system Graphviz installation is needed.
package nodelink
