// Package render names the views and output formats shared by the report
// renderers.
//
// Each subpackage turns a [resolve.Report] into one family of outputs:
//
//   - [tabular]: text, markdown and CSV tables via go-pretty
//   - [jsonreport]: a stable JSON document
//   - [htmlreport]: a standalone HTML page
//   - [nodelink]: Graphviz DOT and SVG diagrams of the resolved graph
//
// Renderers never change results; suppressed findings are shown and marked.
//
// [resolve.Report]: github.com/matzehuels/jarscope/pkg/resolve#Report
// [tabular]: github.com/matzehuels/jarscope/pkg/render/tabular
// [jsonreport]: github.com/matzehuels/jarscope/pkg/render/jsonreport
// [htmlreport]: github.com/matzehuels/jarscope/pkg/render/htmlreport
// [nodelink]: github.com/matzehuels/jarscope/pkg/render/nodelink
package render
