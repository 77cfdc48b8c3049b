// Package htmlreport renders analysis reports as a standalone HTML page.
//
// The page holds one table per view with alternating rowodd/roweven rows.
// Archive names link to ../<ext>/<name>.html, where the extension path is
// built from the archive's nesting chain (web.jar inside app.ear links to
// ../ear/jar/web.jar.html). Suppressed findings are struck through and
// absent versions read "Not listed".
package htmlreport

import (
	"embed"
	"html/template"
	"io"
	"path"
	"strings"

	"github.com/Masterminds/sprig/v3"

	"github.com/matzehuels/jarscope/pkg/archive"
	"github.com/matzehuels/jarscope/pkg/render"
	"github.com/matzehuels/jarscope/pkg/render/tabular"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

//go:embed templates/*.html.tmpl
var templatesFS embed.FS

var pageTmpl = template.Must(
	template.New("report.html.tmpl").
		Funcs(sprig.HtmlFuncMap()).
		Funcs(template.FuncMap{
			"href":    Href,
			"version": render.VersionLabel,
		}).
		ParseFS(templatesFS, "templates/*.html.tmpl"),
)

// Options configures the page.
type Options struct {
	// Title is the page heading. Defaults to "jarscope report".
	Title string
	// View selects the tables to include.
	View render.View
	// Links turns archive names into links to per-archive pages.
	Links bool
	// GraphURL, when set, embeds the dependency graph image from that URL.
	GraphURL string
}

type page struct {
	Options
	Severity   string
	Summary    string
	DependsOn  []*resolve.DependsOnEntry
	Dependants []*resolve.DependantsEntry
	Conflicts  []*resolve.Conflict
	Show       map[string]bool
}

// Write renders r to w.
func Write(w io.Writer, r *resolve.Report, opts Options) error {
	if opts.Title == "" {
		opts.Title = "jarscope report"
	}
	if opts.View == "" {
		opts.View = render.ViewAll
	}
	p := page{
		Options:  opts,
		Severity: r.Severity.String(),
		Summary:  tabular.Summary(r),
		Show: map[string]bool{
			string(render.ViewDependsOn):  opts.View.Includes(render.ViewDependsOn),
			string(render.ViewDependants): opts.View.Includes(render.ViewDependants),
			string(render.ViewConflicts):  opts.View.Includes(render.ViewConflicts),
		},
	}
	for i := range r.DependsOn.Entries {
		p.DependsOn = append(p.DependsOn, &r.DependsOn.Entries[i])
	}
	for i := range r.Dependants.Entries {
		p.Dependants = append(p.Dependants, &r.Dependants.Entries[i])
	}
	for i := range r.Conflicts.Entries {
		p.Conflicts = append(p.Conflicts, &r.Conflicts.Entries[i])
	}
	return pageTmpl.Execute(w, p)
}

// Href returns the relative link to an archive's page.
func Href(a *archive.Archive) string {
	return "../" + Subpath(a) + "/" + a.Name() + ".html"
}

// Subpath joins the file extensions of a's nesting chain, outermost first.
func Subpath(a *archive.Archive) string {
	chain := archive.Path(a)
	exts := make([]string, len(chain))
	for i, name := range chain {
		exts[i] = strings.TrimPrefix(path.Ext(name), ".")
		if exts[i] == "" {
			exts[i] = name
		}
	}
	return strings.Join(exts, "/")
}
