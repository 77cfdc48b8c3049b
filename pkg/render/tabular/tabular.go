// Package tabular renders analysis reports as text, markdown or CSV tables.
package tabular

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/matzehuels/jarscope/pkg/render"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

// Options configures table output.
type Options struct {
	// Style is render.FormatText, render.FormatMarkdown or render.FormatCSV.
	Style string
	// View selects the tables to write.
	View render.View
}

// Write renders the selected views of r to w.
func Write(w io.Writer, r *resolve.Report, opts Options) error {
	if opts.View == "" {
		opts.View = render.ViewAll
	}
	if err := render.ValidateFormat(opts.Style, []string{render.FormatText, render.FormatMarkdown, render.FormatCSV}); err != nil {
		return err
	}

	var sections []section
	if opts.View.Includes(render.ViewDependsOn) {
		sections = append(sections, section{"Depends On", dependsOnTable(r, opts.Style)})
	}
	if opts.View.Includes(render.ViewDependants) {
		sections = append(sections, section{"Dependants", dependantsTable(r, opts.Style)})
	}
	if opts.View.Includes(render.ViewConflicts) {
		sections = append(sections, section{"Eliminate Jars", conflictsTable(r, opts.Style)})
	}

	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		switch opts.Style {
		case render.FormatMarkdown:
			fmt.Fprintf(&b, "## %s\n\n%s\n", s.title, s.table.RenderMarkdown())
		case render.FormatCSV:
			fmt.Fprintf(&b, "%s\n", s.table.RenderCSV())
		default:
			s.table.SetStyle(table.StyleRounded)
			s.table.SetTitle(s.title)
			fmt.Fprintf(&b, "%s\n", s.table.Render())
		}
	}
	if opts.Style != render.FormatCSV {
		fmt.Fprintf(&b, "\n%s\n", Summary(r))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Summary returns a one-line description of the report's findings.
func Summary(r *resolve.Report) string {
	c := r.Counts()
	return fmt.Sprintf("Severity: %s (%d archives, %d unresolved, %d conflicts, %d suppressed)",
		r.Severity, len(r.Universe), c.Unresolved, c.Conflicts, c.Suppressed)
}

type section struct {
	title string
	table table.Writer
}

func dependsOnTable(r *resolve.Report, style string) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Archive", "Depends On"})
	for _, e := range r.DependsOn.Entries {
		items := make([]string, 0, len(e.Outcomes))
		for _, o := range e.Outcomes {
			item := o.String()
			if o.Suppressed {
				item = markSuppressed(item, style)
			}
			items = append(items, item)
		}
		t.AppendRow(table.Row{e.Archive.Name(), joinCell(items, style)})
	}
	return t
}

func dependantsTable(r *resolve.Report, style string) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Archive", "Dependants"})
	for _, e := range r.Dependants.Entries {
		names := make([]string, len(e.Consumers))
		for i, c := range e.Consumers {
			names[i] = c.Name()
		}
		t.AppendRow(table.Row{e.Archive.Name(), joinCell(names, style)})
	}
	return t
}

func conflictsTable(r *resolve.Report, style string) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Archive", "Location", "Version"})
	for _, c := range r.Conflicts.Entries {
		name := c.Archive.Name()
		if c.Suppressed {
			name = markSuppressed(name, style)
		}
		for _, l := range c.Locations {
			t.AppendRow(table.Row{name, l.Filename, render.VersionLabel(l.Version)})
		}
	}
	if style == render.FormatText {
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
	}
	return t
}

func markSuppressed(s, style string) string {
	if style == render.FormatMarkdown {
		return "~~" + s + "~~"
	}
	return s + " (suppressed)"
}

func joinCell(items []string, style string) string {
	if len(items) == 0 {
		return render.Placeholder
	}
	if style == render.FormatText {
		return strings.Join(items, "\n")
	}
	return strings.Join(items, ", ")
}
