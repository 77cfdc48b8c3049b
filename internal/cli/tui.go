package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/jarscope/pkg/archive"
	"github.com/matzehuels/jarscope/pkg/render"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	detailHeadStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	suppressedStyle = lipgloss.NewStyle().Foreground(colorDim).Strikethrough(true)
	missingStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// ReportModel - Interactive report browser
// =============================================================================

// ReportModel is the bubbletea model for browsing an analysis report: a
// scrollable archive table with a detail pane for the selected archive.
type ReportModel struct {
	Report *resolve.Report
	Title  string
	Cursor int
	Height int
	Offset int
	// Findings restricts the list to archives with unresolved requirements
	// or version conflicts.
	Findings bool

	rows []*archive.Archive
}

// NewReportModel creates a report browser over r.
func NewReportModel(r *resolve.Report, title string) ReportModel {
	m := ReportModel{Report: r, Title: title, Height: 15}
	m.rows = m.visible()
	return m
}

// Selected returns the archive under the cursor, or nil when the list is empty.
func (m ReportModel) Selected() *archive.Archive {
	if m.Cursor < 0 || m.Cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.Cursor]
}

func (m ReportModel) visible() []*archive.Archive {
	if !m.Findings {
		return m.Report.Universe
	}
	var out []*archive.Archive
	for _, a := range m.Report.Universe {
		if m.hasFindings(a) {
			out = append(out, a)
		}
	}
	return out
}

func (m ReportModel) hasFindings(a *archive.Archive) bool {
	if _, ok := m.Report.Conflicts.Lookup(a.Name()); ok {
		return true
	}
	outcomes, _ := m.Report.DependsOn.Lookup(a.Name())
	for _, o := range outcomes {
		if !o.Resolved() {
			return true
		}
	}
	return false
}

func (m ReportModel) Init() tea.Cmd {
	return nil
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown":
			m.move(m.Height)
		case "home", "g":
			m.move(-len(m.rows))
		case "end", "G":
			m.move(len(m.rows))
		case "f":
			m.Findings = !m.Findings
			m.rows = m.visible()
			m.Cursor, m.Offset = 0, 0
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 14
		if m.Height < 5 {
			m.Height = 5
		}
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta and keeps it inside the scroll window.
func (m *ReportModel) move(delta int) {
	m.Cursor = max(0, min(m.Cursor+delta, len(m.rows)-1))
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m ReportModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("  ")
	b.WriteString(severityStyle(m.Report.Severity).Render(m.Report.Severity.String()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  f findings only  q quit"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(StyleSuccess.Render("  No findings."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.listView())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.rows))))
	b.WriteString("\n\n")
	b.WriteString(m.detailView(m.Selected()))

	return b.String()
}

func (m ReportModel) listView() string {
	end := min(m.Offset+m.Height, len(m.rows))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		a := m.rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		outcomes, _ := m.Report.DependsOn.Lookup(a.Name())
		consumers, _ := m.Report.Dependants.Lookup(a.Name())
		rows = append(rows, []string{
			cursor,
			a.Name(),
			a.Kind().String(),
			fmt.Sprint(len(outcomes)),
			fmt.Sprint(len(consumers)),
			m.status(a),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Archive", "Type", "Depends On", "Dependants", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 2 || col == 3 || col == 4 {
				base = base.Foreground(colorGray)
			}
			if idx == m.Cursor {
				base = base.Bold(true)
				if col == 1 {
					base = base.Foreground(colorCyan)
				}
			}
			return base
		})

	return t.Render()
}

// status summarizes the findings of a for the list.
func (m ReportModel) status(a *archive.Archive) string {
	var parts []string
	if c, ok := m.Report.Conflicts.Lookup(a.Name()); ok {
		if c.Suppressed {
			parts = append(parts, "conflict (suppressed)")
		} else {
			parts = append(parts, "conflict")
		}
	}
	outcomes, _ := m.Report.DependsOn.Lookup(a.Name())
	missing := 0
	for _, o := range outcomes {
		if !o.Resolved() && !o.Suppressed {
			missing++
		}
	}
	if missing > 0 {
		parts = append(parts, fmt.Sprintf("%d unresolved", missing))
	}
	if len(parts) == 0 {
		return "ok"
	}
	return strings.Join(parts, ", ")
}

func (m ReportModel) detailView(a *archive.Archive) string {
	if a == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(StyleTitle.Render(a.Name()))
	b.WriteString(listDimStyle.Render(" (" + a.Kind().String() + ")"))
	b.WriteString("\n")

	b.WriteString(detailHeadStyle.Render("Depends On: "))
	outcomes, _ := m.Report.DependsOn.Lookup(a.Name())
	items := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		switch {
		case o.Resolved():
			items = append(items, StyleValue.Render(o.Provider.Name()))
		case o.Suppressed:
			items = append(items, suppressedStyle.Render(o.Symbol()))
		default:
			items = append(items, missingStyle.Render(o.Symbol()))
		}
	}
	b.WriteString(joinOrNone(items))
	b.WriteString("\n")

	b.WriteString(detailHeadStyle.Render("Dependants: "))
	consumers, _ := m.Report.Dependants.Lookup(a.Name())
	names := make([]string, len(consumers))
	for i, c := range consumers {
		names[i] = StyleValue.Render(c.Name())
	}
	b.WriteString(joinOrNone(names))
	b.WriteString("\n")

	if c, ok := m.Report.Conflicts.Lookup(a.Name()); ok {
		head := "Eliminate: "
		if c.Suppressed {
			head = "Eliminate (suppressed): "
		}
		b.WriteString(detailHeadStyle.Render(head))
		locs := make([]string, len(c.Locations))
		for i, l := range c.Locations {
			locs[i] = StyleValue.Render(l.Filename) + " " + StyleWarning.Render(render.VersionLabel(l.Version))
		}
		b.WriteString(strings.Join(locs, listDimStyle.Render(", ")))
		b.WriteString("\n")
	}

	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return listDimStyle.Render("none")
	}
	return strings.Join(items, listDimStyle.Render(", "))
}
