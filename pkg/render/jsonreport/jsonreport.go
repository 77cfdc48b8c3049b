// Package jsonreport renders analysis reports as a stable JSON document.
//
// The document carries no timestamps or run identifiers, so the same
// inventory and configuration always produce byte-identical output.
package jsonreport

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/jarscope/pkg/archive"
	"github.com/matzehuels/jarscope/pkg/render"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

// Document is the JSON form of a report. A view that was not selected is
// nil and left out; a selected view is always present, even when empty.
type Document struct {
	Severity   resolve.Severity  `json:"severity"`
	Profiles   []string          `json:"profiles"`
	Summary    Summary           `json:"summary"`
	Archives   []Archive         `json:"archives,omitzero"`
	DependsOn  []DependsOnEntry  `json:"depends_on,omitzero"`
	Dependants []DependantsEntry `json:"dependants,omitzero"`
	Conflicts  []Conflict        `json:"conflicts,omitzero"`
}

// Summary counts the findings of a report.
type Summary struct {
	Archives   int              `json:"archives"`
	Unresolved int              `json:"unresolved"`
	Conflicts  int              `json:"conflicts"`
	Suppressed int              `json:"suppressed"`
	DependsOn  resolve.Severity `json:"depends_on_severity"`
	Dependants resolve.Severity `json:"dependants_severity"`
	Eliminate  resolve.Severity `json:"conflicts_severity"`
}

// Archive describes one member of the analyzed universe.
type Archive struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Path      []string   `json:"path"`
	Locations []Location `json:"locations"`
	Provides  []string   `json:"provides"`
	Requires  []string   `json:"requires"`
}

// Location is one occurrence of an archive. Version is omitted when the
// inventory does not list one.
type Location struct {
	Filename string `json:"filename"`
	Version  string `json:"version,omitempty"`
}

// Outcome is one Depends-On result: Archive is set for resolved outcomes,
// Missing for unresolved ones.
type Outcome struct {
	Archive    string   `json:"archive,omitempty"`
	Symbols    []string `json:"symbols,omitempty"`
	Missing    string   `json:"missing,omitempty"`
	Suppressed bool     `json:"suppressed,omitempty"`
}

// DependsOnEntry lists the outcomes of one archive.
type DependsOnEntry struct {
	Archive  string    `json:"archive"`
	Outcomes []Outcome `json:"outcomes"`
}

// DependantsEntry lists the consumers of one archive.
type DependantsEntry struct {
	Archive    string   `json:"archive"`
	Dependants []string `json:"dependants"`
}

// Conflict lists the diverging locations of one archive.
type Conflict struct {
	Archive    string     `json:"archive"`
	Locations  []Location `json:"locations"`
	Suppressed bool       `json:"suppressed,omitempty"`
}

// Build converts the selected views of r into a document.
func Build(r *resolve.Report, view render.View) *Document {
	if view == "" {
		view = render.ViewAll
	}
	doc := &Document{
		Severity: r.Severity,
		Profiles: r.Profiles,
		Summary:  summarize(r),
	}
	if doc.Profiles == nil {
		doc.Profiles = []string{}
	}
	if view == render.ViewAll {
		doc.Archives = make([]Archive, 0, len(r.Universe))
		for _, a := range r.Universe {
			doc.Archives = append(doc.Archives, ArchiveOf(a))
		}
	}
	if view.Includes(render.ViewDependsOn) {
		doc.DependsOn = make([]DependsOnEntry, 0, len(r.DependsOn.Entries))
		for _, e := range r.DependsOn.Entries {
			doc.DependsOn = append(doc.DependsOn, DependsOnEntry{Archive: e.Archive.Name(), Outcomes: Outcomes(e.Outcomes)})
		}
	}
	if view.Includes(render.ViewDependants) {
		doc.Dependants = make([]DependantsEntry, 0, len(r.Dependants.Entries))
		for _, e := range r.Dependants.Entries {
			doc.Dependants = append(doc.Dependants, DependantsEntry{Archive: e.Archive.Name(), Dependants: Names(e.Consumers)})
		}
	}
	if view.Includes(render.ViewConflicts) {
		doc.Conflicts = Conflicts(r.Conflicts)
	}
	return doc
}

// Write renders the selected views of r to w as indented JSON.
func Write(w io.Writer, r *resolve.Report, view render.View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Build(r, view))
}

// ArchiveOf converts an archive.
func ArchiveOf(a *archive.Archive) Archive {
	return Archive{
		Name:      a.Name(),
		Type:      a.Kind().String(),
		Path:      archive.Path(a),
		Locations: locations(a.Locations()),
		Provides:  nonNil(a.Provides()),
		Requires:  nonNil(archive.Requires(a)),
	}
}

// Outcomes converts Depends-On outcomes. The result is never nil.
func Outcomes(os []resolve.Outcome) []Outcome {
	out := make([]Outcome, 0, len(os))
	for _, o := range os {
		if o.Resolved() {
			out = append(out, Outcome{Archive: o.Provider.Name(), Symbols: o.Symbols})
		} else {
			out = append(out, Outcome{Missing: o.Symbol(), Suppressed: o.Suppressed})
		}
	}
	return out
}

// Names returns archive names. The result is never nil.
func Names(as []*archive.Archive) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name()
	}
	return out
}

// Conflicts converts the conflict view. The result is never nil.
func Conflicts(c *resolve.Conflicts) []Conflict {
	out := make([]Conflict, 0, len(c.Entries))
	for _, e := range c.Entries {
		out = append(out, Conflict{Archive: e.Archive.Name(), Locations: locations(e.Locations), Suppressed: e.Suppressed})
	}
	return out
}

func locations(ls []archive.Location) []Location {
	out := make([]Location, len(ls))
	for i, l := range ls {
		out[i] = Location{Filename: l.Filename, Version: l.Version}
	}
	return out
}

func summarize(r *resolve.Report) Summary {
	c := r.Counts()
	return Summary{
		Archives:   len(r.Universe),
		Unresolved: c.Unresolved,
		Conflicts:  c.Conflicts,
		Suppressed: c.Suppressed,
		DependsOn:  r.DependsOn.Severity,
		Dependants: r.Dependants.Severity,
		Eliminate:  r.Conflicts.Severity,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
