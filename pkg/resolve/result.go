package resolve

import (
	"strings"

	"github.com/matzehuels/jarscope/pkg/archive"
)

// Outcome is one entry of an archive's Depends-On result: either a provider
// archive satisfying one or more requirements, or a requirement symbol that
// nothing satisfied.
type Outcome struct {
	// Provider is the archive chosen for the requirements in Symbols.
	// Nil for unresolved outcomes.
	Provider *archive.Archive
	// Symbols are the requirements resolved to Provider, sorted.
	// For unresolved outcomes it holds the single missing symbol.
	Symbols []string
	// Suppressed marks unresolved outcomes whitelisted by the filter policy.
	Suppressed bool
}

// Resolved reports whether the outcome names a provider archive.
func (o Outcome) Resolved() bool { return o.Provider != nil }

// Symbol returns the missing symbol of an unresolved outcome, or the
// provider name of a resolved one.
func (o Outcome) Symbol() string {
	if o.Provider != nil {
		return o.Provider.Name()
	}
	if len(o.Symbols) == 0 {
		return ""
	}
	return o.Symbols[0]
}

// String returns the text a renderer shows for the outcome.
func (o Outcome) String() string { return o.Symbol() }

// compareOutcomes sorts resolved outcomes before unresolved ones; resolved
// outcomes by provider name and unresolved outcomes by symbol text.
func compareOutcomes(a, b Outcome) int {
	switch {
	case a.Resolved() && b.Resolved():
		return archive.Compare(a.Provider, b.Provider)
	case a.Resolved():
		return -1
	case b.Resolved():
		return 1
	default:
		return strings.Compare(a.Symbol(), b.Symbol())
	}
}

// DependsOnEntry holds the Depends-On outcomes of one archive.
type DependsOnEntry struct {
	Archive  *archive.Archive
	Outcomes []Outcome
}

// Unresolved returns the unresolved outcomes of the entry.
func (e DependsOnEntry) Unresolved() []Outcome {
	var out []Outcome
	for _, o := range e.Outcomes {
		if !o.Resolved() {
			out = append(out, o)
		}
	}
	return out
}

// DependsOn is the consumer-centric view of the resolved dependency graph.
// Entries follow the flattened universe order.
type DependsOn struct {
	Entries  []DependsOnEntry
	Severity Severity

	index map[string]int
}

// Lookup returns the outcomes of the named archive.
func (d *DependsOn) Lookup(name string) ([]Outcome, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Entries[i].Outcomes, true
}

// Map returns the outcomes keyed by archive name.
func (d *DependsOn) Map() map[string][]Outcome {
	m := make(map[string][]Outcome, len(d.Entries))
	for _, e := range d.Entries {
		m[e.Archive.Name()] = e.Outcomes
	}
	return m
}

// DependantsEntry holds the consumers of one provider archive.
// An empty Consumers slice is the explicit "no dependants" marker.
type DependantsEntry struct {
	Archive   *archive.Archive
	Consumers []*archive.Archive
}

// Dependants is the provider-centric view of the resolved dependency graph.
// Its severity is always [SeverityInfo].
type Dependants struct {
	Entries  []DependantsEntry
	Severity Severity

	index map[string]int
}

// Lookup returns the consumers of the named archive.
func (d *Dependants) Lookup(name string) ([]*archive.Archive, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Entries[i].Consumers, true
}

// Map returns consumer names keyed by provider name.
func (d *Dependants) Map() map[string][]string {
	m := make(map[string][]string, len(d.Entries))
	for _, e := range d.Entries {
		names := make([]string, len(e.Consumers))
		for i, c := range e.Consumers {
			names[i] = c.Name()
		}
		m[e.Archive.Name()] = names
	}
	return m
}

// Conflict is an archive whose locations carry divergent versions.
// Locations lists every occurrence, not only the divergent ones.
type Conflict struct {
	Archive    *archive.Archive
	Locations  []archive.Location
	Suppressed bool
}

// Conflicts holds the "eliminate candidates" of an analysis.
type Conflicts struct {
	Entries  []Conflict
	Severity Severity
}

// Lookup returns the conflict entry of the named archive, if flagged.
func (c *Conflicts) Lookup(name string) (Conflict, bool) {
	for _, e := range c.Entries {
		if e.Archive.Name() == name {
			return e, true
		}
	}
	return Conflict{}, false
}

// Report bundles the three views of one analysis run.
type Report struct {
	// Universe is the flattened, name-ordered archive set the views cover.
	Universe   []*archive.Archive
	DependsOn  *DependsOn
	Dependants *Dependants
	Conflicts  *Conflicts
	// Severity is the maximum of the view severities.
	Severity Severity
	// Profiles names the profiles consulted for fallback resolution.
	Profiles []string
}

// Archive returns the universe member with the given name.
func (r *Report) Archive(name string) (*archive.Archive, bool) {
	for _, a := range r.Universe {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// Edge is one resolved dependency between two archives of the universe.
type Edge struct {
	From, To string
	Symbols  []string
}

// Edges returns the resolved Depends-On edges in universe order.
func (r *Report) Edges() []Edge {
	var out []Edge
	for _, e := range r.DependsOn.Entries {
		for _, o := range e.Outcomes {
			if o.Resolved() {
				out = append(out, Edge{From: e.Archive.Name(), To: o.Provider.Name(), Symbols: o.Symbols})
			}
		}
	}
	return out
}

// Counts tallies the findings of a report. Suppressed findings are counted
// only in Suppressed.
type Counts struct {
	Unresolved int
	Conflicts  int
	Suppressed int
}

// Counts tallies the findings of r.
func (r *Report) Counts() Counts {
	var c Counts
	for _, e := range r.DependsOn.Entries {
		for _, o := range e.Unresolved() {
			if o.Suppressed {
				c.Suppressed++
			} else {
				c.Unresolved++
			}
		}
	}
	for _, e := range r.Conflicts.Entries {
		if e.Suppressed {
			c.Suppressed++
		} else {
			c.Conflicts++
		}
	}
	return c
}
