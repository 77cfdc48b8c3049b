package resolve

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/jarscope/pkg/archive"
	"github.com/matzehuels/jarscope/pkg/filter"
	"github.com/matzehuels/jarscope/pkg/profile"
	"github.com/matzehuels/jarscope/pkg/scope"
)

// Analyzer runs the dependency views over an archive set. Its collaborators
// are fixed at construction and only read during a run, so one Analyzer can
// serve concurrent runs.
type Analyzer struct {
	profiles    profile.Set
	oracle      scope.Oracle
	filter      filter.Policy
	concurrency int
}

// Option configures an [Analyzer].
type Option func(*Analyzer)

// WithProfiles sets the profiles consulted when no archive provides a symbol.
func WithProfiles(set profile.Set) Option {
	return func(a *Analyzer) { a.profiles = set }
}

// WithOracle sets the classloader visibility oracle. A nil oracle means
// [scope.AlwaysVisible].
func WithOracle(o scope.Oracle) Option {
	return func(a *Analyzer) {
		if o != nil {
			a.oracle = o
		}
	}
}

// WithFilter sets the whitelist policy. A nil policy means [filter.None].
func WithFilter(p filter.Policy) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.filter = p
		}
	}
}

// WithConcurrency bounds the number of archives processed in parallel.
// Values below one select GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) { a.concurrency = n }
}

// New creates an analyzer with no profiles, no isolation and no filter
// unless options say otherwise.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		oracle: scope.AlwaysVisible{},
		filter: filter.None{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.concurrency < 1 {
		a.concurrency = runtime.GOMAXPROCS(0)
	}
	return a
}

// Analyze flattens the top-level archives and computes all three views.
// The only error returned is the context's.
func (a *Analyzer) Analyze(ctx context.Context, top []*archive.Archive) (*Report, error) {
	g := newGraph(archive.NewUniverse(top))

	dependsOn, err := a.dependsOn(ctx, g)
	if err != nil {
		return nil, err
	}
	dependants, err := a.dependants(ctx, g)
	if err != nil {
		return nil, err
	}
	conflicts, err := a.conflicts(ctx, g)
	if err != nil {
		return nil, err
	}

	return &Report{
		Universe:   g.archives,
		DependsOn:  dependsOn,
		Dependants: dependants,
		Conflicts:  conflicts,
		Severity:   MaxSeverity(dependsOn.Severity, dependants.Severity, conflicts.Severity),
		Profiles:   a.profiles.Names(),
	}, nil
}

// DependsOn computes the consumer-centric view over the flattened universe
// of top.
func (a *Analyzer) DependsOn(ctx context.Context, top []*archive.Archive) (*DependsOn, error) {
	return a.dependsOn(ctx, newGraph(archive.NewUniverse(top)))
}

// Dependants computes the provider-centric view over the flattened universe
// of top.
func (a *Analyzer) Dependants(ctx context.Context, top []*archive.Archive) (*Dependants, error) {
	return a.dependants(ctx, newGraph(archive.NewUniverse(top)))
}

// Conflicts computes the version conflict view over the flattened universe
// of top.
func (a *Analyzer) Conflicts(ctx context.Context, top []*archive.Archive) (*Conflicts, error) {
	return a.conflicts(ctx, newGraph(archive.NewUniverse(top)))
}

// graph is the read-only working set of one run: the universe in name order,
// each archive's transitive requirements, and a symbol index of providers.
type graph struct {
	universe  *archive.Universe
	archives  []*archive.Archive
	requires  [][]string
	providers map[string][]int
}

func newGraph(u *archive.Universe) *graph {
	g := &graph{
		universe:  u,
		archives:  u.Archives,
		requires:  make([][]string, len(u.Archives)),
		providers: make(map[string][]int),
	}
	for i, a := range g.archives {
		g.requires[i] = archive.Requires(a)
		for _, sym := range a.Provides() {
			g.providers[sym] = append(g.providers[sym], i)
		}
	}
	return g
}

// forEach runs fn for every universe index with bounded parallelism.
// Each call writes only its own slot, which keeps results ordered.
func (a *Analyzer) forEach(ctx context.Context, n int, fn func(i int)) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	return eg.Wait()
}

func (a *Analyzer) dependsOn(ctx context.Context, g *graph) (*DependsOn, error) {
	entries := make([]DependsOnEntry, len(g.archives))
	severities := make([]Severity, len(g.archives))

	err := a.forEach(ctx, len(g.archives), func(i int) {
		entries[i], severities[i] = a.dependsOnEntry(g, i)
	})
	if err != nil {
		return nil, err
	}

	out := &DependsOn{
		Entries:  entries,
		Severity: MaxSeverity(severities...),
		index:    make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		out.index[e.Archive.Name()] = i
	}
	return out, nil
}

// dependsOnEntry resolves each requirement of archive i to the first visible
// provider in universe order, then to a profile, else reports it unresolved.
func (a *Analyzer) dependsOnEntry(g *graph, i int) (DependsOnEntry, Severity) {
	consumer := g.archives[i]
	severity := SeverityInfo

	resolved := map[int]*Outcome{}
	var unresolved []Outcome

	for _, req := range g.requires[i] {
		if p, ok := a.firstProvider(g, consumer, req); ok {
			if o, seen := resolved[p]; seen {
				o.Symbols = append(o.Symbols, req)
			} else {
				resolved[p] = &Outcome{Provider: g.archives[p], Symbols: []string{req}}
			}
			continue
		}
		if a.profiles.DoesProvide(req) {
			continue
		}
		suppressed := a.filter.Suppressed(consumer.Name(), req)
		if !suppressed {
			severity = severity.Raise(SeverityWarning)
		}
		unresolved = append(unresolved, Outcome{Symbols: []string{req}, Suppressed: suppressed})
	}

	outcomes := make([]Outcome, 0, len(resolved)+len(unresolved))
	for _, o := range resolved {
		outcomes = append(outcomes, *o)
	}
	outcomes = append(outcomes, unresolved...)
	slices.SortStableFunc(outcomes, compareOutcomes)

	return DependsOnEntry{Archive: consumer, Outcomes: outcomes}, severity
}

func (a *Analyzer) firstProvider(g *graph, consumer *archive.Archive, symbol string) (int, bool) {
	for _, p := range g.providers[symbol] {
		if a.oracle.Visible(consumer, g.archives[p]) {
			return p, true
		}
	}
	return 0, false
}

func (a *Analyzer) dependants(ctx context.Context, g *graph) (*Dependants, error) {
	entries := make([]DependantsEntry, len(g.archives))

	err := a.forEach(ctx, len(g.archives), func(j int) {
		entries[j] = a.dependantsEntry(g, j)
	})
	if err != nil {
		return nil, err
	}

	out := &Dependants{
		Entries:  entries,
		Severity: SeverityInfo,
		index:    make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		out.index[e.Archive.Name()] = i
	}
	return out, nil
}

// dependantsEntry scans every candidate consumer's requirements against the
// provides of archive j. It does not reuse Depends-On results.
func (a *Analyzer) dependantsEntry(g *graph, j int) DependantsEntry {
	provider := g.archives[j]
	consumers := []*archive.Archive{}

	for i, consumer := range g.archives {
		if !slices.ContainsFunc(g.requires[i], provider.DoesProvide) {
			continue
		}
		if a.oracle.Visible(consumer, provider) {
			consumers = append(consumers, consumer)
		}
	}
	return DependantsEntry{Archive: provider, Consumers: consumers}
}

func (a *Analyzer) conflicts(ctx context.Context, g *graph) (*Conflicts, error) {
	found := make([]*Conflict, len(g.archives))

	err := a.forEach(ctx, len(g.archives), func(i int) {
		found[i] = a.conflictOf(g.archives[i], g.universe.Locations(g.archives[i].Name()))
	})
	if err != nil {
		return nil, err
	}

	out := &Conflicts{Severity: SeverityInfo}
	for _, c := range found {
		if c == nil {
			continue
		}
		out.Entries = append(out.Entries, *c)
		if !c.Suppressed {
			out.Severity = out.Severity.Raise(SeverityCritical)
		}
	}
	return out, nil
}

// conflictOf compares the version of every location sharing the archive's
// name, nested or not, against the first location. A name with a single
// location is never flagged.
func (a *Analyzer) conflictOf(ar *archive.Archive, locs []archive.Location) *Conflict {
	baseline := locs[0]
	for _, l := range locs[1:] {
		if !l.SameVersion(baseline) {
			return &Conflict{
				Archive:    ar,
				Locations:  locs,
				Suppressed: a.filter.Suppressed(ar.Name(), ""),
			}
		}
	}
	return nil
}
