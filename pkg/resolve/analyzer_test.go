package resolve

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/jarscope/pkg/archive"
	"github.com/matzehuels/jarscope/pkg/filter"
	"github.com/matzehuels/jarscope/pkg/profile"
	"github.com/matzehuels/jarscope/pkg/scope"
)

func jar(name string, provides, requires []string) *archive.Archive {
	return archive.MustNew(name, archive.KindSimple, []archive.Location{{Filename: "lib/" + name}}, provides, requires)
}

func jarAt(name string, locs ...archive.Location) *archive.Archive {
	return archive.MustNew(name, archive.KindSimple, locs, nil, nil)
}

// denyOracle hides the listed consumer/provider pairs.
type denyOracle map[[2]string]bool

func (d denyOracle) Visible(c, p *archive.Archive) bool { return !d[[2]string{c.Name(), p.Name()}] }

func analyze(t *testing.T, an *Analyzer, top ...*archive.Archive) *Report {
	t.Helper()
	r, err := an.Analyze(context.Background(), top)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return r
}

func outcomeStrings(os []Outcome) []string {
	out := make([]string, len(os))
	for i, o := range os {
		if o.Resolved() {
			out[i] = "archive:" + o.Provider.Name()
		} else {
			out[i] = "missing:" + o.Symbol()
		}
	}
	return out
}

func consumerNames(as []*archive.Archive) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name()
	}
	return out
}

func TestScenarioResolvedToArchive(t *testing.T) {
	a := jar("A", nil, []string{"com.foo"})
	b := jar("B", []string{"com.foo"}, nil)

	r := analyze(t, New(), a, b)

	got, _ := r.DependsOn.Lookup("A")
	if !slices.Equal(outcomeStrings(got), []string{"archive:B"}) {
		t.Errorf("DependsOn(A) = %v", outcomeStrings(got))
	}
	got, _ = r.DependsOn.Lookup("B")
	if len(got) != 0 {
		t.Errorf("DependsOn(B) = %v, want empty", outcomeStrings(got))
	}
	cons, _ := r.Dependants.Lookup("B")
	if !slices.Equal(consumerNames(cons), []string{"A"}) {
		t.Errorf("Dependants(B) = %v", consumerNames(cons))
	}
	cons, ok := r.Dependants.Lookup("A")
	if !ok || cons == nil || len(cons) != 0 {
		t.Errorf("Dependants(A) = %v, want explicit empty", cons)
	}
	if r.Severity != SeverityInfo {
		t.Errorf("Severity = %v, want info", r.Severity)
	}
}

func TestScenarioResolvedToProfile(t *testing.T) {
	a := jar("A", nil, []string{"com.foo"})
	se := profile.New("java.se", "", []string{"com.foo"})

	r := analyze(t, New(WithProfiles(profile.Set{se})), a)

	got, _ := r.DependsOn.Lookup("A")
	if len(got) != 0 {
		t.Errorf("DependsOn(A) = %v, want silently satisfied", outcomeStrings(got))
	}
	if r.Severity != SeverityInfo {
		t.Errorf("Severity = %v, want info", r.Severity)
	}
	if !slices.Equal(r.Profiles, []string{"java.se"}) {
		t.Errorf("Profiles = %v", r.Profiles)
	}
}

func TestScenarioUnresolved(t *testing.T) {
	a := jar("A", nil, []string{"com.foo"})

	r := analyze(t, New(), a)

	got, _ := r.DependsOn.Lookup("A")
	if !slices.Equal(outcomeStrings(got), []string{"missing:com.foo"}) {
		t.Errorf("DependsOn(A) = %v", outcomeStrings(got))
	}
	if got[0].Suppressed {
		t.Error("outcome should not be suppressed")
	}
	if r.Severity != SeverityWarning || r.DependsOn.Severity != SeverityWarning {
		t.Errorf("Severity = %v / %v, want warning", r.Severity, r.DependsOn.Severity)
	}
}

func TestFilterSuppression(t *testing.T) {
	a := jar("A", nil, []string{"com.foo"})
	rules, err := filter.New(nil, map[string][]string{"A": {"com.foo"}})
	if err != nil {
		t.Fatal(err)
	}

	r := analyze(t, New(WithFilter(rules)), a)
	got, _ := r.DependsOn.Lookup("A")
	if len(got) != 1 || !got[0].Suppressed {
		t.Fatalf("DependsOn(A) = %+v, want one suppressed outcome", got)
	}
	if r.Severity != SeverityInfo {
		t.Errorf("Severity = %v, want info", r.Severity)
	}

	// An equivalent pair that is not whitelisted raises the severity.
	other := jar("C", nil, []string{"com.foo"})
	r = analyze(t, New(WithFilter(rules)), a, other)
	if r.Severity != SeverityWarning {
		t.Errorf("Severity = %v, want warning", r.Severity)
	}
}

func TestOutcomeOrdering(t *testing.T) {
	consumer := jar("app.jar", nil, []string{"z.missing", "com.b", "a.missing", "com.a", "com.a2"})
	pa := jar("a.jar", []string{"com.a", "com.a2"}, nil)
	pb := jar("b.jar", []string{"com.b"}, nil)

	r := analyze(t, New(), consumer, pb, pa)

	got, _ := r.DependsOn.Lookup("app.jar")
	want := []string{"archive:a.jar", "archive:b.jar", "missing:a.missing", "missing:z.missing"}
	if !slices.Equal(outcomeStrings(got), want) {
		t.Errorf("outcomes = %v, want %v", outcomeStrings(got), want)
	}
	if !slices.Equal(got[0].Symbols, []string{"com.a", "com.a2"}) {
		t.Errorf("a.jar symbols = %v", got[0].Symbols)
	}
}

func TestFirstMatchProvider(t *testing.T) {
	consumer := jar("app.jar", nil, []string{"com.shared"})
	first := jar("alpha.jar", []string{"com.shared"}, nil)
	second := jar("beta.jar", []string{"com.shared"}, nil)

	r := analyze(t, New(), second, consumer, first)
	got, _ := r.DependsOn.Lookup("app.jar")
	if !slices.Equal(outcomeStrings(got), []string{"archive:alpha.jar"}) {
		t.Errorf("outcomes = %v, want first provider by name", outcomeStrings(got))
	}

	// Dependants is computed independently: both providers list the consumer.
	for _, p := range []string{"alpha.jar", "beta.jar"} {
		cons, _ := r.Dependants.Lookup(p)
		if !slices.Equal(consumerNames(cons), []string{"app.jar"}) {
			t.Errorf("Dependants(%s) = %v", p, consumerNames(cons))
		}
	}
}

func TestVisibilityGating(t *testing.T) {
	a := jar("A", nil, []string{"x"})
	p := jar("P", []string{"x"}, nil)
	oracle := denyOracle{{"A", "P"}: true}

	r := analyze(t, New(WithOracle(oracle)), a, p)
	got, _ := r.DependsOn.Lookup("A")
	if !slices.Equal(outcomeStrings(got), []string{"missing:x"}) {
		t.Errorf("DependsOn(A) = %v, want x unresolved", outcomeStrings(got))
	}
	cons, _ := r.Dependants.Lookup("P")
	if len(cons) != 0 {
		t.Errorf("Dependants(P) = %v, want none", consumerNames(cons))
	}

	// Falls through to a profile when one provides the symbol.
	r = analyze(t, New(WithOracle(oracle), WithProfiles(profile.Set{profile.New("p", "", []string{"x"})})), a, p)
	got, _ = r.DependsOn.Lookup("A")
	if len(got) != 0 {
		t.Errorf("DependsOn(A) = %v, want profile fallback", outcomeStrings(got))
	}

	// The next visible provider is chosen when the first is hidden.
	q := jar("Q", []string{"x"}, nil)
	r = analyze(t, New(WithOracle(oracle)), a, p, q)
	got, _ = r.DependsOn.Lookup("A")
	if !slices.Equal(outcomeStrings(got), []string{"archive:Q"}) {
		t.Errorf("DependsOn(A) = %v, want Q", outcomeStrings(got))
	}
}

func TestHierarchyOracle(t *testing.T) {
	war := archive.MustNew("web.war", archive.KindNestable, []archive.Location{{Filename: "web.war"}}, nil, nil)
	webLib := jar("struts.jar", []string{"org.struts"}, []string{"org.log"})
	_ = war.AddSubArchive(webLib)
	logging := jar("log.jar", []string{"org.log"}, nil)
	ejb := jar("ejb.jar", nil, []string{"org.struts"})

	h, err := scope.NewHierarchy([]scope.Loader{
		{Name: "system", Archives: []string{"log.jar"}},
		{Name: "web", Parent: "system", Archives: []string{"web.war"}},
		{Name: "ejb", Parent: "system", Archives: []string{"ejb.jar"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	r := analyze(t, New(WithOracle(h)), war, logging, ejb)

	got, _ := r.DependsOn.Lookup("struts.jar")
	if !slices.Equal(outcomeStrings(got), []string{"archive:log.jar"}) {
		t.Errorf("struts.jar = %v", outcomeStrings(got))
	}
	got, _ = r.DependsOn.Lookup("ejb.jar")
	if !slices.Equal(outcomeStrings(got), []string{"missing:org.struts"}) {
		t.Errorf("ejb.jar = %v, want sibling isolation", outcomeStrings(got))
	}
}

func TestNestedRequiresWithoutSubtraction(t *testing.T) {
	ear := archive.MustNew("app.ear", archive.KindNestable, []archive.Location{{Filename: "app.ear"}}, nil, nil)
	_ = ear.AddSubArchive(jar("api.jar", []string{"com.api"}, nil))
	_ = ear.AddSubArchive(jar("impl.jar", nil, []string{"com.api"}))

	r := analyze(t, New(), ear)

	got, _ := r.DependsOn.Lookup("app.ear")
	if !slices.Equal(outcomeStrings(got), []string{"archive:api.jar"}) {
		t.Errorf("app.ear = %v", outcomeStrings(got))
	}
	cons, _ := r.Dependants.Lookup("api.jar")
	if !slices.Equal(consumerNames(cons), []string{"app.ear", "impl.jar"}) {
		t.Errorf("Dependants(api.jar) = %v", consumerNames(cons))
	}
}

func TestConflicts(t *testing.T) {
	tests := []struct {
		name    string
		archive *archive.Archive
		flagged bool
	}{
		{"different versions", jarAt("x.jar", archive.Location{Filename: "a/x.jar", Version: "1.0"}, archive.Location{Filename: "b/x.jar", Version: "2.0"}), true},
		{"both unlisted", jarAt("x.jar", archive.Location{Filename: "a/x.jar"}, archive.Location{Filename: "b/x.jar"}), false},
		{"same version", jarAt("x.jar", archive.Location{Filename: "a/x.jar", Version: "1.0"}, archive.Location{Filename: "b/x.jar", Version: "1.0"}), false},
		{"listed vs unlisted", jarAt("x.jar", archive.Location{Filename: "a/x.jar", Version: "1.0"}, archive.Location{Filename: "b/x.jar"}), true},
		{"single location", jarAt("x.jar", archive.Location{Filename: "a/x.jar", Version: "9"}), false},
		{"third diverges", jarAt("x.jar",
			archive.Location{Filename: "a/x.jar", Version: "1"},
			archive.Location{Filename: "b/x.jar", Version: "1"},
			archive.Location{Filename: "c/x.jar", Version: "3"}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := analyze(t, New(), tt.archive)
			c, ok := r.Conflicts.Lookup("x.jar")
			if ok != tt.flagged {
				t.Fatalf("flagged = %v, want %v", ok, tt.flagged)
			}
			if ok && len(c.Locations) != len(tt.archive.Locations()) {
				t.Errorf("conflict lists %d locations, want all %d", len(c.Locations), len(tt.archive.Locations()))
			}
			wantSeverity := SeverityInfo
			if tt.flagged {
				wantSeverity = SeverityCritical
			}
			if r.Severity != wantSeverity {
				t.Errorf("Severity = %v, want %v", r.Severity, wantSeverity)
			}
		})
	}
}

func TestShadowedArchiveChildrenResolve(t *testing.T) {
	ear := archive.MustNew("a.ear", archive.KindNestable, []archive.Location{{Filename: "a.ear"}}, nil, nil)
	nested := archive.MustNew("x.war", archive.KindNestable, []archive.Location{{Filename: "a.ear/x.war"}}, nil, nil)
	deep := archive.MustNew("deep.jar", archive.KindSimple, []archive.Location{{Filename: "a.ear/x.war/deep.jar"}}, []string{"com.deep"}, nil)
	if err := nested.AddSubArchive(deep); err != nil {
		t.Fatal(err)
	}
	if err := ear.AddSubArchive(nested); err != nil {
		t.Fatal(err)
	}
	top := jar("x.war", nil, nil)
	z := jar("z.jar", nil, []string{"com.deep"})

	r := analyze(t, New(), ear, top, z)

	outcomes, ok := r.DependsOn.Lookup("z.jar")
	if !ok {
		t.Fatal("z.jar missing from Depends-On")
	}
	if got := outcomeStrings(outcomes); !slices.Equal(got, []string{"archive:deep.jar"}) {
		t.Errorf("DependsOn(z.jar) = %v, want [archive:deep.jar]", got)
	}
	if r.Severity != SeverityInfo {
		t.Errorf("Severity = %v, want info", r.Severity)
	}
}

func TestConflictAcrossNesting(t *testing.T) {
	ear := archive.MustNew("app.ear", archive.KindNestable, []archive.Location{{Filename: "app.ear"}}, nil, nil)
	nested := jarAt("web.war", archive.Location{Filename: "app.ear/web.war", Version: "2.0"})
	if err := ear.AddSubArchive(nested); err != nil {
		t.Fatal(err)
	}
	top := jarAt("web.war", archive.Location{Filename: "deploy/web.war", Version: "1.0"})

	r := analyze(t, New(), ear, top)

	c, ok := r.Conflicts.Lookup("web.war")
	if !ok {
		t.Fatal("web.war deployed in 1.0 and 2.0 should be a conflict")
	}
	if c.Archive != top {
		t.Error("conflict should report the winning top-level instance")
	}
	want := []archive.Location{
		{Filename: "deploy/web.war", Version: "1.0"},
		{Filename: "app.ear/web.war", Version: "2.0"},
	}
	if !slices.Equal(c.Locations, want) {
		t.Errorf("Locations = %v, want %v", c.Locations, want)
	}
	if r.Severity != SeverityCritical {
		t.Errorf("Severity = %v, want critical", r.Severity)
	}
}

func TestConflictSuppressed(t *testing.T) {
	x := jarAt("x.jar", archive.Location{Filename: "a/x.jar", Version: "1.0"}, archive.Location{Filename: "b/x.jar", Version: "2.0"})
	rules, _ := filter.New([]string{"x.jar"}, nil)

	r := analyze(t, New(WithFilter(rules)), x)
	c, ok := r.Conflicts.Lookup("x.jar")
	if !ok || !c.Suppressed {
		t.Fatalf("conflict = %+v, %v; want suppressed entry", c, ok)
	}
	if r.Severity != SeverityInfo {
		t.Errorf("Severity = %v, want info", r.Severity)
	}
}

func TestDuality(t *testing.T) {
	universe := []*archive.Archive{
		jar("a.jar", []string{"a"}, []string{"b", "c", "gone"}),
		jar("b.jar", []string{"b"}, []string{"c"}),
		jar("c.jar", []string{"c"}, []string{"a"}),
		jar("d.jar", []string{"c"}, []string{"b"}),
	}
	oracle := denyOracle{{"a.jar", "c.jar"}: true}

	r := analyze(t, New(WithOracle(oracle)), universe...)
	for _, e := range r.DependsOn.Entries {
		for _, o := range e.Outcomes {
			if !o.Resolved() {
				continue
			}
			cons, _ := r.Dependants.Lookup(o.Provider.Name())
			if !slices.Contains(cons, e.Archive) {
				t.Errorf("%s depends on %s but is not among its dependants %v",
					e.Archive.Name(), o.Provider.Name(), consumerNames(cons))
			}
		}
	}
}

func fingerprint(r *Report) string {
	var b strings.Builder
	for _, e := range r.DependsOn.Entries {
		fmt.Fprintf(&b, "D %s %v\n", e.Archive.Name(), outcomeStrings(e.Outcomes))
	}
	for _, e := range r.Dependants.Entries {
		fmt.Fprintf(&b, "P %s %v\n", e.Archive.Name(), consumerNames(e.Consumers))
	}
	for _, c := range r.Conflicts.Entries {
		fmt.Fprintf(&b, "C %s %v\n", c.Archive.Name(), c.Locations)
	}
	fmt.Fprintf(&b, "S %s\n", r.Severity)
	return b.String()
}

func TestDeterminism(t *testing.T) {
	var top []*archive.Archive
	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("lib%02d.jar", i)
		top = append(top, archive.MustNew(name, archive.KindSimple,
			[]archive.Location{{Filename: "a/" + name, Version: "1"}, {Filename: "b/" + name, Version: fmt.Sprint(i % 3)}},
			[]string{fmt.Sprintf("pkg%d", i%7)},
			[]string{fmt.Sprintf("pkg%d", (i+1)%9), fmt.Sprintf("pkg%d", (i+3)%11)},
		))
	}

	want := fingerprint(analyze(t, New(WithConcurrency(1)), top...))
	for run := 0; run < 10; run++ {
		got := fingerprint(analyze(t, New(WithConcurrency(8)), top...))
		if got != want {
			t.Fatalf("run %d differs from sequential run", run)
		}
	}
}

func TestAnalyzeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Analyze(ctx, []*archive.Archive{jar("a.jar", nil, nil)})
	if err != context.Canceled {
		t.Errorf("Analyze error = %v, want context.Canceled", err)
	}
}

func TestEdges(t *testing.T) {
	r := analyze(t, New(), jar("a.jar", nil, []string{"x"}), jar("b.jar", []string{"x"}, nil))
	edges := r.Edges()
	if len(edges) != 1 || edges[0].From != "a.jar" || edges[0].To != "b.jar" {
		t.Errorf("Edges() = %+v", edges)
	}
}

func TestReportCounts(t *testing.T) {
	app := jar("app.jar", nil, []string{"com.sun.misc", "org.gone", "org.lost"})
	x := jarAt("x.jar", archive.Location{Filename: "a/x.jar", Version: "1.0"}, archive.Location{Filename: "b/x.jar", Version: "2.0"})
	y := jarAt("y.jar", archive.Location{Filename: "a/y.jar", Version: "1.0"}, archive.Location{Filename: "b/y.jar"})
	rules, _ := filter.New([]string{"y.jar"}, map[string][]string{"app.jar": {"com.sun.*"}})

	got := analyze(t, New(WithFilter(rules)), app, x, y).Counts()
	want := Counts{Unresolved: 2, Conflicts: 1, Suppressed: 2}
	if got != want {
		t.Errorf("Counts() = %+v, want %+v", got, want)
	}
}
