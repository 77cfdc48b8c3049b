package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/jarscope/pkg/archive"
	"github.com/matzehuels/jarscope/pkg/filter"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

func testReport(t *testing.T) *resolve.Report {
	t.Helper()
	ear := archive.MustNew("app.ear", archive.KindNestable, []archive.Location{{Filename: "app.ear"}}, nil, nil)
	web := archive.MustNew("web.jar", archive.KindSimple, []archive.Location{{Filename: "app.ear/web.jar"}},
		nil, []string{"org.log", "org.gone", "com.sun.misc"})
	_ = ear.AddSubArchive(web)
	logging := archive.MustNew("log.jar", archive.KindSimple,
		[]archive.Location{{Filename: "a/log.jar", Version: "1.0"}, {Filename: "b/log.jar", Version: "2.0"}},
		[]string{"org.log"}, nil)

	rules, _ := filter.New(nil, map[string][]string{"*": {"com.sun.*"}})
	r, err := resolve.New(resolve.WithFilter(rules)).Analyze(context.Background(), []*archive.Archive{ear, logging})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testReport(t), Options{})

	for _, want := range []string{
		"digraph G {",
		`"web.jar" -> "log.jar";`,
		`"app.ear" -> "log.jar";`,
		`"app.ear" [label="app.ear", shape=box3d];`,
		`"log.jar" [label="log.jar", color=red, penwidth=2];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "missing:") {
		t.Error("ToDOT() should omit unresolved nodes by default")
	}
	if strings.Contains(dot, "odiamond") {
		t.Error("ToDOT() should omit nesting edges by default")
	}
}

func TestToDOTUnresolved(t *testing.T) {
	dot := ToDOT(testReport(t), Options{Unresolved: true, Nesting: true})

	if strings.Count(dot, `"missing:org.gone" [`) != 1 {
		t.Errorf("unresolved symbol should be declared once\n%s", dot)
	}
	if !strings.Contains(dot, `"web.jar" -> "missing:org.gone" [style=dashed, color=grey];`) {
		t.Errorf("missing dashed edge\n%s", dot)
	}
	if !strings.Contains(dot, `"web.jar" -> "missing:com.sun.misc" [style=dotted, color=lightgrey];`) {
		t.Errorf("suppressed edge should be dotted\n%s", dot)
	}
	if !strings.Contains(dot, `"app.ear" -> "web.jar" [style=dotted, arrowhead=odiamond`) {
		t.Errorf("missing nesting edge\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testReport(t), Options{Detailed: true})
	if !strings.Contains(dot, `label="log.jar\n1.0, 2.0"`) {
		t.Errorf("detailed label should list versions\n%s", dot)
	}
	if !strings.Contains(dot, `label="web.jar\nNot listed"`) {
		t.Errorf("unlisted version should read Not listed\n%s", dot)
	}
	if !strings.Contains(dot, `[label="org.log", fontsize=10]`) {
		t.Errorf("detailed edges should carry symbols\n%s", dot)
	}
}

func TestToDOTDeterministic(t *testing.T) {
	if ToDOT(testReport(t), Options{Unresolved: true}) != ToDOT(testReport(t), Options{Unresolved: true}) {
		t.Error("ToDOT() output should be deterministic")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testReport(t), Options{Unresolved: true}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
	if !strings.Contains(string(svg), "log.jar") {
		t.Error("RenderSVG() output missing node text")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
