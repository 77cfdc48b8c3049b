package resolve_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/jarscope/pkg/archive"
	"github.com/matzehuels/jarscope/pkg/profile"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

func ExampleAnalyzer_Analyze() {
	app := archive.MustNew("app.jar", archive.KindSimple,
		[]archive.Location{{Filename: "lib/app.jar", Version: "1.0"}},
		[]string{"com.app"},
		[]string{"com.util", "java.lang", "org.missing"})
	util := archive.MustNew("util.jar", archive.KindSimple,
		[]archive.Location{{Filename: "lib/util.jar", Version: "2.1"}, {Filename: "ext/util.jar", Version: "2.0"}},
		[]string{"com.util"}, nil)

	se := profile.New("java.se", "", []string{"java.lang"})
	an := resolve.New(resolve.WithProfiles(profile.Set{se}))

	report, err := an.Analyze(context.Background(), []*archive.Archive{app, util})
	if err != nil {
		panic(err)
	}

	for _, e := range report.DependsOn.Entries {
		fmt.Println(e.Archive.Name(), "->", e.Outcomes)
	}
	for _, c := range report.Conflicts.Entries {
		fmt.Println("conflict:", c.Archive.Name())
	}
	fmt.Println("severity:", report.Severity)
	// Output:
	// app.jar -> [util.jar org.missing]
	// util.jar -> []
	// conflict: util.jar
	// severity: critical
}
