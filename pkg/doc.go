// Package pkg provides the core libraries for jarscope dependency analysis.
//
// # Overview
//
// jarscope takes an inventory of deployed Java archives (jar, war, ear, ...)
// and answers three questions for every archive: which archives its
// requirements resolve to (Depends On), which archives rely on it
// (Dependants), and whether it is deployed in diverging versions (Eliminate
// Jars). The pkg directory is organized into four main areas:
//
//  1. Domain model: [archive], [profile], [scope], [filter]
//  2. Analysis: [resolve]
//  3. Input and output: [inventory], [config], [render]
//  4. Orchestration: [pipeline], [cache], [server], [observability]
//
// # Architecture
//
// The typical data flow through jarscope:
//
//	Inventory file (YAML/JSON, optionally signed)
//	         ↓
//	    [inventory] package (decode, verify, build archives)
//	         ↓
//	    [resolve] package (flatten, match, detect conflicts)
//	         ↓
//	    [render] package (tables, JSON, HTML, DOT/SVG)
//
// # Quick Start
//
//	inv, _ := inventory.Load("inventory.yaml")
//	profiles, _ := profile.Lookup("java.se")
//	rules, _ := filter.New(nil, map[string][]string{"*.jar": {"com.sun.*"}})
//
//	analyzer := resolve.New(
//	    resolve.WithProfiles(profiles),
//	    resolve.WithFilter(rules),
//	)
//	report, _ := analyzer.Analyze(ctx, inv.Archives)
//	tabular.Write(os.Stdout, report, tabular.Options{Style: render.FormatText})
//
// The [pipeline] package wraps these steps with configuration, signature
// verification and caching; the CLI and the HTTP server both use it.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/resolve/...  # Specific package
//	go test -run Example ./... # Examples only
//
// [archive]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/archive
// [profile]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/profile
// [scope]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/scope
// [filter]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/filter
// [resolve]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/resolve
// [inventory]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/inventory
// [config]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/config
// [render]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/cache
// [server]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/jarscope/pkg/observability
package pkg
