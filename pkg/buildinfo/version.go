// Package buildinfo reports the version of the jarscope binary.
//
// Release builds set the variables through ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/jarscope/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/jarscope/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/jarscope/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries built with `go install` carry no ldflags; for them the values
// come from the module and VCS data embedded by the Go toolchain. The
// version is part of every cached report key, so upgrading jarscope
// invalidates reports rendered by an older binary.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

const develVersion = "dev"

var (
	Version = develVersion
	Commit  = "none"
	Date    = "unknown"
)

var resolveOnce sync.Once

// Info is the resolved build information.
type Info struct {
	Version string
	Commit  string
	Date    string
}

// Get returns the build information, filling values not set through ldflags
// from the embedded module and VCS data.
func Get() Info {
	resolveOnce.Do(func() {
		if bi, ok := debug.ReadBuildInfo(); ok {
			Version, Commit, Date = fromBuildInfo(bi, Version, Commit, Date)
		}
	})
	return Info{Version: Version, Commit: Commit, Date: Date}
}

func fromBuildInfo(bi *debug.BuildInfo, version, commit, date string) (string, string, string) {
	if version == develVersion && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "none" {
				commit = s.Value
			}
		case "vcs.time":
			if date == "unknown" {
				date = s.Value
			}
		}
	}
	return version, commit, date
}

// String returns the formatted build information.
func String() string {
	i := Get()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", i.Version, i.Commit, i.Date)
}

// Template returns the version template for cobra.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", i.Version, i.Commit, i.Date)
}
