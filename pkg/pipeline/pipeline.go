// Package pipeline runs the jarscope load → analyze → render pipeline.
//
// The CLI and the HTTP server share this package so that inventory loading,
// signature verification, collaborator construction from the configuration
// and artifact caching behave the same from every entry point.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Analyze(ctx, pipeline.Options{
//	    InventoryPath: "inventory.yaml",
//	    Config:        cfg,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := runner.Render(ctx, result, pipeline.RenderOptions{Format: "markdown"})
//
// Graph artifacts are rendered through graphviz and cached by the hash of
// their DOT source:
//
//	svg, err := runner.RenderGraph(ctx, result, pipeline.GraphOptions{Format: "svg"})
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jarscope/pkg/config"
	"github.com/matzehuels/jarscope/pkg/errors"
	"github.com/matzehuels/jarscope/pkg/inventory"
	"github.com/matzehuels/jarscope/pkg/render"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

// Options configures one analysis run.
type Options struct {
	// InventoryPath is the scanner inventory to analyze.
	InventoryPath string
	// Config supplies profiles, filter rules and loaders. Nil means defaults.
	Config *config.Config

	// KeyringPath enables signature verification of the inventory.
	KeyringPath string
	// SignaturePath is the detached signature. Defaults to InventoryPath
	// with ".asc" appended when KeyringPath is set.
	SignaturePath string

	Logger *log.Logger
}

// Validate checks required fields and applies defaults.
func (o *Options) Validate() error {
	if o.InventoryPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "inventory path is required")
	}
	if o.SignaturePath != "" && o.KeyringPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "a keyring is required to verify %s", o.SignaturePath)
	}
	if o.KeyringPath != "" && o.SignaturePath == "" {
		o.SignaturePath = o.InventoryPath + ".asc"
	}
	if o.Config == nil {
		o.Config = config.Default()
	}
	return nil
}

// Verify reports whether the run checks the inventory signature.
func (o *Options) Verify() bool { return o.KeyringPath != "" }

// Result is the outcome of one analysis run.
type Result struct {
	// RunID identifies the run in logs and API responses.
	RunID string
	// Key fingerprints the inputs of the run: inventory content, effective
	// configuration, profile symbols and jarscope version. Runs with equal
	// keys produce equal reports.
	Key string

	Inventory *inventory.Inventory
	Report    *resolve.Report
	Stats     Stats
	// Verified is set when the inventory signature was checked.
	Verified bool
}

// Stats contains run statistics.
type Stats struct {
	Archives    int           `json:"archives"`
	Unresolved  int           `json:"unresolved"`
	Suppressed  int           `json:"suppressed"`
	Conflicts   int           `json:"conflicts"`
	LoadTime    time.Duration `json:"load_time_ns"`
	AnalyzeTime time.Duration `json:"analyze_time_ns"`
}

// StatsOf counts the findings of r.
func StatsOf(r *resolve.Report) Stats {
	c := r.Counts()
	return Stats{
		Archives:   len(r.Universe),
		Unresolved: c.Unresolved,
		Suppressed: c.Suppressed,
		Conflicts:  c.Conflicts,
	}
}

// RenderOptions selects a report rendering.
type RenderOptions struct {
	Format string
	View   render.View
	// Title is used by the HTML page.
	Title string
	// Links enables per-archive links in the HTML page.
	Links bool
	// GraphURL embeds the dependency graph in the HTML page.
	GraphURL string
}

// GraphOptions selects a graph rendering.
type GraphOptions struct {
	Format string
	// Detailed labels edges with the satisfied symbols and nodes with versions.
	Detailed bool
	// Unresolved adds nodes for unresolved requirements.
	Unresolved bool
	// Nesting draws containment edges between nestable archives and children.
	Nesting bool
}
