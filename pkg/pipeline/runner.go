package pipeline

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/jarscope/pkg/buildinfo"
	"github.com/matzehuels/jarscope/pkg/cache"
	"github.com/matzehuels/jarscope/pkg/config"
	"github.com/matzehuels/jarscope/pkg/errors"
	"github.com/matzehuels/jarscope/pkg/inventory"
	"github.com/matzehuels/jarscope/pkg/observability"
	"github.com/matzehuels/jarscope/pkg/profile"
	"github.com/matzehuels/jarscope/pkg/render"
	"github.com/matzehuels/jarscope/pkg/render/htmlreport"
	"github.com/matzehuels/jarscope/pkg/render/jsonreport"
	"github.com/matzehuels/jarscope/pkg/render/nodelink"
	"github.com/matzehuels/jarscope/pkg/render/tabular"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeReport   = "report"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. It does not
// store results, so multiple goroutines can share one Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// TTL bounds the lifetime of cached renderings. Zero never expires.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Analyze loads the inventory and runs the analyzer over it.
func (r *Runner) Analyze(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)
	result := &Result{RunID: uuid.NewString(), Verified: opts.Verify()}
	logger = logger.With("run", result.RunID[:8])

	hooks := observability.Analysis()

	loadStart := time.Now()
	inv, err := r.Load(ctx, opts)
	result.Stats.LoadTime = time.Since(loadStart)
	if err != nil {
		hooks.OnLoad(ctx, 0, result.Stats.LoadTime, err)
		return nil, err
	}
	hooks.OnLoad(ctx, inv.Len(), result.Stats.LoadTime, nil)
	result.Inventory = inv
	logger.Info("loaded inventory",
		"path", inv.Path,
		"archives", inv.Len(),
		"verified", result.Verified,
		"duration", result.Stats.LoadTime)

	analyzer, profiles, err := Collaborators(opts.Config)
	if err != nil {
		return nil, err
	}
	result.Key = r.Keyer.ReportKey(inv.Hash, cache.ReportKeyOpts{
		ConfigHash: ConfigHash(opts.Config, profiles),
		Version:    buildinfo.Get().Version,
	})

	analyzeStart := time.Now()
	hooks.OnAnalyzeStart(ctx, inv.Len())
	report, err := analyzer.Analyze(ctx, inv.Archives)
	elapsed := time.Since(analyzeStart)
	if err != nil {
		hooks.OnAnalyzeComplete(ctx, inv.Len(), "", elapsed, err)
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "analyze")
	}
	hooks.OnAnalyzeComplete(ctx, len(report.Universe), report.Severity.String(), elapsed, nil)

	loadTime := result.Stats.LoadTime
	result.Report = report
	result.Stats = StatsOf(report)
	result.Stats.LoadTime = loadTime
	result.Stats.AnalyzeTime = elapsed

	logger.Info("analyzed dependencies",
		"archives", result.Stats.Archives,
		"unresolved", result.Stats.Unresolved,
		"conflicts", result.Stats.Conflicts,
		"suppressed", result.Stats.Suppressed,
		"severity", report.Severity,
		"duration", elapsed)
	return result, nil
}

// Load reads the inventory, verifying its signature first when a keyring is
// configured. The bytes that are verified are the bytes that are parsed.
func (r *Runner) Load(ctx context.Context, opts Options) (*inventory.Inventory, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	data, err := inventory.ReadFile(opts.InventoryPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Verify() {
		v := inventory.NewVerifier()
		if err := v.ImportKeyFile(opts.KeyringPath); err != nil {
			return nil, err
		}
		sig, err := os.ReadFile(opts.SignaturePath)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read signature %s", opts.SignaturePath)
		}
		if err := v.Verify(data, sig); err != nil {
			return nil, err
		}
		r.logger(opts).Debug("verified inventory signature", "signature", opts.SignaturePath, "keys", v.Keys())
	}

	inv, err := inventory.Parse(data)
	if err != nil {
		return nil, err
	}
	inv.Path = opts.InventoryPath
	return inv, nil
}

// Collaborators builds the analyzer described by cfg and returns it with the
// profile set it consults.
func Collaborators(cfg *config.Config) (*resolve.Analyzer, profile.Set, error) {
	profiles, err := cfg.Profiles()
	if err != nil {
		return nil, nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}
	oracle, err := cfg.Oracle()
	if err != nil {
		return nil, nil, err
	}
	return resolve.New(
		resolve.WithProfiles(profiles),
		resolve.WithFilter(policy),
		resolve.WithOracle(oracle),
		resolve.WithConcurrency(cfg.Analysis.Concurrency),
	), profiles, nil
}

// ConfigHash fingerprints the parts of cfg and profiles that change a report.
func ConfigHash(cfg *config.Config, profiles profile.Set) string {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	_ = enc.Encode(struct {
		Filter config.Filter `toml:"filter"`
		Scope  config.Scope  `toml:"scope"`
	}{cfg.Filter, cfg.Scope})
	for _, p := range profiles {
		buf.WriteString("\n[" + p.Name() + "]\n")
		for _, s := range p.Symbols() {
			buf.WriteString(s)
			buf.WriteByte('\n')
		}
	}
	return cache.Hash(buf.Bytes())
}

// Render renders the report of result in a report format. Renderings are
// cached under the run key.
func (r *Runner) Render(ctx context.Context, result *Result, opts RenderOptions) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, result, opts)
	return data, err
}

// RenderWithCacheInfo is Render reporting whether the rendering came from
// the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, result *Result, opts RenderOptions) ([]byte, bool, error) {
	if err := render.ValidateFormat(opts.Format, render.ReportFormats); err != nil {
		return nil, false, err
	}
	if opts.View == "" {
		opts.View = render.ViewAll
	}

	var key string
	if result.Key != "" {
		key = r.Keyer.ArtifactKey(result.Key, cache.ArtifactKeyOpts{
			Format: opts.Format,
			Style:  renderStyle(opts),
		})
		if data, ok := r.cached(ctx, key, keyTypeReport); ok {
			return data, true, nil
		}
	}

	start := time.Now()
	data, err := RenderReport(result.Report, opts)
	observability.Analysis().OnRender(ctx, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	if key != "" {
		r.store(ctx, key, keyTypeReport, data)
	}
	return data, false, nil
}

func renderStyle(opts RenderOptions) string {
	style := string(opts.View)
	if opts.Format == render.FormatHTML {
		style += "|" + opts.Title
		if opts.Links {
			style += "|links"
		}
		style += "|" + opts.GraphURL
	}
	return style
}

// RenderReport renders report without caching.
func RenderReport(report *resolve.Report, opts RenderOptions) ([]byte, error) {
	if err := render.ValidateFormat(opts.Format, render.ReportFormats); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	var err error
	switch opts.Format {
	case render.FormatText, render.FormatMarkdown, render.FormatCSV:
		err = tabular.Write(&buf, report, tabular.Options{Style: opts.Format, View: opts.View})
	case render.FormatJSON:
		err = jsonreport.Write(&buf, report, opts.View)
	case render.FormatHTML:
		err = htmlreport.Write(&buf, report, htmlreport.Options{
			Title:    opts.Title,
			View:     opts.View,
			Links:    opts.Links,
			GraphURL: opts.GraphURL,
		})
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", opts.Format)
	}
	return buf.Bytes(), nil
}

// RenderGraph renders the resolved dependency graph of result. SVG output
// is cached by the hash of its DOT source.
func (r *Runner) RenderGraph(ctx context.Context, result *Result, opts GraphOptions) ([]byte, error) {
	data, _, err := r.RenderGraphWithCacheInfo(ctx, result, opts)
	return data, err
}

// RenderGraphWithCacheInfo is RenderGraph reporting whether the artifact
// came from the cache.
func (r *Runner) RenderGraphWithCacheInfo(ctx context.Context, result *Result, opts GraphOptions) ([]byte, bool, error) {
	if opts.Format == "" {
		opts.Format = render.FormatSVG
	}
	if err := render.ValidateFormat(opts.Format, render.GraphFormats); err != nil {
		return nil, false, err
	}

	dot := nodelink.ToDOT(result.Report, nodelink.Options{
		Detailed:   opts.Detailed,
		Unresolved: opts.Unresolved,
		Nesting:    opts.Nesting,
	})
	if opts.Format == render.FormatDOT {
		return []byte(dot), false, nil
	}

	key := r.Keyer.ArtifactKey(cache.Hash([]byte(dot)), cache.ArtifactKeyOpts{Format: opts.Format})
	if data, ok := r.cached(ctx, key, keyTypeArtifact); ok {
		return data, true, nil
	}

	start := time.Now()
	svg, err := nodelink.RenderSVG(ctx, dot)
	observability.Analysis().OnRender(ctx, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
	}
	r.store(ctx, key, keyTypeArtifact, svg)
	r.Logger.Debug("rendered graph", "format", opts.Format, "bytes", len(svg), "duration", time.Since(start))
	return svg, false, nil
}

// cached looks key up. Backend errors degrade to a miss.
func (r *Runner) cached(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
		hit = false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
		return data, true
	}
	observability.Cache().OnCacheMiss(ctx, keyType)
	return nil, false
}

// store writes data under key. Backend errors are logged, not returned.
func (r *Runner) store(ctx context.Context, key, keyType string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
