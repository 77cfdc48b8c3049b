package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/jarscope/pkg/cache"
	"github.com/matzehuels/jarscope/pkg/config"
	"github.com/matzehuels/jarscope/pkg/errors"
	"github.com/matzehuels/jarscope/pkg/observability"
	"github.com/matzehuels/jarscope/pkg/render"
	"github.com/matzehuels/jarscope/pkg/render/nodelink"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

const testInventory = `
archives:
  - name: app.jar
    locations: [{filename: lib/app.jar, version: "1.0"}]
    requires: [com.util, org.gone, java.util]
  - name: util.jar
    locations:
      - {filename: lib/util.jar, version: "1.0"}
      - {filename: ext/util.jar, version: "2.0"}
    provides: [com.util]
`

func writeInventory(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
		wantSig string
	}{
		{"missing inventory", Options{}, true, ""},
		{"signature without keyring", Options{InventoryPath: "inv.yaml", SignaturePath: "inv.sig"}, true, ""},
		{"keyring defaults signature", Options{InventoryPath: "inv.yaml", KeyringPath: "keys.asc"}, false, "inv.yaml.asc"},
		{"plain", Options{InventoryPath: "inv.yaml"}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tt.opts.SignaturePath != tt.wantSig {
				t.Errorf("SignaturePath = %q, want %q", tt.opts.SignaturePath, tt.wantSig)
			}
			if tt.opts.Config == nil {
				t.Error("Validate() should default the config")
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	r := newTestRunner(nil)
	result, err := r.Analyze(context.Background(), Options{InventoryPath: writeInventory(t, testInventory)})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if !strings.HasPrefix(result.Key, "report:") {
		t.Errorf("Key = %q, want report: prefix", result.Key)
	}
	if result.Verified {
		t.Error("Verified should be false without a keyring")
	}

	want := Stats{Archives: 2, Unresolved: 1, Conflicts: 1}
	got := result.Stats
	got.LoadTime, got.AnalyzeTime = 0, 0
	if got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
	if result.Report.Severity != resolve.SeverityCritical {
		t.Errorf("Severity = %s, want critical", result.Report.Severity)
	}
}

func TestAnalyzeKey(t *testing.T) {
	r := newTestRunner(nil)
	path := writeInventory(t, testInventory)
	ctx := context.Background()

	first, err := r.Analyze(ctx, Options{InventoryPath: path})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Analyze(ctx, Options{InventoryPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if first.Key != second.Key {
		t.Error("identical inputs should produce identical keys")
	}
	if first.RunID == second.RunID {
		t.Error("every run should get a fresh RunID")
	}

	cfg := config.Default()
	cfg.Filter.Archives = []string{"util.jar"}
	filtered, err := r.Analyze(ctx, Options{InventoryPath: path, Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	if filtered.Key == first.Key {
		t.Error("filter changes should change the key")
	}
	if filtered.Stats.Suppressed != 1 {
		t.Errorf("Suppressed = %d, want 1", filtered.Stats.Suppressed)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	r := newTestRunner(nil)
	ctx := context.Background()

	_, err := r.Analyze(ctx, Options{InventoryPath: filepath.Join(t.TempDir(), "missing.yaml")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing inventory: got %v", err)
	}

	_, err = r.Analyze(ctx, Options{InventoryPath: writeInventory(t, "archives: [{name: a.jar}]")})
	if !errors.Is(err, errors.ErrCodeInvalidInventory) {
		t.Errorf("invalid inventory: got %v", err)
	}
}

func TestAnalyzeVerified(t *testing.T) {
	signer, err := openpgp.NewEntity("jarscope test", "", "test@example.com", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	if err != nil {
		t.Fatal(err)
	}
	path := writeInventory(t, testInventory)
	dir := filepath.Dir(path)

	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, signer, strings.NewReader(testInventory), nil); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path+".asc", sig.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	var keyring bytes.Buffer
	if err := signer.Serialize(&keyring); err != nil {
		t.Fatal(err)
	}
	keyPath := filepath.Join(dir, "keys.gpg")
	if err := os.WriteFile(keyPath, keyring.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	r := newTestRunner(nil)
	result, err := r.Analyze(context.Background(), Options{InventoryPath: path, KeyringPath: keyPath})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if !result.Verified {
		t.Error("Verified should be set")
	}

	if err := os.WriteFile(path, []byte(testInventory+"# edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = r.Analyze(context.Background(), Options{InventoryPath: path, KeyringPath: keyPath})
	if !errors.Is(err, errors.ErrCodeSignatureInvalid) {
		t.Errorf("tampered inventory: got %v", err)
	}

	_, err = r.Analyze(context.Background(), Options{InventoryPath: path, KeyringPath: keyPath, SignaturePath: path + ".missing"})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing signature: got %v", err)
	}
}

func TestRenderCaches(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(fc)
	ctx := context.Background()

	result, err := r.Analyze(ctx, Options{InventoryPath: writeInventory(t, testInventory)})
	if err != nil {
		t.Fatal(err)
	}

	opts := RenderOptions{Format: render.FormatMarkdown}
	first, hit, err := r.RenderWithCacheInfo(ctx, result, opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first render should miss")
	}
	second, hit, err := r.RenderWithCacheInfo(ctx, result, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second render should hit")
	}
	if !bytes.Equal(first, second) {
		t.Error("cached rendering differs")
	}

	_, hit, err = r.RenderWithCacheInfo(ctx, result, RenderOptions{Format: render.FormatMarkdown, View: render.ViewConflicts})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("a different view should miss")
	}
}

func TestRenderFormats(t *testing.T) {
	r := newTestRunner(nil)
	ctx := context.Background()
	result, err := r.Analyze(ctx, Options{InventoryPath: writeInventory(t, testInventory)})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		format string
		want   string
	}{
		{render.FormatText, "Eliminate Jars"},
		{render.FormatMarkdown, "## Depends On"},
		{render.FormatCSV, "Archive,Depends On"},
		{render.FormatJSON, `"severity": "critical"`},
		{render.FormatHTML, `<tr class="rowodd">`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, err := r.Render(ctx, result, RenderOptions{Format: tt.format})
			if err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("output missing %q\n%s", tt.want, data)
			}
		})
	}

	_, err = r.Render(ctx, result, RenderOptions{Format: "pdf"})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown format: got %v", err)
	}
}

func TestRenderGraph(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(c)
	ctx := context.Background()
	result, err := r.Analyze(ctx, Options{InventoryPath: writeInventory(t, testInventory)})
	if err != nil {
		t.Fatal(err)
	}

	dot, hit, err := r.RenderGraphWithCacheInfo(ctx, result, GraphOptions{Format: render.FormatDOT})
	if err != nil {
		t.Fatal(err)
	}
	if hit || !strings.Contains(string(dot), "digraph") {
		t.Errorf("unexpected DOT output (hit=%v)\n%s", hit, dot)
	}

	// Seed the SVG entry so the lookup does not need graphviz.
	key := r.Keyer.ArtifactKey(cache.Hash([]byte(nodelink.ToDOT(result.Report, nodelink.Options{}))),
		cache.ArtifactKeyOpts{Format: render.FormatSVG})
	if err := c.Set(ctx, key, []byte("<svg/>"), 0); err != nil {
		t.Fatal(err)
	}
	svg, hit, err := r.RenderGraphWithCacheInfo(ctx, result, GraphOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !hit || string(svg) != "<svg/>" {
		t.Errorf("expected cached svg, got hit=%v %q", hit, svg)
	}

	_, err = r.RenderGraph(ctx, result, GraphOptions{Format: "png"})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown graph format: got %v", err)
	}
}

type recordingHooks struct {
	observability.NoopAnalysisHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *recordingHooks) OnLoad(_ context.Context, _ int, _ time.Duration, err error) {
	h.add("load")
}

func (h *recordingHooks) OnAnalyzeStart(context.Context, int) { h.add("start") }

func (h *recordingHooks) OnAnalyzeComplete(_ context.Context, _ int, severity string, _ time.Duration, _ error) {
	h.add("complete:" + severity)
}

func (h *recordingHooks) OnRender(_ context.Context, format string, _ time.Duration, _ error) {
	h.add("render:" + format)
}

func TestAnalyzeHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetAnalysisHooks(hooks)
	t.Cleanup(observability.Reset)

	r := newTestRunner(nil)
	ctx := context.Background()
	result, err := r.Analyze(ctx, Options{InventoryPath: writeInventory(t, testInventory)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Render(ctx, result, RenderOptions{Format: render.FormatJSON}); err != nil {
		t.Fatal(err)
	}

	want := []string{"load", "start", "complete:critical", "render:json"}
	if strings.Join(hooks.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", hooks.events, want)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := OpenCache(ctx, config.Cache{Backend: config.BackendNone}, dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("none backend = %T", c)
	}

	c, err = OpenCache(ctx, config.Cache{Backend: config.BackendFile}, dir)
	if err != nil {
		t.Fatal(err)
	}
	if fc, ok := c.(*cache.FileCache); !ok || fc.Dir() != dir {
		t.Errorf("file backend = %T", c)
	}

	override := filepath.Join(dir, "override")
	c, err = OpenCache(ctx, config.Cache{Backend: config.BackendFile, Dir: override}, dir)
	if err != nil {
		t.Fatal(err)
	}
	if fc := c.(*cache.FileCache); fc.Dir() != override {
		t.Errorf("Dir() = %q, want %q", fc.Dir(), override)
	}

	if _, err := OpenCache(ctx, config.Cache{Backend: "memcached"}, dir); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("unknown backend: got %v", err)
	}
}
