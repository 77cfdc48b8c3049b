package prom

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/jarscope/pkg/observability"
)

func TestAnalysisMetrics(t *testing.T) {
	ctx := context.Background()
	m := New()

	m.OnLoad(ctx, 42, time.Millisecond, nil)
	m.OnLoad(ctx, 0, time.Millisecond, errors.New("bad inventory"))
	m.OnAnalyzeComplete(ctx, 42, "warning", time.Second, nil)
	m.OnAnalyzeComplete(ctx, 42, "", time.Second, context.Canceled)
	m.OnRender(ctx, "svg", time.Millisecond, nil)

	if got := testutil.ToFloat64(m.LoadedArchives); got != 42 {
		t.Errorf("inventory_archives = %v, want 42", got)
	}
	if got := testutil.ToFloat64(m.LoadsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("failed loads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("warning")); got != 1 {
		t.Errorf("warning analyses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("failed analyses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RendersTotal.WithLabelValues("svg", "ok")); got != 1 {
		t.Errorf("svg renders = %v, want 1", got)
	}
}

func TestCacheAndHTTPMetrics(t *testing.T) {
	ctx := context.Background()
	m := New()

	m.OnCacheMiss(ctx, "artifact")
	m.OnCacheSet(ctx, "artifact", 2048)
	m.OnCacheHit(ctx, "artifact")
	m.OnCacheHit(ctx, "artifact")

	if got := testutil.ToFloat64(m.CacheOps.WithLabelValues("artifact", "hit")); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheBytes.WithLabelValues("artifact")); got != 2048 {
		t.Errorf("cache bytes = %v, want 2048", got)
	}

	m.OnRequest(ctx, "GET", "/healthz")
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.OnResponse(ctx, "GET", "/healthz", 200, time.Millisecond)
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.OnAnalyzeComplete(context.Background(), 3, "info", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `jarscope_analyses_total{severity="info"} 1`) {
		t.Errorf("metrics output missing analyses counter:\n%s", body)
	}
}

func TestInstall(t *testing.T) {
	t.Cleanup(observability.Reset)
	m := New()
	m.Install()
	if observability.Analysis() != m || observability.Cache() != m || observability.HTTP() != m {
		t.Error("Install should register m for every hook category")
	}
}
