package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsExposure(t *testing.T) {
	IncIngest("added")
	SetGraphNodes(3)
	IncCacheHit()
	IncCacheMiss()
	IncCacheClear()
	IncCommandRun("test")
	IncCommandError("test")
	ObservePumpBatch(time.Now().Add(-1500 * time.Millisecond))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, m := range []string{
		"threadloom_ingested_events_total",
		"threadloom_graph_nodes",
		"threadloom_refcache_lookups_total",
		"threadloom_refcache_clears_total",
		"threadloom_pump_batch_duration_seconds",
		"threadloom_command_runs_total",
		"threadloom_command_errors_total",
	} {
		if !strings.Contains(body, m) {
			t.Fatalf("expected metric %s in body", m)
		}
	}
}
