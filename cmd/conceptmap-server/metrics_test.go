package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/persistorai/conceptmap/internal/metrics"
)

type fakePool struct{ acquired, idle int32 }

func (p fakePool) Stats() (int32, int32) { return p.acquired, p.idle }

func TestReportPoolStats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reportPoolStats(ctx, fakePool{acquired: 3, idle: 7}, time.Hour)

	if got := testutil.ToFloat64(metrics.DBConnections.WithLabelValues("acquired")); got != 3 {
		t.Errorf("acquired = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.DBConnections.WithLabelValues("idle")); got != 7 {
		t.Errorf("idle = %v, want 7", got)
	}
}

func TestMetricsServer_ServesRegistry(t *testing.T) {
	metrics.CacheLookups.WithLabelValues("hit").Inc()

	srv := newMetricsServer("127.0.0.1:0")
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "conceptmap_cache_lookups_total") {
		t.Error("expected conceptmap metrics in exposition")
	}
}
