package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/persistorai/conceptmap/internal/metrics"
)

// newMetricsServer exposes /metrics on its own listener so scrapes bypass
// the API's rate limits and CORS.
func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// poolStatter is satisfied by *dbpool.Pool.
type poolStatter interface {
	Stats() (acquired, idle int32)
}

// reportPoolStats samples pool occupancy into the DBConnections gauge until
// ctx is cancelled.
func reportPoolStats(ctx context.Context, pool poolStatter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		acquired, idle := pool.Stats()
		metrics.DBConnections.WithLabelValues("acquired").Set(float64(acquired))
		metrics.DBConnections.WithLabelValues("idle").Set(float64(idle))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
