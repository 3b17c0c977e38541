// Package metrics exposes the Prometheus collectors for the panel.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Option record mutations (appends, clears, property sets)
	OptionMutationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coordpanel_option_mutations_total",
		Help: "Total number of option record mutations",
	})

	// Formatter backend calls
	FormatCallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coordpanel_format_calls_total",
		Help: "Total number of formatter backend calls",
	})

	FormatErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coordpanel_format_errors_total",
		Help: "Total number of failed formatter backend calls",
	})

	FormatDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coordpanel_format_duration_seconds",
		Help:    "Time taken by one formatter backend call",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})

	// Basemap tile proxy cache
	TileCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coordpanel_tile_cache_hits_total",
		Help: "Total number of tile requests served from the disk cache",
	})

	TileCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coordpanel_tile_cache_misses_total",
		Help: "Total number of tile requests fetched from upstream",
	})

	// Connected websocket panels
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coordpanel_ws_clients",
		Help: "Number of connected websocket clients",
	})

	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coordpanel_http_request_duration_seconds",
		Help:    "Time taken to serve an HTTP request",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~8s
	})
)

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
