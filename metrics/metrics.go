package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psgc_http_requests_total",
		Help: "Total number of HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "psgc_http_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"method", "route"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psgc_cache_hits_total",
		Help: "Total response cache hits",
	}, []string{"entity"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psgc_cache_misses_total",
		Help: "Total response cache misses",
	}, []string{"entity"})
	ImportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psgc_import_rows_total",
		Help: "Rows written by the import pipeline (including dry runs)",
	}, []string{"table"})
	ImportRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psgc_import_runs_total",
		Help: "Import runs by final state",
	}, []string{"state"})
	ExportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "psgc_export_rows_total",
		Help: "Rows written by the exporter",
	}, []string{"table", "format"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(ImportRowsTotal)
	prometheus.MustRegister(ImportRunsTotal)
	prometheus.MustRegister(ExportRowsTotal)
}

// Handler exposes the default registry for scraping
func Handler() http.Handler { return promhttp.Handler() }
