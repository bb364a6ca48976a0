package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IngestedEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "threadloom_ingested_events_total",
		Help: "Events offered to a conversation graph, by outcome",
	}, []string{"outcome"})
	GraphNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "threadloom_graph_nodes",
		Help: "Nodes held by the most recently updated conversation graph",
	})
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "threadloom_refcache_lookups_total",
		Help: "Reference cache lookups, by result",
	}, []string{"result"})
	CacheClears = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "threadloom_refcache_clears_total",
		Help: "Whole-cache clears caused by the size bound",
	})
	PumpBatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "threadloom_pump_batch_duration_seconds",
		Help:    "Time spent draining one batch from the ingest queue",
		Buckets: prometheus.DefBuckets,
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "threadloom_command_runs_total",
		Help: "CLI command runs",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "threadloom_command_errors_total",
		Help: "CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(IngestedEvents, GraphNodes, CacheLookups, CacheClears,
		PumpBatchDuration, CommandRuns, CommandErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// IncIngest counts one ingest outcome ("added", "duplicate", ...).
func IncIngest(outcome string) { IngestedEvents.WithLabelValues(outcome).Inc() }

func SetGraphNodes(n int) { GraphNodes.Set(float64(n)) }

func IncCacheHit()   { CacheLookups.WithLabelValues("hit").Inc() }
func IncCacheMiss()  { CacheLookups.WithLabelValues("miss").Inc() }
func IncCacheClear() { CacheClears.Inc() }

// ObservePumpBatch records how long a batch took.
func ObservePumpBatch(start time.Time) {
	PumpBatchDuration.Observe(time.Since(start).Seconds())
}

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
