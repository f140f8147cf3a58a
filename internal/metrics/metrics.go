package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the board server.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// LoadsGenerated counts synthetic loads produced per simulated day
	LoadsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sim_loads_generated_total", Help: "Synthetic loads generated."},
	)
	// TripsAssigned counts trips produced by the greedy matcher
	TripsAssigned = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sim_trips_assigned_total", Help: "Trips assigned by the matcher."},
	)
	// RepeatFallbacks counts times the anti-repeat filter had to allow repeats
	RepeatFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sim_repeat_fallbacks_total", Help: "Anti-repeat filter fallbacks."},
	)
	// MergeDuplicates counts ledger rows dropped by dedup on merge
	MergeDuplicates = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ledger_merge_duplicates_total", Help: "Duplicate trip records dropped on merge."},
	)
	// BackfillDays counts simulated days processed by backfills
	BackfillDays = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sim_backfill_days_total", Help: "Simulated days processed by backfill."},
	)
	// LedgerRecovered counts reads that degraded to an empty ledger
	LedgerRecovered = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ledger_recovered_reads_total", Help: "Ledger reads recovered from missing or corrupt state."},
	)
)

// RegisterDefault registers collectors to the board registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(LoadsGenerated)
		Registry.MustRegister(TripsAssigned)
		Registry.MustRegister(RepeatFallbacks)
		Registry.MustRegister(MergeDuplicates)
		Registry.MustRegister(BackfillDays)
		Registry.MustRegister(LedgerRecovered)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
