package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Mission lifecycle metrics
	MissionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prospector_missions_total",
			Help: "Total number of missions by status",
		},
		[]string{"status"},
	)

	MissionsAssignedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prospector_missions_assigned_total",
			Help: "Total number of missions handed out via assign",
		},
	)

	MissionsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prospector_missions_completed_total",
			Help: "Total number of missions marked completed",
		},
	)

	MissionsRequeuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prospector_missions_requeued_total",
			Help: "Total number of missions requeued by the zombie sweep",
		},
	)

	AssignDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prospector_assign_duration_seconds",
			Help:    "Time taken to assign a queued mission from the tactical store",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Dispatch buffer metrics
	DispatchBufferDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prospector_dispatch_buffer_depth",
			Help: "Current number of pre-allocated missions waiting in the dispatch buffer",
		},
	)

	HydrationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prospector_hydration_cycles_total",
			Help: "Total number of hydrator daemon cycles run",
		},
	)

	HydrationVolumeTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prospector_hydration_volume_total",
			Help: "Total number of missions pre-allocated by the hydrator daemon",
		},
	)

	// Finding vault / archival metrics
	FindingsDepositedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prospector_findings_deposited_total",
			Help: "Total number of findings deposited into the vault",
		},
	)

	FindingsFlushedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prospector_findings_flushed_total",
			Help: "Total number of findings persisted to the tactical store",
		},
	)

	ArchivalLagSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prospector_archival_lag_seconds",
			Help: "Age of the oldest un-archived completed mission in seconds",
		},
	)

	ArchivalDriftTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prospector_archival_drift_events_total",
			Help: "Total number of parity-audit drift events emitted",
		},
	)

	ArchivalRelayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prospector_archival_relay_duration_seconds",
			Help:    "Time taken for one archival relay drain cycle",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stream"},
	)

	// Resurrection / autoscaler metrics
	ZombieSweepFoundTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prospector_zombie_sweep_found_total",
			Help: "Total number of abandoned missions detected by the zombie sweep",
		},
	)

	ExpansionSignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospector_expansion_signals_total",
			Help: "Total number of external capacity expansion signals sent, by outcome",
		},
		[]string{"outcome"},
	)

	// Operational nexus metrics
	NexusMode = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prospector_nexus_mode",
			Help: "Current operational mode (0=FullExecution, 1=GracefulPause, 2=EmergencyStop)",
		},
	)

	NexusIntegrity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prospector_nexus_integrity",
			Help: "Current integrity status (0=AwaitingCertification, 1=CertificationInProgress, 2=CertifiedOperational, 3=Compromised)",
		},
	)

	// Filter / census metrics
	FilterQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospector_filter_queries_total",
			Help: "Total number of census filter membership queries, by verdict",
		},
		[]string{"verdict"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospector_api_requests_total",
			Help: "Total number of API requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prospector_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Worker-side strategy engine metrics
	EffortTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospector_effort_total",
			Help: "Total number of candidates evaluated, by strategy kind",
		},
		[]string{"strategy"},
	)
)

func init() {
	prometheus.MustRegister(MissionsTotal)
	prometheus.MustRegister(MissionsAssignedTotal)
	prometheus.MustRegister(MissionsCompletedTotal)
	prometheus.MustRegister(MissionsRequeuedTotal)
	prometheus.MustRegister(AssignDuration)

	prometheus.MustRegister(DispatchBufferDepth)
	prometheus.MustRegister(HydrationCyclesTotal)
	prometheus.MustRegister(HydrationVolumeTotal)

	prometheus.MustRegister(FindingsDepositedTotal)
	prometheus.MustRegister(FindingsFlushedTotal)
	prometheus.MustRegister(ArchivalLagSeconds)
	prometheus.MustRegister(ArchivalDriftTotal)
	prometheus.MustRegister(ArchivalRelayDuration)

	prometheus.MustRegister(ZombieSweepFoundTotal)
	prometheus.MustRegister(ExpansionSignalsTotal)

	prometheus.MustRegister(NexusMode)
	prometheus.MustRegister(NexusIntegrity)

	prometheus.MustRegister(FilterQueriesTotal)

	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)

	prometheus.MustRegister(EffortTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
