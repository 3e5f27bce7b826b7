package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	pushed   *prometheus.CounterVec
	pending  *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddPushed counts sync records acknowledged by the remote for a tenant.
func (m *Metrics) AddPushed(tenant string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.pushed.WithLabelValues(tenant).Add(float64(count))
}

// SetPending records the outbox depth left for a tenant after a push.
func (m *Metrics) SetPending(tenant string, pending int64) {
	if m == nil {
		return
	}
	m.pending.WithLabelValues(tenant).Set(float64(pending))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retail_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	pushed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_outbox_pushed_total",
		Help: "Sync records acknowledged by the remote mirror.",
	}, []string{"tenant"})
	pending := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "retail_outbox_pending",
		Help: "Sync records still pending after the last push.",
	}, []string{"tenant"})
	registerer.MustRegister(runs, failures, duration, pushed, pending)
	return &Metrics{runs: runs, failures: failures, duration: duration, pushed: pushed, pending: pending}
}
