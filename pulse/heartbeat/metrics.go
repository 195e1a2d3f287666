package heartbeat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// MetricsNamespace is the namespace for all heartbeat metrics.
	MetricsNamespace = "orion"

	// MetricsSubsystem is the subsystem for heartbeat metrics.
	MetricsSubsystem = "heartbeat"
)

// Task outcome label values
const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds Prometheus instruments for the heartbeat.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	PulsesTotal              prometheus.Counter
	TaskExecutionsTotal      *prometheus.CounterVec
	TaskDurationSeconds      *prometheus.HistogramVec
	TickDurationSeconds      prometheus.Histogram
	PersistenceFailuresTotal prometheus.Counter
	Running                  prometheus.Gauge
	LastPulseTimestamp       prometheus.Gauge
}

// NewMetrics creates and registers heartbeat metrics on reg
// (prometheus.DefaultRegisterer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PulsesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "pulses_total",
			Help:      "Total number of heartbeat pulses produced by this process",
		}),
		TaskExecutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "task_executions_total",
			Help:      "Task execution attempts by outcome",
		}, []string{"task", "status"}),
		TaskDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "task_duration_seconds",
			Help:      "Duration of task actions in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}, []string{"task"}),
		TickDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "tick_duration_seconds",
			Help:      "Duration of a full tick including persistence",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		PersistenceFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "persistence_failures_total",
			Help:      "Ticks whose pulse log append or state save failed",
		}),
		Running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "running",
			Help:      "1 while the background loop is running",
		}),
		LastPulseTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "last_pulse_timestamp_seconds",
			Help:      "Unix time of the most recent pulse",
		}),
	}
}

func (m *Metrics) observeExecution(task string, o Outcome) {
	if m == nil {
		return
	}
	status := statusSuccess
	if !o.Success {
		status = statusError
	}
	m.TaskExecutionsTotal.WithLabelValues(task, status).Inc()
	m.TaskDurationSeconds.WithLabelValues(task).Observe(float64(o.DurationMs) / 1000)
}

func (m *Metrics) observePulse(p *Pulse, seconds float64, persistErr error) {
	if m == nil {
		return
	}
	m.PulsesTotal.Inc()
	m.TickDurationSeconds.Observe(seconds)
	m.LastPulseTimestamp.Set(float64(p.Timestamp.Unix()))
	if persistErr != nil {
		m.PersistenceFailuresTotal.Inc()
	}
}

func (m *Metrics) setRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.Running.Set(1)
	} else {
		m.Running.Set(0)
	}
}
