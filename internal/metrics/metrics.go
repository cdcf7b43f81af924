package metrics

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cruciblehq/cdc/internal/exit"
)

const (

	// Metric namespace.
	Namespace = "cdc"

	// Name of the file written to the textfile collector directory.
	FileName = "cdc.prom"
)

// Invocation outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)

// Result of one invocation.
type Run struct {
	Err          error         // Error returned by the job, nil on success.
	Duration     time.Duration // Wall time of the job.
	CoreBytes    int64         // Bytes copied into the core entry.
	Enriched     bool          // Whether the runtime lookup succeeded.
	EventWritten bool          // Whether an event record was persisted.
	Finished     time.Time     // When the job ended.
}

// Metrics of the last composer invocation.
type Metrics struct {
	registry *prometheus.Registry

	Outcome      *prometheus.GaugeVec
	Duration     prometheus.Gauge
	CoreBytes    prometheus.Gauge
	Enriched     prometheus.Gauge
	EventWritten prometheus.Gauge
	LastRun      prometheus.Gauge
}

// Creates the metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Outcome: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_outcome",
				Help:      "Outcome of the last invocation, 1 for the matching outcome",
			},
			[]string{"outcome", "exit_code"},
		),
		Duration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_duration_seconds",
			Help:      "Wall time of the last invocation",
		}),
		CoreBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_core_bytes",
			Help:      "Bytes of core dump read by the last invocation",
		}),
		Enriched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_enriched",
			Help:      "Whether the last invocation found the crashed container",
		}),
		EventWritten: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_event_written",
			Help:      "Whether the last invocation wrote an event record",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last invocation ended",
		}),
	}
}

// Records the result of an invocation.
func (m *Metrics) Observe(r Run) {
	code := exit.Code(r.Err)
	m.Outcome.WithLabelValues(Outcome(r.Err), strconv.Itoa(code)).Set(1)
	m.Duration.Set(r.Duration.Seconds())
	m.CoreBytes.Set(float64(r.CoreBytes))
	m.Enriched.Set(boolValue(r.Enriched))
	m.EventWritten.Set(boolValue(r.EventWritten))
	m.LastRun.Set(float64(r.Finished.Unix()))
}

// Writes the metrics to dir/[FileName], replacing the previous file
// atomically.
func (m *Metrics) WriteTo(dir string) error {
	return prometheus.WriteToTextfile(filepath.Join(dir, FileName), m.registry)
}

// Classifies a job error.
func Outcome(err error) string {
	switch exit.Code(err) {
	case exit.OK:
		return OutcomeSuccess
	case exit.Timeout:
		return OutcomeTimeout
	default:
		return OutcomeFailure
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
