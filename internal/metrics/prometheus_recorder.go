package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitebuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	cycleDuration  prom.Histogram
	cycleOutcomes  *prom.CounterVec
	unitDuration   *prom.HistogramVec
	unitResults    *prom.CounterVec
	selected       prom.Gauge
	manifestWrites *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		cycleDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of complete build cycles",
			Buckets:   prom.DefBuckets,
		}),
		cycleOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_outcomes_total",
			Help:      "Build cycles by final status",
		}, []string{"outcome"}),
		unitDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "unit_duration_seconds",
			Help:      "Duration of individual resource conversions",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		unitResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "unit_results_total",
			Help:      "Resource conversion results by kind",
		}, []string{"kind", "result"}),
		selected: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "selected_resources",
			Help:      "Resources selected for conversion in the last cycle",
		}),
		manifestWrites: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "manifest_writes_total",
			Help:      "Manifest persistence attempts by result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.cycleDuration, pr.cycleOutcomes, pr.unitDuration, pr.unitResults, pr.selected, pr.manifestWrites)
	return pr
}

func (p *PrometheusRecorder) ObserveCycleDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.cycleDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCycleOutcome(outcome CycleOutcomeLabel) {
	if p == nil {
		return
	}
	p.cycleOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveUnitDuration(kind string, d time.Duration) {
	if p == nil {
		return
	}
	p.unitDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncUnitResult(kind string, result ResultLabel) {
	if p == nil {
		return
	}
	p.unitResults.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) SetSelected(n int) {
	if p == nil {
		return
	}
	p.selected.Set(float64(n))
}

func (p *PrometheusRecorder) IncManifestWrite(result ResultLabel) {
	if p == nil {
		return
	}
	p.manifestWrites.WithLabelValues(string(result)).Inc()
}
