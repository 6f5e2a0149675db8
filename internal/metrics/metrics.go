// Package metrics collects run counters for standsynth in a private
// Prometheus registry.
//
// The CLI is a batch tool, so nothing is served over HTTP: the registry is
// written once per run with WriteFile in the node-exporter textfile format.
// All Recorder methods are safe on a nil receiver, which lets library code
// record unconditionally.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons reported by StratumSkipped.
const (
	ReasonMissingStemCount = "missing_stem_count"
	ReasonZeroTarget       = "zero_target"
	ReasonInvalidHeight    = "invalid_height"
	ReasonRadius           = "radius_error"
	ReasonNoPoints         = "no_points"
)

// Recorder owns the registry and the collectors of one run.
type Recorder struct {
	registry *prometheus.Registry

	standsSelected prometheus.Counter
	compartments   prometheus.Counter
	trees          *prometheus.CounterVec
	strataSkipped  *prometheus.CounterVec
	samplingTime   prometheus.Histogram
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		standsSelected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "standsynth_stands_selected_total",
			Help: "Total number of stands selected by the region of interest",
		}),
		compartments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "standsynth_compartments_total",
			Help: "Total number of compartments built",
		}),
		trees: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "standsynth_trees_total",
			Help: "Total number of synthesized trees by species code",
		}, []string{"species"}),
		strataSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "standsynth_strata_skipped_total",
			Help: "Strata that produced no trees, by reason",
		}, []string{"reason"}),
		samplingTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "standsynth_stratum_sampling_seconds",
			Help:    "Time spent sampling a single stratum",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
	r.registry.MustRegister(r.standsSelected, r.compartments, r.trees, r.strataSkipped, r.samplingTime)
	return r
}

// StandsSelected adds n selected stands.
func (r *Recorder) StandsSelected(n int) {
	if r == nil {
		return
	}
	r.standsSelected.Add(float64(n))
}

// CompartmentBuilt counts one compartment.
func (r *Recorder) CompartmentBuilt() {
	if r == nil {
		return
	}
	r.compartments.Inc()
}

// TreesGenerated adds n trees of the given species.
func (r *Recorder) TreesGenerated(species, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.trees.WithLabelValues(strconv.Itoa(species)).Add(float64(n))
}

// StratumSkipped counts a stratum that produced no trees.
func (r *Recorder) StratumSkipped(reason string) {
	if r == nil {
		return
	}
	r.strataSkipped.WithLabelValues(reason).Inc()
}

// ObserveSampling records the duration of one stratum sampling call.
func (r *Recorder) ObserveSampling(d time.Duration) {
	if r == nil {
		return
	}
	r.samplingTime.Observe(d.Seconds())
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteFile writes all metrics to path in the text exposition format. The
// file is written atomically so a textfile collector never sees a partial
// file.
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
