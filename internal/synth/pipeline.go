// Package synth runs the full synthesis for a stand collection: region
// selection, per-stand compartment building in parallel, and run
// statistics.
package synth

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/shinji-kodama/standsynth/internal/compartment"
	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/logging"
	"github.com/shinji-kodama/standsynth/internal/metrics"
	"github.com/shinji-kodama/standsynth/internal/model"
	"github.com/shinji-kodama/standsynth/internal/parallel"
	"github.com/shinji-kodama/standsynth/internal/region"
)

// Pipeline wires the selector and the compartment builder together.
type Pipeline struct {
	Selector region.Selector
	Builder  *compartment.Builder

	// Workers caps the number of stands built concurrently; <= 0 uses
	// GOMAXPROCS. Strata within a stand are parallelized separately by the
	// assembler.
	Workers int

	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// StandError records a stand that could not be built.
type StandError struct {
	StandID string `json:"standId"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e StandError) Error() string {
	return "stand " + e.StandID + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e StandError) Unwrap() error {
	return e.Err
}

// Stats summarizes a run.
type Stats struct {
	StandsSelected   int         `json:"standsSelected"`
	Compartments     int         `json:"compartments"`
	Trees            int         `json:"trees"`
	TreesBySpecies   map[int]int `json:"treesBySpecies"`
	RetainedArea     float64     `json:"retainedArea"`
	MeanAreaRatio    float64     `json:"meanAreaRatio"`
	EmptyCompartment int         `json:"emptyCompartments"`
}

// Result is the output of Run.
type Result struct {
	Compartments []model.Compartment
	Selected     []model.Stand
	Skipped      []StandError
	Stats        Stats
}

// Run selects the stands matching roi and builds their compartments. Each
// stand uses its position in the selection as its random stream, so seeded
// runs are reproducible. Stands whose geometry cannot be clipped are
// reported in Result.Skipped; they never abort the run.
func (p *Pipeline) Run(stands []model.Stand, roi *model.RegionOfInterest) Result {
	logger := logging.OrNop(p.Logger)
	builder := p.Builder
	if builder == nil {
		builder = &compartment.Builder{}
	}

	// Step 1: Select the stands of interest.
	selected := p.Selector.Select(stands, roi)
	p.Metrics.StandsSelected(len(selected))
	logger.Info("stands selected", "total", len(stands), "selected", len(selected))

	// Step 2: Build every selected stand in parallel.
	type outcome struct {
		comps []model.Compartment
		err   error
	}
	outcomes := parallel.Map(selected, p.Workers, func(i int, st model.Stand) outcome {
		comps, err := builder.Build(&st, roi, int64(i))
		return outcome{comps: comps, err: err}
	})

	// Step 3: Merge in selection order.
	res := Result{Selected: selected}
	for i, o := range outcomes {
		if o.err != nil {
			logger.Warn("stand skipped", "stand", selected[i].ID, "error", o.err)
			res.Skipped = append(res.Skipped, StandError{StandID: selected[i].ID, Err: o.err})
			continue
		}
		res.Compartments = append(res.Compartments, o.comps...)
	}
	res.Stats = Summarize(res.Compartments, len(selected))

	logger.Info("synthesis finished",
		"compartments", res.Stats.Compartments,
		"trees", res.Stats.Trees,
		"skipped", len(res.Skipped))
	return res
}

// Summarize computes run statistics over comps.
func Summarize(comps []model.Compartment, selected int) Stats {
	st := Stats{
		StandsSelected: selected,
		Compartments:   len(comps),
		TreesBySpecies: make(map[int]int),
	}
	if len(comps) == 0 {
		return st
	}

	areas := make([]float64, len(comps))
	ratios := make([]float64, len(comps))
	for i, c := range comps {
		areas[i] = geometry.Area(c.Polygon)
		ratios[i] = c.AreaRatio
		st.Trees += len(c.Trees)
		if len(c.Trees) == 0 {
			st.EmptyCompartment++
		}
		for sp, n := range c.SpeciesCounts() {
			st.TreesBySpecies[sp] += n
		}
	}
	st.RetainedArea = floats.Sum(areas)
	st.MeanAreaRatio = floats.Sum(ratios) / float64(len(ratios))
	return st
}

// Species returns the species codes of st in ascending order.
func (st Stats) Species() []int {
	out := make([]int, 0, len(st.TreesBySpecies))
	for sp := range st.TreesBySpecies {
		out = append(out, sp)
	}
	sort.Ints(out)
	return out
}
