// Package population turns the strata of a polygon into individual trees.
//
// Each stratum is an independent sampling task: it gets its own radius,
// its own sampler call and its own random generator. Tasks run in parallel
// and their trees are flattened into one population. A stratum that cannot
// be sampled contributes no trees; it never fails the polygon.
package population

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/ctessum/geom"

	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/logging"
	"github.com/shinji-kodama/standsynth/internal/metrics"
	"github.com/shinji-kodama/standsynth/internal/model"
	"github.com/shinji-kodama/standsynth/internal/parallel"
	"github.com/shinji-kodama/standsynth/internal/sampling"
)

// UseStemCount as a target means "sample the stratum stem count as is".
const UseStemCount = -1

// DefaultHeightJitter is the half-width of the height band around the
// stratum mean height, in metres.
const DefaultHeightJitter = 2.0

// Assembler generates the tree population of a polygon.
type Assembler struct {
	Estimator sampling.RadiusEstimator
	Sampler   sampling.Sampler

	// HeightJitter is the half-width of the uniform band around the mean
	// height. Zero gives every tree the exact mean height.
	HeightJitter float64

	// Rand supplies one generator per stratum task. Nil uses EntropyRand.
	Rand sampling.RandFactory

	// Workers caps the number of concurrent stratum tasks; <= 0 uses
	// GOMAXPROCS.
	Workers int

	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// NewAssembler returns an Assembler with the canonical estimator and
// sampler.
func NewAssembler() *Assembler {
	return &Assembler{
		Estimator:    sampling.HexPacking{},
		Sampler:      sampling.HexGrid{Jitter: sampling.DefaultJitter},
		HeightJitter: DefaultHeightJitter,
	}
}

// Assemble samples every stratum over poly and returns the merged trees.
//
// targets holds the number of trees wanted per stratum, index-aligned with
// strata; UseStemCount (or a missing entry) falls back to the stratum stem
// count. stream identifies the polygon for the random generators.
func (a *Assembler) Assemble(poly geom.Polygon, strata []model.Stratum, targets []int, stream int64) []model.Tree {
	if len(strata) == 0 || geometry.IsEmpty(poly) {
		return nil
	}
	area := geometry.Area(poly)

	parts := parallel.Map(strata, a.Workers, func(i int, st model.Stratum) []model.Tree {
		target := UseStemCount
		if i < len(targets) {
			target = targets[i]
		}
		return a.sampleStratum(poly, area, st, target, a.randFor(stream, int64(i)))
	})
	return parallel.Flatten(parts)
}

func (a *Assembler) sampleStratum(poly geom.Polygon, area float64, st model.Stratum, target int, rng *rand.Rand) []model.Tree {
	logger := logging.OrNop(a.Logger).With("species", st.Species)

	stems, ok := st.Stems()
	if !ok {
		logger.Debug("stratum has no stem count, skipping")
		a.Metrics.StratumSkipped(metrics.ReasonMissingStemCount)
		return nil
	}
	if target == UseStemCount || target < 0 {
		target = stems
	}
	if target == 0 {
		logger.Debug("stratum target is zero, skipping")
		a.Metrics.StratumSkipped(metrics.ReasonZeroTarget)
		return nil
	}
	if !(st.MeanHeight > 0) {
		logger.Debug("stratum mean height is not positive, skipping", "mean_height", st.MeanHeight)
		a.Metrics.StratumSkipped(metrics.ReasonInvalidHeight)
		return nil
	}

	basal, _ := st.Basal()
	radius, err := a.Estimator.Radius(sampling.RadiusInput{
		StemCount:  target,
		Area:       area,
		BasalArea:  basal,
		MeanHeight: st.MeanHeight,
	})
	if err != nil {
		logger.Debug("radius estimation failed, skipping", "error", err)
		a.Metrics.StratumSkipped(metrics.ReasonRadius)
		return nil
	}

	start := time.Now()
	pts := a.Sampler.Sample(poly, radius, target, rng)
	a.Metrics.ObserveSampling(time.Since(start))

	if len(pts) == 0 {
		logger.Debug("sampler returned no points", "radius", radius, "target", target)
		a.Metrics.StratumSkipped(metrics.ReasonNoPoints)
		return nil
	}

	trees := make([]model.Tree, len(pts))
	for i, pt := range pts {
		trees[i] = model.Tree{
			Species: st.Species,
			Height:  a.height(st.MeanHeight, rng),
			X:       pt.X,
			Y:       pt.Y,
		}
	}
	a.Metrics.TreesGenerated(st.Species, len(trees))
	logger.Debug("stratum sampled", "radius", radius, "target", target, "trees", len(trees))
	return trees
}

// height draws a height uniformly in mean ± HeightJitter and falls back to
// the mean when the draw is not positive.
func (a *Assembler) height(mean float64, rng *rand.Rand) float64 {
	if a.HeightJitter <= 0 {
		return mean
	}
	h := mean + (rng.Float64()*2-1)*a.HeightJitter
	if h <= 0 {
		return mean
	}
	return h
}

func (a *Assembler) randFor(stream, task int64) *rand.Rand {
	if a.Rand == nil {
		return sampling.EntropyRand()(stream, task)
	}
	return a.Rand(stream, task)
}
