// Package compartment clips stands to a region of interest and populates
// the clipped pieces with trees.
//
// Clipping keeps stand density constant: each stratum target is scaled by
// the fraction of the stand area that survives the clip, so a compartment
// covering a quarter of a stand receives about a quarter of its trees.
package compartment

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"

	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/logging"
	"github.com/shinji-kodama/standsynth/internal/model"
	"github.com/shinji-kodama/standsynth/internal/population"
)

// fullAreaTolerance is the relative area difference under which a clip is
// treated as the unchanged stand.
const fullAreaTolerance = 1e-9

// Builder builds the compartments of one stand.
type Builder struct {
	Assembler *population.Assembler

	// Policy decides how disjoint clip components are handled. The zero
	// value behaves as model.PolicyLargest.
	Policy model.ComponentPolicy
}

// Build clips stand to roi and synthesizes trees for the result. A nil roi
// means the whole stand. A stand that does not overlap roi, and a roi
// without area, yield no compartments and no error. An error is returned only when the clipping
// library fails on the stand geometry.
func (b *Builder) Build(stand *model.Stand, roi *model.RegionOfInterest, stream int64) ([]model.Compartment, error) {
	standArea := geometry.Area(stand.Polygon)
	if standArea <= 0 {
		return nil, nil
	}
	asm := b.Assembler
	if asm == nil {
		asm = population.NewAssembler()
	}

	// Step 1: Clip the stand to the region of interest.
	pieces, err := b.clip(stand, roi, standArea)
	if err != nil {
		return nil, fmt.Errorf("stand %s: %w", stand.ID, err)
	}
	if len(pieces) == 0 {
		return nil, nil
	}

	// Step 2: Resolve strata. A stand without survey data still yields
	// its compartments, just without trees.
	strata, err := stand.LatestStrata()
	if err != nil && !errors.Is(err, model.ErrMissingStrata) {
		return nil, err
	}
	if err != nil {
		logging.OrNop(asm.Logger).Debug("stand has no strata", "stand", stand.ID)
	}

	// Step 3: Scale the stratum targets by each piece's area ratio and
	// populate it.
	ratios := make([]float64, len(pieces))
	for i, p := range pieces {
		ratios[i] = p.ratio
	}
	targets := ApportionTargets(strata, ratios)

	comps := make([]model.Compartment, 0, len(pieces))
	for i, p := range pieces {
		comp := model.Compartment{
			StandID:   stand.ID,
			Component: p.index,
			Polygon:   p.polygon,
			AreaRatio: p.ratio,
		}
		if len(strata) > 0 {
			comp.Trees = asm.Assemble(p.polygon, strata, targets[i], stream*1024+int64(i))
		}
		asm.Metrics.CompartmentBuilt()
		comps = append(comps, comp)
	}
	return comps, nil
}

// ScaleTargets returns round(StemCount × ratio) for every stratum, or
// population.UseStemCount for strata without a stem count.
func ScaleTargets(strata []model.Stratum, ratio float64) []int {
	targets := make([]int, len(strata))
	for i, st := range strata {
		n, ok := st.Stems()
		if !ok {
			targets[i] = population.UseStemCount
			continue
		}
		targets[i] = int(math.Round(float64(n) * ratio))
	}
	return targets
}

// ApportionTargets splits the stratum targets between pieces with the given
// area ratios. For every stratum the pieces together receive
// round(StemCount × sum of ratios), shared by largest remainder: each piece
// gets the floor of its exact share and the leftover trees go to the pieces
// with the largest fractional parts, earliest first on ties. A single piece
// gets exactly ScaleTargets. Strata without a stem count get
// population.UseStemCount in every piece.
func ApportionTargets(strata []model.Stratum, ratios []float64) [][]int {
	out := make([][]int, len(ratios))
	for i := range out {
		out[i] = make([]int, len(strata))
	}
	if len(ratios) == 0 {
		return out
	}

	order := make([]int, len(ratios))
	fracs := make([]float64, len(ratios))
	for s, st := range strata {
		n, ok := st.Stems()
		if !ok {
			for i := range out {
				out[i][s] = population.UseStemCount
			}
			continue
		}

		var sum float64
		assigned := 0
		for i, r := range ratios {
			exact := float64(n) * r
			floor := math.Floor(exact)
			out[i][s] = int(floor)
			fracs[i] = exact - floor
			order[i] = i
			assigned += int(floor)
			sum += r
		}

		left := int(math.Round(float64(n)*sum)) - assigned
		sort.SliceStable(order, func(a, b int) bool {
			return fracs[order[a]] > fracs[order[b]]
		})
		for k := 0; k < left && k < len(order); k++ {
			out[order[k]][s]++
		}
	}
	return out
}

type piece struct {
	polygon geom.Polygon
	index   int
	ratio   float64
}

func (b *Builder) clip(stand *model.Stand, roi *model.RegionOfInterest, standArea float64) ([]piece, error) {
	if roi == nil {
		return []piece{{polygon: stand.Polygon, ratio: 1}}, nil
	}
	if geometry.Area(roi.Polygon) <= 0 {
		return nil, nil
	}

	clipped, err := geometry.Intersect(stand.Polygon, roi.Polygon)
	if err != nil {
		return nil, err
	}
	clippedArea := geometry.Area(clipped)
	if clippedArea <= 0 {
		return nil, nil
	}
	if math.Abs(clippedArea-standArea) <= fullAreaTolerance*standArea {
		return []piece{{polygon: stand.Polygon, ratio: 1}}, nil
	}

	comps := geometry.Components(clipped)
	if len(comps) == 0 {
		return nil, nil
	}

	if b.Policy == model.PolicyEach {
		pieces := make([]piece, 0, len(comps))
		for i, c := range comps {
			if a := geometry.Area(c); a > 0 {
				pieces = append(pieces, piece{polygon: c, index: i, ratio: ratio(a, standArea)})
			}
		}
		return pieces, nil
	}

	largest, idx, _ := geometry.Largest(comps)
	return []piece{{polygon: largest, index: idx, ratio: ratio(geometry.Area(largest), standArea)}}, nil
}

func ratio(part, whole float64) float64 {
	r := part / whole
	switch {
	case math.IsNaN(r) || r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
