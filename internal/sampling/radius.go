package sampling

import (
	"fmt"
	"math"

	"github.com/shinji-kodama/standsynth/internal/model"
)

// sparseTrees is the stem count below which the packing ratio is relaxed.
const sparseTrees = 250.0

// hexPackingDensity is the fraction of the plane covered by equal circles
// in hexagonal packing, π/(2√3).
var hexPackingDensity = math.Pi / (2 * math.Sqrt(3))

// RadiusInput carries the statistics of one sampling unit.
type RadiusInput struct {
	// StemCount is the number of trees to place in the sampled polygon.
	StemCount int

	// Area is the area of the sampled polygon in m².
	Area float64

	// BasalArea is the stratum basal area in m²/ha.
	BasalArea float64

	// MeanHeight is the stratum mean height in metres.
	MeanHeight float64
}

// RadiusEstimator derives the sampling radius for a sampling unit.
// Implementations return a strictly positive, finite radius or an error.
type RadiusEstimator interface {
	Radius(in RadiusInput) (float64, error)
}

// HexPacking spaces trees so that StemCount hexagonally packed circles
// cover Area, with a correction that loosens the packing for sparse units.
type HexPacking struct{}

// Radius implements RadiusEstimator.
func (HexPacking) Radius(in RadiusInput) (float64, error) {
	if in.StemCount <= 0 {
		return 0, fmt.Errorf("stem count %d: %w", in.StemCount, model.ErrZeroDensity)
	}
	if !(in.Area > 0) || math.IsInf(in.Area, 0) {
		return 0, fmt.Errorf("area %g: %w", in.Area, model.ErrEmptyGeometry)
	}
	return packedRadius(in.Area, float64(in.StemCount))
}

// BasalAreaPacking uses the basal area as the area proxy and the
// per-hectare stem count normalized by it as the tree count.
type BasalAreaPacking struct{}

// Radius implements RadiusEstimator.
func (BasalAreaPacking) Radius(in RadiusInput) (float64, error) {
	if in.StemCount <= 0 {
		return 0, fmt.Errorf("stem count %d: %w", in.StemCount, model.ErrZeroDensity)
	}
	if !(in.BasalArea > 0) {
		return 0, fmt.Errorf("basal area %g: %w", in.BasalArea, model.ErrInvalidStatistic)
	}
	return packedRadius(in.BasalArea, Normalize(in.StemCount, in.BasalArea))
}

// HeightDivisor scales the radius with tree height: taller trees stand
// further apart.
type HeightDivisor struct {
	Divisor float64
}

// Radius implements RadiusEstimator.
func (h HeightDivisor) Radius(in RadiusInput) (float64, error) {
	if !(h.Divisor > 0) {
		return 0, fmt.Errorf("height divisor %g: %w", h.Divisor, model.ErrInvalidStatistic)
	}
	if !(in.MeanHeight > 0) {
		return 0, fmt.Errorf("mean height %g: %w", in.MeanHeight, model.ErrInvalidStatistic)
	}
	return checked(in.MeanHeight / h.Divisor)
}

// Fixed always returns the same radius.
type Fixed struct {
	Value float64
}

// Radius implements RadiusEstimator.
func (f Fixed) Radius(RadiusInput) (float64, error) {
	return checked(f.Value)
}

// Normalize converts a per-hectare stem density into a tree count for the
// given area in m².
func Normalize(stemsPerHectare int, area float64) float64 {
	return float64(stemsPerHectare) * area / 10000
}

// RatioFix is the packing correction for n trees. It rises linearly from
// 0.7 for an empty unit to 1.3 at sparseTrees and stays at 1.3 above it.
func RatioFix(n float64) float64 {
	if n < sparseTrees {
		return 1.3 - 0.6*(1-max(n, 0)/sparseTrees)
	}
	return 1.3
}

func packedRadius(area, n float64) (float64, error) {
	if !(n > 0) {
		return 0, fmt.Errorf("tree count %g: %w", n, model.ErrZeroDensity)
	}
	hexRatio := hexPackingDensity / RatioFix(n)
	needed := area / n / hexRatio
	return checked(math.Sqrt(needed / math.Pi))
}

func checked(r float64) (float64, error) {
	if !(r > 0) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("radius %g is not positive and finite: %w", r, model.ErrInvalidStatistic)
	}
	return r, nil
}

// NewEstimator returns the estimator for a configured strategy. divisor is
// used by RadiusMeanHeight and fixed by RadiusFixed.
func NewEstimator(strategy model.RadiusStrategy, divisor, fixed float64) (RadiusEstimator, error) {
	switch strategy {
	case model.RadiusHexPacking, "":
		return HexPacking{}, nil
	case model.RadiusBasalArea:
		return BasalAreaPacking{}, nil
	case model.RadiusMeanHeight:
		if !(divisor > 0) {
			return nil, fmt.Errorf("mean-height strategy needs a positive divisor, got %g", divisor)
		}
		return HeightDivisor{Divisor: divisor}, nil
	case model.RadiusFixed:
		if !(fixed > 0) {
			return nil, fmt.Errorf("fixed strategy needs a positive radius, got %g", fixed)
		}
		return Fixed{Value: fixed}, nil
	default:
		return nil, fmt.Errorf("unknown radius strategy %q", strategy)
	}
}
