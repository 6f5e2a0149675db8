package sampling

import (
	"math/rand"

	"github.com/ctessum/geom"
	"github.com/fogleman/poissondisc"

	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/model"
)

// DefaultPoissonAttempts is the number of candidates tried around each
// active sample before it is retired.
const DefaultPoissonAttempts = 10

// PoissonSampler fills the polygon bounds with Poisson-disc samples at
// minimum distance radius and keeps those strictly inside the polygon.
// Points are farther apart than on the hex lattice, so fewer fit.
type PoissonSampler struct {
	Attempts int
	Mode     model.LimitMode
}

// Sample implements Sampler.
func (s PoissonSampler) Sample(poly geom.Polygon, radius float64, limit int, rng *rand.Rand) []geom.Point {
	if limit == 0 || !validRadius(radius) || geometry.IsEmpty(poly) {
		return nil
	}
	b := poly.Bounds()
	if !(b.Max.X > b.Min.X) || !(b.Max.Y > b.Min.Y) {
		return nil
	}
	width, height := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y
	if (width/radius)*(height/radius) > MaxLatticeCells {
		return nil
	}

	attempts := s.Attempts
	if attempts <= 0 {
		attempts = DefaultPoissonAttempts
	}

	samples := poissondisc.Sample(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y, radius, attempts, rng)
	inside := make([]geom.Point, 0, len(samples))
	for _, p := range samples {
		pt := geom.Point{X: p.X, Y: p.Y}
		if geometry.Contains(poly, pt) {
			inside = append(inside, pt)
		}
	}
	return limitPoints(s.Mode, inside, limit, rng)
}
