package sampling

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/ctessum/geom"

	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/logging"
	"github.com/shinji-kodama/standsynth/internal/model"
)

const (
	// NoLimit disables the point limit of a sampling call.
	NoLimit = -1

	// DefaultJitter is the jitter factor used when none is configured.
	DefaultJitter = 0.6666

	// MaxLatticeCells caps the number of lattice cells visited by a single
	// call. Larger lattices return no points.
	MaxLatticeCells = 40_000_000

	// hexSide is the horizontal half-width of a unit hexagon, √3/2.
	hexSide = 0.8660254037844386
)

// hexVertices are the corners of a pointy-top unit hexagon, in order.
var hexVertices = [6]geom.Point{
	{X: 0, Y: -1},
	{X: hexSide, Y: -0.5},
	{X: hexSide, Y: 0.5},
	{X: 0, Y: 1},
	{X: -hexSide, Y: 0.5},
	{X: -hexSide, Y: -0.5},
}

// Sampler places points inside a polygon at roughly radius spacing.
// limit caps the number of returned points; NoLimit returns all of them.
type Sampler interface {
	Sample(poly geom.Polygon, radius float64, limit int, rng *rand.Rand) []geom.Point
}

// HexGrid is the jittered hexagonal lattice sampler.
type HexGrid struct {
	// Jitter scales the offset of each point from its cell centre, as a
	// fraction of the radius. Zero places points exactly on the lattice.
	Jitter float64

	// Mode selects how candidates are reduced to the limit. The zero value
	// behaves as model.LimitShuffle.
	Mode model.LimitMode

	Logger *slog.Logger
}

// SampleHex is shorthand for a HexGrid in shuffle mode.
func SampleHex(poly geom.Polygon, radius, jitter float64, limit int, rng *rand.Rand) []geom.Point {
	return HexGrid{Jitter: jitter}.Sample(poly, radius, limit, rng)
}

// Sample implements Sampler.
//
// Every lattice cell draws one point; points that are not strictly inside
// the polygon (exterior ring 0, holes 1..n) are discarded. Degenerate input
// yields an empty result.
func (h HexGrid) Sample(poly geom.Polygon, radius float64, limit int, rng *rand.Rand) []geom.Point {
	if limit == 0 || !validRadius(radius) || geometry.IsEmpty(poly) {
		return nil
	}

	b := poly.Bounds()
	width := b.Max.X - b.Min.X
	height := b.Max.Y - b.Min.Y
	if !(width > 0) || !(height > 0) {
		return nil
	}

	colWidth := radius * 2 * hexSide
	rows := int(math.Ceil(height / radius))
	evenCols := int(math.Ceil(width/colWidth + 0.5))
	oddCols := int(math.Ceil(width / colWidth))

	if cells := float64(rows) * float64(evenCols); cells > MaxLatticeCells {
		logging.OrNop(h.Logger).Warn("lattice too large, skipping sampling",
			"radius", radius, "rows", rows, "columns", evenCols, "max_cells", MaxLatticeCells)
		return nil
	}

	jitterRadius := radius * h.Jitter
	lim := newLimiter(h.Mode, limit, rng)

	for y := 0; y < rows; y++ {
		odd := y%2 == 1
		cols := evenCols
		offset := 0.0
		if odd {
			cols = oddCols
			offset = 1
		}
		cy := b.Min.Y + float64(y)*1.5*radius

		for x := 0; x < cols; x++ {
			cx := b.Min.X + (float64(x)*2+offset)*radius*hexSide

			p := rng.Float64() * 6
			q := rng.Float64()
			tri := int(p)
			if tri > 5 {
				tri = 5
			}
			p -= float64(tri)
			if p+q > 1 {
				p, q = 1-p, 1-q
			}

			v0 := hexVertices[tri]
			v1 := hexVertices[(tri+1)%6]
			pt := geom.Point{
				X: cx + (v0.X*p+v1.X*q)*jitterRadius,
				Y: cy + (v0.Y*p+v1.Y*q)*jitterRadius,
			}
			if geometry.Contains(poly, pt) {
				lim.offer(pt)
			}
		}
	}
	return lim.result()
}

func validRadius(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}
