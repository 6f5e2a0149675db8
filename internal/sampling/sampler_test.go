package sampling

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/model"
)

func hectare(t *testing.T) geom.Polygon {
	t.Helper()
	p, err := geometry.Rect(0, 0, 100, 100)
	require.NoError(t, err)
	return p
}

func newRng(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// TestHexGrid_HectareScenario runs the reference stratum (100 stems on a
// 1 ha square) and checks the count bound and containment.
func TestHexGrid_HectareScenario(t *testing.T) {
	poly := hectare(t)
	r, err := HexPacking{}.Radius(RadiusInput{StemCount: 100, Area: geometry.Area(poly)})
	require.NoError(t, err)

	for _, mode := range []model.LimitMode{model.LimitShuffle, model.LimitReservoir} {
		t.Run(string(mode), func(t *testing.T) {
			pts := HexGrid{Jitter: DefaultJitter, Mode: mode}.Sample(poly, r, 100, newRng(1))
			assert.NotEmpty(t, pts)
			assert.LessOrEqual(t, len(pts), 100)
			for _, pt := range pts {
				assert.True(t, pt.X > 0 && pt.X < 100 && pt.Y > 0 && pt.Y < 100, "point %v", pt)
			}
		})
	}
}

// TestHexGrid_NoLimit verifies that without a limit the result is the
// whole filtered lattice and that the limit then truncates it.
func TestHexGrid_NoLimit(t *testing.T) {
	poly := hectare(t)
	all := SampleHex(poly, 2, 0.5, NoLimit, newRng(7))
	require.Greater(t, len(all), 50)

	limited := SampleHex(poly, 2, 0.5, 50, newRng(7))
	assert.Len(t, limited, 50)
}

// TestHexGrid_Deterministic verifies that the same generator state gives
// the same points.
func TestHexGrid_Deterministic(t *testing.T) {
	poly := hectare(t)
	a := SampleHex(poly, 5, 0.89, 40, newRng(42))
	b := SampleHex(poly, 5, 0.89, 40, newRng(42))
	assert.Equal(t, a, b)
}

// TestHexGrid_ZeroJitterLattice checks that with no jitter every point is
// a lattice centre.
func TestHexGrid_ZeroJitterLattice(t *testing.T) {
	poly, err := geometry.Rect(0, 0, 20, 20)
	require.NoError(t, err)
	const r = 2.0

	pts := SampleHex(poly, r, 0, NoLimit, newRng(3))
	require.NotEmpty(t, pts)
	for _, pt := range pts {
		row := pt.Y / (1.5 * r)
		assert.InDelta(t, math.Round(row), row, 1e-9)
		col := pt.X / (r * hexSide)
		assert.InDelta(t, math.Round(col), col, 1e-9)
		// Even rows sit on even half-columns, odd rows on odd ones.
		assert.Equal(t, int(math.Round(row))%2, int(math.Round(col))%2)
	}
}

// TestHexGrid_JitterBound checks that each point stays within
// radius*jitter of its cell centre.
func TestHexGrid_JitterBound(t *testing.T) {
	poly, err := geometry.Rect(0, 0, 50, 50)
	require.NoError(t, err)
	const r, jitter = 3.0, 0.5

	pts := SampleHex(poly, r, jitter, NoLimit, newRng(11))
	require.NotEmpty(t, pts)
	for _, pt := range pts {
		row := math.Round(pt.Y / (1.5 * r))
		offset := float64(int(row) % 2)
		col := math.Round((pt.X/(r*hexSide) - offset) / 2)
		cx := (col*2 + offset) * r * hexSide
		cy := row * 1.5 * r
		assert.LessOrEqual(t, math.Hypot(pt.X-cx, pt.Y-cy), r*jitter+1e-9)
	}
}

// TestHexGrid_RespectsHoles verifies no point lands in a hole.
func TestHexGrid_RespectsHoles(t *testing.T) {
	poly, err := geometry.NewPolygon(
		geom.Path{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}},
		geom.Path{{X: 30, Y: 30}, {X: 70, Y: 30}, {X: 70, Y: 70}, {X: 30, Y: 70}},
	)
	require.NoError(t, err)

	pts := SampleHex(poly, 2, DefaultJitter, NoLimit, newRng(5))
	require.NotEmpty(t, pts)
	for _, pt := range pts {
		inHole := pt.X >= 30 && pt.X <= 70 && pt.Y >= 30 && pt.Y <= 70
		assert.False(t, inHole, "point %v in hole", pt)
	}
}

// TestHexGrid_Degenerate verifies that invalid input returns nothing and
// never panics.
func TestHexGrid_Degenerate(t *testing.T) {
	poly := hectare(t)
	flat := geom.Polygon{{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}, {X: 0, Y: 0}}}

	tests := []struct {
		name   string
		poly   geom.Polygon
		radius float64
		limit  int
	}{
		{name: "zero radius", poly: poly, radius: 0, limit: NoLimit},
		{name: "negative radius", poly: poly, radius: -3, limit: NoLimit},
		{name: "NaN radius", poly: poly, radius: math.NaN(), limit: NoLimit},
		{name: "infinite radius", poly: poly, radius: math.Inf(1), limit: NoLimit},
		{name: "empty polygon", poly: nil, radius: 1, limit: NoLimit},
		{name: "zero-area bounds", poly: flat, radius: 1, limit: NoLimit},
		{name: "zero limit", poly: poly, radius: 1, limit: 0},
		{name: "lattice too large", poly: poly, radius: 0.01, limit: NoLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Empty(t, SampleHex(tt.poly, tt.radius, DefaultJitter, tt.limit, newRng(1)))
			})
		})
	}
}

// TestPoissonSampler checks containment, the limit and the minimum
// spacing of Poisson-disc samples.
func TestPoissonSampler(t *testing.T) {
	poly := hectare(t)
	const r = 8.0

	pts := PoissonSampler{}.Sample(poly, r, NoLimit, newRng(9))
	require.NotEmpty(t, pts)
	for i, a := range pts {
		assert.True(t, geometry.Contains(poly, a))
		for _, b := range pts[i+1:] {
			assert.GreaterOrEqual(t, math.Hypot(a.X-b.X, a.Y-b.Y), r-1e-9)
		}
	}

	limited := PoissonSampler{Mode: model.LimitReservoir}.Sample(poly, r, 10, newRng(9))
	assert.Len(t, limited, 10)

	assert.Empty(t, PoissonSampler{}.Sample(poly, 0, NoLimit, newRng(9)))
}

// TestLimiter_Reservoir checks that the reservoir never exceeds the limit
// and only returns offered points.
func TestLimiter_Reservoir(t *testing.T) {
	offered := make(map[geom.Point]bool)
	lim := newLimiter(model.LimitReservoir, 5, newRng(2))
	for i := 0; i < 1000; i++ {
		pt := geom.Point{X: float64(i)}
		offered[pt] = true
		lim.offer(pt)
		assert.LessOrEqual(t, len(lim.pts), 5)
	}
	out := lim.result()
	require.Len(t, out, 5)
	for _, pt := range out {
		assert.True(t, offered[pt])
	}
}

// TestLimiter_ReservoirUniform checks that late candidates are selected
// about as often as early ones.
func TestLimiter_ReservoirUniform(t *testing.T) {
	rng := newRng(99)
	const n, k, rounds = 20, 5, 4000
	hits := make([]int, n)
	for r := 0; r < rounds; r++ {
		lim := newLimiter(model.LimitReservoir, k, rng)
		for i := 0; i < n; i++ {
			lim.offer(geom.Point{X: float64(i)})
		}
		for _, pt := range lim.result() {
			hits[int(pt.X)]++
		}
	}
	expected := float64(rounds*k) / n
	for i, h := range hits {
		assert.InDelta(t, expected, float64(h), expected*0.2, "candidate %d", i)
	}
}

// TestNewSampler verifies sampler selection and jitter validation.
func TestNewSampler(t *testing.T) {
	s, err := NewSampler(SamplerOptions{Jitter: 0.89})
	require.NoError(t, err)
	assert.IsType(t, HexGrid{}, s)

	s, err = NewSampler(SamplerOptions{Kind: model.SamplerPoisson})
	require.NoError(t, err)
	assert.IsType(t, PoissonSampler{}, s)

	_, err = NewSampler(SamplerOptions{Jitter: 1.5})
	assert.Error(t, err)

	_, err = NewSampler(SamplerOptions{Kind: "grid"})
	assert.Error(t, err)
}

// TestSeededRand verifies reproducibility per (stream, task) and that
// distinct pairs get distinct sequences.
func TestSeededRand(t *testing.T) {
	f := SeededRand(1234)
	assert.Equal(t, f(3, 1).Int63(), f(3, 1).Int63())
	assert.NotEqual(t, f(3, 1).Int63(), f(3, 2).Int63())
	assert.NotEqual(t, f(3, 1).Int63(), f(1, 3).Int63())
	assert.NotEqual(t, f(3, 1).Int63(), SeededRand(4321)(3, 1).Int63())

	e := EntropyRand()
	assert.NotEqual(t, e(0, 0).Int63(), e(0, 0).Int63())
}
