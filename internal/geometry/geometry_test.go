package geometry

import (
	"errors"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/standsynth/internal/model"
)

func square(t *testing.T, x0, y0, size float64) geom.Polygon {
	t.Helper()
	p, err := Rect(x0, y0, x0+size, y0+size)
	require.NoError(t, err)
	return p
}

// TestNewPolygon verifies ring cleanup and orientation normalization.
func TestNewPolygon(t *testing.T) {
	t.Run("clockwise exterior is reversed and closed", func(t *testing.T) {
		p, err := NewPolygon(geom.Path{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}})
		require.NoError(t, err)
		require.Len(t, p, 1)
		assert.Greater(t, signedArea(p[0]), 0.0)
		assert.Equal(t, p[0][0], p[0][len(p[0])-1])
		assert.InDelta(t, 100.0, Area(p), 1e-9)
	})

	t.Run("hole is made clockwise", func(t *testing.T) {
		p, err := NewPolygon(
			geom.Path{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
			geom.Path{{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}},
		)
		require.NoError(t, err)
		require.Len(t, p, 2)
		assert.Less(t, signedArea(p[1]), 0.0)
		assert.InDelta(t, 96.0, Area(p), 1e-9)
	})

	t.Run("degenerate exterior", func(t *testing.T) {
		_, err := NewPolygon(geom.Path{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}})
		assert.True(t, errors.Is(err, model.ErrEmptyGeometry))
	})

	t.Run("degenerate hole dropped", func(t *testing.T) {
		p, err := NewPolygon(
			geom.Path{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
			geom.Path{{X: 1, Y: 1}, {X: 1, Y: 1}},
		)
		require.NoError(t, err)
		assert.Len(t, p, 1)
	})
}

// TestRect_Empty verifies that inverted or flat rectangles are rejected.
func TestRect_Empty(t *testing.T) {
	_, err := Rect(0, 0, 0, 10)
	assert.True(t, errors.Is(err, model.ErrEmptyGeometry))
	_, err = Rect(5, 5, 1, 1)
	assert.True(t, errors.Is(err, model.ErrEmptyGeometry))
}

// TestParseRing covers both coordinate layouts and malformed-token recovery.
func TestParseRing(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantLen   int
		wantErrs  int
		wantFirst geom.Point
	}{
		{
			name:      "comma pairs",
			input:     "0,0 100,0 100,100 0,100 0,0",
			wantLen:   5,
			wantFirst: geom.Point{X: 0, Y: 0},
		},
		{
			name:      "flat list",
			input:     "1.5 2.5 3 4 5 6",
			wantLen:   3,
			wantFirst: geom.Point{X: 1.5, Y: 2.5},
		},
		{
			name:      "unparsable pair skipped",
			input:     "0,0 10,abc 10,10 0,10",
			wantLen:   3,
			wantErrs:  1,
			wantFirst: geom.Point{X: 0, Y: 0},
		},
		{
			name:      "missing ordinate skipped",
			input:     "0,0 10 10,10 0,10",
			wantLen:   3,
			wantErrs:  1,
			wantFirst: geom.Point{X: 0, Y: 0},
		},
		{
			name:      "odd flat count drops last value",
			input:     "0 0 10 0 10 10 7",
			wantLen:   3,
			wantErrs:  1,
			wantFirst: geom.Point{X: 0, Y: 0},
		},
		{
			name:  "empty string",
			input: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, errs := ParseRing(tt.input, 2)
			assert.Len(t, path, tt.wantLen)
			assert.Len(t, errs, tt.wantErrs)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, path[0])
			}
			for _, err := range errs {
				var fe *model.FormatError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, 2, fe.Ring)
			}
		})
	}
}

// TestContains checks strict containment: boundary points and points in
// holes are outside.
func TestContains(t *testing.T) {
	p, err := NewPolygon(
		geom.Path{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		geom.Path{{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}},
	)
	require.NoError(t, err)

	assert.True(t, Contains(p, geom.Point{X: 1, Y: 1}))
	assert.True(t, Contains(p, geom.Point{X: 9.5, Y: 5}))
	assert.False(t, Contains(p, geom.Point{X: 5, Y: 5}), "inside hole")
	assert.False(t, Contains(p, geom.Point{X: 11, Y: 5}), "outside")
	assert.False(t, Contains(p, geom.Point{X: 0, Y: 5}), "on exterior edge")
	assert.False(t, Contains(p, geom.Point{X: 4, Y: 5}), "on hole edge")
	assert.False(t, Contains(nil, geom.Point{X: 1, Y: 1}))
}

// TestIntersect checks clipping of overlapping, disjoint and nested squares.
func TestIntersect(t *testing.T) {
	a := square(t, 0, 0, 10)

	t.Run("partial overlap", func(t *testing.T) {
		out, err := Intersect(a, square(t, 5, 5, 10))
		require.NoError(t, err)
		assert.InDelta(t, 25.0, Area(out), 1e-6)
	})

	t.Run("disjoint", func(t *testing.T) {
		out, err := Intersect(a, square(t, 20, 20, 5))
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("contained", func(t *testing.T) {
		out, err := Intersect(a, square(t, -5, -5, 30))
		require.NoError(t, err)
		assert.InDelta(t, 100.0, Area(out), 1e-6)
	})

	t.Run("empty operand", func(t *testing.T) {
		out, err := Intersect(nil, a)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("collinear operand", func(t *testing.T) {
		line := geom.Polygon{{{X: 0, Y: 5}, {X: 5, Y: 5}, {X: 10, Y: 5}}}
		var out geom.Polygon
		var err error
		require.NotPanics(t, func() { out, err = Intersect(a, line) })
		require.NoError(t, err)
		assert.Nil(t, out)
	})
}

// TestIntersects verifies positive-area overlap detection on exteriors.
func TestIntersects(t *testing.T) {
	a := square(t, 0, 0, 10)
	assert.True(t, Intersects(a, square(t, 9, 9, 5)))
	assert.False(t, Intersects(a, square(t, 10, 0, 5)), "shared edge has no area")
	assert.False(t, Intersects(a, square(t, 50, 50, 5)))
}

// TestSubtract carves an exclusion out of a region.
func TestSubtract(t *testing.T) {
	region := square(t, 0, 0, 10)

	out, err := Subtract(region, square(t, 0, 0, 5))
	require.NoError(t, err)
	assert.InDelta(t, 75.0, Area(out), 1e-6)

	same, err := Subtract(region, square(t, 20, 20, 1))
	require.NoError(t, err)
	assert.Equal(t, region, same)

	line := geom.Polygon{{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 10}}}
	same, err = Subtract(region, line)
	require.NoError(t, err)
	assert.Equal(t, region, same)
}

// TestComponents checks the ring nesting classification.
func TestComponents(t *testing.T) {
	t.Run("two disjoint parts", func(t *testing.T) {
		a := square(t, 0, 0, 10)
		b := square(t, 20, 0, 5)
		comps := Components(geom.Polygon{a[0], b[0]})
		require.Len(t, comps, 2)
		assert.InDelta(t, 100.0, Area(comps[0]), 1e-9)
		assert.InDelta(t, 25.0, Area(comps[1]), 1e-9)
	})

	t.Run("exterior with hole stays one part", func(t *testing.T) {
		outer := square(t, 0, 0, 10)
		hole := square(t, 4, 4, 2)
		comps := Components(geom.Polygon{outer[0], hole[0]})
		require.Len(t, comps, 1)
		assert.Len(t, comps[0], 2)
		assert.InDelta(t, 96.0, Area(comps[0]), 1e-9)
	})

	t.Run("island inside hole", func(t *testing.T) {
		outer := square(t, 0, 0, 10)
		hole := square(t, 2, 2, 6)
		island := square(t, 4, 4, 2)
		comps := Components(geom.Polygon{outer[0], hole[0], island[0]})
		require.Len(t, comps, 2)
		assert.Len(t, comps[0], 2)
		assert.Len(t, comps[1], 1)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Components(nil))
	})
}

// TestLargest checks the deterministic choice of the dominant component.
func TestLargest(t *testing.T) {
	small := square(t, 0, 0, 1)
	big := square(t, 5, 5, 3)
	twin := square(t, 20, 20, 3)

	poly, idx, ok := Largest([]geom.Polygon{small, big, twin})
	require.True(t, ok)
	assert.Equal(t, 1, idx, "ties go to the earlier component")
	assert.Equal(t, big, poly)

	_, _, ok = Largest(nil)
	assert.False(t, ok)
}

// TestOrbRoundTrip verifies conversion through orb keeps area and holes.
func TestOrbRoundTrip(t *testing.T) {
	p, err := NewPolygon(
		geom.Path{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		geom.Path{{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}},
	)
	require.NoError(t, err)

	o := ToOrb(p)
	require.Len(t, o, 2)
	assert.True(t, o[0].Closed())

	back, err := FromOrb(o)
	require.NoError(t, err)
	assert.InDelta(t, Area(p), Area(back), 1e-9)
}

// TestDecodePolygons reads polygons and multipolygons from a collection.
func TestDecodePolygons(t *testing.T) {
	data := []byte(`{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [1, 2]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "Polygon",
      "coordinates": [[[0,0],[10,0],[10,10],[0,10],[0,0]]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "MultiPolygon",
      "coordinates": [[[[20,20],[21,20],[21,21],[20,21],[20,20]]], [[[30,30],[32,30],[32,32],[30,32],[30,30]]]]}}
  ]
}`)
	polys, err := DecodePolygons(data)
	require.NoError(t, err)
	require.Len(t, polys, 3)
	assert.InDelta(t, 100.0, Area(polys[0]), 1e-9)
	assert.InDelta(t, 4.0, Area(polys[2]), 1e-9)

	_, err = DecodePolygons([]byte("not json"))
	assert.Error(t, err)
}
