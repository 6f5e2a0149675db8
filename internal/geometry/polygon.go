package geometry

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"

	"github.com/shinji-kodama/standsynth/internal/model"
)

// NewPolygon builds a polygon from an exterior ring and optional holes.
//
// Consecutive duplicate vertices are removed, every ring is closed, rings
// with fewer than three distinct vertices are dropped and orientation is
// normalized (exterior counter-clockwise, holes clockwise). A degenerate
// exterior yields ErrEmptyGeometry; degenerate holes are silently dropped.
func NewPolygon(exterior geom.Path, holes ...geom.Path) (geom.Polygon, error) {
	ext := cleanRing(exterior)
	if ext == nil {
		return nil, fmt.Errorf("exterior ring has fewer than 3 distinct vertices: %w", model.ErrEmptyGeometry)
	}
	if signedArea(ext) < 0 {
		reverse(ext)
	}

	poly := geom.Polygon{ext}
	for _, h := range holes {
		hole := cleanRing(h)
		if hole == nil {
			continue
		}
		if signedArea(hole) > 0 {
			reverse(hole)
		}
		poly = append(poly, hole)
	}
	return poly, nil
}

// Rect returns the axis-aligned rectangle with the given corners.
func Rect(minX, minY, maxX, maxY float64) (geom.Polygon, error) {
	if !(maxX > minX) || !(maxY > minY) {
		return nil, fmt.Errorf("rectangle [%g,%g]-[%g,%g] has no area: %w",
			minX, minY, maxX, maxY, model.ErrEmptyGeometry)
	}
	return NewPolygon(geom.Path{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	})
}

// IsEmpty reports whether p has no usable exterior ring.
func IsEmpty(p geom.Polygon) bool {
	return len(p) == 0 || len(p[0]) < 3
}

// Area returns the area of p with holes subtracted. Empty polygons have
// zero area.
func Area(p geom.Polygon) float64 {
	if IsEmpty(p) {
		return 0
	}
	a := p.Area()
	if math.IsNaN(a) || a < 0 {
		return 0
	}
	return a
}

// Exterior returns p with its holes removed.
func Exterior(p geom.Polygon) geom.Polygon {
	if IsEmpty(p) {
		return nil
	}
	return geom.Polygon{p[0]}
}

// Contains reports whether pt lies strictly inside the exterior ring of p
// and outside every hole. Points on any ring boundary are not contained.
func Contains(p geom.Polygon, pt geom.Point) bool {
	if IsEmpty(p) {
		return false
	}
	if pt.Within(geom.Polygon{p[0]}) != geom.Inside {
		return false
	}
	for _, hole := range p[1:] {
		if len(hole) < 3 {
			continue
		}
		if pt.Within(geom.Polygon{hole}) != geom.Outside {
			return false
		}
	}
	return true
}

// cleanRing drops consecutive duplicates and returns a closed copy of r,
// or nil when fewer than three distinct vertices remain.
func cleanRing(r geom.Path) geom.Path {
	out := make(geom.Path, 0, len(r)+1)
	for _, pt := range r {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == pt {
			continue
		}
		out = append(out, pt)
	}
	// Drop the closing vertex before counting.
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil
	}
	return append(out, out[0])
}

// signedArea is the shoelace sum of r; positive for counter-clockwise rings.
func signedArea(r geom.Path) float64 {
	var s float64
	for i := 0; i < len(r); i++ {
		j := (i + 1) % len(r)
		s += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return s / 2
}

func reverse(r geom.Path) {
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
}
