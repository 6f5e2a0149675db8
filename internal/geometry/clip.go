package geometry

import (
	"fmt"
	"sort"

	"github.com/ctessum/geom"

	"github.com/shinji-kodama/standsynth/internal/model"
)

// Intersect returns the intersection of a and b. An empty result is not an
// error; it is returned as a nil polygon, as is the result for an operand
// without area (fewer than three vertices or collinear). A panic inside the
// clipping library is recovered and reported as an error wrapping
// ErrEmptyGeometry.
func Intersect(a, b geom.Polygon) (out geom.Polygon, err error) {
	if Area(a) <= 0 || Area(b) <= 0 {
		return nil, nil
	}
	if !a.Bounds().Overlaps(b.Bounds()) {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("intersection failed: %v: %w", r, model.ErrEmptyGeometry)
		}
	}()

	out = a.Intersection(b).(geom.Polygon)
	if IsEmpty(out) || Area(out) <= 0 {
		return nil, nil
	}
	return out, nil
}

// Subtract returns a with b removed, with the same panic recovery as
// Intersect. A polygon that does not overlap b is returned unchanged.
func Subtract(a, b geom.Polygon) (out geom.Polygon, err error) {
	if Area(a) <= 0 {
		return nil, nil
	}
	if Area(b) <= 0 || !a.Bounds().Overlaps(b.Bounds()) {
		return a, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("difference failed: %v: %w", r, model.ErrEmptyGeometry)
		}
	}()

	out = a.Difference(b).(geom.Polygon)
	if IsEmpty(out) || Area(out) <= 0 {
		return nil, nil
	}
	return out, nil
}

// Intersects reports whether the exteriors of a and b overlap with a
// positive intersection area. Holes are ignored and touching boundaries do
// not count.
func Intersects(a, b geom.Polygon) bool {
	clipped, err := Intersect(Exterior(a), Exterior(b))
	if err != nil {
		return false
	}
	return Area(clipped) > 0
}

// Components splits a possibly multi-part polygon into disjoint parts,
// each with its exterior as ring 0 followed by its holes.
//
// Rings are classified by nesting depth: a ring enclosed by an even number
// of other rings is an exterior, otherwise it is a hole of the innermost
// exterior that encloses it. Components are returned in the order their
// exteriors appear in p.
func Components(p geom.Polygon) []geom.Polygon {
	rings := make([]geom.Path, 0, len(p))
	for _, r := range p {
		if len(r) >= 3 {
			rings = append(rings, r)
		}
	}
	if len(rings) == 0 {
		return nil
	}

	depth := make([]int, len(rings))
	for i, r := range rings {
		for j, other := range rings {
			if i != j && ringInside(r, other) {
				depth[i]++
			}
		}
	}

	var comps []geom.Polygon
	owner := make(map[int]int) // ring index -> component index
	for i, r := range rings {
		if depth[i]%2 == 0 {
			owner[i] = len(comps)
			comps = append(comps, geom.Polygon{r})
		}
	}
	for i, r := range rings {
		if depth[i]%2 == 0 {
			continue
		}
		// The enclosing exterior is the one exactly one level up.
		for j, ext := range rings {
			if depth[j] == depth[i]-1 && ringInside(r, ext) {
				c := owner[j]
				comps[c] = append(comps[c], r)
				break
			}
		}
	}

	for i, c := range comps {
		// Re-run normalization so every component has the canonical
		// orientation regardless of what the clipper produced.
		if poly, err := NewPolygon(c[0], c[1:]...); err == nil {
			comps[i] = poly
		}
	}
	return comps
}

// Largest returns the component of comps with the largest area and its
// index. Ties go to the earliest component. ok is false for an empty list.
func Largest(comps []geom.Polygon) (poly geom.Polygon, index int, ok bool) {
	if len(comps) == 0 {
		return nil, -1, false
	}
	order := make([]int, len(comps))
	areas := make([]float64, len(comps))
	for i, c := range comps {
		order[i] = i
		areas[i] = Area(c)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return areas[order[a]] > areas[order[b]]
	})
	return comps[order[0]], order[0], true
}

// ringInside reports whether ring r lies inside ring other. A vertex of r
// that is strictly inside decides; vertices on the boundary of other are
// skipped because clip results often share vertices between rings.
func ringInside(r, other geom.Path) bool {
	outer := geom.Polygon{other}
	for _, pt := range r {
		switch pt.Within(outer) {
		case geom.Inside:
			return true
		case geom.Outside:
			return false
		}
	}
	return false
}
