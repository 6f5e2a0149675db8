// Package region selects the stands that fall within a region of interest.
package region

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/model"
)

// Selector filters a stand collection by a region of interest.
type Selector struct {
	// Mode is the selection predicate. The zero value behaves as
	// model.ModeIntersects.
	Mode model.SelectionMode
}

// indexed is the rtree entry for one stand exterior.
type indexed struct {
	geom.Polygon
	pos int
}

// Select returns the stands matching roi, in input order. A nil roi
// selects every stand. The input slice is not modified.
func (s Selector) Select(stands []model.Stand, roi *model.RegionOfInterest) []model.Stand {
	if roi == nil {
		return stands
	}
	if geometry.IsEmpty(roi.Polygon) || len(stands) == 0 {
		return nil
	}

	// Bounding-box prefilter.
	tree := rtree.NewTree(25, 50)
	for i := range stands {
		ext := geometry.Exterior(stands[i].Polygon)
		if ext == nil {
			continue
		}
		tree.Insert(&indexed{Polygon: ext, pos: i})
	}

	var hits []int
	for _, c := range tree.SearchIntersect(roi.Polygon.Bounds()) {
		cand := c.(*indexed)
		if s.matches(cand.Polygon, roi.Polygon) {
			hits = append(hits, cand.pos)
		}
	}
	if len(hits) == 0 {
		return nil
	}

	keep := make([]bool, len(stands))
	for _, i := range hits {
		keep[i] = true
	}
	out := make([]model.Stand, 0, len(hits))
	for i := range stands {
		if keep[i] {
			out = append(out, stands[i])
		}
	}
	return out
}

func (s Selector) matches(exterior, roi geom.Polygon) bool {
	if s.Mode == model.ModeCentroid {
		return exterior.Centroid().Within(roi) != geom.Outside
	}
	return geometry.Intersects(exterior, roi)
}
