package geometry

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/shinji-kodama/standsynth/internal/model"
)

// ToOrb converts a polygon into an orb.Polygon for GeoJSON encoding.
// Rings are closed as GeoJSON requires.
func ToOrb(p geom.Polygon) orb.Polygon {
	out := make(orb.Polygon, 0, len(p))
	for _, r := range p {
		if len(r) == 0 {
			continue
		}
		ring := make(orb.Ring, 0, len(r)+1)
		for _, pt := range r {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		out = append(out, ring)
	}
	return out
}

// FromOrb converts an orb.Polygon into a normalized polygon.
func FromOrb(p orb.Polygon) (geom.Polygon, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("polygon has no rings: %w", model.ErrEmptyGeometry)
	}
	rings := make([]geom.Path, len(p))
	for i, r := range p {
		path := make(geom.Path, len(r))
		for j, pt := range r {
			path[j] = geom.Point{X: pt.X(), Y: pt.Y()}
		}
		rings[i] = path
	}
	return NewPolygon(rings[0], rings[1:]...)
}

// DecodePolygons extracts every Polygon and MultiPolygon member of a
// GeoJSON FeatureCollection, in feature order. Features with other
// geometry types are ignored.
func DecodePolygons(data []byte) ([]geom.Polygon, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode GeoJSON: %w", err)
	}

	var polys []geom.Polygon
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if poly, err := FromOrb(g); err == nil {
				polys = append(polys, poly)
			}
		case orb.MultiPolygon:
			for _, member := range g {
				if poly, err := FromOrb(member); err == nil {
					polys = append(polys, poly)
				}
			}
		}
	}
	return polys, nil
}
