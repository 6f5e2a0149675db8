// Package geometry provides the polygon operations used by the synthesis
// pipeline on top of github.com/ctessum/geom.
//
// Polygons follow the ctessum convention: a geom.Polygon is a list of rings,
// where ring 0 is the exterior and every further ring is a hole. Polygons
// built by NewPolygon have closed rings, a counter-clockwise exterior and
// clockwise holes.
//
// The package covers:
//   - ring parsing from GML-style coordinate strings (ParseRing), recovering
//     from malformed tokens by skipping the vertex and reporting a
//     *model.FormatError;
//   - strict point containment (Contains), where points on a ring are
//     outside;
//   - clipping (Intersect, Subtract) with panic recovery, and splitting a
//     clip result into disjoint components (Components);
//   - conversion to and from github.com/paulmach/orb geometries, used for
//     GeoJSON import and export.
package geometry
