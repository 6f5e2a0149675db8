// Package export renders synthesis results for downstream tools.
//
// Compartments and trees are written as a GeoJSON FeatureCollection built
// with github.com/paulmach/orb/geojson. Coordinates can be reprojected on
// the way out (typically from a national grid to WGS84 longitude/latitude)
// with github.com/ctessum/geom/proj.
package export

import (
	"fmt"
	"strings"

	"github.com/ctessum/geom/proj"
)

// WGS84 is the proj4 definition of longitude/latitude on WGS84, the
// coordinate system GeoJSON expects.
const WGS84 = "+proj=longlat +datum=WGS84 +no_defs"

// knownSRS maps EPSG codes commonly found in stand inventories to proj4
// definitions.
var knownSRS = map[string]string{
	"EPSG:4326":  WGS84,
	"EPSG:3067":  "+proj=tmerc +lat_0=0 +lon_0=27 +k=0.9996 +x_0=500000 +y_0=0 +ellps=GRS80 +units=m +no_defs",
	"EPSG:3857":  "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs",
	"EPSG:3006":  "+proj=tmerc +lat_0=0 +lon_0=15 +k=0.9996 +x_0=500000 +y_0=0 +ellps=GRS80 +units=m +no_defs",
	"EPSG:25832": "+proj=tmerc +lat_0=0 +lon_0=9 +k=0.9996 +x_0=500000 +y_0=0 +ellps=GRS80 +units=m +no_defs",
	"EPSG:25833": "+proj=tmerc +lat_0=0 +lon_0=15 +k=0.9996 +x_0=500000 +y_0=0 +ellps=GRS80 +units=m +no_defs",
}

// Projector converts a coordinate pair between spatial references.
type Projector func(x, y float64) (float64, float64, error)

// Identity returns its input unchanged.
func Identity(x, y float64) (float64, float64, error) {
	return x, y, nil
}

// ResolveSRS returns the proj4 definition for an EPSG code, or def itself
// when it is not a known code.
func ResolveSRS(def string) string {
	if p, ok := knownSRS[strings.ToUpper(strings.TrimSpace(def))]; ok {
		return p
	}
	return def
}

// NewProjector builds a projector from src to dst. Both accept a proj4
// definition or a known EPSG code. An empty src disables reprojection and
// an empty dst means WGS84.
func NewProjector(src, dst string) (Projector, error) {
	if strings.TrimSpace(src) == "" {
		return Identity, nil
	}
	if strings.TrimSpace(dst) == "" {
		dst = WGS84
	}

	srcSR, err := proj.Parse(ResolveSRS(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse source projection %q: %w", src, err)
	}
	dstSR, err := proj.Parse(ResolveSRS(dst))
	if err != nil {
		return nil, fmt.Errorf("failed to parse target projection %q: %w", dst, err)
	}
	trans, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, fmt.Errorf("failed to create transform: %w", err)
	}
	return Projector(trans), nil
}
