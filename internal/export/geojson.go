package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/model"
)

// Feature kinds stored in the "kind" property.
const (
	KindCompartment = "compartment"
	KindTree        = "tree"
	KindROI         = "roi"
)

// Options controls which features are emitted.
type Options struct {
	// Projector reprojects every coordinate; nil means Identity.
	Projector Projector

	// ROI is written as an extra feature when non-nil.
	ROI *model.RegionOfInterest

	// OmitTrees drops the per-tree point features.
	OmitTrees bool

	// Properties are copied onto the collection's ROI feature, or onto
	// every compartment feature when no ROI is given (e.g. a run id).
	Properties map[string]any
}

// Build converts compartments into a FeatureCollection: one Polygon
// feature per compartment followed by its trees as Point features.
func Build(comps []model.Compartment, opts Options) (*geojson.FeatureCollection, error) {
	project := opts.Projector
	if project == nil {
		project = Identity
	}

	fc := geojson.NewFeatureCollection()

	if opts.ROI != nil && !geometry.IsEmpty(opts.ROI.Polygon) {
		poly, err := projectPolygon(opts.ROI.Polygon, project)
		if err != nil {
			return nil, err
		}
		f := geojson.NewFeature(poly)
		f.Properties["kind"] = KindROI
		for k, v := range opts.Properties {
			f.Properties[k] = v
		}
		fc.Append(f)
	}

	for i := range comps {
		c := &comps[i]
		poly, err := projectPolygon(c.Polygon, project)
		if err != nil {
			return nil, fmt.Errorf("compartment of stand %s: %w", c.StandID, err)
		}
		f := geojson.NewFeature(poly)
		f.Properties["kind"] = KindCompartment
		f.Properties["standId"] = c.StandID
		f.Properties["component"] = c.Component
		f.Properties["areaRatio"] = c.AreaRatio
		f.Properties["treeCount"] = len(c.Trees)
		if opts.ROI == nil {
			for k, v := range opts.Properties {
				f.Properties[k] = v
			}
		}
		fc.Append(f)

		if opts.OmitTrees {
			continue
		}
		for _, t := range c.Trees {
			x, y, err := project(t.X, t.Y)
			if err != nil {
				return nil, fmt.Errorf("tree of stand %s: %w", c.StandID, err)
			}
			tf := geojson.NewFeature(orb.Point{x, y})
			tf.Properties["kind"] = KindTree
			tf.Properties["standId"] = c.StandID
			tf.Properties["species"] = t.Species
			tf.Properties["height"] = t.Height
			fc.Append(tf)
		}
	}
	return fc, nil
}

// WriteGeoJSON encodes compartments as a GeoJSON FeatureCollection to w.
func WriteGeoJSON(w io.Writer, comps []model.Compartment, opts Options) error {
	fc, err := Build(comps, opts)
	if err != nil {
		return err
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write GeoJSON: %w", err)
	}
	return nil
}

// WriteFile writes data to outputPath, creating parent directories as
// needed. Failures are reported as CLIError with ExitOutputError.
func WriteFile(outputPath string, data []byte) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.WrapCLIError(model.ExitOutputError,
			fmt.Sprintf("failed to create directory %s", dir), err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return model.WrapCLIError(model.ExitOutputError,
			fmt.Sprintf("failed to write %s", outputPath), err)
	}
	return nil
}

func projectPolygon(p geom.Polygon, project Projector) (orb.Polygon, error) {
	out := geometry.ToOrb(p)
	for _, ring := range out {
		for i, pt := range ring {
			x, y, err := project(pt.X(), pt.Y())
			if err != nil {
				return nil, fmt.Errorf("failed to project (%g, %g): %w", pt.X(), pt.Y(), err)
			}
			ring[i] = orb.Point{x, y}
		}
	}
	return out, nil
}
