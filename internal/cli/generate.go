// Package cli: generate.go implements the "standsynth generate" command.
//
// The generate command is the main workflow:
//  1. Resolve configuration (file, environment, flags)
//  2. Load the stand inventory and the region of interest
//  3. Select, clip and populate the stands
//  4. Export compartments and trees as GeoJSON or JSON
//  5. Write metrics when a metrics file is configured
package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/standsynth/internal/config"
	"github.com/shinji-kodama/standsynth/internal/export"
	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/metrics"
	"github.com/shinji-kodama/standsynth/internal/model"
	"github.com/shinji-kodama/standsynth/internal/standdata"
	"github.com/shinji-kodama/standsynth/internal/synth"
)

// Output formats of the generate command.
const (
	formatGeoJSON = "geojson"
	formatJSON    = "json"
)

// generateFlags holds the flag values for the generate command.
type generateFlags struct {
	synth synthFlags
	roi   roiFlags

	// output is the destination file; empty writes to stdout.
	output string

	// format is geojson or json.
	format string

	// targetSRS is the projection of the exported coordinates.
	targetSRS string

	// keepCoords disables reprojection.
	keepCoords bool

	// noTrees omits tree features from GeoJSON output.
	noTrees bool
}

// NewGenerateCommand creates the "generate" cobra command.
func NewGenerateCommand() *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate <stand-file>",
		Short: "Generate individual trees for the stands in a region",
		Long: `Generate individual trees for the stands in a region of interest.

Selected stands are clipped to the region. Each clipped piece gets the
stratum stem counts scaled by its share of the stand area, and every
stratum is sampled at a spacing that matches its density.

When the stand file declares an SRS, GeoJSON coordinates are reprojected
to --to (WGS84 by default) unless --keep-coords is given.

Examples:
  standsynth generate stands.jsonc --bbox 0,0,500,500 -o trees.geojson
  standsynth generate stands.jsonc --roi area.geojson --seed 42 --format json
  standsynth generate stands.jsonc --sampler poisson --components each`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], flags)
		},
	}

	flags.synth.bind(cmd)
	flags.roi.bind(cmd)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&flags.format, "format", formatGeoJSON, "Output format: geojson, json")
	cmd.Flags().StringVar(&flags.targetSRS, "to", export.WGS84, "Target projection (proj4 or EPSG code)")
	cmd.Flags().BoolVar(&flags.keepCoords, "keep-coords", false, "Keep stand coordinates, do not reproject")
	cmd.Flags().BoolVar(&flags.noTrees, "no-trees", false, "Omit tree features from GeoJSON output")

	return cmd
}

// runOutcome carries what a synthesis run produced.
type runOutcome struct {
	runID  string
	srs    string
	roi    *model.RegionOfInterest
	result synth.Result
}

// runGenerate executes the full generate workflow.
func runGenerate(cmd *cobra.Command, path string, flags *generateFlags) error {
	if flags.format != formatGeoJSON && flags.format != formatJSON {
		return model.NewCLIError(model.ExitInvalidInput,
			fmt.Sprintf("invalid format %q: valid values are geojson, json", flags.format))
	}

	// Step 1-3: Configure, load and synthesize.
	run, cfg, rec, err := synthesize(cmd, path, &flags.synth, &flags.roi)
	if err != nil {
		return err
	}

	// Step 4: Encode the result.
	projector, err := outputProjector(run.srs, flags)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	switch flags.format {
	case formatJSON:
		err = printJSON(&buf, generateJSON{
			RunID:        run.runID,
			SRS:          run.srs,
			Stats:        run.result.Stats,
			Skipped:      skippedIDs(run.result.Skipped),
			Compartments: run.result.Compartments,
		})
	default:
		err = writeGeoJSON(&buf, run, projector, flags.noTrees)
	}
	if err != nil {
		return model.WrapCLIError(model.ExitOutputError, "cannot encode output", err)
	}

	out := cmd.OutOrStdout()
	if flags.output == "" {
		if _, err := out.Write(buf.Bytes()); err != nil {
			return model.WrapCLIError(model.ExitOutputError, "cannot write output", err)
		}
	} else {
		if err := export.WriteFile(flags.output, buf.Bytes()); err != nil {
			return err
		}
		VerboseLog("Output written to %s", flags.output)
		if err := printRunSummary(out, run, flags.output); err != nil {
			return err
		}
	}

	// Step 5: Metrics.
	return writeMetrics(cfg, rec)
}

// synthesize performs the configuration, loading and synthesis steps
// shared by generate and buffer.
func synthesize(cmd *cobra.Command, path string, sf *synthFlags, rf *roiFlags) (*runOutcome, *config.Config, *metrics.Recorder, error) {
	cfg, err := loadSettings(cmd, sf)
	if err != nil {
		return nil, nil, nil, err
	}

	runID := uuid.NewString()
	logger := newLogger(cfg).With("run", runID)
	rec := metrics.New()

	roi, err := buildROI(rf)
	if err != nil {
		return nil, nil, nil, err
	}

	inv, err := standdata.Load(path, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	VerboseLog("Loaded %d stands from %s", len(inv.Stands), path)

	pipeline, err := newPipeline(cfg, logger, rec)
	if err != nil {
		return nil, nil, nil, err
	}
	logSettings(logger, cfg)

	res := pipeline.Run(inv.Stands, roi)
	return &runOutcome{runID: runID, srs: inv.SRS, roi: roi, result: res}, cfg, rec, nil
}

// generateJSON is the JSON output structure of the generate command.
type generateJSON struct {
	RunID        string            `json:"runId"`
	SRS          string            `json:"srs,omitempty"`
	Stats        synth.Stats       `json:"stats"`
	Skipped      []string          `json:"skipped,omitempty"`
	Compartments []compartmentJSON `json:"compartments"`
}

// compartmentJSON adds the clipped geometry, in stand coordinates, as
// closed GeoJSON-style rings.
type compartmentJSON struct {
	model.Compartment
	Polygon orb.Polygon `json:"polygon"`
}

func compartmentsJSON(comps []model.Compartment) []compartmentJSON {
	out := make([]compartmentJSON, len(comps))
	for i, c := range comps {
		out[i] = compartmentJSON{Compartment: c, Polygon: geometry.ToOrb(c.Polygon)}
	}
	return out
}

// outputProjector returns the reprojection for GeoJSON output. JSON output
// and inventories without a declared SRS keep stand coordinates.
func outputProjector(srs string, flags *generateFlags) (export.Projector, error) {
	if flags.format != formatGeoJSON || flags.keepCoords || srs == "" {
		return export.Identity, nil
	}
	p, err := export.NewProjector(srs, flags.targetSRS)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "cannot set up reprojection", err)
	}
	VerboseLog("Reprojecting from %s to %s", srs, flags.targetSRS)
	return p, nil
}

// writeGeoJSON exports the run as a GeoJSON FeatureCollection.
func writeGeoJSON(w io.Writer, run *runOutcome, projector export.Projector, noTrees bool) error {
	return export.WriteGeoJSON(w, run.result.Compartments, export.Options{
		Projector:  projector,
		ROI:        run.roi,
		OmitTrees:  noTrees,
		Properties: map[string]any{"runId": run.runID},
	})
}

// printRunSummary reports a run whose data went to a file.
func printRunSummary(w io.Writer, run *runOutcome, output string) error {
	st := run.result.Stats
	if IsJSONOutput() {
		return printJSON(w, struct {
			RunID   string      `json:"runId"`
			Output  string      `json:"output"`
			Stats   synth.Stats `json:"stats"`
			Skipped []string    `json:"skipped,omitempty"`
		}{run.runID, output, st, skippedIDs(run.result.Skipped)})
	}

	fmt.Fprintf(w, "Run:          %s\n", run.runID)
	fmt.Fprintf(w, "Stands:       %d selected\n", st.StandsSelected)
	fmt.Fprintf(w, "Compartments: %d (%d without trees)\n", st.Compartments, st.EmptyCompartment)
	fmt.Fprintf(w, "Area:         %.2f ha\n", hectares(st.RetainedArea))
	fmt.Fprintf(w, "Trees:        %d\n", st.Trees)
	for _, sp := range st.Species() {
		fmt.Fprintf(w, "  species %-4d %d\n", sp, st.TreesBySpecies[sp])
	}
	if len(run.result.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped:      %d stands (see log)\n", len(run.result.Skipped))
	}
	fmt.Fprintf(w, "Output:       %s\n", output)
	return nil
}

func skippedIDs(errs []synth.StandError) []string {
	if len(errs) == 0 {
		return nil
	}
	ids := make([]string, len(errs))
	for i, e := range errs {
		ids[i] = e.StandID
	}
	return ids
}

func logSettings(logger *slog.Logger, cfg *config.Config) {
	seeded := cfg.Seed != nil
	logger.Debug("synthesis settings",
		"sampler", cfg.Sampler.Kind,
		"jitter", cfg.Sampler.Jitter,
		"radius", cfg.Radius.Strategy,
		"selection", cfg.Selection,
		"components", cfg.Components,
		"seeded", seeded,
		"workers", cfg.Workers)
}
