package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/standsynth/internal/compartment"
	"github.com/shinji-kodama/standsynth/internal/config"
	"github.com/shinji-kodama/standsynth/internal/geometry"
	"github.com/shinji-kodama/standsynth/internal/logging"
	"github.com/shinji-kodama/standsynth/internal/metrics"
	"github.com/shinji-kodama/standsynth/internal/model"
	"github.com/shinji-kodama/standsynth/internal/population"
	"github.com/shinji-kodama/standsynth/internal/region"
	"github.com/shinji-kodama/standsynth/internal/sampling"
	"github.com/shinji-kodama/standsynth/internal/synth"
)

// synthFlags holds the per-command overrides of the run configuration.
// Only flags the user actually set override the configuration file.
type synthFlags struct {
	seed         int64
	sampler      string
	jitter       float64
	limitMode    string
	radius       string
	divisor      float64
	fixedRadius  float64
	heightJitter float64
	components   string
	mode         string
	workers      int
}

// bind registers the synthesis flags on cmd.
func (f *synthFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Int64Var(&f.seed, "seed", 0, "Random seed for reproducible output")
	fs.StringVar(&f.sampler, "sampler", "", "Point sampler: hex, poisson")
	fs.Float64Var(&f.jitter, "jitter", 0, "Hex lattice jitter factor in [0, 1]")
	fs.StringVar(&f.limitMode, "limit-mode", "", "Subsampling when the lattice overshoots: shuffle, reservoir")
	fs.StringVar(&f.radius, "radius", "", "Radius strategy: hex-packing, basal-area, mean-height, fixed")
	fs.Float64Var(&f.divisor, "divisor", 0, "Mean height divisor for the mean-height strategy")
	fs.Float64Var(&f.fixedRadius, "fixed-radius", 0, "Radius in metres for the fixed strategy")
	fs.Float64Var(&f.heightJitter, "height-jitter", 0, "Half-width of the tree height band in metres")
	fs.StringVar(&f.components, "components", "", "Clipped stand components: largest, each")
	f.bindMode(cmd)
	fs.IntVar(&f.workers, "workers", 0, "Concurrent workers (0 = all CPUs)")
}

// bindMode registers only the selection mode flag.
func (f *synthFlags) bindMode(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "Stand selection: intersects, centroid")
}

// apply copies every flag the user set onto cfg.
func (f *synthFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("seed") {
		seed := f.seed
		cfg.Seed = &seed
	}
	if changed("sampler") {
		cfg.Sampler.Kind = f.sampler
	}
	if changed("jitter") {
		cfg.Sampler.Jitter = f.jitter
	}
	if changed("limit-mode") {
		cfg.Sampler.LimitMode = f.limitMode
	}
	if changed("radius") {
		cfg.Radius.Strategy = f.radius
	}
	if changed("divisor") {
		cfg.Radius.Divisor = f.divisor
	}
	if changed("fixed-radius") {
		cfg.Radius.Fixed = f.fixedRadius
	}
	if changed("height-jitter") {
		cfg.HeightJitter = f.heightJitter
	}
	if changed("components") {
		cfg.Components = f.components
	}
	if changed("mode") {
		cfg.Selection = f.mode
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
}

// loadSettings resolves the run configuration for cmd.
//
// Precedence, lowest first: defaults, --config file, .env file,
// environment variables, global flags, command flags. The result is
// validated; any problem is returned as a CLIError with ExitConfigError.
func loadSettings(cmd *cobra.Command, sf *synthFlags) (*config.Config, error) {
	// Step 1: Load the .env file so it feeds the environment overrides.
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "cannot load environment file", err)
	}

	// Step 2: Defaults overlaid with the YAML file.
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	// Step 3: STANDSYNTH_* environment variables.
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid environment override", err)
	}

	// Step 4: Global and command flags.
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if metricsFile != "" {
		cfg.MetricsFile = metricsFile
	}
	if sf != nil {
		sf.apply(cmd, cfg)
	}

	// Step 5: Validate everything at once.
	if err := cfg.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the stderr logger described by cfg.
func newLogger(cfg *config.Config) *slog.Logger {
	return logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}

// newPipeline wires the synthesis components described by cfg. cfg must
// have passed validation.
func newPipeline(cfg *config.Config, logger *slog.Logger, rec *metrics.Recorder) (*synth.Pipeline, error) {
	strategy, err := model.ParseRadiusStrategy(cfg.Radius.Strategy)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid radius strategy", err)
	}
	estimator, err := sampling.NewEstimator(strategy, cfg.Radius.Divisor, cfg.Radius.Fixed)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid radius configuration", err)
	}

	kind, _ := model.ParseSamplerKind(cfg.Sampler.Kind)
	limitMode, _ := model.ParseLimitMode(cfg.Sampler.LimitMode)
	sampler, err := sampling.NewSampler(sampling.SamplerOptions{
		Kind:     kind,
		Jitter:   cfg.Sampler.Jitter,
		Mode:     limitMode,
		Attempts: cfg.Sampler.PoissonAttempts,
		Logger:   logger,
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid sampler configuration", err)
	}

	rng := sampling.EntropyRand()
	if cfg.Seed != nil {
		rng = sampling.SeededRand(*cfg.Seed)
	}

	assembler := population.NewAssembler()
	assembler.Estimator = estimator
	assembler.Sampler = sampler
	assembler.HeightJitter = cfg.HeightJitter
	assembler.Rand = rng
	assembler.Workers = cfg.Workers
	assembler.Logger = logger
	assembler.Metrics = rec

	policy, _ := model.ParseComponentPolicy(cfg.Components)
	mode, _ := model.ParseSelectionMode(cfg.Selection)

	return &synth.Pipeline{
		Selector: region.Selector{Mode: mode},
		Builder:  &compartment.Builder{Assembler: assembler, Policy: policy},
		Workers:  cfg.Workers,
		Logger:   logger,
		Metrics:  rec,
	}, nil
}

// writeMetrics writes rec to the configured textfile, if any.
func writeMetrics(cfg *config.Config, rec *metrics.Recorder) error {
	if cfg.MetricsFile == "" {
		return nil
	}
	if err := rec.WriteFile(cfg.MetricsFile); err != nil {
		return model.WrapCLIError(model.ExitOutputError, "cannot write metrics file", err)
	}
	VerboseLog("Metrics written to %s", cfg.MetricsFile)
	return nil
}

// roiFlags describes the region of interest of a command.
type roiFlags struct {
	bbox    string
	roi     string
	exclude []string
}

// bind registers the region flags on cmd.
func (f *roiFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.bbox, "bbox", "", "Region as minX,minY,maxX,maxY in stand coordinates")
	fs.StringVar(&f.roi, "roi", "", "Region polygon from a GeoJSON file (first polygon feature)")
	fs.StringSliceVar(&f.exclude, "exclude", nil, "GeoJSON files whose polygons are cut out of the region")
}

// buildROI resolves the region of interest. It returns nil when neither
// --bbox nor --roi is given, which selects the whole inventory.
func buildROI(f *roiFlags) (*model.RegionOfInterest, error) {
	if f.bbox != "" && f.roi != "" {
		return nil, model.NewCLIError(model.ExitInvalidInput, "--bbox and --roi are mutually exclusive")
	}

	var poly geom.Polygon
	switch {
	case f.bbox != "":
		p, err := parseBBox(f.bbox)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitInvalidInput, "invalid --bbox", err)
		}
		poly = p
	case f.roi != "":
		polys, err := readPolygons(f.roi)
		if err != nil {
			return nil, err
		}
		poly = polys[0]
	default:
		if len(f.exclude) > 0 {
			return nil, model.NewCLIError(model.ExitInvalidInput, "--exclude needs --bbox or --roi")
		}
		return nil, nil
	}

	// Cut every excluded polygon out of the region.
	for _, path := range f.exclude {
		holes, err := readPolygons(path)
		if err != nil {
			return nil, err
		}
		for _, hole := range holes {
			rest, err := geometry.Subtract(poly, hole)
			if err != nil {
				return nil, model.WrapCLIError(model.ExitInvalidInput,
					fmt.Sprintf("cannot subtract exclusion from %s", path), err)
			}
			if geometry.IsEmpty(rest) {
				return nil, model.NewCLIError(model.ExitInvalidInput, "region of interest is empty after exclusions")
			}
			poly = rest
		}
		VerboseLog("Applied exclusions from %s", path)
	}

	// Exclusions can split the region; keep the largest piece.
	if comps := geometry.Components(poly); len(comps) > 1 {
		largest, _, _ := geometry.Largest(comps)
		VerboseLog("Region split into %d pieces, keeping the largest", len(comps))
		poly = largest
	}

	return &model.RegionOfInterest{Polygon: poly}, nil
}

// readPolygons decodes every polygon of a GeoJSON file.
func readPolygons(path string) ([]geom.Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.WrapCLIError(model.ExitInputNotFound,
				fmt.Sprintf("region file not found: %s", path), err)
		}
		return nil, fmt.Errorf("failed to read region file: %w", err)
	}
	polys, err := geometry.DecodePolygons(data)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidInput,
			fmt.Sprintf("invalid region file: %s", path), err)
	}
	if len(polys) == 0 {
		return nil, model.NewCLIError(model.ExitInvalidInput,
			fmt.Sprintf("region file %s contains no polygon", path))
	}
	return polys, nil
}

// parseBBox parses "minX,minY,maxX,maxY".
func parseBBox(s string) (geom.Polygon, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("expected minX,minY,maxX,maxY, got %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad coordinate %q: %w", p, err)
		}
		v[i] = f
	}
	if !(v[0] < v[2] && v[1] < v[3]) {
		return nil, fmt.Errorf("bbox %q has no area", s)
	}
	return geometry.Rect(v[0], v[1], v[2], v[3])
}

// hectares converts square metres to hectares.
func hectares(m2 float64) float64 {
	return m2 / 10000
}
