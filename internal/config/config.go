// Package config loads the standsynth run configuration.
//
// Values are resolved in increasing order of precedence:
//  1. built-in defaults (Default)
//  2. a YAML configuration file (Load)
//  3. a .env file and STANDSYNTH_* environment variables (ApplyEnv)
//  4. command-line flags, applied by the CLI layer
//
// Validation is separate from loading so that every problem can be
// reported at once (Validate) before any synthesis starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/standsynth/internal/model"
)

// EnvPrefix is the prefix of every standsynth environment variable.
const EnvPrefix = "STANDSYNTH_"

// Config holds every tunable of a synthesis run.
type Config struct {
	Sampler SamplerConfig `json:"sampler" yaml:"sampler"`
	Radius  RadiusConfig  `json:"radius" yaml:"radius"`

	// Selection is the region selection predicate: intersects or centroid.
	Selection string `json:"selection" yaml:"selection"`

	// Components is the policy for stands split by clipping: largest or each.
	Components string `json:"components" yaml:"components"`

	// HeightJitter is the half-width of the tree height band in metres.
	HeightJitter float64 `json:"heightJitter" yaml:"heightJitter"`

	// Workers caps concurrent stands and strata; 0 uses all CPUs.
	Workers int `json:"workers" yaml:"workers"`

	// Seed makes runs reproducible when set.
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	Log LogConfig `json:"log" yaml:"log"`

	// MetricsFile is the textfile-collector output path; empty disables it.
	MetricsFile string `json:"metricsFile,omitempty" yaml:"metricsFile,omitempty"`
}

// SamplerConfig selects and tunes the point sampler.
type SamplerConfig struct {
	// Kind is hex or poisson.
	Kind string `json:"kind" yaml:"kind"`

	// Jitter is the hex lattice jitter factor in [0, 1].
	Jitter float64 `json:"jitter" yaml:"jitter"`

	// LimitMode is shuffle or reservoir.
	LimitMode string `json:"limitMode" yaml:"limitMode"`

	// PoissonAttempts is the Poisson-disc candidate count per sample.
	PoissonAttempts int `json:"poissonAttempts" yaml:"poissonAttempts"`
}

// RadiusConfig selects the radius estimator.
type RadiusConfig struct {
	// Strategy is hex-packing, basal-area, mean-height or fixed.
	Strategy string `json:"strategy" yaml:"strategy"`

	// Divisor is used by the mean-height strategy.
	Divisor float64 `json:"divisor" yaml:"divisor"`

	// Fixed is the radius in metres used by the fixed strategy.
	Fixed float64 `json:"fixed" yaml:"fixed"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sampler: SamplerConfig{
			Kind:            string(model.SamplerHex),
			Jitter:          0.6666,
			LimitMode:       string(model.LimitShuffle),
			PoissonAttempts: 10,
		},
		Radius: RadiusConfig{
			Strategy: string(model.RadiusHexPacking),
			Divisor:  8,
		},
		Selection:    string(model.ModeIntersects),
		Components:   string(model.PolicyLargest),
		HeightJitter: 2,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults. Fields missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("cannot read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid config file %s", path), err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process
// environment without overriding variables that are already set. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables read through
// lookup (os.LookupEnv in production). Unparsable numbers are returned as
// one joined error; the remaining variables are still applied.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str(EnvPrefix+"SAMPLER", &c.Sampler.Kind)
	float(EnvPrefix+"JITTER", &c.Sampler.Jitter)
	str(EnvPrefix+"LIMIT_MODE", &c.Sampler.LimitMode)
	integer(EnvPrefix+"POISSON_ATTEMPTS", &c.Sampler.PoissonAttempts)
	str(EnvPrefix+"RADIUS_STRATEGY", &c.Radius.Strategy)
	float(EnvPrefix+"RADIUS_DIVISOR", &c.Radius.Divisor)
	float(EnvPrefix+"FIXED_RADIUS", &c.Radius.Fixed)
	str(EnvPrefix+"SELECTION", &c.Selection)
	str(EnvPrefix+"COMPONENTS", &c.Components)
	float(EnvPrefix+"HEIGHT_JITTER", &c.HeightJitter)
	integer(EnvPrefix+"WORKERS", &c.Workers)
	str(EnvPrefix+"METRICS_FILE", &c.MetricsFile)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup(EnvPrefix + "SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEED: %w", EnvPrefix, err))
		} else {
			c.Seed = &seed
		}
	}

	return errors.Join(errs...)
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
