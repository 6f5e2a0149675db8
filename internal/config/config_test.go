package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/standsynth/internal/model"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// TestDefault_IsValid verifies that the built-in configuration passes
// validation.
func TestDefault_IsValid(t *testing.T) {
	assert.Empty(t, Default().Validate())
	assert.NoError(t, Default().Err())
}

// TestLoad verifies YAML overlay on top of defaults.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "standsynth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sampler:
  kind: poisson
  limitMode: reservoir
radius:
  strategy: fixed
  fixed: 2.5
selection: centroid
seed: 42
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "poisson", cfg.Sampler.Kind)
	assert.Equal(t, "reservoir", cfg.Sampler.LimitMode)
	assert.Equal(t, 0.6666, cfg.Sampler.Jitter, "default kept")
	assert.Equal(t, "fixed", cfg.Radius.Strategy)
	assert.Equal(t, 2.5, cfg.Radius.Fixed)
	assert.Equal(t, "centroid", cfg.Selection)
	assert.Equal(t, "largest", cfg.Components, "default kept")
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(42), *cfg.Seed)
	assert.Empty(t, cfg.Validate())
}

// TestLoad_Errors verifies that file problems map to ExitConfigError.
func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigError, cliErr.Code)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sampler: [unclosed"), 0o644))
	_, err = Load(bad)
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigError, cliErr.Code)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestApplyEnv verifies environment overrides and number parsing errors.
func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"STANDSYNTH_SAMPLER":         "poisson",
		"STANDSYNTH_JITTER":          "0.5",
		"STANDSYNTH_RADIUS_STRATEGY": "mean-height",
		"STANDSYNTH_RADIUS_DIVISOR":  "4",
		"STANDSYNTH_WORKERS":         "3",
		"STANDSYNTH_SEED":            "7",
		"STANDSYNTH_COMPONENTS":      "each",
		"LOG_LEVEL":                  "debug",
	}))
	require.NoError(t, err)
	assert.Equal(t, "poisson", cfg.Sampler.Kind)
	assert.Equal(t, 0.5, cfg.Sampler.Jitter)
	assert.Equal(t, "mean-height", cfg.Radius.Strategy)
	assert.Equal(t, 4.0, cfg.Radius.Divisor)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, int64(7), *cfg.Seed)
	assert.Equal(t, "each", cfg.Components)
	assert.Equal(t, "debug", cfg.Log.Level)

	cfg = Default()
	err = cfg.ApplyEnv(envMap(map[string]string{
		"STANDSYNTH_JITTER":  "lots",
		"STANDSYNTH_SEED":    "x",
		"STANDSYNTH_SAMPLER": "poisson",
	}))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "STANDSYNTH_JITTER")
	assert.Contains(t, err.Error(), "STANDSYNTH_SEED")
	assert.Equal(t, "poisson", cfg.Sampler.Kind, "valid variables still applied")
	assert.Equal(t, 0.6666, cfg.Sampler.Jitter)
}

// TestLoadDotEnv verifies that .env values reach the environment and that
// a missing file is ignored.
func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "absent.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("STANDSYNTH_TEST_DOTENV=hello\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("STANDSYNTH_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("STANDSYNTH_TEST_DOTENV"))
}

// TestValidate checks every rejection rule.
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "unknown sampler", mutate: func(c *Config) { c.Sampler.Kind = "grid" }, field: "sampler.kind"},
		{name: "unknown limit mode", mutate: func(c *Config) { c.Sampler.LimitMode = "cut" }, field: "sampler.limitMode"},
		{name: "unknown strategy", mutate: func(c *Config) { c.Radius.Strategy = "magic" }, field: "radius.strategy"},
		{name: "unknown selection", mutate: func(c *Config) { c.Selection = "touches" }, field: "selection"},
		{name: "unknown policy", mutate: func(c *Config) { c.Components = "smallest" }, field: "components"},
		{name: "jitter too large", mutate: func(c *Config) { c.Sampler.Jitter = 1.2 }, field: "sampler.jitter"},
		{name: "negative jitter", mutate: func(c *Config) { c.Sampler.Jitter = -0.1 }, field: "sampler.jitter"},
		{name: "negative attempts", mutate: func(c *Config) { c.Sampler.PoissonAttempts = -1 }, field: "sampler.poissonAttempts"},
		{name: "negative height jitter", mutate: func(c *Config) { c.HeightJitter = -1 }, field: "heightJitter"},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -2 }, field: "workers"},
		{name: "negative fixed radius", mutate: func(c *Config) { c.Radius.Fixed = -1 }, field: "radius.fixed"},
		{name: "fixed strategy without radius", mutate: func(c *Config) { c.Radius.Strategy = "fixed" }, field: "radius.fixed"},
		{name: "mean-height without divisor", mutate: func(c *Config) {
			c.Radius.Strategy = "mean-height"
			c.Radius.Divisor = 0
		}, field: "radius.divisor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)

			var cliErr *model.CLIError
			require.True(t, errors.As(cfg.Err(), &cliErr))
			assert.Equal(t, model.ExitConfigError, cliErr.Code)
			assert.Contains(t, cliErr.Error(), tt.field)
		})
	}
}

// TestMarshal verifies the YAML rendering used by the config command.
func TestMarshal(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "strategy: hex-packing")
	assert.Contains(t, string(data), "jitter: 0.6666")
}
