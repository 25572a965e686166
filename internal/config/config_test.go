package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Input.xlsx", cfg.Simulation.Input)
	assert.Equal(t, "Output.xlsx", cfg.Simulation.Output)
	assert.Empty(t, cfg.Simulation.DetailedOutput)
	assert.Equal(t, "backups", cfg.Simulation.BackupDir)
	assert.Equal(t, "default", cfg.Simulation.Scenario)
	assert.InDelta(t, -0.1, cfg.Simulation.Shock.S1, 1e-12)
	assert.InDelta(t, 0.1, cfg.Simulation.Shock.S2, 1e-12)
	assert.Equal(t, 0.0, cfg.Simulation.Shock.S3)
	assert.Equal(t, "fail", cfg.Simulation.Policy)
	assert.Equal(t, 1, cfg.Simulation.Shards)
	assert.Equal(t, WeightPopulation, cfg.Simulation.Weight)
	assert.Equal(t, DefaultWorkingAges, cfg.Simulation.WorkingAges)
	assert.Equal(t, "M", cfg.Simulation.SexLabels.Male)
	assert.Equal(t, "K", cfg.Simulation.SexLabels.Female)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "cfsim.db", cfg.Store.SQLitePath)
	assert.Equal(t, 30, cfg.Projection.YearsAhead)
	assert.Equal(t, "Projection.xlsx", cfg.Projection.Output)
	assert.Equal(t, "Analysis.xlsx", cfg.Analysis.Output)
	assert.Empty(t, cfg.Analysis.Filters)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
simulation:
  input: data/Input.xlsx
  policy: exclude
  shards: 4
  weight: working_age
  exclude_variables: [hours]
  shock:
    s1: -0.2
    s2: 0.15
    s3: 0.05
store:
  driver: none
projection:
  years_ahead: 10
  growth:
    income: 0.02
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/Input.xlsx", cfg.Simulation.Input)
	assert.Equal(t, "exclude", cfg.Simulation.Policy)
	assert.Equal(t, 4, cfg.Simulation.Shards)
	assert.Equal(t, WeightWorkingAge, cfg.Simulation.Weight)
	assert.Equal(t, []string{"hours"}, cfg.Simulation.ExcludeVariables)
	assert.InDelta(t, -0.2, cfg.Simulation.Shock.S1, 1e-12)
	assert.InDelta(t, 0.05, cfg.Simulation.Shock.S3, 1e-12)
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Projection.YearsAhead)
	assert.InDelta(t, 0.02, cfg.Projection.Growth["income"], 1e-12)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, "Output.xlsx", cfg.Simulation.Output)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store:\n  driver: sqlite\nlog:\n  level: debug\n"), 0o644))
	t.Setenv("CFSIM_STORE_DRIVER", "postgres")
	t.Setenv("CFSIM_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CFSIM_SIMULATION_SHARDS", "8")
	t.Setenv("CFSIM_SIMULATION_SCENARIO", "baseline")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Simulation.Shards)
	assert.Equal(t, "baseline", cfg.Simulation.Scenario)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("simulation: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func validDefaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Input:       "Input.xlsx",
			Output:      "Output.xlsx",
			Policy:      "fail",
			Shards:      1,
			Weight:      WeightPopulation,
			WorkingAges: DefaultWorkingAges,
			SexLabels:   SexLabelsConfig{Male: "M", Female: "K"},
		},
		Store:      StoreConfig{Driver: "sqlite", SQLitePath: "cfsim.db"},
		Projection: ProjectionConfig{YearsAhead: 30},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no input", mutate: func(c *Config) { c.Simulation.Input = "" }, wantErr: "simulation.input is required"},
		{name: "zero shards", mutate: func(c *Config) { c.Simulation.Shards = 0 }, wantErr: "shards must be at least 1"},
		{name: "bad policy", mutate: func(c *Config) { c.Simulation.Policy = "ignore" }, wantErr: "policy must be fail or exclude"},
		{name: "bad weight", mutate: func(c *Config) { c.Simulation.Weight = "income" }, wantErr: "weight must be population or working_age"},
		{
			name: "working age without ages",
			mutate: func(c *Config) {
				c.Simulation.Weight = WeightWorkingAge
				c.Simulation.WorkingAges = nil
			},
			wantErr: "working_ages is required",
		},
		{name: "same sex labels", mutate: func(c *Config) { c.Simulation.SexLabels.Female = "M" }, wantErr: "sex_labels must differ"},
		{name: "long delimiter", mutate: func(c *Config) { c.Simulation.CSVDelimiter = ";;" }, wantErr: "single character"},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Driver = "postgres" }, wantErr: "store.database_url is required"},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mysql" }, wantErr: "store.driver must be"},
		{name: "negative years", mutate: func(c *Config) { c.Projection.YearsAhead = -1 }, wantErr: "years_ahead must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := validDefaults()
	cfg.Simulation.Input = ""
	cfg.Simulation.Output = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation.input is required")
	assert.Contains(t, err.Error(), "simulation.output is required")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
