package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation" mapstructure:"simulation"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Projection ProjectionConfig `yaml:"projection" mapstructure:"projection"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SimulationConfig configures a simulation run.
type SimulationConfig struct {
	Input            string          `yaml:"input" mapstructure:"input"`
	CSVCharset       string          `yaml:"csv_charset" mapstructure:"csv_charset"`
	CSVDelimiter     string          `yaml:"csv_delimiter" mapstructure:"csv_delimiter"`
	Output           string          `yaml:"output" mapstructure:"output"`
	DetailedOutput   string          `yaml:"detailed_output" mapstructure:"detailed_output"`
	BackupDir        string          `yaml:"backup_dir" mapstructure:"backup_dir"`
	Scenario         string          `yaml:"scenario" mapstructure:"scenario"`
	ScenarioFile     string          `yaml:"scenario_file" mapstructure:"scenario_file"`
	Shock            ShockConfig     `yaml:"shock" mapstructure:"shock"`
	Policy           string          `yaml:"policy" mapstructure:"policy"`
	Shards           int             `yaml:"shards" mapstructure:"shards"`
	Weight           string          `yaml:"weight" mapstructure:"weight"`
	WorkingAges      []string        `yaml:"working_ages" mapstructure:"working_ages"`
	ExcludeVariables []string        `yaml:"exclude_variables" mapstructure:"exclude_variables"`
	SexLabels        SexLabelsConfig `yaml:"sex_labels" mapstructure:"sex_labels"`
}

// ShockConfig holds the deltas of the built-in "default" shift scenario.
type ShockConfig struct {
	S1 float64 `yaml:"s1" mapstructure:"s1"`
	S2 float64 `yaml:"s2" mapstructure:"s2"`
	S3 float64 `yaml:"s3" mapstructure:"s3"`
}

// SexLabelsConfig maps the sex codes used in the input tables.
type SexLabelsConfig struct {
	Male   string `yaml:"male" mapstructure:"male"`
	Female string `yaml:"female" mapstructure:"female"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres or none
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ProjectionConfig configures time-series projection of summary results.
type ProjectionConfig struct {
	YearsAhead int                `yaml:"years_ahead" mapstructure:"years_ahead"`
	Growth     map[string]float64 `yaml:"growth" mapstructure:"growth"`
	Output     string             `yaml:"output" mapstructure:"output"`
}

// AnalysisConfig configures multivariate analysis of detailed results.
// Each filter is a comma-separated list of sex=<code> and age=<group> terms.
type AnalysisConfig struct {
	Output  string   `yaml:"output" mapstructure:"output"`
	Filters []string `yaml:"filters" mapstructure:"filters"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Weight names.
const (
	WeightPopulation = "population"
	WeightWorkingAge = "working_age"
)

// DefaultWorkingAges are the age groups of the 20-64 working-age population.
var DefaultWorkingAges = []string{
	"20-24", "25-29", "30-34", "35-39", "40-44", "45-49", "50-54", "55-59", "60-64",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CFSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("simulation.input", "Input.xlsx")
	v.SetDefault("simulation.csv_delimiter", ",")
	v.SetDefault("simulation.output", "Output.xlsx")
	v.SetDefault("simulation.detailed_output", "")
	v.SetDefault("simulation.backup_dir", "backups")
	v.SetDefault("simulation.scenario", "default")
	v.SetDefault("simulation.scenario_file", "")
	v.SetDefault("simulation.shock.s1", -0.1)
	v.SetDefault("simulation.shock.s2", 0.1)
	v.SetDefault("simulation.shock.s3", 0.0)
	v.SetDefault("simulation.policy", "fail")
	v.SetDefault("simulation.shards", 1)
	v.SetDefault("simulation.weight", WeightPopulation)
	v.SetDefault("simulation.working_ages", DefaultWorkingAges)
	v.SetDefault("simulation.exclude_variables", []string{})
	v.SetDefault("simulation.sex_labels.male", "M")
	v.SetDefault("simulation.sex_labels.female", "K")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "cfsim.db")
	v.SetDefault("projection.years_ahead", 30)
	v.SetDefault("projection.output", "Projection.xlsx")
	v.SetDefault("analysis.output", "Analysis.xlsx")
	v.SetDefault("analysis.filters", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a simulation run depends on.
func (c *Config) Validate() error {
	var errs []string
	s := c.Simulation

	if s.Input == "" {
		errs = append(errs, "simulation.input is required")
	}
	if s.Output == "" {
		errs = append(errs, "simulation.output is required")
	}
	if s.Shards < 1 {
		errs = append(errs, "simulation.shards must be at least 1")
	}
	switch strings.ToLower(s.Policy) {
	case "", "fail", "exclude":
	default:
		errs = append(errs, "simulation.policy must be fail or exclude")
	}
	switch s.Weight {
	case WeightPopulation:
	case WeightWorkingAge:
		if len(s.WorkingAges) == 0 {
			errs = append(errs, "simulation.working_ages is required for working_age weights")
		}
	default:
		errs = append(errs, "simulation.weight must be population or working_age")
	}
	if s.SexLabels.Male == "" || s.SexLabels.Female == "" {
		errs = append(errs, "simulation.sex_labels.male and female are required")
	} else if s.SexLabels.Male == s.SexLabels.Female {
		errs = append(errs, "simulation.sex_labels must differ")
	}
	if len([]rune(s.CSVDelimiter)) > 1 {
		errs = append(errs, "simulation.csv_delimiter must be a single character")
	}

	switch c.Store.Driver {
	case "sqlite", "none":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for postgres")
		}
	default:
		errs = append(errs, "store.driver must be sqlite, postgres or none")
	}

	if c.Projection.YearsAhead < 0 {
		errs = append(errs, "projection.years_ahead must be non-negative")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
