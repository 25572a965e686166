package pipeline

import (
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cfsim/internal/config"
	"github.com/sells-group/cfsim/internal/ingest"
	"github.com/sells-group/cfsim/internal/model"
	"github.com/sells-group/cfsim/internal/scenario"
	"github.com/sells-group/cfsim/internal/simulate"
)

// Options configures a single simulation run.
type Options struct {
	Input          string
	CSV            ingest.CSVOptions
	Output         string
	DetailedOutput string // empty disables the detailed workbook
	BackupDir      string // empty disables backups of previous outputs
	Shock          scenario.Shock
	Policy         simulate.Policy
	Shards         int
	Weight         string
	WorkingAges    []string
	Exclude        []string
	SexLabels      ingest.SexLabels

	now func() time.Time
}

// NewOptions builds run options from configuration and the selected shock.
func NewOptions(cfg config.SimulationConfig, shock scenario.Shock) (Options, error) {
	policy, err := simulate.ParsePolicy(cfg.Policy)
	if err != nil {
		return Options{}, eris.Wrap(err, "pipeline: options")
	}
	opts := Options{
		Input:          cfg.Input,
		CSV:            ingest.CSVOptions{Charset: cfg.CSVCharset},
		Output:         cfg.Output,
		DetailedOutput: cfg.DetailedOutput,
		BackupDir:      cfg.BackupDir,
		Shock:          shock,
		Policy:         policy,
		Shards:         cfg.Shards,
		Weight:         cfg.Weight,
		WorkingAges:    cfg.WorkingAges,
		Exclude:        cfg.ExcludeVariables,
		SexLabels:      ingest.SexLabels{Male: cfg.SexLabels.Male, Female: cfg.SexLabels.Female},
	}
	if r := []rune(cfg.CSVDelimiter); len(r) == 1 {
		opts.CSV.Delimiter = r[0]
	}
	return opts, nil
}

// ResolveShock picks the named scenario from file, or from the built-in
// scenarios when file is empty. The built-in "default" shift takes its deltas
// from shock.
func ResolveShock(name, file string, shock config.ShockConfig) (scenario.Shock, error) {
	var f *scenario.File
	if file != "" {
		var err error
		if f, err = scenario.Load(file); err != nil {
			return scenario.Shock{}, err
		}
	} else {
		f = &scenario.File{Scenarios: scenario.Default()}
		for i := range f.Scenarios {
			if f.Scenarios[i].Name == scenario.DefaultName {
				f.Scenarios[i].S1 = shock.S1
				f.Scenarios[i].S2 = shock.S2
				f.Scenarios[i].S3 = shock.S3
			}
		}
	}
	if name == "" {
		name = scenario.DefaultName
	}
	return f.Get(name)
}

func (o Options) weight() (simulate.WeightFunc, error) {
	switch o.Weight {
	case "", config.WeightPopulation:
		return simulate.PopulationWeight, nil
	case config.WeightWorkingAge:
		return simulate.AgeGroupWeight(o.WorkingAges), nil
	default:
		return nil, eris.Errorf("pipeline: unknown weight %q", o.Weight)
	}
}

func (o Options) labels() ingest.SexLabels {
	if o.SexLabels == (ingest.SexLabels{}) {
		return ingest.DefaultSexLabels()
	}
	return o.SexLabels
}

func (o Options) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

func (o Options) runInput() model.RunInput {
	return model.RunInput{
		InputPath: o.Input,
		Scenario:  o.Shock.Name,
		Policy:    string(o.Policy),
		Weight:    o.Weight,
	}
}

func loadTables(opts Options) (*ingest.Tables, error) {
	info, err := os.Stat(opts.Input)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: input %s", opts.Input)
	}
	if info.IsDir() {
		return ingest.ReadCSVDir(opts.Input, opts.CSV)
	}
	return ingest.ReadWorkbook(opts.Input)
}
