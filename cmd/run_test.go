package main

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cfsim/internal/config"
	"github.com/sells-group/cfsim/internal/model"
)

func newRunFlags() *pflag.FlagSet {
	f := pflag.NewFlagSet("run", pflag.ContinueOnError)
	f.AddFlagSet(runCmd.Flags())
	return f
}

func TestApplyRunFlags_OnlyChanged(t *testing.T) {
	s := config.SimulationConfig{
		Input:    "Input.xlsx",
		Output:   "Output.xlsx",
		Scenario: "default",
		Policy:   "fail",
		Shards:   1,
		Shock:    config.ShockConfig{S1: -0.1, S2: 0.1},
	}

	f := pflag.NewFlagSet("run", pflag.ContinueOnError)
	f.String("input", "", "")
	f.String("output", "", "")
	f.String("detailed-output", "", "")
	f.String("scenario", "", "")
	f.String("scenario-file", "", "")
	f.String("policy", "", "")
	f.String("weight", "", "")
	f.Float64("s1", 0, "")
	f.Float64("s2", 0, "")
	f.Float64("s3", 0, "")
	f.Int("shards", 0, "")
	f.StringSlice("exclude", nil, "")
	require.NoError(t, f.Parse([]string{"--input", "data", "--s3", "0.05", "--shards", "4", "--exclude", "hours,wage"}))

	applyRunFlags(f, &s)

	assert.Equal(t, "data", s.Input)
	assert.Equal(t, "Output.xlsx", s.Output)
	assert.Equal(t, "default", s.Scenario)
	assert.Equal(t, "fail", s.Policy)
	assert.Equal(t, 4, s.Shards)
	assert.InDelta(t, -0.1, s.Shock.S1, 1e-12)
	assert.InDelta(t, 0.1, s.Shock.S2, 1e-12)
	assert.InDelta(t, 0.05, s.Shock.S3, 1e-12)
	assert.Equal(t, []string{"hours", "wage"}, s.ExcludeVariables)
}

func TestApplyRunFlags_NoneChanged(t *testing.T) {
	s := config.SimulationConfig{Input: "Input.xlsx", Shards: 2}
	want := s

	applyRunFlags(newRunFlags(), &s)
	assert.Equal(t, want, s)
}

func TestFormatSummary(t *testing.T) {
	rows := []model.SummaryRow{
		{Variable: "income", YearResult: model.YearResult{Year: 2023, WeightedXAll: 86.1538, WeightedXAllNew: 84.2, AbsDev: -1.9538, RelDev: -0.02268}},
	}

	var buf bytes.Buffer
	formatSummary(&buf, rows)

	out := buf.String()
	assert.Contains(t, out, "VARIABLE")
	assert.Contains(t, out, "REL_DEV")
	assert.Contains(t, out, "income")
	assert.Contains(t, out, "2023")
	assert.Contains(t, out, "86.1538")
	assert.Contains(t, out, "-1.9538")
	assert.Contains(t, out, "-2.27%")
}
