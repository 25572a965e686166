// Package ingest loads the structure, counterfactual, parameters and
// population tables and joins them into simulation rows.
package ingest

import (
	"github.com/sells-group/cfsim/internal/model"
)

// Sheet and file names of the four input tables.
const (
	TableStructure      = "structure"
	TableCounterfactual = "counterfactual"
	TableParameters     = "parameters"
	TablePopulation     = "population"
)

// StructureRow holds the baseline shares of one cell.
type StructureRow struct {
	model.Key
	model.Shares
}

// PopulationRow holds the population of one cell.
type PopulationRow struct {
	model.Key
	Population float64
}

// ValueTable holds the baseline x_all of every target variable per cell.
type ValueTable struct {
	Variables []string
	Keys      []model.Key
	Values    map[model.Key]map[string]float64
}

// ParameterRow assigns conditional shares to a variable for the listed ages.
// Cells outside Ages get s_n = w_s = 1.
type ParameterRow struct {
	Variable string
	SNMen    float64
	SNWomen  float64
	WSMen    float64
	WSWomen  float64
	Ages     []string
}

// Tables bundles the four input tables of a run.
type Tables struct {
	Structure  []StructureRow
	Values     ValueTable
	Parameters []ParameterRow
	Population []PopulationRow
}

// SexLabels maps the sex category codes used in the input to men/women.
type SexLabels struct {
	Male   string `yaml:"male" mapstructure:"male"`
	Female string `yaml:"female" mapstructure:"female"`
}

// DefaultSexLabels matches the "M"/"K" coding of the source workbooks.
func DefaultSexLabels() SexLabels {
	return SexLabels{Male: "M", Female: "K"}
}
