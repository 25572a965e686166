package model

// Outcome is a fully processed row: decomposed, transformed and recomposed.
type Outcome struct {
	Row         Row     `json:"row"`
	Denominator float64 `json:"denominator"`
	Flows       Flows   `json:"flows"`
	New         Shares  `json:"new_shares"`
	XAll        float64 `json:"x_all_bs"` // recomputed baseline
	XAllNew     float64 `json:"x_all_as"`
	Weight      float64 `json:"weight"`
}

// YearResult is the population-weighted summary of one year.
type YearResult struct {
	Year            int     `json:"year"`
	Rows            int     `json:"rows"`
	TotalWeight     float64 `json:"total_weight"`
	WeightedXAll    float64 `json:"weighted_x_all"`
	WeightedXAllNew float64 `json:"weighted_x_all_new"`
	AbsDev          float64 `json:"abs_dev"`
	RelDev          float64 `json:"rel_dev"`
}

// Rejection records a row excluded from a run and why.
type Rejection struct {
	Key      Key    `json:"key"`
	Variable string `json:"variable"`
	Reason   string `json:"reason"`
}

// VariableResult is the outcome of simulating one target variable.
type VariableResult struct {
	Variable string       `json:"variable"`
	Scenario string       `json:"scenario"`
	Years    []YearResult `json:"years"`
	Outcomes []Outcome    `json:"-"`
	Rejected []Rejection  `json:"rejected,omitempty"`

	Totals        []PopulationTotals `json:"totals,omitempty"`
	Contributions []Contribution     `json:"contributions,omitempty"`
}

// SummaryRow is one line of the grouped output table.
type SummaryRow struct {
	Variable string `json:"variable"`
	YearResult
}

// Summary flattens per-variable year results into output rows, preserving
// variable order and ascending years.
func Summary(results []VariableResult) []SummaryRow {
	var out []SummaryRow
	for _, vr := range results {
		for _, yr := range vr.Years {
			out = append(out, SummaryRow{Variable: vr.Variable, YearResult: yr})
		}
	}
	return out
}
