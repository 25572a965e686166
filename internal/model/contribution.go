package model

// PopulationTotals are the population-scaled totals of one variable in one
// year: the sum of x_all times population over every processed row.
// ChangePct is nil when the baseline total is zero.
type PopulationTotals struct {
	Year        int      `json:"year"`
	Baseline    float64  `json:"baseline"`
	Alternative float64  `json:"alternative"`
	Change      float64  `json:"change"`
	ChangePct   *float64 `json:"change_pct"`
	TopGroups   []string `json:"top_contributing_groups,omitempty"`
}

// Contribution is one demographic group's part in the change of a
// population-scaled total. SharePct is nil when the total does not change.
type Contribution struct {
	Year        int      `json:"year"`
	Age         string   `json:"age"`
	Sex         string   `json:"sex"`
	Baseline    float64  `json:"baseline"`
	Alternative float64  `json:"alternative"`
	Change      float64  `json:"change"`
	SharePct    *float64 `json:"share_pct"`
}

// Group is the display label of a demographic group.
func (c Contribution) Group() string { return c.Age + "/" + c.Sex }
