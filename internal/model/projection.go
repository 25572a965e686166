package model

// ProjectionPoint is one projected year of a variable. RelDiff is nil when the
// projected baseline is zero.
type ProjectionPoint struct {
	Variable    string   `json:"variable"`
	Offset      int      `json:"offset"`
	Year        int      `json:"year"`
	Baseline    float64  `json:"baseline"`
	Alternative float64  `json:"alternative"`
	RelDiff     *float64 `json:"rel_diff"`
}
