package simulate

import (
	"github.com/sells-group/cfsim/internal/model"
)

// Recompose combines the fixed flows of d with the baseline and the
// counterfactual shares. Both totals go through the same formula, so an
// identity transform yields XAllNew == XAll bit for bit.
func Recompose(d Decomposition, alt model.Shares) model.Outcome {
	r := d.Row()
	f := d.Flows()
	return model.Outcome{
		Row:         r,
		Denominator: d.Denominator(),
		Flows:       f,
		New:         alt,
		XAll:        f.Combine(r.Shares),
		XAllNew:     f.Combine(alt),
		Weight:      r.Population,
	}
}
