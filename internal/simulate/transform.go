package simulate

import (
	"github.com/sells-group/cfsim/internal/model"
)

// Transform maps a row's baseline shares to counterfactual shares. It receives
// the row by value and must not depend on anything outside it.
//
// New shares are not normalized: a shock may add or remove total allocation
// mass, so s1_new+s2_new+s3_new is free to differ from 1.
type Transform interface {
	Name() string
	Apply(r model.Row) model.Shares
}

// TransformFunc adapts a closure to Transform.
type TransformFunc struct {
	Label string
	Fn    func(r model.Row) model.Shares
}

// Name implements Transform.
func (t TransformFunc) Name() string { return t.Label }

// Apply implements Transform.
func (t TransformFunc) Apply(r model.Row) model.Shares { return t.Fn(r) }

// Identity returns the baseline shares unchanged.
type Identity struct{}

// Name implements Transform.
func (Identity) Name() string { return "identity" }

// Apply implements Transform.
func (Identity) Apply(r model.Row) model.Shares { return r.Shares }

// ShiftShock adds a fixed delta to each share.
type ShiftShock struct {
	DS1, DS2, DS3 float64
}

// Name implements Transform.
func (ShiftShock) Name() string { return "shift" }

// Apply implements Transform.
func (s ShiftShock) Apply(r model.Row) model.Shares {
	return model.Shares{
		S1: r.S1 + s.DS1,
		S2: r.S2 + s.DS2,
		S3: r.S3 + s.DS3,
	}
}

// ProportionalShock scales s1 by Factor and hands the removed mass to s2 and
// s3 in proportion to their baseline sizes (evenly when both are zero).
type ProportionalShock struct {
	Factor float64
}

// Name implements Transform.
func (ProportionalShock) Name() string { return "proportional" }

// Apply implements Transform.
func (p ProportionalShock) Apply(r model.Row) model.Shares {
	s1New := r.S1 * p.Factor
	moved := r.S1 - s1New

	w2, w3 := 0.5, 0.5
	if rest := r.S2 + r.S3; rest != 0 {
		w2 = r.S2 / rest
		w3 = r.S3 / rest
	}
	return model.Shares{
		S1: s1New,
		S2: r.S2 + w2*moved,
		S3: r.S3 + w3*moved,
	}
}

// ZeroAndRedistribute zeroes s1 and adds fixed fractions of the removed mass
// to s2 and s3. The removed mass is computed from the already-zeroed s1_new.
type ZeroAndRedistribute struct {
	ToS2, ToS3 float64
}

// Name implements Transform.
func (ZeroAndRedistribute) Name() string { return "zero-and-redistribute" }

// Apply implements Transform.
func (z ZeroAndRedistribute) Apply(r model.Row) model.Shares {
	var out model.Shares
	out.S1 = 0
	removed := r.S1 - out.S1
	out.S2 = r.S2 + z.ToS2*removed
	out.S3 = r.S3 + z.ToS3*removed
	return out
}
