// Package simulate implements the counterfactual share engine: decomposition of
// a total into three flows, a pluggable share transform, recomposition and
// population-weighted aggregation by year.
package simulate

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/cfsim/internal/model"
)

// Decomposition is the output of Decompose for one row. Its fields are
// unexported so that only Decompose can produce a populated value, which makes
// Recompose unreachable for rows that were never decomposed.
type Decomposition struct {
	row         model.Row
	denominator float64
	flows       model.Flows
}

// Row returns the row this decomposition was computed from.
func (d Decomposition) Row() model.Row { return d.row }

// Denominator returns s1 + s2*s_n + s3*s_n*w_s.
func (d Decomposition) Denominator() float64 { return d.denominator }

// Flows returns x_1, x_2, x_3.
func (d Decomposition) Flows() model.Flows { return d.flows }

// Denominator computes s1 + s2*s_n + s3*s_n*w_s for a row.
func Denominator(r model.Row) float64 {
	return r.S1 + r.S2*r.SN + r.S3*r.SN*r.WS
}

// Decompose derives the flows of a row so that s1*x_1 + s2*x_2 + s3*x_3
// reproduces x_all, with x_2 = s_n*x_1 and x_3 = w_s*x_2.
// A zero (or non-finite) denominator is a DomainError, as is a non-finite
// x_all, s_n or w_s.
func Decompose(r model.Row) (Decomposition, error) {
	key := r.Key
	for _, v := range []float64{r.XAll, r.SN, r.WS} {
		if !finite(v) {
			return Decomposition{}, &DomainError{
				Kind:     KindInvalidValue,
				Variable: r.Variable,
				Key:      &key,
				Value:    v,
			}
		}
	}

	den := Denominator(r)
	if den == 0 || !finite(den) {
		return Decomposition{}, &DomainError{
			Kind:     KindZeroDenominator,
			Variable: r.Variable,
			Key:      &key,
			Value:    den,
		}
	}

	x1 := r.XAll / den
	x2 := r.SN * x1
	x3 := r.WS * x2

	return Decomposition{
		row:         r,
		denominator: den,
		flows:       model.Flows{X1: x1, X2: x2, X3: x3},
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DecomposeAll decomposes rows across up to shards goroutines.
// errs[i] is non-nil when rows[i] is invalid.
func DecomposeAll(ctx context.Context, rows []model.Row, shards int) ([]Decomposition, []error, error) {
	out := make([]Decomposition, len(rows))
	errs := make([]error, len(rows))
	err := forShards(ctx, len(rows), shards, func(i int) {
		out[i], errs[i] = Decompose(rows[i])
	})
	if err != nil {
		return nil, nil, err
	}
	return out, errs, nil
}

// forShards calls fn for every index in [0, n) using up to shards goroutines.
// Each shard owns a contiguous index range and fn writes results by index, so
// the output is identical for any shard count.
func forShards(ctx context.Context, n, shards int, fn func(i int)) error {
	if n == 0 {
		return nil
	}
	shards = max(1, min(shards, n))
	size := (n + shards - 1) / shards

	g, gCtx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gCtx.Err(); err != nil {
					return err
				}
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}
