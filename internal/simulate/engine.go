package simulate

import (
	"context"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/cfsim/internal/model"
)

// Policy decides what happens to rows whose decomposition is undefined.
type Policy string

const (
	// PolicyFail aborts the batch at the first invalid row in input order.
	PolicyFail Policy = "fail"
	// PolicyExclude drops invalid rows and reports them in the result.
	PolicyExclude Policy = "exclude"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyFail, PolicyExclude:
		return p, nil
	case "":
		return PolicyFail, nil
	default:
		return "", eris.Errorf("simulate: unknown invalid-row policy %q", s)
	}
}

// WeightFunc returns the aggregation weight of a row.
type WeightFunc func(r model.Row) float64

// PopulationWeight weights each row by its population.
func PopulationWeight(r model.Row) float64 { return r.Population }

// AgeGroupWeight weights rows by population only inside the given age groups
// (e.g. the 20-64 working-age population) and by zero elsewhere.
func AgeGroupWeight(ages []string) WeightFunc {
	return func(r model.Row) float64 {
		if slices.Contains(ages, r.Age) {
			return r.Population
		}
		return 0
	}
}

// Engine runs decomposition, transform, recomposition and aggregation for one
// target variable at a time.
type Engine struct {
	transform Transform
	policy    Policy
	shards    int
	weight    WeightFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the invalid-row policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithShards sets how many goroutines the per-row stages may use.
func WithShards(n int) Option {
	return func(e *Engine) { e.shards = n }
}

// WithWeight sets the aggregation weight.
func WithWeight(w WeightFunc) Option {
	return func(e *Engine) { e.weight = w }
}

// NewEngine creates an Engine applying t. Defaults: fail policy, one shard,
// population weights.
func NewEngine(t Transform, opts ...Option) *Engine {
	e := &Engine{
		transform: t,
		policy:    PolicyFail,
		shards:    1,
		weight:    PopulationWeight,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Transform returns the engine's active transform.
func (e *Engine) Transform() Transform { return e.transform }

// Run simulates one variable over rows.
func (e *Engine) Run(ctx context.Context, variable string, rows []model.Row) (*model.VariableResult, error) {
	log := zap.L().With(zap.String("variable", variable), zap.String("scenario", e.transform.Name()))

	decs, errs, err := DecomposeAll(ctx, rows, e.shards)
	if err != nil {
		return nil, eris.Wrap(err, "simulate: decompose")
	}

	result := &model.VariableResult{
		Variable: variable,
		Scenario: e.transform.Name(),
	}

	valid := make([]Decomposition, 0, len(decs))
	for i, d := range decs {
		if errs[i] == nil {
			valid = append(valid, d)
			continue
		}
		if e.policy != PolicyExclude {
			return nil, eris.Wrap(errs[i], "simulate: decompose")
		}
		result.Rejected = append(result.Rejected, model.Rejection{
			Key:      rows[i].Key,
			Variable: variable,
			Reason:   errs[i].Error(),
		})
		log.Warn("simulate: row excluded",
			zap.Stringer("key", rows[i].Key),
			zap.Error(errs[i]),
		)
	}

	outcomes := make([]model.Outcome, len(valid))
	err = forShards(ctx, len(valid), e.shards, func(i int) {
		d := valid[i]
		o := Recompose(d, e.transform.Apply(d.Row()))
		o.Weight = e.weight(d.Row())
		outcomes[i] = o
	})
	if err != nil {
		return nil, eris.Wrap(err, "simulate: recompose")
	}
	result.Outcomes = outcomes

	years, err := Aggregate(variable, outcomes)
	if err != nil {
		return nil, eris.Wrap(err, "simulate: aggregate")
	}
	result.Years = years
	result.Totals, result.Contributions = Contributions(outcomes, DefaultTopGroups)

	log.Debug("simulate: variable complete",
		zap.Int("rows", len(rows)),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int("years", len(years)),
	)
	return result, nil
}
