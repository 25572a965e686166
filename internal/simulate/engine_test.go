package simulate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cfsim/internal/model"
)

func TestEngine_EndToEndScenario(t *testing.T) {
	t.Parallel()
	e := NewEngine(ZeroAndRedistribute{ToS2: 0.5, ToS3: 0.5})

	res, err := e.Run(context.Background(), "mortality", []model.Row{scenarioRow()})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	require.Len(t, res.Years, 1)

	o := res.Outcomes[0]
	assert.InDelta(t, 0.45, o.Denominator, 1e-12)
	assert.InDelta(t, 0.7778, o.Flows.X1, 1e-4)
	assert.InDelta(t, 0.3889, o.Flows.X2, 1e-4)
	assert.InDelta(t, 0.1556, o.Flows.X3, 1e-4)
	assert.Equal(t, model.Shares{S1: 0, S2: 0.4, S3: 0.6}.S1, o.New.S1)
	assert.InDelta(t, 0.2489, o.XAllNew, 1e-4)

	yr := res.Years[0]
	assert.Equal(t, 2024, yr.Year)
	assert.InDelta(t, 0.35, yr.WeightedXAll, 1e-12)
	assert.InDelta(t, 0.2489, yr.WeightedXAllNew, 1e-4)
	assert.InDelta(t, -0.1011, yr.AbsDev, 1e-4)
	assert.InDelta(t, -0.2889, yr.RelDev, 1e-4)
	assert.Equal(t, "zero-and-redistribute", res.Scenario)
	assert.Equal(t, "mortality", res.Variable)

	require.Len(t, res.Totals, 1)
	assert.InDelta(t, 35, res.Totals[0].Baseline, 1e-9)
	assert.InDelta(t, 24.89, res.Totals[0].Alternative, 1e-2)
	require.NotNil(t, res.Totals[0].ChangePct)
	assert.InDelta(t, -28.89, *res.Totals[0].ChangePct, 1e-2)
	assert.Equal(t, []string{"20-24/M"}, res.Totals[0].TopGroups)
	require.Len(t, res.Contributions, 1)
	require.NotNil(t, res.Contributions[0].SharePct)
	assert.InDelta(t, 100, *res.Contributions[0].SharePct, 1e-9)
}

func TestEngine_IdentityReproducesBaseline(t *testing.T) {
	t.Parallel()
	res, err := NewEngine(Identity{}).Run(context.Background(), "v", testRows())
	require.NoError(t, err)
	for _, o := range res.Outcomes {
		assert.Equal(t, o.XAll, o.XAllNew)
	}
	for _, yr := range res.Years {
		assert.Equal(t, yr.WeightedXAll, yr.WeightedXAllNew)
		assert.Zero(t, yr.AbsDev)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := ShiftShock{DS1: -0.1, DS2: 0.1}

	first, err := NewEngine(tr).Run(ctx, "v", testRows())
	require.NoError(t, err)
	second, err := NewEngine(tr).Run(ctx, "v", testRows())
	require.NoError(t, err)
	sharded, err := NewEngine(tr, WithShards(3)).Run(ctx, "v", testRows())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, sharded)
}

func TestEngine_TransformSwapIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a, err := NewEngine(ShiftShock{DS1: -0.1, DS2: 0.1}).Run(ctx, "v", testRows())
	require.NoError(t, err)
	b, err := NewEngine(ProportionalShock{Factor: 0.5}).Run(ctx, "v", testRows())
	require.NoError(t, err)

	require.Len(t, b.Outcomes, len(a.Outcomes))
	for i := range a.Outcomes {
		assert.Equal(t, a.Outcomes[i].Flows, b.Outcomes[i].Flows)
		assert.Equal(t, a.Outcomes[i].XAll, b.Outcomes[i].XAll)
		assert.Equal(t, a.Outcomes[i].Row, b.Outcomes[i].Row)
	}
	require.Len(t, b.Years, len(a.Years))
	changed := false
	for i := range a.Years {
		assert.Equal(t, a.Years[i].WeightedXAll, b.Years[i].WeightedXAll)
		changed = changed || a.Years[i].WeightedXAllNew != b.Years[i].WeightedXAllNew
	}
	assert.True(t, changed, "swapping the transform should move the counterfactual")
}

func TestEngine_FailPolicy(t *testing.T) {
	t.Parallel()
	rows := testRows()
	bad := model.Row{Key: model.Key{Year: 2024, Age: "50-54", Sex: "M"}, Population: 10, XAll: 1}
	rows = append(rows[:2], append([]model.Row{bad}, rows[2:]...)...)

	_, err := NewEngine(Identity{}, WithShards(2)).Run(context.Background(), "v", rows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrZeroDenominator))

	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, bad.Key, *de.Key)
	assert.Contains(t, err.Error(), "simulate: decompose")
}

func TestEngine_ExcludePolicy(t *testing.T) {
	t.Parallel()
	bad := model.Row{Key: model.Key{Year: 2024, Age: "50-54", Sex: "M"}, Population: 10, XAll: 1}
	rows := append(testRows(), bad)

	res, err := NewEngine(Identity{}, WithPolicy(PolicyExclude)).Run(context.Background(), "v", rows)
	require.NoError(t, err)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, bad.Key, res.Rejected[0].Key)
	assert.Len(t, res.Outcomes, len(testRows()))
	for _, o := range res.Outcomes {
		assert.NotEqual(t, bad.Key, o.Row.Key)
	}
}

func TestEngine_NonFiniteBaselineIsAnError(t *testing.T) {
	t.Parallel()
	r := scenarioRow()
	r.XAll = math.Inf(1)

	res, err := NewEngine(Identity{}).Run(context.Background(), "mortality", []model.Row{r})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidValue)

	res, err = NewEngine(Identity{}, WithPolicy(PolicyExclude)).Run(context.Background(), "mortality", []model.Row{r, scenarioRow()})
	require.NoError(t, err)
	require.Len(t, res.Rejected, 1)
	require.Len(t, res.Years, 1)
	assert.InDelta(t, 0.35, res.Years[0].WeightedXAll, 1e-12)
}

func TestEngine_NegativePopulationIsAnError(t *testing.T) {
	t.Parallel()
	a, b := scenarioRow(), scenarioRow()
	b.Age = "25-29"
	b.Population = -50

	_, err := NewEngine(Identity{}).Run(context.Background(), "mortality", []model.Row{a, b})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestEngine_AgeGroupWeight(t *testing.T) {
	t.Parallel()
	rows := []model.Row{
		{Key: model.Key{Year: 2024, Age: "20-24"}, Population: 100, Shares: model.Shares{S1: 1}, SN: 1, WS: 1, XAll: 1},
		{Key: model.Key{Year: 2024, Age: "70-74"}, Population: 900, Shares: model.Shares{S1: 1}, SN: 1, WS: 1, XAll: 5},
	}
	res, err := NewEngine(Identity{}, WithWeight(AgeGroupWeight([]string{"20-24"}))).Run(context.Background(), "v", rows)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Years[0].WeightedXAll, 1e-12)

	_, err = NewEngine(Identity{}, WithWeight(AgeGroupWeight([]string{"60-64"}))).Run(context.Background(), "v", rows)
	assert.ErrorIs(t, err, ErrZeroWeight)
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFail, p)

	p, err = ParsePolicy(" Exclude ")
	require.NoError(t, err)
	assert.Equal(t, PolicyExclude, p)

	_, err = ParsePolicy("ignore")
	assert.Error(t, err)
}
