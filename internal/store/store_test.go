package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cfsim/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testInput() model.RunInput {
	return model.RunInput{
		InputPath: "Input.xlsx",
		Scenario:  "default",
		Policy:    "fail",
		Weight:    "population",
		Variables: []string{"income", "hours"},
	}
}

func testYearResults() []model.SummaryRow {
	return []model.SummaryRow{
		{Variable: "income", YearResult: model.YearResult{Year: 2023, Rows: 4, TotalWeight: 300, WeightedXAll: 0.45, WeightedXAllNew: 0.7778, AbsDev: 0.3278, RelDev: 0.7284}},
		{Variable: "income", YearResult: model.YearResult{Year: 2024, Rows: 4, TotalWeight: 310, WeightedXAll: 0.5, WeightedXAllNew: 0.4, AbsDev: -0.1, RelDev: -0.2}},
		{Variable: "hours", YearResult: model.YearResult{Year: 2023, Rows: 4, TotalWeight: 300, WeightedXAll: 40, WeightedXAllNew: 38, AbsDev: -2, RelDev: -0.05}},
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testInput())
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusQueued, run.Status)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, model.RunStatusQueued, got.Status)
		assert.Equal(t, testInput(), got.Input)
		assert.Nil(t, got.Result)
		assert.Empty(t, got.Error)
	})

	t.Run("GetRunNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetRun(context.Background(), "nonexistent-id")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("UpdateRunStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testInput())
		require.NoError(t, err)
		require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusSimulating))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusSimulating, got.Status)
	})

	t.Run("UpdateRunStatusNotFound", func(t *testing.T) {
		s := newStore(t)
		err := s.UpdateRunStatus(context.Background(), "nonexistent-id", model.RunStatusLoading)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("UpdateRunResult", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testInput())
		require.NoError(t, err)

		result := &model.RunResult{
			Summary: testYearResults()[:1],
			Phases:  []model.PhaseResult{{Name: "load", Status: model.PhaseStatusComplete, Duration: 12}},
			Outputs: []string{"Output.xlsx"},
		}
		require.NoError(t, s.UpdateRunResult(ctx, run.ID, result))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		require.NotNil(t, got.Result)
		require.Len(t, got.Result.Summary, 1)
		assert.InDelta(t, 0.7778, got.Result.Summary[0].WeightedXAllNew, 1e-12)
		assert.Equal(t, []string{"Output.xlsx"}, got.Result.Outputs)
	})

	t.Run("FailRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testInput())
		require.NoError(t, err)
		require.NoError(t, s.FailRun(ctx, run.ID, "simulate: zero denominator"))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, "simulate: zero denominator", got.Error)

		require.Error(t, s.FailRun(ctx, "nonexistent-id", "x"))
	})

	t.Run("ListRuns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.CreateRun(ctx, testInput())
		require.NoError(t, err)
		other := testInput()
		other.Scenario = "baseline"
		run2, err := s.CreateRun(ctx, other)
		require.NoError(t, err)
		require.NoError(t, s.UpdateRunStatus(ctx, run2.ID, model.RunStatusFailed))

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		queued, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusQueued})
		require.NoError(t, err)
		require.Len(t, queued, 1)
		assert.Equal(t, "default", queued[0].Input.Scenario)

		byScenario, err := s.ListRuns(ctx, RunFilter{Scenario: "baseline"})
		require.NoError(t, err)
		require.Len(t, byScenario, 1)
		assert.Equal(t, run2.ID, byScenario[0].ID)

		limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		offset, err := s.ListRuns(ctx, RunFilter{Limit: 10, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, offset, 1)
	})

	t.Run("Phases", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testInput())
		require.NoError(t, err)

		phase, err := s.CreatePhase(ctx, run.ID, "load")
		require.NoError(t, err)
		assert.NotEmpty(t, phase.ID)
		assert.Equal(t, model.PhaseStatusRunning, phase.Status)

		err = s.CompletePhase(ctx, phase.ID, &model.PhaseResult{
			Name:     "load",
			Status:   model.PhaseStatusComplete,
			Duration: 42,
			Metadata: map[string]any{"rows": 12},
		})
		require.NoError(t, err)

		phases, err := s.ListPhases(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, phases, 1)
		assert.Equal(t, model.PhaseStatusComplete, phases[0].Status)
		require.NotNil(t, phases[0].Result)
		assert.Equal(t, int64(42), phases[0].Result.Duration)

		err = s.CompletePhase(ctx, "nonexistent-id", &model.PhaseResult{Status: model.PhaseStatusFailed})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("YearResults", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, testInput())
		require.NoError(t, err)
		require.NoError(t, s.SaveYearResults(ctx, run.ID, testYearResults()))

		// saving again replaces rather than duplicates
		updated := testYearResults()
		updated[2].AbsDev = -3
		require.NoError(t, s.SaveYearResults(ctx, run.ID, updated))

		got, err := s.YearResults(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		// ordered by variable, then year
		assert.Equal(t, "hours", got[0].Variable)
		assert.Equal(t, -3.0, got[0].AbsDev)
		assert.Equal(t, 2023, got[1].Year)
		assert.Equal(t, 2024, got[2].Year)
		assert.Equal(t, 4, got[1].Rows)
		assert.InDelta(t, 0.7284, got[1].RelDev, 1e-12)

		none, err := s.YearResults(ctx, "nonexistent-id")
		require.NoError(t, err)
		assert.Empty(t, none)

		require.NoError(t, s.SaveYearResults(ctx, run.ID, nil))
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}
