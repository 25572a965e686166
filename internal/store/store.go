// Package store persists simulation run history: runs, their phases, and the
// per-year results they produced.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cfsim/internal/model"
)

// ErrNotFound is returned when a run or phase does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status   model.RunStatus `json:"status,omitempty"`
	Scenario string          `json:"scenario,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for simulation runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Phases
	CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error)
	CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error
	ListPhases(ctx context.Context, runID string) ([]model.RunPhase, error)

	// Year results
	SaveYearResults(ctx context.Context, runID string, rows []model.SummaryRow) error
	YearResults(ctx context.Context, runID string) ([]model.SummaryRow, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

var yearResultColumns = []string{
	"run_id", "variable", "year", "row_count", "total_weight",
	"weighted_x_all", "weighted_x_all_new", "abs_dev", "rel_dev",
}

func yearResultRow(runID string, r model.SummaryRow) []any {
	return []any{
		runID, r.Variable, r.Year, r.Rows, r.TotalWeight,
		r.WeightedXAll, r.WeightedXAllNew, r.AbsDev, r.RelDev,
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanYearResult(row scannable) (model.SummaryRow, error) {
	var r model.SummaryRow
	err := row.Scan(&r.Variable, &r.Year, &r.Rows, &r.TotalWeight,
		&r.WeightedXAll, &r.WeightedXAllNew, &r.AbsDev, &r.RelDev)
	return r, err
}
