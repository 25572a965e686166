// Package pipeline runs a full simulation: load, join, simulate, report and
// persist, recording each phase in the run history.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/cfsim/internal/ingest"
	"github.com/sells-group/cfsim/internal/model"
	"github.com/sells-group/cfsim/internal/report"
	"github.com/sells-group/cfsim/internal/simulate"
	"github.com/sells-group/cfsim/internal/store"
)

// Phase names.
const (
	PhaseLoad     = "load"
	PhaseJoin     = "join"
	PhaseSimulate = "simulate"
	PhaseReport   = "report"
	PhasePersist  = "persist"
)

// Pipeline orchestrates simulation runs.
type Pipeline struct {
	store store.Store
}

// New creates a Pipeline. st may be nil, in which case no history is kept.
func New(st store.Store) *Pipeline {
	return &Pipeline{store: st}
}

// Result is the outcome of a run.
type Result struct {
	RunID     string                 `json:"run_id,omitempty"`
	Scenario  string                 `json:"scenario"`
	Variables []model.VariableResult `json:"variables"`
	Summary   []model.SummaryRow     `json:"summary"`
	Rejected  []model.Rejection      `json:"rejected,omitempty"`
	Phases    []model.PhaseResult    `json:"phases"`
	Outputs   []string               `json:"outputs,omitempty"`
}

// Run executes every phase in order and stops at the first failing one.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("input", opts.Input), zap.String("scenario", opts.Shock.Name))
	log.Info("pipeline: starting run")

	transform, err := opts.Shock.Transform()
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: scenario")
	}
	weight, err := opts.weight()
	if err != nil {
		return nil, err
	}

	result := &Result{Scenario: opts.Shock.Name}

	var run *model.Run
	if p.store != nil {
		run, err = p.store.CreateRun(ctx, opts.runInput())
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		result.RunID = run.ID
		log = log.With(zap.String("run_id", run.ID))
	}

	setStatus := func(status model.RunStatus) {
		if run == nil {
			return
		}
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	fail := func(err error) (*Result, error) {
		if run != nil {
			if failErr := p.store.FailRun(ctx, run.ID, err.Error()); failErr != nil {
				log.Warn("pipeline: failed to record failure", zap.Error(failErr))
			}
		}
		return result, err
	}

	trackPhase := func(name string, fn func() (*model.PhaseResult, error)) error {
		var phase *model.RunPhase
		if run != nil {
			var phaseErr error
			phase, phaseErr = p.store.CreatePhase(ctx, run.ID, name)
			if phaseErr != nil {
				log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
			}
		}

		start := time.Now()
		phaseResult, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if phaseResult == nil {
			phaseResult = &model.PhaseResult{}
		}
		phaseResult.Name = name
		phaseResult.Duration = duration

		if fnErr != nil {
			phaseResult.Status = model.PhaseStatusFailed
			phaseResult.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		} else {
			phaseResult.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}

		if phase != nil {
			if err := p.store.CompletePhase(ctx, phase.ID, phaseResult); err != nil {
				log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(err))
			}
		}
		result.Phases = append(result.Phases, *phaseResult)
		return fnErr
	}

	// ===== Load =====
	setStatus(model.RunStatusLoading)

	var tables *ingest.Tables
	if err := trackPhase(PhaseLoad, func() (*model.PhaseResult, error) {
		var loadErr error
		if tables, loadErr = loadTables(opts); loadErr != nil {
			return nil, loadErr
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"structure_rows":  len(tables.Structure),
			"population_rows": len(tables.Population),
			"variables":       len(tables.Values.Variables),
		}}, nil
	}); err != nil {
		return fail(err)
	}

	// ===== Join =====
	var variables []string
	joined := make(map[string][]model.Row)
	if err := trackPhase(PhaseJoin, func() (*model.PhaseResult, error) {
		var joinErr error
		variables, joinErr = ingest.Variables(tables.Values, tables.Parameters, opts.Exclude)
		if joinErr != nil {
			return nil, joinErr
		}
		if len(variables) == 0 {
			return nil, eris.New("pipeline: no target variables to simulate")
		}
		rows := 0
		for _, v := range variables {
			vr, err := ingest.Join(v, tables.Structure, tables.Values, tables.Parameters, tables.Population, opts.labels())
			if err != nil {
				return nil, err
			}
			if err := ingest.ValidateRows(vr); err != nil {
				return nil, err
			}
			joined[v] = vr
			rows += len(vr)
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"variables": variables,
			"rows":      rows,
		}}, nil
	}); err != nil {
		return fail(err)
	}

	// ===== Simulate =====
	setStatus(model.RunStatusSimulating)

	engine := simulate.NewEngine(transform,
		simulate.WithPolicy(opts.Policy),
		simulate.WithShards(opts.Shards),
		simulate.WithWeight(weight),
	)
	if err := trackPhase(PhaseSimulate, func() (*model.PhaseResult, error) {
		for _, v := range variables {
			vr, err := engine.Run(ctx, v, joined[v])
			if err != nil {
				return nil, err
			}
			result.Variables = append(result.Variables, *vr)
			result.Rejected = append(result.Rejected, vr.Rejected...)
		}
		result.Summary = model.Summary(result.Variables)
		return &model.PhaseResult{Metadata: map[string]any{
			"summary_rows": len(result.Summary),
			"rejected":     len(result.Rejected),
		}}, nil
	}); err != nil {
		return fail(err)
	}

	// ===== Report =====
	setStatus(model.RunStatusReporting)

	if err := trackPhase(PhaseReport, func() (*model.PhaseResult, error) {
		if err := p.writeOutput(opts, opts.Output, func(path string) error {
			return report.WriteSummary(path, result.Summary)
		}); err != nil {
			return nil, err
		}
		result.Outputs = append(result.Outputs, opts.Output)

		if opts.DetailedOutput != "" {
			if err := p.writeOutput(opts, opts.DetailedOutput, func(path string) error {
				return report.WriteDetailed(path, result.Variables)
			}); err != nil {
				return nil, err
			}
			result.Outputs = append(result.Outputs, opts.DetailedOutput)
		}
		return &model.PhaseResult{Metadata: map[string]any{"outputs": result.Outputs}}, nil
	}); err != nil {
		return fail(err)
	}

	// ===== Persist =====
	if run != nil {
		if err := trackPhase(PhasePersist, func() (*model.PhaseResult, error) {
			if err := p.store.SaveYearResults(ctx, run.ID, result.Summary); err != nil {
				return nil, err
			}
			return &model.PhaseResult{Metadata: map[string]any{"year_results": len(result.Summary)}}, nil
		}); err != nil {
			return fail(err)
		}

		runResult := &model.RunResult{
			Summary:  result.Summary,
			Rejected: result.Rejected,
			Phases:   result.Phases,
			Outputs:  result.Outputs,
		}
		if saveErr := p.store.UpdateRunResult(ctx, run.ID, runResult); saveErr != nil {
			log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
		}
	}

	log.Info("pipeline: run complete",
		zap.Int("variables", len(result.Variables)),
		zap.Int("summary_rows", len(result.Summary)),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}

// writeOutput backs up whatever is at path, then writes it.
func (p *Pipeline) writeOutput(opts Options, path string, write func(string) error) error {
	if opts.BackupDir != "" {
		if _, err := report.Backup(path, opts.BackupDir, opts.clock()); err != nil {
			return err
		}
	}
	return write(path)
}
