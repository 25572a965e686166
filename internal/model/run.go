package model

import "time"

// RunStatus represents the current state of a simulation run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusLoading    RunStatus = "loading"
	RunStatusSimulating RunStatus = "simulating"
	RunStatusReporting  RunStatus = "reporting"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// RunInput describes what a run was asked to do.
type RunInput struct {
	InputPath string   `json:"input_path"`
	Scenario  string   `json:"scenario"`
	Policy    string   `json:"policy"`
	Weight    string   `json:"weight"`
	Variables []string `json:"variables,omitempty"`
}

// Run represents a single simulation run.
type Run struct {
	ID        string     `json:"id"`
	Input     RunInput   `json:"input"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Summary  []SummaryRow  `json:"summary"`
	Rejected []Rejection   `json:"rejected,omitempty"`
	Phases   []PhaseResult `json:"phases"`
	Outputs  []string      `json:"outputs,omitempty"`
}

// RunPhase represents a phase within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseStatus represents the current state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
