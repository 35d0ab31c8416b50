// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// StageStatus is the lifecycle state of one pipeline stage.
type StageStatus string

const (
	StagePending StageStatus = "pending"
	StageRunning StageStatus = "running"
	StageSuccess StageStatus = "success"
	StageFailed  StageStatus = "failed"
)

// StageState tracks one stage of one pipeline run. Transitions are
// monotonic except failed → running (retry) and pending → running.
type StageState struct {
	// StageID identifies the stage (e.g. "segmentation", "citations").
	StageID string `json:"stage_id" yaml:"stage_id"`

	// DisplayName is the human-readable stage name.
	DisplayName string `json:"name" yaml:"name"`

	// Required marks stages that must succeed for the pipeline to complete.
	Required bool `json:"required" yaml:"required"`

	// Status is the current lifecycle state.
	Status StageStatus `json:"status" yaml:"status"`

	// Retries counts failed → running transitions taken so far.
	Retries int `json:"retries" yaml:"retries"`

	// LastError records the most recent failure message, empty if none.
	LastError string `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

// PipelineState is the orchestrator's unit of work: one per
// document-processing run, held by the caller and re-submitted after each
// stage completion.
type PipelineState struct {
	// DocumentID is the document this run assesses.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Stages maps stage id to its current state.
	Stages map[string]StageState `json:"stage_states" yaml:"stage_states"`

	// MaxRetriesPerStage caps failed → running transitions per stage.
	// Zero means the default (2).
	MaxRetriesPerStage int `json:"max_retries_per_stage" yaml:"max_retries_per_stage"`
}

// PipelineStatus classifies overall pipeline health.
type PipelineStatus string

const (
	PipelineRunning             PipelineStatus = "running"
	PipelineBlocked             PipelineStatus = "blocked"
	PipelineCompletedSuccess    PipelineStatus = "completed_success"
	PipelineCompletedWithErrors PipelineStatus = "completed_with_errors"
)

// ActionKind is the kind of step the orchestrator asks the caller to take.
type ActionKind string

const (
	ActionRun      ActionKind = "run"
	ActionRetry    ActionKind = "retry"
	ActionNoAction ActionKind = "no_action"
)

// NextAction is one planned step for the driving loop.
type NextAction struct {
	// Action is run, retry, or no_action.
	Action ActionKind `json:"action" yaml:"action"`

	// TargetStage is the stage to run or retry. Empty for no_action.
	TargetStage string `json:"target_stage,omitempty" yaml:"target_stage,omitempty"`

	// Reason explains why this action was planned.
	Reason string `json:"reason" yaml:"reason"`
}

// Progress summarizes completion over required stages.
type Progress struct {
	Completed int     `json:"completed" yaml:"completed"`
	Total     int     `json:"total" yaml:"total"`
	Fraction  float64 `json:"fraction" yaml:"fraction"`

	// Description lists the remaining required stage names.
	Description string `json:"description" yaml:"description"`
}

// BlockingProblem reports a required stage that exhausted its retry budget.
type BlockingProblem struct {
	// Stage is the failed stage id. Empty for input-validation problems.
	Stage string `json:"stage,omitempty" yaml:"stage,omitempty"`

	// Reason describes the failure.
	Reason string `json:"reason" yaml:"reason"`

	// RetriesExhausted is true when the retry budget was spent.
	RetriesExhausted bool `json:"retries_exhausted" yaml:"retries_exhausted"`

	// BlocksDependents is true when other stages depend on this one.
	BlocksDependents bool `json:"blocks_dependents" yaml:"blocks_dependents"`
}

// Evaluation is the orchestrator's verdict on one PipelineState.
type Evaluation struct {
	Status           PipelineStatus    `json:"status" yaml:"status"`
	NextActions      []NextAction      `json:"next_actions" yaml:"next_actions"`
	Progress         Progress          `json:"progress" yaml:"progress"`
	BlockingProblems []BlockingProblem `json:"blocking_problems,omitempty" yaml:"blocking_problems,omitempty"`
}
