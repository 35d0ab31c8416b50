// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assess

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/paper-assessor/internal/pipeline"
	"github.com/pdiddy/paper-assessor/pkg/types"
)

// Runner executes a full pipeline run for one document. It owns what the
// orchestrator deliberately does not: actually running stages, pausing
// between retries, and mutating the stage-state table. One Runner run per
// document at a time; the store has no locking of its own.
type Runner struct {
	orch   *pipeline.Orchestrator
	stages map[string]StageRunner
	cfg    types.AssessConfig
}

// NewRunner wires the stage runners into a dependency graph and validates
// it.
func NewRunner(stages []StageRunner, cfg types.AssessConfig) (*Runner, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("no stages configured")
	}

	graph := pipeline.Graph{}
	byID := make(map[string]StageRunner, len(stages))
	for _, st := range stages {
		if _, dup := byID[st.StageID()]; dup {
			return nil, fmt.Errorf("duplicate stage %q", st.StageID())
		}
		byID[st.StageID()] = st
		graph[st.StageID()] = st.Dependencies()
	}

	orch, err := pipeline.New(graph)
	if err != nil {
		return nil, err
	}
	return &Runner{orch: orch, stages: byID, cfg: cfg}, nil
}

// InitialState builds the pending stage-state table for a document.
func (r *Runner) InitialState(documentID string) types.PipelineState {
	states := make(map[string]types.StageState, len(r.stages))
	for id, st := range r.stages {
		states[id] = types.StageState{
			StageID:     id,
			DisplayName: st.DisplayName(),
			Required:    st.Required(),
			Status:      types.StagePending,
		}
	}
	return types.PipelineState{
		DocumentID:         documentID,
		Stages:             states,
		MaxRetriesPerStage: r.cfg.MaxRetriesPerStage,
	}
}

// Run drives the reconciliation loop to a terminal status, executing each
// planned action synchronously and re-evaluating after every completion.
// Per-item progress goes to w.
func (r *Runner) Run(ctx context.Context, documentID string, w io.Writer) (types.Evaluation, types.PipelineState, error) {
	state := r.InitialState(documentID)

	for {
		eval := r.orch.Evaluate(state)
		switch eval.Status {
		case types.PipelineCompletedSuccess, types.PipelineBlocked, types.PipelineCompletedWithErrors:
			fmt.Fprintf(w, "\n%s (%d/%d stages)\n", eval.Status, eval.Progress.Completed, eval.Progress.Total)
			return eval, state, nil
		}

		executed := false
		for _, action := range eval.NextActions {
			if action.Action == types.ActionNoAction {
				continue
			}
			if err := r.execute(ctx, documentID, state, action, w); err != nil {
				return eval, state, err
			}
			executed = true
		}

		// Nothing ran and nothing is terminal: the loop cannot make
		// progress on its own (all work here is synchronous).
		if !executed {
			return eval, state, fmt.Errorf("pipeline stalled: %s", eval.NextActions[0].Reason)
		}
	}
}

// execute runs one stage action and folds the outcome into the state.
func (r *Runner) execute(ctx context.Context, documentID string, state types.PipelineState, action types.NextAction, w io.Writer) error {
	stage, ok := r.stages[action.TargetStage]
	if !ok {
		return fmt.Errorf("planned action for unknown stage %q", action.TargetStage)
	}

	st := state.Stages[action.TargetStage]
	if action.Action == types.ActionRetry {
		st.Retries++
		if r.cfg.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.cfg.RetryDelay):
			}
		}
		fmt.Fprintf(w, "retrying %s (attempt %d)\n", stage.StageID(), st.Retries+1)
	} else {
		fmt.Fprintf(w, "running  %s\n", stage.StageID())
	}
	st.Status = types.StageRunning
	state.Stages[action.TargetStage] = st

	if err := stage.Run(ctx, documentID); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		st.Status = types.StageFailed
		st.LastError = err.Error()
		state.Stages[action.TargetStage] = st
		fmt.Fprintf(w, "failed   %s: %v\n", stage.StageID(), err)
		return nil
	}

	st.Status = types.StageSuccess
	st.LastError = ""
	state.Stages[action.TargetStage] = st
	fmt.Fprintf(w, "success  %s\n", stage.StageID())
	return nil
}

// DefaultOracleInstructions maps each oracle-backed stage to its task
// description and declared output shape.
var DefaultOracleInstructions = map[string]struct {
	Name        string
	Instruction string
	Shape       string
}{
	types.StageStructure: {
		Name:        "Structural analysis",
		Instruction: "Map the document's section headings to character offsets and judge its organization.",
		Shape:       `{"sections":[{"heading":"string","start_offset":0,"end_offset":0}],"organization_score":0.0,"structure_issues":[],"positives":[],"negatives":[]}`,
	},
	types.StageClarity: {
		Name:        "Clarity review",
		Instruction: "Assess the writing clarity of this paper and report unclear passages.",
		Shape:       `{"clarity_score":0.0,"clarity_issues":[],"well_written":[],"unclear":[],"summary":"string"}`,
	},
	types.StageMethodology: {
		Name:        "Methodology review",
		Instruction: "Assess the methodological rigor of this paper and report concerns.",
		Shape:       `{"rigor_score":0.0,"methodology_issues":[],"sound_aspects":[],"concerns":[],"summary":"string"}`,
	},
	types.StageNovelty: {
		Name:        "Novelty assessment",
		Instruction: "Assess the novelty of this paper's contributions against prior art.",
		Shape:       `{"novelty_score":0.0,"novelty_issues":[],"contributions":[],"prior_art_gaps":[],"summary":"string"}`,
	},
}
