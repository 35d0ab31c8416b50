// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/paper-assessor/pkg/types"
)

// defaultMaxRetries is the per-stage retry budget when the caller does not
// set one.
const defaultMaxRetries = 2

// Orchestrator evaluates pipeline states against a fixed dependency graph.
// It holds no mutable state; Evaluate is a pure function of its input and
// may be called repeatedly as a reconciliation loop.
type Orchestrator struct {
	graph Graph
}

// New builds an Orchestrator over the given graph. The graph is validated
// once here; a cyclic or dangling graph is a construction error, not a
// per-evaluation one.
func New(graph Graph) (*Orchestrator, error) {
	if len(graph) == 0 {
		return nil, fmt.Errorf("empty stage graph")
	}
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stage graph: %w", err)
	}
	return &Orchestrator{graph: graph}, nil
}

// Graph returns the orchestrator's dependency graph.
func (o *Orchestrator) Graph() Graph { return o.graph }

// Evaluate classifies pipeline health, plans the next actions, and reports
// progress and blocking problems for one PipelineState. Malformed input is
// returned as status blocked with a descriptive problem, never a panic.
func (o *Orchestrator) Evaluate(state types.PipelineState) types.Evaluation {
	if problem, ok := validate(state); !ok {
		return types.Evaluation{
			Status:           types.PipelineBlocked,
			NextActions:      []types.NextAction{{Action: types.ActionNoAction, Reason: problem.Reason}},
			BlockingProblems: []types.BlockingProblem{problem},
		}
	}

	maxRetries := state.MaxRetriesPerStage
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	stageIDs := make([]string, 0, len(state.Stages))
	for id := range state.Stages {
		stageIDs = append(stageIDs, id)
	}
	sort.Strings(stageIDs)

	eval := types.Evaluation{
		Status:      o.classify(state, stageIDs, maxRetries),
		NextActions: o.planActions(state, stageIDs, maxRetries),
		Progress:    progress(state, stageIDs),
	}
	eval.BlockingProblems = o.blockingProblems(state, stageIDs, maxRetries)
	return eval
}

// validate checks the structural preconditions on a PipelineState.
func validate(state types.PipelineState) (types.BlockingProblem, bool) {
	if state.DocumentID == "" {
		return types.BlockingProblem{Reason: "pipeline state has no document id"}, false
	}
	if len(state.Stages) == 0 {
		return types.BlockingProblem{Reason: "pipeline state has no stage states"}, false
	}
	return types.BlockingProblem{}, true
}

// depsSatisfied reports whether every dependency of the stage is success.
func (o *Orchestrator) depsSatisfied(state types.PipelineState, stageID string) bool {
	for _, dep := range o.graph[stageID] {
		if state.Stages[dep].Status != types.StageSuccess {
			return false
		}
	}
	return true
}

// terminallyFailed reports whether the stage has failed with no retry
// budget left.
func terminallyFailed(st types.StageState, maxRetries int) bool {
	return st.Status == types.StageFailed && st.Retries >= maxRetries
}

// hasDependents reports whether any stage present in the state depends on
// the given one.
func (o *Orchestrator) hasDependents(state types.PipelineState, stageID string) bool {
	for _, dep := range o.graph.Dependents(stageID) {
		if _, ok := state.Stages[dep]; ok {
			return true
		}
	}
	return false
}

// classify derives the overall pipeline status. Order matters: a fully
// successful pipeline wins over everything, then permanent failures split
// into blocked and completed_with_errors by whether anything waits on them.
func (o *Orchestrator) classify(state types.PipelineState, stageIDs []string, maxRetries int) types.PipelineStatus {
	allRequiredDone := true
	for _, id := range stageIDs {
		st := state.Stages[id]
		if st.Required && st.Status != types.StageSuccess {
			allRequiredDone = false
			break
		}
	}
	if allRequiredDone {
		return types.PipelineCompletedSuccess
	}

	permanentFailure := false
	for _, id := range stageIDs {
		st := state.Stages[id]
		if !st.Required || !terminallyFailed(st, maxRetries) {
			continue
		}
		permanentFailure = true
		if o.hasDependents(state, id) {
			return types.PipelineBlocked
		}
	}
	if permanentFailure {
		return types.PipelineCompletedWithErrors
	}
	return types.PipelineRunning
}

// planActions emits run/retry actions for every stage whose dependencies
// are satisfied, or a single no_action describing the wait condition.
func (o *Orchestrator) planActions(state types.PipelineState, stageIDs []string, maxRetries int) []types.NextAction {
	var actions []types.NextAction
	for _, id := range stageIDs {
		st := state.Stages[id]
		if !o.depsSatisfied(state, id) {
			continue
		}
		switch {
		case st.Status == types.StagePending:
			actions = append(actions, types.NextAction{
				Action:      types.ActionRun,
				TargetStage: id,
				Reason:      "dependencies satisfied",
			})
		case st.Status == types.StageFailed && st.Retries < maxRetries:
			actions = append(actions, types.NextAction{
				Action:      types.ActionRetry,
				TargetStage: id,
				Reason:      fmt.Sprintf("retry %d of %d after failure: %s", st.Retries+1, maxRetries, st.LastError),
			})
		}
	}
	if len(actions) > 0 {
		return actions
	}
	return []types.NextAction{{Action: types.ActionNoAction, Reason: waitReason(state, stageIDs, maxRetries)}}
}

// waitReason explains why no stage is runnable right now.
func waitReason(state types.PipelineState, stageIDs []string, maxRetries int) string {
	var running []string
	for _, id := range stageIDs {
		if state.Stages[id].Status == types.StageRunning {
			running = append(running, id)
		}
	}
	if len(running) > 0 {
		return "awaiting external completion of: " + strings.Join(running, ", ")
	}
	for _, id := range stageIDs {
		if terminallyFailed(state.Stages[id], maxRetries) {
			return "no runnable stages: retries exhausted on " + id
		}
	}
	return "all runnable stages are complete"
}

// progress computes the completed fraction over required stages and lists
// what remains.
func progress(state types.PipelineState, stageIDs []string) types.Progress {
	var p types.Progress
	var remaining []string
	for _, id := range stageIDs {
		st := state.Stages[id]
		if !st.Required {
			continue
		}
		p.Total++
		if st.Status == types.StageSuccess {
			p.Completed++
		} else {
			name := st.DisplayName
			if name == "" {
				name = id
			}
			remaining = append(remaining, name)
		}
	}
	if p.Total > 0 {
		p.Fraction = float64(p.Completed) / float64(p.Total)
	}
	if len(remaining) == 0 {
		p.Description = "all required stages complete"
	} else {
		p.Description = "remaining: " + strings.Join(remaining, ", ")
	}
	return p
}

// blockingProblems reports every required stage whose retry budget is
// spent, noting whether dependents are held up by it.
func (o *Orchestrator) blockingProblems(state types.PipelineState, stageIDs []string, maxRetries int) []types.BlockingProblem {
	var problems []types.BlockingProblem
	for _, id := range stageIDs {
		st := state.Stages[id]
		if !st.Required || !terminallyFailed(st, maxRetries) {
			continue
		}
		reason := fmt.Sprintf("stage %s failed after %d retries", id, st.Retries)
		if st.LastError != "" {
			reason += ": " + st.LastError
		}
		problems = append(problems, types.BlockingProblem{
			Stage:            id,
			Reason:           reason,
			RetriesExhausted: true,
			BlocksDependents: o.hasDependents(state, id),
		})
	}
	return problems
}
