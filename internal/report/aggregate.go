// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report merges the per-stage assessments of a document into one
// priority-ordered, verdict-bearing report. The aggregator is a
// merge/format step: it never re-scores a stage's severity judgments.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/paper-assessor/internal/oracle"
	"github.com/pdiddy/paper-assessor/internal/store"
	"github.com/pdiddy/paper-assessor/pkg/types"
)

// ErrNoStageOutputs marks an aggregation attempt that found no stage
// assessments at all for the document.
var ErrNoStageOutputs = errors.New("no_stage_outputs")

// Aggregator builds final reports from stored stage assessments.
type Aggregator struct {
	store      *store.Store
	summarizer oracle.Oracle
	maxRetries int
}

// New returns an Aggregator. The summarizer oracle is optional: without
// one (or when it misbehaves) the report's summary is computed
// deterministically from the mechanical merge.
func New(s *store.Store, summarizer oracle.Oracle, maxRetries int) *Aggregator {
	return &Aggregator{store: s, summarizer: summarizer, maxRetries: maxRetries}
}

// Aggregate pulls the latest assessment per known stage, merges their
// findings, and derives the verdict. Stages without an assessment are
// omitted; finding none at all is the one hard error.
func (a *Aggregator) Aggregate(ctx context.Context, documentID string) (*types.FinalReport, error) {
	if documentID == "" {
		return nil, fmt.Errorf("no document id")
	}

	outputs := a.collectOutputs(ctx, documentID)
	if len(outputs) == 0 {
		return nil, fmt.Errorf("document %s: %w", documentID, ErrNoStageOutputs)
	}

	rep := &types.FinalReport{
		DocumentID:       documentID,
		DetailedSections: make(map[string]types.StageOutput, len(outputs)),
	}

	var scores []float64
	var merged []types.Issue
	for _, stageID := range types.AssessableStages() {
		out, ok := outputs[stageID]
		if !ok {
			continue
		}
		rep.DetailedSections[stageID] = out
		rep.Strengths = append(rep.Strengths, out.Strengths()...)
		rep.Weaknesses = append(rep.Weaknesses, out.Weaknesses()...)
		for _, v := range out.Scores() {
			scores = append(scores, v)
		}
		for _, issue := range out.Issues() {
			issue.SourceStage = stageID
			merged = append(merged, issue)
		}
	}

	rep.PriorityFixes = partitionBySeverity(merged)
	rep.Verdict = verdictForScores(scores)
	rep.Summary = a.summarize(ctx, rep)
	return rep, nil
}

// collectOutputs pulls and decodes the latest assessment per stage.
// Undecodable payloads are treated the same as absent stages.
func (a *Aggregator) collectOutputs(ctx context.Context, documentID string) map[string]types.StageOutput {
	outputs := make(map[string]types.StageOutput)
	for _, stageID := range types.AssessableStages() {
		assessment, err := a.store.LatestAssessment(ctx, documentID, stageID)
		if err != nil {
			continue
		}
		out, err := types.DecodeStageOutput(stageID, assessment.Payload)
		if err != nil {
			continue
		}
		outputs[stageID] = out
	}
	return outputs
}

// partitionBySeverity splits merged issues into the three priority tiers
// strictly by the producing stage's own severity. Values outside the
// known three land in the medium tier unchanged.
func partitionBySeverity(issues []types.Issue) types.PriorityFixList {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].SourceStage < issues[j].SourceStage
	})
	var fixes types.PriorityFixList
	for _, issue := range issues {
		switch issue.Severity {
		case types.SeverityHigh:
			fixes.High = append(fixes.High, issue)
		case types.SeverityLow:
			fixes.Low = append(fixes.Low, issue)
		default:
			fixes.Medium = append(fixes.Medium, issue)
		}
	}
	return fixes
}

// summarizeShape declares the JSON the summarizer oracle must return.
const summarizeShape = `{"summary": "string"}`

// summarize asks the oracle for a narrative summary of the merged report,
// falling back to the deterministic local summary when the oracle is
// absent, errors, or returns empty or malformed content.
func (a *Aggregator) summarize(ctx context.Context, rep *types.FinalReport) string {
	fallback := deterministicSummary(rep)
	if a.summarizer == nil {
		return fallback
	}

	input, err := json.Marshal(rep)
	if err != nil {
		return fallback
	}
	raw, err := oracle.AssessWithRetry(ctx, a.summarizer, oracle.Task{
		Stage:       types.StageReport,
		Instruction: "Write a concise overall assessment summary of this merged review.",
		Input:       string(input),
		Shape:       summarizeShape,
	}, a.maxRetries)
	if err != nil {
		return fallback
	}

	var resp struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || strings.TrimSpace(resp.Summary) == "" {
		return fallback
	}
	return resp.Summary
}

// deterministicSummary builds a summary from the mechanical merge alone.
func deterministicSummary(rep *types.FinalReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Assessment across %d stage(s): verdict %s.", len(rep.DetailedSections), rep.Verdict)
	fmt.Fprintf(&sb, " Issues by priority: %d high, %d medium, %d low.",
		len(rep.PriorityFixes.High), len(rep.PriorityFixes.Medium), len(rep.PriorityFixes.Low))
	if len(rep.Strengths) > 0 {
		fmt.Fprintf(&sb, " Notable strengths: %s.", strings.Join(firstN(rep.Strengths, 3), "; "))
	}
	if len(rep.Weaknesses) > 0 {
		fmt.Fprintf(&sb, " Main weaknesses: %s.", strings.Join(firstN(rep.Weaknesses, 3), "; "))
	}
	return sb.String()
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
