// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assess drives a full assessment run: it executes the
// orchestrator's planned actions against concrete stage implementations
// and records each stage's output as an assessment.
package assess

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/paper-assessor/internal/citations"
	"github.com/pdiddy/paper-assessor/internal/oracle"
	"github.com/pdiddy/paper-assessor/internal/report"
	"github.com/pdiddy/paper-assessor/internal/segment"
	"github.com/pdiddy/paper-assessor/internal/store"
	"github.com/pdiddy/paper-assessor/pkg/types"
)

// StageRunner is one executable pipeline stage. Implementations record
// their own assessment through the store; the runner only schedules them.
type StageRunner interface {
	StageID() string
	DisplayName() string
	Required() bool
	Dependencies() []string
	Run(ctx context.Context, documentID string) error
}

// SegmentationStage splits the source document into pages.
type SegmentationStage struct {
	Segmenter *segment.Segmenter
	Store     *store.Store
	Source    segment.Source
	OwnerID   string
}

func (s *SegmentationStage) StageID() string        { return types.StageSegmentation }
func (s *SegmentationStage) DisplayName() string    { return "Document segmentation" }
func (s *SegmentationStage) Required() bool         { return true }
func (s *SegmentationStage) Dependencies() []string { return nil }

func (s *SegmentationStage) Run(ctx context.Context, documentID string) error {
	result, err := s.Segmenter.Segment(ctx, s.Source, s.OwnerID, documentID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]int{
		"page_count":   result.Document.PageCount,
		"failed_pages": result.FailedPages,
	})
	if err != nil {
		return fmt.Errorf("marshaling segmentation payload: %w", err)
	}
	return s.Store.PutAssessment(ctx, &types.Assessment{
		DocumentID: documentID,
		StageID:    types.StageSegmentation,
		Payload:    payload,
	})
}

// CitationsStage runs the citation engine over the segmented text.
type CitationsStage struct {
	Store  *store.Store
	Engine *citations.Engine
}

func (c *CitationsStage) StageID() string        { return types.StageCitations }
func (c *CitationsStage) DisplayName() string    { return "Citation analysis" }
func (c *CitationsStage) Required() bool         { return true }
func (c *CitationsStage) Dependencies() []string { return []string{types.StageSegmentation} }

func (c *CitationsStage) Run(ctx context.Context, documentID string) error {
	text, err := documentText(ctx, c.Store, documentID)
	if err != nil {
		return err
	}
	output := buildCitationsOutput(c.Engine.Analyze(text))
	payload, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("marshaling citation payload: %w", err)
	}
	return c.Store.PutAssessment(ctx, &types.Assessment{
		DocumentID: documentID,
		StageID:    types.StageCitations,
		Payload:    payload,
	})
}

// buildCitationsOutput turns the engine's mechanical report into a stage
// output with explicit findings. A missing references section must become
// a high-severity issue, never a silently clean result.
func buildCitationsOutput(rep types.CitationReport) *types.CitationsOutput {
	out := &types.CitationsOutput{Report: rep}

	if rep.MissingReferences {
		out.CitationIssues = append(out.CitationIssues, types.Issue{
			IssueID:      "cit-missing-refs",
			IssueType:    "missing_references",
			Severity:     types.SeverityHigh,
			Rationale:    "no references section was found in the document",
			SuggestedFix: "add a references or bibliography section",
		})
		return out
	}

	denominator := rep.MatchedCount + rep.UnmatchedCount
	if denominator > 0 {
		out.IntegrityScore = float64(rep.MatchedCount) / float64(denominator)
	} else {
		out.IntegrityScore = 1.0
	}

	if rep.UnmatchedCount > 0 {
		ordinals := make([]string, 0, len(rep.Unmatched))
		for _, c := range rep.Unmatched {
			ordinals = append(ordinals, c.Key)
		}
		out.CitationIssues = append(out.CitationIssues, types.Issue{
			IssueID:   "cit-unmatched",
			IssueType: "unmatched_citations",
			Severity:  types.SeverityMedium,
			Rationale: fmt.Sprintf("%d citation ordinal(s) exceed the reference count of %d: [%s]",
				rep.UnmatchedCount, rep.ReferenceCount, strings.Join(ordinals, ", ")),
			SuggestedFix: "renumber the citations or complete the reference list",
		})
	}
	if rep.UncitedCount > 0 {
		out.CitationIssues = append(out.CitationIssues, types.Issue{
			IssueID:   "cit-uncited",
			IssueType: "uncited_references",
			Severity:  types.SeverityLow,
			Rationale: fmt.Sprintf("%d reference(s) are never cited in the text", rep.UncitedCount),
		})
	}
	if len(rep.AuthorYearKeys) > 0 {
		out.CitationIssues = append(out.CitationIssues, types.Issue{
			IssueID:   "cit-author-year",
			IssueType: "author_year_not_matched",
			Severity:  types.SeverityLow,
			Rationale: fmt.Sprintf("%d author-year citation(s) were found; this style cannot be matched against the reference list by ordinal",
				len(rep.AuthorYearKeys)),
		})
	}
	return out
}

// OracleStage delegates one semantic judgment to the analysis oracle and
// records its structured findings. The payload must decode as the stage's
// declared output shape.
type OracleStage struct {
	Store       *store.Store
	Backend     oracle.Oracle
	ID          string
	Name        string
	IsRequired  bool
	Instruction string
	Shape       string
	MaxRetries  int
}

func (o *OracleStage) StageID() string        { return o.ID }
func (o *OracleStage) DisplayName() string    { return o.Name }
func (o *OracleStage) Required() bool         { return o.IsRequired }
func (o *OracleStage) Dependencies() []string { return []string{types.StageSegmentation} }

func (o *OracleStage) Run(ctx context.Context, documentID string) error {
	text, err := documentText(ctx, o.Store, documentID)
	if err != nil {
		return err
	}
	raw, err := oracle.AssessWithRetry(ctx, o.Backend, oracle.Task{
		Stage:       o.ID,
		Instruction: o.Instruction,
		Input:       text,
		Shape:       o.Shape,
	}, o.MaxRetries)
	if err != nil {
		return fmt.Errorf("oracle call for %s: %w", o.ID, err)
	}
	if _, err := types.DecodeStageOutput(o.ID, raw); err != nil {
		return fmt.Errorf("oracle returned malformed %s output: %w", o.ID, err)
	}
	return o.Store.PutAssessment(ctx, &types.Assessment{
		DocumentID: documentID,
		StageID:    o.ID,
		Payload:    raw,
	})
}

// ReportStage aggregates all stage assessments into the final report.
type ReportStage struct {
	Store      *store.Store
	Aggregator *report.Aggregator
	Deps       []string
}

func (r *ReportStage) StageID() string     { return types.StageReport }
func (r *ReportStage) DisplayName() string { return "Final report" }
func (r *ReportStage) Required() bool      { return true }

func (r *ReportStage) Dependencies() []string {
	if r.Deps != nil {
		return r.Deps
	}
	return []string{types.StageCitations}
}

func (r *ReportStage) Run(ctx context.Context, documentID string) error {
	rep, err := r.Aggregator.Aggregate(ctx, documentID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return r.Store.PutAssessment(ctx, &types.Assessment{
		DocumentID: documentID,
		StageID:    types.StageReport,
		Payload:    payload,
	})
}

// documentText joins the persisted page texts of a document in page
// order. Pages with failed extractions contribute nothing but the break.
func documentText(ctx context.Context, s *store.Store, documentID string) (string, error) {
	pages, err := s.GetPages(ctx, documentID)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("document %s has no pages", documentID)
	}
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n"), nil
}
