// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// Stage identifiers for the paper-assessment pipeline.
const (
	StageSegmentation = "segmentation"
	StageStructure    = "structure"
	StageCitations    = "citations"
	StageClarity      = "clarity"
	StageMethodology  = "methodology"
	StageNovelty      = "novelty"
	StageReport       = "report"
)

// Assessment is an immutable, append-only record of one stage's output for
// one document. The latest record for (document_id, stage_id) is the
// logical current value; superseding means inserting a newer record.
type Assessment struct {
	// DocumentID is the assessed document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// StageID identifies the producing stage.
	StageID string `json:"stage_id" yaml:"stage_id"`

	// Timestamp orders records for the same (document, stage) pair.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Payload is the stage's output, decodable via DecodeStageOutput.
	Payload json.RawMessage `json:"payload" yaml:"payload"`
}

// Severity grades a reported issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Issue is a single finding reported by a stage. The severity is the
// producing stage's judgment and is never re-scored downstream.
type Issue struct {
	// SourceStage is the stage that produced the issue. Filled in by the
	// aggregator when merging; stages may leave it empty.
	SourceStage string `json:"source_stage,omitempty" yaml:"source_stage,omitempty"`

	// IssueID is unique within the producing stage's output.
	IssueID string `json:"issue_id" yaml:"issue_id"`

	// IssueType categorizes the finding (e.g. "missing_references").
	IssueType string `json:"issue_type" yaml:"issue_type"`

	// Severity is low, medium, or high.
	Severity Severity `json:"severity" yaml:"severity"`

	// Section names where the issue was found, empty if document-wide.
	Section string `json:"section,omitempty" yaml:"section,omitempty"`

	// Excerpt quotes the offending text, possibly truncated.
	Excerpt string `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`

	// Rationale explains why this is a problem.
	Rationale string `json:"rationale" yaml:"rationale"`

	// SuggestedFix proposes a remedy, empty if none.
	SuggestedFix string `json:"suggested_fix,omitempty" yaml:"suggested_fix,omitempty"`
}
