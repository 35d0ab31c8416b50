// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Verdict is the five-point outcome label derived from averaged stage scores.
type Verdict string

const (
	VerdictStrongAccept Verdict = "strong_accept"
	VerdictWeakAccept   Verdict = "weak_accept"
	VerdictBorderline   Verdict = "borderline"
	VerdictWeakReject   Verdict = "weak_reject"
	VerdictReject       Verdict = "reject"
)

// PriorityFixList partitions merged issues by the producing stage's severity.
type PriorityFixList struct {
	High   []Issue `json:"high" yaml:"high"`
	Medium []Issue `json:"medium" yaml:"medium"`
	Low    []Issue `json:"low" yaml:"low"`
}

// Count returns the total number of issues across all tiers.
func (p PriorityFixList) Count() int {
	return len(p.High) + len(p.Medium) + len(p.Low)
}

// FinalReport is the aggregator's merged output for one document.
type FinalReport struct {
	// DocumentID is the assessed document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Summary is the overall narrative, Oracle-written when available,
	// deterministic otherwise.
	Summary string `json:"summary" yaml:"summary"`

	// Strengths merges positive observations from all stages.
	Strengths []string `json:"strengths" yaml:"strengths"`

	// Weaknesses merges negative observations from all stages.
	Weaknesses []string `json:"weaknesses" yaml:"weaknesses"`

	// DetailedSections holds each stage's full payload keyed by stage id.
	DetailedSections map[string]StageOutput `json:"detailed_sections" yaml:"detailed_sections"`

	// PriorityFixes partitions every merged issue by severity.
	PriorityFixes PriorityFixList `json:"priority_fix_list" yaml:"priority_fix_list"`

	// Verdict is the five-point outcome from the score average.
	Verdict Verdict `json:"verdict" yaml:"verdict"`
}
