// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
)

// StageOutput is the common surface over heterogeneous stage payloads.
// Each stage keeps its own payload shape and issue-list field name; the
// aggregator only ever goes through these accessors.
type StageOutput interface {
	// Stage returns the producing stage id.
	Stage() string

	// Issues returns the stage's reported findings.
	Issues() []Issue

	// Scores returns the stage's numeric quality metrics keyed by name.
	Scores() map[string]float64

	// Strengths returns positive observations for the report.
	Strengths() []string

	// Weaknesses returns negative observations for the report.
	Weaknesses() []string
}

// SectionSpan locates one section of the document by character offset.
// Produced by the structure stage and consumed by segmentation for
// section hints.
type SectionSpan struct {
	// Heading is the section heading text.
	Heading string `json:"heading" yaml:"heading"`

	// StartOffset is the character offset where the section begins.
	StartOffset int `json:"start_offset" yaml:"start_offset"`

	// EndOffset is the character offset where the section ends.
	EndOffset int `json:"end_offset" yaml:"end_offset"`
}

// StructureOutput is the structure stage's payload: a section map plus an
// organization judgment.
type StructureOutput struct {
	Sections          []SectionSpan `json:"sections" yaml:"sections"`
	OrganizationScore float64       `json:"organization_score" yaml:"organization_score"`
	StructureIssues   []Issue       `json:"structure_issues,omitempty" yaml:"structure_issues,omitempty"`
	Positives         []string      `json:"positives,omitempty" yaml:"positives,omitempty"`
	Negatives         []string      `json:"negatives,omitempty" yaml:"negatives,omitempty"`
}

func (o *StructureOutput) Stage() string   { return StageStructure }
func (o *StructureOutput) Issues() []Issue { return o.StructureIssues }
func (o *StructureOutput) Scores() map[string]float64 {
	return map[string]float64{"organization_score": o.OrganizationScore}
}
func (o *StructureOutput) Strengths() []string  { return o.Positives }
func (o *StructureOutput) Weaknesses() []string { return o.Negatives }

// ClarityOutput is the clarity stage's payload.
type ClarityOutput struct {
	ClarityScore  float64  `json:"clarity_score" yaml:"clarity_score"`
	ClarityIssues []Issue  `json:"clarity_issues,omitempty" yaml:"clarity_issues,omitempty"`
	WellWritten   []string `json:"well_written,omitempty" yaml:"well_written,omitempty"`
	Unclear       []string `json:"unclear,omitempty" yaml:"unclear,omitempty"`
	Summary       string   `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func (o *ClarityOutput) Stage() string   { return StageClarity }
func (o *ClarityOutput) Issues() []Issue { return o.ClarityIssues }
func (o *ClarityOutput) Scores() map[string]float64 {
	return map[string]float64{"clarity_score": o.ClarityScore}
}
func (o *ClarityOutput) Strengths() []string  { return o.WellWritten }
func (o *ClarityOutput) Weaknesses() []string { return o.Unclear }

// MethodologyOutput is the methodology stage's payload.
type MethodologyOutput struct {
	RigorScore        float64  `json:"rigor_score" yaml:"rigor_score"`
	MethodologyIssues []Issue  `json:"methodology_issues,omitempty" yaml:"methodology_issues,omitempty"`
	SoundAspects      []string `json:"sound_aspects,omitempty" yaml:"sound_aspects,omitempty"`
	Concerns          []string `json:"concerns,omitempty" yaml:"concerns,omitempty"`
	Summary           string   `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func (o *MethodologyOutput) Stage() string   { return StageMethodology }
func (o *MethodologyOutput) Issues() []Issue { return o.MethodologyIssues }
func (o *MethodologyOutput) Scores() map[string]float64 {
	return map[string]float64{"rigor_score": o.RigorScore}
}
func (o *MethodologyOutput) Strengths() []string  { return o.SoundAspects }
func (o *MethodologyOutput) Weaknesses() []string { return o.Concerns }

// NoveltyOutput is the novelty stage's payload.
type NoveltyOutput struct {
	NoveltyScore  float64  `json:"novelty_score" yaml:"novelty_score"`
	NoveltyIssues []Issue  `json:"novelty_issues,omitempty" yaml:"novelty_issues,omitempty"`
	Contributions []string `json:"contributions,omitempty" yaml:"contributions,omitempty"`
	PriorArtGaps  []string `json:"prior_art_gaps,omitempty" yaml:"prior_art_gaps,omitempty"`
	Summary       string   `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func (o *NoveltyOutput) Stage() string   { return StageNovelty }
func (o *NoveltyOutput) Issues() []Issue { return o.NoveltyIssues }
func (o *NoveltyOutput) Scores() map[string]float64 {
	return map[string]float64{"novelty_score": o.NoveltyScore}
}
func (o *NoveltyOutput) Strengths() []string  { return o.Contributions }
func (o *NoveltyOutput) Weaknesses() []string { return o.PriorArtGaps }

// CitationsOutput is the citation stage's payload: the mechanical analysis
// plus findings derived from it.
type CitationsOutput struct {
	Report         CitationReport `json:"citation_report" yaml:"citation_report"`
	IntegrityScore float64        `json:"citation_integrity_score" yaml:"citation_integrity_score"`
	CitationIssues []Issue        `json:"citation_issues,omitempty" yaml:"citation_issues,omitempty"`
}

func (o *CitationsOutput) Stage() string   { return StageCitations }
func (o *CitationsOutput) Issues() []Issue { return o.CitationIssues }
func (o *CitationsOutput) Scores() map[string]float64 {
	return map[string]float64{"citation_integrity_score": o.IntegrityScore}
}
func (o *CitationsOutput) Strengths() []string { return nil }
func (o *CitationsOutput) Weaknesses() []string {
	var w []string
	if o.Report.MissingReferences {
		w = append(w, "no references section found")
	}
	if o.Report.UnmatchedCount > 0 {
		w = append(w, fmt.Sprintf("%d citation(s) point past the reference list", o.Report.UnmatchedCount))
	}
	return w
}

// outputPrototypes maps stage id to a constructor for its payload type.
var outputPrototypes = map[string]func() StageOutput{
	StageStructure:   func() StageOutput { return &StructureOutput{} },
	StageClarity:     func() StageOutput { return &ClarityOutput{} },
	StageMethodology: func() StageOutput { return &MethodologyOutput{} },
	StageNovelty:     func() StageOutput { return &NoveltyOutput{} },
	StageCitations:   func() StageOutput { return &CitationsOutput{} },
}

// DecodeStageOutput unmarshals an assessment payload into the typed
// StageOutput for its stage. Unknown stage ids are an error; mechanical
// stages without issue payloads (segmentation, report) are not decodable
// through this registry.
func DecodeStageOutput(stageID string, payload json.RawMessage) (StageOutput, error) {
	proto, ok := outputPrototypes[stageID]
	if !ok {
		return nil, fmt.Errorf("no output type registered for stage %q", stageID)
	}
	out := proto()
	if err := json.Unmarshal(payload, out); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", stageID, err)
	}
	return out, nil
}

// AssessableStages lists the stage ids the aggregator pulls assessments
// for, in report order.
func AssessableStages() []string {
	return []string{StageStructure, StageCitations, StageClarity, StageMethodology, StageNovelty}
}
