// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CitationStyle is the dominant citation style detected in a document.
type CitationStyle string

const (
	StyleNumeric    CitationStyle = "numeric"
	StyleAuthorYear CitationStyle = "author_year"
	StyleMixed      CitationStyle = "mixed"
	StyleUnknown    CitationStyle = "unknown"
)

// CitationForm distinguishes the two in-text citation shapes.
type CitationForm string

const (
	FormNumeric    CitationForm = "numeric"
	FormAuthorYear CitationForm = "author_year"
)

// Reference is one parsed entry of a references section. Derived output of
// the citation engine, never persisted on its own.
type Reference struct {
	// Ordinal is the printed index of the entry (the 7 in "[7]").
	Ordinal int `json:"ordinal" yaml:"ordinal"`

	// RawText is the entry line as found in the document.
	RawText string `json:"raw_text" yaml:"raw_text"`

	// HasYear is true when the line contains a 4-digit year.
	HasYear bool `json:"has_year" yaml:"has_year"`

	// HasAuthorPattern is true when the line contains an author-like token.
	HasAuthorPattern bool `json:"has_author_pattern" yaml:"has_author_pattern"`
}

// Citation is one deduplicated in-text citation.
type Citation struct {
	// Form is numeric or author_year.
	Form CitationForm `json:"form" yaml:"form"`

	// Key is the deduplication key: the ordinal as a string for numeric
	// citations, or "author_year" normalized (e.g. "smith_2020").
	Key string `json:"normalized_key" yaml:"normalized_key"`

	// Ordinal is the referenced entry index for numeric citations, 0 otherwise.
	Ordinal int `json:"ordinal,omitempty" yaml:"ordinal,omitempty"`

	// FirstPosition is the character offset of the first occurrence.
	FirstPosition int `json:"first_position" yaml:"first_position"`
}

// CitationReport is the citation engine's full analysis of one document.
type CitationReport struct {
	// ReferenceCount is the validated number of entries in the references
	// section.
	ReferenceCount int `json:"reference_count" yaml:"reference_count"`

	// InTextCount is the number of distinct in-text citations: distinct
	// numeric ordinals plus distinct normalized author-year keys.
	InTextCount int `json:"in_text_citation_count" yaml:"in_text_citation_count"`

	// MatchedCount is the number of numeric citations whose ordinal falls
	// within the reference list.
	MatchedCount int `json:"matched_count" yaml:"matched_count"`

	// UnmatchedCount is the number of numeric citations pointing past the
	// reference list.
	UnmatchedCount int `json:"unmatched_count" yaml:"unmatched_count"`

	// UncitedCount is ReferenceCount - MatchedCount, floored at zero.
	UncitedCount int `json:"uncited_count" yaml:"uncited_count"`

	// Style is the detected dominant citation style.
	Style CitationStyle `json:"style_guess" yaml:"style_guess"`

	// MissingReferences is true when no references section was found.
	// Callers must surface this as a high-severity finding instead of
	// treating the zero counts as a clean result.
	MissingReferences bool `json:"missing_references" yaml:"missing_references"`

	// Unmatched lists the numeric citations that point past the reference
	// list. Author-year citations are never matched against the list; they
	// are reported through AuthorYearKeys instead.
	Unmatched []Citation `json:"unmatched_citations,omitempty" yaml:"unmatched_citations,omitempty"`

	// AuthorYearKeys lists the distinct normalized author-year citations
	// found in the body. No ordinal correspondence exists for this style.
	AuthorYearKeys []string `json:"author_year_keys,omitempty" yaml:"author_year_keys,omitempty"`
}
