// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citations performs deterministic citation analysis of document
// text: locating the references section, counting reference entries,
// extracting in-text citations, and matching the two. Everything here is
// pure text processing with no I/O and no shared mutable state.
package citations

import (
	"sort"

	"github.com/pdiddy/paper-assessor/pkg/types"
)

// Params holds the tuning constants of the analysis. The defaults come
// from empirical tuning; callers that disagree can supply their own.
type Params struct {
	// TailWindow is the fraction of the document, measured from the end,
	// in which a references heading is considered reasonably positioned.
	TailWindow float64

	// RunLength is the number of consecutive reference-like lines that
	// establishes a references section without a heading.
	RunLength int

	// MinEntryTextLen is the minimum text length after an ordinal marker
	// for a line to count as a reference entry.
	MinEntryTextLen int

	// SequentialMinOrdinals is the minimum number of distinct ordinals
	// required before the sequential-validation rule applies.
	SequentialMinOrdinals int

	// SequentialFraction is the fraction of ordinals that must be
	// consecutive for the maximum ordinal to be trusted as the count.
	SequentialFraction float64

	// SanityCeiling is the largest believable reference count. A numeric
	// maximum above it triggers a stricter re-parse.
	SanityCeiling int

	// MaxRangeSpan caps expansion of bracketed ranges like [2-57]; wider
	// spans are treated as page ranges rather than citations.
	MaxRangeSpan int

	// MaxSectionLines truncates very long reference sections before
	// parsing.
	MaxSectionLines int
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		TailWindow:            0.40,
		RunLength:             4,
		MinEntryTextLen:       15,
		SequentialMinOrdinals: 10,
		SequentialFraction:    0.30,
		SanityCeiling:         500,
		MaxRangeSpan:          50,
		MaxSectionLines:       2000,
	}
}

// Engine analyzes document text for citation structure. Safe for
// concurrent use across documents.
type Engine struct {
	params Params
}

// New returns an Engine with the given parameters. Zero-valued fields fall
// back to the defaults.
func New(params Params) *Engine {
	def := DefaultParams()
	if params.TailWindow <= 0 || params.TailWindow > 1 {
		params.TailWindow = def.TailWindow
	}
	if params.RunLength <= 0 {
		params.RunLength = def.RunLength
	}
	if params.MinEntryTextLen <= 0 {
		params.MinEntryTextLen = def.MinEntryTextLen
	}
	if params.SequentialMinOrdinals <= 0 {
		params.SequentialMinOrdinals = def.SequentialMinOrdinals
	}
	if params.SequentialFraction <= 0 {
		params.SequentialFraction = def.SequentialFraction
	}
	if params.SanityCeiling <= 0 {
		params.SanityCeiling = def.SanityCeiling
	}
	if params.MaxRangeSpan <= 0 {
		params.MaxRangeSpan = def.MaxRangeSpan
	}
	if params.MaxSectionLines <= 0 {
		params.MaxSectionLines = def.MaxSectionLines
	}
	return &Engine{params: params}
}

// Analyze runs the full citation analysis over one document's text.
// A document without a references section yields zero counts and the
// MissingReferences flag; callers must surface that as a finding rather
// than treating it as a clean result.
func (e *Engine) Analyze(text string) types.CitationReport {
	body, refSection, found := splitAtReferences(text, e.params)
	if !found {
		return types.CitationReport{
			Style:             types.StyleUnknown,
			MissingReferences: true,
		}
	}

	refCount, refs := countReferences(refSection, e.params)
	cites := extractCitations(body, e.params)

	report := types.CitationReport{
		ReferenceCount: refCount,
	}

	var numeric, authorYear int
	matchedOrdinals := make(map[int]bool)
	for _, c := range cites {
		switch c.Form {
		case types.FormNumeric:
			numeric++
			if c.Ordinal >= 1 && c.Ordinal <= refCount {
				matchedOrdinals[c.Ordinal] = true
			} else {
				report.Unmatched = append(report.Unmatched, c)
			}
		case types.FormAuthorYear:
			authorYear++
			report.AuthorYearKeys = append(report.AuthorYearKeys, c.Key)
		}
	}
	sort.Strings(report.AuthorYearKeys)

	report.InTextCount = numeric + authorYear
	report.MatchedCount = len(matchedOrdinals)
	report.UnmatchedCount = len(report.Unmatched)
	if uncited := refCount - report.MatchedCount; uncited > 0 {
		report.UncitedCount = uncited
	}
	report.Style = guessStyle(numeric, authorYear, refs)
	return report
}

// guessStyle derives the dominant citation style from what the body and
// the reference list actually contain.
func guessStyle(numeric, authorYear int, refs []types.Reference) types.CitationStyle {
	switch {
	case numeric > 0 && authorYear > 0:
		return types.StyleMixed
	case numeric > 0:
		return types.StyleNumeric
	case authorYear > 0:
		return types.StyleAuthorYear
	}
	// No in-text citations at all; fall back to the reference list shape.
	for _, r := range refs {
		if r.Ordinal > 0 {
			return types.StyleNumeric
		}
	}
	if len(refs) > 0 {
		return types.StyleAuthorYear
	}
	return types.StyleUnknown
}
