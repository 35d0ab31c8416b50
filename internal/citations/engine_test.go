// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citations

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/paper-assessor/pkg/types"
)

// --- test fixtures ---

// numericPaper builds a body citing the given ordinals followed by a
// references section with refCount bracket-marked entries.
func numericPaper(refCount int, citeGroups ...string) string {
	var b strings.Builder
	b.WriteString("# A Study of Things\n\nIntroduction text establishing context")
	for _, g := range citeGroups {
		b.WriteString(" as shown in " + g + " and discussed further")
	}
	b.WriteString(".\n\n")
	// Enough body text that the reference list sits in the document tail.
	for i := 0; i < 30; i++ {
		b.WriteString("A paragraph of ordinary prose that pads the body out to a realistic length.\n")
	}
	b.WriteString("\n## References\n\n")
	for i := 1; i <= refCount; i++ {
		fmt.Fprintf(&b, "[%d] Smith, J. and Doe, A. Paper number %d. Journal of Examples, 2020.\n", i, i)
	}
	return b.String()
}

// --- Analyze end to end ---

func TestAnalyzeNumericMatched(t *testing.T) {
	text := numericPaper(12, "[1]", "[3,4]", "[10-12]")
	report := New(DefaultParams()).Analyze(text)

	if report.MissingReferences {
		t.Fatal("references section not found")
	}
	if report.ReferenceCount != 12 {
		t.Errorf("ReferenceCount = %d, want 12", report.ReferenceCount)
	}
	if report.InTextCount != 6 {
		t.Errorf("InTextCount = %d, want 6", report.InTextCount)
	}
	if report.MatchedCount != 6 {
		t.Errorf("MatchedCount = %d, want 6", report.MatchedCount)
	}
	if report.UnmatchedCount != 0 {
		t.Errorf("UnmatchedCount = %d, want 0", report.UnmatchedCount)
	}
	if report.UncitedCount != 6 {
		t.Errorf("UncitedCount = %d, want 6", report.UncitedCount)
	}
	if report.Style != types.StyleNumeric {
		t.Errorf("Style = %s, want %s", report.Style, types.StyleNumeric)
	}
}

func TestAnalyzeUnmatchedCitation(t *testing.T) {
	// [99] has no corresponding reference entry.
	text := numericPaper(12, "[2]", "[99]")
	report := New(DefaultParams()).Analyze(text)

	if report.UnmatchedCount != 1 {
		t.Fatalf("UnmatchedCount = %d, want 1", report.UnmatchedCount)
	}
	if got := report.Unmatched[0].Ordinal; got != 99 {
		t.Errorf("unmatched ordinal = %d, want 99", got)
	}
	if report.MatchedCount != 1 {
		t.Errorf("MatchedCount = %d, want 1", report.MatchedCount)
	}
}

func TestAnalyzeMissingReferences(t *testing.T) {
	text := "# Title\n\nA short document with citations [1] and [2] but no reference list at all."
	report := New(DefaultParams()).Analyze(text)

	if !report.MissingReferences {
		t.Fatal("MissingReferences = false, want true")
	}
	if report.ReferenceCount != 0 || report.InTextCount != 0 {
		t.Errorf("counts = (%d, %d), want zeros", report.ReferenceCount, report.InTextCount)
	}
	if report.Style != types.StyleUnknown {
		t.Errorf("Style = %s, want %s", report.Style, types.StyleUnknown)
	}
}

func TestAnalyzeAuthorYear(t *testing.T) {
	text := `# Title

Prior work (Smith, 2020) laid the groundwork, and Jones et al. (2021)
extended it. Brown and Green, 2019 reached similar conclusions in a
separate line of work described at length in the body.

Padding paragraph so the reference list sits in the document tail where
the boundary detector looks for it, with enough characters to matter.

## References

Smith, J. A study of foundations. Journal of Examples, 2020.
Jones, B. Extensions of the foundation work. Proceedings of Tests, 2021.
Brown, C. Parallel conclusions. Journal of Examples, 2019.
`
	report := New(DefaultParams()).Analyze(text)

	if report.MissingReferences {
		t.Fatal("references section not found")
	}
	if report.Style != types.StyleAuthorYear {
		t.Errorf("Style = %s, want %s", report.Style, types.StyleAuthorYear)
	}
	if report.InTextCount != 3 {
		t.Errorf("InTextCount = %d, want 3", report.InTextCount)
	}
	// Author-year citations are never matched to entries.
	if report.MatchedCount != 0 {
		t.Errorf("MatchedCount = %d, want 0", report.MatchedCount)
	}
	want := []string{"brown_2019", "jones_2021", "smith_2020"}
	if len(report.AuthorYearKeys) != len(want) {
		t.Fatalf("AuthorYearKeys = %v, want %v", report.AuthorYearKeys, want)
	}
	for i, k := range want {
		if report.AuthorYearKeys[i] != k {
			t.Errorf("AuthorYearKeys[%d] = %s, want %s", i, report.AuthorYearKeys[i], k)
		}
	}
}

func TestAnalyzeMixedStyle(t *testing.T) {
	text := numericPaper(12, "[1]", "(Smith, 2020)")
	report := New(DefaultParams()).Analyze(text)
	if report.Style != types.StyleMixed {
		t.Errorf("Style = %s, want %s", report.Style, types.StyleMixed)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	text := numericPaper(15, "[1]", "[2,5]", "[7-9]", "(Lee, 2018)")
	e := New(DefaultParams())
	first := e.Analyze(text)
	for i := 0; i < 5; i++ {
		got := e.Analyze(text)
		if got.ReferenceCount != first.ReferenceCount ||
			got.InTextCount != first.InTextCount ||
			got.MatchedCount != first.MatchedCount ||
			got.UnmatchedCount != first.UnmatchedCount {
			t.Fatalf("run %d diverged: %+v vs %+v", i, got, first)
		}
		for j := range got.AuthorYearKeys {
			if got.AuthorYearKeys[j] != first.AuthorYearKeys[j] {
				t.Fatalf("run %d key order diverged", i)
			}
		}
	}
}

// --- boundary detection ---

func TestSplitAtReferencesHeading(t *testing.T) {
	text := numericPaper(5, "[1]")
	body, section, found := splitAtReferences(text, DefaultParams())
	if !found {
		t.Fatal("boundary not found")
	}
	if !strings.Contains(section, "## References") {
		t.Error("heading not in references section")
	}
	if strings.Contains(body, "[1] Smith") {
		t.Error("reference entry leaked into body")
	}
}

func TestSplitAtReferencesHeadingOutsideTail(t *testing.T) {
	// A "References" heading in the first half of the document is a
	// mention, not a boundary.
	var b strings.Builder
	b.WriteString("## References\n\nThis early section discusses how references work in general.\n\n")
	for i := 0; i < 40; i++ {
		b.WriteString("Body paragraph with ordinary prose and no citation markers at all.\n")
	}
	_, _, found := splitAtReferences(b.String(), DefaultParams())
	if found {
		t.Error("early heading should not establish a boundary")
	}
}

func TestSplitAtReferencesRunWithoutHeading(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("Ordinary body prose without any bracketed markers in it at all.\n")
	}
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(&b, "[%d] Smith, J. An entry with a year 2020 and enough text.\n", i)
	}
	body, section, found := splitAtReferences(b.String(), DefaultParams())
	if !found {
		t.Fatal("run of reference-like lines not detected")
	}
	if strings.Contains(body, "[1] Smith") {
		t.Error("first entry left in body")
	}
	if !strings.Contains(section, "[6] Smith") {
		t.Error("last entry missing from section")
	}
}

func TestSplitAtReferencesBlankLinesNeutral(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("Ordinary body prose without any bracketed markers in it at all.\n")
	}
	// Blank lines between entries must not reset the run.
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b, "[%d] Smith, J. An entry with a year 2020 and enough text.\n\n", i)
	}
	_, _, found := splitAtReferences(b.String(), DefaultParams())
	if !found {
		t.Error("blank-separated run not detected")
	}
}

func TestReferenceLike(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		line string
		want bool
	}{
		{"[1] Smith, J. Title of the paper. Journal, 2020.", true},
		{"3. Doe, A. Another long enough entry from 2019.", true},
		{"[2] short", false},
		{"Plain prose without any marker at the front, 2020.", false},
		{"[4] No year and no author pattern but long text here.", false},
	}
	for _, tt := range tests {
		if got := referenceLike(tt.line, p); got != tt.want {
			t.Errorf("referenceLike(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

// --- reference counting ---

func TestCountReferencesSequential(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&b, "[%d] Author, A. Paper title number %d. Journal, 2021.\n", i, i)
	}
	count, _ := countReferences(b.String(), DefaultParams())
	if count != 25 {
		t.Errorf("count = %d, want 25", count)
	}
}

func TestCountReferencesSanityCeiling(t *testing.T) {
	// Loose parse sees an implausible [1987] marker (a year mistaken for
	// an ordinal); the strict re-parse requires year AND author evidence,
	// which drops the bogus line.
	var b strings.Builder
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, "[%d] Author, A. Paper title number %d. Journal, 2021.\n", i, i)
	}
	b.WriteString("[1987] the year the conference was first held in town\n")
	count, _ := countReferences(b.String(), DefaultParams())
	if count != 12 {
		t.Errorf("count = %d, want 12", count)
	}
}

func TestCountReferencesAuthorYearFallback(t *testing.T) {
	section := `Smith, J. First paper on the topic. Journal of Examples, 2020.
Jones, B. Second paper on the topic. Proceedings, 2021.
Brown, C. Third paper on the topic. Journal of Examples, 2019.
`
	count, _ := countReferences(section, DefaultParams())
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestCountReferencesSparseOrdinals(t *testing.T) {
	// Two ordinal entries: below the sequential threshold and with no
	// author-year fallback lines, the distinct ordinal count stands.
	section := "[3] Proceedings of the Workshop on Examples, vol. 2.\n" +
		"[7] IEEE Transactions on Examples, pp. 10-20.\n"
	count, _ := countReferences(section, DefaultParams())
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestSequentialFraction(t *testing.T) {
	tests := []struct {
		name     string
		ordinals []int
		want     float64
	}{
		{"empty", nil, 0},
		{"fully consecutive", []int{1, 2, 3, 4}, 0.75},
		{"no neighbors", []int{1, 5, 9}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sequentialFraction(tt.ordinals); got != tt.want {
				t.Errorf("sequentialFraction(%v) = %v, want %v", tt.ordinals, got, tt.want)
			}
		})
	}
}

// --- in-text extraction ---

func TestExpandGroup(t *testing.T) {
	tests := []struct {
		group string
		want  []int
	}{
		{"3", []int{3}},
		{"1, 4", []int{1, 4}},
		{"2-5", []int{2, 3, 4, 5}},
		{"2–4", []int{2, 3, 4}}, // en dash
		{"2-500", nil},          // wider than MaxRangeSpan: a page range
		{"5-2", nil},            // inverted
	}
	for _, tt := range tests {
		got := expandGroup(tt.group, DefaultParams().MaxRangeSpan)
		if len(got) != len(tt.want) {
			t.Errorf("expandGroup(%q) = %v, want %v", tt.group, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("expandGroup(%q) = %v, want %v", tt.group, got, tt.want)
				break
			}
		}
	}
}

func TestExtractCitationsDedup(t *testing.T) {
	body := "First use [3] then again [3] and once more [3]."
	cites := extractCitations(body, DefaultParams())
	if len(cites) != 1 {
		t.Fatalf("len = %d, want 1", len(cites))
	}
	if cites[0].FirstPosition != strings.Index(body, "[3]") {
		t.Errorf("FirstPosition = %d, want earliest occurrence", cites[0].FirstPosition)
	}
}

func TestExtractCitationsAuthorYearOverlap(t *testing.T) {
	// "Brown and Green, 2019" must not be counted by both the
	// connective and parenthetical patterns.
	body := "As argued by Brown and Green, 2019 and separately (Smith, 2020)."
	cites := extractCitations(body, DefaultParams())
	if len(cites) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(cites), cites)
	}
}

func TestExtractCitationsSorted(t *testing.T) {
	body := "Later claim [9] precedes nothing; earlier claim [2] came first in text order? No: [9] appears first here."
	cites := extractCitations(body, DefaultParams())
	for i := 1; i < len(cites); i++ {
		if cites[i-1].FirstPosition > cites[i].FirstPosition {
			t.Fatal("citations not sorted by first position")
		}
	}
}
