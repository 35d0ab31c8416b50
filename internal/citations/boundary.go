// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citations

import (
	"regexp"
	"strings"
)

// headingRe matches a references/bibliography section heading, optionally
// prefixed by Markdown hashes or a section number.
var headingRe = regexp.MustCompile(
	`(?i)^\s*(?:#{1,6}\s*)?(?:[0-9]+\.?\s*|[ivxl]+\.\s*)?(references|bibliography|works cited|literature cited)\b[:.]?\s*$`)

// Ordinal entry markers: bracketed "[7] ..." or dotted "7. ...".
var (
	bracketMarkerRe = regexp.MustCompile(`^\s*\[(\d{1,4})\]\s*(.*)$`)
	dottedMarkerRe  = regexp.MustCompile(`^\s*(\d{1,4})\.\s+(.*)$`)
)

// yearRe matches a plausible publication year.
var yearRe = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

// authorTokenRe matches author-like tokens: "Smith, J." / "J. Smith" /
// "et al." — the capitalized-name evidence a reference entry carries.
var authorTokenRe = regexp.MustCompile(
	`(?:[A-Z][a-z]+,\s*(?:[A-Z]\.\s*)+)|(?:(?:[A-Z]\.\s*)+[A-Z][a-z]+)|(?:et\s+al\.?)`)

// lineOffsets returns the lines of text and the byte offset of each line's
// start.
func lineOffsets(text string) ([]string, []int) {
	lines := strings.Split(text, "\n")
	offsets := make([]int, len(lines))
	pos := 0
	for i, line := range lines {
		offsets[i] = pos
		pos += len(line) + 1
	}
	return lines, offsets
}

// markerSplit extracts the ordinal marker and the remaining entry text
// from a line, if present.
func markerSplit(line string) (ordinal int, rest string, ok bool) {
	if m := bracketMarkerRe.FindStringSubmatch(line); m != nil {
		return atoi(m[1]), m[2], true
	}
	if m := dottedMarkerRe.FindStringSubmatch(line); m != nil {
		return atoi(m[1]), m[2], true
	}
	return 0, "", false
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// referenceLike reports whether a line has the shape of a bibliography
// entry: an ordinal marker followed by substantial text carrying a year or
// a capitalized-name pattern.
func referenceLike(line string, p Params) bool {
	_, rest, ok := markerSplit(line)
	if !ok || len(rest) < p.MinEntryTextLen {
		return false
	}
	return yearRe.MatchString(rest) || authorTokenRe.MatchString(rest)
}

// splitAtReferences divides document text into body and references
// section. Two independent boundary candidates are computed — the last
// reasonably-positioned heading, and the first run of reference-like lines
// near the end — and the earlier one wins, so body text is never swallowed
// into the section. A residual reference-like run leaking past the chosen
// boundary is moved out of the body afterwards.
func splitAtReferences(text string, p Params) (body, refSection string, found bool) {
	lines, offsets := lineOffsets(text)
	tailStart := int(float64(len(text)) * (1 - p.TailWindow))

	hb := headingBoundary(lines, offsets, tailStart)
	rb := runBoundary(lines, offsets, tailStart, p)

	boundary := -1
	switch {
	case hb >= 0 && rb >= 0:
		boundary = hb
		if rb < hb {
			boundary = rb
		}
	case hb >= 0:
		boundary = hb
	case rb >= 0:
		boundary = rb
	default:
		return text, "", false
	}

	body, refSection = text[:boundary], text[boundary:]
	body, leaked := stripTrailingReferenceRun(body, p)
	if leaked != "" {
		refSection = leaked + "\n" + refSection
	}
	return body, refSection, true
}

// headingBoundary returns the start offset of the last references heading
// positioned within the document tail, or -1.
func headingBoundary(lines []string, offsets []int, tailStart int) int {
	boundary := -1
	for i, line := range lines {
		if offsets[i] >= tailStart && headingRe.MatchString(line) {
			boundary = offsets[i]
		}
	}
	return boundary
}

// runBoundary returns the start offset of the first run of at least
// p.RunLength reference-like lines within the document tail, or -1.
// Blank lines inside a run are neutral: they neither extend nor break it.
func runBoundary(lines []string, offsets []int, tailStart int, p Params) int {
	runLen := 0
	runStart := -1
	for i, line := range lines {
		if offsets[i] < tailStart {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if referenceLike(line, p) {
			if runLen == 0 {
				runStart = offsets[i]
			}
			runLen++
			if runLen >= p.RunLength {
				return runStart
			}
		} else {
			runLen = 0
			runStart = -1
		}
	}
	return -1
}

// stripTrailingReferenceRun removes a trailing run of two or more
// reference-like lines from the body and returns it separately.
func stripTrailingReferenceRun(body string, p Params) (string, string) {
	lines := strings.Split(body, "\n")

	// Walk upward from the end past blanks and reference-like lines.
	first := len(lines)
	count := 0
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if !referenceLike(lines[i], p) {
			break
		}
		first = i
		count++
	}
	if count < 2 {
		return body, ""
	}
	return strings.Join(lines[:first], "\n"), strings.Join(lines[first:], "\n")
}
