// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citations

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-assessor/pkg/types"
)

// bracketGroupRe matches numeric citation groups: [3], [1, 4], [2-5].
var bracketGroupRe = regexp.MustCompile(`\[(\d{1,4}(?:\s*[-–,]\s*\d{1,4})*)\]`)

// Author-year citation patterns, in matching priority order.
var (
	// parentheticalAYRe: (Smith, 2020), (Smith et al., 2020), (Smith and Jones, 2019).
	parentheticalAYRe = regexp.MustCompile(
		`\(\s*([A-Z][A-Za-z'’-]+)(?:\s+et\s+al\.?)?(?:\s*(?:and|&)\s*[A-Z][A-Za-z'’-]+)?\s*,\s*((?:19|20)\d{2})[a-z]?\s*\)`)

	// narrativeAYRe: Smith (2020), Smith et al. (2020), Smith and Jones (2019).
	narrativeAYRe = regexp.MustCompile(
		`\b([A-Z][A-Za-z'’-]+)(?:\s+et\s+al\.?)?(?:\s+(?:and|&)\s+[A-Z][A-Za-z'’-]+)?\s+\(\s*((?:19|20)\d{2})[a-z]?\s*\)`)

	// connectiveAYRe: Smith and Jones, 2019 without parentheses.
	connectiveAYRe = regexp.MustCompile(
		`\b([A-Z][A-Za-z'’-]+)\s+(?:and|&)\s+[A-Z][A-Za-z'’-]+\s*,\s*((?:19|20)\d{2})\b`)
)

// span is a half-open matched region used for overlap deduplication.
type span struct{ start, end int }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// extractCitations finds the deduplicated in-text citations in body text.
// The references section must already be stripped; reference entries would
// otherwise register as citations of themselves.
func extractCitations(body string, p Params) []types.Citation {
	byKey := make(map[string]types.Citation)

	record := func(c types.Citation) {
		if prev, ok := byKey[c.Key]; !ok || c.FirstPosition < prev.FirstPosition {
			byKey[c.Key] = c
		}
	}

	// Numeric groups, with range expansion.
	for _, m := range bracketGroupRe.FindAllStringSubmatchIndex(body, -1) {
		group := body[m[2]:m[3]]
		for _, ordinal := range expandGroup(group, p.MaxRangeSpan) {
			record(types.Citation{
				Form:          types.FormNumeric,
				Key:           strconv.Itoa(ordinal),
				Ordinal:       ordinal,
				FirstPosition: m[0],
			})
		}
	}

	// Author-year patterns. Spans claimed by an earlier pattern are
	// skipped so one textual citation never counts twice.
	var claimed []span
	for _, re := range []*regexp.Regexp{parentheticalAYRe, narrativeAYRe, connectiveAYRe} {
		for _, m := range re.FindAllStringSubmatchIndex(body, -1) {
			s := span{m[0], m[1]}
			if overlapsAny(s, claimed) {
				continue
			}
			claimed = append(claimed, s)
			author := strings.ToLower(body[m[2]:m[3]])
			year := body[m[4]:m[5]]
			record(types.Citation{
				Form:          types.FormAuthorYear,
				Key:           author + "_" + year,
				FirstPosition: m[0],
			})
		}
	}

	out := make([]types.Citation, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstPosition != out[j].FirstPosition {
			return out[i].FirstPosition < out[j].FirstPosition
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func overlapsAny(s span, claimed []span) bool {
	for _, c := range claimed {
		if s.overlaps(c) {
			return true
		}
	}
	return false
}

// expandGroup parses a bracket group's inner text into individual
// ordinals, expanding contiguous ranges. Ranges wider than maxRangeSpan
// are treated as page ranges, not citations, and dropped.
func expandGroup(group string, maxRangeSpan int) []int {
	var ordinals []int
	for _, part := range strings.Split(group, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := splitRange(part)
		if !isRange {
			if n, err := strconv.Atoi(part); err == nil {
				ordinals = append(ordinals, n)
			}
			continue
		}
		if hi < lo || hi-lo > maxRangeSpan {
			continue
		}
		for n := lo; n <= hi; n++ {
			ordinals = append(ordinals, n)
		}
	}
	return ordinals
}

// splitRange parses "2-5" or "2–5" into its bounds.
func splitRange(part string) (lo, hi int, ok bool) {
	sep := strings.IndexAny(part, "-–")
	if sep < 0 {
		return 0, 0, false
	}
	loStr := strings.TrimSpace(part[:sep])
	// The en dash is multi-byte.
	var hiStr string
	if strings.HasPrefix(part[sep:], "–") {
		hiStr = strings.TrimSpace(part[sep+len("–"):])
	} else {
		hiStr = strings.TrimSpace(part[sep+1:])
	}
	lo, err1 := strconv.Atoi(loStr)
	hi, err2 := strconv.Atoi(hiStr)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lo, hi, true
}
