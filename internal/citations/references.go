// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citations

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/paper-assessor/pkg/types"
)

// bibKeywordRe matches vocabulary that marks a line as bibliographic even
// without an author token.
var bibKeywordRe = regexp.MustCompile(
	`(?i)\b(journal|conference|proceedings|symposium|workshop|transactions|press|publishers?|arxiv|preprint|vol\.?|no\.|pp\.?|springer|elsevier|ieee|acm|eds?\.)\b`)

// firstAuthorRe captures the leading surname of an entry for
// deduplication in the author-year fallback count.
var firstAuthorRe = regexp.MustCompile(`\b([A-Z][a-z]+)\b`)

// parseReferences collects reference entries from a references section.
// Ordinal-marked lines are kept when they carry plausible bibliographic
// evidence; in strict mode both a year and an author token or keyword are
// required (the re-parse used when the loose count is implausible).
// Unmarked lines with both a year and an author token are collected as
// ordinal-less entries so author-year reference lists still register.
func parseReferences(section string, p Params, strict bool) []types.Reference {
	lines := strings.Split(section, "\n")
	if len(lines) > p.MaxSectionLines {
		lines = lines[:p.MaxSectionLines]
	}

	var refs []types.Reference
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || headingRe.MatchString(trimmed) {
			continue
		}

		hasYear := yearRe.MatchString(trimmed)
		hasAuthor := authorTokenRe.MatchString(trimmed)
		hasKeyword := bibKeywordRe.MatchString(trimmed)

		if ordinal, rest, ok := markerSplit(trimmed); ok {
			plausible := hasYear || hasAuthor || hasKeyword
			if strict {
				plausible = hasYear && (hasAuthor || hasKeyword)
			}
			if !plausible || rest == "" {
				continue
			}
			refs = append(refs, types.Reference{
				Ordinal:          ordinal,
				RawText:          trimmed,
				HasYear:          hasYear,
				HasAuthorPattern: hasAuthor,
			})
			continue
		}

		if hasYear && hasAuthor {
			refs = append(refs, types.Reference{
				RawText:          trimmed,
				HasYear:          true,
				HasAuthorPattern: true,
			})
		}
	}
	return refs
}

// countReferences derives the validated reference count for a references
// section. Numeric styles use the maximum ordinal, trusted only when
// enough of the ordinals form a consecutive sequence; otherwise the count
// falls back to distinct author+year line patterns. A maximum above the
// sanity ceiling triggers a strict re-parse first.
func countReferences(section string, p Params) (int, []types.Reference) {
	refs := parseReferences(section, p, false)

	ordinals := distinctOrdinals(refs)
	if len(ordinals) > 0 && maxOf(ordinals) > p.SanityCeiling {
		refs = parseReferences(section, p, true)
		ordinals = distinctOrdinals(refs)
	}

	if len(ordinals) >= p.SequentialMinOrdinals && sequentialFraction(ordinals) >= p.SequentialFraction {
		return maxOf(ordinals), refs
	}

	if n := authorYearEntryCount(refs); n > 0 {
		return n, refs
	}
	// Last resort: the ordinals themselves, however sparse.
	return len(ordinals), refs
}

// distinctOrdinals returns the sorted set of positive ordinals.
func distinctOrdinals(refs []types.Reference) []int {
	seen := make(map[int]bool)
	for _, r := range refs {
		if r.Ordinal > 0 {
			seen[r.Ordinal] = true
		}
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// sequentialFraction is the share of ordinals that have an immediate
// successor in the set.
func sequentialFraction(sorted []int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	consecutive := 0
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i+1] == sorted[i]+1 {
			consecutive++
		}
	}
	return float64(consecutive) / float64(len(sorted))
}

func maxOf(sorted []int) int {
	return sorted[len(sorted)-1]
}

// authorYearEntryCount counts distinct author+year patterns among the
// parsed entries.
func authorYearEntryCount(refs []types.Reference) int {
	seen := make(map[string]bool)
	for _, r := range refs {
		if !r.HasYear || !r.HasAuthorPattern {
			continue
		}
		author := firstAuthorRe.FindString(r.RawText)
		year := yearRe.FindString(r.RawText)
		if author == "" || year == "" {
			continue
		}
		seen[strings.ToLower(author)+"_"+year] = true
	}
	return len(seen)
}
