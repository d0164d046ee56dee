// ABOUTME: This file builds API-ready query strings under per-backend length limits
// ABOUTME: Terms pack greedily in priority order; multi-word terms are quoted against OR splitting
package query

import (
	"strings"
)

// orSeparator joins packed terms. Its length participates in the packing
// budget.
const orSeparator = " OR "

// quoteTerm wraps multi-word terms in double quotes so backend tokenizers
// keep the phrase together.
func quoteTerm(term string) string {
	if strings.ContainsRune(term, ' ') {
		return `"` + term + `"`
	}
	return term
}

// packTerms greedily packs quoted terms into a budget measured in
// characters (code points). Terms are considered in priority order; the
// first term that no longer fits stops the packing. If not even the first
// term fits, it is truncated to the budget.
func packTerms(terms []string, budget int) []string {
	if len(terms) == 0 || budget <= 0 {
		return nil
	}

	var packed []string
	used := 0
	for _, term := range terms {
		quoted := quoteTerm(term)
		cost := len([]rune(quoted))
		if len(packed) > 0 {
			cost += len(orSeparator)
		}
		if used+cost > budget {
			if len(packed) == 0 {
				runes := []rune(quoted)
				if budget < len(runes) {
					runes = runes[:budget]
				}
				packed = append(packed, string(runes))
			}
			break
		}
		packed = append(packed, quoted)
		used += cost
	}
	return packed
}

// BuildTermQuery forms `(t1 OR "two word" OR t2) RegionName`, packing as
// many terms as the limit allows. The region name and wrapping parentheses
// count against the limit.
func BuildTermQuery(terms []string, regionName string, limit int) string {
	overhead := len([]rune(regionName)) + 3 // "(", ") ", region
	packed := packTerms(terms, limit-overhead)
	if len(packed) == 0 {
		return ""
	}
	return "(" + strings.Join(packed, orSeparator) + ") " + regionName
}

// DistrictBatch is one district-level query string plus the district names
// it covers, in packing order.
type DistrictBatch struct {
	QueryString string
	Districts   []string
}

// BuildDistrictBatches packs quoted district names into queries of the form
// `<heat-term> ("D1" OR "D2" OR ...)`, each within the limit. Every
// district lands in exactly one batch; a district too long to fit even
// alone is skipped.
func BuildDistrictBatches(term string, districts []string, limit int) []DistrictBatch {
	overhead := len([]rune(term)) + 3 // term, " (", ")"
	budget := limit - overhead
	if budget <= 0 {
		return nil
	}

	var batches []DistrictBatch
	var names []string
	used := 0

	flush := func() {
		if len(names) == 0 {
			return
		}
		quoted := make([]string, len(names))
		for i, n := range names {
			quoted[i] = `"` + n + `"`
		}
		batches = append(batches, DistrictBatch{
			QueryString: term + " (" + strings.Join(quoted, orSeparator) + ")",
			Districts:   names,
		})
		names = nil
		used = 0
	}

	for _, district := range districts {
		cost := len([]rune(district)) + 2 // quotes
		if len(names) > 0 {
			cost += len(orSeparator)
		}
		if used+cost > budget {
			flush()
			cost = len([]rune(district)) + 2
			if cost > budget {
				continue
			}
		}
		names = append(names, district)
		used += cost
	}
	flush()
	return batches
}
