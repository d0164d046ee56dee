// ABOUTME: This file implements URL canonicalization and URL-keyed deduplication
// ABOUTME: Canonicalization is deterministic and idempotent; collisions keep the higher-quality article
package dedup

import (
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"heat-collector/models"
)

// trackingParams are stripped during canonicalization. Keys are compared
// lowercase; any utm_-prefixed key is stripped too. `ref` and `source`
// are sometimes meaningful but are stripped here on purpose; keep the
// table in one place so that call can be revisited.
var trackingParams = map[string]bool{
	"fbclid":        true,
	"gclid":         true,
	"yclid":         true,
	"msclkid":       true,
	"_ga":           true,
	"_gl":           true,
	"ref":           true,
	"source":        true,
	"mkt_tok":       true,
	"mc_cid":        true,
	"mc_eid":        true,
	"hsctatracking": true,
	"si":            true,
	"__cft__":       true,
	"__tn__":        true,
}

func isTrackingParam(key string) bool {
	lower := strings.ToLower(key)
	return trackingParams[lower] || strings.HasPrefix(lower, "utm_")
}

// CanonicalURL normalizes a URL for deduplication comparison:
// lowercase scheme and host, no www. prefix, no trailing slash (the bare
// root "/" survives), no fragment, no tracking parameters, remaining
// parameters sorted by key then value, blank values dropped. Unparseable
// input comes back unchanged.
func CanonicalURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	path := strings.TrimRight(parsed.Path, "/")
	if path == "" {
		path = "/"
	}

	type pair struct{ key, value string }
	var pairs []pair
	for key, values := range parsed.Query() {
		if isTrackingParam(key) {
			continue
		}
		for _, value := range values {
			if value == "" {
				continue
			}
			pairs = append(pairs, pair{key, value})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	var query strings.Builder
	for i, p := range pairs {
		if i > 0 {
			query.WriteByte('&')
		}
		query.WriteString(url.QueryEscape(p.key))
		query.WriteByte('=')
		query.WriteString(url.QueryEscape(p.value))
	}

	canonical := scheme + "://" + host + path
	if query.Len() > 0 {
		canonical += "?" + query.String()
	}
	return canonical
}

// QualityScore ranks duplicates: longer extracted text wins, then
// district-level geo info, then an identified source.
func QualityScore(a models.Article) int {
	score := 0
	if a.HasFullText() {
		score += 100 + len([]rune(a.FullText))
	}
	if a.District != "" {
		score += 10
	}
	if a.Source != "" && a.Source != "Unknown" {
		score += 5
	}
	return score
}

// DeduplicateByURL keeps one article per canonical URL, preferring the
// higher-quality one. First occurrence wins ties.
func DeduplicateByURL(articles []models.Article, logger *slog.Logger) []models.Article {
	type kept struct {
		article models.Article
		index   int
	}
	seen := make(map[string]kept, len(articles))
	order := make([]string, 0, len(articles))

	for _, article := range articles {
		canonical := CanonicalURL(article.URL)
		existing, ok := seen[canonical]
		if !ok {
			seen[canonical] = kept{article: article, index: len(order)}
			order = append(order, canonical)
			continue
		}
		if QualityScore(article) > QualityScore(existing.article) {
			seen[canonical] = kept{article: article, index: existing.index}
		}
	}

	result := make([]models.Article, len(order))
	for _, canonical := range order {
		entry := seen[canonical]
		result[entry.index] = entry.article
	}
	logger.Info("url dedup", "before", len(articles), "after", len(result))
	return result
}
