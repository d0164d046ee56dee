// ABOUTME: This file deduplicates articles by title similarity within language buckets
// ABOUTME: Publisher suffixes are stripped before comparing; higher quality wins
package dedup

import (
	"log/slog"
	"strings"

	"heat-collector/models"
)

// TitleSimilarityThreshold marks two same-language titles as duplicates.
const TitleSimilarityThreshold = 0.85

// maxSuffixLength bounds what counts as a publisher suffix after the
// last " - " separator.
const maxSuffixLength = 40

// StripSourceSuffix removes a trailing " - Publisher" from aggregator
// titles when the tail is short enough to be a publisher name.
func StripSourceSuffix(title string) string {
	idx := strings.LastIndex(title, " - ")
	if idx == -1 {
		return title
	}
	if len([]rune(title[idx+3:])) <= maxSuffixLength {
		return title[:idx]
	}
	return title
}

// TitleSimilarity compares two titles after suffix stripping,
// lowercasing, and trimming.
func TitleSimilarity(a, b string) float64 {
	na := strings.ToLower(strings.TrimSpace(StripSourceSuffix(a)))
	nb := strings.ToLower(strings.TrimSpace(StripSourceSuffix(b)))
	return SimilarityRatio(na, nb)
}

// DeduplicateByTitle collapses near-identical titles within each language
// bucket. Cross-language lookalikes are never merged.
func DeduplicateByTitle(articles []models.Article, logger *slog.Logger) []models.Article {
	buckets := make(map[string][]models.Article)
	var languages []string
	for _, article := range articles {
		if _, ok := buckets[article.Language]; !ok {
			languages = append(languages, article.Language)
		}
		buckets[article.Language] = append(buckets[article.Language], article)
	}

	var result []models.Article
	for _, language := range languages {
		var kept []models.Article
		for _, article := range buckets[language] {
			duplicate := false
			for i, existing := range kept {
				if TitleSimilarity(article.Title, existing.Title) >= TitleSimilarityThreshold {
					if QualityScore(article) > QualityScore(existing) {
						kept[i] = article
					}
					duplicate = true
					break
				}
			}
			if !duplicate {
				kept = append(kept, article)
			}
		}
		result = append(result, kept...)
	}

	logger.Info("title dedup", "before", len(articles), "after", len(result))
	return result
}
