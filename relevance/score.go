// ABOUTME: This file scores articles for heat relevance and applies the exclusion filter
// ABOUTME: The filter is high recall; an article is dropped only when both signals agree
package relevance

import (
	"log/slog"
	"math"
	"regexp"
	"strings"

	"heat-collector/models"
	"heat-collector/refdata"
)

// exclusionScoreCeiling is the score below which an exclusion-pattern
// match drops the article. Anything at or above it is kept regardless.
const exclusionScoreCeiling = 0.05

// Scorer scores articles against the English heat vocabulary and filters
// out the clearly irrelevant ones.
type Scorer struct {
	termCategories map[string][]string
	patterns       []*regexp.Regexp
	logger         *slog.Logger
}

// NewScorer loads the English term table and exclusion patterns.
func NewScorer(logger *slog.Logger) (*Scorer, error) {
	termCategories, err := refdata.TermCategories("en")
	if err != nil {
		return nil, err
	}
	patterns, err := refdata.ExclusionPatterns()
	if err != nil {
		return nil, err
	}
	return &Scorer{
		termCategories: termCategories,
		patterns:       patterns,
		logger:         logger,
	}, nil
}

func combineText(a models.Article) string {
	parts := []string{a.Title}
	if a.FullText != "" {
		parts = append(parts, a.FullText)
	}
	return strings.ToLower(strings.Join(parts, "\n"))
}

// Score computes a relevance score in [0, 1]. Three matched terms saturate
// the term component, two matched categories saturate the category
// component, and a heat term in the title adds a 0.2 bonus. An article
// whose extraction failed is not penalized: a title match alone floors the
// score at 0.3. The score is exactly 0 when no term matches at all.
func (s *Scorer) Score(a models.Article) float64 {
	text := combineText(a)
	if text == "" {
		return 0
	}

	matchedTerms := make(map[string]bool)
	matchedCategories := make(map[string]bool)
	for term, categories := range s.termCategories {
		lower := strings.ToLower(term)
		if strings.Contains(text, lower) {
			matchedTerms[lower] = true
			for _, category := range categories {
				matchedCategories[category] = true
			}
		}
	}
	if len(matchedTerms) == 0 {
		return 0
	}

	termScore := math.Min(float64(len(matchedTerms))/3.0, 1.0)
	categoryScore := math.Min(float64(len(matchedCategories))/2.0, 1.0)

	titleLower := strings.ToLower(a.Title)
	titleMatched := false
	for term := range matchedTerms {
		if strings.Contains(titleLower, term) {
			titleMatched = true
			break
		}
	}
	bonus := 0.0
	if titleMatched {
		bonus = 0.2
	}

	raw := termScore*0.5 + categoryScore*0.3 + bonus
	if !a.HasFullText() && titleMatched && raw < 0.3 {
		raw = 0.3
	}
	return math.Min(raw, 1.0)
}

func (s *Scorer) matchesExclusion(text string) bool {
	for _, pattern := range s.patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// Filter scores every article and drops only those that score below the
// exclusion ceiling AND match an exclusion pattern. Borderline articles
// stay in, carrying their score.
func (s *Scorer) Filter(articles []models.Article) []models.Article {
	result := make([]models.Article, 0, len(articles))
	for _, article := range articles {
		score := s.Score(article)
		if score < exclusionScoreCeiling && s.matchesExclusion(combineText(article)) {
			continue
		}
		result = append(result, article.WithScore(score))
	}
	s.logger.Info("relevance filter",
		"before", len(articles),
		"after", len(result),
		"excluded", len(articles)-len(result))
	return result
}
