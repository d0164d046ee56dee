// ABOUTME: This file tests relevance scoring, the high-recall exclusion filter, and the title signal
// ABOUTME: Includes the borderline-kept case and the score bounds properties
package relevance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heat-collector/logger"
	"heat-collector/models"
)

func relevanceArticle(t *testing.T, title, fullText string) models.Article {
	t.Helper()
	ref, err := models.NewArticleRef(title, "https://example.com/a", "NDTV",
		time.Now(), "en", "Rajasthan", "heatwave")
	require.NoError(t, err)
	return models.NewArticle(ref, fullText)
}

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	scorer, err := NewScorer(logger.Discard())
	require.NoError(t, err)
	return scorer
}

func TestScore(t *testing.T) {
	scorer := newTestScorer(t)

	tests := map[string]struct {
		title    string
		fullText string
		check    func(t *testing.T, score float64)
	}{
		"no heat terms scores zero": {
			title: "Election results announced in Delhi",
			check: func(t *testing.T, score float64) {
				assert.Zero(t, score)
			},
		},
		"summer alone is not a heat term": {
			title: "Summer conditions in Delhi",
			check: func(t *testing.T, score float64) {
				assert.Zero(t, score)
			},
		},
		"three terms across three categories saturate": {
			title:    "Heatwave alert in Jaipur",
			fullText: "Hospitals reported heat stroke cases as the water crisis deepened.",
			check: func(t *testing.T, score float64) {
				assert.InDelta(t, 1.0, score, 1e-9)
			},
		},
		"single title term without text": {
			title: "Heatwave grips Churu",
			check: func(t *testing.T, score float64) {
				// 1 term, 1 category, title bonus.
				assert.InDelta(t, 0.5*(1.0/3.0)+0.3*0.5+0.2, score, 1e-9)
			},
		},
		"term in body only gets no title bonus": {
			title:    "Jaipur hospitals under pressure",
			fullText: "Doctors attributed the admissions to heatstroke.",
			check: func(t *testing.T, score float64) {
				assert.InDelta(t, 0.5*(1.0/3.0)+0.3*0.5, score, 1e-9)
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			score := scorer.Score(relevanceArticle(t, tc.title, tc.fullText))
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
			tc.check(t, score)
		})
	}
}

func TestScore_MoreEvidenceNeverLowers(t *testing.T) {
	scorer := newTestScorer(t)

	base := scorer.Score(relevanceArticle(t, "Heatwave grips Churu",
		"Residents struggled through the week."))
	richer := scorer.Score(relevanceArticle(t, "Heatwave grips Churu",
		"Residents struggled as heat stroke admissions rose and a power cut hit the town."))
	assert.GreaterOrEqual(t, richer, base)
}

func TestFilter_BorderlineKept(t *testing.T) {
	scorer := newTestScorer(t)

	borderline := relevanceArticle(t, "Summer conditions in Delhi", "")
	kept := scorer.Filter([]models.Article{borderline})

	require.Len(t, kept, 1)
	assert.Zero(t, kept[0].RelevanceScore)
}

func TestFilter_ExcludesOnlyWithBothSignals(t *testing.T) {
	scorer := newTestScorer(t)

	articles := []models.Article{
		// Zero score and matches an exclusion pattern: dropped.
		relevanceArticle(t, "Miami Heat clinch the series", ""),
		// Matches an exclusion pattern but scores above the ceiling: kept.
		relevanceArticle(t, "Heatwave coverage turns into heated debate", ""),
		// Relevant article: kept with its score.
		relevanceArticle(t, "Heatwave alert in Jaipur", "Heat stroke cases rose amid a water crisis."),
	}

	result := scorer.Filter(articles)
	require.Len(t, result, 2)
	assert.Equal(t, "Heatwave coverage turns into heated debate", result[0].Title)
	assert.Equal(t, "Heatwave alert in Jaipur", result[1].Title)
	assert.InDelta(t, 1.0, result[1].RelevanceScore, 1e-9)
}

func TestTitleHasHeatSignal(t *testing.T) {
	tests := map[string]struct {
		title string
		want  bool
	}{
		"english heatwave":       {"Heatwave alert issued for Rajasthan", true},
		"english case folded":    {"MERCURY soars past 45", true},
		"hindi":                  {"गर्मी से बेहाल राजस्थान", true},
		"tamil":                  {"வெயில் தாக்கம் அதிகரிப்பு", true},
		"no signal":              {"Election results announced", false},
		"loo needs word boundary": {"New look for the city museum", false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, TitleHasHeatSignal(tc.title))
		})
	}
}

func TestFilterByTitleSignal(t *testing.T) {
	refs := []models.ArticleRef{
		relevanceArticle(t, "Heatwave grips Churu", "").ArticleRef,
		relevanceArticle(t, "Election results announced", "").ArticleRef,
		relevanceArticle(t, "तापमान 47 डिग्री पहुंचा", "").ArticleRef,
	}

	kept := FilterByTitleSignal(refs, logger.Discard())
	require.Len(t, kept, 2)
	assert.Equal(t, refs[0].Title, kept[0].Title)
	assert.Equal(t, refs[2].Title, kept[1].Title)
}
