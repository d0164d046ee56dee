// ABOUTME: This file defines the ArticleRef and Article value objects of the pipeline
// ABOUTME: All dates are normalized to IST; fields are frozen after construction
package models

import (
	"fmt"
	"time"
)

// IST is the fixed timezone all article dates are normalized to.
var IST = time.FixedZone("IST", 5*3600+30*60)

// MaxTitleLength bounds article titles; longer entries are rejected by
// source adapters during mapping.
const MaxTitleLength = 500

// SupportedLanguages is the fixed set of 14 ISO 639-1 language codes the
// pipeline collects in.
var SupportedLanguages = map[string]bool{
	"en": true, "hi": true, "ta": true, "te": true, "bn": true,
	"mr": true, "gu": true, "kn": true, "ml": true, "or": true,
	"pa": true, "as": true, "ur": true, "ne": true,
}

// ArticleRef is a lightweight search result reference. It carries only the
// metadata available from search responses; full text is added later by the
// extraction stage. Treat values as immutable: "updates" go through the
// With* helpers which return copies.
type ArticleRef struct {
	Title      string    `json:"title" csv:"title"`
	URL        string    `json:"url" csv:"url"`
	Source     string    `json:"source" csv:"source"`
	Date       time.Time `json:"date" csv:"date"`
	Language   string    `json:"language" csv:"language"`
	State      string    `json:"state" csv:"state"`
	District   string    `json:"district,omitempty" csv:"district"`
	SearchTerm string    `json:"search_term" csv:"search_term"`
}

// NewArticleRef validates and builds an ArticleRef. The date is normalized
// to IST; source adapters are expected to have already attached the correct
// zone for naive upstream timestamps (UTC for the JSON backends).
func NewArticleRef(title, url, source string, date time.Time, language, state, searchTerm string) (ArticleRef, error) {
	if title == "" {
		return ArticleRef{}, fmt.Errorf("article ref: empty title")
	}
	if len(title) > MaxTitleLength {
		return ArticleRef{}, fmt.Errorf("article ref: title exceeds %d chars", MaxTitleLength)
	}
	if url == "" {
		return ArticleRef{}, fmt.Errorf("article ref: empty url")
	}
	if !SupportedLanguages[language] {
		return ArticleRef{}, fmt.Errorf("article ref: unsupported language %q", language)
	}
	if state == "" {
		return ArticleRef{}, fmt.Errorf("article ref: empty state")
	}
	if searchTerm == "" {
		return ArticleRef{}, fmt.Errorf("article ref: empty search term")
	}
	if date.IsZero() {
		return ArticleRef{}, fmt.Errorf("article ref: zero date")
	}
	if source == "" {
		source = "Unknown"
	}

	return ArticleRef{
		Title:      title,
		URL:        url,
		Source:     source,
		Date:       date.In(IST),
		Language:   language,
		State:      state,
		SearchTerm: searchTerm,
	}, nil
}

// WithDistrict returns a copy tagged with the given district.
func (r ArticleRef) WithDistrict(district string) ArticleRef {
	r.District = district
	return r
}

// Article is an ArticleRef enriched with extraction and scoring results.
// FullText is empty when extraction failed or produced nothing usable.
type Article struct {
	ArticleRef
	FullText       string  `json:"full_text,omitempty" csv:"full_text"`
	RelevanceScore float64 `json:"relevance_score" csv:"relevance_score"`
}

// NewArticle builds an Article from a ref and its extracted text.
func NewArticle(ref ArticleRef, fullText string) Article {
	return Article{ArticleRef: ref, FullText: fullText}
}

// HasFullText reports whether extraction produced usable text.
func (a Article) HasFullText() bool {
	return a.FullText != ""
}

// WithScore returns a copy carrying the given relevance score.
func (a Article) WithScore(score float64) Article {
	a.RelevanceScore = score
	return a
}

// WithDistrict returns a copy tagged with the given district.
func (a Article) WithDistrict(district string) Article {
	a.District = district
	return a
}
