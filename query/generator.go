// ABOUTME: This file expands region, language, and category into per-backend query sets
// ABOUTME: Fan-out is bounded to two query languages per region: the primary one plus English
package query

import (
	"log/slog"

	"heat-collector/refdata"
)

// limitFor maps a source hint to its query-string length limit.
func limitFor(hint string) int {
	switch hint {
	case HintGoogleNews:
		return GoogleNewsQueryLimit
	case HintNewsData:
		return NewsDataQueryLimit
	case HintGNews:
		return GNewsQueryLimit
	default:
		return NewsDataQueryLimit
	}
}

// gNewsQueryLanguages mirrors the GNews adapter's language support so the
// generator never emits queries the adapter would refuse.
var gNewsQueryLanguages = map[string]bool{
	"en": true, "hi": true, "bn": true, "ta": true,
	"te": true, "mr": true, "ml": true, "pa": true,
}

func hintSupportsLanguage(hint, language string) bool {
	if hint == HintGNews {
		return gNewsQueryLanguages[language]
	}
	return true
}

// Generator builds state-level and district-level query sets from the
// reference data.
type Generator struct {
	logger *slog.Logger
}

func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{logger: logger}
}

// GenerateStateQueries returns Phase-1 queries grouped by source hint.
// Google News gets one query per region, language, and query category;
// the quota-limited JSON backends get a single broad query per region and
// language built from all query-category terms in priority order.
func (g *Generator) GenerateStateQueries(regions []refdata.Region) map[string][]Query {
	out := map[string][]Query{
		HintGoogleNews: nil,
		HintNewsData:   nil,
		HintGNews:      nil,
	}

	for _, region := range regions {
		for _, language := range region.QueryLanguages() {
			g.appendGoogleNewsQueries(out, region, language)
			g.appendBroadQueries(out, HintNewsData, region, language)
			if gNewsQueryLanguages[language] {
				g.appendBroadQueries(out, HintGNews, region, language)
			}
		}
	}
	return out
}

func (g *Generator) appendGoogleNewsQueries(out map[string][]Query, region refdata.Region, language string) {
	for _, category := range refdata.QueryCategories {
		terms, err := refdata.Terms(language, category)
		if err != nil {
			g.logger.Warn("no terms for query category",
				"language", language, "category", category, "error", err)
			continue
		}
		qs := BuildTermQuery(terms, region.Name, GoogleNewsQueryLimit)
		if qs == "" {
			continue
		}
		out[HintGoogleNews] = append(out[HintGoogleNews], Query{
			QueryString: qs,
			Language:    language,
			RegionName:  region.Name,
			RegionSlug:  region.Slug,
			Level:       LevelState,
			Category:    category,
			SourceHint:  HintGoogleNews,
		})
	}
}

func (g *Generator) appendBroadQueries(out map[string][]Query, hint string, region refdata.Region, language string) {
	var terms []string
	for _, category := range refdata.QueryCategories {
		categoryTerms, err := refdata.Terms(language, category)
		if err != nil {
			continue
		}
		terms = append(terms, categoryTerms...)
	}
	qs := BuildTermQuery(terms, region.Name, limitFor(hint))
	if qs == "" {
		return
	}
	out[hint] = append(out[hint], Query{
		QueryString: qs,
		Language:    language,
		RegionName:  region.Name,
		RegionSlug:  region.Slug,
		Level:       LevelState,
		SourceHint:  hint,
	})
}

// GenerateDistrictQueries returns Phase-2 queries for one source hint.
// Each region contributes batches of quoted district names attached to a
// single heat term, preferring the weather category.
func (g *Generator) GenerateDistrictQueries(regions []refdata.Region, hint string) []Query {
	var queries []Query
	for _, region := range regions {
		if len(region.Districts) == 0 {
			continue
		}
		for _, language := range region.QueryLanguages() {
			if !hintSupportsLanguage(hint, language) {
				continue
			}
			term := g.districtTerm(language)
			if term == "" {
				continue
			}
			for _, batch := range BuildDistrictBatches(term, region.DistrictNames(), limitFor(hint)) {
				queries = append(queries, Query{
					QueryString: batch.QueryString,
					Language:    language,
					RegionName:  region.Name,
					RegionSlug:  region.Slug,
					Level:       LevelDistrict,
					SourceHint:  hint,
					Districts:   batch.Districts,
				})
			}
		}
	}
	return queries
}

// districtTerm picks the single heat term carried by district queries:
// the first weather term, falling back to the first term in any query
// category.
func (g *Generator) districtTerm(language string) string {
	if terms, err := refdata.Terms(language, "weather"); err == nil && len(terms) > 0 {
		return terms[0]
	}
	for _, category := range refdata.QueryCategories {
		if terms, err := refdata.Terms(language, category); err == nil && len(terms) > 0 {
			return terms[0]
		}
	}
	return ""
}
