// ABOUTME: This file tags extracted articles with districts after full text is available
// ABOUTME: Text scan first, then the optional LLM extraction for what remains untagged
package pipeline

import (
	"context"
	"strings"

	"heat-collector/models"
	"heat-collector/refdata"
	"heat-collector/relevance/llm"
)

// tagDistricts fills in the district of still-untagged articles. The
// cheap pass scans title and full text for the English district names of
// the article's state; when an LLM checker is configured, it gets asked
// about whatever the scan could not place. Already-tagged articles are
// left alone.
func (p *Pipeline) tagDistricts(ctx context.Context, articles []models.Article, regions []refdata.Region, checker llm.Checker) []models.Article {
	byState := make(map[string]refdata.Region, len(regions))
	for _, region := range regions {
		byState[region.Name] = region
	}
	allowed := districtFilter(p.config.Collection.Districts)

	tagged := 0
	for i, article := range articles {
		if article.District != "" {
			continue
		}
		region, ok := byState[article.State]
		if !ok {
			continue
		}
		candidates := candidateDistricts(region, allowed)
		if len(candidates) == 0 {
			continue
		}

		district := matchDistrictInText(article, candidates)
		if district == "" && checker != nil {
			district = checker.ExtractDistrict(ctx, article.Title, article.FullText, article.State, candidates)
		}
		if district != "" {
			articles[i] = article.WithDistrict(district)
			tagged++
		}
	}
	p.logger.Info("district tagging", "articles", len(articles), "tagged", tagged)
	return articles
}

// districtFilter turns the configured district slugs into a lookup set.
// Nil means no filtering.
func districtFilter(slugs []string) map[string]bool {
	if len(slugs) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		allowed[slug] = true
	}
	return allowed
}

func candidateDistricts(region refdata.Region, allowed map[string]bool) []string {
	names := make([]string, 0, len(region.Districts))
	for _, district := range region.Districts {
		if allowed == nil || allowed[district.Slug] {
			names = append(names, district.Name)
		}
	}
	return names
}

// matchDistrictInText returns the first candidate district whose name
// appears case-insensitively in the article title or full text.
func matchDistrictInText(article models.Article, candidates []string) string {
	text := strings.ToLower(article.Title)
	if article.FullText != "" {
		text += "\n" + strings.ToLower(article.FullText)
	}
	for _, name := range candidates {
		if strings.Contains(text, strings.ToLower(name)) {
			return name
		}
	}
	return ""
}
