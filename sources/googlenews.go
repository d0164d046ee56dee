// ABOUTME: This file implements the Google News RSS search adapter
// ABOUTME: Feed items are mapped to ArticleRefs; the publisher comes from the title suffix
package sources

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"heat-collector/models"
)

const googleNewsName = "GoogleNews"

// GoogleNewsSource searches the Google News RSS endpoint. It supports all
// 14 collection languages and has no API key or fixed daily quota.
type GoogleNewsSource struct {
	baseURL string
	client  *http.Client
	parser  *gofeed.Parser
	logger  *slog.Logger
}

func NewGoogleNewsSource(logger *slog.Logger) *GoogleNewsSource {
	return NewGoogleNewsSourceWithBaseURL("https://news.google.com", logger)
}

// NewGoogleNewsSourceWithBaseURL overrides the endpoint host (used by tests).
func NewGoogleNewsSourceWithBaseURL(baseURL string, logger *slog.Logger) *GoogleNewsSource {
	return &GoogleNewsSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  newHTTPClient(30 * time.Second),
		parser:  gofeed.NewParser(),
		logger:  logger,
	}
}

func (s *GoogleNewsSource) Name() string { return googleNewsName }

func (s *GoogleNewsSource) SupportsLanguage(language string) bool {
	return models.SupportedLanguages[language]
}

// FeedURL builds the RSS search URL. English uses the en-IN language tag;
// other languages use the bare ISO code. The edition is pinned to India.
func (s *GoogleNewsSource) FeedURL(queryString, language string) string {
	hl := language
	if language == "en" {
		hl = "en-IN"
	}
	params := url.Values{}
	params.Set("q", queryString)
	params.Set("hl", hl)
	params.Set("gl", "IN")
	params.Set("ceid", "IN:"+language)
	return s.baseURL + "/rss/search?" + params.Encode()
}

func (s *GoogleNewsSource) Search(ctx context.Context, queryString, language string, opts SearchOptions) ([]models.ArticleRef, error) {
	feedURL := s.FeedURL(queryString, language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		s.logger.Error("google news request build failed", "error", err)
		return nil, nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("google news request failed", "error", err, "language", language)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{SourceName: googleNewsName}
	}
	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("google news unexpected status", "status", resp.StatusCode, "language", language)
		return nil, nil
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		s.logger.Warn("google news feed parse failed", "error", err, "language", language)
		return nil, nil
	}

	refs := make([]models.ArticleRef, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" || item.PublishedParsed == nil {
			continue
		}
		title, source := splitPublisherSuffix(item.Title)
		ref, err := models.NewArticleRef(title, item.Link, source, *item.PublishedParsed, language, opts.State, opts.SearchTerm)
		if err != nil {
			s.logger.Debug("google news item skipped", "error", err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *GoogleNewsSource) Close() {
	s.client.CloseIdleConnections()
}

// splitPublisherSuffix splits "Headline - Publisher" feed titles. Google
// News appends the publisher after the last " - "; when absent the source
// stays unidentified.
func splitPublisherSuffix(title string) (headline, publisher string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title, ""
	}
	headline = strings.TrimSpace(title[:idx])
	publisher = strings.TrimSpace(title[idx+3:])
	if headline == "" {
		return title, ""
	}
	return headline, publisher
}

var _ Source = (*GoogleNewsSource)(nil)
