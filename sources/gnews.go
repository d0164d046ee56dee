// ABOUTME: This file implements the GNews search adapter
// ABOUTME: Covers 8 Indic languages plus English; results cap at 10 per query
package sources

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"heat-collector/models"
)

const gNewsName = "GNews"

// gNewsLanguages is the subset of collection languages GNews serves.
var gNewsLanguages = map[string]bool{
	"en": true, "hi": true, "bn": true, "ta": true,
	"te": true, "mr": true, "ml": true, "pa": true,
}

type gNewsResponse struct {
	Articles []gNewsArticle `json:"articles"`
}

type gNewsArticle struct {
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	PublishedAt string       `json:"publishedAt"`
	Source      gNewsOutlets `json:"source"`
}

type gNewsOutlets struct {
	Name string `json:"name"`
}

// GNewsSource searches the GNews v4 endpoint. The free tier enforces a
// daily quota signalled by HTTP 403.
type GNewsSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

func NewGNewsSource(apiKey string, logger *slog.Logger) *GNewsSource {
	return NewGNewsSourceWithBaseURL("https://gnews.io", apiKey, logger)
}

// NewGNewsSourceWithBaseURL overrides the endpoint host (used by tests).
func NewGNewsSourceWithBaseURL(baseURL, apiKey string, logger *slog.Logger) *GNewsSource {
	if apiKey == "" {
		logger.Warn("gnews api key not set, searches will return nothing")
	}
	return &GNewsSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  newHTTPClient(30 * time.Second),
		logger:  logger,
	}
}

func (s *GNewsSource) Name() string { return gNewsName }

func (s *GNewsSource) SupportsLanguage(language string) bool {
	return gNewsLanguages[language]
}

func (s *GNewsSource) Search(ctx context.Context, queryString, language string, opts SearchOptions) ([]models.ArticleRef, error) {
	if s.apiKey == "" || !gNewsLanguages[language] {
		return nil, nil
	}

	params := url.Values{}
	params.Set("apikey", s.apiKey)
	params.Set("q", queryString)
	params.Set("lang", language)
	params.Set("country", "in")
	params.Set("max", "10")
	endpoint := s.baseURL + "/api/v4/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		s.logger.Error("gnews request build failed", "error", err)
		return nil, nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("gnews request failed", "error", err, "language", language)
		return nil, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		s.logger.Error("gnews api key invalid")
		return nil, nil
	case http.StatusForbidden:
		s.logger.Warn("gnews daily quota exhausted")
		return nil, ErrQuotaExhausted
	case http.StatusTooManyRequests:
		return nil, &RateLimitError{SourceName: gNewsName}
	default:
		s.logger.Warn("gnews unexpected status", "status", resp.StatusCode)
		return nil, nil
	}

	var body gNewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.logger.Warn("gnews response parse failed", "error", err)
		return nil, nil
	}

	refs := make([]models.ArticleRef, 0, len(body.Articles))
	for _, article := range body.Articles {
		if article.Title == "" || article.URL == "" || article.PublishedAt == "" {
			continue
		}
		published, err := time.Parse(time.RFC3339, article.PublishedAt)
		if err != nil {
			s.logger.Debug("gnews date skipped", "published_at", article.PublishedAt, "error", err)
			continue
		}
		ref, err := models.NewArticleRef(article.Title, article.URL, article.Source.Name, published, language, opts.State, opts.SearchTerm)
		if err != nil {
			s.logger.Debug("gnews item skipped", "error", err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *GNewsSource) Close() {
	s.client.CloseIdleConnections()
}

var _ Source = (*GNewsSource)(nil)
