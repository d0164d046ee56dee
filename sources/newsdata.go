// ABOUTME: This file implements the NewsData.io search adapter
// ABOUTME: Handles the free-tier status codes: 401 key errors, 403 quota, 429 rate limit
package sources

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"heat-collector/models"
)

const newsDataName = "NewsData"

// newsDataTimeLayout is the naive pubDate format the API returns. Values
// are interpreted as UTC before IST normalization.
const newsDataTimeLayout = "2006-01-02 15:04:05"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type newsDataResponse struct {
	Status  string           `json:"status"`
	Results []newsDataResult `json:"results"`
}

type newsDataResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	PubDate  string `json:"pubDate"`
	SourceID string `json:"source_id"`
}

// NewsDataSource searches the NewsData.io latest-news endpoint. All 14
// collection languages are supported; the free tier enforces a daily quota
// signalled by HTTP 403.
type NewsDataSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

func NewNewsDataSource(apiKey string, logger *slog.Logger) *NewsDataSource {
	return NewNewsDataSourceWithBaseURL("https://newsdata.io", apiKey, logger)
}

// NewNewsDataSourceWithBaseURL overrides the endpoint host (used by tests).
func NewNewsDataSourceWithBaseURL(baseURL, apiKey string, logger *slog.Logger) *NewsDataSource {
	if apiKey == "" {
		logger.Warn("newsdata api key not set, searches will return nothing")
	}
	return &NewsDataSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  newHTTPClient(30 * time.Second),
		logger:  logger,
	}
}

func (s *NewsDataSource) Name() string { return newsDataName }

func (s *NewsDataSource) SupportsLanguage(language string) bool {
	return models.SupportedLanguages[language]
}

func (s *NewsDataSource) Search(ctx context.Context, queryString, language string, opts SearchOptions) ([]models.ArticleRef, error) {
	if s.apiKey == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("apikey", s.apiKey)
	params.Set("q", queryString)
	params.Set("language", language)
	params.Set("country", "in")
	endpoint := s.baseURL + "/api/1/latest?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		s.logger.Error("newsdata request build failed", "error", err)
		return nil, nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("newsdata request failed", "error", err, "language", language)
		return nil, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		s.logger.Error("newsdata api key invalid")
		return nil, nil
	case http.StatusForbidden:
		s.logger.Warn("newsdata daily quota exhausted")
		return nil, ErrQuotaExhausted
	case http.StatusTooManyRequests:
		return nil, &RateLimitError{SourceName: newsDataName}
	default:
		s.logger.Warn("newsdata unexpected status", "status", resp.StatusCode)
		return nil, nil
	}

	var body newsDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.logger.Warn("newsdata response parse failed", "error", err)
		return nil, nil
	}
	if body.Status != "success" {
		s.logger.Warn("newsdata error status in body", "status", body.Status)
		return nil, nil
	}

	refs := make([]models.ArticleRef, 0, len(body.Results))
	for _, result := range body.Results {
		if result.Title == "" || result.Link == "" || result.PubDate == "" {
			continue
		}
		published, err := parseNewsDataDate(result.PubDate)
		if err != nil {
			s.logger.Debug("newsdata date skipped", "pub_date", result.PubDate, "error", err)
			continue
		}
		ref, err := models.NewArticleRef(result.Title, result.Link, result.SourceID, published, language, opts.State, opts.SearchTerm)
		if err != nil {
			s.logger.Debug("newsdata item skipped", "error", err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *NewsDataSource) Close() {
	s.client.CloseIdleConnections()
}

// parseNewsDataDate accepts the API's naive "YYYY-MM-DD HH:MM:SS" form and
// falls back to RFC 3339 for feeds that include a zone.
func parseNewsDataDate(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(newsDataTimeLayout, value, time.UTC); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

var _ Source = (*NewsDataSource)(nil)
