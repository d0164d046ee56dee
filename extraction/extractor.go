// ABOUTME: This file implements batch article extraction with bounded concurrency
// ABOUTME: Refs process in chunks; the deadline is polled between chunks, never mid-chunk
package extraction

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"heat-collector/models"
	"heat-collector/orchestrator"
)

// fetchRetryPause separates the two fetch attempts for one URL.
const fetchRetryPause = 2 * time.Second

// Extractor fetches article pages and extracts their main text. It owns
// one HTTP client scoped to the batch; Close releases it.
type Extractor struct {
	client        *http.Client
	resolver      *Resolver
	maxConcurrent int
	deadline      time.Time
	logger        *slog.Logger
}

// NewExtractor builds a batch extractor. A zero deadline means none.
func NewExtractor(maxConcurrent int, deadline time.Time, logger *slog.Logger) *Extractor {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	client := &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
			MaxIdleConns:        maxConcurrent * 2,
			MaxIdleConnsPerHost: 2,
		},
	}
	return &Extractor{
		client:        client,
		resolver:      NewResolver(client, logger),
		maxConcurrent: maxConcurrent,
		deadline:      deadline,
		logger:        logger,
	}
}

// SetResolver swaps the URL resolver (used by tests).
func (e *Extractor) SetResolver(resolver *Resolver) {
	e.resolver = resolver
}

// ExtractArticles produces exactly one Article per input ref, in input
// order. Refs past the deadline, and refs whose fetch or extraction
// failed, come back with no full text.
func (e *Extractor) ExtractArticles(ctx context.Context, refs []models.ArticleRef) []models.Article {
	if len(refs) == 0 {
		return nil
	}

	articles := make([]models.Article, 0, len(refs))
	chunkSize := 3 * e.maxConcurrent

	for start := 0; start < len(refs); start += chunkSize {
		if e.deadlineReached() {
			e.logger.Warn("extraction deadline reached",
				"extracted", len(articles), "remaining", len(refs)-len(articles))
			for _, ref := range refs[start:] {
				articles = append(articles, models.NewArticle(ref, ""))
			}
			break
		}

		end := start + chunkSize
		if end > len(refs) {
			end = len(refs)
		}
		chunk := refs[start:end]

		results := orchestrator.RunStage(ctx, orchestrator.Stage[models.ArticleRef, models.Article]{
			Name:        "extract",
			Concurrency: e.maxConcurrent,
			Process:     e.extractOne,
		}, chunk)

		for i, result := range results {
			if result.Err != nil {
				e.logger.Warn("extraction task failed", "url", chunk[i].URL, "error", result.Err)
				articles = append(articles, models.NewArticle(chunk[i], ""))
				continue
			}
			articles = append(articles, result.Value)
		}
	}

	extracted := 0
	for _, a := range articles {
		if a.HasFullText() {
			extracted++
		}
	}
	e.logger.Info("extraction complete",
		"refs", len(refs), "extracted", extracted, "failed", len(refs)-extracted)
	return articles
}

// Close releases the batch HTTP client.
func (e *Extractor) Close() {
	e.client.CloseIdleConnections()
}

// extractOne never returns an error: failures produce an Article with no
// full text.
func (e *Extractor) extractOne(ctx context.Context, ref models.ArticleRef) (models.Article, error) {
	resolved := e.resolver.Resolve(ctx, ref.URL)

	html, err := e.fetchHTML(ctx, resolved)
	if err != nil {
		e.logger.Warn("fetch failed", "url", ref.URL, "resolved", resolved, "error", err)
		return models.NewArticle(ref, ""), nil
	}

	text := ExtractText(html)
	if text == "" {
		e.logger.Warn("no text extracted", "url", resolved)
	} else {
		e.logger.Debug("text extracted", "url", resolved, "chars", len(text))
	}
	return models.NewArticle(ref, text), nil
}

// fetchHTML fetches a page with one retry for timeouts and HTTP errors.
func (e *Extractor) fetchHTML(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(fetchRetryPause):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		html, err := e.fetchOnce(ctx, pageURL)
		if err == nil {
			return html, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func (e *Extractor) fetchOnce(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("http %d fetching %s", resp.StatusCode, pageURL)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (e *Extractor) deadlineReached() bool {
	return !e.deadline.IsZero() && time.Now().After(e.deadline)
}
