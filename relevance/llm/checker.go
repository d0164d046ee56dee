// ABOUTME: This file defines the Checker interface and the shared provider plumbing
// ABOUTME: Relevance checks fail open and district extraction fails safe to state level
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"heat-collector/models"
	"heat-collector/ratelimit"
)

// Checker filters article refs by LLM judgment and resolves districts.
// Relevance checks fail open: on any provider error the article is kept.
// District extraction fails safe: on any error the article stays at state
// level.
type Checker interface {
	CheckRelevance(ctx context.Context, title, text, state, district string) bool
	FilterRefs(ctx context.Context, refs []models.ArticleRef) []models.ArticleRef
	ExtractDistrict(ctx context.Context, title, text, state string, districts []string) string
	Close()
}

// callFunc sends a system and user prompt to a backend and returns the
// raw completion text.
type callFunc func(ctx context.Context, system, user string) (string, error)

// provider wraps a backend call with a concurrency cap and a minimum
// interval between requests.
type provider struct {
	name    string
	call    callFunc
	sem     chan struct{}
	limiter *ratelimit.PerSecondLimiter
	closeFn func()
	logger  *slog.Logger
}

func newProvider(name string, maxConcurrent int, minInterval time.Duration, call callFunc, closeFn func(), logger *slog.Logger) *provider {
	var limiter *ratelimit.PerSecondLimiter
	if minInterval > 0 {
		limiter = ratelimit.NewPerSecondLimiter(1.0/minInterval.Seconds(), 0)
	}
	return &provider{
		name:    name,
		call:    call,
		sem:     make(chan struct{}, maxConcurrent),
		limiter: limiter,
		closeFn: closeFn,
		logger:  logger,
	}
}

// ask runs one gated call against the backend.
func (p *provider) ask(ctx context.Context, system, user string) (string, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-p.sem }()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return p.call(ctx, system, user)
}

func (p *provider) CheckRelevance(ctx context.Context, title, text, state, district string) bool {
	response, err := p.ask(ctx, systemPrompt, buildPrompt(title, text, state, district))
	if err != nil {
		p.logger.Warn("relevance check failed, keeping article",
			"provider", p.name, "title", truncate(title, 60), "error", err)
		return true
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "yes")
}

func (p *provider) FilterRefs(ctx context.Context, refs []models.ArticleRef) []models.ArticleRef {
	return filterRefs(ctx, p, refs, p.logger)
}

func (p *provider) ExtractDistrict(ctx context.Context, title, text, state string, districts []string) string {
	system := "You extract geographic information from Indian news articles. " +
		"You can read all Indian languages and scripts."
	user := fmt.Sprintf(
		"Which single district in %s is this article PRIMARILY about?\n"+
			"Districts: %s\n\n"+
			"Title: %s\n"+
			"Text: %s\n\n"+
			"Rules:\n"+
			"- Reply with ONLY the district name from the list above.\n"+
			"- If the article mentions multiple districts or is about the state as a whole, reply ONLY \"None\".\n"+
			"- If you cannot determine the district, reply ONLY \"None\".",
		state, strings.Join(districts, ", "), title, textPreview(text))

	response, err := p.ask(ctx, system, user)
	if err != nil {
		p.logger.Warn("district extraction failed",
			"provider", p.name, "title", truncate(title, 60), "error", err)
		return ""
	}

	answer := strings.Trim(strings.TrimSpace(response), `"'`)
	if strings.EqualFold(answer, "none") {
		return ""
	}
	for _, district := range districts {
		if strings.EqualFold(district, answer) {
			return district
		}
	}
	// The model may answer in a slightly different form.
	lower := strings.ToLower(answer)
	for _, district := range districts {
		dl := strings.ToLower(district)
		if strings.Contains(lower, dl) || strings.Contains(dl, lower) {
			return district
		}
	}
	return ""
}

func (p *provider) Close() {
	if p.closeFn != nil {
		p.closeFn()
	}
}

// relevanceChecker is the subset of Checker that filterRefs needs.
type relevanceChecker interface {
	CheckRelevance(ctx context.Context, title, text, state, district string) bool
}

// filterRefs checks titles concurrently and keeps the refs judged
// relevant, preserving input order. Provider-level gating bounds the
// actual request concurrency.
func filterRefs(ctx context.Context, checker relevanceChecker, refs []models.ArticleRef, logger *slog.Logger) []models.ArticleRef {
	if len(refs) == 0 {
		return refs
	}
	logger.Info("llm relevance check", "refs", len(refs))

	verdicts := make([]bool, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref models.ArticleRef) {
			defer wg.Done()
			verdicts[i] = checker.CheckRelevance(ctx, ref.Title, "", ref.State, ref.District)
		}(i, ref)
	}
	wg.Wait()

	relevant := make([]models.ArticleRef, 0, len(refs))
	for i, ref := range refs {
		if verdicts[i] {
			relevant = append(relevant, ref)
		}
	}
	logger.Info("llm relevance filter",
		"before", len(refs),
		"after", len(relevant),
		"dropped", len(refs)-len(relevant))
	return relevant
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
