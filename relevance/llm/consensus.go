// ABOUTME: This file combines multiple checkers under strict majority vote
// ABOUTME: A ref survives only when more than half the backends answer yes
package llm

import (
	"context"
	"log/slog"
	"sync"

	"heat-collector/models"
)

// Consensus asks every underlying checker and keeps a ref only when a
// strict majority answers yes. Each underlying checker keeps its own rate
// gating, so votes for one title run concurrently.
type Consensus struct {
	checkers []Checker
	logger   *slog.Logger
}

// NewConsensus wraps two or more checkers.
func NewConsensus(checkers []Checker, logger *slog.Logger) *Consensus {
	return &Consensus{checkers: checkers, logger: logger}
}

func (c *Consensus) CheckRelevance(ctx context.Context, title, text, state, district string) bool {
	votes := make([]bool, len(c.checkers))
	var wg sync.WaitGroup
	for i, checker := range c.checkers {
		wg.Add(1)
		go func(i int, checker Checker) {
			defer wg.Done()
			votes[i] = checker.CheckRelevance(ctx, title, text, state, district)
		}(i, checker)
	}
	wg.Wait()

	yes := 0
	for _, vote := range votes {
		if vote {
			yes++
		}
	}
	relevant := yes*2 > len(c.checkers)
	c.logger.Debug("consensus vote",
		"title", truncate(title, 50),
		"yes", yes,
		"checkers", len(c.checkers),
		"relevant", relevant)
	return relevant
}

func (c *Consensus) FilterRefs(ctx context.Context, refs []models.ArticleRef) []models.ArticleRef {
	return filterRefs(ctx, c, refs, c.logger)
}

// ExtractDistrict delegates to the first checker; running the extraction
// through every backend is not worth the extra quota.
func (c *Consensus) ExtractDistrict(ctx context.Context, title, text, state string, districts []string) string {
	if len(c.checkers) == 0 {
		return ""
	}
	return c.checkers[0].ExtractDistrict(ctx, title, text, state, districts)
}

func (c *Consensus) Close() {
	for _, checker := range c.checkers {
		checker.Close()
	}
}
