// ABOUTME: This file implements the two-phase state-then-district query executor
// ABOUTME: Sources run concurrently; each source's queries run sequentially under its scheduler
package query

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"heat-collector/models"
	"heat-collector/refdata"
	"heat-collector/reliability"
)

// Executor drives the collection across all schedulers. The optional
// deadline stops issuing new queries once reached; the optional checkpoint
// makes runs resumable.
type Executor struct {
	schedulers map[string]*Scheduler
	generator  *Generator
	checkpoint *reliability.CheckpointStore
	deadline   time.Time
	logger     *slog.Logger
}

func NewExecutor(
	schedulers map[string]*Scheduler,
	generator *Generator,
	checkpoint *reliability.CheckpointStore,
	deadline time.Time,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		schedulers: schedulers,
		generator:  generator,
		checkpoint: checkpoint,
		deadline:   deadline,
		logger:     logger,
	}
}

// RunCollection executes Phase 1 over all regions, then Phase 2 over
// regions that produced articles. Collection failures never surface as
// errors; the only error returned is a checkpoint write failure, which
// invalidates resumability.
func (e *Executor) RunCollection(ctx context.Context, regions []refdata.Region) ([]models.ArticleRef, error) {
	var all []models.ArticleRef

	e.logger.Info("phase 1: generating state queries", "regions", len(regions))
	stateQueries := e.generator.GenerateStateQueries(regions)
	for hint, queries := range stateQueries {
		e.logger.Info("state queries generated", "source", hint, "count", len(queries))
	}

	stateResults, err := e.executeParallel(ctx, stateQueries)
	if err != nil {
		return all, err
	}
	for _, result := range stateResults {
		all = append(all, result.Articles...)
	}
	stateCount := len(all)

	activeSlugs := make(map[string]bool)
	for _, result := range stateResults {
		if len(result.Articles) > 0 {
			activeSlugs[result.Query.RegionSlug] = true
		}
	}
	e.logger.Info("phase 1 complete",
		"articles", stateCount,
		"active_regions", len(activeSlugs),
		"total_regions", len(regions))

	var activeRegions []refdata.Region
	for _, region := range regions {
		if activeSlugs[region.Slug] {
			activeRegions = append(activeRegions, region)
		}
	}

	switch {
	case e.deadlineReached():
		e.logger.Warn("deadline reached after state queries, skipping district queries")
	case len(activeRegions) == 0:
		e.logger.Info("phase 2: no active regions, skipping district queries")
	default:
		districtQueries := make(map[string][]Query)
		for hint, scheduler := range e.schedulers {
			if remaining, limited := scheduler.RemainingBudget(); limited && remaining <= 0 {
				e.logger.Info("budget exhausted, skipping district queries", "source", hint)
				continue
			}
			queries := e.generator.GenerateDistrictQueries(activeRegions, hint)
			if len(queries) > 0 {
				districtQueries[hint] = queries
				e.logger.Info("district queries generated", "source", hint, "count", len(queries))
			}
		}

		districtResults, err := e.executeParallel(ctx, districtQueries)
		if err != nil {
			return all, err
		}
		for _, result := range districtResults {
			all = append(all, e.tagDistricts(result.Articles, result.Query.Districts)...)
		}
	}

	e.logger.Info("collection complete",
		"total", len(all),
		"state_articles", stateCount,
		"district_articles", len(all)-stateCount)
	return all, nil
}

// executeParallel fans sources out into a structured-concurrency group.
// Each source runs its query list sequentially so its budget and limiters
// stay authoritative.
func (e *Executor) executeParallel(ctx context.Context, queriesBySource map[string][]Query) ([]QueryResult, error) {
	var (
		results []QueryResult
		mu      sync.Mutex
	)

	group, groupCtx := errgroup.WithContext(ctx)
	for hint, queries := range queriesBySource {
		scheduler, ok := e.schedulers[hint]
		if !ok {
			e.logger.Warn("no scheduler registered for source", "source", hint, "queries", len(queries))
			continue
		}
		queries := queries
		group.Go(func() error {
			sourceResults, err := e.executeQueryList(groupCtx, scheduler, queries)
			mu.Lock()
			results = append(results, sourceResults...)
			mu.Unlock()
			return err
		})
	}
	if err := group.Wait(); err != nil {
		// Only checkpoint I/O failures propagate; they invalidate resumability.
		return results, err
	}
	return results, nil
}

// executeQueryList runs one source's queries in order, honoring the
// deadline, checkpoint skips, and budget exhaustion.
func (e *Executor) executeQueryList(ctx context.Context, scheduler *Scheduler, queries []Query) ([]QueryResult, error) {
	var results []QueryResult
	skipped := 0

	for _, q := range queries {
		if e.deadlineReached() {
			e.logger.Warn("deadline reached, stopping source",
				"source", scheduler.Name(),
				"executed", len(results),
				"total", len(queries))
			break
		}

		if e.checkpoint != nil && e.checkpoint.IsCompleted(q.Fingerprint()) {
			skipped++
			continue
		}

		result := scheduler.Execute(ctx, q)
		results = append(results, result)

		if e.checkpoint != nil {
			e.checkpoint.MarkCompleted(q.Fingerprint())
			if err := e.checkpoint.Save(); err != nil {
				return results, err
			}
		}

		if remaining, limited := scheduler.RemainingBudget(); limited && remaining <= 0 {
			e.logger.Info("budget exhausted, stopping source",
				"source", scheduler.Name(),
				"executed", len(results),
				"total", len(queries))
			break
		}
	}

	if skipped > 0 {
		e.logger.Info("skipped queries from checkpoint", "source", scheduler.Name(), "count", skipped)
	}
	return results, nil
}

func (e *Executor) deadlineReached() bool {
	return !e.deadline.IsZero() && time.Now().After(e.deadline)
}

// tagDistricts assigns district names to Phase-2 results. A single-district
// batch tags everything; multi-district batches tag by first
// case-insensitive title match. Unmatched refs keep an empty district for
// post-extraction tagging.
func (e *Executor) tagDistricts(articles []models.ArticleRef, districts []string) []models.ArticleRef {
	if len(districts) == 0 || len(articles) == 0 {
		return articles
	}

	if len(districts) == 1 {
		tagged := make([]models.ArticleRef, len(articles))
		for i, ref := range articles {
			tagged[i] = ref.WithDistrict(districts[0])
		}
		return tagged
	}

	tagged := make([]models.ArticleRef, len(articles))
	for i, ref := range articles {
		title := strings.ToLower(ref.Title)
		var matches []string
		for _, district := range districts {
			if strings.Contains(title, strings.ToLower(district)) {
				matches = append(matches, district)
			}
		}
		switch {
		case len(matches) == 0:
			tagged[i] = ref
		case len(matches) == 1:
			tagged[i] = ref.WithDistrict(matches[0])
		default:
			// District names can be common words; first match wins.
			e.logger.Debug("ambiguous district match",
				"title", ref.Title, "matches", matches)
			tagged[i] = ref.WithDistrict(matches[0])
		}
	}
	return tagged
}
