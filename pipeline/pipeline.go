// ABOUTME: This file wires the full collection pipeline from config to written output
// ABOUTME: Stage order: collect, date filter, title filter, LLM filter, extract, tag, dedup, score, write
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"heat-collector/config"
	"heat-collector/dedup"
	"heat-collector/extraction"
	"heat-collector/models"
	"heat-collector/output"
	"heat-collector/query"
	"heat-collector/refdata"
	"heat-collector/relevance"
	"heat-collector/relevance/llm"
	"heat-collector/reliability"
	"heat-collector/sources"
)

// deadlineBuffer is held back from the extraction share of the timeout so
// dedup, scoring, and output always get to run.
const deadlineBuffer = 2 * time.Minute

// collectionShare of the configured timeout goes to collection; the rest
// minus the buffer goes to extraction.
const collectionShare = 0.8

// Pipeline runs one end-to-end collection.
type Pipeline struct {
	config *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{config: cfg, logger: logger}
}

// Run executes the whole pipeline. Collection never fails the run; the
// returned error covers checkpoint persistence, reference data, and output
// writing only.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()

	regions, err := p.selectRegions()
	if err != nil {
		return err
	}
	scorer, err := relevance.NewScorer(p.logger)
	if err != nil {
		return fmt.Errorf("load relevance tables: %w", err)
	}

	collectionDeadline, extractionDeadline := splitDeadline(start, p.config.Collection.TimeoutMinutes)

	checkpoint := reliability.NewCheckpointStore(p.config.Output.CheckpointPath)
	schedulers := p.buildSchedulers()
	defer func() {
		for _, scheduler := range schedulers {
			scheduler.Close()
		}
	}()

	checker := llm.FromSpec(p.config.LLM.Provider, llm.APIKeys{
		OpenAI:    p.config.LLM.OpenAIKey,
		Gemini:    p.config.LLM.GeminiKey,
		Anthropic: p.config.LLM.AnthropicKey,
	}, p.logger)
	if checker != nil {
		defer checker.Close()
	}

	counts := map[string]int{}

	executor := query.NewExecutor(schedulers, query.NewGenerator(p.logger), checkpoint, collectionDeadline, p.logger)
	refs, err := executor.RunCollection(ctx, regions)
	if err != nil {
		return fmt.Errorf("collection checkpointing failed: %w", err)
	}
	counts["collected"] = len(refs)

	refs = p.filterByDate(refs, start)
	counts["after_date_filter"] = len(refs)

	refs = relevance.FilterByTitleSignal(refs, p.logger)
	counts["after_title_signal"] = len(refs)

	if checker != nil {
		refs = checker.FilterRefs(ctx, refs)
		counts["after_llm_filter"] = len(refs)
	}

	if limit := p.config.Extraction.MaxArticles; len(refs) > limit {
		p.logger.Warn("extraction cap reached, truncating", "refs", len(refs), "cap", limit)
		refs = refs[:limit]
	}

	extractor := extraction.NewExtractor(p.config.Extraction.MaxConcurrent, extractionDeadline, p.logger)
	defer extractor.Close()
	articles := extractor.ExtractArticles(ctx, refs)
	counts["extracted"] = len(articles)

	articles = p.tagDistricts(ctx, articles, regions, checker)

	articles = dedup.DeduplicateByURL(articles, p.logger)
	counts["after_url_dedup"] = len(articles)
	articles = dedup.DeduplicateByTitle(articles, p.logger)
	counts["after_title_dedup"] = len(articles)

	articles = scorer.Filter(articles)
	counts["final"] = len(articles)

	writer := output.NewWriter(p.config.Output.Dir, p.config.Output.ByDistrict, p.logger)
	meta := output.NewCollectionMetadata(p.sourceNames(), searchTerms(articles), counts)
	paths, err := writer.WriteCollection(articles, p.dateGroup(start), meta)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if err := checkpoint.Remove(); err != nil {
		p.logger.Warn("checkpoint cleanup failed", "error", err)
	}

	p.logger.Info("pipeline finished",
		"articles", len(articles),
		"files", len(paths),
		"elapsed", time.Since(start).Round(time.Second).String())
	return nil
}

// selectRegions loads the region table and applies the configured slug
// filter. An empty filter selects every state and union territory.
func (p *Pipeline) selectRegions() ([]refdata.Region, error) {
	if len(p.config.Collection.Regions) == 0 {
		regions, err := refdata.AllRegions()
		if err != nil {
			return nil, fmt.Errorf("load regions: %w", err)
		}
		return regions, nil
	}
	regions := make([]refdata.Region, 0, len(p.config.Collection.Regions))
	for _, slug := range p.config.Collection.Regions {
		region, err := refdata.RegionBySlug(slug)
		if err != nil {
			return nil, fmt.Errorf("load region %q: %w", slug, err)
		}
		regions = append(regions, region)
	}
	return regions, nil
}

// splitDeadline carves the configured timeout into a collection deadline
// and an extraction deadline. Zero timeout means no deadlines at all.
func splitDeadline(start time.Time, timeoutMinutes int) (collection, extraction time.Time) {
	if timeoutMinutes <= 0 {
		return time.Time{}, time.Time{}
	}
	total := time.Duration(timeoutMinutes) * time.Minute
	collection = start.Add(time.Duration(float64(total) * collectionShare))
	extraction = start.Add(total - deadlineBuffer)
	if extraction.Before(collection) {
		extraction = collection
	}
	return collection, extraction
}

func (p *Pipeline) sourceEnabled(name string) bool {
	for _, enabled := range p.config.Collection.Sources {
		if enabled == name {
			return true
		}
	}
	return false
}

func (p *Pipeline) sourceNames() []string {
	return append([]string(nil), p.config.Collection.Sources...)
}

// buildSchedulers wires one scheduler per enabled source with its
// free-tier budgets: the RSS aggregator is unlimited but paced, NewsData
// gets 200 requests a day inside a 30-per-15-minutes window, GNews gets
// 100 a day.
func (p *Pipeline) buildSchedulers() map[string]*query.Scheduler {
	threshold, timeout := query.DefaultBreaker()
	schedulers := make(map[string]*query.Scheduler)

	if p.sourceEnabled("google_news") {
		schedulers[query.HintGoogleNews] = query.NewScheduler(
			sources.NewGoogleNewsSource(p.logger),
			query.SchedulerConfig{
				RatePerSecond:    1.5,
				RateJitter:       300 * time.Millisecond,
				MaxConcurrent:    5,
				BreakerThreshold: threshold,
				BreakerTimeout:   timeout,
			}, p.logger)
	}
	if p.sourceEnabled("newsdata") {
		schedulers[query.HintNewsData] = query.NewScheduler(
			sources.NewNewsDataSource(p.config.Collection.NewsDataAPIKey, p.logger),
			query.SchedulerConfig{
				DailyLimit:       200,
				RatePerSecond:    10,
				WindowLimit:      30,
				Window:           15 * time.Minute,
				MaxConcurrent:    5,
				BreakerThreshold: threshold,
				BreakerTimeout:   timeout,
			}, p.logger)
	}
	if p.sourceEnabled("gnews") {
		schedulers[query.HintGNews] = query.NewScheduler(
			sources.NewGNewsSource(p.config.Collection.GNewsAPIKey, p.logger),
			query.SchedulerConfig{
				DailyLimit:       100,
				RatePerSecond:    1,
				MaxConcurrent:    5,
				BreakerThreshold: threshold,
				BreakerTimeout:   timeout,
			}, p.logger)
	}
	return schedulers
}

// filterByDate keeps refs published inside the configured window, either
// an explicit inclusive IST date range or a lookback from now.
func (p *Pipeline) filterByDate(refs []models.ArticleRef, now time.Time) []models.ArticleRef {
	var earliest, latest time.Time
	if p.config.Dates.HasRange() {
		earliest = p.config.Dates.StartDate
		latest = p.config.Dates.EndDate.Add(24 * time.Hour)
	} else {
		earliest = now.Add(-time.Duration(p.config.Dates.LookbackHours) * time.Hour)
	}

	kept := make([]models.ArticleRef, 0, len(refs))
	for _, ref := range refs {
		if ref.Date.Before(earliest) {
			continue
		}
		if !latest.IsZero() && !ref.Date.Before(latest) {
			continue
		}
		kept = append(kept, ref)
	}
	p.logger.Info("date filter", "before", len(refs), "after", len(kept))
	return kept
}

// dateGroup names the output directory: the range end for explicit
// ranges, today's IST date otherwise.
func (p *Pipeline) dateGroup(now time.Time) string {
	if p.config.Dates.HasRange() {
		return p.config.Dates.EndDate.Format("2006-01-02")
	}
	return now.In(models.IST).Format("2006-01-02")
}

func searchTerms(articles []models.Article) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, article := range articles {
		if !seen[article.SearchTerm] {
			seen[article.SearchTerm] = true
			terms = append(terms, article.SearchTerm)
		}
	}
	sort.Strings(terms)
	return terms
}
