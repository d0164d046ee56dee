// ABOUTME: This file implements the per-source scheduler: budget, limiters, breaker, retry
// ABOUTME: Execute never fails; every abnormal path becomes a QueryResult with a reason
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"heat-collector/models"
	"heat-collector/ratelimit"
	"heat-collector/reliability"
	"heat-collector/retry"
	"heat-collector/sources"
)

// Skip reasons carried by OK results.
const (
	ReasonBreakerOpen         = "circuit_breaker_open"
	ReasonBudgetExhausted     = "budget_exhausted"
	ReasonUnsupportedLanguage = "unsupported_language"
)

// SchedulerConfig tunes one source's protective wrapping. Zero values
// disable the corresponding mechanism.
type SchedulerConfig struct {
	DailyLimit       int
	RatePerSecond    float64
	RateJitter       time.Duration
	WindowLimit      int
	Window           time.Duration
	MaxConcurrent    int
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

// DefaultBreaker returns the standard breaker settings: open after 5
// consecutive failures, probe again after 60 seconds.
func DefaultBreaker() (int, time.Duration) {
	return 5, 60 * time.Second
}

// Scheduler wraps a source with its daily budget, rate limiters, circuit
// breaker, and the 429 retry policy. Each source owns exactly one
// scheduler; state is never shared between them.
type Scheduler struct {
	source    sources.Source
	perSecond *ratelimit.PerSecondLimiter
	window    *ratelimit.WindowLimiter
	breaker   *reliability.CircuitBreaker
	retrier   *retry.Retrier
	sem       chan struct{}
	logger    *slog.Logger

	dailyLimit int
	requests   int
	exhausted  bool
	mu         sync.Mutex
}

func NewScheduler(source sources.Source, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		source:     source,
		dailyLimit: cfg.DailyLimit,
		logger:     logger.With("source", source.Name()),
	}
	if cfg.RatePerSecond > 0 {
		s.perSecond = ratelimit.NewPerSecondLimiter(cfg.RatePerSecond, cfg.RateJitter)
	}
	if cfg.WindowLimit > 0 {
		s.window = ratelimit.NewWindowLimiter(cfg.WindowLimit, cfg.Window)
	}
	if cfg.BreakerThreshold > 0 {
		s.breaker = reliability.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout)
	}
	if cfg.MaxConcurrent > 0 {
		s.sem = make(chan struct{}, cfg.MaxConcurrent)
	}
	s.retrier = retry.NewRetrier(retry.RateLimitPolicy(), sources.IsRateLimit, s.logger)
	return s
}

func (s *Scheduler) Name() string { return s.source.Name() }

// RemainingBudget returns how many requests remain today. The second
// return is false for unlimited sources.
func (s *Scheduler) RemainingBudget() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exhausted {
		return 0, true
	}
	if s.dailyLimit <= 0 {
		return 0, false
	}
	remaining := s.dailyLimit - s.requests
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Execute runs one query through every protective layer. It never fails:
// skips and errors alike come back as QueryResults.
func (s *Scheduler) Execute(ctx context.Context, q Query) (result QueryResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler panic recovered", "panic", r, "query", q.QueryString)
			result = s.failure(q, fmt.Sprintf("panic: %v", r))
		}
	}()

	if s.breaker != nil && s.breaker.IsOpen() {
		return s.skip(q, ReasonBreakerOpen)
	}
	if s.budgetExhausted() {
		return s.skip(q, ReasonBudgetExhausted)
	}
	if !s.source.SupportsLanguage(q.Language) {
		return s.skip(q, ReasonUnsupportedLanguage)
	}

	if s.sem != nil {
		select {
		case s.sem <- struct{}{}:
			defer func() { <-s.sem }()
		case <-ctx.Done():
			return s.failure(q, "cancelled: "+ctx.Err().Error())
		}
	}
	if s.perSecond != nil {
		if err := s.perSecond.Wait(ctx); err != nil {
			return s.failure(q, "cancelled: "+err.Error())
		}
	}
	if s.window != nil {
		if err := s.window.Wait(ctx); err != nil {
			return s.failure(q, "cancelled: "+err.Error())
		}
	}

	var articles []models.ArticleRef
	err := s.retrier.Do(ctx, func() error {
		var searchErr error
		articles, searchErr = s.source.Search(ctx, q.QueryString, q.Language, sources.SearchOptions{
			Country:    "IN",
			State:      q.RegionName,
			SearchTerm: q.QueryString,
		})
		return searchErr
	})
	s.countRequest()

	switch {
	case err == nil:
		if s.breaker != nil {
			s.breaker.RecordSuccess()
		}
		return QueryResult{Query: q, Source: s.Name(), Articles: articles, OK: true}
	case isQuotaExhausted(err):
		s.markExhausted()
		s.logger.Warn("source quota exhausted", "query", q.QueryString)
		return s.skip(q, ReasonBudgetExhausted)
	default:
		if s.breaker != nil {
			s.breaker.RecordFailure()
		}
		s.logger.Warn("query failed", "query", q.QueryString, "error", err)
		return s.failure(q, err.Error())
	}
}

// Close releases the underlying source's connections.
func (s *Scheduler) Close() {
	s.source.Close()
}

func (s *Scheduler) budgetExhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exhausted {
		return true
	}
	return s.dailyLimit > 0 && s.requests >= s.dailyLimit
}

func (s *Scheduler) countRequest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
}

func (s *Scheduler) markExhausted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exhausted = true
}

func (s *Scheduler) skip(q Query, reason string) QueryResult {
	return QueryResult{Query: q, Source: s.Name(), OK: true, Reason: reason}
}

func (s *Scheduler) failure(q Query, reason string) QueryResult {
	return QueryResult{Query: q, Source: s.Name(), OK: false, Reason: reason}
}

func isQuotaExhausted(err error) bool {
	return errors.Is(err, sources.ErrQuotaExhausted)
}
