// ABOUTME: This file tests the scheduler's check order, budget, breaker, and retry behavior
// ABOUTME: A stub source counts calls so skip paths can assert that no request was issued
package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heat-collector/logger"
	"heat-collector/models"
	"heat-collector/retry"
	"heat-collector/sources"
)

// newFastRetrier keeps the rate-limit retry semantics but with
// millisecond backoff for tests.
func newFastRetrier() *retry.Retrier {
	return retry.NewRetrier(retry.RetryConfig{
		MaxAttempts:   5,
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}, sources.IsRateLimit, logger.Discard())
}

// stubSource is a scriptable Source for scheduler tests.
type stubSource struct {
	name      string
	languages map[string]bool
	responses []stubResponse
	calls     int
	mu        sync.Mutex
}

type stubResponse struct {
	refs []models.ArticleRef
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) SupportsLanguage(language string) bool {
	if s.languages == nil {
		return true
	}
	return s.languages[language]
}

func (s *stubSource) Search(ctx context.Context, queryString, language string, opts sources.SearchOptions) ([]models.ArticleRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		if len(s.responses) == 0 {
			return nil, nil
		}
		idx = len(s.responses) - 1
	}
	return s.responses[idx].refs, s.responses[idx].err
}

func (s *stubSource) Close() {}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testRef(t *testing.T, title string) models.ArticleRef {
	t.Helper()
	ref, err := models.NewArticleRef(title, "https://example.com/"+title, "NDTV",
		time.Now(), "en", "Rajasthan", "heatwave")
	require.NoError(t, err)
	return ref
}

func stateQuery() Query {
	return Query{
		QueryString: "(heatwave) Rajasthan",
		Language:    "en",
		RegionName:  "Rajasthan",
		RegionSlug:  "rajasthan",
		Level:       LevelState,
		SourceHint:  HintNewsData,
	}
}

func TestScheduler_SuccessfulExecute(t *testing.T) {
	src := &stubSource{name: "stub", responses: []stubResponse{
		{refs: []models.ArticleRef{testRef(t, "a")}},
	}}
	sched := NewScheduler(src, SchedulerConfig{}, logger.Discard())

	result := sched.Execute(context.Background(), stateQuery())
	assert.True(t, result.OK)
	assert.Empty(t, result.Reason)
	assert.Len(t, result.Articles, 1)
	assert.Equal(t, "stub", result.Source)
}

func TestScheduler_BudgetExhaustionSkipsWithoutCall(t *testing.T) {
	src := &stubSource{name: "stub"}
	sched := NewScheduler(src, SchedulerConfig{DailyLimit: 2}, logger.Discard())

	ctx := context.Background()
	sched.Execute(ctx, stateQuery())
	sched.Execute(ctx, stateQuery())
	assert.Equal(t, 2, src.callCount())

	result := sched.Execute(ctx, stateQuery())
	assert.True(t, result.OK)
	assert.Equal(t, ReasonBudgetExhausted, result.Reason)
	assert.Empty(t, result.Articles)
	// The third execute never reached the source.
	assert.Equal(t, 2, src.callCount())

	remaining, limited := sched.RemainingBudget()
	assert.True(t, limited)
	assert.Zero(t, remaining)
}

func TestScheduler_UnsupportedLanguageSkipsWithoutCall(t *testing.T) {
	src := &stubSource{name: "stub", languages: map[string]bool{"en": true}}
	sched := NewScheduler(src, SchedulerConfig{}, logger.Discard())

	q := stateQuery()
	q.Language = "or"
	result := sched.Execute(context.Background(), q)

	assert.True(t, result.OK)
	assert.Equal(t, ReasonUnsupportedLanguage, result.Reason)
	assert.Zero(t, src.callCount())
}

func TestScheduler_OpenBreakerSkipsWithoutCall(t *testing.T) {
	src := &stubSource{name: "stub", responses: []stubResponse{
		{err: errors.New("boom")},
	}}
	sched := NewScheduler(src, SchedulerConfig{BreakerThreshold: 2, BreakerTimeout: time.Minute}, logger.Discard())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		result := sched.Execute(ctx, stateQuery())
		assert.False(t, result.OK)
	}
	callsBefore := src.callCount()

	result := sched.Execute(ctx, stateQuery())
	assert.True(t, result.OK)
	assert.Equal(t, ReasonBreakerOpen, result.Reason)
	assert.Equal(t, callsBefore, src.callCount())
}

func TestScheduler_RetriesOnRateLimitSignal(t *testing.T) {
	src := &stubSource{name: "stub", responses: []stubResponse{
		{err: &sources.RateLimitError{SourceName: "stub"}},
		{err: &sources.RateLimitError{SourceName: "stub"}},
		{refs: []models.ArticleRef{testRef(t, "a")}},
	}}
	sched := NewScheduler(src, SchedulerConfig{}, logger.Discard())
	// Shrink the backoff so the test stays fast.
	sched.retrier = newFastRetrier()

	result := sched.Execute(context.Background(), stateQuery())
	assert.True(t, result.OK)
	assert.Len(t, result.Articles, 1)
	assert.Equal(t, 3, src.callCount())
}

func TestScheduler_NonRateLimitErrorNotRetried(t *testing.T) {
	src := &stubSource{name: "stub", responses: []stubResponse{
		{err: errors.New("connection reset")},
	}}
	sched := NewScheduler(src, SchedulerConfig{}, logger.Discard())

	result := sched.Execute(context.Background(), stateQuery())
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "connection reset")
	assert.Equal(t, 1, src.callCount())
}

func TestScheduler_QuotaSignalExhaustsBudget(t *testing.T) {
	src := &stubSource{name: "stub", responses: []stubResponse{
		{err: sources.ErrQuotaExhausted},
	}}
	sched := NewScheduler(src, SchedulerConfig{}, logger.Discard())

	result := sched.Execute(context.Background(), stateQuery())
	assert.True(t, result.OK)
	assert.Equal(t, ReasonBudgetExhausted, result.Reason)

	// Unlimited source becomes limited-and-empty after the 403.
	remaining, limited := sched.RemainingBudget()
	assert.True(t, limited)
	assert.Zero(t, remaining)

	// Subsequent executes skip without reaching the source.
	sched.Execute(context.Background(), stateQuery())
	assert.Equal(t, 1, src.callCount())
}

func TestScheduler_UnlimitedBudget(t *testing.T) {
	src := &stubSource{name: "stub"}
	sched := NewScheduler(src, SchedulerConfig{}, logger.Discard())

	_, limited := sched.RemainingBudget()
	assert.False(t, limited)
}
