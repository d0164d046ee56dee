// ABOUTME: This file tests circuit breaker state transitions
// ABOUTME: Covers open-on-threshold, half-open probing, and recovery
package reliability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	assert.False(t, cb.IsOpen())
	cb.RecordFailure()
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())
	assert.Equal(t, StateClosed, cb.State())

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	assert.Zero(t, cb.Failures())

	// Needs a full new streak to open.
	cb.RecordFailure()
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(1, 50*time.Millisecond)

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())

	time.Sleep(80 * time.Millisecond)

	// Timeout elapsed: the breaker admits a probe.
	assert.False(t, cb.IsOpen())
	assert.Equal(t, StateHalfOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenProbeOutcome(t *testing.T) {
	tests := map[string]struct {
		probeSucceeds bool
		wantState     CircuitBreakerState
	}{
		"successful probe closes": {probeSucceeds: true, wantState: StateClosed},
		"failed probe reopens":    {probeSucceeds: false, wantState: StateOpen},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cb := NewCircuitBreaker(1, 10*time.Millisecond)
			cb.RecordFailure()
			time.Sleep(30 * time.Millisecond)
			assert.False(t, cb.IsOpen())

			if tc.probeSucceeds {
				cb.RecordSuccess()
			} else {
				cb.RecordFailure()
			}
			assert.Equal(t, tc.wantState, cb.State())
		})
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)
	cb.RecordFailure()
	assert.True(t, cb.IsOpen())

	cb.Reset()
	assert.False(t, cb.IsOpen())
	assert.Zero(t, cb.Failures())
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
