// ABOUTME: This file provides a generic bounded-concurrency stage runner
// ABOUTME: Output order always mirrors input order, failures included
package orchestrator

import (
	"context"
	"sync"
)

// Result pairs a stage output with the error that produced it and the
// index of the input it came from.
type Result[Out any] struct {
	Value Out
	Err   error
	Index int
}

// Stage describes one concurrent processing step. Process is called once
// per input from at most Concurrency goroutines.
type Stage[In, Out any] struct {
	Name        string
	Concurrency int
	Process     func(ctx context.Context, input In) (Out, error)
}

// RunStage runs the stage over every input and returns one Result per
// input, in input order. A cancelled context shows up as a Result with
// the context error rather than a shorter slice, so callers can still
// line results up with inputs.
func RunStage[In, Out any](ctx context.Context, stage Stage[In, Out], inputs []In) []Result[Out] {
	if len(inputs) == 0 {
		return nil
	}

	workers := stage.Concurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	results := make([]Result[Out], len(inputs))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				if err := ctx.Err(); err != nil {
					results[idx] = Result[Out]{Err: err, Index: idx}
					continue
				}
				out, err := stage.Process(ctx, inputs[idx])
				results[idx] = Result[Out]{Value: out, Err: err, Index: idx}
			}
		}()
	}

	for i := range inputs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return results
}
