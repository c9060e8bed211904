package bench

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/skipbench/skipbench/internal/engine"
	"github.com/skipbench/skipbench/internal/metrics"
)

// Failure kinds for a timed measurement.
var (
	// ErrQueryFailed marks an engine failure during a timed repetition.
	ErrQueryFailed = errors.New("query execution failed")

	// ErrQueryTimeout marks a repetition that exceeded the configured
	// per-repetition bound.
	ErrQueryTimeout = errors.New("query timed out")
)

// QueryExecutor runs one opaque query and materializes its result.
// *engine.DB satisfies it; tests substitute scripted executors.
type QueryExecutor interface {
	Query(ctx context.Context, query string) (*engine.Result, error)
}

// Runner times repeated executions of queries against one engine session.
type Runner struct {
	exec    QueryExecutor
	timeout time.Duration // per repetition; 0 disables the bound
}

// NewRunner creates a runner around the given executor.
func NewRunner(exec QueryExecutor, timeout time.Duration) *Runner {
	return &Runner{exec: exec, timeout: timeout}
}

// Result is one measurement: the per-repetition wall-clock sequence in
// execution order, its median, and the result set kept from the last
// repetition. Immutable once produced.
type Result struct {
	Label    string
	RowCount int
	Runs     []time.Duration
	Median   time.Duration
	Data     *engine.Result
}

// RunRepeated executes the query repeats times, strictly one at a time so
// repetitions never contend with each other, and reduces the wall-clock
// sequence to its median. A failed repetition aborts the whole measurement
// and discards the timings already collected; there is no retry.
func (r *Runner) RunRepeated(ctx context.Context, label, query string, repeats int) (*Result, error) {
	if repeats < 1 {
		return nil, fmt.Errorf("bench: measurement %q needs at least one repetition, got %d", label, repeats)
	}

	runs := make([]time.Duration, 0, repeats)
	var last *engine.Result
	for i := 0; i < repeats; i++ {
		res, elapsed, err := r.runOnce(ctx, query)
		if err != nil {
			metrics.QueryFailures.Inc()
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s repetition %d/%d exceeded %v", ErrQueryTimeout, label, i+1, repeats, r.timeout)
			}
			return nil, fmt.Errorf("%w: %s repetition %d/%d: %w", ErrQueryFailed, label, i+1, repeats, err)
		}

		metrics.QueriesExecuted.WithLabelValues(label).Inc()
		runs = append(runs, elapsed)
		last = res
		log.Printf("bench: %s run %d/%d took %v (%d rows)", label, i+1, repeats, elapsed, res.RowCount())
	}

	return &Result{
		Label:    label,
		RowCount: last.RowCount(),
		Runs:     runs,
		Median:   Median(runs),
		Data:     last,
	}, nil
}

// runOnce times a single repetition, bounded by the per-repetition timeout
// when one is configured. The measured window covers engine dispatch
// through full materialization of the result.
func (r *Runner) runOnce(ctx context.Context, query string) (*engine.Result, time.Duration, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := r.exec.Query(ctx, query)
	return res, time.Since(start), err
}
