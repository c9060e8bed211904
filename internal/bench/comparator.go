package bench

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/skipbench/skipbench/internal/layout"
	"github.com/skipbench/skipbench/internal/metrics"
	"github.com/skipbench/skipbench/internal/pruning"
)

// QuerySpec pairs an opaque SQL text with a human label.
type QuerySpec struct {
	Label string
	SQL   string
}

// Target is one pruning target: a physical table layout plus the predicate
// set the benchmark query implies for it.
type Target struct {
	Table      layout.Table
	Predicates pruning.Set
}

// TableCount is the pruning outcome for one target.
type TableCount struct {
	Table string
	pruning.FileCount
}

// Summary merges the two measurements and the pruning counts of one
// comparison run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Baseline   *Result
	Optimized  *Result
	Pruning    []TableCount
}

// Speedup reports how many times faster opt answered than base. Positive
// infinity when opt is zero; never a crash.
func Speedup(base, opt time.Duration) float64 {
	if opt == 0 {
		return math.Inf(1)
	}
	return float64(base) / float64(opt)
}

// Reduction reports the latency saving of opt against base in percent.
// Zero when base is zero.
func Reduction(base, opt time.Duration) float64 {
	if base == 0 {
		return 0
	}
	return (1 - float64(opt)/float64(base)) * 100
}

// Speedup compares the two median latencies of this summary.
func (s *Summary) Speedup() float64 {
	return Speedup(s.Baseline.Median, s.Optimized.Median)
}

// ReductionPercent is the median latency saving of this summary in percent.
func (s *Summary) ReductionPercent() float64 {
	return Reduction(s.Baseline.Median, s.Optimized.Median)
}

// Comparator owns one comparison run: two measurements through the timed
// runner, then file counting per pruning target.
type Comparator struct {
	runner *Runner
}

// NewComparator builds a comparator around one engine session. timeout
// bounds each query repetition when positive.
func NewComparator(exec QueryExecutor, timeout time.Duration) *Comparator {
	return &Comparator{runner: NewRunner(exec, timeout)}
}

// Compare measures the baseline query to completion, then the optimized
// one. The order is deterministic baseline-first within a run; callers who
// want to cancel cache-order effects alternate across invocations. File
// counts per target follow, computed concurrently since targets are
// independent and no query is timed while counting; results keep
// declaration order. Any failure cancels the remaining counts and aborts
// the comparison with no summary.
func (c *Comparator) Compare(ctx context.Context, baseline, optimized QuerySpec, repeats int, targets []Target) (*Summary, error) {
	started := time.Now()

	base, err := c.runner.RunRepeated(ctx, baseline.Label, baseline.SQL, repeats)
	if err != nil {
		return nil, err
	}
	opt, err := c.runner.RunRepeated(ctx, optimized.Label, optimized.SQL, repeats)
	if err != nil {
		return nil, err
	}

	counts := make([]TableCount, len(targets))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, target := range targets {
		eg.Go(func() error {
			fc, err := pruning.CountMatching(egCtx, target.Table, target.Predicates)
			if err != nil {
				return err
			}
			counts[i] = TableCount{Table: target.Table.Name, FileCount: fc}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, tc := range counts {
		metrics.PartitionFilesMatched.Add(float64(tc.Matching))
		metrics.PartitionFilesTotal.Add(float64(tc.Total))
	}
	metrics.ComparisonsCompleted.Inc()

	summary := &Summary{
		RunID:      uuid.NewString(),
		StartedAt:  started,
		FinishedAt: time.Now(),
		Baseline:   base,
		Optimized:  opt,
		Pruning:    counts,
	}
	log.Printf("bench: comparison %s done: %s median %v, %s median %v, speedup %.2fx",
		summary.RunID, base.Label, base.Median, opt.Label, opt.Median, summary.Speedup())
	return summary, nil
}
