package pruning

import (
	"context"

	"github.com/skipbench/skipbench/internal/layout"
)

// FileCount is the immutable outcome of counting one table against one
// predicate set.
type FileCount struct {
	Matching int `json:"matching"`
	Total    int `json:"total"`
}

// SkippedFraction is the share of files a pruning-aware reader would not
// open: 1 - matching/total, or 0 for an empty table. Never negative.
func (fc FileCount) SkippedFraction() float64 {
	if fc.Total == 0 {
		return 0
	}
	f := 1 - float64(fc.Matching)/float64(fc.Total)
	if f < 0 {
		return 0
	}
	return f
}

// SkippedPercent is SkippedFraction scaled to percent.
func (fc FileCount) SkippedPercent() float64 {
	return fc.SkippedFraction() * 100
}

// CountMatching walks the table's partition directories and counts the data
// files a pruning-aware reader would open for the predicate set, alongside
// the table's total file count. Constrained keys contribute their candidate
// values; unconstrained keys enumerate every value observed on disk at that
// level. No file contents are read and no query runs.
//
// Matching assumes data files sit at full partition depth: a file stored at
// an intermediate level counts toward Total but never toward Matching, so an
// empty predicate set yields Matching == Total only for well-formed trees.
//
// The count is exact at directory granularity but is an upper bound on what
// an engine actually skips: pruning from per-file statistics inside a
// partition is invisible to a directory walk.
func CountMatching(ctx context.Context, t layout.Table, s Set) (FileCount, error) {
	if err := t.Validate(); err != nil {
		return FileCount{}, err
	}
	if err := s.Validate(t); err != nil {
		return FileCount{}, err
	}
	if err := ctx.Err(); err != nil {
		return FileCount{}, err
	}

	total, err := t.TotalFileCount()
	if err != nil {
		return FileCount{}, err
	}

	matching, err := countLevel(ctx, t, s, make([]string, 0, len(t.Keys)))
	if err != nil {
		return FileCount{}, err
	}

	return FileCount{Matching: matching, Total: total}, nil
}

// countLevel descends one partition level per call, accumulating the value
// path, and sums leaf file counts over every candidate combination. Missing
// candidate directories contribute zero at the leaf.
func countLevel(ctx context.Context, t layout.Table, s Set, path []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	depth := len(path)
	if depth == len(t.Keys) {
		return t.FileCountFor(path)
	}

	key := t.Keys[depth]
	var candidates []string
	if p, ok := s.ByKey(key.Name); ok {
		cs, err := p.Candidates(key)
		if err != nil {
			return 0, err
		}
		candidates = cs
	} else {
		vs, err := t.PartitionValues(path)
		if err != nil {
			return 0, err
		}
		candidates = vs
	}

	count := 0
	for _, v := range candidates {
		sub, err := countLevel(ctx, t, s, append(path, v))
		if err != nil {
			return 0, err
		}
		count += sub
	}
	return count, nil
}
