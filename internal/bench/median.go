package bench

import (
	"sort"
	"time"
)

// Median reduces a timing sequence to its robust middle value: the element
// at index len/2 of a sorted copy, which for even lengths is the upper
// median. The input is never mutated. An empty sequence reduces to zero.
func Median(runs []time.Duration) time.Duration {
	if len(runs) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(runs))
	copy(sorted, runs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}
