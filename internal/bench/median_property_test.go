package bench

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_Median checks that the reported median is always drawn from
// the sample and splits it: for n observations, at least n/2+1 sit at or
// below it and at least n-n/2 sit at or above it.
func TestProperty_Median(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("median is a sample element that splits the sample", prop.ForAll(
		func(raw []int64) bool {
			if len(raw) == 0 {
				return Median(nil) == 0
			}

			runs := make([]time.Duration, len(raw))
			for i, v := range raw {
				runs[i] = time.Duration(v)
			}
			m := Median(runs)

			member := false
			atOrBelow, atOrAbove := 0, 0
			for _, r := range runs {
				if r == m {
					member = true
				}
				if r <= m {
					atOrBelow++
				}
				if r >= m {
					atOrAbove++
				}
			}
			n := len(runs)
			return member && atOrBelow >= n/2+1 && atOrAbove >= n-n/2
		},
		gen.SliceOf(gen.Int64Range(0, int64(time.Hour))),
	))

	properties.TestingRun(t)
}
