package bench

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skipbench/skipbench/internal/engine"
)

func TestEquivalentIgnoresRowOrder(t *testing.T) {
	a := &engine.Result{
		Columns: []string{"flag", "revenue"},
		Rows: []map[string]any{
			{"flag": "R", "revenue": 10.5},
			{"flag": "N", "revenue": 3.25},
		},
	}
	b := &engine.Result{
		Columns: []string{"flag", "revenue"},
		Rows: []map[string]any{
			{"flag": "N", "revenue": 3.25},
			{"flag": "R", "revenue": 10.5},
		},
	}

	require.NoError(t, Equivalent(a, b))
}

func TestEquivalentMismatches(t *testing.T) {
	base := &engine.Result{Columns: []string{"n"}, Rows: []map[string]any{{"n": 1}, {"n": 1}}}

	testCases := []struct {
		name  string
		other *engine.Result
	}{
		{
			name:  "row count differs",
			other: &engine.Result{Columns: []string{"n"}, Rows: []map[string]any{{"n": 1}}},
		},
		{
			name:  "columns differ",
			other: &engine.Result{Columns: []string{"m"}, Rows: []map[string]any{{"m": 1}, {"m": 1}}},
		},
		{
			name:  "values differ",
			other: &engine.Result{Columns: []string{"n"}, Rows: []map[string]any{{"n": 1}, {"n": 2}}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, Equivalent(base, tc.other))
		})
	}
}
