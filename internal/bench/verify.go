package bench

import (
	"fmt"

	"github.com/skipbench/skipbench/internal/engine"
)

// Equivalent checks that two result sets agree ignoring row order: same
// row count, same columns, same multiset of rows. The two compared queries
// are supposed to be logically equivalent, so a mismatch here is a semantic
// bug in the benchmark definition, not a performance difference.
func Equivalent(a, b *engine.Result) error {
	if a.RowCount() != b.RowCount() {
		return fmt.Errorf("bench: row counts differ: %d vs %d", a.RowCount(), b.RowCount())
	}

	if len(a.Columns) != len(b.Columns) {
		return fmt.Errorf("bench: column counts differ: %v vs %v", a.Columns, b.Columns)
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return fmt.Errorf("bench: columns differ: %v vs %v", a.Columns, b.Columns)
		}
	}

	counts := make(map[string]int, a.RowCount())
	for _, row := range a.Rows {
		counts[fingerprint(row)]++
	}
	for _, row := range b.Rows {
		fp := fingerprint(row)
		counts[fp]--
		if counts[fp] < 0 {
			return fmt.Errorf("bench: result sets differ on row %s", fp)
		}
	}
	return nil
}

// fingerprint renders a row deterministically: fmt prints map keys in
// sorted order, so equal rows always collapse to the same string.
func fingerprint(row map[string]any) string {
	return fmt.Sprintf("%v", row)
}
