package engine

import (
	"database/sql"
	"fmt"
)

// Result is one fully materialized result set. Columns keep the engine's
// order; Rows hold one map per row keyed by column name.
type Result struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// RowCount returns the number of materialized rows.
func (r *Result) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// serializeRows drains rows into a Result. Byte slices become strings so
// values stay printable and JSON-clean.
func serializeRows(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("engine: failed to get columns: %w", err)
	}

	res := &Result{Columns: columns}
	for rows.Next() {
		rowValues := make([]any, len(columns))
		rowPointers := make([]any, len(columns))
		for i := range rowValues {
			rowPointers[i] = &rowValues[i]
		}

		if err := rows.Scan(rowPointers...); err != nil {
			return nil, fmt.Errorf("engine: failed to scan row: %w", err)
		}

		rowData := make(map[string]any, len(columns))
		for i, colName := range columns {
			val := rowValues[i]
			if b, ok := val.([]byte); ok {
				rowData[colName] = string(b)
			} else {
				rowData[colName] = val
			}
		}
		res.Rows = append(res.Rows, rowData)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("engine: error iterating rows: %w", err)
	}
	return res, nil
}
