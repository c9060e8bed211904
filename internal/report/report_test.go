package report

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skipbench/skipbench/internal/bench"
	"github.com/skipbench/skipbench/internal/engine"
	"github.com/skipbench/skipbench/internal/pruning"
)

func sampleSummary() *bench.Summary {
	return &bench.Summary{
		RunID:      "run-0001",
		StartedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC),
		Baseline: &bench.Result{
			Label:    "unpartitioned",
			RowCount: 2,
			Runs:     []time.Duration{2 * time.Second, 3 * time.Second, 2 * time.Second},
			Median:   2 * time.Second,
			Data: &engine.Result{
				Columns: []string{"revenue", "flag"},
				Rows: []map[string]any{
					{"revenue": 1234.5, "flag": "R"},
					{"revenue": nil, "flag": "N"},
				},
			},
		},
		Optimized: &bench.Result{
			Label:    "partitioned",
			RowCount: 2,
			Runs:     []time.Duration{time.Second, time.Second, time.Second},
			Median:   time.Second,
			Data: &engine.Result{
				Columns: []string{"revenue", "flag"},
				Rows:    []map[string]any{{"revenue": 1234.5, "flag": "R"}},
			},
		},
		Pruning: []bench.TableCount{
			{Table: "orders", FileCount: pruning.FileCount{Matching: 6, Total: 24}},
		},
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec := New(sampleSummary(), EngineInfo{Database: "bench.db", Threads: 4, Repeats: 3})

	path, err := rec.WriteJSON(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "skipbench_run-0001.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "run-0001", decoded["run_id"])
	require.EqualValues(t, 2, decoded["speedup"])
	require.EqualValues(t, 50, decoded["reduction_pct"])

	tables := decoded["tables"].([]any)
	require.Len(t, tables, 1)
	table := tables[0].(map[string]any)
	require.Equal(t, "orders", table["table"])
	require.EqualValues(t, 6, table["matching_files"])
	require.EqualValues(t, 24, table["total_files"])
	require.EqualValues(t, 75, table["skipped_pct"])
}

func TestWriteJSONInfiniteSpeedup(t *testing.T) {
	dir := t.TempDir()
	s := sampleSummary()
	s.Optimized.Median = 0
	rec := New(s, EngineInfo{Database: "bench.db"})
	require.True(t, math.IsInf(float64(rec.Speedup), 1))

	path, err := rec.WriteJSON(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "inf", decoded["speedup"])
}

func TestRatioString(t *testing.T) {
	require.Equal(t, "2.50", Ratio(2.5).String())
	require.Equal(t, "inf", Ratio(math.Inf(1)).String())
	require.Equal(t, "-inf", Ratio(math.Inf(-1)).String())
	require.Equal(t, "nan", Ratio(math.NaN()).String())
}

func TestWriteRowsCSV(t *testing.T) {
	dir := t.TempDir()
	res := &engine.Result{
		Columns: []string{"revenue", "flag", "seen"},
		Rows: []map[string]any{
			{"revenue": 1234.5, "flag": "R", "seen": time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
			{"revenue": nil, "flag": "N", "seen": int64(7)},
		},
	}

	path, err := WriteRowsCSV(dir, "rows.csv", res)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "revenue,flag,seen", lines[0])
	require.Equal(t, "1234.5,R,2024-03-01T10:00:00Z", lines[1])
	require.Equal(t, ",N,7", lines[2])
}

func TestPrint(t *testing.T) {
	rec := New(sampleSummary(), EngineInfo{Database: "bench.db", Threads: 4, Repeats: 3})

	var buf bytes.Buffer
	rec.Print(&buf)
	out := buf.String()

	require.Contains(t, out, "run:       run-0001")
	require.Contains(t, out, "unpartitioned")
	require.Contains(t, out, "partitioned")
	require.Contains(t, out, "speedup:   2.00x")
	require.Contains(t, out, "reduction: 50.0%")
	require.Contains(t, out, "6/24 files, 75.0% skipped")
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	s := sampleSummary()
	rec := New(s, EngineInfo{Database: "bench.db"})

	arts, err := WriteAll(dir, rec, s)
	require.NoError(t, err)
	require.FileExists(t, arts.JSON)
	require.FileExists(t, arts.BaselineCSV)
	require.FileExists(t, arts.OptimizedCSV)
	require.Contains(t, filepath.Base(arts.BaselineCSV), "unpartitioned")
	require.Contains(t, filepath.Base(arts.OptimizedCSV), "partitioned")
}

func TestWriteAllAggregatesFailures(t *testing.T) {
	tmp := t.TempDir()
	blocked := filepath.Join(tmp, "not-a-dir")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0644))

	s := sampleSummary()
	rec := New(s, EngineInfo{Database: "bench.db"})

	_, err := WriteAll(blocked, rec, s)
	require.Error(t, err)
	require.Contains(t, err.Error(), "report:")
}

func TestSanitizeName(t *testing.T) {
	require.Equal(t, "with_spaces_and_or", sanitizeName("with spaces and/or"))
	require.Equal(t, "plain-label_1", sanitizeName("plain-label_1"))
}
