package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/skipbench/skipbench/internal/bench"
	"github.com/skipbench/skipbench/internal/engine"
	"github.com/skipbench/skipbench/internal/utils"
)

// SystemInfo captures the host facts that contextualize a benchmark run.
type SystemInfo struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUs      int    `json:"cpus"`
	GoVersion string `json:"go_version"`
	Hostname  string `json:"hostname"`
}

// CollectSystemInfo snapshots the current host.
func CollectSystemInfo() SystemInfo {
	hostname, _ := os.Hostname()
	return SystemInfo{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		GoVersion: runtime.Version(),
		Hostname:  hostname,
	}
}

// EngineInfo records how the engine session and the measurement were
// configured.
type EngineInfo struct {
	Database string `json:"database"`
	Threads  int    `json:"threads"`
	Repeats  int    `json:"repeats"`
	Timeout  string `json:"query_timeout,omitempty"`
}

// Measurement is the flat form of one timed side, with the raw
// per-repetition sequence preserved for inspection.
type Measurement struct {
	Label         string    `json:"label"`
	Rows          int       `json:"rows"`
	MedianSeconds float64   `json:"median_seconds"`
	RunsSeconds   []float64 `json:"runs_seconds"`
}

// FileStats is the flat pruning outcome for one table.
type FileStats struct {
	Table      string  `json:"table"`
	Matching   int     `json:"matching_files"`
	Total      int     `json:"total_files"`
	SkippedPct float64 `json:"skipped_pct"`
}

// Ratio is a float64 that survives JSON encoding when infinite:
// encoding/json rejects infinities, so those serialize as the strings
// "inf" and "-inf", and NaN as "nan".
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	switch {
	case math.IsInf(f, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-inf"`), nil
	case math.IsNaN(f):
		return []byte(`"nan"`), nil
	}
	return json.Marshal(f)
}

func (r Ratio) String() string {
	f := float64(r)
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// Record is the flat, serializable outcome of one comparison run. It
// carries no behavior beyond encoding and printing.
type Record struct {
	RunID        string      `json:"run_id"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   time.Time   `json:"finished_at"`
	System       SystemInfo  `json:"system"`
	Engine       EngineInfo  `json:"engine"`
	Baseline     Measurement `json:"baseline"`
	Optimized    Measurement `json:"optimized"`
	Speedup      Ratio       `json:"speedup"`
	ReductionPct float64     `json:"reduction_pct"`
	Tables       []FileStats `json:"tables,omitempty"`
}

// New flattens a summary into a Record.
func New(s *bench.Summary, eng EngineInfo) *Record {
	rec := &Record{
		RunID:        s.RunID,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		System:       CollectSystemInfo(),
		Engine:       eng,
		Baseline:     flatten(s.Baseline),
		Optimized:    flatten(s.Optimized),
		Speedup:      Ratio(s.Speedup()),
		ReductionPct: s.ReductionPercent(),
	}
	for _, tc := range s.Pruning {
		rec.Tables = append(rec.Tables, FileStats{
			Table:      tc.Table,
			Matching:   tc.Matching,
			Total:      tc.Total,
			SkippedPct: tc.SkippedPercent(),
		})
	}
	return rec
}

func flatten(r *bench.Result) Measurement {
	m := Measurement{Label: r.Label, Rows: r.RowCount, MedianSeconds: r.Median.Seconds()}
	for _, d := range r.Runs {
		m.RunsSeconds = append(m.RunsSeconds, d.Seconds())
	}
	return m
}

// WriteJSON writes the record as indented JSON under dir and returns the
// file path.
func (r *Record) WriteJSON(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("report: failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("skipbench_%s.json", r.RunID))
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: failed to encode record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("report: failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteRowsCSV writes a representative result set as CSV under dir and
// returns the file path. Column order follows the engine's result.
func WriteRowsCSV(dir, name string, res *engine.Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("report: failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(res.Columns); err != nil {
		return "", fmt.Errorf("report: failed to write header: %w", err)
	}
	for _, row := range res.Rows {
		record := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			record[i] = formatValue(row[col])
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("report: failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("report: failed to flush %s: %w", path, err)
	}
	return path, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Print renders the console summary block.
func (r *Record) Print(w io.Writer) {
	fmt.Fprintf(w, "=== benchmark summary ===\n")
	fmt.Fprintf(w, "run:       %s\n", r.RunID)
	fmt.Fprintf(w, "baseline:  %-16s median %.3fs over %d runs (%d rows)\n",
		r.Baseline.Label, r.Baseline.MedianSeconds, len(r.Baseline.RunsSeconds), r.Baseline.Rows)
	fmt.Fprintf(w, "optimized: %-16s median %.3fs over %d runs (%d rows)\n",
		r.Optimized.Label, r.Optimized.MedianSeconds, len(r.Optimized.RunsSeconds), r.Optimized.Rows)
	fmt.Fprintf(w, "speedup:   %sx\n", r.Speedup)
	fmt.Fprintf(w, "reduction: %.1f%%\n", r.ReductionPct)
	if len(r.Tables) > 0 {
		fmt.Fprintf(w, "pruning:\n")
		for _, fs := range r.Tables {
			fmt.Fprintf(w, "  %-20s %d/%d files, %.1f%% skipped\n", fs.Table, fs.Matching, fs.Total, fs.SkippedPct)
		}
	}
}

// Artifacts lists everything one run left on disk.
type Artifacts struct {
	JSON         string
	BaselineCSV  string
	OptimizedCSV string
}

// WriteAll writes the JSON record plus both result CSVs, collecting
// partial failures instead of stopping at the first.
func WriteAll(dir string, rec *Record, s *bench.Summary) (Artifacts, error) {
	var arts Artifacts
	merr := &utils.MultiError{}

	path, err := rec.WriteJSON(dir)
	merr.Add(err)
	arts.JSON = path

	if s.Baseline != nil && s.Baseline.Data != nil {
		name := fmt.Sprintf("skipbench_%s_%s.csv", rec.RunID, sanitizeName(s.Baseline.Label))
		path, err = WriteRowsCSV(dir, name, s.Baseline.Data)
		merr.Add(err)
		arts.BaselineCSV = path
	}
	if s.Optimized != nil && s.Optimized.Data != nil {
		name := fmt.Sprintf("skipbench_%s_%s.csv", rec.RunID, sanitizeName(s.Optimized.Label))
		path, err = WriteRowsCSV(dir, name, s.Optimized.Data)
		merr.Add(err)
		arts.OptimizedCSV = path
	}

	return arts, merr.Err()
}

// sanitizeName keeps labels usable as file name parts.
func sanitizeName(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, label)
}
