package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/skipbench/skipbench/internal/api"
	"github.com/skipbench/skipbench/internal/bench"
	"github.com/skipbench/skipbench/internal/config"
	"github.com/skipbench/skipbench/internal/engine"
	"github.com/skipbench/skipbench/internal/metrics"
	"github.com/skipbench/skipbench/internal/report"
)

var (
	repeatsOverride int
	outputOverride  string
	listenOverride  string
	verifyOverride  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark comparison",
	Long: `Times the baseline query and the optimized query back to back, each
repeated the configured number of times, and reports the median of each
side. Partitioned table roots declared in the config are walked to count
how many data files the optimized query's predicates leave matching.

Results are written as JSON plus one CSV per query side.`,
	Example: `  # Run with defaults (uses skipbench.yaml)
  skipbench run

  # Ten repetitions, results under ./out, metrics on :8080
  skipbench run --repeats 10 -o ./out --listen :8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if repeatsOverride > 0 {
			cfg.Repeats = repeatsOverride
		}
		if outputOverride != "" {
			cfg.OutputDir = outputOverride
		}
		if listenOverride != "" {
			cfg.Listen = listenOverride
		}
		if verifyOverride {
			cfg.Verify = true
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.ValidateQueries(); err != nil {
			return err
		}

		return runBenchmark(cmd.Context(), cfg)
	},
}

func runBenchmark(ctx context.Context, cfg *config.Config) error {
	metrics.Init()

	targets, err := cfg.Targets()
	if err != nil {
		return err
	}

	db, err := engine.Open(engine.Config{
		Path:          cfg.Database,
		Threads:       cfg.Threads,
		ProfileOutput: cfg.ProfileOutput,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	var srv *api.Server
	if cfg.Listen != "" {
		srv = api.New(cfg.Listen)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("run: api server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("run: api server shutdown error: %v", err)
			}
		}()
	}

	comp := bench.NewComparator(db, cfg.QueryTimeout.Std())
	summary, err := comp.Compare(ctx,
		bench.QuerySpec{Label: cfg.Baseline.Label, SQL: cfg.Baseline.SQL},
		bench.QuerySpec{Label: cfg.Optimized.Label, SQL: cfg.Optimized.SQL},
		cfg.Repeats, targets)
	if err != nil {
		return err
	}

	if cfg.Verify {
		if err := bench.Equivalent(summary.Baseline.Data, summary.Optimized.Data); err != nil {
			return fmt.Errorf("run: %s and %s returned different results, timings are not comparable: %w",
				summary.Baseline.Label, summary.Optimized.Label, err)
		}
		log.Printf("run: verified %s and %s return the same rows", summary.Baseline.Label, summary.Optimized.Label)
	}

	rec := report.New(summary, report.EngineInfo{
		Database: cfg.Database,
		Threads:  cfg.Threads,
		Repeats:  cfg.Repeats,
		Timeout:  cfg.QueryTimeout.Std().String(),
	})
	if srv != nil {
		srv.Publish(rec)
	}

	arts, err := report.WriteAll(cfg.OutputDir, rec, summary)
	if err != nil {
		return fmt.Errorf("run: failed to write results: %w", err)
	}
	log.Printf("run: wrote %s", arts.JSON)

	rec.Print(os.Stdout)
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&repeatsOverride, "repeats", 0, "Repetitions per query (overrides config)")
	runCmd.Flags().StringVarP(&outputOverride, "output-dir", "o", "", "Output directory for results (JSON/CSV)")
	runCmd.Flags().StringVar(&listenOverride, "listen", "", "Serve /metrics, /summary and pprof on this address during the run")
	runCmd.Flags().BoolVar(&verifyOverride, "verify", false, "Fail unless both queries return the same rows")
}
