package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skipbench/skipbench/internal/config"
	"github.com/skipbench/skipbench/internal/pruning"
)

var pruneJSON bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Count matching vs skipped files without running any query",
	Long: `Walks the partition directories of every table declared in the config
and reports how many data files the declared predicates leave matching,
against the table's total. No database is opened.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		targets, err := cfg.Targets()
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return fmt.Errorf("prune: no tables declared in config")
		}

		type tableStats struct {
			Table string `json:"table"`
			pruning.FileCount
			SkippedPct float64 `json:"skipped_pct"`
		}

		stats := make([]tableStats, 0, len(targets))
		for _, target := range targets {
			fc, err := pruning.CountMatching(cmd.Context(), target.Table, target.Predicates)
			if err != nil {
				return err
			}
			stats = append(stats, tableStats{
				Table:      target.Table.Name,
				FileCount:  fc,
				SkippedPct: fc.SkippedPercent(),
			})
		}

		if pruneJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		for _, st := range stats {
			fmt.Printf("%-24s %d/%d files, %.1f%% skipped\n", st.Table, st.Matching, st.Total, st.SkippedPct)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().BoolVar(&pruneJSON, "json", false, "Emit JSON instead of plain text")
}
