package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           "skipbench",
		Short:         "Benchmark partition pruning against an unpartitioned baseline",
		Long:          `skipbench times the same analytical query against an unpartitioned and a partitioned layout, and counts how many data files a pruning-aware reader would touch versus skip.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command. A .env file in the working directory is
// loaded first so SKIPBENCH_* overrides can live there.
func Execute(ctx context.Context) error {
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./skipbench.yaml)")
}
