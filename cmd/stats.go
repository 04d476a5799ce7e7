package cmd

import (
	"github.com/bimmerbailey/logfreq/internal/analyzer"
	"github.com/bimmerbailey/logfreq/internal/config"
	"github.com/bimmerbailey/logfreq/internal/output"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] [file...]",
	Short: "Summarize a clustering run",
	Long: `Cluster the input and print a summary: how many lines were read, ingested
and skipped, how many clusters and slices resulted, the most frequent
clusters and the per-slice totals with their change from the previous slice.

The csv and report formats print the text summary.

Examples:
  logfreq stats /var/log/app.log
  logfreq stats -f table --top 20 --mask /var/log/app.log
  logfreq stats -f json --since "2024-01-01" app.log`,
	Args: cobra.ArbitraryArgs,
	RunE: runStats,
}

func init() {
	addStatsFlags(statsCmd)
	rootCmd.AddCommand(statsCmd)
}

func addStatsFlags(cmd *cobra.Command) {
	cmd.Flags().Int("top", analyzer.DefaultTopN, "number of top clusters to show")
	cmd.Flags().String("since", "", "only include logs since timestamp")
	cmd.Flags().String("until", "", "only include logs until timestamp")
	cmd.Flags().Bool("progress", false, "show a progress bar on stderr while reading files")
}

func runStats(cmd *cobra.Command, args []string) error {
	topN, _ := cmd.Flags().GetInt("top")
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")
	progress, _ := cmd.Flags().GetBool("progress")

	inputs, err := config.ExpandInputs(args)
	if err != nil {
		return err
	}

	cfg, _, eng, err := loadEngine(sinceStr, untilStr)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	if format == output.FormatCSV || format == output.FormatReport {
		format = output.FormatText
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	if err := ingestInputs(ctx, eng, inputs, cmd.InOrStdin(), progress); err != nil {
		return err
	}

	stats := analyzer.New(topN).ComputeStats(eng)
	return output.New(cmd.OutOrStdout(), format).WriteStats(stats)
}
