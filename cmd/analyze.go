package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bimmerbailey/logfreq/internal/config"
	"github.com/bimmerbailey/logfreq/internal/engine"
	"github.com/bimmerbailey/logfreq/internal/output"
	"github.com/bimmerbailey/logfreq/internal/tail"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] [file...]",
	Short: "Count message clusters per time slice",
	Long: `Read log lines from files (or stdin), cluster their messages and count
each cluster per time slice.

The csv format prints one column per cluster and one row per slice. The
report format prints only the latest slice, listing clusters seen at least
--min times. json and yaml print the full catalog and every slice.

Examples:
  logfreq analyze /var/log/app.log > freq.csv
  logfreq analyze -f report -s 5 --min 3 "logs/*.log"
  tail -n 100000 app.log | logfreq analyze -f json -p 0.9
  logfreq analyze --follow -f report /var/log/app.log`,
	Args: cobra.ArbitraryArgs,
	RunE: runAnalyze,
}

func init() {
	addAnalyzeFlags(analyzeCmd)

	_ = viper.BindPFlag("min_count", analyzeCmd.Flags().Lookup("min"))
	_ = viper.BindPFlag("sort", analyzeCmd.Flags().Lookup("sort"))

	rootCmd.AddCommand(analyzeCmd)
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("min", "m", config.DefaultMinCount, "report: only list clusters seen at least this many times in the latest slice")
	cmd.Flags().String("sort", config.DefaultSort, "report: order clusters by text (descending), index or count")
	cmd.Flags().Bool("follow", false, "keep reading lines appended to a single file until interrupted, then render")
	cmd.Flags().Bool("follow-rotate", false, "with --follow, continue when the file is rotated")
	cmd.Flags().Bool("progress", false, "show a progress bar on stderr while reading files")
	cmd.Flags().String("since", "", "ignore lines before this time (RFC3339, date in --timezone or relative like '1h')")
	cmd.Flags().String("until", "", "ignore lines after this time (RFC3339, date in --timezone or relative like '1h')")
	cmd.Flags().Bool("no-color", false, "disable colored report output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	follow, _ := cmd.Flags().GetBool("follow")
	followRotate, _ := cmd.Flags().GetBool("follow-rotate")
	progress, _ := cmd.Flags().GetBool("progress")
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")
	noColor, _ := cmd.Flags().GetBool("no-color")

	inputs, err := config.ExpandInputs(args)
	if err != nil {
		return err
	}
	if follow && (len(inputs) != 1 || inputs[0] == config.StdinPath) {
		return fmt.Errorf("--follow needs exactly one file argument")
	}

	cfg, logger, eng, err := loadEngine(sinceStr, untilStr)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	if format == output.FormatText || format == output.FormatTable {
		return fmt.Errorf("format %q is only available for stats (use csv, report, json or yaml)", format)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	if follow {
		err = followFile(ctx, eng, inputs[0], followRotate, logger)
	} else {
		err = ingestInputs(ctx, eng, inputs, cmd.InOrStdin(), progress)
	}
	if err != nil {
		return err
	}

	c := eng.Counters()
	logger.Debug("input done",
		"read", c.Read, "ingested", c.Ingested, "skipped", c.Skipped,
		"filtered", c.Filtered, "clusters", eng.Catalog().Len())

	colorMode := output.ColorAuto
	if noColor {
		colorMode = output.ColorNever
	}

	writer := output.New(cmd.OutOrStdout(), format)
	return writer.WriteRun(eng, output.ReportOptions{
		MinCount: cfg.MinCount,
		Sort:     cfg.Sort,
		Color:    colorMode,
	})
}

// followFile ingests path and every line appended to it until ctx is
// cancelled. A rotation without followRotate ends following normally so
// the collected counts still render.
func followFile(ctx context.Context, eng *engine.Engine, path string, followRotate bool, logger *slog.Logger) error {
	f := tail.New(tail.Options{
		FilePath:     path,
		Follow:       true,
		FollowRotate: followRotate,
		Logger:       logger,
		OnLine: func(line string, lineNum int) error {
			eng.IngestLine(line, lineNum)
			return nil
		},
	})

	logger.Info("following file, interrupt to render", "file", path)
	err := f.Run(ctx)
	if errors.Is(err, tail.ErrRotated) {
		return nil
	}
	return err
}
