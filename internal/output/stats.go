package output

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/bimmerbailey/logfreq/internal/analyzer"
)

// WriteStats renders a run summary. CSV and report fall back to text.
func (wr *Writer) WriteStats(s analyzer.Stats) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(s)
	case FormatYAML:
		return wr.WriteYAML(s)
	case FormatTable:
		return wr.writeStatsTable(s)
	default:
		return wr.writeStatsText(s)
	}
}

func (wr *Writer) writeStatsText(s analyzer.Stats) error {
	w := wr.w
	fmt.Fprintf(w, "Lines read:      %d\n", s.Lines.Read)
	fmt.Fprintf(w, "Lines ingested:  %d\n", s.Lines.Ingested)
	fmt.Fprintf(w, "Lines skipped:   %d (%.1f%%)\n", s.Lines.Skipped, s.SkipRate*100)
	if s.Lines.Filtered > 0 {
		fmt.Fprintf(w, "Lines filtered:  %d\n", s.Lines.Filtered)
	}
	fmt.Fprintf(w, "Clusters:        %d (similarity %.2f)\n", s.Clusters, s.Similarity)
	fmt.Fprintf(w, "Slices:          %d x %s\n", s.Slices, s.SliceWidth)
	if !s.FirstSlice.IsZero() {
		fmt.Fprintf(w, "First slice:     %s\n", s.FirstSlice.Format(timeLayout))
		fmt.Fprintf(w, "Latest slice:    %s\n", s.LatestSlice.Format(timeLayout))
	}

	if len(s.TopClusters) > 0 {
		fmt.Fprintln(w, "\nTop clusters:")
		for _, c := range s.TopClusters {
			fmt.Fprintf(w, "  %6d  %5.1f%%  [%d] %s\n", c.Count, c.Percent, c.Index, c.Pattern)
		}
	}

	if len(s.TimeSlices) > 0 {
		fmt.Fprintln(w, "\nSlices:")
		for _, sl := range s.TimeSlices {
			fmt.Fprintf(w, "  %s  %6d  %s  (%d new)\n",
				sl.Start.Format(timeLayout), sl.Count, formatChange(sl.ChangePercent), sl.NewClusters)
		}
	}
	return nil
}

func (wr *Writer) writeStatsTable(s analyzer.Stats) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tCOUNT\tPERCENT\tPATTERN")
	fmt.Fprintln(tw, "-----\t-----\t-------\t-------")
	for _, c := range s.TopClusters {
		fmt.Fprintf(tw, "%d\t%d\t%.1f%%\t%s\n", c.Index, c.Count, c.Percent, truncate(c.Pattern, 80))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "START\tEND\tCOUNT\tCLUSTERS\tNEW\tCHANGE")
	fmt.Fprintln(tw, "-----\t---\t-----\t--------\t---\t------")
	for _, sl := range s.TimeSlices {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			sl.Start.Format(timeLayout), sl.End.Format(time.TimeOnly),
			sl.Count, sl.Clusters, sl.NewClusters, formatChange(sl.ChangePercent))
	}
	return tw.Flush()
}

func formatChange(pct float64) string {
	return fmt.Sprintf("%+.1f%%", pct)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
