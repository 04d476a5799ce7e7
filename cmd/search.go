package cmd

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"time"

	"github.com/bimmerbailey/logfreq/internal/cluster"
	"github.com/bimmerbailey/logfreq/internal/config"
	"github.com/bimmerbailey/logfreq/internal/engine"
	"github.com/bimmerbailey/logfreq/internal/output"
	"github.com/bimmerbailey/logfreq/internal/parser"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [flags] [file...]",
	Short: "Show the lines that make up a cluster",
	Long: `Cluster the input and print the raw lines that were assigned to the
selected clusters. Clusters are selected by index (as numbered in the csv
header and stats output, starting at 0) or by a regex matched against the
cluster pattern.

--explain classifies one message against the clusters built from the input
without adding it, and prints the nearest cluster.

Examples:
  logfreq search --cluster 3 /var/log/app.log
  logfreq search --pattern "timeout|refused" --count /var/log/app.log
  logfreq search --explain "connection to db-2 refused" -d 1 app.log`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	addSearchFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().IntSlice("cluster", nil, "cluster index to show (repeatable)")
	cmd.Flags().StringP("pattern", "e", "", "regex matched against cluster patterns")
	cmd.Flags().BoolP("count", "c", false, "only print the number of lines per selected cluster")
	cmd.Flags().String("explain", "", "show which cluster a message would join")
	cmd.Flags().String("since", "", "only include logs since timestamp")
	cmd.Flags().String("until", "", "only include logs until timestamp")
}

// searchMatch is one line assigned to a selected cluster.
type searchMatch struct {
	Line    int       `json:"line" yaml:"line"`
	Time    time.Time `json:"time" yaml:"time"`
	Cluster int       `json:"cluster" yaml:"cluster"`
	Raw     string    `json:"raw" yaml:"raw"`
}

// explanation is the result of --explain.
type explanation struct {
	Message    string  `json:"message" yaml:"message"`
	Matched    bool    `json:"matched" yaml:"matched"`
	Cluster    int     `json:"cluster" yaml:"cluster"`
	Pattern    string  `json:"pattern" yaml:"pattern"`
	Distance   int     `json:"distance" yaml:"distance"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
	Threshold  float64 `json:"threshold" yaml:"threshold"`
}

// clusterSelector decides which clusters a search shows.
type clusterSelector struct {
	indices map[int]bool
	re      *regexp.Regexp
	decided map[int]bool
}

func (s *clusterSelector) selects(a engine.Assignment) bool {
	if s.indices[a.Index] {
		return true
	}
	if s.re == nil {
		return false
	}
	ok, seen := s.decided[a.Index]
	if !seen {
		// The first member's tokens are the cluster's pattern.
		ok = a.IsNew && s.re.MatchString(cluster.Join(a.Tokens))
		s.decided[a.Index] = ok
	}
	return ok
}

func runSearch(cmd *cobra.Command, args []string) error {
	clusters, _ := cmd.Flags().GetIntSlice("cluster")
	pattern, _ := cmd.Flags().GetString("pattern")
	countOnly, _ := cmd.Flags().GetBool("count")
	explain, _ := cmd.Flags().GetString("explain")
	explainSet := cmd.Flags().Changed("explain")
	sinceStr, _ := cmd.Flags().GetString("since")
	untilStr, _ := cmd.Flags().GetString("until")

	if explainSet && (len(clusters) > 0 || pattern != "" || countOnly) {
		return fmt.Errorf("--explain cannot be combined with --cluster, --pattern or --count")
	}
	if !explainSet && len(clusters) == 0 && pattern == "" {
		return fmt.Errorf("one of --cluster, --pattern or --explain is required")
	}

	sel := &clusterSelector{indices: make(map[int]bool), decided: make(map[int]bool)}
	for _, idx := range clusters {
		if idx < 0 {
			return fmt.Errorf("invalid cluster index %d", idx)
		}
		sel.indices[idx] = true
	}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
		sel.re = re
	}

	inputs, err := config.ExpandInputs(args)
	if err != nil {
		return err
	}

	var matches []searchMatch
	counts := make(map[int]int)
	observe := func(rec parser.Record, a engine.Assignment) {
		if explainSet || !sel.selects(a) {
			return
		}
		counts[a.Index]++
		if !countOnly {
			matches = append(matches, searchMatch{Line: rec.Line, Time: rec.Time, Cluster: a.Index, Raw: rec.Raw})
		}
	}

	cfg, _, eng, err := loadEngine(sinceStr, untilStr, engine.WithObserver(observe))
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	if err := ingestInputs(ctx, eng, inputs, cmd.InOrStdin(), false); err != nil {
		return err
	}

	writer := output.New(cmd.OutOrStdout(), format)
	w := cmd.OutOrStdout()

	if explainSet {
		return writeExplanation(w, writer, eng, explain)
	}

	if countOnly {
		return writeSearchCounts(w, writer, eng, counts)
	}

	switch format {
	case output.FormatJSON:
		if matches == nil {
			matches = []searchMatch{}
		}
		return writer.WriteJSON(matches)
	case output.FormatYAML:
		return writer.WriteYAML(matches)
	}
	for _, m := range matches {
		fmt.Fprintln(w, m.Raw)
	}
	return nil
}

func writeSearchCounts(w io.Writer, writer *output.Writer, eng *engine.Engine, counts map[int]int) error {
	type clusterCount struct {
		Cluster int    `json:"cluster" yaml:"cluster"`
		Pattern string `json:"pattern" yaml:"pattern"`
		Count   int    `json:"count" yaml:"count"`
	}

	result := make([]clusterCount, 0, len(counts))
	for idx, n := range counts {
		entry, _ := eng.Catalog().Entry(idx)
		result = append(result, clusterCount{Cluster: idx, Pattern: entry.Text(), Count: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Cluster < result[j].Cluster })

	switch writer.Format() {
	case output.FormatJSON:
		return writer.WriteJSON(result)
	case output.FormatYAML:
		return writer.WriteYAML(result)
	}

	total := 0
	for _, c := range result {
		fmt.Fprintf(w, "%d\t%d\t%s\n", c.Cluster, c.Count, c.Pattern)
		total += c.Count
	}
	fmt.Fprintf(w, "Total: %d\n", total)
	return nil
}

func writeExplanation(w io.Writer, writer *output.Writer, eng *engine.Engine, message string) error {
	ex := explanation{Message: message, Cluster: -1, Threshold: eng.Similarity()}

	c, ok := eng.Explain(message)
	if entry, found := eng.Catalog().Entry(c.Index); found {
		ex.Matched = ok
		ex.Cluster = c.Index
		ex.Pattern = entry.Text()
		ex.Distance = c.Distance
		ex.Similarity = c.Similarity
	}

	switch writer.Format() {
	case output.FormatJSON:
		return writer.WriteJSON(ex)
	case output.FormatYAML:
		return writer.WriteYAML(ex)
	}

	if ex.Cluster < 0 {
		fmt.Fprintln(w, "No cluster is close enough to compare with.")
		return nil
	}
	verdict := "would join"
	if !ex.Matched {
		verdict = "would start a new cluster; nearest is"
	}
	fmt.Fprintf(w, "%s cluster %d: %s\n", verdict, ex.Cluster, ex.Pattern)
	fmt.Fprintf(w, "distance %d, similarity %.3f (threshold %.2f)\n", ex.Distance, ex.Similarity, ex.Threshold)
	return nil
}
