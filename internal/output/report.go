package output

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bimmerbailey/logfreq/internal/engine"
)

type reportLine struct {
	index int
	text  string
	count uint64
	key   string // uncolored rendering, the default sort key
}

// writeReport renders the latest slice. Entries whose count in that slice
// is below opts.MinCount are left out of both the listing and the total.
func (wr *Writer) writeReport(e *engine.Engine, opts ReportOptions) error {
	style := newReportStyle(opts.Color, wr.w)
	loc := e.Location()
	latest := e.Aligner().Latest()
	start := time.Unix(latest, 0).In(loc)
	end := start.Add(e.Aligner().Width())
	counts := e.Table().Slice(latest)

	var lines []reportLine
	var total uint64
	for _, entry := range e.Catalog().Entries() {
		n := counts[entry.Index]
		if opts.MinCount > 0 && n < uint64(opts.MinCount) {
			continue
		}
		text := entry.Text()
		lines = append(lines, reportLine{
			index: entry.Index,
			text:  text,
			count: n,
			key:   text + ":\n\t" + strconv.FormatUint(n, 10) + "\n\n",
		})
		total += n
	}

	if err := sortReport(lines, opts.Sort); err != nil {
		return err
	}

	bw := bufio.NewWriter(wr.w)
	fmt.Fprintf(bw, "Time starting: %s\n", start.Format(timeLayout))
	fmt.Fprintf(bw, "Time ending: %s\n\n", end.Format(timeLayout))

	for _, l := range lines {
		fmt.Fprintf(bw, "%s\n\t%s\n\n", style.heading(l.text), style.count(l.count))
	}

	fmt.Fprintf(bw, "%s\n\t%s\n", style.heading("TOTAL"), style.count(total))
	return bw.Flush()
}

func sortReport(lines []reportLine, order string) error {
	switch order {
	case "", "text":
		sort.SliceStable(lines, func(i, j int) bool {
			return lines[i].key > lines[j].key
		})
	case "index":
		// catalog order already
	case "count":
		sort.SliceStable(lines, func(i, j int) bool {
			return lines[i].count > lines[j].count
		})
	default:
		return fmt.Errorf("unsupported sort order %q", order)
	}
	return nil
}
