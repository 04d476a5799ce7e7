package output

import (
	"bufio"
	"strconv"
	"strings"
	"time"

	"github.com/bimmerbailey/logfreq/internal/engine"
)

// writeCSV writes one column per catalog entry and one row per slice.
// Header cells are always quoted; data cells never need to be.
func (wr *Writer) writeCSV(e *engine.Engine) error {
	bw := bufio.NewWriter(wr.w)
	entries := e.Catalog().Entries()
	table := e.Table()
	loc := e.Location()

	bw.WriteString("Time")
	for _, entry := range entries {
		bw.WriteString(`,"`)
		bw.WriteString(strings.ReplaceAll(entry.Text(), `"`, `""`))
		bw.WriteByte('"')
	}
	bw.WriteByte('\n')

	for _, key := range table.Keys() {
		counts := table.Slice(key)
		bw.WriteString(time.Unix(key, 0).In(loc).Format(timeLayout))
		for _, entry := range entries {
			bw.WriteByte(',')
			bw.WriteString(strconv.FormatUint(counts[entry.Index], 10))
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}
