// Package output renders the result of a run. Frequency results render as
// CSV, a latest-slice report, JSON or YAML; run summaries render as text,
// a table, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bimmerbailey/logfreq/internal/engine"
	"gopkg.in/yaml.v3"
)

// Format represents an output format type.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatReport Format = "report"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatText   Format = "text"
	FormatTable  Format = "table"
)

// timeLayout is how slice boundaries are printed in CSV and reports.
const timeLayout = "2006-01-02 15:04:05"

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatReport, FormatJSON, FormatYAML, FormatText, FormatTable:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format %q (must be csv, report, json, yaml, text or table)", s)
}

// ReportOptions controls the latest-slice report.
type ReportOptions struct {
	MinCount int
	Sort     string // text (descending), index or count
	Color    ColorMode
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
}

// New creates a new output Writer.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format}
}

// Format returns the format the writer renders.
func (wr *Writer) Format() Format {
	return wr.format
}

// WriteRun renders the catalog and frequency table of e.
func (wr *Writer) WriteRun(e *engine.Engine, opts ReportOptions) error {
	switch wr.format {
	case FormatCSV:
		return wr.writeCSV(e)
	case FormatReport:
		return wr.writeReport(e, opts)
	case FormatJSON:
		return wr.WriteJSON(NewDocument(e))
	case FormatYAML:
		return wr.WriteYAML(NewDocument(e))
	default:
		return fmt.Errorf("format %q is not available for frequency output", wr.format)
	}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML outputs any value as YAML.
func (wr *Writer) WriteYAML(v interface{}) error {
	enc := yaml.NewEncoder(wr.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Document is the structured form of a run.
type Document struct {
	SliceWidth string         `json:"slice_width" yaml:"slice_width"`
	Latest     time.Time      `json:"latest" yaml:"latest"`
	Clusters   []ClusterTotal `json:"clusters" yaml:"clusters"`
	Slices     []SliceCounts  `json:"slices" yaml:"slices"`
}

// ClusterTotal is a catalog entry with its count over the whole run.
type ClusterTotal struct {
	Index   int    `json:"index" yaml:"index"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Total   uint64 `json:"total" yaml:"total"`
}

// SliceCounts holds the non-zero counts of one slice keyed by entry index.
type SliceCounts struct {
	Start  time.Time      `json:"start" yaml:"start"`
	End    time.Time      `json:"end" yaml:"end"`
	Total  uint64         `json:"total" yaml:"total"`
	Counts map[int]uint64 `json:"counts" yaml:"counts"`
}

// NewDocument builds the structured form of the state in e.
func NewDocument(e *engine.Engine) Document {
	table := e.Table()
	loc := e.Location()
	width := e.Aligner().Width()

	doc := Document{
		SliceWidth: width.String(),
		Latest:     time.Unix(e.Aligner().Latest(), 0).In(loc),
		Clusters:   make([]ClusterTotal, 0, e.Catalog().Len()),
		Slices:     make([]SliceCounts, 0, table.Len()),
	}

	for _, entry := range e.Catalog().Entries() {
		doc.Clusters = append(doc.Clusters, ClusterTotal{
			Index:   entry.Index,
			Pattern: entry.Text(),
			Total:   table.IndexTotal(entry.Index),
		})
	}

	for _, key := range table.Keys() {
		start := time.Unix(key, 0).In(loc)
		doc.Slices = append(doc.Slices, SliceCounts{
			Start:  start,
			End:    start.Add(width),
			Total:  table.Total(key),
			Counts: table.Slice(key),
		})
	}

	return doc
}
