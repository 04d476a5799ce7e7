// Package engine runs the per-line ingestion pipeline of a logfreq run.
//
// An Engine owns all state of one run: the message catalog, the slice
// alignment and the frequency table. Lines are processed one at a time and
// fully, so the state is consistent between any two lines and a run can be
// stopped at any point and rendered.
//
// Usage:
//
//	p, _ := parser.New(parser.Options{Location: time.UTC})
//	eng, err := engine.New(p,
//	    engine.WithSimilarity(0.8),
//	    engine.WithSliceWidth(30*time.Minute),
//	    engine.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := eng.IngestReader(ctx, os.Stdin); err != nil {
//	    return err
//	}
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bimmerbailey/logfreq/internal/cluster"
	"github.com/bimmerbailey/logfreq/internal/mask"
	"github.com/bimmerbailey/logfreq/internal/parser"
	"github.com/bimmerbailey/logfreq/internal/window"
)

// progressEvery is how many lines pass between progress log records.
const progressEvery = 10000

// Assignment is where one ingested line ended up.
type Assignment struct {
	Index  int
	IsNew  bool
	Slice  int64
	Tokens []string
}

// Observer is called for every ingested line after it has been recorded.
type Observer func(rec parser.Record, a Assignment)

// Counters tracks what happened to the lines of a run.
type Counters struct {
	Read     int `json:"read" yaml:"read"`
	Ingested int `json:"ingested" yaml:"ingested"`
	Skipped  int `json:"skipped" yaml:"skipped"`   // no leading timestamp
	Filtered int `json:"filtered" yaml:"filtered"` // outside --since/--until
}

// Engine classifies and buckets log lines.
// It is not safe for concurrent use.
type Engine struct {
	parser  *parser.Parser
	masker  *mask.Masker
	matcher *cluster.Matcher
	aligner *window.Aligner
	table   *window.Table
	logger  *slog.Logger
	observe Observer

	similarity float64
	width      time.Duration
	since      time.Time
	until      time.Time

	counters Counters
}

// Option configures an Engine.
type Option func(*Engine)

// WithSimilarity sets the similarity threshold in (0, 1].
// Default is 0.8; 0.99 and above means exact matching.
func WithSimilarity(pct float64) Option {
	return func(e *Engine) {
		e.similarity = pct
	}
}

// WithSliceWidth sets the width of each time slice. Default is 30 minutes.
func WithSliceWidth(d time.Duration) Option {
	return func(e *Engine) {
		e.width = d
	}
}

// WithMasker masks variable values in each body before tokenizing.
func WithMasker(m *mask.Masker) Option {
	return func(e *Engine) {
		e.masker = m
	}
}

// WithLogger sets the logger for progress and skipped-line records.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTimeRange drops lines with timestamps before since or after until.
// Zero values leave that side open.
func WithTimeRange(since, until time.Time) Option {
	return func(e *Engine) {
		e.since = since
		e.until = until
	}
}

// WithObserver registers a callback for every ingested line.
func WithObserver(fn Observer) Option {
	return func(e *Engine) {
		e.observe = fn
	}
}

// New creates an Engine reading lines with p.
func New(p *parser.Parser, opts ...Option) (*Engine, error) {
	if p == nil {
		return nil, errors.New("engine requires a parser")
	}

	e := &Engine{
		parser:     p,
		table:      window.NewTable(),
		logger:     slog.New(slog.DiscardHandler),
		similarity: cluster.DefaultThreshold,
		width:      window.DefaultWidth,
	}

	for _, opt := range opts {
		opt(e)
	}

	var err error
	e.matcher, err = cluster.NewMatcher(cluster.NewCatalog(), e.similarity)
	if err != nil {
		return nil, err
	}
	e.aligner, err = window.NewAligner(e.width)
	if err != nil {
		return nil, err
	}

	return e, nil
}

// Ingest processes one raw line, numbering it after the lines read so far.
func (e *Engine) Ingest(raw string) (Assignment, bool) {
	return e.IngestLine(raw, e.counters.Read+1)
}

// IngestLine processes one raw line. It reports false when the line was
// skipped for lacking a timestamp or filtered by the time range.
func (e *Engine) IngestLine(raw string, lineNum int) (Assignment, bool) {
	if e.counters.Read%progressEvery == 0 {
		e.logger.Info("processing line", "line", e.counters.Read)
	}
	e.counters.Read++

	rec, err := e.parser.ParseLine(raw, lineNum)
	if err != nil {
		e.counters.Skipped++
		e.logger.Debug("skipping line", "line", lineNum, "reason", err)
		return Assignment{}, false
	}

	if !e.inRange(rec.Time) {
		e.counters.Filtered++
		return Assignment{}, false
	}

	body := rec.Body
	if e.masker != nil {
		body = e.masker.Mask(body)
	}

	tokens := cluster.Tokenize(body)
	idx, isNew := e.matcher.Classify(tokens)
	key := e.aligner.Align(rec.Time.Unix())
	e.table.Record(key, idx)
	e.counters.Ingested++

	if isNew {
		e.logger.Debug("new message pattern", "index", idx, "pattern", cluster.Join(tokens))
	}

	a := Assignment{Index: idx, IsNew: isNew, Slice: key, Tokens: tokens}
	if e.observe != nil {
		e.observe(rec, a)
	}
	return a, true
}

// IngestReader ingests every line of r. Cancelling ctx stops reading at the
// next line boundary and is not an error.
func (e *Engine) IngestReader(ctx context.Context, r io.Reader) error {
	err := parser.ScanLines(ctx, r, func(line string, lineNum int) error {
		e.IngestLine(line, lineNum)
		return nil
	})
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// Explain returns the nearest catalog entry for body without changing any
// state. ok reports whether body would join that entry. The candidate index
// is -1 when there is no candidate at all.
func (e *Engine) Explain(body string) (cluster.Candidate, bool) {
	if e.masker != nil {
		body = e.masker.Mask(body)
	}
	c, found := e.matcher.Nearest(cluster.Tokenize(body))
	if !found {
		return cluster.Candidate{Index: -1}, false
	}
	return c, c.Similarity >= e.matcher.Threshold()
}

func (e *Engine) inRange(t time.Time) bool {
	if !e.since.IsZero() && t.Before(e.since) {
		return false
	}
	if !e.until.IsZero() && t.After(e.until) {
		return false
	}
	return true
}

// Catalog returns the message catalog.
func (e *Engine) Catalog() *cluster.Catalog {
	return e.matcher.Catalog()
}

// Table returns the frequency table.
func (e *Engine) Table() *window.Table {
	return e.table
}

// Aligner returns the slice aligner.
func (e *Engine) Aligner() *window.Aligner {
	return e.aligner
}

// Counters returns the line counters so far.
func (e *Engine) Counters() Counters {
	return e.counters
}

// Similarity returns the configured similarity threshold.
func (e *Engine) Similarity() float64 {
	return e.similarity
}

// Location returns the zone timestamps are parsed in.
func (e *Engine) Location() *time.Location {
	return e.parser.Location()
}
