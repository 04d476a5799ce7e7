// Package parser turns raw log lines into timestamped message bodies.
//
// Each line is optionally reshaped by a regex rewrite, then a timestamp is
// read off its front with a configurable layout. What follows the timestamp,
// minus any leading dummy tokens and anything after a cutoff character, is
// the message body handed to clustering.
package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Default rewrite settings leave lines untouched.
const (
	DefaultMatch   = "^.+$"
	DefaultReplace = "${0}"
)

// maxLineSize bounds a single line read from input.
const maxLineSize = 1024 * 1024

// Options configures a Parser.
type Options struct {
	Match       string         // Regex applied to each raw line
	Replace     string         // Replacement template for matching lines
	TimeFormat  string         // Go layout or strftime format of the leading timestamp
	Location    *time.Location // Zone for timestamps without an offset
	DummyTokens int            // Tokens dropped after the timestamp
	Cutoff      string         // Body is truncated at the first occurrence, if set
}

// Record is one successfully parsed line.
type Record struct {
	Raw  string
	Line int
	Time time.Time
	Body string
}

// Parser reads and parses log lines into records.
type Parser struct {
	rewriter *Rewriter
	ts       *TimestampParser
	dummy    int
	cutoff   string
}

// New creates a Parser. Malformed patterns, templates or formats are
// reported here so a run can fail before reading any input.
func New(opts Options) (*Parser, error) {
	if opts.Match == "" {
		opts.Match = DefaultMatch
	}
	if opts.Replace == "" {
		opts.Replace = DefaultReplace
	}
	if opts.DummyTokens < 0 {
		return nil, fmt.Errorf("dummy token count must not be negative, got %d", opts.DummyTokens)
	}

	rw, err := NewRewriter(opts.Match, opts.Replace)
	if err != nil {
		return nil, err
	}

	ts, err := NewTimestampParser(opts.TimeFormat, opts.Location)
	if err != nil {
		return nil, err
	}

	return &Parser{
		rewriter: rw,
		ts:       ts,
		dummy:    opts.DummyTokens,
		cutoff:   opts.Cutoff,
	}, nil
}

// Location returns the zone timestamps are parsed in.
func (p *Parser) Location() *time.Location {
	return p.ts.Location()
}

// ParseLine parses a single raw line. It returns ErrNoTimestamp when the
// rewritten line does not begin with a timestamp.
func (p *Parser) ParseLine(raw string, lineNum int) (Record, error) {
	line := p.rewriter.Apply(raw)

	t, rest, err := p.ts.Parse(line)
	if err != nil {
		return Record{}, err
	}

	body := SkipTokens(rest, p.dummy)
	if p.cutoff != "" {
		if i := strings.Index(body, p.cutoff); i >= 0 {
			body = body[:i]
		}
	}

	return Record{
		Raw:  raw,
		Line: lineNum,
		Time: t,
		Body: body,
	}, nil
}

// ScanLines calls fn for every line of r, numbering lines from 1. It stops
// early without error when ctx is cancelled.
func ScanLines(ctx context.Context, r io.Reader, fn func(line string, lineNum int) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		lineNum++
		if err := fn(scanner.Text(), lineNum); err != nil {
			return err
		}
	}

	return scanner.Err()
}
