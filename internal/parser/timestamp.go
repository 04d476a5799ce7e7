package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultTimeFormat is the layout of the timestamp expected at the start of
// each line when none is configured.
const DefaultTimeFormat = "2006-01-02 15:04:05"

// ErrNoTimestamp is returned for lines that do not start with a timestamp
// in the configured layout.
var ErrNoTimestamp = errors.New("line does not start with a timestamp")

// TimestampParser reads a timestamp off the front of a line.
type TimestampParser struct {
	layout string
	fields int
	loc    *time.Location
}

// NewTimestampParser creates a parser for the given Go layout or strftime
// format. A nil location means time.Local.
func NewTimestampParser(format string, loc *time.Location) (*TimestampParser, error) {
	if format == "" {
		format = DefaultTimeFormat
	}
	layout, err := TranslateStrftime(format)
	if err != nil {
		return nil, err
	}

	fields := len(strings.Fields(layout))
	if fields == 0 {
		return nil, fmt.Errorf("time format %q is blank", format)
	}
	if loc == nil {
		loc = time.Local
	}

	return &TimestampParser{layout: layout, fields: fields, loc: loc}, nil
}

// Layout returns the Go layout in use.
func (p *TimestampParser) Layout() string {
	return p.layout
}

// Location returns the zone timestamps without an offset are read in.
func (p *TimestampParser) Location() *time.Location {
	return p.loc
}

// Parse extracts the leading timestamp of line and returns it with the rest
// of the line.
//
// The prefix spanning as many whitespace-separated fields as the layout has
// is tried first, then a prefix exactly as long as the layout.
func (p *TimestampParser) Parse(line string) (time.Time, string, error) {
	start, end := fieldSpan(line, p.fields)
	if end > start {
		if t, err := time.ParseInLocation(p.layout, line[start:end], p.loc); err == nil {
			return t, line[end:], nil
		}
	}

	if n := len(p.layout); len(line) >= n {
		if t, err := time.ParseInLocation(p.layout, line[:n], p.loc); err == nil {
			return t, line[n:], nil
		}
	}

	return time.Time{}, line, ErrNoTimestamp
}

// fieldSpan returns the byte span covering the first n whitespace-separated
// fields of s. end is 0 when s has fewer than n fields.
func fieldSpan(s string, n int) (start, end int) {
	start = skipSpace(s, 0)
	i := start
	for k := 0; k < n; k++ {
		i = skipSpace(s, i)
		if i >= len(s) {
			return start, 0
		}
		i = skipWord(s, i)
	}
	return start, i
}

// SkipTokens drops the first n whitespace-separated tokens of s, keeping the
// original spacing of what remains.
func SkipTokens(s string, n int) string {
	i := 0
	for k := 0; k < n && i < len(s); k++ {
		i = skipSpace(s, i)
		i = skipWord(s, i)
	}
	return s[i:]
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

func skipWord(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}
