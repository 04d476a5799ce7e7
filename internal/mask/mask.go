// Package mask replaces variable values in message bodies with placeholders
// before clustering.
//
// Messages that differ only in an address, an ID or a counter then collapse
// into one catalog entry even in exact mode:
//
//	"connect to 10.0.0.7 failed after 3 tries" → "connect to <IPV4> failed after <NUM> tries"
//
// With correlation on, each distinct value keeps a short stable hash, so the
// same value always yields the same placeholder:
//
//	"connect to 10.0.0.7 failed" → "connect to <IPV4:1f3a> failed"
package mask

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Masker applies a fixed set of patterns to message bodies.
// It is not safe for concurrent use.
type Masker struct {
	inline    []Pattern
	tokens    []Pattern
	correlate bool
	masked    int
}

// New creates a Masker for the named patterns. An empty list selects
// DefaultPatterns.
func New(names []string, correlate bool) (*Masker, error) {
	if len(names) == 0 {
		names = DefaultPatterns()
	}
	patterns, err := Lookup(names)
	if err != nil {
		return nil, err
	}

	m := &Masker{
		correlate: correlate,
	}
	for _, p := range patterns {
		if p.Token {
			m.tokens = append(m.tokens, p)
		} else {
			m.inline = append(m.inline, p)
		}
	}
	return m, nil
}

// Mask returns body with every configured pattern replaced.
func (m *Masker) Mask(body string) string {
	result := body
	for _, p := range m.inline {
		result = p.Regex.ReplaceAllStringFunc(result, func(match string) string {
			return m.placeholder(match, p.Type)
		})
	}

	if len(m.tokens) == 0 {
		return result
	}

	fields := strings.Fields(result)
	changed := false
	for i, tok := range fields {
		for _, p := range m.tokens {
			if p.Regex.MatchString(tok) {
				fields[i] = m.placeholder(tok, p.Type)
				changed = true
				break
			}
		}
	}
	if !changed {
		return result
	}
	return strings.Join(fields, " ")
}

// Masked returns how many values have been replaced so far.
func (m *Masker) Masked() int {
	return m.masked
}

// placeholder returns the replacement for value.
func (m *Masker) placeholder(value, patternType string) string {
	m.masked++
	if !m.correlate {
		return "<" + patternType + ">"
	}
	// No per-value cache; the hash alone keeps placeholders stable.
	return fmt.Sprintf("<%s:%s>", patternType, shortHash(value))
}

// shortHash is the first 4 hex characters of the value's SHA-256.
func shortHash(value string) string {
	h := sha256.Sum256([]byte(value))
	return hex.EncodeToString(h[:2])
}
