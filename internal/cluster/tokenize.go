// Package cluster groups log message bodies into distinct message shapes.
//
// A message body is split into whitespace tokens and compared against the
// catalog of shapes seen so far, either by token edit distance or, when the
// similarity threshold demands identity, by content hash.
package cluster

import "strings"

// Tokenize splits a message body into whitespace-delimited tokens.
// Runs of whitespace collapse and an empty body yields an empty sequence.
func Tokenize(body string) []string {
	tokens := strings.Fields(body)
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// Join renders a token sequence back into a single space-separated string.
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}

// Equal reports whether two token sequences are identical position by position.
func Equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
