package cluster

import "fmt"

// ExactThreshold is the similarity at and above which only identical token
// sequences are considered the same message.
const ExactThreshold = 0.99

// DefaultThreshold is the similarity used when none is configured.
const DefaultThreshold = 0.8

// Candidate describes the nearest catalog entry for a token sequence.
type Candidate struct {
	Index      int
	Distance   int
	Similarity float64
}

// Matcher classifies token sequences against a Catalog using a greedy,
// first-best nearest match.
//
// Matcher is not safe for concurrent use. Classification outcomes depend on
// registration order, so callers must feed lines sequentially.
type Matcher struct {
	catalog   *Catalog
	threshold float64
}

// NewMatcher creates a Matcher over catalog. threshold must be in (0, 1].
func NewMatcher(catalog *Catalog, threshold float64) (*Matcher, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("similarity threshold must be in (0, 1], got %v", threshold)
	}
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Matcher{catalog: catalog, threshold: threshold}, nil
}

// Catalog returns the catalog the matcher registers into.
func (m *Matcher) Catalog() *Catalog {
	return m.catalog
}

// Threshold returns the configured similarity threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Exact reports whether the matcher requires identical sequences.
func (m *Matcher) Exact() bool {
	return m.threshold >= ExactThreshold
}

// Classify returns the index of the catalog entry tokens belongs to. When no
// entry is close enough, tokens is registered and isNew is true.
func (m *Matcher) Classify(tokens []string) (index int, isNew bool) {
	if c, ok := m.Nearest(tokens); ok && c.Similarity >= m.threshold {
		return c.Index, false
	}
	return m.catalog.Register(tokens), true
}

// Nearest finds the closest catalog entry without registering anything.
//
// In exact mode only an identical entry is returned, with similarity 1.
// Otherwise every entry is scanned in registration order and the first one
// with the smallest distance wins.
func (m *Matcher) Nearest(tokens []string) (Candidate, bool) {
	if m.Exact() {
		idx, ok := m.catalog.findExact(tokens, Hash(tokens))
		if !ok {
			return Candidate{}, false
		}
		return Candidate{Index: idx, Distance: 0, Similarity: 1}, true
	}

	best := Candidate{Index: -1}
	for _, e := range m.catalog.entries {
		d := Distance(e.Tokens, tokens)
		if best.Index < 0 || d < best.Distance {
			best.Index = e.Index
			best.Distance = d
			if d == 0 {
				// Nothing later can be strictly smaller.
				break
			}
		}
	}
	if best.Index < 0 {
		return Candidate{}, false
	}

	best.Similarity = Similarity(best.Distance, len(tokens))
	return best, true
}
