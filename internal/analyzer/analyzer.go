// Package analyzer summarizes a finished run: how many lines were used,
// which message patterns dominate and how traffic moves between slices.
package analyzer

import (
	"sort"
	"time"

	"github.com/bimmerbailey/logfreq/internal/engine"
)

// DefaultTopN is how many clusters a summary lists when not told otherwise.
const DefaultTopN = 10

// Stats holds aggregate statistics for a run.
type Stats struct {
	Lines       engine.Counters `json:"lines" yaml:"lines"`
	SkipRate    float64         `json:"skip_rate" yaml:"skip_rate"`
	Clusters    int             `json:"clusters" yaml:"clusters"`
	Slices      int             `json:"slices" yaml:"slices"`
	SliceWidth  string          `json:"slice_width" yaml:"slice_width"`
	Similarity  float64         `json:"similarity" yaml:"similarity"`
	FirstSlice  time.Time       `json:"first_slice,omitzero" yaml:"first_slice,omitempty"`
	LatestSlice time.Time       `json:"latest_slice,omitzero" yaml:"latest_slice,omitempty"`
	TopClusters []ClusterCount  `json:"top_clusters,omitempty" yaml:"top_clusters,omitempty"`
	TimeSlices  []SliceStats    `json:"time_slices,omitempty" yaml:"time_slices,omitempty"`
}

// ClusterCount tracks a catalog entry and how often it appeared.
type ClusterCount struct {
	Index   int     `json:"index" yaml:"index"`
	Pattern string  `json:"pattern" yaml:"pattern"`
	Count   uint64  `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// SliceStats holds statistics for one time slice.
type SliceStats struct {
	Start         time.Time `json:"start" yaml:"start"`
	End           time.Time `json:"end" yaml:"end"`
	Count         uint64    `json:"count" yaml:"count"`
	Clusters      int       `json:"clusters" yaml:"clusters"`
	NewClusters   int       `json:"new_clusters" yaml:"new_clusters"`
	ChangePercent float64   `json:"change_percent" yaml:"change_percent"` // Change from previous slice
}

// Analyzer computes summaries of engine state.
type Analyzer struct {
	topN int
}

// New creates an Analyzer listing at most topN clusters. Non-positive
// values mean DefaultTopN.
func New(topN int) *Analyzer {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Analyzer{topN: topN}
}

// ComputeStats summarizes the state e has accumulated so far.
func (a *Analyzer) ComputeStats(e *engine.Engine) Stats {
	aligner := e.Aligner()
	table := e.Table()
	loc := e.Location()

	stats := Stats{
		Lines:      e.Counters(),
		Clusters:   e.Catalog().Len(),
		Slices:     table.Len(),
		SliceWidth: aligner.Width().String(),
		Similarity: e.Similarity(),
	}

	if stats.Lines.Read > 0 {
		stats.SkipRate = float64(stats.Lines.Skipped) / float64(stats.Lines.Read)
	}

	if !aligner.Seeded() {
		return stats
	}

	keys := table.Keys()
	stats.FirstSlice = time.Unix(keys[0], 0).In(loc)
	stats.LatestSlice = time.Unix(aligner.Latest(), 0).In(loc)
	stats.TopClusters = a.topClusters(e)
	stats.TimeSlices = sliceStats(e)

	return stats
}

// topClusters returns the most frequent entries, ties broken by index.
func (a *Analyzer) topClusters(e *engine.Engine) []ClusterCount {
	table := e.Table()
	total := uint64(e.Counters().Ingested)

	entries := e.Catalog().Entries()
	counts := make([]ClusterCount, 0, len(entries))
	for _, entry := range entries {
		n := table.IndexTotal(entry.Index)
		c := ClusterCount{Index: entry.Index, Pattern: entry.Text(), Count: n}
		if total > 0 {
			c.Percent = float64(n) * 100 / float64(total)
		}
		counts = append(counts, c)
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if len(counts) > a.topN {
		counts = counts[:a.topN]
	}
	return counts
}

// sliceStats returns one entry per non-empty slice in time order.
func sliceStats(e *engine.Engine) []SliceStats {
	table := e.Table()
	width := e.Aligner().Width()
	loc := e.Location()

	seen := make(map[int]bool)
	var slices []SliceStats

	for i, key := range table.Keys() {
		counts := table.Slice(key)
		start := time.Unix(key, 0).In(loc)
		s := SliceStats{
			Start:    start,
			End:      start.Add(width),
			Clusters: len(counts),
		}
		for idx, n := range counts {
			s.Count += n
			if !seen[idx] {
				seen[idx] = true
				s.NewClusters++
			}
		}

		// Calculate change from previous slice
		if i > 0 && slices[i-1].Count > 0 {
			prev := float64(slices[i-1].Count)
			s.ChangePercent = (float64(s.Count) - prev) * 100 / prev
		}

		slices = append(slices, s)
	}

	return slices
}
