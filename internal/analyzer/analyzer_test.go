package analyzer

import (
	"strings"
	"testing"
	"time"

	"github.com/bimmerbailey/logfreq/internal/engine"
	"github.com/bimmerbailey/logfreq/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runEngine(t *testing.T, lines ...string) *engine.Engine {
	t.Helper()
	p, err := parser.New(parser.Options{Location: time.UTC})
	require.NoError(t, err)
	e, err := engine.New(p, engine.WithSliceWidth(time.Hour))
	require.NoError(t, err)
	for _, l := range lines {
		e.Ingest(l)
	}
	return e
}

func TestComputeStats(t *testing.T) {
	e := runEngine(t,
		"2024-01-15 10:00:00 user login ok",
		"2024-01-15 10:05:00 disk almost full",
		"2024-01-15 10:10:00 user login ok",
		"not a log line",
		"2024-01-15 11:00:00 user login ok",
		"2024-01-15 11:30:00 cache miss on key",
		"2024-01-15 11:45:00 cache miss on key",
		"2024-01-15 11:50:00 cache miss on key",
	)

	stats := New(2).ComputeStats(e)

	assert.Equal(t, 8, stats.Lines.Read)
	assert.Equal(t, 7, stats.Lines.Ingested)
	assert.Equal(t, 1, stats.Lines.Skipped)
	assert.InDelta(t, 0.125, stats.SkipRate, 1e-9)
	assert.Equal(t, 3, stats.Clusters)
	assert.Equal(t, 2, stats.Slices)
	assert.Equal(t, "1h0m0s", stats.SliceWidth)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), stats.FirstSlice)
	assert.Equal(t, time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC), stats.LatestSlice)

	require.Len(t, stats.TopClusters, 2)
	// login and cache miss both appear 3 times; the lower index wins.
	assert.Equal(t, 0, stats.TopClusters[0].Index)
	assert.Equal(t, "user login ok", stats.TopClusters[0].Pattern)
	assert.Equal(t, uint64(3), stats.TopClusters[0].Count)
	assert.Equal(t, 2, stats.TopClusters[1].Index)
	assert.InDelta(t, 300.0/7, stats.TopClusters[1].Percent, 1e-9)

	require.Len(t, stats.TimeSlices, 2)
	first, second := stats.TimeSlices[0], stats.TimeSlices[1]
	assert.Equal(t, uint64(3), first.Count)
	assert.Equal(t, 2, first.Clusters)
	assert.Equal(t, 2, first.NewClusters)
	assert.Equal(t, time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC), first.End)
	assert.Zero(t, first.ChangePercent)

	assert.Equal(t, uint64(4), second.Count)
	assert.Equal(t, 2, second.Clusters)
	assert.Equal(t, 1, second.NewClusters)
	assert.InDelta(t, 100.0/3, second.ChangePercent, 1e-9)
}

func TestComputeStats_Empty(t *testing.T) {
	e := runEngine(t)

	stats := New(0).ComputeStats(e)

	assert.Zero(t, stats.Lines.Read)
	assert.Zero(t, stats.SkipRate)
	assert.Zero(t, stats.Clusters)
	assert.True(t, stats.FirstSlice.IsZero())
	assert.True(t, stats.LatestSlice.IsZero())
	assert.Empty(t, stats.TopClusters)
	assert.Empty(t, stats.TimeSlices)
}

func TestComputeStats_DefaultTopN(t *testing.T) {
	var lines []string
	for i := 0; i < 15; i++ {
		// distinct first words at similarity 0.8 keep every line its own cluster
		lines = append(lines, "2024-01-15 10:00:00 "+strings.Repeat(string(rune('a'+i)), 3))
	}
	e := runEngine(t, lines...)

	stats := New(-1).ComputeStats(e)
	assert.Equal(t, 15, stats.Clusters)
	assert.Len(t, stats.TopClusters, DefaultTopN)
}
