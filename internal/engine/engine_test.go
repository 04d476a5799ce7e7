package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bimmerbailey/logfreq/internal/config"
	"github.com/bimmerbailey/logfreq/internal/mask"
	"github.com/bimmerbailey/logfreq/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, popts parser.Options, opts ...Option) *Engine {
	t.Helper()
	if popts.Location == nil {
		popts.Location = time.UTC
	}
	p, err := parser.New(popts)
	require.NoError(t, err)
	e, err := New(p, opts...)
	require.NoError(t, err)
	return e
}

func unix(s string) int64 {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t.Unix()
}

func TestEngine_EndToEnd(t *testing.T) {
	e := newTestEngine(t, parser.Options{DummyTokens: 1},
		WithSimilarity(0.8),
		WithSliceWidth(1800*time.Second),
	)

	input := strings.Join([]string{
		"2020-01-01 00:00:00 error on host A",
		"2020-01-01 00:01:00 error on host B",
		"2020-01-01 00:40:00 error on host C",
	}, "\n")

	require.NoError(t, e.IngestReader(context.Background(), strings.NewReader(input)))

	// "on host A" vs "on host B": distance 1 of 3 tokens, similarity 0.67 < 0.8.
	cat := e.Catalog()
	require.Equal(t, 3, cat.Len())
	texts := []string{}
	for _, entry := range cat.Entries() {
		texts = append(texts, entry.Text())
	}
	assert.Equal(t, []string{"on host A", "on host B", "on host C"}, texts)

	first := unix("2020-01-01 00:00:00")
	tbl := e.Table()
	assert.Equal(t, []int64{first, first + 1800}, tbl.Keys())
	assert.Equal(t, uint64(1), tbl.Count(first, 0))
	assert.Equal(t, uint64(1), tbl.Count(first, 1))
	assert.Equal(t, uint64(1), tbl.Count(first+1800, 2))
	assert.Equal(t, first+1800, e.Aligner().Latest())

	c := e.Counters()
	assert.Equal(t, 3, c.Read)
	assert.Equal(t, 3, c.Ingested)
	assert.Zero(t, c.Skipped)
}

func TestEngine_MergesAtLowerThreshold(t *testing.T) {
	e := newTestEngine(t, parser.Options{DummyTokens: 1}, WithSimilarity(0.6))

	for _, l := range []string{
		"2020-01-01 00:00:00 error on host A",
		"2020-01-01 00:01:00 error on host B",
	} {
		_, ok := e.Ingest(l)
		require.True(t, ok)
	}

	assert.Equal(t, 1, e.Catalog().Len())
	assert.Equal(t, uint64(2), e.Table().Count(unix("2020-01-01 00:00:00"), 0))
}

func TestEngine_SkipsLinesWithoutTimestamp(t *testing.T) {
	e := newTestEngine(t, parser.Options{})

	input := "garbage line\n2020-01-01 00:00:00 ok\n\n2020-01-01 00:00:05 ok\n"
	require.NoError(t, e.IngestReader(context.Background(), strings.NewReader(input)))

	c := e.Counters()
	assert.Equal(t, 4, c.Read)
	assert.Equal(t, 2, c.Skipped)
	assert.Equal(t, 2, c.Ingested)
	assert.Equal(t, 1, e.Catalog().Len())
}

func TestEngine_EmptyInput(t *testing.T) {
	e := newTestEngine(t, parser.Options{})

	require.NoError(t, e.IngestReader(context.Background(), strings.NewReader("")))

	assert.Zero(t, e.Catalog().Len())
	assert.Zero(t, e.Table().Len())
	assert.False(t, e.Aligner().Seeded())
	assert.Zero(t, e.Aligner().Latest())
}

func TestEngine_CancelledContextStopsReading(t *testing.T) {
	e := newTestEngine(t, parser.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.IngestReader(ctx, strings.NewReader("2020-01-01 00:00:00 a\n2020-01-01 00:00:01 b\n"))
	require.NoError(t, err)
	assert.Zero(t, e.Counters().Read)
}

func TestEngine_TimeRange(t *testing.T) {
	since := time.Date(2020, 1, 1, 0, 1, 0, 0, time.UTC)
	until := time.Date(2020, 1, 1, 0, 2, 0, 0, time.UTC)
	e := newTestEngine(t, parser.Options{}, WithTimeRange(since, until))

	for _, l := range []string{
		"2020-01-01 00:00:59 early",
		"2020-01-01 00:01:00 inside",
		"2020-01-01 00:02:00 inside",
		"2020-01-01 00:02:01 late",
	} {
		e.Ingest(l)
	}

	c := e.Counters()
	assert.Equal(t, 2, c.Ingested)
	assert.Equal(t, 2, c.Filtered)
	assert.Equal(t, since.Unix(), e.Aligner().Latest(), "filtered lines must not seed the aligner")
}

func TestEngine_MaskingCollapsesVariants(t *testing.T) {
	m, err := mask.New([]string{"ipv4", "number"}, false)
	require.NoError(t, err)
	e := newTestEngine(t, parser.Options{}, WithSimilarity(1), WithMasker(m))

	e.Ingest("2020-01-01 00:00:00 retry 1 to 10.0.0.1")
	e.Ingest("2020-01-01 00:00:01 retry 2 to 10.0.0.2")

	require.Equal(t, 1, e.Catalog().Len())
	entry, _ := e.Catalog().Entry(0)
	assert.Equal(t, "retry <NUM> to <IPV4>", entry.Text())
}

func TestEngine_ObserverAndExplain(t *testing.T) {
	var seen []Assignment
	var lines []int
	e := newTestEngine(t, parser.Options{}, WithObserver(func(rec parser.Record, a Assignment) {
		seen = append(seen, a)
		lines = append(lines, rec.Line)
	}))

	input := "2020-01-01 00:00:00 disk sda1 is almost full\nnoise\n2020-01-01 00:00:02 disk sdb1 is almost full\n"
	require.NoError(t, e.IngestReader(context.Background(), strings.NewReader(input)))

	require.Len(t, seen, 2)
	assert.True(t, seen[0].IsNew)
	assert.False(t, seen[1].IsNew)
	assert.Equal(t, []int{1, 3}, lines)

	c, ok := e.Explain("disk sdc1 is almost full")
	assert.True(t, ok)
	assert.Equal(t, 0, c.Index)
	assert.Equal(t, 1, c.Distance)

	c, ok = e.Explain("completely different words here now")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Index)
	assert.Equal(t, 1, e.Catalog().Len(), "Explain must not register")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	p, err := parser.New(parser.Options{})
	require.NoError(t, err)

	_, err = New(p, WithSimilarity(0))
	assert.Error(t, err)

	_, err = New(p, WithSliceWidth(time.Millisecond))
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		SliceWidth: "1",
		Similarity: 0.8,
		TimeFormat: "%F %T",
		Timezone:   "UTC",
		Match:      `^(\S+) (\S+ \S+) (.*)$`,
		Replace:    "${2} ${3}",
		Sort:       "text",
		Mask:       config.MaskConfig{Enabled: true, Patterns: []string{"number"}},
	}

	e, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, e.Aligner().Width())
	assert.Equal(t, time.UTC, e.Location())

	_, ok := e.Ingest("host-1 2020-01-01 00:00:00 served 12 requests")
	require.True(t, ok)
	entry, _ := e.Catalog().Entry(0)
	assert.Equal(t, "served <NUM> requests", entry.Text())

	cfg.Replace = "${9}"
	_, err = NewFromConfig(cfg)
	assert.ErrorIs(t, err, parser.ErrInvalidReplace)

	cfg.Replace = "${0}"
	cfg.Mask.Patterns = []string{"nope"}
	_, err = NewFromConfig(cfg)
	assert.Error(t, err)
}

func TestEngine_ExplainEmptyCatalog(t *testing.T) {
	e := newTestEngine(t, parser.Options{})

	c, ok := e.Explain("anything at all")
	assert.False(t, ok)
	assert.Equal(t, -1, c.Index)
}
