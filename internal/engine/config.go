package engine

import (
	"github.com/bimmerbailey/logfreq/internal/config"
	"github.com/bimmerbailey/logfreq/internal/mask"
	"github.com/bimmerbailey/logfreq/internal/parser"
)

// NewFromConfig builds the parser, masker and Engine described by cfg.
// Every configuration error surfaces here, before any input is read.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Engine, error) {
	width, err := cfg.Width()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	p, err := parser.New(parser.Options{
		Match:       cfg.Match,
		Replace:     cfg.Replace,
		TimeFormat:  cfg.TimeFormat,
		Location:    loc,
		DummyTokens: cfg.DummyTokens,
		Cutoff:      cfg.Cutoff,
	})
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithSimilarity(cfg.Similarity),
		WithSliceWidth(width),
	}
	if cfg.Mask.Enabled {
		m, err := mask.New(cfg.Mask.Patterns, cfg.Mask.Correlate)
		if err != nil {
			return nil, err
		}
		base = append(base, WithMasker(m))
	}

	return New(p, append(base, opts...)...)
}
