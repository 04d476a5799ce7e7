// Package config provides configuration types and helpers for logfreq.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // timezone names resolve without system zoneinfo
	"unicode/utf8"

	"github.com/spf13/viper"
)

// Default values for every setting.
const (
	DefaultFormat     = "csv"
	DefaultSliceWidth = "30m"
	DefaultSimilarity = 0.8
	DefaultTimeFormat = "2006-01-02 15:04:05"
	DefaultTimezone   = "Local"
	DefaultMatch      = "^.+$"
	DefaultReplace    = "${0}"
	DefaultMinCount   = 1
	DefaultSort       = "text"
)

// SortOrders lists the accepted values of the sort setting.
var SortOrders = []string{"text", "index", "count"}

// Config holds the application-wide configuration.
type Config struct {
	Format      string     `mapstructure:"format"`
	Verbose     bool       `mapstructure:"verbose"`
	Quiet       bool       `mapstructure:"quiet"`
	SliceWidth  string     `mapstructure:"slice_width"`
	Similarity  float64    `mapstructure:"similarity"`
	TimeFormat  string     `mapstructure:"time_format"`
	Timezone    string     `mapstructure:"timezone"`
	Match       string     `mapstructure:"match"`
	Replace     string     `mapstructure:"replace"`
	DummyTokens int        `mapstructure:"dummy_tokens"`
	Cutoff      string     `mapstructure:"cutoff"`
	MinCount    int        `mapstructure:"min_count"`
	Sort        string     `mapstructure:"sort"`
	Mask        MaskConfig `mapstructure:"mask"`
}

// MaskConfig holds configuration for placeholder masking of variable values.
type MaskConfig struct {
	// Enabled controls whether masking runs before clustering
	Enabled bool `mapstructure:"enabled"`

	// Patterns selects which built-in patterns to apply; empty means the defaults
	// Available: uuid, timestamp, email, api_key, mac_address, ipv4, ipv6, hex, number
	Patterns []string `mapstructure:"patterns"`

	// Correlate keeps a short hash of each value in its placeholder
	Correlate bool `mapstructure:"correlate"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("slice_width", DefaultSliceWidth)
	v.SetDefault("similarity", DefaultSimilarity)
	v.SetDefault("time_format", DefaultTimeFormat)
	v.SetDefault("timezone", DefaultTimezone)
	v.SetDefault("match", DefaultMatch)
	v.SetDefault("replace", DefaultReplace)
	v.SetDefault("dummy_tokens", 0)
	v.SetDefault("cutoff", "")
	v.SetDefault("min_count", DefaultMinCount)
	v.SetDefault("sort", DefaultSort)
	v.SetDefault("mask.enabled", false)
	v.SetDefault("mask.patterns", []string{})
	v.SetDefault("mask.correlate", false)
}

// Load decodes the global viper settings into a validated Config.
func Load() (*Config, error) {
	v := viper.GetViper()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that can be checked without compiling
// patterns or reading input.
func (c *Config) Validate() error {
	if c.Similarity <= 0 || c.Similarity > 1 {
		return fmt.Errorf("similarity must be in (0, 1], got %v", c.Similarity)
	}
	if _, err := c.Width(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if utf8.RuneCountInString(c.Cutoff) > 1 {
		return fmt.Errorf("cutoff must be a single character, got %q", c.Cutoff)
	}
	if c.DummyTokens < 0 {
		return fmt.Errorf("dummy_tokens must not be negative, got %d", c.DummyTokens)
	}
	if c.MinCount < 0 {
		return fmt.Errorf("min_count must not be negative, got %d", c.MinCount)
	}
	if !validSort(c.Sort) {
		return fmt.Errorf("invalid sort %q (must be one of %v)", c.Sort, SortOrders)
	}
	return nil
}

// Width returns the parsed slice width.
func (c *Config) Width() (time.Duration, error) {
	w, err := ParseSliceWidth(c.SliceWidth)
	if err != nil {
		return 0, fmt.Errorf("invalid slice_width: %w", err)
	}
	if w < time.Second {
		return 0, fmt.Errorf("slice_width must be at least 1s, got %s", w)
	}
	return w, nil
}

// Location returns the time zone timestamps are read and printed in.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	case "UTC", "utc":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func validSort(s string) bool {
	for _, o := range SortOrders {
		if s == o {
			return true
		}
	}
	return false
}
