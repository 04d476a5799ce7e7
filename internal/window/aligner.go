// Package window buckets timestamps into fixed-width time slices and keeps
// per-slice occurrence counts.
//
// Slices are anchored to the first timestamp observed rather than to the
// epoch, so a run starting at 10:07:13 with a 30 minute width produces
// slices starting at 10:07:13, 10:37:13, and so on.
package window

import (
	"fmt"
	"time"
)

// DefaultWidth is the slice width used when none is configured.
const DefaultWidth = 30 * time.Minute

// Aligner maps Unix timestamps to slice keys. It holds the single current
// slice of a run and the latest slice seen.
type Aligner struct {
	width   int64
	current int64
	latest  int64
	seeded  bool
}

// NewAligner creates an Aligner with the given slice width. The width is
// truncated to whole seconds and must be at least one second.
func NewAligner(width time.Duration) (*Aligner, error) {
	secs := int64(width / time.Second)
	if secs < 1 {
		return nil, fmt.Errorf("slice width must be at least 1s, got %s", width)
	}
	return &Aligner{width: secs}, nil
}

// Align returns the key of the slice containing ts and moves the current
// slice there. The first call seeds the phase of every later slice.
func (a *Aligner) Align(ts int64) int64 {
	if !a.seeded {
		a.current = ts
		a.latest = ts
		a.seeded = true
		return a.current
	}

	if ts < a.current {
		// ceil((current - ts) / width) steps back
		steps := (a.current - ts + a.width - 1) / a.width
		a.current -= steps * a.width
	}
	if ts-a.current >= a.width {
		steps := (ts - a.current) / a.width
		a.current += steps * a.width
	}

	if a.current > a.latest {
		a.latest = a.current
	}
	return a.current
}

// Current returns the key of the active slice.
func (a *Aligner) Current() int64 {
	return a.current
}

// Latest returns the largest slice key produced so far, or 0 before the
// first timestamp.
func (a *Aligner) Latest() int64 {
	return a.latest
}

// Seeded reports whether a timestamp has been aligned yet.
func (a *Aligner) Seeded() bool {
	return a.seeded
}

// Width returns the slice width.
func (a *Aligner) Width() time.Duration {
	return time.Duration(a.width) * time.Second
}

// Seconds returns the slice width in seconds.
func (a *Aligner) Seconds() int64 {
	return a.width
}
