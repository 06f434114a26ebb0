// Package clock converts raw capture timestamps into a monotonic tick
// counter at a configurable resolution.
package clock

import (
	"time"

	"firestige.xyz/strix/internal/log"
)

// DefaultResolution is ticks per second when none is configured.
const DefaultResolution = 1000

// Normalizer repairs non-monotonic capture timestamps. Captures written by
// multi-queue NICs or merged from several sources regularly contain small
// regressions; downstream consumers require non-decreasing time.
type Normalizer struct {
	resolution uint64
	started    bool
	begin      uint64 // tick of the first packet
	end        uint64 // highest tick seen so far
	repaired   uint64
	log        log.Logger
}

// NewNormalizer creates a normalizer at the given ticks-per-second
// resolution; zero selects DefaultResolution.
func NewNormalizer(resolution uint64) *Normalizer {
	if resolution == 0 {
		resolution = DefaultResolution
	}
	return &Normalizer{
		resolution: resolution,
		log:        log.GetLogger(),
	}
}

// Tick converts ts to ticks and clamps regressions to the highest tick seen
// so far. The returned sequence is non-decreasing across calls.
func (n *Normalizer) Tick(ts time.Time) uint64 {
	sec := uint64(ts.Unix())
	usec := uint64(ts.Nanosecond() / 1000)
	tick := sec*n.resolution + usec/(1000000/n.resolution)

	if !n.started {
		n.started = true
		n.begin = tick
		n.end = tick
		return tick
	}

	if tick < n.end {
		n.repaired++
		n.log.WithFields(map[string]interface{}{
			"tick":     tick,
			"end_mark": n.end,
		}).Warn("timestamp regression repaired")
		return n.end
	}

	n.end = tick
	return tick
}

// Resolution returns the configured ticks per second.
func (n *Normalizer) Resolution() uint64 { return n.resolution }

// Begin returns the first packet's tick, zero before any packet.
func (n *Normalizer) Begin() uint64 { return n.begin }

// End returns the highest tick seen so far.
func (n *Normalizer) End() uint64 { return n.end }

// Repaired counts how many regressions were clamped.
func (n *Normalizer) Repaired() uint64 { return n.repaired }
