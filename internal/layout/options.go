// Package layout implements the force-directed layout engine.
//
// A Simulation settles free nodes around pinned ones with a link force
// (connected nodes pulled toward a rest length) and a centering force, using
// velocity-Verlet style integration with a decaying temperature (alpha).
// The engine only owns numeric position state: after every step it hands an
// immutable Snapshot to the registered tick callback and never touches
// visual primitives.
package layout

import (
	"math"
	"time"
)

// d3-force compatible defaults
const (
	DefaultLinkDistance   = 30.0
	DefaultAlphaMin       = 0.001
	DefaultVelocityDecay  = 0.4
	DefaultCenterStrength = 1.0
	DefaultMaxIterations  = 300
	DefaultSeed           = 1

	initialRadius = 10.0
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Options configures a simulation
type Options struct {
	// Canvas size; the centering force targets its middle
	Width  float64
	Height float64

	LinkDistance   float64
	CenterStrength float64
	AlphaMin       float64
	AlphaDecay     float64 // 0 derives 1 - AlphaMin^(1/300)
	AlphaTarget    float64
	VelocityDecay  float64
	MaxIterations  int // hard cap on ticks; 0 means alpha alone decides

	// Seed drives the jiggle used when link ends coincide
	Seed int64

	// TickInterval paces steps; 0 yields to the scheduler between steps
	TickInterval time.Duration
}

// DefaultOptions returns d3-force compatible options for a canvas
func DefaultOptions(width, height float64) Options {
	return Options{
		Width:          width,
		Height:         height,
		LinkDistance:   DefaultLinkDistance,
		CenterStrength: DefaultCenterStrength,
		AlphaMin:       DefaultAlphaMin,
		VelocityDecay:  DefaultVelocityDecay,
		MaxIterations:  DefaultMaxIterations,
		Seed:           DefaultSeed,
	}
}

// applyDefaults fills zero values. An explicit zero CenterStrength is
// indistinguishable from unset and gets the default.
func (o *Options) applyDefaults() {
	if o.LinkDistance <= 0 {
		o.LinkDistance = DefaultLinkDistance
	}
	if o.CenterStrength == 0 {
		o.CenterStrength = DefaultCenterStrength
	}
	if o.AlphaMin <= 0 {
		o.AlphaMin = DefaultAlphaMin
	}
	if o.AlphaDecay <= 0 {
		o.AlphaDecay = 1 - math.Pow(o.AlphaMin, 1.0/300)
	}
	if o.VelocityDecay <= 0 || o.VelocityDecay >= 1 {
		o.VelocityDecay = DefaultVelocityDecay
	}
	if o.MaxIterations < 0 {
		o.MaxIterations = 0
	}
}
