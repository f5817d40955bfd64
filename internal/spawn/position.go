// SPDX-License-Identifier: MIT
package spawn

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Spawn volume. Lower bounds are inclusive, upper bounds exclusive.
const (
	MinRadialCount = 5
	MaxRadialCount = 15
	MinRadius      = 2.0
	MaxRadius      = 5.0
	MinDepth       = -30.0
	MaxDepth       = -25.0
	SingleExtent   = 5.0 // Single spawns fall in x, y in [-SingleExtent, SingleExtent).
)

// Rand is the subset of *rand.Rand used by the generators.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// Position is a point in game space. Z is depth; negative is in front of the
// camera.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Batch is the set of positions produced by one spawn event.
type Batch struct {
	ID        uuid.UUID  `json:"id"`
	Source    Source     `json:"source"`
	Positions []Position `json:"positions"`
	CreatedAt time.Time  `json:"created_at"`
}

// PolarToCartesian converts an angle in degrees and a radius to x, y.
func PolarToCartesian(radius, degrees float64) (x, y float64) {
	rad := degrees * math.Pi / 180
	return radius * math.Cos(rad), radius * math.Sin(rad)
}

// Radial places n positions on a circle of the given radius at depth z.
// Position i sits at (360/n)*(i+1) degrees, so the last one lands on 0.
func Radial(n int, radius, z float64) []Position {
	if n <= 0 {
		return nil
	}
	step := 360.0 / float64(n)
	positions := make([]Position, n)
	for i := range positions {
		x, y := PolarToCartesian(radius, step*float64(i+1))
		positions[i] = Position{X: x, Y: y, Z: z}
	}
	return positions
}

// RadialBatch draws n, radius and depth from rng and builds a timer batch.
func RadialBatch(rng Rand, now time.Time) Batch {
	n := MinRadialCount + rng.IntN(MaxRadialCount-MinRadialCount)
	radius := uniform(rng, MinRadius, MaxRadius)
	z := uniform(rng, MinDepth, MaxDepth)
	return Batch{
		ID:        uuid.New(),
		Source:    SourceTimer,
		Positions: Radial(n, radius, z),
		CreatedAt: now,
	}
}

// Single draws one position uniformly from the peak spawn box.
func Single(rng Rand) Position {
	return Position{
		X: uniform(rng, -SingleExtent, SingleExtent),
		Y: uniform(rng, -SingleExtent, SingleExtent),
		Z: uniform(rng, MinDepth, MaxDepth),
	}
}

func uniform(rng Rand, lo, hi float64) float64 {
	v := lo + (hi-lo)*rng.Float64()
	// Float64 is in [0, 1) but the sum can still round up to hi.
	if v >= hi {
		v = math.Nextafter(hi, lo)
	}
	return v
}
