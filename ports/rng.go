package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates the deterministic RNG for one trial of a named operation.
	// Streams for distinct indices are statistically independent, so trials may
	// be drawn on any goroutine in any order and still reproduce the same run.
	Stream(ctx context.Context, name string, index int, baseSeed int64) (*rand.Rand, error)
}
