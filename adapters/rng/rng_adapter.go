package rng

import (
	"context"
	"math/rand/v2"

	"propsim/domain/core"
	"propsim/ports"
)

// Adapter derives PCG streams from (operation name, seed, trial index).
type Adapter struct{}

var _ ports.RNGPort = (*Adapter)(nil)

// NewAdapter returns the deterministic RNG adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Stream gives trial index its own PCG generator. The name is hashed into the
// seed word and the index is scrambled into the second state word, so neighbouring
// indices start from unrelated states.
func (a *Adapter) Stream(ctx context.Context, name string, index int, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, core.NewInvalidArgumentError(core.ErrInvalidSampleCount, "stream_index", index)
	}
	seed := mixSeed(name, baseSeed)
	return rand.New(rand.NewPCG(seed, splitmix64(seed^uint64(index)))), nil
}

func mixSeed(name string, seed int64) uint64 {
	return uint64(hashString(name))<<32 ^ uint64(seed)
}

// splitmix64 is a bijective finalizer; distinct inputs give distinct outputs.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
