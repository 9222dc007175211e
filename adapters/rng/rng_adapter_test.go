package rng

import (
	"context"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsim/domain/core"
)

func draw(t *testing.T, f func() float64, n int) []float64 {
	t.Helper()
	out := make([]float64, n)
	for i := range out {
		out[i] = f()
	}
	return out
}

func TestStream_Deterministic(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter()

	r1, err := a.Stream(ctx, "many_trials", 5, 42)
	require.NoError(t, err)
	r2, err := a.Stream(ctx, "many_trials", 5, 42)
	require.NoError(t, err)
	assert.Equal(t, draw(t, r1.Float64, 16), draw(t, r2.Float64, 16))

	r3, err := a.Stream(ctx, "many_trials", 5, 43)
	require.NoError(t, err)
	r4, err := a.Stream(ctx, "many_trials", 5, 42)
	require.NoError(t, err)
	assert.NotEqual(t, draw(t, r3.Float64, 16), draw(t, r4.Float64, 16))
}

func TestSplitmix64_SeparatesNeighbours(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := uint64(0); i < 1024; i++ {
		v := splitmix64(i)
		assert.False(t, seen[v], "collision at %d", i)
		seen[v] = true
	}
	// Adjacent inputs should differ in many bits, not just the lowest.
	diff := splitmix64(0) ^ splitmix64(1)
	assert.Greater(t, bits.OnesCount64(diff), 16)
}

func TestStream_IndicesAreDistinct(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter()

	seen := make(map[float64]int)
	for i := 0; i < 256; i++ {
		r, err := a.Stream(ctx, "many_trials", i, 7)
		require.NoError(t, err)
		first := r.Float64()
		if prev, ok := seen[first]; ok {
			t.Fatalf("streams %d and %d start with the same draw", prev, i)
		}
		seen[first] = i
	}
}

func TestStream_NameSeparatesOperations(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter()

	r1, err := a.Stream(ctx, "many_trials", 3, 7)
	require.NoError(t, err)
	r2, err := a.Stream(ctx, "coverage", 3, 7)
	require.NoError(t, err)
	assert.NotEqual(t, draw(t, r1.Float64, 8), draw(t, r2.Float64, 8))
}

func TestStream_Errors(t *testing.T) {
	a := NewAdapter()

	_, err := a.Stream(context.Background(), "many_trials", -1, 7)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Stream(ctx, "many_trials", 0, 7)
	assert.ErrorIs(t, err, context.Canceled)
}
