package render

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsim/domain/core"
	"propsim/domain/sampling"
	"propsim/internal"
	"propsim/ports"
)

var countPattern = regexp.MustCompile(`^\s+\[[-0-9.]+, [-0-9.]+\)\s+(\d+)`)

func binCounts(t *testing.T, out string) []int {
	t.Helper()
	var counts []int
	for _, line := range strings.Split(out, "\n") {
		m := countPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		counts = append(counts, n)
	}
	return counts
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func newRenderer(t *testing.T, w *bytes.Buffer, bins int) *TextRenderer {
	t.Helper()
	r, err := NewTextRenderer(w, bins, 20, internal.Discard())
	require.NoError(t, err)
	return r
}

func ptr[T any](v T) *T { return &v }

func TestNewTextRenderer_Validates(t *testing.T) {
	_, err := NewTextRenderer(&bytes.Buffer{}, 0, 10, nil)
	assert.ErrorIs(t, err, core.ErrInvalidHistogramBin)
	_, err = NewTextRenderer(&bytes.Buffer{}, 10, 0, nil)
	assert.ErrorIs(t, err, core.ErrInvalidHistogramBin)
}

func TestRenderDistribution_CountsAndMarkers(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(t, &buf, 5)

	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i) / 100
	}
	r.RenderDistribution(values, ports.DistributionMarkers{
		TrueValue:        ptr(0.5),
		PercentileBounds: ptr(sampling.ConfidenceLevel(0.95)),
	})

	out := buf.String()
	counts := binCounts(t, out)
	assert.Len(t, counts, 5)
	assert.Equal(t, 100, sum(counts))
	assert.Contains(t, out, "distribution of 100 trials")
	assert.Contains(t, out, "true value")
	assert.Contains(t, out, "95th percentile (lower)")
	assert.Contains(t, out, "0.0300")
	assert.Contains(t, out, "0.9700")
}

func TestRenderDistribution_ConstantValues(t *testing.T) {
	var buf bytes.Buffer
	newRenderer(t, &buf, 3).RenderDistribution([]float64{0.2, 0.2, 0.2}, ports.DistributionMarkers{})

	counts := binCounts(t, buf.String())
	assert.Equal(t, 3, sum(counts))
}

func TestRenderDistribution_Empty(t *testing.T) {
	var buf bytes.Buffer
	newRenderer(t, &buf, 3).RenderDistribution(nil, ports.DistributionMarkers{
		PercentileBounds: ptr(sampling.ConfidenceLevel(0.95)),
	})
	assert.Contains(t, buf.String(), "(no data)")
}

func TestRenderSingleTrial_Markers(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(t, &buf, 4)

	r.RenderSingleTrial(0.8, 0.02, ports.SingleTrialMarkers{
		Confidence: ptr(sampling.ConfidenceLevel(0.95)),
		TrueValue:  ptr(0.9),
		Background: []float64{0.75, 0.78, 0.8, 0.82, 0.85},
	})

	out := buf.String()
	assert.Contains(t, out, "observed value")
	assert.Contains(t, out, "95% confidence interval (lower)")
	assert.Contains(t, out, "0.7608")
	assert.Contains(t, out, "0.8392")
	assert.Contains(t, out, "true value")
	assert.Equal(t, 5, sum(binCounts(t, out)))
	// The true value sits at the top of the axis and must land in the last bin.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines[len(lines)-1], "true value")
}

func TestRenderSingleTrial_NoBackground(t *testing.T) {
	var buf bytes.Buffer
	newRenderer(t, &buf, 4).RenderSingleTrial(0.5, 0.01, ports.SingleTrialMarkers{})
	assert.Empty(t, binCounts(t, buf.String()))
	assert.Contains(t, buf.String(), "observed value")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestRender_WriteFailureIsLoggedNotRaised(t *testing.T) {
	var logs bytes.Buffer
	r, err := NewTextRenderer(failingWriter{}, 4, 10, internal.NewLoggerTo(internal.LogLevelWarn, &logs))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		r.RenderSingleTrial(0.5, 0.01, ports.SingleTrialMarkers{Confidence: ptr(sampling.ConfidenceLevel(2))})
	})
	assert.Contains(t, logs.String(), "confidence markers skipped")
	assert.Contains(t, logs.String(), "render write failed: closed pipe")
}
