package render

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"propsim/domain/core"
	"propsim/domain/sampling"
	"propsim/internal"
	"propsim/ports"
)

// TextRenderer draws histograms and vertical markers as plain text.
type TextRenderer struct {
	out      io.Writer
	bins     int
	barWidth int
	logger   *internal.Logger
}

var _ ports.RendererPort = (*TextRenderer)(nil)

type marker struct {
	label string
	value float64
}

// NewTextRenderer creates a renderer writing to out.
func NewTextRenderer(out io.Writer, bins, barWidth int, logger *internal.Logger) (*TextRenderer, error) {
	if bins <= 0 {
		return nil, core.NewInvalidArgumentError(core.ErrInvalidHistogramBin, "bins", bins)
	}
	if barWidth <= 0 {
		return nil, core.NewInvalidArgumentError(core.ErrInvalidHistogramBin, "bar_width", barWidth)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &TextRenderer{out: out, bins: bins, barWidth: barWidth, logger: logger}, nil
}

// RenderDistribution draws a histogram of values with optional true-value and
// empirical percentile markers.
func (r *TextRenderer) RenderDistribution(values []float64, m ports.DistributionMarkers) {
	sorted := finiteSorted(values)

	var marks []marker
	if m.TrueValue != nil {
		marks = append(marks, marker{"true value", *m.TrueValue})
	}
	if m.PercentileBounds != nil {
		b, err := sampling.PercentileBounds(sorted, *m.PercentileBounds)
		if err != nil {
			r.logger.Warn("percentile markers skipped: %v", err)
		} else {
			label := fmt.Sprintf("%dth percentile", m.PercentileBounds.Percent())
			marks = append(marks, marker{label + " (lower)", b.Lower}, marker{label + " (upper)", b.Upper})
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "distribution of %d trials\n", len(sorted))
	writeMarkers(&b, marks)
	r.writeHistogram(&b, sorted, marks)
	r.flush(b.String())
}

// RenderSingleTrial draws the observed value, its normal-approximation bounds,
// the true value and an optional background histogram.
func (r *TextRenderer) RenderSingleTrial(observedValue, standardError float64, m ports.SingleTrialMarkers) {
	marks := []marker{{"observed value", observedValue}}
	if m.Confidence != nil {
		b, err := sampling.NormalBounds(observedValue, standardError, *m.Confidence)
		if err != nil {
			r.logger.Warn("confidence markers skipped: %v", err)
		} else {
			label := fmt.Sprintf("%d%% confidence interval", m.Confidence.Percent())
			marks = append(marks, marker{label + " (lower)", b.Lower}, marker{label + " (upper)", b.Upper})
		}
	}
	if m.TrueValue != nil {
		marks = append(marks, marker{"true value", *m.TrueValue})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "single trial: observed=%.4f stderr=%.4f\n", observedValue, standardError)
	writeMarkers(&b, marks)
	if len(m.Background) > 0 {
		r.writeHistogram(&b, finiteSorted(m.Background), marks)
	}
	r.flush(b.String())
}

func writeMarkers(b *strings.Builder, marks []marker) {
	for _, mk := range marks {
		fmt.Fprintf(b, "  | %-32s %.4f\n", mk.label, mk.value)
	}
}

// writeHistogram bins sorted values over an axis wide enough to hold every
// marker, then prints one bar per bin with the labels of markers inside it.
func (r *TextRenderer) writeHistogram(b *strings.Builder, sorted []float64, marks []marker) {
	if len(sorted) == 0 {
		b.WriteString("  (no data)\n")
		return
	}

	lo, hi := sorted[0], sorted[len(sorted)-1]
	for _, mk := range marks {
		if math.IsNaN(mk.value) || math.IsInf(mk.value, 0) {
			continue
		}
		lo = math.Min(lo, mk.value)
		hi = math.Max(hi, mk.value)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	dividers := make([]float64, r.bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram needs every value strictly below the last divider.
	dividers[r.bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)
	peak := floats.Max(counts)

	for i, c := range counts {
		bar := int(math.Round(c / peak * float64(r.barWidth)))
		fmt.Fprintf(b, "  [%.4f, %.4f) %8d %-*s%s\n",
			dividers[i], dividers[i+1], int(c), r.barWidth, strings.Repeat("#", bar),
			binLabels(marks, dividers[i], dividers[i+1]))
	}
}

func binLabels(marks []marker, lo, hi float64) string {
	var labels []string
	for _, mk := range marks {
		if mk.value >= lo && mk.value < hi {
			labels = append(labels, mk.label)
		}
	}
	if len(labels) == 0 {
		return ""
	}
	return " <- " + strings.Join(labels, ", ")
}

func (r *TextRenderer) flush(s string) {
	if _, err := io.WriteString(r.out, s); err != nil {
		r.logger.Warn("render write failed: %v", err)
	}
}

func finiteSorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
