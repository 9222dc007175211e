package sampling

import (
	"math"
	"sort"

	"propsim/domain/core"
)

// ConfidenceLevel is a two-sided confidence probability in (0,1), e.g. 0.95.
type ConfidenceLevel float64

// Validate rejects levels outside the open interval (0,1).
func (c ConfidenceLevel) Validate() error {
	v := float64(c)
	if math.IsNaN(v) || v <= 0 || v >= 1 {
		return core.NewInvalidArgumentError(core.ErrInvalidConfidence, "confidence", v)
	}
	return nil
}

// TwoSided returns (c+1)/2, the upper-tail cumulative probability.
func (c ConfidenceLevel) TwoSided() float64 {
	return (float64(c) + 1) / 2
}

// Percent returns the level as a whole percentage (0.95 -> 95).
func (c ConfidenceLevel) Percent() int {
	return int(float64(c) * 100)
}

// TrialSummary is the reduction of one simulated trial.
// INVARIANTS:
// - ObservedProportion in [0,1]
// - StandardError >= 0
type TrialSummary struct {
	ObservedProportion float64 `json:"observed_proportion"`
	StandardError      float64 `json:"standard_error"`
	NumObservations    int     `json:"num_observations"`
}

// Bounds is a two-sided interval.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether x lies strictly inside the bounds. A value equal to
// either bound is outside.
func (b Bounds) Contains(x float64) bool {
	return b.Lower < x && x < b.Upper
}

// Width returns Upper - Lower.
func (b Bounds) Width() float64 {
	return b.Upper - b.Lower
}

// TrialDistribution is the ascending set of observed proportions from many
// independent trials. It is immutable; accessors never expose the backing slice.
type TrialDistribution struct {
	runID           core.RunID
	trueValue       float64
	numObservations int
	values          []float64
}

// NewTrialDistribution sorts a copy of values and wraps it.
func NewTrialDistribution(runID core.RunID, trueValue float64, numObservations int, values []float64) TrialDistribution {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return TrialDistribution{
		runID:           runID,
		trueValue:       trueValue,
		numObservations: numObservations,
		values:          sorted,
	}
}

func (d TrialDistribution) RunID() core.RunID    { return d.runID }
func (d TrialDistribution) TrueValue() float64   { return d.trueValue }
func (d TrialDistribution) NumObservations() int { return d.numObservations }
func (d TrialDistribution) Len() int             { return len(d.values) }

// At returns the i-th smallest observed proportion.
func (d TrialDistribution) At(i int) float64 {
	return d.values[i]
}

// Values returns a copy of the sorted proportions.
func (d TrialDistribution) Values() []float64 {
	out := make([]float64, len(d.values))
	copy(out, d.values)
	return out
}

// CoverageReport summarizes how often single-trial intervals contained the true value.
type CoverageReport struct {
	TrueValue       float64         `json:"true_value"`
	NumObservations int             `json:"num_observations"`
	Confidence      ConfidenceLevel `json:"confidence"`
	Trials          int             `json:"trials"`
	Covered         int             `json:"covered"`
	Rate            float64         `json:"rate"`
}

// ValidateProbability rejects anything outside [0,1], including NaN.
func ValidateProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return core.NewInvalidArgumentError(core.ErrInvalidProbability, "true_value", p)
	}
	return nil
}

// ValidateCount rejects non-positive counts.
func ValidateCount(field string, n int) error {
	if n <= 0 {
		return core.NewInvalidArgumentError(core.ErrInvalidSampleCount, field, n)
	}
	return nil
}

// ValidateStdErr rejects negative or NaN standard errors.
func ValidateStdErr(se float64) error {
	if math.IsNaN(se) || se < 0 {
		return core.NewInvalidArgumentError(core.ErrInvalidStdErr, "standard_error", se)
	}
	return nil
}
