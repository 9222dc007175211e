package sampling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"propsim/domain/core"
)

// CriticalValue returns z = Φ⁻¹((c+1)/2) for a two-sided level c.
func CriticalValue(c ConfidenceLevel) (float64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return distuv.UnitNormal.Quantile(c.TwoSided()), nil
}

// NormalBounds returns observed ± z·stdErr.
func NormalBounds(observed, stdErr float64, c ConfidenceLevel) (Bounds, error) {
	if err := ValidateStdErr(stdErr); err != nil {
		return Bounds{}, err
	}
	z, err := CriticalValue(c)
	if err != nil {
		return Bounds{}, err
	}
	margin := z * stdErr
	return Bounds{Lower: observed - margin, Upper: observed + margin}, nil
}

// PercentileIndices returns the positions in an ascending sample of length n
// used as empirical bounds. With k = trunc(n·(c+1)/2) the upper bound sits at
// index k and the lower bound k positions from the end, i.e. (n-k) mod n.
// k is clamped to n-1 so that it always addresses an element.
func PercentileIndices(n int, c ConfidenceLevel) (lower, upper int, err error) {
	if n <= 0 {
		return 0, 0, core.NewInvalidArgumentError(core.ErrEmptyDistribution, "len", n)
	}
	if err := c.Validate(); err != nil {
		return 0, 0, err
	}
	k := int(float64(n) * c.TwoSided())
	if k > n-1 {
		k = n - 1
	}
	return (n - k) % n, k, nil
}

// PercentileBounds reads empirical bounds straight from an ascending sample.
func PercentileBounds(sorted []float64, c ConfidenceLevel) (Bounds, error) {
	lo, hi, err := PercentileIndices(len(sorted), c)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Lower: sorted[lo], Upper: sorted[hi]}, nil
}

// SpreadBounds fits a normal to a sample (mean, population std dev) and returns
// mean ± z·sd. It is the parametric counterpart of PercentileBounds.
func SpreadBounds(values []float64, c ConfidenceLevel) (Bounds, error) {
	if len(values) == 0 {
		return Bounds{}, core.NewInvalidArgumentError(core.ErrEmptyDistribution, "len", 0)
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return Bounds{}, err
	}
	sd, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return Bounds{}, err
	}
	if math.IsNaN(sd) {
		sd = 0
	}
	return NormalBounds(mean, sd, c)
}
