package profiling

import (
	"github.com/montanaflynn/stats"

	"propsim/domain/core"
)

// Summary holds shape statistics of a simulated sampling distribution
type Summary struct {
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"` // population (divisor N)
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	IQR      float64 `json:"iqr"`
	Skewness float64 `json:"skewness"`
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// Summarize computes the summary statistics of data
func (da *DistributionAnalyzer) Summarize(data []float64) (Summary, error) {
	if len(data) == 0 {
		return Summary{}, core.NewInvalidArgumentError(core.ErrEmptyDistribution, "len", 0)
	}

	s := Summary{N: len(data)}
	var err error

	if s.Mean, err = stats.Mean(data); err != nil {
		return Summary{}, err
	}
	if s.StdDev, err = stats.StandardDeviationPopulation(data); err != nil {
		return Summary{}, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return Summary{}, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return Summary{}, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return Summary{}, err
	}

	// Quartiles need at least two points
	if len(data) > 1 {
		q, err := stats.Quartile(data)
		if err != nil {
			return Summary{}, err
		}
		s.Q25, s.Q75 = q.Q1, q.Q3
	} else {
		s.Q25, s.Q75 = data[0], data[0]
	}
	s.IQR = s.Q75 - s.Q25
	s.Skewness = calculateSkewness(data, s.Mean, s.StdDev)

	return s, nil
}

// calculateSkewness computes the population moment coefficient of skewness.
// A constant sample has zero skew.
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}
	return sumCubedDeviations / n
}
