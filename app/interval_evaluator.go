package app

import (
	"context"
	"math/rand/v2"

	"propsim/domain/core"
	"propsim/domain/sampling"
	"propsim/internal"
)

// IntervalEvaluator derives two-sided bounds and checks whether a reference
// value falls inside them. It holds no state besides its logger.
type IntervalEvaluator struct {
	logger *internal.Logger
}

// NewIntervalEvaluator creates an evaluator; a nil logger falls back to the default.
func NewIntervalEvaluator(logger *internal.Logger) *IntervalEvaluator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &IntervalEvaluator{logger: logger}
}

// ConfidenceBounds returns observed ± z·stdErr with z = Φ⁻¹((c+1)/2).
func (e *IntervalEvaluator) ConfidenceBounds(observedValue, standardError float64, confidence sampling.ConfidenceLevel) (sampling.Bounds, error) {
	return sampling.NormalBounds(observedValue, standardError, confidence)
}

// IsWithinInterval reports lower < trueValue < upper for the trial's normal
// bounds. A trueValue sitting exactly on a bound is outside.
func (e *IntervalEvaluator) IsWithinInterval(trial sampling.TrialSummary, trueValue float64, confidence sampling.ConfidenceLevel) (bool, error) {
	b, err := e.ConfidenceBounds(trial.ObservedProportion, trial.StandardError, confidence)
	if err != nil {
		return false, err
	}
	return b.Contains(trueValue), nil
}

// PercentileBounds reads empirical bounds from the sorted distribution.
func (e *IntervalEvaluator) PercentileBounds(dist sampling.TrialDistribution, confidence sampling.ConfidenceLevel) (sampling.Bounds, error) {
	lo, hi, err := sampling.PercentileIndices(dist.Len(), confidence)
	if err != nil {
		return sampling.Bounds{}, err
	}
	return sampling.Bounds{Lower: dist.At(lo), Upper: dist.At(hi)}, nil
}

// NormalBoundsForDistribution fits a normal to the distribution and returns
// its two-sided bounds. It converges to PercentileBounds only as the number of
// trials and observations grow.
func (e *IntervalEvaluator) NormalBoundsForDistribution(dist sampling.TrialDistribution, confidence sampling.ConfidenceLevel) (sampling.Bounds, error) {
	return sampling.SpreadBounds(dist.Values(), confidence)
}

// CoverageStudy draws numTrials independent single trials and counts how many
// normal-approximation intervals contain trueValue.
func (e *IntervalEvaluator) CoverageStudy(
	ctx context.Context,
	runner *TrialRunner,
	trueValue float64,
	numObservations, numTrials int,
	confidence sampling.ConfidenceLevel,
) (sampling.CoverageReport, error) {
	if err := validateTrialInputs(trueValue, numObservations); err != nil {
		return sampling.CoverageReport{}, err
	}
	if err := sampling.ValidateCount("num_trials", numTrials); err != nil {
		return sampling.CoverageReport{}, err
	}
	if err := confidence.Validate(); err != nil {
		return sampling.CoverageReport{}, err
	}

	runID := core.NewRunID()
	e.logger.Debug("coverage run=%s true_value=%.4f trials=%d observations=%d confidence=%.3f",
		runID, trueValue, numTrials, numObservations, float64(confidence))

	hits := make([]bool, numTrials)
	err := runner.fanOut(ctx, streamCoverage, numTrials, numObservations, func(i int, rng *rand.Rand, outcomes []float64) error {
		trial, err := DrawTrial(rng, trueValue, outcomes)
		if err != nil {
			return err
		}
		hits[i], err = e.IsWithinInterval(trial, trueValue, confidence)
		return err
	})
	if err != nil {
		e.logger.Warn("coverage run=%s aborted: %v", runID, err)
		return sampling.CoverageReport{}, err
	}

	covered := 0
	for _, hit := range hits {
		if hit {
			covered++
		}
	}

	report := sampling.CoverageReport{
		TrueValue:       trueValue,
		NumObservations: numObservations,
		Confidence:      confidence,
		Trials:          numTrials,
		Covered:         covered,
		Rate:            float64(covered) / float64(numTrials),
	}
	e.logger.Debug("coverage run=%s covered %d/%d (%.4f)", runID, covered, numTrials, report.Rate)
	return report, nil
}
