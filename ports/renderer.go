package ports

import "propsim/domain/sampling"

// DistributionMarkers are the optional annotations for a histogram of many trials.
type DistributionMarkers struct {
	TrueValue        *float64
	PercentileBounds *sampling.ConfidenceLevel
}

// SingleTrialMarkers are the optional annotations for one trial's estimate.
type SingleTrialMarkers struct {
	Confidence *sampling.ConfidenceLevel
	TrueValue  *float64
	Background []float64
}

// RendererPort is a best-effort presentation sink. Implementations must not
// report failures to the caller; the simulation core never depends on them.
type RendererPort interface {
	RenderDistribution(values []float64, markers DistributionMarkers)
	RenderSingleTrial(observedValue, standardError float64, markers SingleTrialMarkers)
}
