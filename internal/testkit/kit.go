package testkit

import (
	"sync"

	"propsim/adapters/rng"
	"propsim/app"
	"propsim/internal"
	"propsim/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	rng      *rng.Adapter
	logger   *internal.Logger
	renderer *RecordingRenderer
}

// NewTestKit creates a kit with a silent logger and a fresh recording renderer
func NewTestKit() *TestKit {
	return &TestKit{
		rng:      rng.NewAdapter(),
		logger:   internal.Discard(),
		renderer: &RecordingRenderer{},
	}
}

// RNGAdapter returns the deterministic RNG adapter
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return t.rng
}

// Logger returns the kit's logger
func (t *TestKit) Logger() *internal.Logger {
	return t.logger
}

// TrialRunner returns a runner seeded with seed
func (t *TestKit) TrialRunner(seed int64, opts ...app.TrialRunnerOption) (*app.TrialRunner, error) {
	opts = append([]app.TrialRunnerOption{app.WithLogger(t.logger)}, opts...)
	return app.NewTrialRunner(t.rng, seed, opts...)
}

// IntervalEvaluator returns an evaluator sharing the kit's logger
func (t *TestKit) IntervalEvaluator() *app.IntervalEvaluator {
	return app.NewIntervalEvaluator(t.logger)
}

// Renderer returns the kit's recording renderer
func (t *TestKit) Renderer() *RecordingRenderer {
	return t.renderer
}

// DistributionCall is one recorded RenderDistribution invocation
type DistributionCall struct {
	Values  []float64
	Markers ports.DistributionMarkers
}

// SingleTrialCall is one recorded RenderSingleTrial invocation
type SingleTrialCall struct {
	ObservedValue float64
	StandardError float64
	Markers       ports.SingleTrialMarkers
}

// RecordingRenderer captures render calls instead of drawing them
type RecordingRenderer struct {
	mu           sync.Mutex
	distribution []DistributionCall
	singleTrial  []SingleTrialCall
}

var _ ports.RendererPort = (*RecordingRenderer)(nil)

func (r *RecordingRenderer) RenderDistribution(values []float64, markers ports.DistributionMarkers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.distribution = append(r.distribution, DistributionCall{Values: append([]float64(nil), values...), Markers: markers})
}

func (r *RecordingRenderer) RenderSingleTrial(observedValue, standardError float64, markers ports.SingleTrialMarkers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.singleTrial = append(r.singleTrial, SingleTrialCall{ObservedValue: observedValue, StandardError: standardError, Markers: markers})
}

// DistributionCalls returns a snapshot of recorded distribution renders
func (r *RecordingRenderer) DistributionCalls() []DistributionCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]DistributionCall(nil), r.distribution...)
}

// SingleTrialCalls returns a snapshot of recorded single-trial renders
func (r *RecordingRenderer) SingleTrialCalls() []SingleTrialCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SingleTrialCall(nil), r.singleTrial...)
}
