package app

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"propsim/domain/core"
	"propsim/domain/sampling"
	"propsim/internal"
	"propsim/ports"
)

const (
	DefaultNumTrials       = 50000
	DefaultNumObservations = 200

	streamSingleTrial = "single_trial"
	streamManyTrials  = "many_trials"
	streamCoverage    = "coverage"
)

// TrialRunner simulates Bernoulli trials and reduces them to proportion estimates
type TrialRunner struct {
	rngPort ports.RNGPort
	seed    int64
	workers int
	logger  *internal.Logger

	// singleCalls numbers RunSingleTrial calls; call n draws from stream n.
	singleCalls atomic.Int64
}

// TrialRunnerOption configures a TrialRunner
type TrialRunnerOption func(*TrialRunner)

// WithWorkers bounds the number of goroutines used for many-trial runs.
func WithWorkers(n int) TrialRunnerOption {
	return func(r *TrialRunner) { r.workers = n }
}

// WithLogger replaces the default logger.
func WithLogger(l *internal.Logger) TrialRunnerOption {
	return func(r *TrialRunner) { r.logger = l }
}

// NewTrialRunner creates a runner whose every stream is derived from seed
func NewTrialRunner(rngPort ports.RNGPort, seed int64, opts ...TrialRunnerOption) (*TrialRunner, error) {
	r := &TrialRunner{
		rngPort: rngPort,
		seed:    seed,
		workers: runtime.GOMAXPROCS(0),
		logger:  internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers <= 0 {
		return nil, core.NewInvalidArgumentError(core.ErrInvalidWorkerCount, "workers", r.workers)
	}
	return r, nil
}

// Seed returns the base seed.
func (r *TrialRunner) Seed() int64 { return r.seed }

// Workers returns the goroutine bound for many-trial runs.
func (r *TrialRunner) Workers() int { return r.workers }

// RunSingleTrial draws numObservations outcomes. Successive calls on one runner
// are independent trials; two runners with the same seed produce the same
// sequence of summaries.
func (r *TrialRunner) RunSingleTrial(ctx context.Context, trueValue float64, numObservations int) (sampling.TrialSummary, error) {
	if err := validateTrialInputs(trueValue, numObservations); err != nil {
		return sampling.TrialSummary{}, err
	}
	call := r.singleCalls.Add(1) - 1
	rng, err := r.rngPort.Stream(ctx, streamSingleTrial, int(call), r.seed)
	if err != nil {
		return sampling.TrialSummary{}, err
	}
	return DrawTrial(rng, trueValue, make([]float64, numObservations))
}

// RunManyTrialsDefault runs DefaultNumTrials trials of DefaultNumObservations each.
func (r *TrialRunner) RunManyTrialsDefault(ctx context.Context, trueValue float64) (sampling.TrialDistribution, error) {
	return r.RunManyTrials(ctx, trueValue, DefaultNumTrials, DefaultNumObservations)
}

// RunManyTrials repeats the proportion computation numTrials times and returns
// the observed proportions sorted ascending. Trial i always uses stream i, so the
// result does not depend on the worker count.
func (r *TrialRunner) RunManyTrials(ctx context.Context, trueValue float64, numTrials, numObservations int) (sampling.TrialDistribution, error) {
	if err := validateTrialInputs(trueValue, numObservations); err != nil {
		return sampling.TrialDistribution{}, err
	}
	if err := sampling.ValidateCount("num_trials", numTrials); err != nil {
		return sampling.TrialDistribution{}, err
	}

	runID := core.NewRunID()
	start := time.Now()
	r.logger.Debug("many trials run=%s true_value=%.4f trials=%d observations=%d workers=%d",
		runID, trueValue, numTrials, numObservations, r.workers)

	values := make([]float64, numTrials)
	err := r.fanOut(ctx, streamManyTrials, numTrials, numObservations, func(i int, rng *rand.Rand, outcomes []float64) error {
		fillOutcomes(rng, trueValue, outcomes)
		mean, err := stats.Mean(outcomes)
		if err != nil {
			return err
		}
		values[i] = mean
		return nil
	})
	if err != nil {
		r.logger.Warn("many trials run=%s aborted: %v", runID, err)
		return sampling.TrialDistribution{}, err
	}

	dist := sampling.NewTrialDistribution(runID, trueValue, numObservations, values)
	r.logger.Debug("many trials run=%s finished in %v", runID, time.Since(start))
	return dist, nil
}

// fanOut splits [0, numTrials) into contiguous chunks, one goroutine per chunk.
// Each goroutine owns a single outcome buffer of numObservations entries that is
// overwritten trial after trial.
func (r *TrialRunner) fanOut(
	ctx context.Context,
	stream string,
	numTrials, numObservations int,
	fn func(i int, rng *rand.Rand, outcomes []float64) error,
) error {
	workers := min(r.workers, numTrials)
	chunk := (numTrials + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < numTrials; lo += chunk {
		hi := min(lo+chunk, numTrials)
		g.Go(func() error {
			r.logger.Trace("%s chunk [%d, %d)", stream, lo, hi)
			outcomes := make([]float64, numObservations)
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rng, err := r.rngPort.Stream(gctx, stream, i, r.seed)
				if err != nil {
					return err
				}
				if err := fn(i, rng, outcomes); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// DrawTrial fills outcomes with Bernoulli(trueValue) draws (uniform < trueValue)
// and reduces them to the sample mean and the standard error
// σ/√N, where σ is the population (divisor N) standard deviation.
func DrawTrial(rng *rand.Rand, trueValue float64, outcomes []float64) (sampling.TrialSummary, error) {
	if err := validateTrialInputs(trueValue, len(outcomes)); err != nil {
		return sampling.TrialSummary{}, err
	}
	fillOutcomes(rng, trueValue, outcomes)

	mean, err := stats.Mean(outcomes)
	if err != nil {
		return sampling.TrialSummary{}, err
	}
	sd, err := stats.StandardDeviationPopulation(outcomes)
	if err != nil {
		return sampling.TrialSummary{}, err
	}

	n := len(outcomes)
	return sampling.TrialSummary{
		ObservedProportion: mean,
		StandardError:      sd / math.Sqrt(float64(n)),
		NumObservations:    n,
	}, nil
}

func fillOutcomes(rng *rand.Rand, trueValue float64, outcomes []float64) {
	for i := range outcomes {
		if rng.Float64() < trueValue {
			outcomes[i] = 1
		} else {
			outcomes[i] = 0
		}
	}
}

func validateTrialInputs(trueValue float64, numObservations int) error {
	if err := sampling.ValidateProbability(trueValue); err != nil {
		return err
	}
	return sampling.ValidateCount("num_observations", numObservations)
}
