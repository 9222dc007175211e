package main

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"propsim/adapters/rng"
	"propsim/app"
	"propsim/domain/core"
	"propsim/domain/sampling"
	"propsim/internal"
	"propsim/internal/config"
	"propsim/internal/errors"
	"propsim/internal/profiling"
	"propsim/ports"
)

func newRootCmd(cfg *config.Config, logger *internal.Logger, renderers rendererFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "propsim",
		Short:         "Monte Carlo sampling distributions and confidence intervals for a proportion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newSingleCmd(cfg, logger, renderers),
		newManyCmd(cfg, logger, renderers),
		newIntervalCmd(cfg, logger, renderers),
		newCoverageCmd(cfg, logger),
	)
	return rootCmd
}

func newSingleCmd(cfg *config.Config, logger *internal.Logger, renderers rendererFactory) *cobra.Command {
	sim := cfg.Simulation
	var (
		trueValue        float64
		numObservations  int
		confidence       float64
		seed             int64
		backgroundTrials int
	)

	cmd := &cobra.Command{
		Use:   "single",
		Short: "Run one trial and check its confidence interval against the true value",
		Long: `Draw one trial of Bernoulli outcomes, estimate the proportion and its
normal-approximation standard error, and test whether the true value lies
strictly inside the two-sided interval.

Example: propsim single --true-value 0.8 --observations 200 --confidence 0.95 --background-trials 5000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := newRunner(seed, sim.Workers, logger)
			if err != nil {
				return classify(err)
			}
			evaluator := app.NewIntervalEvaluator(logger)
			level := sampling.ConfidenceLevel(confidence)

			trial, err := runner.RunSingleTrial(ctx, trueValue, numObservations)
			if err != nil {
				return classify(err)
			}
			bounds, err := evaluator.ConfidenceBounds(trial.ObservedProportion, trial.StandardError, level)
			if err != nil {
				return classify(err)
			}
			inside, err := evaluator.IsWithinInterval(trial, trueValue, level)
			if err != nil {
				return classify(err)
			}

			var background []float64
			if backgroundTrials > 0 {
				dist, err := runner.RunManyTrials(ctx, trueValue, backgroundTrials, numObservations)
				if err != nil {
					return classify(err)
				}
				background = dist.Values()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "observed proportion: %.4f\n", trial.ObservedProportion)
			fmt.Fprintf(out, "standard error:      %.4f\n", trial.StandardError)
			fmt.Fprintf(out, "%d%% interval:        [%.4f, %.4f]\n", level.Percent(), bounds.Lower, bounds.Upper)
			fmt.Fprintf(out, "contains %.4f:     %t\n", trueValue, inside)

			renderer, err := renderers(out)
			if err != nil {
				return classify(err)
			}
			renderer.RenderSingleTrial(trial.ObservedProportion, trial.StandardError, ports.SingleTrialMarkers{
				Confidence: &level,
				TrueValue:  &trueValue,
				Background: background,
			})
			return nil
		},
	}

	cmd.Flags().Float64Var(&trueValue, "true-value", sim.TrueValue, "True probability of a positive outcome")
	cmd.Flags().IntVar(&numObservations, "observations", sim.NumObservations, "Observations per trial")
	cmd.Flags().Float64Var(&confidence, "confidence", float64(sim.Confidence), "Two-sided confidence level in (0,1)")
	cmd.Flags().Int64Var(&seed, "seed", sim.Seed, "Random seed for deterministic operations")
	cmd.Flags().IntVar(&backgroundTrials, "background-trials", 0, "Also draw this many trials as a background histogram")
	return cmd
}

func newManyCmd(cfg *config.Config, logger *internal.Logger, renderers rendererFactory) *cobra.Command {
	sim := cfg.Simulation
	var (
		trueValue       float64
		numTrials       int
		numObservations int
		confidence      float64
		seed            int64
		workers         int
	)

	cmd := &cobra.Command{
		Use:   "many",
		Short: "Simulate the sampling distribution of the observed proportion",
		Long: `Repeat the single-trial proportion estimate many times and report the
empirical percentile bounds next to the normal fit of the same distribution.

Example: propsim many --true-value 0.8 --trials 50000 --observations 200 --confidence 0.95 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(seed, workers, logger)
			if err != nil {
				return classify(err)
			}
			evaluator := app.NewIntervalEvaluator(logger)
			level := sampling.ConfidenceLevel(confidence)
			if err := level.Validate(); err != nil {
				return classify(err)
			}

			dist, err := runner.RunManyTrials(cmd.Context(), trueValue, numTrials, numObservations)
			if err != nil {
				return classify(err)
			}
			empirical, err := evaluator.PercentileBounds(dist, level)
			if err != nil {
				return classify(err)
			}
			normal, err := evaluator.NormalBoundsForDistribution(dist, level)
			if err != nil {
				return classify(err)
			}

			summary, err := profiling.NewDistributionAnalyzer().Summarize(dist.Values())
			if err != nil {
				return classify(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trials: %d x %d observations\n", dist.Len(), dist.NumObservations())
			fmt.Fprintf(out, "mean=%.4f sd=%.4f median=%.4f iqr=%.4f skewness=%.4f\n",
				summary.Mean, summary.StdDev, summary.Median, summary.IQR, summary.Skewness)
			fmt.Fprintf(out, "empirical %d%% bounds: [%.4f, %.4f]\n", level.Percent(), empirical.Lower, empirical.Upper)
			fmt.Fprintf(out, "normal fit %d%% bounds: [%.4f, %.4f]\n", level.Percent(), normal.Lower, normal.Upper)

			renderer, err := renderers(out)
			if err != nil {
				return classify(err)
			}
			renderer.RenderDistribution(dist.Values(), ports.DistributionMarkers{
				TrueValue:        &trueValue,
				PercentileBounds: &level,
			})
			return nil
		},
	}

	cmd.Flags().Float64Var(&trueValue, "true-value", sim.TrueValue, "True probability of a positive outcome")
	cmd.Flags().IntVar(&numTrials, "trials", sim.NumTrials, "Number of simulated trials")
	cmd.Flags().IntVar(&numObservations, "observations", sim.NumObservations, "Observations per trial")
	cmd.Flags().Float64Var(&confidence, "confidence", float64(sim.Confidence), "Two-sided confidence level in (0,1)")
	cmd.Flags().Int64Var(&seed, "seed", sim.Seed, "Random seed for deterministic operations")
	cmd.Flags().IntVar(&workers, "workers", sim.Workers, "Goroutines used to draw trials")
	return cmd
}

func newIntervalCmd(cfg *config.Config, logger *internal.Logger, renderers rendererFactory) *cobra.Command {
	var (
		observed   float64
		stdErr     float64
		confidence float64
		trueValue  float64
	)

	cmd := &cobra.Command{
		Use:   "interval",
		Short: "Compute normal-approximation bounds for an observed proportion",
		Long: `Compute observed ± z·stderr with z = Φ⁻¹((confidence+1)/2). When --true-value
is given, also report whether it lies strictly inside the interval.

Example: propsim interval --observed 0.8 --stderr 0.02 --confidence 0.95 --true-value 0.9`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			evaluator := app.NewIntervalEvaluator(logger)
			level := sampling.ConfidenceLevel(confidence)

			bounds, err := evaluator.ConfidenceBounds(observed, stdErr, level)
			if err != nil {
				return classify(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d%% interval: [%.4f, %.4f]\n", level.Percent(), bounds.Lower, bounds.Upper)

			markers := ports.SingleTrialMarkers{Confidence: &level}
			if cmd.Flags().Changed("true-value") {
				inside, err := evaluator.IsWithinInterval(sampling.TrialSummary{
					ObservedProportion: observed,
					StandardError:      stdErr,
				}, trueValue, level)
				if err != nil {
					return classify(err)
				}
				fmt.Fprintf(out, "contains %.4f: %t\n", trueValue, inside)
				markers.TrueValue = &trueValue
			}

			renderer, err := renderers(out)
			if err != nil {
				return classify(err)
			}
			renderer.RenderSingleTrial(observed, stdErr, markers)
			return nil
		},
	}

	cmd.Flags().Float64Var(&observed, "observed", 0, "Observed proportion")
	cmd.Flags().Float64Var(&stdErr, "stderr", 0, "Standard error of the observed proportion")
	cmd.Flags().Float64Var(&confidence, "confidence", float64(cfg.Simulation.Confidence), "Two-sided confidence level in (0,1)")
	cmd.Flags().Float64Var(&trueValue, "true-value", 0, "Reference value to test for containment")
	_ = cmd.MarkFlagRequired("observed")
	_ = cmd.MarkFlagRequired("stderr")
	return cmd
}

func newCoverageCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	sim := cfg.Simulation
	var (
		trueValue       float64
		numTrials       int
		numObservations int
		confidence      float64
		seed            int64
		workers         int
	)

	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Estimate how often single-trial intervals contain the true value",
		Long: `Run many independent single trials and count the normal-approximation
intervals that strictly contain the true value.

Example: propsim coverage --true-value 0.8 --observations 200 --trials 10000 --confidence 0.95`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(seed, workers, logger)
			if err != nil {
				return classify(err)
			}
			report, err := app.NewIntervalEvaluator(logger).CoverageStudy(
				cmd.Context(), runner, trueValue, numObservations, numTrials, sampling.ConfidenceLevel(confidence))
			if err != nil {
				return classify(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "covered: %d/%d\n", report.Covered, report.Trials)
			fmt.Fprintf(out, "coverage rate: %.4f (nominal %.4f)\n", report.Rate, float64(report.Confidence))
			return nil
		},
	}

	cmd.Flags().Float64Var(&trueValue, "true-value", sim.TrueValue, "True probability of a positive outcome")
	cmd.Flags().IntVar(&numTrials, "trials", 10000, "Number of simulated single trials")
	cmd.Flags().IntVar(&numObservations, "observations", sim.NumObservations, "Observations per trial")
	cmd.Flags().Float64Var(&confidence, "confidence", float64(sim.Confidence), "Two-sided confidence level in (0,1)")
	cmd.Flags().Int64Var(&seed, "seed", sim.Seed, "Random seed for deterministic operations")
	cmd.Flags().IntVar(&workers, "workers", sim.Workers, "Goroutines used to draw trials")
	return cmd
}

func newRunner(seed int64, workers int, logger *internal.Logger) (*app.TrialRunner, error) {
	return app.NewTrialRunner(rng.NewAdapter(), seed, app.WithWorkers(workers), app.WithLogger(logger))
}

// classify attaches an exit-relevant code to domain and context errors.
func classify(err error) error {
	switch {
	case core.IsInvalidArgument(err):
		return errors.WithCode(errors.CodeInvalidInput, err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.WithCode(errors.CodeCancelled, err)
	}
	return errors.Wrap(err, "simulation failed")
}
