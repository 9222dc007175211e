package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propsim/internal/config"
	"propsim/internal/errors"
	"propsim/internal/testkit"
	"propsim/ports"
)

func testConfig() *config.Config {
	return &config.Config{
		Simulation: config.SimulationConfig{
			TrueValue:       0.8,
			NumTrials:       2000,
			NumObservations: 200,
			Confidence:      0.95,
			Seed:            42,
			Workers:         2,
		},
		Render: config.RenderConfig{HistogramBins: 10, BarWidth: 30},
	}
}

func execute(t *testing.T, kit *testkit.TestKit, args ...string) (string, error) {
	t.Helper()
	renderers := func(io.Writer) (ports.RendererPort, error) { return kit.Renderer(), nil }
	root := newRootCmd(testConfig(), kit.Logger(), renderers)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIntervalCommand_SensitivityExample(t *testing.T) {
	kit := testkit.NewTestKit()
	out, err := execute(t, kit, "interval", "--observed", "0.8", "--stderr", "0.02", "--true-value", "0.9")
	require.NoError(t, err)

	assert.Contains(t, out, "95% interval: [0.7608, 0.8392]")
	assert.Contains(t, out, "contains 0.9000: false")

	calls := kit.Renderer().SingleTrialCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, 0.8, calls[0].ObservedValue)
	require.NotNil(t, calls[0].Markers.TrueValue)
	assert.Equal(t, 0.9, *calls[0].Markers.TrueValue)
}

func TestIntervalCommand_WithoutTrueValue(t *testing.T) {
	kit := testkit.NewTestKit()
	out, err := execute(t, kit, "interval", "--observed", "0.5", "--stderr", "0.01")
	require.NoError(t, err)

	assert.NotContains(t, out, "contains")
	calls := kit.Renderer().SingleTrialCalls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Markers.TrueValue)
}

func TestIntervalCommand_InvalidInput(t *testing.T) {
	_, err := execute(t, testkit.NewTestKit(), "interval", "--observed", "0.8", "--stderr=-1")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, 2, exitCode(err))
}

func TestSingleCommand_Deterministic(t *testing.T) {
	out1, err := execute(t, testkit.NewTestKit(), "single", "--seed", "7", "--observations", "500")
	require.NoError(t, err)
	out2, err := execute(t, testkit.NewTestKit(), "single", "--seed", "7", "--observations", "500")
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
	assert.Contains(t, out1, "observed proportion:")
	assert.Contains(t, out1, "95% interval:")
}

func TestSingleCommand_Background(t *testing.T) {
	kit := testkit.NewTestKit()
	_, err := execute(t, kit, "single", "--background-trials", "300", "--observations", "50")
	require.NoError(t, err)

	calls := kit.Renderer().SingleTrialCalls()
	require.Len(t, calls, 1)
	assert.Len(t, calls[0].Markers.Background, 300)
	require.NotNil(t, calls[0].Markers.Confidence)
	assert.InDelta(t, 0.95, float64(*calls[0].Markers.Confidence), 1e-12)
}

func TestSingleCommand_InvalidTrueValue(t *testing.T) {
	_, err := execute(t, testkit.NewTestKit(), "single", "--true-value", "1.2")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestManyCommand(t *testing.T) {
	kit := testkit.NewTestKit()
	out, err := execute(t, kit, "many", "--trials", "1000", "--observations", "100", "--workers", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "trials: 1000 x 100 observations")
	assert.Contains(t, out, "mean=")
	assert.Contains(t, out, "empirical 95% bounds:")
	assert.Contains(t, out, "normal fit 95% bounds:")

	calls := kit.Renderer().DistributionCalls()
	require.Len(t, calls, 1)
	assert.Len(t, calls[0].Values, 1000)
	require.NotNil(t, calls[0].Markers.PercentileBounds)
}

func TestManyCommand_InvalidConfidence(t *testing.T) {
	kit := testkit.NewTestKit()
	_, err := execute(t, kit, "many", "--trials", "10", "--confidence", "1.5")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Empty(t, kit.Renderer().DistributionCalls())
}

func TestCoverageCommand(t *testing.T) {
	out, err := execute(t, testkit.NewTestKit(), "coverage", "--trials", "500", "--observations", "100", "--true-value", "0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "covered: ")
	assert.Contains(t, out, "/500")
	assert.Contains(t, out, "nominal 0.9500")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(errors.ConfigInvalid("bad")))
	assert.Equal(t, 130, exitCode(classify(context.Canceled)))
	assert.Equal(t, 1, exitCode(classify(io.ErrUnexpectedEOF)))
}
