package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"propsim/domain/sampling"
	"propsim/internal"
	"propsim/internal/errors"
)

// Defaults mirror the classic sensitivity example: a 0.8 true rate sampled 200 at a time.
const (
	DefaultTrueValue       = 0.8
	DefaultNumTrials       = 50000
	DefaultNumObservations = 200
	DefaultConfidence      = 0.95
	DefaultSeed            = 42
	DefaultHistogramBins   = 10
)

// Config represents the complete application configuration
type Config struct {
	Simulation SimulationConfig
	Render     RenderConfig
	Log        LogConfig
}

// SimulationConfig holds the experiment parameters
type SimulationConfig struct {
	TrueValue       float64
	NumTrials       int
	NumObservations int
	Confidence      sampling.ConfidenceLevel
	Seed            int64
	Workers         int
}

// RenderConfig holds text histogram settings
type RenderConfig struct {
	HistogramBins int
	BarWidth      int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level internal.LogLevel
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	simConfig, err := loadSimulationConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load simulation configuration")
	}
	config.Simulation = *simConfig

	renderConfig, err := loadRenderConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load render configuration")
	}
	config.Render = *renderConfig

	logConfig, err := loadLogConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load log configuration")
	}
	config.Log = *logConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadSimulationConfig() (*SimulationConfig, error) {
	trueValue, err := getEnvFloatOrDefault("SIM_TRUE_VALUE", DefaultTrueValue)
	if err != nil {
		return nil, err
	}
	numTrials, err := getEnvIntOrDefault("SIM_NUM_TRIALS", DefaultNumTrials)
	if err != nil {
		return nil, err
	}
	numObservations, err := getEnvIntOrDefault("SIM_NUM_OBSERVATIONS", DefaultNumObservations)
	if err != nil {
		return nil, err
	}
	confidence, err := getEnvFloatOrDefault("SIM_CONFIDENCE", DefaultConfidence)
	if err != nil {
		return nil, err
	}
	seed, err := getEnvIntOrDefault("SIM_SEED", DefaultSeed)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvIntOrDefault("SIM_WORKERS", runtime.GOMAXPROCS(0))
	if err != nil {
		return nil, err
	}

	return &SimulationConfig{
		TrueValue:       trueValue,
		NumTrials:       numTrials,
		NumObservations: numObservations,
		Confidence:      sampling.ConfidenceLevel(confidence),
		Seed:            int64(seed),
		Workers:         workers,
	}, nil
}

func loadRenderConfig() (*RenderConfig, error) {
	bins, err := getEnvIntOrDefault("SIM_HISTOGRAM_BINS", DefaultHistogramBins)
	if err != nil {
		return nil, err
	}
	width, err := getEnvIntOrDefault("SIM_BAR_WIDTH", 50)
	if err != nil {
		return nil, err
	}
	return &RenderConfig{HistogramBins: bins, BarWidth: width}, nil
}

func loadLogConfig() (*LogConfig, error) {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return &LogConfig{Level: internal.LogLevelInfo}, nil
	}
	level, ok := internal.ParseLogLevel(raw)
	if !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("LOG_LEVEL %q is not one of ERROR|WARN|INFO|DEBUG|TRACE", raw))
	}
	return &LogConfig{Level: level}, nil
}

func validateConfig(config *Config) error {
	sim := config.Simulation
	if err := sampling.ValidateProbability(sim.TrueValue); err != nil {
		return errors.Wrap(errors.ConfigInvalid(err.Error()), "SIM_TRUE_VALUE")
	}
	if sim.NumTrials <= 0 {
		return errors.ConfigInvalid("SIM_NUM_TRIALS must be positive")
	}
	if sim.NumObservations <= 0 {
		return errors.ConfigInvalid("SIM_NUM_OBSERVATIONS must be positive")
	}
	if err := sim.Confidence.Validate(); err != nil {
		return errors.Wrap(errors.ConfigInvalid(err.Error()), "SIM_CONFIDENCE")
	}
	if sim.Workers <= 0 {
		return errors.ConfigInvalid("SIM_WORKERS must be positive")
	}
	if config.Render.HistogramBins <= 0 {
		return errors.ConfigInvalid("SIM_HISTOGRAM_BINS must be positive")
	}
	if config.Render.BarWidth <= 0 {
		return errors.ConfigInvalid("SIM_BAR_WIDTH must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing. Unlike a silent fallback,
// a present-but-malformed value is a configuration error.
func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s=%q is not an integer", key, value))
	}
	return intValue, nil
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s=%q is not a number", key, value))
	}
	return floatValue, nil
}
