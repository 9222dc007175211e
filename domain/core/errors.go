package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrInvalidArgument is returned for any out-of-range simulation or interval input.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrInvalidProbability  = fmt.Errorf("%w: probability", ErrInvalidArgument)
	ErrInvalidSampleCount  = fmt.Errorf("%w: sample count", ErrInvalidArgument)
	ErrInvalidConfidence   = fmt.Errorf("%w: confidence level", ErrInvalidArgument)
	ErrInvalidStdErr       = fmt.Errorf("%w: standard error", ErrInvalidArgument)
	ErrEmptyDistribution   = fmt.Errorf("%w: empty distribution", ErrInvalidArgument)
	ErrInvalidWorkerCount  = fmt.Errorf("%w: worker count", ErrInvalidArgument)
	ErrInvalidHistogramBin = fmt.Errorf("%w: histogram bins", ErrInvalidArgument)
)

// NewInvalidArgumentError annotates one of the sentinel errors above with the
// offending field and value.
func NewInvalidArgumentError(kind error, field string, value interface{}) error {
	return fmt.Errorf("%w: %s=%v", kind, field, value)
}

// IsInvalidArgument reports whether err is (or wraps) ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
