package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrSeriesNotFound = fmt.Errorf("%w: series", ErrNotFound)
	ErrRunNotFound    = fmt.Errorf("%w: run", ErrNotFound)

	// Statistical input errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerateInput  = errors.New("degenerate input")
	ErrSingularFit      = errors.New("singular fit")

	// Loading errors
	ErrDuplicateDate   = errors.New("duplicate observation date")
	ErrUnorderedSeries = errors.New("series dates not strictly increasing")

	// Aggregation errors
	ErrConventionMismatch = errors.New("partial-bucket convention mismatch")
)

// NewInsufficientDataError reports too few observations for a requested fit.
func NewInsufficientDataError(what string, got, need int) error {
	return fmt.Errorf("%w: %s requires %d observations, got %d", ErrInsufficientData, what, need, got)
}

// NewDegenerateInputError reports a non-positive total where a ratio is required.
func NewDegenerateInputError(what string, total float64) error {
	return fmt.Errorf("%w: total %s %.6g must be positive", ErrDegenerateInput, what, total)
}

// NewSingularFitError reports a collinear or zero-variance regressor.
func NewSingularFitError(detail string) error {
	return fmt.Errorf("%w: %s", ErrSingularFit, detail)
}

// Error checking helpers
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsDegenerateInput(err error) bool {
	return errors.Is(err, ErrDegenerateInput)
}

func IsSingularFit(err error) bool {
	return errors.Is(err, ErrSingularFit)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
