package domain

import (
	"errors"
	"fmt"
)

// Error types for the segmentation pipeline.

// EmptyInputError indicates that a stage received no records to work on.
type EmptyInputError struct {
	Stage string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("empty input: %s received no records", e.Stage)
}

// DegenerateColumnError indicates a feature column with zero variance.
// Standardizing it would divide by zero.
type DegenerateColumnError struct {
	Column string
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("degenerate feature column %q: standard deviation is zero", e.Column)
}

// InvalidKError indicates a cluster count outside [1, customers].
type InvalidKError struct {
	K   int
	Max int
}

func (e *InvalidKError) Error() string {
	return fmt.Sprintf("invalid cluster count k=%d: must be between 1 and %d", e.K, e.Max)
}

// InsufficientDistinctValuesError flags a metric with fewer than five distinct values.
// Quintile cut points collapse for such metrics; scoring still completes, so callers
// treat this as a warning.
type InsufficientDistinctValuesError struct {
	Metric   string
	Distinct int
}

func (e *InsufficientDistinctValuesError) Error() string {
	return fmt.Sprintf("metric %q has only %d distinct values: quintile bins collapse", e.Metric, e.Distinct)
}

// ValidationError indicates a record that violates the input contract.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrPopulationTooSmall is returned when relative scoring is asked for fewer than two customers.
var ErrPopulationTooSmall = errors.New("quantile scoring needs a population of at least two customers")
