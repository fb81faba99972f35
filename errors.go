package deepdream

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotFound is returned when an input image path does not exist.
	ErrNotFound = errors.New("deepdream: not found")
	// ErrInvalidConfig covers non-positive iteration counts, pyramid levels,
	// ratios and other option values rejected before any computation.
	ErrInvalidConfig = errors.New("deepdream: invalid config")
	// ErrNumericDegeneracy reports a zero or non-finite gradient scale.
	ErrNumericDegeneracy = errors.New("deepdream: numeric degeneracy")
	// ErrUnknownActivation is returned when the network does not produce the
	// configured target activation.
	ErrUnknownActivation = errors.New("deepdream: unknown activation")
	// ErrShape reports a tensor whose shape the network cannot consume.
	ErrShape = errors.New("deepdream: shape mismatch")
)

// ConfigError describes a rejected option value.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("deepdream: invalid %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func configErrorf(field string, value any, format string, args ...any) error {
	return &ConfigError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// DegeneracyError carries the state of a gradient that could not be
// normalized.
type DegeneracyError struct {
	Octave    int
	Iteration int
	MeanAbs   float64
	NaNCount  int
	InfCount  int
}

func (e *DegeneracyError) Error() string {
	s := fmt.Sprintf("deepdream: degenerate gradient at octave %d iteration %d: mean|g|=%g",
		e.Octave, e.Iteration, e.MeanAbs)
	if e.NaNCount > 0 || e.InfCount > 0 {
		s += fmt.Sprintf(" (corrupt: %d NaN, %d Inf)", e.NaNCount, e.InfCount)
	}
	return s
}

func (e *DegeneracyError) Is(target error) bool {
	return target == ErrNumericDegeneracy
}

func countNonFinite(data []float64) (nan, inf int) {
	for _, v := range data {
		if math.IsNaN(v) {
			nan++
		} else if math.IsInf(v, 0) {
			inf++
		}
	}
	return nan, inf
}
