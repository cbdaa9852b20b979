package spaced_repetition

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuality is matched by every *ValidationError.
	ErrInvalidQuality = errors.New("spaced_repetition: quality out of range")
	// ErrDataCorruption is matched by every *DataCorruptionError.
	ErrDataCorruption = errors.New("spaced_repetition: corrupted progress record")
)

// ValidationError reports a grade outside [0, 5].
type ValidationError struct {
	Quality int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid quality %d: must be between %d and %d", e.Quality, QualityBlackout, QualityPerfect)
}

// Is makes errors.Is(err, ErrInvalidQuality) work.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidQuality
}

// DataCorruptionError reports a stored progress record that cannot be trusted,
// e.g. an unparsable timestamp or a negative interval.
type DataCorruptionError struct {
	Key   string // user/card the record belongs to, if known
	Field string
	Value string
	Err   error
}

func (e *DataCorruptionError) Error() string {
	msg := fmt.Sprintf("corrupted progress field %s=%q", e.Field, e.Value)
	if e.Key != "" {
		msg += " (" + e.Key + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrDataCorruption) work.
func (e *DataCorruptionError) Is(target error) bool {
	return target == ErrDataCorruption
}

func (e *DataCorruptionError) Unwrap() error {
	return e.Err
}
