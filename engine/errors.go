package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when there is nothing to rank.
	ErrEmptyInput = errors.New("empty input")

	// ErrMissingField is matched by every *MissingFieldError.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidPeriods is returned for an unusable PeriodPair.
	ErrInvalidPeriods = errors.New("invalid period pair")

	// ErrUnknownRounding is returned by ParseRounding for an unrecognised mode.
	ErrUnknownRounding = errors.New("unknown rounding mode")
)

// MissingFieldError reports the first record lacking a requested field.
type MissingFieldError struct {
	Index int    // record position in the view
	Field string // category or period key
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q in record %d", e.Field, e.Index)
}

// Is lets errors.Is(err, ErrMissingField) match.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}
