package bounded

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is wrapped by every RangeError.
	ErrOutOfRange = errors.New("value out of range")
	// ErrInvalidRange is returned by Check for a malformed range declaration.
	ErrInvalidRange = errors.New("invalid range")
)

// RangeError is returned when a value is constructed outside its bounds.
type RangeError struct {
	Value any
	Min   any
	Max   any
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%v: %v not in [%v, %v]", ErrOutOfRange, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}
