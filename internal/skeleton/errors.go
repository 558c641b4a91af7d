package skeleton

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every error reporting geometry that a
// conversion run cannot work with.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError names the offending dimension and its value.
type InvalidInputError struct {
	Dimension string
	Value     int
	Reason    string
}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid input: %s = %d: %s", e.Dimension, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s = %d", e.Dimension, e.Value)
}

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid builds an InvalidInputError. Other packages use it to report
// geometry problems with the same error kind as mask validation.
func Invalid(dimension string, value int, reason string) error {
	return &InvalidInputError{Dimension: dimension, Value: value, Reason: reason}
}
