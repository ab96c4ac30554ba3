package analysis

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every *InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports a payload that is not a sequence of
// key/timestamp records. Index is the offending element, or -1 when the
// payload as a whole has the wrong shape.
type InvalidInputError struct {
	Reason string
	Index  int
}

func (e *InvalidInputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid input at element %d: %s", e.Index, e.Reason)
	}
	return "invalid input: " + e.Reason
}

// Is reports whether target is ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(index int, format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...), Index: index}
}
