package carousel

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCollection is returned when a carousel is mounted without slides.
	ErrEmptyCollection = errors.New("carousel: no slides to rotate")
	// ErrTransitionLocked is returned when a rotation is requested during a cooldown
	// and the controller ignores overlapping transitions.
	ErrTransitionLocked = errors.New("carousel: transition in progress")
	// ErrInvalidDirection indicates a rotation direction other than next or prev.
	ErrInvalidDirection = errors.New("carousel: invalid direction")
	// ErrPrecondition matches every PreconditionError via errors.Is.
	ErrPrecondition = errors.New("carousel: precondition failed")
)

// PreconditionError reports an operation invoked outside the mounted lifecycle.
type PreconditionError struct {
	Op     string
	Reason string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("carousel: %s: %s", e.Op, e.Reason)
}

// Is reports whether target is ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}
