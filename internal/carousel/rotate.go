package carousel

import (
	"fmt"
	"strings"
)

// Direction is the transition requested by a rotation.
type Direction string

const (
	// DirectionNone means no transition is in progress.
	DirectionNone Direction = ""
	// DirectionNext moves the head slide to the tail.
	DirectionNext Direction = "next"
	// DirectionPrev moves the tail slide to the head.
	DirectionPrev Direction = "prev"
)

// String returns the direction label, "none" for DirectionNone.
func (d Direction) String() string {
	if d == DirectionNone {
		return "none"
	}
	return string(d)
}

// ParseDirection accepts "next" or "prev" (case-insensitive).
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(DirectionNext):
		return DirectionNext, nil
	case string(DirectionPrev):
		return DirectionPrev, nil
	}
	return DirectionNone, fmt.Errorf("%w: %q", ErrInvalidDirection, raw)
}

// RotateNext returns a copy of seq with its first element moved to the end.
func RotateNext[T any](seq []T) []T {
	out := make([]T, 0, len(seq))
	if len(seq) == 0 {
		return out
	}
	out = append(out, seq[1:]...)
	return append(out, seq[0])
}

// RotatePrev returns a copy of seq with its last element moved to the front.
func RotatePrev[T any](seq []T) []T {
	out := make([]T, 0, len(seq))
	if len(seq) == 0 {
		return out
	}
	last := len(seq) - 1
	out = append(out, seq[last])
	return append(out, seq[:last]...)
}

// Rotate applies one rotation in the given direction.
func Rotate[T any](seq []T, dir Direction) ([]T, error) {
	switch dir {
	case DirectionNext:
		return RotateNext(seq), nil
	case DirectionPrev:
		return RotatePrev(seq), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, string(dir))
}
