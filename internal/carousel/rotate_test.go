package carousel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRotateScenarios(t *testing.T) {
	t.Parallel()

	slides := []string{"A", "B", "C"}

	once := RotateNext(slides)
	require.Equal(t, []string{"B", "C", "A"}, once)
	require.Equal(t, []string{"C", "A", "B"}, RotateNext(once))
	require.Equal(t, []string{"C", "A", "B"}, RotatePrev(slides))
	require.Equal(t, []string{"A", "B", "C"}, slides, "input must not be mutated")
}

func TestRotateFullCycleRestoresOrder(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 7; n++ {
		seq := make([]int, n)
		for i := range seq {
			seq[i] = i
		}

		forward := seq
		backward := seq
		for i := 0; i < n; i++ {
			forward = RotateNext(forward)
			backward = RotatePrev(backward)
		}
		require.Equal(t, seq, forward, "n=%d next cycle", n)
		require.Equal(t, seq, backward, "n=%d prev cycle", n)
	}
}

func TestRotateNextThenPrevIsIdentity(t *testing.T) {
	t.Parallel()

	seq := []int{4, 8, 15, 16, 23, 42}
	require.Equal(t, seq, RotatePrev(RotateNext(seq)))
	require.Equal(t, seq, RotateNext(RotatePrev(seq)))
}

func TestRotateEmptyAndInvalid(t *testing.T) {
	t.Parallel()

	require.Empty(t, RotateNext([]int{}))
	require.Empty(t, RotatePrev[int](nil))

	_, err := Rotate([]int{1, 2}, Direction("sideways"))
	require.True(t, errors.Is(err, ErrInvalidDirection))
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	dir, err := ParseDirection(" Next ")
	require.NoError(t, err)
	require.Equal(t, DirectionNext, dir)

	dir, err = ParseDirection("prev")
	require.NoError(t, err)
	require.Equal(t, DirectionPrev, dir)

	_, err = ParseDirection("")
	require.ErrorIs(t, err, ErrInvalidDirection)
	require.Equal(t, "none", DirectionNone.String())
}
