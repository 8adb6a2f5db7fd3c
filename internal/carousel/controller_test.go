package carousel

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finitefield.org/storefront-web/internal/clock/clocktest"
)

func threeSlides() []Slide {
	return []Slide{
		{ID: 0, Title: "A", Handle: "a"},
		{ID: 1, Title: "B", Handle: "b"},
		{ID: 2, Title: "C", Handle: "c"},
	}
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *clocktest.Fake) {
	t.Helper()

	fake := clocktest.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ctrl := New(append([]Option{WithClock(fake), WithID("test")}, opts...)...)
	require.NoError(t, ctrl.Mount(threeSlides()))
	t.Cleanup(ctrl.Unmount)
	return ctrl, fake
}

func titles(ctrl *Controller, ids []int) []string {
	out := make([]string, 0, len(ids))
	for _, slide := range Ordered(ids, ctrl.Slides()) {
		out = append(out, slide.Title)
	}
	return out
}

func TestMountSchedulesAutoAdvanceOnly(t *testing.T) {
	t.Parallel()

	ctrl, fake := newTestController(t)

	st := ctrl.State()
	require.True(t, st.Mounted)
	require.Equal(t, []int{0, 1, 2}, st.Order)
	require.Equal(t, DirectionNone, st.Direction)
	require.False(t, st.Locked)
	require.Equal(t, 1, fake.Pending(), "only the auto-advance timer is armed after mount")
	require.True(t, ctrl.autoAdvance.Pending())
	require.False(t, ctrl.cooldown.Pending())
}

func TestMountRejectsEmptySlides(t *testing.T) {
	t.Parallel()

	fake := clocktest.NewFake(time.Now())
	ctrl := New(WithClock(fake))
	err := ctrl.Mount(nil)
	require.ErrorIs(t, err, ErrEmptyCollection)
	require.Equal(t, 0, fake.Pending())

	err = ctrl.Rotate(DirectionNext)
	require.ErrorIs(t, err, ErrPrecondition, "rotation before a successful mount must fail")
}

func TestRotateScenarioAndThumbnailsInLockstep(t *testing.T) {
	t.Parallel()

	ctrl, fake := newTestController(t, WithOverlapPolicy(OverlapAllow))

	require.NoError(t, ctrl.Next())
	st := ctrl.State()
	require.Equal(t, []string{"B", "C", "A"}, titles(ctrl, st.Order))
	require.Equal(t, st.Order, st.Thumbnails)
	require.Equal(t, DirectionNext, st.Direction)
	require.True(t, st.Locked)

	require.NoError(t, ctrl.Next())
	st = ctrl.State()
	require.Equal(t, []string{"C", "A", "B"}, titles(ctrl, st.Order))
	require.Equal(t, st.Order, st.Thumbnails)
	require.Equal(t, 2, fake.Pending())
}

func TestRotatePrevScenario(t *testing.T) {
	t.Parallel()

	ctrl, _ := newTestController(t)

	require.NoError(t, ctrl.Prev())
	st := ctrl.State()
	require.Equal(t, []string{"C", "A", "B"}, titles(ctrl, st.Order))
	require.Equal(t, DirectionPrev, st.Direction)
}

func TestRotateLeavesExactlyOnePendingTimerPerTrigger(t *testing.T) {
	t.Parallel()

	ctrl, fake := newTestController(t, WithOverlapPolicy(OverlapAllow))

	for i := 0; i < 10; i++ {
		dir := DirectionNext
		if i%3 == 0 {
			dir = DirectionPrev
		}
		require.NoError(t, ctrl.Rotate(dir))
		require.Equal(t, 2, fake.Pending(), "rotation %d leaked timers", i)
		require.True(t, ctrl.cooldown.Pending())
		require.True(t, ctrl.autoAdvance.Pending())
		fake.Advance(500 * time.Millisecond)
	}
}

func TestFullCycleThroughControllerRestoresOrder(t *testing.T) {
	t.Parallel()

	ctrl, fake := newTestController(t)
	original := ctrl.State().Order

	for i := 0; i < 3; i++ {
		require.NoError(t, ctrl.Next())
		fake.Advance(DefaultCooldown)
	}
	require.Equal(t, original, ctrl.State().Order)

	for i := 0; i < 3; i++ {
		require.NoError(t, ctrl.Prev())
		fake.Advance(DefaultCooldown)
	}
	require.Equal(t, original, ctrl.State().Order)

	require.NoError(t, ctrl.Next())
	fake.Advance(DefaultCooldown)
	require.NoError(t, ctrl.Prev())
	require.Equal(t, original, ctrl.State().Order)
}

func TestCooldownClearsDirection(t *testing.T) {
	t.Parallel()

	ctrl, fake := newTestController(t)

	require.NoError(t, ctrl.Next())
	fake.Advance(DefaultCooldown - time.Millisecond)
	require.Equal(t, DirectionNext, ctrl.State().Direction)

	fake.Advance(time.Millisecond)
	st := ctrl.State()
	require.Equal(t, DirectionNone, st.Direction)
	require.False(t, st.Locked)
	require.Equal(t, 1, fake.Pending(), "auto-advance stays armed after cooldown")
}

func TestAutoAdvanceFiresAfterIdlePeriod(t *testing.T) {
	t.Parallel()

	ctrl, fake := newTestController(t)

	fake.Advance(DefaultAutoAdvance - time.Millisecond)
	require.Equal(t, []int{0, 1, 2}, ctrl.State().Order)

	fake.Advance(time.Millisecond)
	st := ctrl.State()
	require.Equal(t, []int{1, 2, 0}, st.Order)
	require.Equal(t, DirectionNext, st.Direction)
	require.Equal(t, 2, fake.Pending())

	fake.Advance(DefaultAutoAdvance)
	require.Equal(t, []int{2, 0, 1}, ctrl.State().Order)
}

func TestManualRotationResetsAutoAdvance(t *testing.T) {
	t.Parallel()

	ctrl, fake := newTestController(t)

	fake.Advance(5 * time.Second)
	require.NoError(t, ctrl.Prev())
	fake.Advance(5 * time.Second)
	require.Equal(t, []int{2, 0, 1}, ctrl.State().Order, "auto-advance must be rescheduled by the manual rotation")

	fake.Advance(2 * time.Second)
	require.Equal(t, []int{0, 1, 2}, ctrl.State().Order)
}

func TestOverlapIgnoreRejectsRotationDuringCooldown(t *testing.T) {
	t.Parallel()

	ctrl, fake := newTestController(t)

	require.NoError(t, ctrl.Next())
	before := ctrl.State()

	err := ctrl.Prev()
	require.ErrorIs(t, err, ErrTransitionLocked)
	require.Equal(t, before, ctrl.State())
	require.Equal(t, 2, fake.Pending())

	fake.Advance(DefaultCooldown)
	require.NoError(t, ctrl.Prev())
	require.Equal(t, []int{0, 1, 2}, ctrl.State().Order)
}

func TestOverlapIgnoreReschedulesBlockedAutoAdvance(t *testing.T) {
	t.Parallel()

	ctrl, fake := newTestController(t, WithAutoAdvance(time.Second), WithCooldown(2*time.Second))

	require.NoError(t, ctrl.Next())
	fake.Advance(time.Second)
	require.Equal(t, []int{1, 2, 0}, ctrl.State().Order, "auto-advance blocked by cooldown")
	require.True(t, ctrl.autoAdvance.Pending())

	fake.Advance(time.Second)
	require.Equal(t, []int{2, 0, 1}, ctrl.State().Order)
}

func TestUnmountCancelsTimersAndStopsRotation(t *testing.T) {
	t.Parallel()

	fake := clocktest.NewFake(time.Now())
	ctrl := New(WithClock(fake))
	require.NoError(t, ctrl.Mount(threeSlides()))
	require.NoError(t, ctrl.Next())
	require.Equal(t, 2, fake.Pending())

	ch, _ := ctrl.Subscribe()
	ctrl.Unmount()
	require.Equal(t, 0, fake.Pending())

	order := ctrl.State().Order
	fake.Advance(time.Minute)
	require.Equal(t, order, ctrl.State().Order, "no rotation fires after teardown")
	require.False(t, ctrl.State().Mounted)

	_, open := <-ch
	require.False(t, open, "subscriptions close on unmount")

	err := ctrl.Next()
	var precondition *PreconditionError
	require.True(t, errors.As(err, &precondition))
	require.Equal(t, "rotate", precondition.Op)

	require.ErrorIs(t, ctrl.Mount(threeSlides()), ErrPrecondition)
	ctrl.Unmount()
}

func TestSubscribeDeliversLatestState(t *testing.T) {
	t.Parallel()

	ctrl, fake := newTestController(t, WithOverlapPolicy(OverlapAllow))
	ch, cancel := ctrl.Subscribe()
	defer cancel()

	require.NoError(t, ctrl.Next())
	require.NoError(t, ctrl.Next())

	st := <-ch
	require.Equal(t, []int{2, 0, 1}, st.Order, "slow subscribers see only the latest snapshot")

	fake.Advance(DefaultCooldown)
	st = <-ch
	require.Equal(t, DirectionNone, st.Direction)

	cancel()
	_, open := <-ch
	require.False(t, open)
}

func TestParseOverlapPolicy(t *testing.T) {
	t.Parallel()

	require.Equal(t, OverlapAllow, ParseOverlapPolicy("ALLOW"))
	require.Equal(t, OverlapIgnore, ParseOverlapPolicy("ignore"))
	require.Equal(t, OverlapIgnore, ParseOverlapPolicy("queue"))
	require.Equal(t, "allow", OverlapAllow.String())
}
