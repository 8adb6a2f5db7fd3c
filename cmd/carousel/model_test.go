package main

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"finitefield.org/storefront-web/internal/carousel"
	"finitefield.org/storefront-web/internal/clock/clocktest"
)

func newTestModel(t *testing.T) (model, *carousel.Controller, *clocktest.Fake) {
	t.Helper()
	fake := clocktest.NewFake(time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC))
	ctrl := carousel.New(carousel.WithClock(fake), carousel.WithCooldown(3*time.Second), carousel.WithAutoAdvance(7*time.Second))
	require.NoError(t, ctrl.Mount([]carousel.Slide{
		{ID: 0, Title: "Winter Essentials", Handle: "winter-essentials"},
		{ID: 1, Title: "Trail Running", Handle: "trail-running"},
		{ID: 2, Title: "Home Studio", Handle: "home-studio"},
	}))
	t.Cleanup(ctrl.Unmount)
	return newModel(ctrl), ctrl, fake
}

func TestModelRotatesOnArrowKeys(t *testing.T) {
	m, ctrl, fake := newTestModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(model)
	require.Equal(t, []int{1, 2, 0}, ctrl.State().Order)
	require.Equal(t, []int{1, 2, 0}, m.state.Order)
	require.Contains(t, m.View(), "locked")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(model)
	require.Equal(t, "transition in progress", m.status)
	require.Equal(t, []int{1, 2, 0}, ctrl.State().Order)

	fake.Advance(3 * time.Second)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = next.(model)
	require.Empty(t, m.status)
	require.Equal(t, []int{0, 1, 2}, m.state.Order)
}

func TestModelAppliesSubscribedState(t *testing.T) {
	m, ctrl, fake := newTestModel(t)

	fake.Advance(7 * time.Second)
	msg := m.Init()()
	next, cmd := m.Update(msg)
	m = next.(model)
	require.NotNil(t, cmd)
	require.Equal(t, ctrl.State().Order, m.state.Order)
	require.Equal(t, []int{1, 2, 0}, m.state.Order)
}

func TestModelQuitUnmounts(t *testing.T) {
	m, ctrl, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
	require.ErrorIs(t, ctrl.Next(), carousel.ErrPrecondition)
	require.False(t, ctrl.State().Mounted)
}

func TestViewListsSlidesInOrder(t *testing.T) {
	m, _, _ := newTestModel(t)
	view := m.View()
	require.NotEqual(t, -1, strings.Index(view, "Winter Essentials"))
	require.Less(t, strings.Index(view, "Winter Essentials"), strings.Index(view, "Trail Running"))
	require.Contains(t, view, "thumbnails [0] [1] [2]")
}
