package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"finitefield.org/storefront-web/internal/carousel"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	slideStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(22)
	currentStyle = slideStyle.BorderForeground(lipgloss.Color("205")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	lockedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type keyMap struct {
	Prev key.Binding
	Next key.Binding
	Help key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding { return []key.Binding{k.Prev, k.Next, k.Help, k.Quit} }

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Prev, k.Next}, {k.Help, k.Quit}}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev")),
		Next: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// stateMsg carries a controller snapshot into the update loop.
type stateMsg carousel.State

// closedMsg reports that the controller was unmounted.
type closedMsg struct{}

type model struct {
	ctrl    *carousel.Controller
	slides  []carousel.Slide
	updates <-chan carousel.State
	cancel  func()
	state   carousel.State
	keys    keyMap
	help    help.Model
	status  string
}

func newModel(ctrl *carousel.Controller) model {
	updates, cancel := ctrl.Subscribe()
	return model{
		ctrl:    ctrl,
		slides:  ctrl.Slides(),
		updates: updates,
		cancel:  cancel,
		state:   ctrl.State(),
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

func waitForState(ch <-chan carousel.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return stateMsg(st)
	}
}

func (m model) Init() tea.Cmd { return waitForState(m.updates) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case stateMsg:
		m.state = carousel.State(msg)
		return m, waitForState(m.updates)
	case closedMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Next):
			m.rotate(carousel.DirectionNext)
		case key.Matches(msg, m.keys.Prev):
			m.rotate(carousel.DirectionPrev)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			m.ctrl.Unmount()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *model) rotate(dir carousel.Direction) {
	err := m.ctrl.Rotate(dir)
	switch {
	case err == nil:
		m.status = ""
		m.state = m.ctrl.State()
	case errors.Is(err, carousel.ErrTransitionLocked):
		m.status = "transition in progress"
	default:
		m.status = err.Error()
	}
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Featured collections"))
	b.WriteString("\n\n")

	ordered := carousel.Ordered(m.state.Order, m.slides)
	cards := make([]string, 0, len(ordered))
	for i, s := range ordered {
		style := slideStyle
		if i == 0 {
			style = currentStyle
		}
		cards = append(cards, style.Render(s.Title+"\n"+mutedStyle.Render("/collections/"+s.Handle)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n")

	thumbs := make([]string, 0, len(m.state.Thumbnails))
	for _, s := range carousel.Ordered(m.state.Thumbnails, m.slides) {
		thumbs = append(thumbs, fmt.Sprintf("[%d]", s.ID))
	}
	b.WriteString(mutedStyle.Render("thumbnails " + strings.Join(thumbs, " ")))
	b.WriteString("\n")

	line := fmt.Sprintf("direction %s  revision %d", m.state.Direction, m.state.Revision)
	if m.state.Locked {
		line += "  " + lockedStyle.Render("locked")
	}
	b.WriteString(line)
	if m.status != "" {
		b.WriteString("\n" + lockedStyle.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
