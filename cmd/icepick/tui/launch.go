package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/icepick/pkg/icepick/inject"
	"github.com/jamesainslie/icepick/pkg/icepick/logging"
)

// maxNotes is how many non-fatal engine errors stay on screen.
const maxNotes = 3

// EngineMsg carries one engine event into the program.
type EngineMsg inject.Event

// DoneMsg is sent when LaunchAndInject returns.
type DoneMsg struct{ Err error }

// LaunchModel shows the progress of one launch-and-inject session.
type LaunchModel struct {
	spinner spinner.Model
	events  <-chan inject.Event
	cancel  func()

	target  string
	via     string
	timeout time.Duration
	started time.Time
	now     func() time.Time

	state   inject.State
	pid     int
	message string
	notes   []string
	done    bool
	err     error
	width   int
}

// NewLaunchModel returns a model fed from events. cancel is called when the
// user quits before the session ends.
func NewLaunchModel(target, via string, timeout time.Duration, events <-chan inject.Event, cancel func()) LaunchModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return LaunchModel{
		spinner: s,
		events:  events,
		cancel:  cancel,
		target:  target,
		via:     via,
		timeout: timeout,
		started: time.Now(),
		now:     time.Now,
		state:   inject.StateIdle,
		width:   80,
	}
}

// Init starts the spinner and the event pump.
func (m LaunchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

func (m LaunchModel) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return EngineMsg(ev)
	}
}

// Update implements tea.Model.
func (m LaunchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		return m, nil

	case EngineMsg:
		m.apply(inject.Event(msg))
		return m, m.waitForEvent()

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *LaunchModel) apply(ev inject.Event) {
	switch ev.Kind {
	case inject.Launching:
		m.state = inject.StateSearching
	case inject.Injecting:
		m.state = inject.StateInjecting
		m.pid = ev.PID
	case inject.InjectionComplete:
		m.state = inject.StateComplete
	case inject.InjectionError:
		if ev.Fatal {
			m.state = ev.State
			m.message = ev.Message
			return
		}
		m.notes = append(m.notes, ev.Message)
		if len(m.notes) > maxNotes {
			m.notes = m.notes[len(m.notes)-maxNotes:]
		}
	}
}

// View implements tea.Model.
func (m LaunchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("icepick"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  launch via %s", m.via)))
	b.WriteString("\n\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	for _, n := range m.notes {
		b.WriteString("  " + warningStyle.Render(n) + "\n")
	}

	if buf := logging.GetLogBuffer(); buf != nil {
		if recent := buf.Last(3); len(recent) > 0 {
			b.WriteString("\n")
			for _, e := range recent {
				b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s %s: %s", e.Time.Format("15:04:05"), e.Component, e.Message)))
				b.WriteString("\n")
			}
		}
	}

	if !m.done && !m.state.Terminal() {
		b.WriteString("\n" + mutedStyle.Render("  q to cancel"))
	}

	width := max(m.width-2, 40)
	return boxStyle.Width(width).Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func (m LaunchModel) statusLine() string {
	switch m.state {
	case inject.StateComplete:
		return successStyle.Render(fmt.Sprintf("  SDK loaded into %s (pid %d).", m.target, m.pid))
	case inject.StateTimedOut, inject.StateError:
		return errorStyle.Render("  " + m.message)
	case inject.StateInjecting:
		return fmt.Sprintf("  %s Injecting into %s (pid %d)...", m.spinner.View(), m.target, m.pid)
	case inject.StateSearching:
		elapsed := m.now().Sub(m.started).Truncate(time.Second)
		return fmt.Sprintf("  %s Waiting for %s %s", m.spinner.View(), m.target,
			mutedStyle.Render(fmt.Sprintf("(%s / %s)", elapsed, m.timeout)))
	default:
		return fmt.Sprintf("  %s Launching...", m.spinner.View())
	}
}

// State is the last engine state the model saw.
func (m LaunchModel) State() inject.State { return m.state }

// Err is the session error once DoneMsg has arrived.
func (m LaunchModel) Err() error { return m.err }

// Done reports whether the session finished.
func (m LaunchModel) Done() bool { return m.done }
