package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamesainslie/icepick/pkg/icepick/inject"
)

func update(t *testing.T, m LaunchModel, msg tea.Msg) (LaunchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	lm, ok := next.(LaunchModel)
	if !ok {
		t.Fatalf("Update returned %T, want LaunchModel", next)
	}
	return lm, cmd
}

func TestNewLaunchModel(t *testing.T) {
	m := NewLaunchModel("Titanfall2", "steam", 60*time.Second, nil, nil)

	if m.State() != inject.StateIdle {
		t.Errorf("expected idle state, got %s", m.State())
	}
	if m.Done() {
		t.Error("expected done to be false initially")
	}
	if !strings.Contains(m.View(), "Launching") {
		t.Errorf("expected launching status in view, got %q", m.View())
	}
}

func TestLaunchModelFollowsEngine(t *testing.T) {
	m := NewLaunchModel("Titanfall2", "direct", 30*time.Second, nil, nil)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.started = start
	m.now = func() time.Time { return start.Add(4 * time.Second) }

	m, _ = update(t, m, EngineMsg{Kind: inject.Launching})
	if m.State() != inject.StateSearching {
		t.Fatalf("expected searching, got %s", m.State())
	}
	view := m.View()
	if !strings.Contains(view, "Waiting for Titanfall2") || !strings.Contains(view, "4s / 30s") {
		t.Errorf("unexpected searching view: %q", view)
	}

	m, _ = update(t, m, EngineMsg{Kind: inject.Injecting, PID: 4242})
	if m.State() != inject.StateInjecting {
		t.Fatalf("expected injecting, got %s", m.State())
	}

	m, _ = update(t, m, EngineMsg{Kind: inject.InjectionComplete, PID: 4242})
	if !strings.Contains(m.View(), "SDK loaded into Titanfall2 (pid 4242)") {
		t.Errorf("unexpected complete view: %q", m.View())
	}
}

func TestLaunchModelKeepsRecentNotes(t *testing.T) {
	m := NewLaunchModel("Titanfall2", "none", 30*time.Second, nil, nil)
	for i := range 5 {
		m, _ = update(t, m, EngineMsg{Kind: inject.InjectionError, Message: string(rune('a' + i))})
	}
	if len(m.notes) != maxNotes {
		t.Fatalf("expected %d notes, got %d", maxNotes, len(m.notes))
	}
	if m.notes[0] != "c" || m.notes[2] != "e" {
		t.Errorf("expected newest notes, got %v", m.notes)
	}
	if m.State() != inject.StateIdle {
		t.Errorf("non-fatal errors must not change state, got %s", m.State())
	}
}

func TestLaunchModelTimeout(t *testing.T) {
	m := NewLaunchModel("Titanfall2", "direct", 30*time.Second, nil, nil)
	msg := "Timed out after 30 seconds. Could not find Titanfall 2 process."
	m, _ = update(t, m, EngineMsg{Kind: inject.InjectionError, State: inject.StateTimedOut, Fatal: true, Message: msg})

	if m.State() != inject.StateTimedOut {
		t.Fatalf("expected timed-out, got %s", m.State())
	}
	if !strings.Contains(m.View(), msg) {
		t.Errorf("expected timeout message in view, got %q", m.View())
	}
	if strings.Contains(m.View(), "q to cancel") {
		t.Error("cancel hint should be hidden once the session has ended")
	}
}

func TestLaunchModelDone(t *testing.T) {
	m := NewLaunchModel("Titanfall2", "direct", 30*time.Second, nil, nil)
	wantErr := errors.New("boom")
	m, cmd := update(t, m, DoneMsg{Err: wantErr})

	if !m.Done() || !errors.Is(m.Err(), wantErr) {
		t.Errorf("expected done with error, got done=%t err=%v", m.Done(), m.Err())
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestLaunchModelCancelKey(t *testing.T) {
	cancelled := false
	m := NewLaunchModel("Titanfall2", "direct", 30*time.Second, nil, func() { cancelled = true })

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !cancelled {
		t.Error("expected cancel to be called")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan inject.Event, 1)
	ch <- inject.Event{Kind: inject.Injecting, PID: 7}
	m := NewLaunchModel("Titanfall2", "direct", 30*time.Second, ch, nil)

	msg := m.waitForEvent()()
	ev, ok := msg.(EngineMsg)
	if !ok || ev.PID != 7 {
		t.Fatalf("expected EngineMsg with pid 7, got %#v", msg)
	}

	close(ch)
	if msg := m.waitForEvent()(); msg != nil {
		t.Errorf("expected nil after close, got %#v", msg)
	}
}
