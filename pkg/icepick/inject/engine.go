// Package inject waits for the game to start, then loads the SDK module
// into it and calls the module's initialisation export.
package inject

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/icepick/pkg/icepick/events"
	"github.com/jamesainslie/icepick/pkg/icepick/logging"
)

// Defaults for a Session.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DirectTimeout       = 30 * time.Second
	LauncherTimeout     = 60 * time.Second
)

// ErrTimedOut is returned when the target never became ready.
var ErrTimedOut = errors.New("timed out waiting for target process")

// State is where an engine is in its session.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateInjecting
	StateComplete
	StateTimedOut
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateInjecting:
		return "injecting"
	case StateComplete:
		return "complete"
	case StateTimedOut:
		return "timed-out"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has ended.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateTimedOut || s == StateError
}

// EventKind identifies an engine notification.
type EventKind int

const (
	Launching EventKind = iota
	Injecting
	InjectionComplete
	InjectionError
)

func (k EventKind) String() string {
	switch k {
	case Launching:
		return "launching"
	case Injecting:
		return "injecting"
	case InjectionComplete:
		return "injection-complete"
	case InjectionError:
		return "injection-error"
	default:
		return "unknown"
	}
}

// Event is published on the engine bus. Fatal is set on the error that
// ends a session; other errors are reported while searching continues.
type Event struct {
	Kind    EventKind
	State   State
	Message string
	Fatal   bool
	PID     int
}

// Session describes one launch-and-inject attempt.
type Session struct {
	TargetProcess   string
	ReadinessModule string

	// SDKModule is the module file name, resolved against SearchDir.
	SDKModule  string
	InitExport string

	// SearchDir is set as the target's DLL directory.
	SearchDir string

	Settings Settings

	Timeout      time.Duration
	PollInterval time.Duration

	// DisplayName is used in user-facing messages.
	DisplayName string
}

func (s *Session) withDefaults() Session {
	out := *s
	if out.Timeout <= 0 {
		out.Timeout = DirectTimeout
	}
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.DisplayName == "" {
		out.DisplayName = "Titanfall 2"
	}
	return out
}

// Engine runs sessions one at a time.
type Engine struct {
	finder ProcessFinder
	bus    *events.Bus[Event]

	mu    sync.Mutex
	state State
	busy  bool
}

// NewEngine returns an engine that discovers processes with finder.
func NewEngine(finder ProcessFinder) *Engine {
	return &Engine{finder: finder, bus: events.New[Event]()}
}

// Events is the bus carrying engine notifications.
func (e *Engine) Events() *events.Bus[Event] { return e.bus }

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) emit(kind EventKind, msg string, fatal bool, pid int) {
	e.bus.Emit(Event{Kind: kind, State: e.State(), Message: msg, Fatal: fatal, PID: pid})
}

// LaunchAndInject waits for the target process to load the readiness
// module, then injects the SDK. It returns nil once the init export has
// run. Cancelling ctx stops the search; once injection has started it runs
// to completion regardless of ctx.
func (e *Engine) LaunchAndInject(ctx context.Context, session Session) error {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return errors.New("an injection session is already running")
	}
	e.busy = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.busy = false
		e.mu.Unlock()
	}()

	s := session.withDefaults()
	log := logging.Get("inject").With("target", s.TargetProcess)

	e.setState(StateIdle)
	e.emit(Launching, "", false, 0)
	e.setState(StateSearching)
	log.Info("waiting for target", "readiness", s.ReadinessModule, "timeout", s.Timeout)

	deadline := time.Now().Add(s.Timeout)
	wait := time.NewTimer(0)
	defer wait.Stop()

	for {
		select {
		case <-ctx.Done():
			e.setState(StateError)
			e.emit(InjectionError, "Injection cancelled.", true, 0)
			return ctx.Err()
		case <-wait.C:
		}

		if !time.Now().Before(deadline) {
			msg := fmt.Sprintf("Timed out after %d seconds. Could not find %s process.", int(s.Timeout.Seconds()), s.DisplayName)
			e.setState(StateTimedOut)
			e.emit(InjectionError, msg, true, 0)
			log.Warn("timed out", "after", s.Timeout)
			return fmt.Errorf("%w: %s", ErrTimedOut, msg)
		}

		proc, err := e.poll(ctx, s)
		if err != nil {
			log.Debug("poll failed", "error", err)
			e.emit(InjectionError, err.Error(), false, 0)
		}
		if proc != nil {
			return e.inject(proc, s)
		}

		next := s.PollInterval
		if remaining := time.Until(deadline); remaining < next {
			next = max(remaining, 0)
		}
		wait.Reset(next)
	}
}

// poll returns an open handle on the target once the readiness module is
// loaded in it.
func (e *Engine) poll(ctx context.Context, s Session) (Process, error) {
	procs, err := e.finder.FindByName(ctx, s.TargetProcess)
	if err != nil {
		return nil, err
	}
	if len(procs) == 0 {
		return nil, nil
	}
	target := procs[0]
	closeAll(procs[1:])

	mods, err := target.Modules()
	if err != nil {
		_ = target.Close()
		return nil, err
	}
	for _, m := range mods {
		if strings.EqualFold(m, s.ReadinessModule) {
			return target, nil
		}
	}
	_ = target.Close()
	return nil, nil
}

func (e *Engine) inject(p Process, s Session) error {
	defer p.Close()
	log := logging.Get("inject").With("pid", p.PID())

	e.setState(StateInjecting)
	e.emit(Injecting, "", false, p.PID())
	log.Info("injecting", "module", s.SDKModule)

	fail := func(step string, err error) error {
		e.setState(StateError)
		e.emit(InjectionError, err.Error(), true, p.PID())
		log.Error("injection failed", "step", step, "error", err)
		return fmt.Errorf("%s: %w", step, err)
	}

	if err := p.SetSearchPath(s.SearchDir); err != nil {
		return fail("setting DLL search path", err)
	}

	modPath := s.SDKModule
	if s.SearchDir != "" && !filepath.IsAbs(modPath) {
		modPath = filepath.Join(s.SearchDir, modPath)
	}
	m, err := p.LoadModule(modPath)
	if err != nil {
		return fail("loading "+s.SDKModule, err)
	}
	if err := p.CallExport(m, s.InitExport, s.Settings); err != nil {
		return fail("calling "+s.InitExport, err)
	}

	e.setState(StateComplete)
	e.emit(InjectionComplete, "", false, p.PID())
	log.Info("injection complete")
	return nil
}
