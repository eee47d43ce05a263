package inject

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	pid        int
	modules    []string
	modulesErr error
	loadErr    error
	exportErr  error

	mu         sync.Mutex
	searchPath string
	loaded     string
	export     string
	settings   Settings
	closed     int
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Modules() ([]string, error) {
	return p.modules, p.modulesErr
}

func (p *fakeProcess) SetSearchPath(dir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searchPath = dir
	return nil
}

func (p *fakeProcess) LoadModule(path string) (Module, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return Module{}, p.loadErr
	}
	p.loaded = path
	return Module{Name: "TTF2SDK.dll", Path: path, Base: 0x7FF0_0000}, nil
}

func (p *fakeProcess) CallExport(_ Module, export string, s Settings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exportErr != nil {
		return p.exportErr
	}
	p.export = export
	p.settings = s
	return nil
}

func (p *fakeProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// fakeFinder returns the process once calls reaches appearAfter.
type fakeFinder struct {
	mu          sync.Mutex
	proc        *fakeProcess
	appearAfter int
	calls       int
}

func (f *fakeFinder) FindByName(_ context.Context, name string) ([]Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.proc == nil || f.calls <= f.appearAfter || name != "Titanfall2" {
		return nil, nil
	}
	return []Process{f.proc}, nil
}

type capture struct {
	mu     sync.Mutex
	events []Event
}

func (c *capture) handle(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *capture) kinds() []EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []EventKind
	for _, ev := range c.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (c *capture) errors() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, ev := range c.events {
		if ev.Kind == InjectionError {
			out = append(out, ev)
		}
	}
	return out
}

func session() Session {
	return Session{
		TargetProcess:   "Titanfall2",
		ReadinessModule: "tier0.dll",
		SDKModule:       "TTF2SDK.dll",
		InitExport:      "InitialiseSDK",
		SearchDir:       "/games/tf2",
		Settings:        Settings{BasePath: "/games/tf2/data/", DeveloperMode: true},
		Timeout:         2 * time.Second,
		PollInterval:    50 * time.Millisecond,
	}
}

func TestLaunchAndInjectHappyPath(t *testing.T) {
	proc := &fakeProcess{pid: 4242, modules: []string{"Titanfall2.exe", "TIER0.DLL"}}
	e := NewEngine(&fakeFinder{proc: proc})
	c := &capture{}
	e.Events().Subscribe(c.handle)

	var states []State
	e.Events().Subscribe(func(ev Event) { states = append(states, ev.State) })

	start := time.Now()
	require.NoError(t, e.LaunchAndInject(context.Background(), session()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	assert.Equal(t, []EventKind{Launching, Injecting, InjectionComplete}, c.kinds())
	assert.Equal(t, []State{StateIdle, StateInjecting, StateComplete}, states)
	assert.Equal(t, StateComplete, e.State())

	assert.Equal(t, "/games/tf2", proc.searchPath)
	assert.Contains(t, proc.loaded, "TTF2SDK.dll")
	assert.Equal(t, "InitialiseSDK", proc.export)
	assert.Equal(t, Settings{BasePath: "/games/tf2/data/", DeveloperMode: true}, proc.settings)
	assert.Equal(t, 1, proc.closed)
}

func TestLaunchAndInjectWaitsForReadiness(t *testing.T) {
	proc := &fakeProcess{pid: 1, modules: []string{"tier0.dll"}}
	finder := &fakeFinder{proc: proc, appearAfter: 3}
	e := NewEngine(finder)

	require.NoError(t, e.LaunchAndInject(context.Background(), session()))
	assert.Equal(t, 4, finder.calls)
	assert.Equal(t, StateComplete, e.State())
}

func TestLaunchAndInjectTimeout(t *testing.T) {
	e := NewEngine(&fakeFinder{})
	c := &capture{}
	e.Events().Subscribe(c.handle)

	s := session()
	s.Timeout = 200 * time.Millisecond
	s.PollInterval = 30 * time.Millisecond

	start := time.Now()
	err := e.LaunchAndInject(context.Background(), s)
	require.ErrorIs(t, err, ErrTimedOut)
	assert.GreaterOrEqual(t, time.Since(start), s.Timeout)

	errs := c.errors()
	require.Len(t, errs, 1)
	assert.True(t, errs[0].Fatal)
	assert.Equal(t, StateTimedOut, errs[0].State)
	assert.Equal(t, "Timed out after 0 seconds. Could not find Titanfall 2 process.", errs[0].Message)
	assert.NotContains(t, c.kinds(), InjectionComplete)
	assert.Equal(t, StateTimedOut, e.State())
}

func TestTimeoutMessageUsesSeconds(t *testing.T) {
	e := NewEngine(&fakeFinder{})
	c := &capture{}
	e.Events().Subscribe(c.handle)

	s := session()
	s.Timeout = 1 * time.Second
	s.PollInterval = 400 * time.Millisecond
	require.ErrorIs(t, e.LaunchAndInject(context.Background(), s), ErrTimedOut)
	assert.Equal(t, "Timed out after 1 seconds. Could not find Titanfall 2 process.", c.errors()[0].Message)
}

func TestEnumerationErrorsAreNotFatal(t *testing.T) {
	proc := &fakeProcess{pid: 7, modulesErr: &OSError{Msg: "Access is denied.", Code: 5}}
	e := NewEngine(&fakeFinder{proc: proc})
	c := &capture{}
	e.Events().Subscribe(c.handle)

	s := session()
	s.Timeout = 150 * time.Millisecond
	s.PollInterval = 40 * time.Millisecond
	require.ErrorIs(t, e.LaunchAndInject(context.Background(), s), ErrTimedOut)

	errs := c.errors()
	require.GreaterOrEqual(t, len(errs), 2)
	for _, ev := range errs[:len(errs)-1] {
		assert.False(t, ev.Fatal)
		assert.Equal(t, StateSearching, ev.State)
		assert.Equal(t, "Access is denied., Error Code 5", ev.Message)
	}
	assert.True(t, errs[len(errs)-1].Fatal)
	assert.Positive(t, proc.closed)
}

func TestLoadFailureIsTerminal(t *testing.T) {
	proc := &fakeProcess{pid: 9, modules: []string{"tier0.dll"}, loadErr: errors.New("LoadLibraryW failed")}
	e := NewEngine(&fakeFinder{proc: proc})
	c := &capture{}
	e.Events().Subscribe(c.handle)

	err := e.LaunchAndInject(context.Background(), session())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LoadLibraryW failed")
	assert.Equal(t, StateError, e.State())
	assert.Equal(t, []EventKind{Launching, Injecting, InjectionError}, c.kinds())
	assert.True(t, c.errors()[0].Fatal)
	assert.Empty(t, proc.export)
}

func TestExportFailureIsTerminal(t *testing.T) {
	proc := &fakeProcess{pid: 9, modules: []string{"tier0.dll"}, exportErr: errors.New("GetProcAddress failed")}
	e := NewEngine(&fakeFinder{proc: proc})

	err := e.LaunchAndInject(context.Background(), session())
	require.Error(t, err)
	assert.Equal(t, StateError, e.State())
}

func TestCancelWhileSearching(t *testing.T) {
	e := NewEngine(&fakeFinder{})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(60*time.Millisecond, cancel)

	err := e.LaunchAndInject(ctx, session())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateError, e.State())
}

func TestSessionDefaults(t *testing.T) {
	s := (&Session{}).withDefaults()
	assert.Equal(t, DirectTimeout, s.Timeout)
	assert.Equal(t, DefaultPollInterval, s.PollInterval)
	assert.Equal(t, "Titanfall 2", s.DisplayName)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "timed-out", StateTimedOut.String())
	assert.True(t, StateComplete.Terminal())
	assert.False(t, StateSearching.Terminal())
	assert.Equal(t, "injection-error", InjectionError.String())
}
