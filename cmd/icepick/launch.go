package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/icepick/cmd/icepick/tui"
	"github.com/jamesainslie/icepick/pkg/icepick/config"
	"github.com/jamesainslie/icepick/pkg/icepick/history"
	"github.com/jamesainslie/icepick/pkg/icepick/inject"
	"github.com/jamesainslie/icepick/pkg/icepick/logging"
)

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Start Titanfall 2 and inject the SDK",
	Long: `Start the game, wait for it to finish loading its engine, then load the SDK
module into it and call its initialisation export.

--via picks how the game starts:
  direct  run launch.game_path
  steam   open the Steam run URL (waits longer, the EA app starts first)
  none    start nothing; wait for the game to be started by hand

The SDK is pointed at <base-dir>/data/ and told whether developer mode is
on (see 'icepick settings dev-mode').`,
	Args: cobra.NoArgs,
	RunE: runLaunch,
}

var (
	launchVia   string
	launchNoTUI bool
)

func init() {
	launchCmd.Flags().StringVar(&launchVia, "via", "", "direct, steam or none (default: launch.via)")
	launchCmd.Flags().BoolVar(&launchNoTUI, "no-tui", false, "print progress as plain lines")
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, _ []string) error {
	p, err := resolvePaths()
	if err != nil {
		return err
	}

	via := inject.Via(cfg.Launch.Via)
	if launchVia != "" {
		via = inject.Via(launchVia)
	}

	session := buildSession(p.base, via, developerMode())
	launcher := &inject.Launcher{Via: via, GamePath: cfg.Launch.GamePath, SteamURL: cfg.Launch.SteamURL}
	engine := inject.NewEngine(inject.NewSystemFinder())

	useTUI := !launchNoTUI && !getQuiet() && isTerminal(os.Stdout)
	if useTUI {
		if err := initLogging(true); err != nil {
			return err
		}
	}

	if err := launcher.Launch(cmd.Context()); err != nil {
		record(session, false, err.Error())
		return fmt.Errorf("launching game: %w", err)
	}

	if useTUI {
		err = runLaunchTUI(cmd.Context(), engine, session, via)
	} else {
		err = runLaunchPlain(cmd.Context(), cmd.OutOrStdout(), engine, session)
	}

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	record(session, err == nil, msg)
	return err
}

// buildSession fills an engine session from the loaded config.
func buildSession(base string, via inject.Via, devMode bool) inject.Session {
	timeout := cfg.Inject.Timeout
	if via == inject.ViaSteam {
		timeout = cfg.Inject.LauncherTimeout
	}
	return inject.Session{
		TargetProcess:   cfg.Inject.TargetProcess,
		ReadinessModule: cfg.Inject.ReadinessModule,
		SDKModule:       cfg.Inject.SDKModule,
		InitExport:      cfg.Inject.InitExport,
		SearchDir:       base,
		Settings: inject.Settings{
			BasePath:      config.SDKDataPath(base),
			DeveloperMode: devMode,
		},
		Timeout:      timeout,
		PollInterval: cfg.Inject.PollInterval,
	}
}

// developerMode reads the stored flag. Any failure counts as off.
func developerMode() bool {
	store, err := openSettings()
	if err != nil {
		logging.Get("cli").Warn("settings unavailable, developer mode off", "error", err)
		return false
	}
	defer store.Close()

	on, err := store.DeveloperMode()
	if err != nil {
		logging.Get("cli").Warn("reading developer mode", "error", err)
		return false
	}
	return on
}

func runLaunchPlain(ctx context.Context, w io.Writer, engine *inject.Engine, session inject.Session) error {
	engine.Events().Subscribe(func(ev inject.Event) {
		fmt.Fprintln(w, describeEvent(ev, session.TargetProcess))
	})
	return engine.LaunchAndInject(ctx, session)
}

func runLaunchTUI(ctx context.Context, engine *inject.Engine, session inject.Session, via inject.Via) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, stop := engine.Events().Chan(64)
	defer stop()

	model := tui.NewLaunchModel(session.TargetProcess, string(via), session.Timeout, events, cancel)
	prog := tea.NewProgram(model, tea.WithContext(ctx))

	result := make(chan error, 1)
	go func() {
		err := engine.LaunchAndInject(ctx, session)
		result <- err
		// Let the last events reach the screen before quitting.
		time.Sleep(100 * time.Millisecond)
		prog.Send(tui.DoneMsg{Err: err})
	}()

	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-result
		return fmt.Errorf("running launch screen: %w", err)
	}
	cancel()
	return <-result
}

func describeEvent(ev inject.Event, target string) string {
	switch ev.Kind {
	case inject.Launching:
		return fmt.Sprintf("Waiting for %s...", target)
	case inject.Injecting:
		return fmt.Sprintf("Injecting into %s (pid %d)...", target, ev.PID)
	case inject.InjectionComplete:
		return "SDK loaded."
	default:
		if ev.Fatal {
			return "Error: " + ev.Message
		}
		return "Warning: " + ev.Message
	}
}

func record(session inject.Session, ok bool, msg string) {
	rec := openHistory()
	if _, err := rec.Record(history.OpInject, ok, msg, history.ModRecord{
		Dir:  session.SearchDir,
		Name: session.SDKModule,
	}); err != nil {
		logging.Get("cli").Warn("failed to record history", "error", err)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
