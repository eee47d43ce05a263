package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/icepick/pkg/icepick/logging"
)

func initTemp(t *testing.T, cfg logging.Config) string {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "icepick.log")
	}
	require.NoError(t, logging.Init(cfg))
	t.Cleanup(func() { _ = logging.Close() })
	return cfg.Path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestInitRejectsBadLevels(t *testing.T) {
	dir := t.TempDir()

	err := logging.Init(logging.Config{Level: "loud", Path: filepath.Join(dir, "a.log")})
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)

	err = logging.Init(logging.Config{
		Level:      "info",
		Path:       filepath.Join(dir, "b.log"),
		Components: map[string]string{"inject": "chatty"},
	})
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)
}

func TestLoggerWritesComponentAndFields(t *testing.T) {
	path := initTemp(t, logging.Config{Level: "info"})

	logging.Get("repository").Info("mods loaded", "count", 3)
	require.NoError(t, logging.Close())

	out := readLog(t, path)
	assert.Contains(t, out, "repository")
	assert.Contains(t, out, "mods loaded")
	assert.Contains(t, out, "count=3")
}

func TestLevelFiltering(t *testing.T) {
	path := initTemp(t, logging.Config{
		Level:      "warn",
		Components: map[string]string{"inject": "debug"},
	})

	logging.Get("archive").Info("hidden info")
	logging.Get("archive").Warn("visible warn")
	logging.Get("inject").Debug("visible debug")
	require.NoError(t, logging.Close())

	out := readLog(t, path)
	assert.NotContains(t, out, "hidden info")
	assert.Contains(t, out, "visible warn")
	assert.Contains(t, out, "visible debug")
}

func TestGetReturnsSameLogger(t *testing.T) {
	initTemp(t, logging.Config{Level: "info"})
	assert.Same(t, logging.Get("watcher"), logging.Get("watcher"))
	assert.NotSame(t, logging.Get("watcher"), logging.Get("archive"))
}

func TestLoggerBeforeInitDiscards(t *testing.T) {
	require.NoError(t, logging.Close())
	assert.NotPanics(t, func() {
		logging.Get("early").Error("nobody hears this")
	})
}

func TestSubscribeReceivesEntries(t *testing.T) {
	initTemp(t, logging.Config{Level: "debug"})

	ch := logging.Subscribe()
	logging.Get("watcher").Warn("catalog changed")

	select {
	case e := <-ch:
		assert.Equal(t, "watcher", e.Component)
		assert.Equal(t, "catalog changed", e.Message)
		assert.Equal(t, logging.LevelWarn, e.Level)
		assert.False(t, e.Time.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no entry delivered")
	}

	logging.Unsubscribe(ch)
	logging.Get("watcher").Warn("after unsubscribe")
	select {
	case e := <-ch:
		t.Fatalf("unexpected entry after unsubscribe: %v", e)
	default:
	}
}

func TestTUIModeBuffers(t *testing.T) {
	initTemp(t, logging.Config{Level: "info", ConsoleLevel: "info", TUIMode: true})

	logging.Get("inject").Info("searching")
	buf := logging.GetLogBuffer()
	require.NotNil(t, buf)
	require.Equal(t, 1, buf.Len())
	assert.Equal(t, "searching", buf.Entries()[0].Message)
}

func TestConcurrentWrites(t *testing.T) {
	path := initTemp(t, logging.Config{Level: "info"})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := logging.Get("archive")
			for i := 0; i < 25; i++ {
				l.Info("line")
			}
		}()
	}
	wg.Wait()
	require.NoError(t, logging.Close())

	assert.Equal(t, 200, strings.Count(readLog(t, path), "line"))
}

func TestDefaultLogPath(t *testing.T) {
	path := logging.DefaultLogPath()
	assert.Equal(t, "icepick.log", filepath.Base(path))
	assert.Equal(t, "icepick", filepath.Base(filepath.Dir(path)))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logging.Level{
		"debug":   logging.LevelDebug,
		"INFO":    logging.LevelInfo,
		" warn ":  logging.LevelWarn,
		"warning": logging.LevelWarn,
		"error":   logging.LevelError,
	}
	for in, want := range cases {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := logging.ParseLevel("trace")
	assert.ErrorIs(t, err, logging.ErrInvalidLevel)
	assert.Equal(t, "warn", logging.LevelWarn.String())
}
