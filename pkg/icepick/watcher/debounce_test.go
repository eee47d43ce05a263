package watcher

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	const quiet = 80 * time.Millisecond

	var (
		mu      sync.Mutex
		batches [][]RawEvent
		firedAt time.Time
	)
	d := NewDebouncer(quiet, func(batch []RawEvent) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, batch)
		firedAt = time.Now()
	})
	defer d.Stop()

	var last time.Time
	for i := 0; i < 10; i++ {
		d.Trigger(RawEvent{Path: "mods/a", Op: fsnotify.Write})
		last = time.Now()
		time.Sleep(quiet / 8)
	}
	assert.True(t, d.Pending())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Give a stale timer a chance to misfire.
	time.Sleep(2 * quiet)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 10)
	assert.GreaterOrEqual(t, firedAt.Sub(last), quiet)
	assert.False(t, d.Pending())
}

func TestDebouncerSeparateBursts(t *testing.T) {
	var count atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func([]RawEvent) { count.Add(1) })
	defer d.Stop()

	d.Trigger(RawEvent{Path: "a"})
	require.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Trigger(RawEvent{Path: "b"})
	require.Eventually(t, func() bool { return count.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncerDeliveriesDoNotOverlap(t *testing.T) {
	var (
		active  atomic.Int32
		overlap atomic.Bool
		count   atomic.Int32
	)
	d := NewDebouncer(5*time.Millisecond, func([]RawEvent) {
		if active.Add(1) > 1 {
			overlap.Store(true)
		}
		time.Sleep(30 * time.Millisecond)
		active.Add(-1)
		count.Add(1)
	})
	defer d.Stop()

	d.Trigger(RawEvent{Path: "a"})
	time.Sleep(15 * time.Millisecond)
	d.Trigger(RawEvent{Path: "b"})

	require.Eventually(t, func() bool { return count.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, overlap.Load())
}

func TestDebouncerStop(t *testing.T) {
	var count atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func([]RawEvent) { count.Add(1) })

	d.Trigger(RawEvent{Path: "a"})
	d.Stop()
	d.Trigger(RawEvent{Path: "b"})

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, count.Load())
}

func TestNewDebouncerDefaultQuiet(t *testing.T) {
	d := NewDebouncer(0, func([]RawEvent) {})
	assert.Equal(t, DefaultQuietPeriod, d.quiet)
}
