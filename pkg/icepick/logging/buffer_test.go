package logging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(n int) []LogEntry {
	out := make([]LogEntry, n)
	for i := range out {
		out[i] = LogEntry{Message: fmt.Sprintf("m%d", i)}
	}
	return out
}

func messages(es []LogEntry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Message
	}
	return out
}

func TestLogBufferWrapsOldestFirst(t *testing.T) {
	b := NewLogBuffer(3)
	for _, e := range entries(5) {
		b.Add(e)
	}

	require.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"m2", "m3", "m4"}, messages(b.Entries()))
	assert.Equal(t, []string{"m3", "m4"}, messages(b.Last(2)))
	assert.Equal(t, []string{"m2", "m3", "m4"}, messages(b.Last(10)))
}

func TestLogBufferPartial(t *testing.T) {
	b := NewLogBuffer(4)
	for _, e := range entries(2) {
		b.Add(e)
	}
	assert.Equal(t, []string{"m0", "m1"}, messages(b.Entries()))
	assert.Equal(t, []string{"m1"}, messages(b.Last(1)))
}

func TestLogBufferClear(t *testing.T) {
	b := NewLogBuffer(2)
	for _, e := range entries(3) {
		b.Add(e)
	}
	b.Clear()
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Entries())
}

func TestNewLogBufferDefaultSize(t *testing.T) {
	b := NewLogBuffer(0)
	for _, e := range entries(DefaultBufferSize + 1) {
		b.Add(e)
	}
	assert.Equal(t, DefaultBufferSize, b.Len())
}
