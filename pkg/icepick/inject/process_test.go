package inject

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameProcessName(t *testing.T) {
	assert.True(t, sameProcessName("Titanfall2.exe", "Titanfall2"))
	assert.True(t, sameProcessName("titanfall2", "Titanfall2"))
	assert.True(t, sameProcessName("Titanfall2.exe", "titanfall2.exe"))
	assert.False(t, sameProcessName("Titanfall2Launcher.exe", "Titanfall2"))
}

func TestOSErrorFormat(t *testing.T) {
	err := &OSError{Msg: "Only part of a ReadProcessMemory or WriteProcessMemory request was completed.", Code: 299}
	assert.Equal(t, "Only part of a ReadProcessMemory or WriteProcessMemory request was completed., Error Code 299", err.Error())
}

func TestSystemFinderFindsSelf(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)
	name := strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))

	procs, err := NewSystemFinder().FindByName(context.Background(), name)
	if err != nil {
		t.Skipf("process listing unavailable: %v", err)
	}
	defer closeAll(procs)

	var pids []int
	for _, p := range procs {
		pids = append(pids, p.PID())
	}
	assert.Contains(t, pids, os.Getpid())
}

func TestSystemFinderNoMatch(t *testing.T) {
	procs, err := NewSystemFinder().FindByName(context.Background(), "definitely-not-running-icepick-target")
	if err != nil {
		t.Skipf("process listing unavailable: %v", err)
	}
	assert.Empty(t, procs)
}
