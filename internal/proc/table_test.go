//go:build !windows

package proc

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"launchdeck/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSleeper(t *testing.T, script string) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("/bin/sh", "-c", script)
	require.NoError(t, cmd.Start())
	go cmd.Wait()
	t.Cleanup(func() { cmd.Process.Kill() })
	return cmd
}

func TestIsRunning(t *testing.T) {
	table := NewTable()
	ctx := context.Background()

	cmd := startSleeper(t, "sleep 30")
	running, err := table.IsRunning(ctx, cmd.Process.Pid)
	require.NoError(t, err)
	assert.True(t, running)

	running, err = table.IsRunning(ctx, 0)
	require.NoError(t, err)
	assert.False(t, running)
}

func TestDescendantsAndKill(t *testing.T) {
	table := NewTable()
	ctx := context.Background()

	// the parent must outlive its children; a bare wait would let sh exit once they die
	cmd := startSleeper(t, "sleep 30 & sleep 30 & wait; sleep 30")
	pid := cmd.Process.Pid

	var kids []int
	require.Eventually(t, func() bool {
		var err error
		kids, err = table.Descendants(ctx, pid)
		return err == nil && len(kids) == 2
	}, 3*time.Second, 50*time.Millisecond)

	for _, k := range kids {
		require.NoError(t, table.Kill(ctx, k))
	}
	require.NoError(t, table.Kill(ctx, pid))

	assert.Eventually(t, func() bool {
		running, _ := table.IsRunning(ctx, pid)
		return !running
	}, 3*time.Second, 50*time.Millisecond)
}

func TestKillMissingProcess(t *testing.T) {
	table := NewTable()
	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	require.NoError(t, cmd.Run())

	err := table.Kill(context.Background(), cmd.Process.Pid)
	assert.ErrorIs(t, err, models.ErrProcessNotFound)
}

func TestFindShells(t *testing.T) {
	table := NewTable()
	marker := "launchdeck-find-shells-marker"
	cmd := startSleeper(t, "sleep 30; echo "+marker)

	var pids []int
	require.Eventually(t, func() bool {
		var err error
		pids, err = table.FindShells(context.Background(), func(cmdline string) bool {
			return strings.Contains(cmdline, marker)
		})
		return err == nil && len(pids) > 0
	}, 3*time.Second, 50*time.Millisecond)
	assert.Contains(t, pids, cmd.Process.Pid)
}
