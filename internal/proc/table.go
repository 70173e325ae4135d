package proc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"launchdeck/internal/logger"
	"launchdeck/internal/models"
	"launchdeck/internal/utils"

	"github.com/shirou/gopsutil/v3/process"
)

/**
 * Table inspects and signals OS processes
 * @description
 * - Backed by gopsutil, works the same on Linux, macOS and Windows
 * - Never reports or kills the current process
 */
type Table struct {
	self        int32
	gracePolls  int
	gracePeriod time.Duration
}

func NewTable() *Table {
	return &Table{
		self:        int32(os.Getpid()),
		gracePolls:  10,
		gracePeriod: 100 * time.Millisecond,
	}
}

/**
 * Check whether pid is a live process
 * @param {int} pid - Process id
 * @returns {bool} True if the process exists and isn't a zombie
 * @returns {error} Wrapped ErrProbe when the OS query itself failed
 */
func (t *Table) IsRunning(ctx context.Context, pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}
	exists, err := process.PidExistsWithContext(ctx, int32(pid))
	if err != nil {
		return false, fmt.Errorf("%w: pid %d: %v", models.ErrProbe, pid, err)
	}
	if !exists {
		return false, nil
	}
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return false, nil
		}
		return false, fmt.Errorf("%w: pid %d: %v", models.ErrProbe, pid, err)
	}
	if status, err := p.StatusWithContext(ctx); err == nil {
		for _, s := range status {
			if s == process.Zombie {
				return false, nil
			}
		}
	}
	return true, nil
}

func (t *Table) Cmdline(ctx context.Context, pid int) (string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return "", fmt.Errorf("pid %d: %w", pid, models.ErrProcessNotFound)
	}
	return p.CmdlineWithContext(ctx)
}

type entry struct {
	pid     int32
	ppid    int32
	name    string
	cmdline string
}

func (t *Table) snapshot(ctx context.Context, withCmdline bool) ([]entry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list processes: %v", models.ErrProbe, err)
	}
	entries := make([]entry, 0, len(procs))
	for _, p := range procs {
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			continue
		}
		e := entry{pid: p.Pid, ppid: ppid}
		if withCmdline {
			e.name, _ = p.NameWithContext(ctx)
			e.cmdline, _ = p.CmdlineWithContext(ctx)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

/**
 * List every descendant of pid
 * @param {int} pid - Root process
 * @returns {[]int} Descendants, deepest first, the root excluded
 * @description
 * - Killing in the returned order never orphans a grandchild before its parent dies
 */
func (t *Table) Descendants(ctx context.Context, pid int) ([]int, error) {
	entries, err := t.snapshot(ctx, false)
	if err != nil {
		return nil, err
	}
	children := make(map[int32][]int32)
	for _, e := range entries {
		if e.pid == e.ppid {
			continue
		}
		children[e.ppid] = append(children[e.ppid], e.pid)
	}

	var out []int
	seen := map[int32]bool{int32(pid): true}
	var walk func(p int32)
	walk = func(p int32) {
		for _, c := range children[p] {
			if seen[c] {
				continue
			}
			seen[c] = true
			walk(c)
			if c != t.self {
				out = append(out, int(c))
			}
		}
	}
	walk(int32(pid))
	return out, nil
}

/**
 * Find shell-host processes whose command line satisfies match
 * @param {func(string) bool} match - Command line predicate
 * @returns {[]int} Matching pids
 */
func (t *Table) FindShells(ctx context.Context, match func(cmdline string) bool) ([]int, error) {
	entries, err := t.snapshot(ctx, true)
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, e := range entries {
		if e.pid == t.self || !isShellHost(e.name) {
			continue
		}
		if match(e.cmdline) {
			pids = append(pids, int(e.pid))
		}
	}
	return pids, nil
}

func isShellHost(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	for _, s := range utils.ShellHosts {
		if base == s {
			return true
		}
	}
	return false
}

/**
 * Terminate a process, escalating to a hard kill
 * @param {int} pid - Process id
 * @returns {error} ErrProcessNotFound if it was already gone
 * @description
 * - Sends a terminate request first and polls for exit
 * - Falls back to a hard kill once the grace period is over
 */
func (t *Table) Kill(ctx context.Context, pid int) error {
	if int32(pid) == t.self {
		return fmt.Errorf("refusing to kill self (pid %d)", pid)
	}
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return fmt.Errorf("pid %d: %w", pid, models.ErrProcessNotFound)
	}
	if err := p.TerminateWithContext(ctx); err == nil {
		for i := 0; i < t.gracePolls; i++ {
			if running, _ := t.IsRunning(ctx, pid); !running {
				logger.Debugf("Process %d terminated gracefully", pid)
				return nil
			}
			time.Sleep(t.gracePeriod)
		}
	}
	if err := p.KillWithContext(ctx); err != nil {
		if running, _ := t.IsRunning(ctx, pid); !running {
			return nil
		}
		return fmt.Errorf("failed to kill process %d: %w", pid, err)
	}
	logger.Debugf("Process %d force killed", pid)
	return nil
}
