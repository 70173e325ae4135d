package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"launchdeck/internal/launch"
	"launchdeck/internal/logger"
	"launchdeck/internal/models"
	"launchdeck/internal/utils"
)

/**
 * ProcessInstance is one spawned launch wrapper
 * @property {string} title - Display name
 * @property {string} command - Program started
 * @property {[]string} args - Program arguments
 * @property {string} workDir - Working directory
 * @property {string} status - running/exited/error
 * @property {int} exitCode - Exit code once the wrapper ended
 * @property {time.Time} startTime - Spawn time
 * @property {time.Time} lastExitTime - Exit time
 * @property {string} lastExitReason - Why it ended
 */
type ProcessInstance struct {
	Title          string
	Command        string
	Args           []string
	WorkDir        string
	RawCmdLine     string
	OutputPath     string
	Headless       bool
	Status         models.RunStatus
	ExitCode       int
	StartTime      time.Time
	LastExitTime   time.Time
	LastExitReason string
	process        *os.Process
	onExited       func(*ProcessInstance)
	mutex          sync.Mutex
}

func NewProcessInstance(spec *launch.Spec) *ProcessInstance {
	return &ProcessInstance{
		Title:      spec.Title,
		Command:    spec.Command,
		Args:       spec.Args,
		WorkDir:    spec.WorkDir,
		RawCmdLine: spec.RawCmdLine,
		OutputPath: spec.OutputPath,
		Headless:   spec.Headless,
		Status:     models.ProcExited,
	}
}

func (pi *ProcessInstance) Pid() int {
	if pi.process == nil {
		return 0
	}
	return pi.process.Pid
}

func (pi *ProcessInstance) GetDetail() models.ProcessDetail {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()

	return models.ProcessDetail{
		Title:          pi.Title,
		Command:        pi.Command,
		Args:           pi.Args,
		WorkDir:        pi.WorkDir,
		Pid:            pi.Pid(),
		Status:         pi.Status,
		ExitCode:       pi.ExitCode,
		StartTime:      pi.StartTime,
		LastExitTime:   pi.LastExitTime,
		LastExitReason: pi.LastExitReason,
	}
}

/**
 * StartProcess spawns the wrapper detached from the caller
 * @returns {error} Start error
 * @description
 * - The child gets its own process group and is never tied to a request context
 * - Headless wrappers append stdout/stderr to the output capture file
 * - A watcher goroutine reaps the child and records how it ended
 */
func (pi *ProcessInstance) StartProcess() error {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()

	if pi.Status == models.ProcRunning {
		return nil
	}
	cmd := exec.Command(pi.Command, pi.Args...)
	if pi.WorkDir != "" {
		cmd.Dir = pi.WorkDir
	}
	utils.SetNewPG(cmd)
	if pi.RawCmdLine != "" {
		utils.SetRawCmdLine(cmd, pi.RawCmdLine)
	}

	var out *os.File
	if pi.Headless && pi.OutputPath != "" {
		f, err := os.OpenFile(pi.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		out = f
		cmd.Stdout = f
		cmd.Stderr = f
	}

	err := cmd.Start()
	if out != nil {
		out.Close()
	}
	if err != nil {
		pi.Status = models.ProcError
		pi.LastExitReason = fmt.Sprintf("start failed: %v", err)
		logger.Errorf("Failed to start process '%s', error: %v", pi.Title, err)
		return err
	}

	pi.process = cmd.Process
	pi.Status = models.ProcRunning
	pi.StartTime = time.Now()
	logger.Infof("Process '%s' started (PID: %d)", pi.Title, pi.Pid())

	go pi.watchProcess(cmd)
	return nil
}

func (pi *ProcessInstance) watchProcess(cmd *exec.Cmd) {
	err := cmd.Wait()

	pi.mutex.Lock()
	pi.LastExitTime = time.Now()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		pi.Status = models.ProcExited
		pi.ExitCode = 0
		pi.LastExitReason = "exited normally"
	case errors.As(err, &exitErr):
		pi.Status = models.ProcError
		pi.ExitCode = exitErr.ExitCode()
		pi.LastExitReason = fmt.Sprintf("exited with code %d", pi.ExitCode)
	default:
		pi.Status = models.ProcError
		pi.ExitCode = -1
		pi.LastExitReason = fmt.Sprintf("exited with error: %v", err)
	}
	logger.Infof("Process '%s' (PID: %d) %s", pi.Title, cmd.Process.Pid, pi.LastExitReason)
	onExited := pi.onExited
	pi.mutex.Unlock()

	if onExited != nil {
		onExited(pi)
	}
}

// Spawner starts a rendered launch and returns the pid to record.
type Spawner interface {
	Spawn(ctx context.Context, spec *launch.Spec) (int, error)
}

// processSpawner keeps the last wrapper of every target for inspection.
type processSpawner struct {
	mu        sync.Mutex
	instances map[int64]*ProcessInstance
	onExit    func(targetID int64, pi *ProcessInstance)
}

// newProcessSpawner calls onExit, when set, after a wrapper has been reaped.
func newProcessSpawner(onExit func(targetID int64, pi *ProcessInstance)) *processSpawner {
	return &processSpawner{instances: make(map[int64]*ProcessInstance), onExit: onExit}
}

func (s *processSpawner) Spawn(ctx context.Context, spec *launch.Spec) (int, error) {
	pi := NewProcessInstance(spec)
	if s.onExit != nil {
		targetID := spec.TargetID
		pi.onExited = func(p *ProcessInstance) { s.onExit(targetID, p) }
	}
	if err := pi.StartProcess(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.instances[spec.TargetID] = pi
	s.mu.Unlock()
	return pi.Pid(), nil
}

func (s *processSpawner) Instance(targetID int64) *ProcessInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instances[targetID]
}
