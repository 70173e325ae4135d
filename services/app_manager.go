package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"launchdeck/internal/config"
	"launchdeck/internal/detect"
	"launchdeck/internal/discovery"
	"launchdeck/internal/launch"
	"launchdeck/internal/logger"
	"launchdeck/internal/models"
	"launchdeck/internal/portalloc"
	"launchdeck/internal/proc"
	"launchdeck/internal/store"
	"launchdeck/internal/utils"
)

// ProcessTable is the view of OS processes the manager needs.
type ProcessTable interface {
	IsRunning(ctx context.Context, pid int) (bool, error)
	Cmdline(ctx context.Context, pid int) (string, error)
	Descendants(ctx context.Context, pid int) ([]int, error)
	FindShells(ctx context.Context, match func(cmdline string) bool) ([]int, error)
	Kill(ctx context.Context, pid int) error
}

/**
 * AppManager owns the lifecycle of catalogued targets
 * @description
 * - Operations on one target are serialized by a per-target mutex
 * - Operations on different targets run concurrently
 * - Launched processes outlive the request that started them
 */
type AppManager struct {
	store       store.Store
	ports       *portalloc.Ledger
	builder     *launch.Builder
	procs       ProcessTable
	spawner     Spawner
	prober      *launch.Prober
	openBrowser func(string) error
	portCheck   func(port int) bool
	reconciler  *Reconciler
	outputWait  time.Duration
	installDeps bool
	maxDepth    int
	locks       sync.Map
}

type Option func(*AppManager)

func WithProcessTable(p ProcessTable) Option {
	return func(m *AppManager) { m.procs = p }
}

func WithSpawner(s Spawner) Option {
	return func(m *AppManager) { m.spawner = s }
}

// WithProber sets the health prober for web targets, nil disables probing.
func WithProber(p *launch.Prober) Option {
	return func(m *AppManager) { m.prober = p }
}

func WithBrowser(open func(string) error) Option {
	return func(m *AppManager) { m.openBrowser = open }
}

func WithPortCheck(check func(port int) bool) Option {
	return func(m *AppManager) { m.portCheck = check }
}

func WithOutputWait(d time.Duration) Option {
	return func(m *AppManager) { m.outputWait = d }
}

func WithInstallDefault(install bool) Option {
	return func(m *AppManager) { m.installDeps = install }
}

func WithDiscoveryDepth(depth int) Option {
	return func(m *AppManager) { m.maxDepth = depth }
}

func NewAppManager(st store.Store, ports *portalloc.Ledger, builder *launch.Builder, opts ...Option) *AppManager {
	m := &AppManager{
		store:       st,
		ports:       ports,
		builder:     builder,
		openBrowser: launch.OpenBrowser,
		portCheck: func(port int) bool {
			return utils.CheckPortConnectable(port, utils.DefaultProbeTimeout)
		},
		outputWait:  time.Second,
		installDeps: true,
		maxDepth:    10,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.procs == nil {
		m.procs = proc.NewTable()
	}
	if m.spawner == nil {
		m.spawner = newProcessSpawner(m.wrapperExited)
	}
	m.reconciler = NewReconciler(st, ports, m.procs, m.portCheck, builder.Platform())
	return m
}

/**
 * Build a manager from configuration
 * @param {*config.AppConfig} cfg - Active configuration
 * @returns {*AppManager} Manager backed by the configured database
 * @returns {error} Store or port range errors
 */
func NewAppManagerFromConfig(cfg *config.AppConfig) (*AppManager, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	ledger, err := portalloc.NewLedger(st, portalloc.Options{
		Min:          cfg.Ports.Min,
		Max:          cfg.Ports.Max,
		Reserved:     cfg.Ports.Reserved,
		SkipOccupied: cfg.Ports.SkipOccupied,
		LockFile:     cfg.Ports.LockFile,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	builder := launch.NewBuilder(launch.Options{
		Shell:        cfg.Launcher.Shell,
		Terminal:     cfg.Launcher.Terminal,
		TerminalArgs: cfg.Launcher.TerminalArgs,
	})
	opts := []Option{
		WithOutputWait(time.Duration(cfg.Launcher.OutputWaitMs) * time.Millisecond),
		WithInstallDefault(cfg.Launcher.InstallDependencies),
		WithDiscoveryDepth(cfg.Discovery.MaxDepth),
		WithProber(launch.NewProber(cfg.Launcher.HealthRetries,
			time.Duration(cfg.Launcher.HealthIntervalMs)*time.Millisecond)),
	}
	if !cfg.Launcher.OpenBrowser {
		opts = append(opts, WithBrowser(nil))
	}
	return NewAppManager(st, ledger, builder, opts...), nil
}

var (
	appManager     *AppManager
	appManagerErr  error
	appManagerOnce sync.Once
)

// GetAppManager returns the process-wide manager built from the active configuration.
func GetAppManager() (*AppManager, error) {
	appManagerOnce.Do(func() {
		appManager, appManagerErr = NewAppManagerFromConfig(config.App())
	})
	return appManager, appManagerErr
}

func (m *AppManager) Close() error {
	return m.store.Close()
}

// InstallDefault is used when a launch request doesn't say whether to install dependencies.
func (m *AppManager) InstallDefault() bool {
	return m.installDeps
}

func (m *AppManager) lockTarget(id int64) func() {
	v, _ := m.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (m *AppManager) appendLog(ctx context.Context, id int64, action models.LogAction, details string) {
	if _, err := m.store.AppendLog(ctx, id, action, details); err != nil {
		logger.Errorf("Failed to append %s log for target %d: %v", action, id, err)
	}
}

/**
 * Register a target in the catalog
 * @param {context.Context} ctx - Request context
 * @param {models.Registration} reg - Name, path and optional type
 * @returns {*models.Target} Stored target, Stopped with no port
 * @returns {error} ErrInvalidTarget for an empty name/path or unknown type
 * @description
 * - The path is stored absolute
 * - A missing type is derived from the file extension
 */
func (m *AppManager) Register(ctx context.Context, reg models.Registration) (*models.Target, error) {
	name := strings.TrimSpace(reg.Name)
	if name == "" || strings.TrimSpace(reg.Path) == "" {
		return nil, fmt.Errorf("%w: name and path are required", models.ErrInvalidTarget)
	}
	path, err := filepath.Abs(reg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidTarget, err)
	}
	typ := reg.Type
	if typ == "" {
		typ = detect.DetectType(path)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", models.ErrInvalidTarget, typ)
	}
	t := &models.Target{
		Name:        name,
		Path:        path,
		Type:        typ,
		Status:      models.StatusStopped,
		Description: reg.Description,
		UserGuide:   reg.UserGuide,
	}
	if err := m.store.CreateTarget(ctx, t); err != nil {
		return nil, err
	}
	logger.Infof("Registered target %d (%s) at %s", t.ID, t.Name, t.Path)
	return t, nil
}

/**
 * Register many targets, skipping paths already in the catalog
 * @returns {[]*models.Target} Newly stored targets
 * @returns {int} Number of registrations skipped as duplicates
 */
func (m *AppManager) RegisterAll(ctx context.Context, regs []models.Registration) ([]*models.Target, int, error) {
	registered := []*models.Target{}
	skipped := 0
	for _, reg := range regs {
		path, err := filepath.Abs(reg.Path)
		if err != nil {
			skipped++
			continue
		}
		_, err = m.store.FindTargetByPath(ctx, path)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, models.ErrTargetNotFound) {
			return registered, skipped, err
		}
		reg.Path = path
		t, err := m.Register(ctx, reg)
		if err != nil {
			logger.Warnf("Skipping %s: %v", reg.Path, err)
			skipped++
			continue
		}
		registered = append(registered, t)
	}
	return registered, skipped, nil
}

func (m *AppManager) Get(ctx context.Context, id int64) (*models.Target, error) {
	return m.store.GetTarget(ctx, id)
}

func (m *AppManager) List(ctx context.Context) ([]*models.Target, error) {
	return m.store.ListTargets(ctx)
}

// Update changes the descriptive fields of a target.
func (m *AppManager) Update(ctx context.Context, id int64, upd models.TargetUpdate) (*models.Target, error) {
	unlock := m.lockTarget(id)
	defer unlock()

	t, err := m.store.GetTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Path != nil {
		abs, err := filepath.Abs(*upd.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidTarget, err)
		}
		upd.Path = &abs
	}
	upd.Apply(t)
	if strings.TrimSpace(t.Name) == "" || !t.Type.Valid() {
		return nil, fmt.Errorf("%w: name must be set and type one of executable, script, web", models.ErrInvalidTarget)
	}
	if err := m.store.UpdateTarget(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

/**
 * Remove a target from the catalog
 * @description
 * - A running target is stopped first, then its port is released
 * - Logs are deleted together with the target
 */
func (m *AppManager) Remove(ctx context.Context, id int64) error {
	unlock := m.lockTarget(id)
	defer unlock()

	t, err := m.store.GetTarget(ctx, id)
	if err != nil {
		return err
	}
	if t.Status == models.StatusRunning || t.Pid > 0 {
		m.terminate(ctx, t)
	}
	if err := m.ports.Release(ctx, t); err != nil {
		return err
	}
	if err := m.store.DeleteTarget(ctx, id); err != nil {
		return err
	}
	// waiters still queued on the old mutex find the target gone
	m.locks.Delete(id)
	launch.RemoveScripts(t)
	os.Remove(launch.OutputPath(t))
	logger.Infof("Removed target %d (%s)", t.ID, t.Name)
	return nil
}

/**
 * Launch a target as a detached process
 * @param {context.Context} ctx - Request context, only bounds the initial output wait
 * @param {int64} id - Target id
 * @param {bool} installDeps - Install requirements.txt into the environment first
 * @returns {*models.LaunchResult} Pid, early output and URL for web targets
 * @returns {error} Path, port, spawn or script failure
 * @description
 * - Web entry points without a port get one before anything is spawned
 * - A failed launch leaves the target Stopped with no port
 * - Activation or install failures reported by the script within the output window
 *   fail the launch and return the partial output
 * - Web targets are probed in the background, the browser opens on success
 */
func (m *AppManager) Launch(ctx context.Context, id int64, installDeps bool) (*models.LaunchResult, error) {
	unlock := m.lockTarget(id)
	defer unlock()

	t, err := m.store.GetTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Pid > 0 {
		if alive, _ := m.procs.IsRunning(ctx, t.Pid); alive {
			return nil, fmt.Errorf("%s (PID %d): %w", t.Name, t.Pid, models.ErrAlreadyRunning)
		}
	}
	if _, err := os.Stat(t.Path); err != nil {
		recordLaunch(false)
		return nil, fmt.Errorf("%s: %w", t.Path, models.ErrPathNotFound)
	}

	env := detect.ResolveEnvironment(t.Path)
	cls := detect.Classify(t.Path)
	if cls.IsWeb {
		if _, err := m.ports.Allocate(ctx, t); err != nil {
			recordLaunch(false)
			return nil, err
		}
	}

	spec, err := m.builder.Build(t, env, cls, t.Port, installDeps)
	if err != nil {
		m.abortLaunch(ctx, t)
		return nil, err
	}
	logger.Infof("Executing command: %s", spec.CommandLine())

	pid, err := m.spawner.Spawn(ctx, spec)
	if err != nil {
		m.abortLaunch(ctx, t)
		return nil, fmt.Errorf("failed to start %s: %w", t.Name, err)
	}

	// The process exists now; its bookkeeping must survive a caller that went away.
	bg := context.WithoutCancel(ctx)
	t.Pid = pid
	t.Status = models.StatusRunning
	if err := m.store.UpdateTarget(bg, t); err != nil {
		logger.Errorf("Failed to record launch of target %d: %v", t.ID, err)
		m.terminate(bg, t)
		m.abortLaunch(bg, t)
		return nil, fmt.Errorf("failed to record launch of %s: %w", t.Name, err)
	}
	m.appendLog(bg, t.ID, models.ActionLaunch, fmt.Sprintf("Process started with PID: %d", pid))

	output := m.waitOutput(ctx, spec.OutputPath)
	if ferr := launch.FailureFromOutput(output); ferr != nil {
		m.terminate(bg, t)
		m.markStopped(bg, t, fmt.Sprintf("Status changed from %s to %s: %v", models.StatusRunning, models.StatusStopped, ferr))
		recordLaunch(false)
		return &models.LaunchResult{Success: false, Pid: pid, Output: output},
			fmt.Errorf("%s: %w", t.Name, ferr)
	}

	if spec.URL != "" && m.prober != nil {
		m.prober.WatchAndOpen(context.Background(), spec.URL, m.openBrowser)
	}
	recordLaunch(true)
	return &models.LaunchResult{Success: true, Pid: pid, Output: output, URL: spec.URL}, nil
}

func (m *AppManager) waitOutput(ctx context.Context, path string) string {
	if m.outputWait > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(m.outputWait):
		}
	}
	return launch.ReadOutput(path)
}

func (m *AppManager) abortLaunch(ctx context.Context, t *models.Target) {
	recordLaunch(false)
	if err := m.ports.Release(ctx, t); err != nil {
		logger.Errorf("Failed to release port of target %d: %v", t.ID, err)
	}
	t.Status = models.StatusStopped
	t.Pid = 0
	if err := m.store.UpdateTarget(ctx, t); err != nil {
		logger.Errorf("Failed to reset target %d: %v", t.ID, err)
	}
}

func (m *AppManager) markStopped(ctx context.Context, t *models.Target, details string) {
	if err := m.ports.Release(ctx, t); err != nil {
		logger.Errorf("Failed to release port of target %d: %v", t.ID, err)
	}
	t.Status = models.StatusStopped
	t.Pid = 0
	if err := m.store.UpdateTarget(ctx, t); err != nil {
		logger.Errorf("Failed to update target %d: %v", t.ID, err)
	}
	m.appendLog(ctx, t.ID, models.ActionStatusUpdate, details)
}

/**
 * Kill everything that belongs to a target
 * @returns {[]int} Pids that were terminated
 * @description
 * - The recorded pid's descendants go first, deepest first, then the pid itself
 * - Shell hosts whose command line references the target are found and killed the same way,
 *   which catches console windows whose launching process already exited
 * - Processes that vanished in between are ignored
 */
func (m *AppManager) terminate(ctx context.Context, t *models.Target) []int {
	terminated := []int{}
	seen := map[int]bool{}
	kill := func(pid int) {
		if seen[pid] {
			return
		}
		seen[pid] = true
		if err := m.procs.Kill(ctx, pid); err != nil {
			if !errors.Is(err, models.ErrProcessNotFound) {
				logger.Warnf("Failed to kill PID %d of target %d: %v", pid, t.ID, err)
			}
			return
		}
		terminated = append(terminated, pid)
	}
	killTree := func(pid int) {
		children, err := m.procs.Descendants(ctx, pid)
		if err != nil {
			logger.Debugf("Failed to list children of PID %d: %v", pid, err)
		}
		for _, child := range children {
			kill(child)
		}
		kill(pid)
	}

	if t.Pid > 0 {
		if alive, err := m.procs.IsRunning(ctx, t.Pid); err == nil && alive {
			killTree(t.Pid)
		}
	}
	shells, err := m.procs.FindShells(ctx, launch.CommandLineMatcher(t, m.builder.Platform()))
	if err != nil {
		logger.Debugf("Shell scan for target %d failed: %v", t.ID, err)
	}
	for _, pid := range shells {
		if !seen[pid] {
			killTree(pid)
		}
	}
	return terminated
}

/**
 * Stop a target and everything it spawned
 * @returns {*models.StopResult} Always successful, TerminatedPids may be empty
 * @description
 * - Idempotent: stopping a Stopped target succeeds with an empty list
 */
func (m *AppManager) Stop(ctx context.Context, id int64) (*models.StopResult, error) {
	unlock := m.lockTarget(id)
	defer unlock()

	t, err := m.store.GetTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	terminated := m.terminate(ctx, t)

	if err := m.ports.Release(ctx, t); err != nil {
		return nil, err
	}
	t.Status = models.StatusStopped
	t.Pid = 0
	if err := m.store.UpdateTarget(ctx, t); err != nil {
		return nil, err
	}
	m.appendLog(ctx, t.ID, models.ActionStop, fmt.Sprintf("Application stopped. Terminated PIDs: %v", terminated))
	launch.RemoveScripts(t)
	recordStop()
	return &models.StopResult{Success: true, TerminatedPids: terminated}, nil
}

// Status returns the stored status without looking at the OS.
func (m *AppManager) Status(ctx context.Context, id int64) (models.AppStatus, error) {
	t, err := m.store.GetTarget(ctx, id)
	if err != nil {
		return "", err
	}
	return t.Status, nil
}

/**
 * Reconcile a target against the OS and report the result
 * @returns {*models.StatusResult} Status, port and URL after reconciliation
 */
func (m *AppManager) CheckStatus(ctx context.Context, id int64) (*models.StatusResult, error) {
	unlock := m.lockTarget(id)
	defer unlock()

	t, err := m.store.GetTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	m.reconciler.Reconcile(ctx, t)

	res := &models.StatusResult{Status: t.Status}
	if t.Port != 0 {
		port := t.Port
		res.Port = &port
		res.URL = t.URL()
	}
	return res, nil
}

/**
 * Reconcile a target as soon as its launch wrapper has been reaped
 * @param {int64} targetID - Target the wrapper was spawned for
 * @param {*ProcessInstance} pi - Reaped wrapper
 * @description
 * - Only headless wrappers are the app itself, a terminal wrapper ending says nothing
 * - Runs on the watcher goroutine and waits for any operation holding the target
 */
func (m *AppManager) wrapperExited(targetID int64, pi *ProcessInstance) {
	if !pi.Headless {
		return
	}
	if _, err := m.CheckStatus(context.Background(), targetID); err != nil {
		logger.Debugf("Skipping reconcile of target %d after wrapper exit: %v", targetID, err)
		if errors.Is(err, models.ErrTargetNotFound) {
			// removed while the wrapper was being reaped
			m.locks.Delete(targetID)
		}
	}
}

// ReconcileAll checks every target that is believed to be running.
func (m *AppManager) ReconcileAll(ctx context.Context) error {
	targets, err := m.store.ListTargets(ctx)
	if err != nil {
		return err
	}
	for _, t := range targets {
		if t.Status != models.StatusRunning {
			continue
		}
		if _, err := m.CheckStatus(ctx, t.ID); err != nil {
			logger.Warnf("Reconcile of target %d failed: %v", t.ID, err)
		}
	}
	return nil
}

// Output returns the captured console output of the last launch, "" when there is none.
func (m *AppManager) Output(ctx context.Context, id int64) (string, error) {
	t, err := m.store.GetTarget(ctx, id)
	if err != nil {
		return "", err
	}
	return launch.ReadOutput(launch.OutputPath(t)), nil
}

func (m *AppManager) Rate(ctx context.Context, id int64, rating int) (int, error) {
	if rating < 1 || rating > 5 {
		return 0, models.ErrInvalidRating
	}
	unlock := m.lockTarget(id)
	defer unlock()

	t, err := m.store.GetTarget(ctx, id)
	if err != nil {
		return 0, err
	}
	t.Rating = rating
	if err := m.store.UpdateTarget(ctx, t); err != nil {
		return 0, err
	}
	return rating, nil
}

func (m *AppManager) Logs(ctx context.Context, id int64, limit int) ([]models.ExecutionLog, error) {
	if _, err := m.store.GetTarget(ctx, id); err != nil {
		return nil, err
	}
	return m.store.ListLogs(ctx, id, limit)
}

// Process returns the wrapper process launched by this manager for a target, if any.
func (m *AppManager) Process(id int64) (*models.ProcessDetail, bool) {
	ps, ok := m.spawner.(*processSpawner)
	if !ok {
		return nil, false
	}
	pi := ps.Instance(id)
	if pi == nil {
		return nil, false
	}
	detail := pi.GetDetail()
	return &detail, true
}

/**
 * Scan a directory tree for web apps and register what was found
 * @param {string} root - Directory to scan
 * @param {bool} dryRun - Only report, don't register
 * @returns {*models.DiscoverResult} Found registrations, stored targets and duplicate count
 */
func (m *AppManager) Discover(ctx context.Context, root string, dryRun bool) (*models.DiscoverResult, error) {
	var trail []string
	scanner := discovery.NewScanner(discovery.Options{
		MaxDepth: m.maxDepth,
		Progress: func(message string) { trail = append(trail, message) },
	})
	found, err := scanner.Scan(ctx, root)
	if err != nil {
		return nil, err
	}
	res := &models.DiscoverResult{Found: found, Registered: []*models.Target{}, Log: trail}
	if dryRun {
		return res, nil
	}
	res.Registered, res.Skipped, err = m.RegisterAll(ctx, found)
	if err != nil {
		return nil, err
	}
	logger.Infof("Discovery in %s: %d found, %d registered, %d skipped",
		root, len(found), len(res.Registered), res.Skipped)
	return res, nil
}

// CleanupRecent removes targets created within the last minutes.
func (m *AppManager) CleanupRecent(ctx context.Context, minutes int) ([]*models.Target, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: minutes must be positive", models.ErrInvalidTarget)
	}
	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute)
	targets, err := m.store.ListTargets(ctx)
	if err != nil {
		return nil, err
	}
	removed := []*models.Target{}
	for _, t := range targets {
		if t.CreatedAt.Before(cutoff) {
			continue
		}
		if err := m.Remove(ctx, t.ID); err != nil {
			return removed, err
		}
		removed = append(removed, t)
	}
	return removed, nil
}

// Stats summarizes the catalog for the health endpoint.
func (m *AppManager) Stats(ctx context.Context) (total, running, ports int, err error) {
	targets, err := m.store.ListTargets(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	for _, t := range targets {
		if t.Status == models.StatusRunning {
			running++
		}
	}
	ports, err = m.ports.InUse(ctx)
	return len(targets), running, ports, err
}
