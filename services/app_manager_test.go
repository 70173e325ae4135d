package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"launchdeck/internal/launch"
	"launchdeck/internal/models"
	"launchdeck/internal/portalloc"
	"launchdeck/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flaskSource = "from flask import Flask\napp = Flask(__name__)\n"

// fakeTable is an in-memory process table.
type fakeTable struct {
	mu       sync.Mutex
	alive    map[int]bool
	cmdlines map[int]string
	children map[int][]int
	shells   map[int]bool
	killed   []int
	probeErr error
}

func newFakeTable() *fakeTable {
	return &fakeTable{
		alive:    map[int]bool{},
		cmdlines: map[int]string{},
		children: map[int][]int{},
		shells:   map[int]bool{},
	}
}

func (f *fakeTable) IsRunning(ctx context.Context, pid int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return false, f.probeErr
	}
	return f.alive[pid], nil
}

func (f *fakeTable) Cmdline(ctx context.Context, pid int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.alive[pid] {
		return "", models.ErrProcessNotFound
	}
	return f.cmdlines[pid], nil
}

func (f *fakeTable) Descendants(ctx context.Context, pid int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, c := range f.children[pid] {
		if f.alive[c] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeTable) FindShells(ctx context.Context, match func(string) bool) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	var out []int
	for pid := range f.shells {
		if f.alive[pid] && match(f.cmdlines[pid]) {
			out = append(out, pid)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (f *fakeTable) Kill(ctx context.Context, pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.alive[pid] {
		return models.ErrProcessNotFound
	}
	f.alive[pid] = false
	f.killed = append(f.killed, pid)
	return nil
}

func (f *fakeTable) exit(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive[pid] = false
}

// fakeSpawner registers every spawned wrapper as a live shell in the table.
type fakeSpawner struct {
	table   *fakeTable
	next    int
	output  string
	err     error
	spawned []*launch.Spec
}

func (s *fakeSpawner) Spawn(ctx context.Context, spec *launch.Spec) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.next++
	pid := 100 + s.next
	s.spawned = append(s.spawned, spec)
	if s.output != "" {
		if err := os.WriteFile(spec.OutputPath, []byte(s.output), 0644); err != nil {
			return 0, err
		}
	}
	s.table.mu.Lock()
	s.table.alive[pid] = true
	s.table.shells[pid] = true
	s.table.cmdlines[pid] = spec.CommandLine()
	s.table.mu.Unlock()
	return pid, nil
}

type harness struct {
	mgr     *AppManager
	store   *store.SQLiteStore
	table   *fakeTable
	spawner *fakeSpawner
	dir     string
	open    map[int]bool
}

func newHarness(t *testing.T, max int) *harness {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "launchdeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ledger, err := portalloc.NewLedger(st, portalloc.Options{Min: 9000, Max: max, LockFile: filepath.Join(dir, "ports.lock")})
	require.NoError(t, err)

	h := &harness{store: st, table: newFakeTable(), dir: dir, open: map[int]bool{}}
	h.spawner = &fakeSpawner{table: h.table}
	h.mgr = NewAppManager(st, ledger, launch.NewBuilder(launch.Options{Platform: launch.PlatformUnix}),
		WithProcessTable(h.table),
		WithSpawner(h.spawner),
		WithProber(nil),
		WithOutputWait(0),
		WithPortCheck(func(port int) bool { return h.open[port] }),
	)
	return h
}

func (h *harness) file(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (h *harness) register(t *testing.T, name, path string) *models.Target {
	t.Helper()
	tg, err := h.mgr.Register(context.Background(), models.Registration{Name: name, Path: path})
	require.NoError(t, err)
	return tg
}

func (h *harness) logs(t *testing.T, id int64) []models.ExecutionLog {
	t.Helper()
	logs, err := h.mgr.Logs(context.Background(), id, 0)
	require.NoError(t, err)
	return logs
}

func countAction(logs []models.ExecutionLog, action models.LogAction) int {
	n := 0
	for _, l := range logs {
		if l.Action == action {
			n++
		}
	}
	return n
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()

	_, err := h.mgr.Register(ctx, models.Registration{Name: "", Path: "/x"})
	assert.ErrorIs(t, err, models.ErrInvalidTarget)
	_, err = h.mgr.Register(ctx, models.Registration{Name: "x", Path: "/x", Type: "daemon"})
	assert.ErrorIs(t, err, models.ErrInvalidTarget)

	tg := h.register(t, "deploy", h.file(t, "deploy.sh", "echo hi\n"))
	assert.Equal(t, models.TypeScript, tg.Type)
	assert.Equal(t, models.StatusStopped, tg.Status)
	assert.Zero(t, tg.Port)
}

func TestLaunchWebTarget(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "api", h.file(t, "api/app.py", flaskSource))

	res, err := h.mgr.Launch(ctx, tg.ID, true)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 101, res.Pid)
	assert.Equal(t, "http://localhost:9000", res.URL)

	got, err := h.mgr.Get(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, got.Status)
	assert.Equal(t, 9000, got.Port)
	assert.Equal(t, 101, got.Pid)

	logs := h.logs(t, tg.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionLaunch, logs[0].Action)
	assert.Equal(t, "Process started with PID: 101", logs[0].Details)

	status, err := h.mgr.CheckStatus(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, status.Status)
	require.NotNil(t, status.Port)
	assert.Equal(t, 9000, *status.Port)
	assert.Equal(t, "http://localhost:9000", status.URL)
}

func TestLaunchAlreadyRunning(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "tool", h.file(t, "tool.py", "print('hi')\n"))

	_, err := h.mgr.Launch(ctx, tg.ID, false)
	require.NoError(t, err)
	_, err = h.mgr.Launch(ctx, tg.ID, false)
	assert.ErrorIs(t, err, models.ErrAlreadyRunning)
}

func TestLaunchMissingPath(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	path := h.file(t, "gone/app.py", flaskSource)
	tg := h.register(t, "gone", path)
	require.NoError(t, os.Remove(path))

	_, err := h.mgr.Launch(ctx, tg.ID, true)
	assert.ErrorIs(t, err, models.ErrPathNotFound)

	got, _ := h.mgr.Get(ctx, tg.ID)
	assert.Equal(t, models.StatusStopped, got.Status)
	assert.Zero(t, got.Port)
}

func TestLaunchSpawnFailureReleasesPort(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "api", h.file(t, "api/app.py", flaskSource))
	h.spawner.err = fmt.Errorf("exec format error")

	_, err := h.mgr.Launch(ctx, tg.ID, true)
	require.Error(t, err)

	got, _ := h.mgr.Get(ctx, tg.ID)
	assert.Equal(t, models.StatusStopped, got.Status)
	assert.Zero(t, got.Port)
	assert.Zero(t, got.Pid)
	assert.Empty(t, h.logs(t, tg.ID))
}

// cancellingSpawner cancels the caller's context once the process is up.
type cancellingSpawner struct {
	*fakeSpawner
	cancel context.CancelFunc
}

func (s *cancellingSpawner) Spawn(ctx context.Context, spec *launch.Spec) (int, error) {
	pid, err := s.fakeSpawner.Spawn(ctx, spec)
	s.cancel()
	return pid, err
}

func TestLaunchRecordsProcessWhenCallerGoesAway(t *testing.T) {
	h := newHarness(t, 9002)
	tg := h.register(t, "api", h.file(t, "api/app.py", flaskSource))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.mgr.spawner = &cancellingSpawner{fakeSpawner: h.spawner, cancel: cancel}

	res, err := h.mgr.Launch(ctx, tg.ID, true)
	require.NoError(t, err)
	assert.True(t, res.Success)

	got, err := h.mgr.Get(context.Background(), tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, got.Status)
	assert.Equal(t, res.Pid, got.Pid)
	assert.Equal(t, 9000, got.Port)

	logs := h.logs(t, tg.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionLaunch, logs[0].Action)
}

// runningWriteFails rejects every write that marks a target Running.
type runningWriteFails struct {
	store.Store
}

func (s runningWriteFails) UpdateTarget(ctx context.Context, t *models.Target) error {
	if t.Status == models.StatusRunning {
		return fmt.Errorf("disk I/O error")
	}
	return s.Store.UpdateTarget(ctx, t)
}

func TestLaunchUnrecordedProcessIsKilled(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "api", h.file(t, "api/app.py", flaskSource))

	ledger, err := portalloc.NewLedger(h.store, portalloc.Options{Min: 9000, Max: 9002, LockFile: filepath.Join(h.dir, "ports.lock")})
	require.NoError(t, err)
	mgr := NewAppManager(runningWriteFails{h.store}, ledger, launch.NewBuilder(launch.Options{Platform: launch.PlatformUnix}),
		WithProcessTable(h.table),
		WithSpawner(h.spawner),
		WithProber(nil),
		WithOutputWait(0),
		WithPortCheck(func(port int) bool { return false }),
	)

	res, err := mgr.Launch(ctx, tg.ID, true)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, h.table.killed, 101)

	got, err := h.mgr.Get(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, got.Status)
	assert.Zero(t, got.Pid)
	assert.Zero(t, got.Port)
	assert.Empty(t, h.logs(t, tg.ID))
}

func TestLaunchInstallFailureLeavesTargetStopped(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "api", h.file(t, "api/app.py", flaskSource))
	h.spawner.output = "Starting api...\nInstalling dependencies...\nERROR: no matching distribution\n" + launch.MarkerInstallFailed + "\n"

	res, err := h.mgr.Launch(ctx, tg.ID, true)
	assert.ErrorIs(t, err, models.ErrDependencyInstallFailed)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "no matching distribution")

	got, _ := h.mgr.Get(ctx, tg.ID)
	assert.Equal(t, models.StatusStopped, got.Status)
	assert.Zero(t, got.Port)
	assert.Zero(t, got.Pid)
	assert.Contains(t, h.table.killed, 101)

	logs := h.logs(t, tg.ID)
	assert.Equal(t, 1, countAction(logs, models.ActionLaunch))
	assert.Equal(t, 1, countAction(logs, models.ActionStatusUpdate))
}

func TestPortExhaustionAndReuse(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	var ids []int64
	for _, name := range []string{"a", "b", "c", "d"} {
		ids = append(ids, h.register(t, name, h.file(t, name+"/app.py", flaskSource)).ID)
	}
	for i, id := range ids[:3] {
		res, err := h.mgr.Launch(ctx, id, false)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("http://localhost:%d", 9000+i), res.URL)
	}

	_, err := h.mgr.Launch(ctx, ids[3], false)
	assert.ErrorIs(t, err, models.ErrNoPortsAvailable)
	d, _ := h.mgr.Get(ctx, ids[3])
	assert.Equal(t, models.StatusStopped, d.Status)
	assert.Zero(t, d.Port)

	_, err = h.mgr.Stop(ctx, ids[0])
	require.NoError(t, err)
	res, err := h.mgr.Launch(ctx, ids[3], false)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", res.URL)
}

func TestStopKillsTreeAndIsIdempotent(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "api", h.file(t, "api/app.py", flaskSource))

	res, err := h.mgr.Launch(ctx, tg.ID, false)
	require.NoError(t, err)
	h.table.alive[500] = true
	h.table.alive[501] = true
	h.table.children[res.Pid] = []int{501, 500}

	stop, err := h.mgr.Stop(ctx, tg.ID)
	require.NoError(t, err)
	assert.True(t, stop.Success)
	assert.Equal(t, []int{501, 500, res.Pid}, stop.TerminatedPids)

	got, _ := h.mgr.Get(ctx, tg.ID)
	assert.Equal(t, models.StatusStopped, got.Status)
	assert.Zero(t, got.Port)
	assert.Zero(t, got.Pid)
	matches, _ := filepath.Glob(filepath.Join(h.dir, "api", launch.ScriptPrefix+"*"))
	assert.Empty(t, matches)

	again, err := h.mgr.Stop(ctx, tg.ID)
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.NotNil(t, again.TerminatedPids)
	assert.Empty(t, again.TerminatedPids)

	status, err := h.mgr.Status(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, status)
	assert.Equal(t, 2, countAction(h.logs(t, tg.ID), models.ActionStop))
}

func TestStopFindsOrphanedConsole(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	path := h.file(t, "tool.py", "print('hi')\n")
	tg := h.register(t, "tool", path)

	_, err := h.mgr.Launch(ctx, tg.ID, false)
	require.NoError(t, err)
	// the launcher exits while the console it opened keeps running the script
	h.table.exit(101)
	h.table.alive[700] = true
	h.table.shells[700] = true
	h.table.cmdlines[700] = "cmd /k python " + path

	stop, err := h.mgr.Stop(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{700}, stop.TerminatedPids)
}

func TestReconcileOutOfBandExit(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "api", h.file(t, "api/app.py", flaskSource))
	res, err := h.mgr.Launch(ctx, tg.ID, false)
	require.NoError(t, err)

	h.table.exit(res.Pid)

	first, err := h.mgr.CheckStatus(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, first.Status)
	assert.Nil(t, first.Port)

	second, err := h.mgr.CheckStatus(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, second.Status)

	logs := h.logs(t, tg.ID)
	assert.Equal(t, 1, countAction(logs, models.ActionStatusUpdate))
	assert.Equal(t, "Status changed from Running to Stopped", logs[0].Details)

	inUse, err := h.mgr.ports.InUse(ctx)
	require.NoError(t, err)
	assert.Zero(t, inUse)
}

func TestReconcileWebNeedsReferenceOrPort(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "api", h.file(t, "api/app.py", flaskSource))
	res, err := h.mgr.Launch(ctx, tg.ID, false)
	require.NoError(t, err)

	// pid reused by an unrelated process that doesn't serve the port
	h.table.cmdlines[res.Pid] = "/usr/bin/unrelated"
	delete(h.table.shells, res.Pid)
	status, err := h.mgr.CheckStatus(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStopped, status.Status)

	res, err = h.mgr.Launch(ctx, tg.ID, false)
	require.NoError(t, err)
	h.table.cmdlines[res.Pid] = "/usr/bin/unrelated"
	delete(h.table.shells, res.Pid)
	h.open[9000] = true
	status, err = h.mgr.CheckStatus(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, status.Status)
}

func TestReconcileProbeError(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "tool", h.file(t, "tool.py", "print('hi')\n"))
	_, err := h.mgr.Launch(ctx, tg.ID, false)
	require.NoError(t, err)

	h.table.probeErr = fmt.Errorf("%w: access denied", models.ErrProbe)
	status, err := h.mgr.CheckStatus(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, status.Status)

	logs := h.logs(t, tg.ID)
	assert.Equal(t, 1, countAction(logs, models.ActionStatusCheckError))
	assert.Zero(t, countAction(logs, models.ActionStatusUpdate))
}

func TestReconcileAdoptsConsoleShell(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	path := h.file(t, "tool.py", "print('hi')\n")
	tg := h.register(t, "tool", path)
	_, err := h.mgr.Launch(ctx, tg.ID, false)
	require.NoError(t, err)

	h.table.exit(101)
	h.table.alive[800] = true
	h.table.shells[800] = true
	h.table.cmdlines[800] = "python " + path

	status, err := h.mgr.CheckStatus(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRunning, status.Status)
	got, _ := h.mgr.Get(ctx, tg.ID)
	assert.Equal(t, 800, got.Pid)
	assert.Zero(t, countAction(h.logs(t, tg.ID), models.ActionStatusUpdate))
}

func TestRate(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "tool", h.file(t, "tool.py", ""))

	for _, bad := range []int{0, 6, -1} {
		_, err := h.mgr.Rate(ctx, tg.ID, bad)
		assert.ErrorIs(t, err, models.ErrInvalidRating)
	}
	rating, err := h.mgr.Rate(ctx, tg.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, rating)
	got, _ := h.mgr.Get(ctx, tg.ID)
	assert.Equal(t, 5, got.Rating)

	_, err = h.mgr.Rate(ctx, 999, 3)
	assert.ErrorIs(t, err, models.ErrTargetNotFound)
}

func TestOutput(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "tool", h.file(t, "tool.py", ""))

	out, err := h.mgr.Output(ctx, tg.ID)
	require.NoError(t, err)
	assert.Empty(t, out)

	h.spawner.output = "Starting tool...\n"
	_, err = h.mgr.Launch(ctx, tg.ID, false)
	require.NoError(t, err)
	out, err = h.mgr.Output(ctx, tg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Starting tool...\n", out)
}

func TestRemoveRunningTargetReleasesPort(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "api", h.file(t, "api/app.py", flaskSource))
	_, err := h.mgr.Launch(ctx, tg.ID, false)
	require.NoError(t, err)

	require.NoError(t, h.mgr.Remove(ctx, tg.ID))
	_, err = h.mgr.Get(ctx, tg.ID)
	assert.ErrorIs(t, err, models.ErrTargetNotFound)
	assert.Contains(t, h.table.killed, 101)
	inUse, _ := h.mgr.ports.InUse(ctx)
	assert.Zero(t, inUse)
	_, held := h.mgr.locks.Load(tg.ID)
	assert.False(t, held)
}

func TestRemoveKeepsLocksOfOtherTargets(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	a := h.register(t, "a", h.file(t, "a.sh", ""))
	b := h.register(t, "b", h.file(t, "b.sh", ""))
	_, err := h.mgr.Launch(ctx, b.ID, false)
	require.NoError(t, err)

	require.NoError(t, h.mgr.Remove(ctx, a.ID))
	_, held := h.mgr.locks.Load(a.ID)
	assert.False(t, held)
	_, held = h.mgr.locks.Load(b.ID)
	assert.True(t, held)

	assert.ErrorIs(t, h.mgr.Remove(ctx, a.ID), models.ErrTargetNotFound)
}

func TestUpdate(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "tool", h.file(t, "tool.py", ""))

	name := "renamed"
	got, err := h.mgr.Update(ctx, tg.ID, models.TargetUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	bad := models.AppType("daemon")
	_, err = h.mgr.Update(ctx, tg.ID, models.TargetUpdate{Type: &bad})
	assert.ErrorIs(t, err, models.ErrInvalidTarget)
}

func TestDiscoverRegistersOnce(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	h.file(t, "apps/blog/manage.py", "import os\nos.environ.setdefault('DJANGO_SETTINGS_MODULE', 'blog.settings')\n")
	h.file(t, "apps/api/app.py", flaskSource)
	root := filepath.Join(h.dir, "apps")

	dry, err := h.mgr.Discover(ctx, root, true)
	require.NoError(t, err)
	assert.Len(t, dry.Found, 2)
	assert.Empty(t, dry.Registered)
	assert.Contains(t, dry.Log, "Found Flask application: "+filepath.Join(root, "api", "app.py"))
	assert.Equal(t, "Discovery complete. Found 2 applications.", dry.Log[len(dry.Log)-1])

	first, err := h.mgr.Discover(ctx, root, false)
	require.NoError(t, err)
	assert.Len(t, first.Registered, 2)
	assert.Zero(t, first.Skipped)

	second, err := h.mgr.Discover(ctx, root, false)
	require.NoError(t, err)
	assert.Empty(t, second.Registered)
	assert.Equal(t, 2, second.Skipped)

	all, err := h.mgr.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCleanupRecent(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	h.register(t, "a", h.file(t, "a.sh", ""))
	h.register(t, "b", h.file(t, "b.sh", ""))

	_, err := h.mgr.CleanupRecent(ctx, 0)
	assert.Error(t, err)

	removed, err := h.mgr.CleanupRecent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	all, _ := h.mgr.List(ctx)
	assert.Empty(t, all)
}

func TestStats(t *testing.T) {
	h := newHarness(t, 9002)
	ctx := context.Background()
	tg := h.register(t, "api", h.file(t, "api/app.py", flaskSource))
	h.register(t, "tool", h.file(t, "tool.py", ""))
	_, err := h.mgr.Launch(ctx, tg.ID, false)
	require.NoError(t, err)

	total, running, ports, err := h.mgr.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, running)
	assert.Equal(t, 1, ports)
}
