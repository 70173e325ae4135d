package portalloc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"launchdeck/internal/logger"
	"launchdeck/internal/models"
	"launchdeck/internal/utils"

	"github.com/gofrs/flock"
)

// PortStore is the persistence the ledger reads and writes through.
type PortStore interface {
	UsedPorts(ctx context.Context) ([]int, error)
	SetPort(ctx context.Context, id int64, port int) error
}

type Options struct {
	Min          int
	Max          int
	Reserved     []int
	SkipOccupied bool
	LockFile     string
}

/**
 * Ledger hands out ports from a bounded range
 * @description
 * - The set of used ports is always read from the store, never cached
 * - Scan-and-assign runs under one in-process mutex plus an optional file lock,
 *   so two launchers sharing a database don't pick the same port
 * - Lowest free port wins
 */
type Ledger struct {
	mu       sync.Mutex
	fileLock *flock.Flock
	store    PortStore
	min      int
	max      int
	reserved map[int]struct{}
	skipBusy bool
}

func NewLedger(store PortStore, opts Options) (*Ledger, error) {
	if opts.Min <= 0 || opts.Max < opts.Min {
		return nil, fmt.Errorf("invalid port range %d-%d", opts.Min, opts.Max)
	}
	l := &Ledger{
		store:    store,
		min:      opts.Min,
		max:      opts.Max,
		reserved: make(map[int]struct{}, len(opts.Reserved)),
		skipBusy: opts.SkipOccupied,
	}
	for _, p := range opts.Reserved {
		l.reserved[p] = struct{}{}
	}
	if opts.LockFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LockFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create lock directory: %w", err)
		}
		l.fileLock = flock.New(opts.LockFile)
	}
	return l, nil
}

func (l *Ledger) lock() error {
	l.mu.Lock()
	if l.fileLock == nil {
		return nil
	}
	if err := l.fileLock.Lock(); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("failed to acquire port lock: %w", err)
	}
	return nil
}

func (l *Ledger) unlock() {
	if l.fileLock != nil {
		if err := l.fileLock.Unlock(); err != nil {
			logger.Warnf("Failed to release port lock: %v", err)
		}
	}
	l.mu.Unlock()
}

/**
 * Allocate a port for a target
 * @param {*models.Target} t - Target; t.Port is updated on success
 * @returns {int} The port now held by t
 * @returns {error} ErrNoPortsAvailable when the range is exhausted
 * @description
 * - A target that already holds a port gets the same port back
 * - The assignment is persisted before the lock is released
 */
func (l *Ledger) Allocate(ctx context.Context, t *models.Target) (int, error) {
	if t.Port != 0 {
		return t.Port, nil
	}
	if err := l.lock(); err != nil {
		return 0, err
	}
	defer l.unlock()

	used, err := l.store.UsedPorts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read used ports: %w", err)
	}
	taken := make(map[int]struct{}, len(used))
	for _, p := range used {
		taken[p] = struct{}{}
	}

	for port := l.min; port <= l.max; port++ {
		if _, ok := l.reserved[port]; ok {
			continue
		}
		if _, ok := taken[port]; ok {
			continue
		}
		if l.skipBusy && portBusy(port) {
			logger.Debugf("Port %d is in use outside launchdeck, skipping", port)
			continue
		}
		if err := l.store.SetPort(ctx, t.ID, port); err != nil {
			return 0, err
		}
		t.Port = port
		logger.Infof("Allocated port %d to target %d (%s)", port, t.ID, t.Name)
		return port, nil
	}
	return 0, fmt.Errorf("range %d-%d: %w", l.min, l.max, models.ErrNoPortsAvailable)
}

// Release clears the target's port; releasing a target without a port is a no-op.
func (l *Ledger) Release(ctx context.Context, t *models.Target) error {
	if t.Port == 0 {
		return nil
	}
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()

	if err := l.store.SetPort(ctx, t.ID, 0); err != nil {
		return err
	}
	logger.Infof("Released port %d of target %d (%s)", t.Port, t.ID, t.Name)
	t.Port = 0
	return nil
}

// InUse reports the number of ports currently held.
func (l *Ledger) InUse(ctx context.Context) (int, error) {
	used, err := l.store.UsedPorts(ctx)
	if err != nil {
		return 0, err
	}
	return len(used), nil
}

// portBusy catches listeners that accept on loopback and binds that only block a new listen.
func portBusy(port int) bool {
	return utils.CheckPortConnectable(port, utils.DefaultProbeTimeout) || !utils.CheckPortListenable(port)
}
