package services

import (
	"context"
	"fmt"

	"launchdeck/internal/detect"
	"launchdeck/internal/launch"
	"launchdeck/internal/logger"
	"launchdeck/internal/models"
	"launchdeck/internal/portalloc"
	"launchdeck/internal/store"
)

/**
 * Reconciler brings a target's stored status in line with the OS
 * @description
 * - A non-web target is Running iff its process is alive
 * - A web target is Running iff its process is alive and either a process in its tree
 *   references the target or its port accepts connections
 * - When the recorded process is gone, a shell host still running the target's launch
 *   script keeps it Running and becomes the recorded pid
 * - Probe failures are logged on the target and never change its state
 */
type Reconciler struct {
	store     store.Store
	ports     *portalloc.Ledger
	procs     ProcessTable
	portCheck func(port int) bool
	platform  launch.Platform
}

func NewReconciler(st store.Store, ports *portalloc.Ledger, procs ProcessTable, portCheck func(int) bool, platform launch.Platform) *Reconciler {
	return &Reconciler{
		store:     st,
		ports:     ports,
		procs:     procs,
		portCheck: portCheck,
		platform:  platform,
	}
}

/**
 * Reconcile one target, updating t in place
 * @param {context.Context} ctx - Request context
 * @param {*models.Target} t - Target as currently stored
 * @returns {models.AppStatus} Status after reconciliation
 * @description
 * - Running to Stopped releases the port and clears the pid
 * - Every transition appends exactly one status_update log
 * - Reconciling twice without an OS change is a no-op the second time
 */
func (r *Reconciler) Reconcile(ctx context.Context, t *models.Target) models.AppStatus {
	actual, pid, err := r.observe(ctx, t)
	if err != nil {
		logger.Warnf("Status check of target %d failed: %v", t.ID, err)
		if _, lerr := r.store.AppendLog(ctx, t.ID, models.ActionStatusCheckError,
			fmt.Sprintf("Error checking status: %v", err)); lerr != nil {
			logger.Errorf("Failed to append log for target %d: %v", t.ID, lerr)
		}
		return t.Status
	}

	previous := t.Status
	changed := actual != previous
	if actual == models.StatusStopped {
		if t.Port != 0 {
			if err := r.ports.Release(ctx, t); err != nil {
				logger.Errorf("Failed to release port of target %d: %v", t.ID, err)
			}
		}
		changed = changed || t.Pid != 0
		t.Pid = 0
	} else if pid != t.Pid {
		changed = true
		t.Pid = pid
	}
	if !changed {
		return actual
	}

	t.Status = actual
	if err := r.store.UpdateTarget(ctx, t); err != nil {
		logger.Errorf("Failed to update target %d: %v", t.ID, err)
		return previous
	}
	if actual != previous {
		logger.Infof("Target %d (%s) changed from %s to %s", t.ID, t.Name, previous, actual)
		if _, err := r.store.AppendLog(ctx, t.ID, models.ActionStatusUpdate,
			fmt.Sprintf("Status changed from %s to %s", previous, actual)); err != nil {
			logger.Errorf("Failed to append log for target %d: %v", t.ID, err)
		}
		recordTransition(previous, actual)
	}
	return actual
}

func (r *Reconciler) observe(ctx context.Context, t *models.Target) (models.AppStatus, int, error) {
	match := launch.CommandLineMatcher(t, r.platform)
	pid := t.Pid
	alive := false
	adopted := false
	if pid > 0 {
		var err error
		if alive, err = r.procs.IsRunning(ctx, pid); err != nil {
			return "", 0, err
		}
	}
	if !alive {
		shells, err := r.procs.FindShells(ctx, match)
		if err != nil {
			return "", 0, err
		}
		if len(shells) == 0 {
			return models.StatusStopped, 0, nil
		}
		pid, adopted = shells[0], true
	}

	if t.Port == 0 && !detect.Classify(t.Path).IsWeb {
		return models.StatusRunning, pid, nil
	}
	if adopted || r.references(ctx, pid, match) {
		return models.StatusRunning, pid, nil
	}
	if t.Port != 0 && r.portCheck != nil && r.portCheck(t.Port) {
		return models.StatusRunning, pid, nil
	}
	return models.StatusStopped, 0, nil
}

// references reports whether pid or one of its descendants was started for the target.
func (r *Reconciler) references(ctx context.Context, pid int, match func(string) bool) bool {
	pids := []int{pid}
	if children, err := r.procs.Descendants(ctx, pid); err == nil {
		pids = append(pids, children...)
	}
	for _, p := range pids {
		cmdline, err := r.procs.Cmdline(ctx, p)
		if err == nil && match(cmdline) {
			return true
		}
	}
	return false
}
