// Package daemon runs the workflow manager as a long-lived process and
// enforces single-instance execution through a lock file.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"avid/internal/config"
	"avid/internal/logging"
	"avid/internal/queue"
	"avid/internal/stage"
	"avid/internal/workflow"
)

// Daemon owns the background pipeline and the instance lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// Status is the runtime snapshot surfaced by the status command.
type Status struct {
	Running      bool
	QueueDBPath  string
	LockFilePath string
	Queue        queue.HealthSummary
	Stages       []stage.Health
	LastError    string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, and workflow manager")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "avid.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		workflow: wf,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the workflow manager.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another avid daemon instance is already running")
	}

	if err := d.workflow.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("queue_db", d.store.Path()),
		logging.String("lock_file", d.lockPath))
	return nil
}

// Stop shuts the workflow down and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Status reports queue counts and per-stage readiness.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	health, err := d.store.Health(ctx)
	if err != nil {
		return Status{}, err
	}
	status := Status{
		Running:      d.running.Load(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		Queue:        health,
		Stages:       d.workflow.HealthChecks(ctx),
	}
	if lastErr := d.workflow.LastError(); lastErr != nil {
		status.LastError = lastErr.Error()
	}
	return status, nil
}

// LockPath returns the instance lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}
