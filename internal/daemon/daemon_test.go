package daemon_test

import (
	"context"
	"path/filepath"
	"testing"

	"avid/internal/config"
	"avid/internal/daemon"
	"avid/internal/logging"
	"avid/internal/queue"
	"avid/internal/stage"
	"avid/internal/workflow"
)

type noopHandler struct{ name string }

func (h noopHandler) Prepare(ctx context.Context, item *queue.Item) error { return nil }
func (h noopHandler) Execute(ctx context.Context, item *queue.Item) error { return nil }
func (h noopHandler) HealthCheck(ctx context.Context) stage.Health        { return stage.Healthy(h.name) }

func newDaemon(t *testing.T, logDir string) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.LogDir = logDir
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1

	store, err := queue.OpenPath(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mgr := workflow.NewManager(&cfg, store, logging.NewNop(), workflow.StageSet{
		Detect:  noopHandler{"detect"},
		Analyze: noopHandler{"analyze"},
		Export:  noopHandler{"export"},
	})
	d, err := daemon.New(&cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	d, _ := newDaemon(t, t.TempDir())
	if err := d.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(t.Context()); err == nil {
		t.Fatal("expected error for double start")
	}

	status, err := d.Status(t.Context())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatal("status reports not running")
	}
	if len(status.Stages) != 3 {
		t.Fatalf("stage checks = %d, want 3", len(status.Stages))
	}

	d.Stop()
	d.Stop()
	status, err = d.Status(t.Context())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running {
		t.Fatal("status reports running after stop")
	}
}

func TestDaemonLockExcludesSecondInstance(t *testing.T) {
	logDir := t.TempDir()
	first, _ := newDaemon(t, logDir)
	if err := first.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, _ := newDaemon(t, logDir)
	if err := second.Start(t.Context()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail acquiring lock")
	}
}
