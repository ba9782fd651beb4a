package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"avid/internal/config"
	"avid/internal/logging"
	"avid/internal/queue"
	"avid/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Detect  stage.Handler
	Analyze stage.Handler
	Export  stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	retryDelay   time.Duration
	stages       []pipelineStage

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a workflow manager over the three pipeline stages.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, set StageSet) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.WithComponent(logger, "workflow"),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryDelay:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		stages: []pipelineStage{
			{name: "detect", handler: set.Detect, startStatus: queue.StatusPending, processingStatus: queue.StatusDetecting, doneStatus: queue.StatusDetected},
			{name: "analyze", handler: set.Analyze, startStatus: queue.StatusDetected, processingStatus: queue.StatusAnalyzing, doneStatus: queue.StatusAnalyzed},
			{name: "export", handler: set.Export, startStatus: queue.StatusAnalyzed, processingStatus: queue.StatusExporting, doneStatus: queue.StatusCompleted},
		},
	}
}

// Start begins background processing. Items stranded in a processing status
// by an earlier crash are rolled back first.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	for _, st := range m.stages {
		if st.handler == nil {
			return errors.New("workflow stage " + st.name + " not configured")
		}
	}

	if reset, err := m.store.ResetStuckProcessing(ctx); err != nil {
		return err
	} else if reset > 0 {
		m.logger.Info("rolled back stranded items", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// LastError returns the most recent stage or queue error, for status output.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// HealthChecks reports readiness for every registered stage.
func (m *Manager) HealthChecks(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(m.stages))
	for _, st := range m.stages {
		out = append(out, st.handler.HealthCheck(ctx))
	}
	return out
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, st, err := m.nextItem(ctx)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to fetch next queue item", logging.Error(err))
			m.sleep(ctx, m.retryDelay)
			continue
		}
		if item == nil {
			m.sleep(ctx, m.pollInterval)
			continue
		}

		if err := m.processItem(ctx, st, item); err != nil && errors.Is(err, context.Canceled) {
			return
		}
	}
}

// nextItem claims the oldest actionable item, scanning stages in pipeline
// order so earlier items finish before later ones begin.
func (m *Manager) nextItem(ctx context.Context) (*queue.Item, pipelineStage, error) {
	for _, st := range m.stages {
		item, err := m.store.NextForStatus(ctx, st.startStatus, st.processingStatus)
		if err != nil {
			return nil, pipelineStage{}, err
		}
		if item != nil {
			return item, st, nil
		}
	}
	return nil, pipelineStage{}, nil
}

func (m *Manager) processItem(ctx context.Context, st pipelineStage, item *queue.Item) error {
	stageLogger := m.logger.With(
		logging.String("stage", st.name),
		logging.Int64("item_id", item.ID))
	stageStart := time.Now()
	stageLogger.Info("stage started", logging.String("source", item.SourcePath))

	item.ErrorMessage = ""
	if err := st.handler.Prepare(ctx, item); err != nil {
		return m.failItem(ctx, stageLogger, st, item, err)
	}
	if err := m.store.Update(ctx, item); err != nil {
		m.setLastError(err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(err))
		return err
	}

	if err := st.handler.Execute(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return err
		}
		return m.failItem(ctx, stageLogger, st, item, err)
	}

	if item.Status == st.processingStatus || item.Status == "" {
		item.Status = st.doneStatus
	}
	if err := m.store.Update(ctx, item); err != nil {
		m.setLastError(err)
		stageLogger.Error("failed to persist stage result", logging.Error(err))
		return err
	}
	stageLogger.Info("stage completed",
		logging.String("next_status", string(item.Status)),
		logging.Duration("stage_duration", time.Since(stageStart)))
	return nil
}

func (m *Manager) failItem(ctx context.Context, stageLogger *slog.Logger, st pipelineStage, item *queue.Item, stageErr error) error {
	m.setLastError(stageErr)
	status := queue.FailureStatus(stageErr)
	item.Status = status
	item.ErrorMessage = stageErr.Error()
	if status == queue.StatusReview {
		item.NeedsReview = true
		item.ReviewReason = stageErr.Error()
		item.SetProgress(st.name, "needs manual review")
	} else {
		item.SetProgress(st.name, "failed")
	}
	if err := m.store.Update(ctx, item); err != nil {
		stageLogger.Error("failed to persist stage failure", logging.Error(err))
		return err
	}
	stageLogger.Error("stage failed",
		logging.Error(stageErr),
		logging.String("status", string(status)))
	return stageErr
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
