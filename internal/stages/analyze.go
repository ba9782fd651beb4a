package stages

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"avid/internal/analysis"
	"avid/internal/analysis/providers"
	"avid/internal/config"
	"avid/internal/logging"
	"avid/internal/project"
	"avid/internal/queue"
	"avid/internal/services"
	"avid/internal/services/llm"
	"avid/internal/stage"
)

// Analyze runs the configured AI providers over the project transcription
// and folds the consensus cuts into the project.
type Analyze struct {
	cfg     *config.Config
	service *analysis.Service
	logger  *slog.Logger
}

// NewAnalyze constructs the analysis stage. A nil service means no providers
// are configured; the stage then passes items through untouched.
func NewAnalyze(cfg *config.Config, service *analysis.Service, logger *slog.Logger) *Analyze {
	return &Analyze{
		cfg:     cfg,
		service: service,
		logger:  logging.WithComponent(logger, "analyze"),
	}
}

// BuildProviders assembles the provider list from configuration: an
// API-backed provider when credentials are present and a CLI provider when a
// binary is configured.
func BuildProviders(cfg *config.Config) []analysis.Provider {
	var out []analysis.Provider
	if cfg.LLM.APIKey != "" {
		client := llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
		out = append(out, providers.NewLLMProvider("claude", client))
	}
	if cfg.Analysis.CLIBinary != "" {
		out = append(out, providers.NewCLIProvider("codex", cfg.Analysis.CLIBinary, cfg.Analysis.CLIArgs...))
	}
	return out
}

// NewAnalysisService builds the fan-out service for the configured
// providers, or nil when none are configured.
func NewAnalysisService(cfg *config.Config, logger *slog.Logger) *analysis.Service {
	providerList := BuildProviders(cfg)
	if len(providerList) == 0 {
		return nil
	}
	timeout := time.Duration(cfg.Analysis.ProviderTimeoutSeconds) * time.Second
	return analysis.NewService(providerList, cfg.Analysis.DecisionMaker, timeout, logger)
}

func (a *Analyze) Prepare(ctx context.Context, item *queue.Item) error {
	if item.ProjectPath == "" {
		return services.Wrap(services.ErrValidation, "analyze", "prepare", "item has no project file", nil)
	}
	item.SetProgress("analyze", "loading project")
	return nil
}

func (a *Analyze) Execute(ctx context.Context, item *queue.Item) error {
	p, err := project.Load(item.ProjectPath)
	if err != nil {
		return err
	}

	if p.Transcription == nil || len(p.Transcription.Segments) == 0 {
		item.SetProgress("analyze", "no transcription available; skipped")
		a.logger.Info("skipping analysis", logging.String("reason", "no transcription"))
		return nil
	}
	if a.service == nil {
		item.SetProgress("analyze", "no providers configured; skipped")
		a.logger.Info("skipping analysis", logging.String("reason", "no providers configured"))
		return nil
	}

	segments := analysis.SegmentsFromTranscription(p.Transcription)
	consensus, err := a.service.Analyze(ctx, segments)
	if err != nil {
		return err
	}

	videoTrackID, audioTrackIDs := trackIDs(p)
	decisions := analysis.Decisions(consensus, segments, videoTrackID, audioTrackIDs)
	for _, decision := range decisions {
		if err := p.AddDecision(decision); err != nil {
			return err
		}
	}
	if err := p.Save(item.ProjectPath); err != nil {
		return err
	}

	item.SetProgress("analyze", fmt.Sprintf("%d cuts via %s", len(decisions), consensus.Strategy))
	a.logger.Info("analysis complete",
		logging.Int("segments", len(segments)),
		logging.Int("cuts", len(decisions)),
		logging.String("strategy", consensus.Strategy))
	return nil
}

func (a *Analyze) HealthCheck(ctx context.Context) stage.Health {
	if a.service == nil {
		return stage.Unhealthy("analyze", "no providers configured")
	}
	return stage.Healthy("analyze")
}
