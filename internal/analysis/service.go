package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"avid/internal/logging"
	"avid/internal/services"
)

// Provider is one AI backend able to judge transcript segments.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, segments []Segment) (ProviderResult, error)
}

// Service fans a segment list out to every provider in parallel and
// aggregates the collected verdicts.
type Service struct {
	providers       []Provider
	decisionMaker   string
	providerTimeout time.Duration
	logger          *slog.Logger
}

// NewService wires the provider set. decisionMaker names the provider whose
// verdicts bypass the majority requirement.
func NewService(providers []Provider, decisionMaker string, providerTimeout time.Duration, logger *slog.Logger) *Service {
	if providerTimeout <= 0 {
		providerTimeout = 5 * time.Minute
	}
	return &Service{
		providers:       providers,
		decisionMaker:   decisionMaker,
		providerTimeout: providerTimeout,
		logger:          logging.WithComponent(logger, "analysis"),
	}
}

// Analyze queries all providers and returns the consensus. Failed providers
// are excluded from the vote; when every provider fails the collected
// failures are surfaced as one aggregated error.
func (s *Service) Analyze(ctx context.Context, segments []Segment) (Consensus, error) {
	if len(s.providers) == 0 {
		return Consensus{}, services.Wrap(services.ErrConfiguration, "analysis", "run", "no providers configured", nil)
	}
	if len(segments) == 0 {
		return Consensus{}, services.Wrap(services.ErrValidation, "analysis", "run", "no transcript segments", nil)
	}

	type outcome struct {
		name   string
		result ProviderResult
		err    error
	}

	outcomes := make([]outcome, len(s.providers))
	var wg sync.WaitGroup
	for i, provider := range s.providers {
		wg.Add(1)
		go func(i int, provider Provider) {
			defer wg.Done()
			providerCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
			defer cancel()
			result, err := provider.Analyze(providerCtx, segments)
			outcomes[i] = outcome{name: provider.Name(), result: result, err: err}
		}(i, provider)
	}
	wg.Wait()

	results := make(map[string]ProviderResult, len(outcomes))
	var failures []string
	for _, o := range outcomes {
		if o.err != nil {
			s.logger.Warn("provider failed",
				logging.String("provider", o.name),
				logging.Error(o.err))
			failures = append(failures, fmt.Sprintf("%s: %v", o.name, o.err))
			continue
		}
		s.logger.Info("provider answered",
			logging.String("provider", o.name),
			logging.Int("cuts", len(o.result.Cuts)),
			logging.Int("keeps", len(o.result.Keeps)))
		results[o.name] = o.result
	}

	if len(results) == 0 {
		sort.Strings(failures)
		return Consensus{}, services.Wrap(services.ErrExternalTool, "analysis", "run",
			"all providers failed: "+strings.Join(failures, "; "), nil)
	}
	if len(failures) > 0 {
		sort.Strings(failures)
		s.logger.Warn("proceeding with partial provider results",
			logging.Error(services.Wrap(services.ErrPartialData, "analysis", "run",
				strings.Join(failures, "; "), nil)))
	}

	consensus := Aggregate(results, s.decisionMaker)
	s.logger.Info("aggregated verdicts",
		logging.String("strategy", consensus.Strategy),
		logging.Int("providers", len(results)),
		logging.Int("cuts", len(consensus.Cuts)))
	return consensus, nil
}
