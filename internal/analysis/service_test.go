package analysis_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"avid/internal/analysis"
	"avid/internal/logging"
	"avid/internal/services"
	"avid/internal/timeline"
)

type stubProvider struct {
	name   string
	result analysis.ProviderResult
	err    error
}

func (p stubProvider) Name() string { return p.name }

func (p stubProvider) Analyze(ctx context.Context, segments []analysis.Segment) (analysis.ProviderResult, error) {
	return p.result, p.err
}

func testSegments() []analysis.Segment {
	return []analysis.Segment{
		{Index: 0, Range: timeline.TimeRange{StartMS: 0, EndMS: 1000}, Text: "intro"},
		{Index: 1, Range: timeline.TimeRange{StartMS: 1000, EndMS: 2000}, Text: "um, so"},
		{Index: 2, Range: timeline.TimeRange{StartMS: 2000, EndMS: 3000}, Text: "main point"},
	}
}

func TestAnalyzeFansOutAndAggregates(t *testing.T) {
	providers := []analysis.Provider{
		stubProvider{name: "claude", result: analysis.ProviderResult{
			Cuts: []analysis.SegmentVerdict{{Index: 1, Reason: "filler"}}, Keeps: []int{0, 2},
		}},
		stubProvider{name: "codex", result: analysis.ProviderResult{
			Cuts: []analysis.SegmentVerdict{{Index: 1, Reason: "boring"}}, Keeps: []int{0, 2},
		}},
	}
	svc := analysis.NewService(providers, "claude", time.Second, logging.NewNop())

	consensus, err := svc.Analyze(context.Background(), testSegments())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if consensus.Strategy != "voting" {
		t.Fatalf("strategy = %q", consensus.Strategy)
	}
	if len(consensus.Cuts) != 1 || consensus.Cuts[0].Index != 1 {
		t.Fatalf("cuts = %+v", consensus.Cuts)
	}
	if consensus.Cuts[0].Reason != "filler" {
		t.Fatalf("decision maker reason lost: %q", consensus.Cuts[0].Reason)
	}
}

func TestAnalyzeDropsFailedProviderFromVote(t *testing.T) {
	providers := []analysis.Provider{
		stubProvider{name: "claude", result: analysis.ProviderResult{
			Cuts: []analysis.SegmentVerdict{{Index: 0, Reason: "boring"}},
		}},
		stubProvider{name: "codex", err: errors.New("binary missing")},
	}
	svc := analysis.NewService(providers, "claude", time.Second, logging.NewNop())

	consensus, err := svc.Analyze(context.Background(), testSegments())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if consensus.Strategy != "single_provider" {
		t.Fatalf("strategy = %q, want single_provider after one failure", consensus.Strategy)
	}
}

func TestAnalyzeAllProvidersFailed(t *testing.T) {
	providers := []analysis.Provider{
		stubProvider{name: "claude", err: errors.New("rate limited")},
		stubProvider{name: "codex", err: errors.New("binary missing")},
	}
	svc := analysis.NewService(providers, "claude", time.Second, logging.NewNop())

	_, err := svc.Analyze(context.Background(), testSegments())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "rate limited") || !strings.Contains(msg, "binary missing") {
		t.Fatalf("aggregated error must list every failure, got %q", msg)
	}
}

func TestAnalyzeNoProviders(t *testing.T) {
	svc := analysis.NewService(nil, "claude", time.Second, logging.NewNop())
	if _, err := svc.Analyze(context.Background(), testSegments()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestDecisionsFromConsensus(t *testing.T) {
	consensus := analysis.Consensus{
		Cuts: []analysis.ConsensusCut{
			{Index: 1, Reason: "filler", Confidence: 0.67},
			{Index: 99, Reason: "boring", Confidence: 1.0},
		},
	}
	decisions := analysis.Decisions(consensus, testSegments(), "v1", []string{"a1"})
	if len(decisions) != 1 {
		t.Fatalf("decisions = %d, want 1 (out-of-range index dropped)", len(decisions))
	}
	d := decisions[0]
	if d.Range.StartMS != 1000 || d.Range.EndMS != 2000 {
		t.Fatalf("range = %v", d.Range)
	}
	if d.Reason != timeline.ReasonFiller || d.Confidence != 0.67 {
		t.Fatalf("decision = %+v", d)
	}
	if d.Note != "um, so" {
		t.Fatalf("note = %q, want the segment text", d.Note)
	}
}
