package providers_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"avid/internal/analysis"
	"avid/internal/analysis/providers"
	"avid/internal/services"
	"avid/internal/timeline"
)

type stubCompleter struct {
	payload string
	err     error
	prompt  string
}

func (s *stubCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.prompt = userPrompt
	return s.payload, s.err
}

func segments() []analysis.Segment {
	return []analysis.Segment{
		{Index: 0, Range: timeline.TimeRange{StartMS: 0, EndMS: 900}, Text: "hello", Speaker: "A"},
		{Index: 1, Range: timeline.TimeRange{StartMS: 900, EndMS: 2100}, Text: "um"},
	}
}

func TestLLMProviderAnalyze(t *testing.T) {
	completer := &stubCompleter{payload: `{"cuts":[{"index":1,"reason":"filler"}],"keeps":[0]}`}
	provider := providers.NewLLMProvider("claude", completer)

	result, err := provider.Analyze(context.Background(), segments())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Cuts) != 1 || result.Cuts[0].Index != 1 || result.Cuts[0].Reason != "filler" {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(completer.prompt, "[0] (0-900ms, A) hello") {
		t.Fatalf("prompt missing numbered segment:\n%s", completer.prompt)
	}
}

func TestLLMProviderToolFailure(t *testing.T) {
	provider := providers.NewLLMProvider("claude", &stubCompleter{err: errors.New("http 500")})
	if _, err := provider.Analyze(context.Background(), segments()); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestLLMProviderFencedPayload(t *testing.T) {
	completer := &stubCompleter{payload: "```json\n{\"cuts\":[],\"keeps\":[0,1]}\n```"}
	provider := providers.NewLLMProvider("claude", completer)
	result, err := provider.Analyze(context.Background(), segments())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Keeps) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCLIProviderAnalyze(t *testing.T) {
	provider := providers.NewCLIProvider("codex", "codex-agent", "--json")
	var gotStdin []byte
	provider.WithCommandRunner(func(ctx context.Context, stdin []byte, binary string, args ...string) ([]byte, error) {
		gotStdin = stdin
		if binary != "codex-agent" || len(args) != 1 || args[0] != "--json" {
			t.Errorf("unexpected invocation %s %v", binary, args)
		}
		return []byte(`{"cuts":[{"index":0,"reason":"boring"}],"keeps":[1]}`), nil
	})

	result, err := provider.Analyze(context.Background(), segments())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Cuts) != 1 || result.Cuts[0].Index != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(string(gotStdin), `"segments"`) {
		t.Fatalf("stdin payload missing segments: %s", gotStdin)
	}
}

func TestCLIProviderUnconfigured(t *testing.T) {
	provider := providers.NewCLIProvider("codex", "")
	if _, err := provider.Analyze(context.Background(), segments()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCLIProviderBadOutput(t *testing.T) {
	provider := providers.NewCLIProvider("codex", "agent")
	provider.WithCommandRunner(func(ctx context.Context, stdin []byte, binary string, args ...string) ([]byte, error) {
		return []byte("I could not process that"), nil
	})
	if _, err := provider.Analyze(context.Background(), segments()); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
