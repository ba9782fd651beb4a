// Package providers implements the AI backends the analysis service fans out
// to: an OpenAI-compatible chat model and a local CLI tool speaking JSON.
package providers

import (
	"context"

	"avid/internal/analysis"
	"avid/internal/services"
	"avid/internal/services/llm"
)

// LLMCompleter is the slice of the chat client the provider needs.
type LLMCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMProvider grades segments through a hosted chat model.
type LLMProvider struct {
	name   string
	client LLMCompleter
}

// NewLLMProvider wraps a chat client under the given provider name.
func NewLLMProvider(name string, client LLMCompleter) *LLMProvider {
	if name == "" {
		name = "claude"
	}
	return &LLMProvider{name: name, client: client}
}

func (p *LLMProvider) Name() string { return p.name }

// Analyze sends the numbered transcript to the model and decodes its verdict.
func (p *LLMProvider) Analyze(ctx context.Context, segments []analysis.Segment) (analysis.ProviderResult, error) {
	payload, err := p.client.CompleteJSON(ctx, systemPrompt, buildUserPrompt(segments))
	if err != nil {
		return analysis.ProviderResult{}, services.Wrap(services.ErrExternalTool, "analysis", p.name, "completion", err)
	}
	var result analysis.ProviderResult
	if err := llm.DecodeJSON(payload, &result); err != nil {
		return analysis.ProviderResult{}, services.Wrap(services.ErrExternalTool, "analysis", p.name, "parse verdict", err)
	}
	return result, nil
}
