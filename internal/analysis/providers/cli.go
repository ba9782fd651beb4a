package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"avid/internal/analysis"
	"avid/internal/services"
)

// CLIProvider shells out to a local agent binary that reads the segment list
// as JSON on stdin and prints a verdict JSON document on stdout.
type CLIProvider struct {
	name   string
	binary string
	args   []string
	run    func(ctx context.Context, stdin []byte, binary string, args ...string) ([]byte, error)
}

// NewCLIProvider builds a provider around the given binary invocation.
func NewCLIProvider(name, binary string, args ...string) *CLIProvider {
	if name == "" {
		name = "codex"
	}
	return &CLIProvider{name: name, binary: binary, args: args, run: runWithStdin}
}

// WithCommandRunner sets a custom command runner (for testing).
func (p *CLIProvider) WithCommandRunner(run func(ctx context.Context, stdin []byte, binary string, args ...string) ([]byte, error)) {
	if run != nil {
		p.run = run
	}
}

func (p *CLIProvider) Name() string { return p.name }

func runWithStdin(ctx context.Context, stdin []byte, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", binary, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Analyze pipes the segments through the agent binary.
func (p *CLIProvider) Analyze(ctx context.Context, segments []analysis.Segment) (analysis.ProviderResult, error) {
	if strings.TrimSpace(p.binary) == "" {
		return analysis.ProviderResult{}, services.Wrap(services.ErrConfiguration, "analysis", p.name, "binary not configured", nil)
	}
	input, err := json.Marshal(struct {
		Prompt   string             `json:"prompt"`
		Segments []analysis.Segment `json:"segments"`
	}{Prompt: systemPrompt, Segments: segments})
	if err != nil {
		return analysis.ProviderResult{}, services.Wrap(services.ErrValidation, "analysis", p.name, "encode segments", err)
	}

	output, err := p.run(ctx, input, p.binary, p.args...)
	if err != nil {
		return analysis.ProviderResult{}, services.Wrap(services.ErrExternalTool, "analysis", p.name, "invoke", err)
	}
	result, err := decodeResult(strings.TrimSpace(string(output)))
	if err != nil {
		return analysis.ProviderResult{}, services.Wrap(services.ErrExternalTool, "analysis", p.name, "parse verdict", err)
	}
	return result, nil
}
