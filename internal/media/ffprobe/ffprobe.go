// Package ffprobe shells out to ffprobe and reduces its JSON report to the
// Info summary the rest of the pipeline consumes.
package ffprobe

import (
	"context"
	"encoding/json"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"avid/internal/media"
	"avid/internal/services"
)

type report struct {
	Streams []stream `json:"streams"`
	Format  format   `json:"format"`
}

type stream struct {
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	SampleRate string `json:"sample_rate"`
}

type format struct {
	Duration string `json:"duration"`
}

// CommandRunner abstracts subprocess execution for tests.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, binary, args...).Output()
}

// Prober inspects media files with a configurable ffprobe binary.
type Prober struct {
	binary string
	run    CommandRunner
}

// Option customizes a Prober.
type Option func(*Prober)

// WithCommandRunner replaces subprocess execution, used by tests.
func WithCommandRunner(run CommandRunner) Option {
	return func(p *Prober) {
		if run != nil {
			p.run = run
		}
	}
}

// New builds a Prober around the given ffprobe binary ("ffprobe" when empty).
func New(binary string, opts ...Option) *Prober {
	p := &Prober{binary: strings.TrimSpace(binary), run: runCommand}
	if p.binary == "" {
		p.binary = "ffprobe"
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe inspects path and returns the reduced media summary.
func (p *Prober) Probe(ctx context.Context, path string) (media.Info, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return media.Info{}, services.Wrap(services.ErrValidation, "probe", "ffprobe", "empty path", nil)
	}

	output, err := p.run(ctx, p.binary,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams",
		"-of", "json", "--", path)
	if err != nil {
		return media.Info{}, services.Wrap(services.ErrExternalTool, "probe", "ffprobe", "inspect "+path, err)
	}

	var decoded report
	if err := json.Unmarshal(output, &decoded); err != nil {
		return media.Info{}, services.Wrap(services.ErrExternalTool, "probe", "ffprobe", "parse output", err)
	}

	info := media.Info{DurationMS: int64(math.Round(parseFloat(decoded.Format.Duration) * 1000))}
	for _, s := range decoded.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if info.Width == 0 {
				info.Width = s.Width
				info.Height = s.Height
				info.FPS = parseFrameRate(s.RFrameRate)
			}
		case "audio":
			if info.SampleRate == 0 {
				if rate, err := strconv.Atoi(strings.TrimSpace(s.SampleRate)); err == nil {
					info.SampleRate = rate
				}
			}
		}
	}
	if info.DurationMS <= 0 {
		return media.Info{}, services.Wrap(services.ErrExternalTool, "probe", "ffprobe", "no duration reported for "+path, nil)
	}
	return info, nil
}

// parseFrameRate decodes ffprobe's rational frame rate ("30000/1001").
func parseFrameRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, ok := strings.Cut(value, "/")
	if !ok {
		return parseFloat(value)
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return parsed
}
