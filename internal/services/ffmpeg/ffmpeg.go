// Package ffmpeg runs the ffmpeg silence and volume detectors and parses
// their stderr reports into timeline values.
package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"avid/internal/services"
	"avid/internal/silence"
	"avid/internal/timeline"
)

// DefaultBinary is used when no ffmpeg path is configured.
const DefaultBinary = "ffmpeg"

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*([\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*([\d.]+)`)
	meanVolumeRe   = regexp.MustCompile(`mean_volume:\s*(-?[\d.]+)\s*dB`)
	maxVolumeRe    = regexp.MustCompile(`max_volume:\s*(-?[\d.]+)\s*dB`)
)

// Service wraps the ffmpeg binary. Detector filters write their reports to
// stderr, so commands capture combined output.
type Service struct {
	binary string
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewService builds a Service around the configured binary.
func NewService(binary string) *Service {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	return &Service{binary: binary, run: runCombined}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	if run != nil {
		s.run = run
	}
}

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// DetectSilence runs the silencedetect filter and returns raw, unpadded
// regions. thresholdDB is the noise floor; spans shorter than minDurationMS
// are not reported by the filter.
func (s *Service) DetectSilence(ctx context.Context, path string, thresholdDB float64, minDurationMS int64) ([]silence.Region, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrValidation, "detect", "silencedetect", "empty path", nil)
	}
	filter := fmt.Sprintf("silencedetect=noise=%.1fdB:d=%.3f", thresholdDB, float64(minDurationMS)/1000)
	output, err := s.run(ctx, s.binary,
		"-hide_banner", "-nostats",
		"-i", path,
		"-af", filter,
		"-f", "null", "-")
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "detect", "silencedetect", path, err)
	}
	return parseSilenceReport(string(output))
}

func parseSilenceReport(report string) ([]silence.Region, error) {
	starts := silenceStartRe.FindAllStringSubmatch(report, -1)
	ends := silenceEndRe.FindAllStringSubmatch(report, -1)

	var regions []silence.Region
	for i, start := range starts {
		if i >= len(ends) {
			// Trailing silence_start without a matching end reaches EOF;
			// the filter reports it only on streams it could not finish.
			break
		}
		startMS := secondsToMS(start[1])
		endMS := secondsToMS(ends[i][1])
		if endMS <= startMS {
			continue
		}
		regions = append(regions, silence.Region{
			Range:      timeline.TimeRange{StartMS: startMS, EndMS: endMS},
			Source:     silence.SourceFFmpeg,
			Confidence: 1.0,
		})
	}
	return regions, nil
}

// VolumeStats holds the volumedetect report used for tempo-based thresholds.
type VolumeStats struct {
	MeanVolumeDB float64
	MaxVolumeDB  float64
}

// MeasureVolume runs the volumedetect filter.
func (s *Service) MeasureVolume(ctx context.Context, path string) (VolumeStats, error) {
	if strings.TrimSpace(path) == "" {
		return VolumeStats{}, services.Wrap(services.ErrValidation, "detect", "volumedetect", "empty path", nil)
	}
	output, err := s.run(ctx, s.binary,
		"-hide_banner", "-nostats",
		"-i", path,
		"-af", "volumedetect",
		"-f", "null", "-")
	if err != nil {
		return VolumeStats{}, services.Wrap(services.ErrExternalTool, "detect", "volumedetect", path, err)
	}

	report := string(output)
	mean := meanVolumeRe.FindStringSubmatch(report)
	max := maxVolumeRe.FindStringSubmatch(report)
	if mean == nil || max == nil {
		return VolumeStats{}, services.Wrap(services.ErrExternalTool, "detect", "volumedetect", "no volume report for "+path, nil)
	}
	return VolumeStats{
		MeanVolumeDB: parseFloat(mean[1]),
		MaxVolumeDB:  parseFloat(max[1]),
	}, nil
}

// ExtractAudio writes a mono 16kHz WAV copy of the source's audio stream,
// the input format the transcription tools expect.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, "detect", "extract audio", "source and dest required", nil)
	}
	_, err := s.run(ctx, s.binary,
		"-hide_banner", "-nostats", "-y",
		"-i", source,
		"-vn", "-ac", "1", "-ar", "16000",
		"-c:a", "pcm_s16le",
		dest)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "detect", "extract audio", source, err)
	}
	return nil
}

func secondsToMS(value string) int64 {
	return int64(math.Round(parseFloat(value) * 1000))
}

func parseFloat(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return parsed
}
