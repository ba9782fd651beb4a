package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"avid/internal/config"
	"avid/internal/logging"
	"avid/internal/media"
	"avid/internal/media/ffprobe"
	"avid/internal/project"
	"avid/internal/queue"
	"avid/internal/services"
	"avid/internal/services/ffmpeg"
	"avid/internal/silence"
	"avid/internal/stage"
	"avid/internal/subtitles"
)

// Detect probes the source recording, runs silence detection, folds in
// subtitle gaps, and writes the resulting project file.
type Detect struct {
	cfg    *config.Config
	prober *ffprobe.Prober
	ffmpeg *ffmpeg.Service
	logger *slog.Logger
}

// NewDetect constructs the silence detection stage.
func NewDetect(cfg *config.Config, prober *ffprobe.Prober, ffmpegSvc *ffmpeg.Service, logger *slog.Logger) *Detect {
	return &Detect{
		cfg:    cfg,
		prober: prober,
		ffmpeg: ffmpegSvc,
		logger: logging.WithComponent(logger, "detect"),
	}
}

func (d *Detect) Prepare(ctx context.Context, item *queue.Item) error {
	if _, err := os.Stat(item.SourcePath); err != nil {
		return services.Wrap(services.ErrNotFound, "detect", "prepare", "source file "+item.SourcePath, err)
	}
	item.SetProgress("detect", "probing source")
	return nil
}

func (d *Detect) Execute(ctx context.Context, item *queue.Item) error {
	info, err := d.prober.Probe(ctx, item.SourcePath)
	if err != nil {
		return err
	}
	file, err := media.NewFile(item.SourcePath, info)
	if err != nil {
		return err
	}

	name := projectName(item.SourcePath)
	p := project.New(name)
	if _, err := p.AddSourceFile(file); err != nil {
		return err
	}

	thresholdDB := d.cfg.Silence.ThresholdDB
	if thresholdDB == 0 {
		tempo, err := silence.ParseTempo(d.cfg.Silence.Tempo)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "detect", "threshold", d.cfg.Silence.Tempo, err)
		}
		volume, err := d.ffmpeg.MeasureVolume(ctx, item.SourcePath)
		if err != nil {
			return err
		}
		thresholdDB = silence.AutoThresholdDB(volume.MeanVolumeDB, volume.MaxVolumeDB, tempo)
		d.logger.Info("derived silence threshold",
			logging.Float64("threshold_db", thresholdDB),
			logging.Float64("mean_volume_db", volume.MeanVolumeDB),
			logging.String("tempo", string(tempo)))
	}

	regions, err := d.ffmpeg.DetectSilence(ctx, item.SourcePath, thresholdDB, d.cfg.Silence.MinDurationMS)
	if err != nil {
		return err
	}

	var srtGaps []silence.Region
	if item.SubtitlePath != "" {
		captions, err := subtitles.ParseFile(item.SubtitlePath)
		if err != nil {
			return err
		}
		srtGaps = subtitles.Gaps(captions, d.cfg.Silence.SRTMinGapMS, info.DurationMS)
		p.Transcription = transcriptionFromCaptions(captions)
	}

	mode, err := silence.ParseMode(d.cfg.Silence.Mode)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "detect", "mode", d.cfg.Silence.Mode, err)
	}
	combined, err := silence.Combine(regions, srtGaps, mode, d.cfg.Silence.PaddingMS)
	if err != nil {
		return err
	}

	videoTrackID, audioTrackIDs := trackIDs(p)
	decisions := silence.Decisions(combined, videoTrackID, audioTrackIDs)
	for _, decision := range decisions {
		if err := p.AddDecision(decision); err != nil {
			return err
		}
	}

	projectPath := filepath.Join(d.cfg.Paths.ProjectsDir, name+".json")
	if err := p.Save(projectPath); err != nil {
		return err
	}
	if err := d.writeDetectionResult(name, combined, info.DurationMS); err != nil {
		return err
	}
	item.ProjectPath = projectPath
	item.SetProgress("detect", fmt.Sprintf("%d silence cuts from %d regions", len(decisions), len(combined)))
	d.logger.Info("silence detection complete",
		logging.Int("regions", len(combined)),
		logging.Int("decisions", len(decisions)),
		logging.String("project", projectPath))
	return nil
}

// writeDetectionResult persists the raw detection artifact next to the
// project document for later inspection and tuning.
func (d *Detect) writeDetectionResult(name string, regions []silence.Region, durationMS int64) error {
	result := silence.BuildResult(regions, durationMS)
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "detect", "encode detection result", name, err)
	}
	path := filepath.Join(d.cfg.Paths.ProjectsDir, name+".detection.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "detect", "write detection result", path, err)
	}
	return nil
}

func (d *Detect) HealthCheck(ctx context.Context) stage.Health {
	for _, binary := range []string{d.cfg.FFmpeg.Binary, d.cfg.FFmpeg.FFprobeBinary} {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy("detect", binary+" not found in PATH")
		}
	}
	return stage.Healthy("detect")
}

func projectName(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func transcriptionFromCaptions(captions []subtitles.Caption) *project.Transcription {
	tr := &project.Transcription{}
	for _, caption := range captions {
		tr.Segments = append(tr.Segments, project.TranscriptSegment{
			Range: caption.Range,
			Text:  caption.Text,
		})
	}
	return tr
}

func trackIDs(p *project.Project) (string, []string) {
	var videoTrackID string
	if track, ok := p.PrimaryVideoTrack(); ok {
		videoTrackID = track.ID
	}
	var audioTrackIDs []string
	for _, track := range p.Tracks {
		if track.TrackType == project.TrackAudio {
			audioTrackIDs = append(audioTrackIDs, track.ID)
		}
	}
	return videoTrackID, audioTrackIDs
}
