// Package silence combines independently detected silence regions from the
// ffmpeg level detector and subtitle gaps into one region set ready to become
// cut decisions.
package silence

import (
	"sort"
	"strings"

	"avid/internal/services"
	"avid/internal/timeline"
)

// Source identifies which detector produced a region.
type Source string

const (
	SourceFFmpeg   Source = "ffmpeg"
	SourceSRT      Source = "srt"
	SourceCombined Source = "combined"
)

// Region is a detected silence span with its provenance and confidence.
type Region struct {
	Range      timeline.TimeRange `json:"range"`
	Source     Source             `json:"source"`
	Confidence float64            `json:"confidence"`
}

// Mode selects how the two detector outputs are combined.
type Mode string

const (
	// ModeUnion merges touching or overlapping regions from both sources.
	ModeUnion Mode = "union"
	// ModeIntersection keeps only spans both sources agree on.
	ModeIntersection Mode = "intersection"
	// ModeFFmpegOnly ignores subtitle gaps.
	ModeFFmpegOnly Mode = "ffmpeg_only"
	// ModeSRTOnly ignores the level detector.
	ModeSRTOnly Mode = "srt_only"
	// ModeDiff keeps ffmpeg spans not covered by any subtitle gap.
	ModeDiff Mode = "diff"
)

// ParseMode normalizes a configured combine mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeUnion:
		return ModeUnion, nil
	case ModeIntersection:
		return ModeIntersection, nil
	case ModeFFmpegOnly:
		return ModeFFmpegOnly, nil
	case ModeSRTOnly:
		return ModeSRTOnly, nil
	case ModeDiff:
		return ModeDiff, nil
	default:
		return "", services.Wrap(services.ErrValidation, "silence", "mode", "unknown value "+value, nil)
	}
}

// Combine produces the unified region set. FFmpeg regions are shrunk by
// paddingMS on both edges first so cuts never clip speech right next to a
// boundary; regions that collapse under padding are dropped. When no subtitle
// gaps are available the padded ffmpeg regions are returned verbatim. Output
// is always sorted by start, ties keeping input order.
func Combine(ffmpegRegions, srtGaps []Region, mode Mode, paddingMS int64) ([]Region, error) {
	switch mode {
	case ModeUnion, ModeIntersection, ModeFFmpegOnly, ModeSRTOnly, ModeDiff:
	default:
		return nil, services.Wrap(services.ErrValidation, "silence", "combine", "unknown mode "+string(mode), nil)
	}

	padded := Pad(ffmpegRegions, paddingMS)

	var out []Region
	switch mode {
	case ModeFFmpegOnly:
		out = append(out, padded...)
	case ModeSRTOnly:
		out = append(out, srtGaps...)
	case ModeDiff:
		out = subtract(padded, srtGaps)
	case ModeUnion, ModeIntersection:
		if len(srtGaps) == 0 {
			out = append(out, padded...)
			break
		}
		if mode == ModeUnion {
			out = union(padded, srtGaps)
		} else {
			out = intersect(padded, srtGaps)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.StartMS < out[j].Range.StartMS
	})
	return out, nil
}

// Pad shrinks each region by paddingMS on both edges, dropping regions that
// collapse.
func Pad(regions []Region, paddingMS int64) []Region {
	if paddingMS <= 0 {
		return append([]Region(nil), regions...)
	}
	out := make([]Region, 0, len(regions))
	for _, region := range regions {
		start := region.Range.StartMS + paddingMS
		end := region.Range.EndMS - paddingMS
		if end <= start {
			continue
		}
		padded := region
		padded.Range = timeline.TimeRange{StartMS: start, EndMS: end}
		out = append(out, padded)
	}
	return out
}

func union(a, b []Region) []Region {
	all := make([]Region, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Range.StartMS < all[j].Range.StartMS
	})

	var out []Region
	for _, region := range all {
		if len(out) == 0 {
			out = append(out, combined(region.Range))
			continue
		}
		last := &out[len(out)-1]
		if region.Range.StartMS <= last.Range.EndMS {
			if region.Range.EndMS > last.Range.EndMS {
				last.Range.EndMS = region.Range.EndMS
			}
			continue
		}
		out = append(out, combined(region.Range))
	}
	return out
}

// intersect is pairwise rather than a sweep; both inputs are small per-file
// silence counts, and intersections of inputs that are each disjoint within
// their own source stay naturally disjoint.
func intersect(a, b []Region) []Region {
	var out []Region
	for _, ra := range a {
		for _, rb := range b {
			start := max(ra.Range.StartMS, rb.Range.StartMS)
			end := min(ra.Range.EndMS, rb.Range.EndMS)
			if start < end {
				region := combined(timeline.TimeRange{StartMS: start, EndMS: end})
				region.Confidence = 0.95
				out = append(out, region)
			}
		}
	}
	return out
}

func subtract(base, remove []Region) []Region {
	var out []Region
	for _, region := range base {
		spans := []timeline.TimeRange{region.Range}
		for _, r := range remove {
			var next []timeline.TimeRange
			for _, span := range spans {
				if !span.Overlaps(r.Range) {
					next = append(next, span)
					continue
				}
				if r.Range.StartMS > span.StartMS {
					next = append(next, timeline.TimeRange{StartMS: span.StartMS, EndMS: r.Range.StartMS})
				}
				if r.Range.EndMS < span.EndMS {
					next = append(next, timeline.TimeRange{StartMS: r.Range.EndMS, EndMS: span.EndMS})
				}
			}
			spans = next
		}
		for _, span := range spans {
			fragment := region
			fragment.Range = span
			out = append(out, fragment)
		}
	}
	return out
}

func combined(r timeline.TimeRange) Region {
	return Region{Range: r, Source: SourceCombined, Confidence: 0.8}
}

// SpeechRegions inverts silences over [0, totalDurationMS).
func SpeechRegions(regions []Region, totalDurationMS int64) []timeline.TimeRange {
	sorted := append([]Region(nil), regions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.StartMS < sorted[j].Range.StartMS
	})

	var out []timeline.TimeRange
	var cursor int64
	for _, region := range sorted {
		if region.Range.StartMS > cursor {
			out = append(out, timeline.TimeRange{StartMS: cursor, EndMS: region.Range.StartMS})
		}
		if region.Range.EndMS > cursor {
			cursor = region.Range.EndMS
		}
	}
	if totalDurationMS > cursor {
		out = append(out, timeline.TimeRange{StartMS: cursor, EndMS: totalDurationMS})
	}
	return out
}

// Statistics summarizes a detection run.
type Statistics struct {
	SilenceCount   int     `json:"silence_count"`
	SilenceMS      int64   `json:"silence_ms"`
	SilenceRatio   float64 `json:"silence_ratio"`
	TotalDuration  int64   `json:"total_duration_ms"`
	SpeechRegionNo int     `json:"speech_region_count"`
}

// Stats computes summary numbers for a region set over the given duration.
func Stats(regions []Region, totalDurationMS int64) Statistics {
	stats := Statistics{SilenceCount: len(regions), TotalDuration: totalDurationMS}
	for _, region := range regions {
		stats.SilenceMS += region.Range.DurationMS()
	}
	if totalDurationMS > 0 {
		stats.SilenceRatio = float64(stats.SilenceMS) / float64(totalDurationMS)
	}
	stats.SpeechRegionNo = len(SpeechRegions(regions, totalDurationMS))
	return stats
}

// Result is the detection artifact persisted next to the project document.
type Result struct {
	Regions       []Region             `json:"regions"`
	SpeechRegions []timeline.TimeRange `json:"speech_regions"`
	Statistics    Statistics           `json:"statistics"`
}

// BuildResult assembles the detection artifact for a combined region set.
func BuildResult(regions []Region, totalDurationMS int64) Result {
	return Result{
		Regions:       regions,
		SpeechRegions: SpeechRegions(regions, totalDurationMS),
		Statistics:    Stats(regions, totalDurationMS),
	}
}

// Decisions converts regions into cut decisions on the given tracks.
func Decisions(regions []Region, videoTrackID string, audioTrackIDs []string) []timeline.EditDecision {
	out := make([]timeline.EditDecision, 0, len(regions))
	for _, region := range regions {
		out = append(out, timeline.EditDecision{
			Range:               region.Range,
			EditType:            timeline.EditCut,
			Reason:              timeline.ReasonSilence,
			Confidence:          region.Confidence,
			ActiveVideoTrackID:  videoTrackID,
			ActiveAudioTrackIDs: append([]string(nil), audioTrackIDs...),
		})
	}
	return out
}
