package export

import (
	"log/slog"
	"sort"

	"avid/internal/logging"
	"avid/internal/timeline"
)

// Mode selects how cut spans appear in the exported timeline.
type Mode string

const (
	// ModeCut removes cut spans from the sequence entirely.
	ModeCut Mode = "cut"
	// ModeReview keeps cut spans in place but disabled, so a reviewer sees
	// them in context without them playing.
	ModeReview Mode = "review"
)

// Segment is one contiguous span of the primary timeline after conflict
// resolution. Disabled segments are emitted only in review mode or under a
// mute overlay.
type Segment struct {
	StartMS int64
	EndMS   int64
	Enabled bool
}

// BuildSegments turns possibly overlapping decisions into a disjoint, gapless
// partition of [0, durationMS). Cut decisions are sorted and merged, then the
// gaps between them become kept segments; mute decisions split the kept
// segments they land on and disable the covered sub-spans. Malformed
// decisions are skipped with a warning since a partial reviewable timeline
// beats no timeline.
func BuildSegments(decisions []timeline.EditDecision, durationMS int64, mode Mode, logger *slog.Logger) []Segment {
	log := logging.WithComponent(logger, "export")
	if durationMS <= 0 {
		return nil
	}

	var cutRanges, muteRanges []timeline.TimeRange
	for i, decision := range decisions {
		if err := decision.Validate(); err != nil {
			log.Warn("skipping malformed decision",
				logging.Int("index", i),
				logging.Error(err))
			continue
		}
		clipped, ok := clipRange(decision.Range, durationMS)
		if !ok {
			log.Warn("skipping decision outside timeline",
				logging.Int("index", i),
				logging.String("range", decision.Range.String()))
			continue
		}
		switch decision.EditType {
		case timeline.EditCut:
			cutRanges = append(cutRanges, clipped)
		case timeline.EditMute:
			muteRanges = append(muteRanges, clipped)
		default:
			// Speedup spans keep their media; they do not affect segmentation.
		}
	}

	cuts := mergeRanges(cutRanges)

	var segments []Segment
	var cursor int64
	for _, cut := range cuts {
		if cut.StartMS > cursor {
			segments = append(segments, Segment{StartMS: cursor, EndMS: cut.StartMS, Enabled: true})
		}
		if mode == ModeReview {
			segments = append(segments, Segment{StartMS: cut.StartMS, EndMS: cut.EndMS, Enabled: false})
		}
		cursor = cut.EndMS
	}
	if durationMS > cursor {
		segments = append(segments, Segment{StartMS: cursor, EndMS: durationMS, Enabled: true})
	}

	for _, mute := range mergeRanges(muteRanges) {
		segments = overlayMute(segments, mute)
	}
	return segments
}

// clipRange bounds a range to the timeline, rejecting ranges fully outside.
func clipRange(r timeline.TimeRange, durationMS int64) (timeline.TimeRange, bool) {
	if r.StartMS >= durationMS {
		return timeline.TimeRange{}, false
	}
	if r.EndMS > durationMS {
		r.EndMS = durationMS
	}
	return r, r.EndMS > r.StartMS
}

// mergeRanges sorts and merges overlapping or touching ranges.
func mergeRanges(ranges []timeline.TimeRange) []timeline.TimeRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := append([]timeline.TimeRange(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMS < sorted[j].StartMS })

	out := []timeline.TimeRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.StartMS <= last.EndMS {
			if r.EndMS > last.EndMS {
				last.EndMS = r.EndMS
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// overlayMute splits enabled segments where the mute range covers them and
// disables the covered sub-spans. Disabled segments stay as they are.
func overlayMute(segments []Segment, mute timeline.TimeRange) []Segment {
	var out []Segment
	for _, seg := range segments {
		if !seg.Enabled || mute.EndMS <= seg.StartMS || mute.StartMS >= seg.EndMS {
			out = append(out, seg)
			continue
		}
		if mute.StartMS > seg.StartMS {
			out = append(out, Segment{StartMS: seg.StartMS, EndMS: mute.StartMS, Enabled: true})
		}
		covered := Segment{
			StartMS: max(mute.StartMS, seg.StartMS),
			EndMS:   min(mute.EndMS, seg.EndMS),
			Enabled: false,
		}
		out = append(out, covered)
		if mute.EndMS < seg.EndMS {
			out = append(out, Segment{StartMS: mute.EndMS, EndMS: seg.EndMS, Enabled: true})
		}
	}
	return out
}

// CutRanges lists the spans physically removed by cut-mode export: the gaps
// between the emitted segments. Disabled mute sub-splits still occupy
// timeline space, so they do not count as removed. Used for caption
// re-timing.
func CutRanges(segments []Segment, durationMS int64) []timeline.TimeRange {
	var cuts []timeline.TimeRange
	var cursor int64
	for _, seg := range segments {
		if seg.StartMS > cursor {
			cuts = append(cuts, timeline.TimeRange{StartMS: cursor, EndMS: seg.StartMS})
		}
		if seg.EndMS > cursor {
			cursor = seg.EndMS
		}
	}
	if durationMS > cursor {
		cuts = append(cuts, timeline.TimeRange{StartMS: cursor, EndMS: durationMS})
	}
	return cuts
}
