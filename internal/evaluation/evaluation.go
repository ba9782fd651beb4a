// Package evaluation scores one exported timeline against another by
// recovering cut ranges from the kept clips and matching them greedily.
package evaluation

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"avid/internal/export"
	"avid/internal/services"
	"avid/internal/timeline"
)

// Timeline is the cut structure recovered from an exported document.
type Timeline struct {
	KeptClips []timeline.TimeRange `json:"kept_clips"`
	Cuts      []timeline.TimeRange `json:"cuts"`
	TotalMS   int64                `json:"total_ms"`
}

// Report carries the match outcome and derived metrics for one comparison.
type Report struct {
	Matched              int                  `json:"matched"`
	Missed               []timeline.TimeRange `json:"missed"`
	Extra                []timeline.TimeRange `json:"extra"`
	Precision            float64              `json:"precision"`
	Recall               float64              `json:"recall"`
	F1                   float64              `json:"f1"`
	PredictedCutMS       int64                `json:"predicted_cut_ms"`
	GroundTruthCutMS     int64                `json:"ground_truth_cut_ms"`
	OverlapMS            int64                `json:"overlap_ms"`
	TimelineOverlapRatio float64              `json:"timeline_overlap_ratio"`
}

// ParseTimelineFile reads an exported FCPXML document from disk and recovers
// its cut structure.
func ParseTimelineFile(path string) (*Timeline, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "evaluation", "parse", "open "+path, err)
	}
	defer file.Close()
	doc, err := export.ParseFCPXML(file)
	if err != nil {
		return nil, err
	}
	return TimelineFromDocument(doc)
}

// TimelineFromDocument recovers kept clips from the spine and derives cuts as
// the gaps in source coverage. Disabled clips count as removed material, so a
// review export and a cut export of the same decisions yield the same cuts.
func TimelineFromDocument(doc *export.Document) (*Timeline, error) {
	spine := doc.Library.Event.Project.Sequence.Spine

	var kept []timeline.TimeRange
	var maxEnd int64
	for _, clip := range spine.Clips {
		start, err := export.ParseRationalMS(clip.Start)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "evaluation", "parse", "clip start", err)
		}
		duration, err := export.ParseRationalMS(clip.Duration)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "evaluation", "parse", "clip duration", err)
		}
		end := start + duration
		if end > maxEnd {
			maxEnd = end
		}
		if clip.Enabled == "0" || duration <= 0 {
			continue
		}
		kept = append(kept, timeline.TimeRange{StartMS: start, EndMS: end})
	}

	total := maxEnd
	if seqMS, err := export.ParseRationalMS(doc.Library.Event.Project.Sequence.Duration); err == nil && seqMS > total {
		total = seqMS
	}

	kept = mergeRanges(kept)
	return &Timeline{
		KeptClips: kept,
		Cuts:      gaps(kept, total),
		TotalMS:   total,
	}, nil
}

// Evaluate matches predicted cuts against ground-truth cuts. Each predicted
// cut greedily claims the unmatched ground-truth cut it overlaps most, when
// that overlap reaches thresholdMS. Unclaimed ground-truth cuts are missed,
// unmatchable predicted cuts are extra.
func Evaluate(predicted, groundTruth *Timeline, thresholdMS int64) Report {
	report := Report{
		Missed: []timeline.TimeRange{},
		Extra:  []timeline.TimeRange{},
	}
	for _, cut := range predicted.Cuts {
		report.PredictedCutMS += cut.DurationMS()
	}
	for _, cut := range groundTruth.Cuts {
		report.GroundTruthCutMS += cut.DurationMS()
	}

	claimed := make([]bool, len(groundTruth.Cuts))
	for _, pred := range predicted.Cuts {
		best := -1
		var bestOverlap int64
		for i, gt := range groundTruth.Cuts {
			if claimed[i] {
				continue
			}
			if ov := overlapMS(pred, gt); ov > bestOverlap {
				best, bestOverlap = i, ov
			}
		}
		if best >= 0 && bestOverlap >= thresholdMS && bestOverlap > 0 {
			claimed[best] = true
			report.Matched++
			report.OverlapMS += bestOverlap
		} else {
			report.Extra = append(report.Extra, pred)
		}
	}
	for i, gt := range groundTruth.Cuts {
		if !claimed[i] {
			report.Missed = append(report.Missed, gt)
		}
	}

	if n := len(predicted.Cuts); n > 0 {
		report.Precision = float64(report.Matched) / float64(n)
	}
	if n := len(groundTruth.Cuts); n > 0 {
		report.Recall = float64(report.Matched) / float64(n)
	}
	if report.Precision+report.Recall > 0 {
		report.F1 = 2 * report.Precision * report.Recall / (report.Precision + report.Recall)
	}
	if report.GroundTruthCutMS > 0 {
		report.TimelineOverlapRatio = float64(report.OverlapMS) / float64(report.GroundTruthCutMS)
	}
	return report
}

// CompareFiles parses and evaluates two exported documents.
func CompareFiles(predictedPath, groundTruthPath string, thresholdMS int64) (Report, error) {
	predicted, err := ParseTimelineFile(predictedPath)
	if err != nil {
		return Report{}, err
	}
	groundTruth, err := ParseTimelineFile(groundTruthPath)
	if err != nil {
		return Report{}, err
	}
	return Evaluate(predicted, groundTruth, thresholdMS), nil
}

// FormatReport renders a human-readable summary.
func FormatReport(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "matched cuts:     %d\n", r.Matched)
	fmt.Fprintf(&b, "missed cuts:      %d\n", len(r.Missed))
	fmt.Fprintf(&b, "extra cuts:       %d\n", len(r.Extra))
	fmt.Fprintf(&b, "precision:        %.3f\n", r.Precision)
	fmt.Fprintf(&b, "recall:           %.3f\n", r.Recall)
	fmt.Fprintf(&b, "f1:               %.3f\n", r.F1)
	fmt.Fprintf(&b, "predicted cut:    %s\n", formatMS(r.PredictedCutMS))
	fmt.Fprintf(&b, "ground truth cut: %s\n", formatMS(r.GroundTruthCutMS))
	fmt.Fprintf(&b, "overlap ratio:    %.3f\n", r.TimelineOverlapRatio)
	if len(r.Missed) > 0 {
		b.WriteString("missed ranges:\n")
		for _, cut := range r.Missed {
			fmt.Fprintf(&b, "  %s\n", cut.String())
		}
	}
	if len(r.Extra) > 0 {
		b.WriteString("extra ranges:\n")
		for _, cut := range r.Extra {
			fmt.Fprintf(&b, "  %s\n", cut.String())
		}
	}
	return b.String()
}

func formatMS(ms int64) string {
	return fmt.Sprintf("%.2fs", float64(ms)/1000)
}

func overlapMS(a, b timeline.TimeRange) int64 {
	start := max(a.StartMS, b.StartMS)
	end := min(a.EndMS, b.EndMS)
	if end <= start {
		return 0
	}
	return end - start
}

func mergeRanges(ranges []timeline.TimeRange) []timeline.TimeRange {
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].StartMS < ranges[j].StartMS })
	out := []timeline.TimeRange{ranges[0]}
	for _, r := range ranges[1:] {
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

func gaps(kept []timeline.TimeRange, total int64) []timeline.TimeRange {
	var out []timeline.TimeRange
	var cursor int64
	for _, r := range kept {
		if r.StartMS > cursor {
			out = append(out, timeline.TimeRange{StartMS: cursor, EndMS: r.StartMS})
		}
		if r.EndMS > cursor {
			cursor = r.EndMS
		}
	}
	if total > cursor {
		out = append(out, timeline.TimeRange{StartMS: cursor, EndMS: total})
	}
	return out
}
