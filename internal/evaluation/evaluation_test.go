package evaluation_test

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"avid/internal/evaluation"
	"avid/internal/export"
	"avid/internal/logging"
	"avid/internal/media"
	"avid/internal/project"
	"avid/internal/timeline"
)

func ranges(pairs ...int64) []timeline.TimeRange {
	var out []timeline.TimeRange
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, timeline.TimeRange{StartMS: pairs[i], EndMS: pairs[i+1]})
	}
	return out
}

func cutTimeline(totalMS int64, cutPairs ...int64) *evaluation.Timeline {
	return &evaluation.Timeline{Cuts: ranges(cutPairs...), TotalMS: totalMS}
}

func TestEvaluatePerfectMatch(t *testing.T) {
	predicted := cutTimeline(10000, 1000, 2000, 5000, 6000)
	report := evaluation.Evaluate(predicted, cutTimeline(10000, 1000, 2000, 5000, 6000), 100)

	if report.Matched != 2 || len(report.Missed) != 0 || len(report.Extra) != 0 {
		t.Fatalf("report = %+v", report)
	}
	if report.Precision != 1 || report.Recall != 1 || report.F1 != 1 {
		t.Fatalf("metrics = %v/%v/%v, want all 1", report.Precision, report.Recall, report.F1)
	}
	if report.TimelineOverlapRatio != 1 {
		t.Fatalf("overlap ratio = %v, want 1", report.TimelineOverlapRatio)
	}
}

func TestEvaluatePartialOverlapBelowThreshold(t *testing.T) {
	predicted := cutTimeline(10000, 1000, 2000)
	groundTruth := cutTimeline(10000, 1950, 3000)

	report := evaluation.Evaluate(predicted, groundTruth, 100)
	if report.Matched != 0 {
		t.Fatalf("50ms overlap must not match at 100ms threshold: %+v", report)
	}
	if len(report.Extra) != 1 || len(report.Missed) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Precision != 0 || report.Recall != 0 || report.F1 != 0 {
		t.Fatalf("metrics = %+v", report)
	}
}

func TestEvaluateGreedyClaimsBestOverlap(t *testing.T) {
	// The predicted cut overlaps both ground-truth cuts; it must claim the
	// larger overlap and leave the other as missed.
	predicted := cutTimeline(20000, 2000, 6000)
	groundTruth := cutTimeline(20000, 1000, 3000, 3500, 6000)

	report := evaluation.Evaluate(predicted, groundTruth, 100)
	if report.Matched != 1 {
		t.Fatalf("matched = %d, want 1", report.Matched)
	}
	if len(report.Missed) != 1 || report.Missed[0].StartMS != 1000 {
		t.Fatalf("missed = %+v, want the smaller-overlap cut", report.Missed)
	}
	if report.OverlapMS != 2500 {
		t.Fatalf("overlap = %d, want 2500", report.OverlapMS)
	}
}

func TestEvaluateMatchConsumesGroundTruthCut(t *testing.T) {
	// Two predicted cuts overlap the same ground-truth cut; only one can
	// claim it.
	predicted := cutTimeline(10000, 1000, 2000, 2100, 3000)
	groundTruth := cutTimeline(10000, 1000, 3000)

	report := evaluation.Evaluate(predicted, groundTruth, 100)
	if report.Matched != 1 || len(report.Extra) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Recall != 1 {
		t.Fatalf("recall = %v, want 1", report.Recall)
	}
	if math.Abs(report.Precision-0.5) > 1e-9 {
		t.Fatalf("precision = %v, want 0.5", report.Precision)
	}
}

func TestEvaluateNoCuts(t *testing.T) {
	report := evaluation.Evaluate(cutTimeline(5000), cutTimeline(5000), 100)
	if report.Precision != 0 || report.Recall != 0 || report.F1 != 0 {
		t.Fatalf("empty comparison metrics = %+v", report)
	}
	if report.Matched != 0 || len(report.Missed) != 0 || len(report.Extra) != 0 {
		t.Fatalf("report = %+v", report)
	}
}

func TestTimelineFromDocumentDerivesCuts(t *testing.T) {
	p := newProject(t, 10000)
	addCut(t, p, 3000, 5000)

	doc := exportDoc(t, p, export.ModeReview)
	tl, err := evaluation.TimelineFromDocument(doc)
	if err != nil {
		t.Fatalf("TimelineFromDocument: %v", err)
	}
	if tl.TotalMS != 10000 {
		t.Fatalf("total = %d, want 10000", tl.TotalMS)
	}
	if len(tl.KeptClips) != 2 {
		t.Fatalf("kept = %+v", tl.KeptClips)
	}
	if len(tl.Cuts) != 1 || tl.Cuts[0].StartMS != 3000 || tl.Cuts[0].EndMS != 5000 {
		t.Fatalf("cuts = %+v, want [3000..5000)", tl.Cuts)
	}
}

func TestCutAndReviewExportsRecoverSameCuts(t *testing.T) {
	p := newProject(t, 10000)
	addCut(t, p, 2000, 3000)
	addCut(t, p, 7000, 8000)

	cutTL, err := evaluation.TimelineFromDocument(exportDoc(t, p, export.ModeCut))
	if err != nil {
		t.Fatalf("cut mode: %v", err)
	}
	reviewTL, err := evaluation.TimelineFromDocument(exportDoc(t, p, export.ModeReview))
	if err != nil {
		t.Fatalf("review mode: %v", err)
	}
	if len(cutTL.Cuts) != len(reviewTL.Cuts) {
		t.Fatalf("cut mode cuts %+v != review mode cuts %+v", cutTL.Cuts, reviewTL.Cuts)
	}
	for i := range cutTL.Cuts {
		if cutTL.Cuts[i] != reviewTL.Cuts[i] {
			t.Fatalf("cut %d: %+v != %+v", i, cutTL.Cuts[i], reviewTL.Cuts[i])
		}
	}
}

func TestSelfComparison(t *testing.T) {
	p := newProject(t, 10000)
	addCut(t, p, 1000, 2500)
	addCut(t, p, 6000, 7000)

	dir := t.TempDir()
	path := filepath.Join(dir, "timeline.fcpxml")
	if err := export.NewFCPXML(logging.NewNop()).ExportFile(p, export.ModeReview, path); err != nil {
		t.Fatalf("ExportFile: %v", err)
	}

	report, err := evaluation.CompareFiles(path, path, 100)
	if err != nil {
		t.Fatalf("CompareFiles: %v", err)
	}
	if report.Precision != 1 || report.Recall != 1 || report.F1 != 1 {
		t.Fatalf("self comparison metrics = %+v", report)
	}
	if len(report.Missed) != 0 || len(report.Extra) != 0 {
		t.Fatalf("self comparison mismatches = %+v", report)
	}
	if report.TimelineOverlapRatio != 1 {
		t.Fatalf("overlap ratio = %v, want 1", report.TimelineOverlapRatio)
	}
}

func TestFormatReportListsMismatches(t *testing.T) {
	predicted := cutTimeline(10000, 1000, 2000)
	groundTruth := cutTimeline(10000, 5000, 6000)

	out := evaluation.FormatReport(evaluation.Evaluate(predicted, groundTruth, 100))
	if !strings.Contains(out, "missed ranges:") || !strings.Contains(out, "extra ranges:") {
		t.Fatalf("report missing mismatch sections:\n%s", out)
	}
	if !strings.Contains(out, "precision:        0.000") {
		t.Fatalf("report missing metrics:\n%s", out)
	}
}

func newProject(t *testing.T, durationMS int64) *project.Project {
	t.Helper()
	p := project.New("episode")
	file, err := media.NewFile("/media/main.mp4", media.Info{
		DurationMS: durationMS, Width: 1920, Height: 1080, FPS: 30, SampleRate: 48000,
	})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if _, err := p.AddSourceFile(file); err != nil {
		t.Fatalf("AddSourceFile: %v", err)
	}
	return p
}

func addCut(t *testing.T, p *project.Project, startMS, endMS int64) {
	t.Helper()
	err := p.AddDecision(timeline.EditDecision{
		Range:      timeline.TimeRange{StartMS: startMS, EndMS: endMS},
		EditType:   timeline.EditCut,
		Reason:     timeline.ReasonSilence,
		Confidence: 0.9,
	})
	if err != nil {
		t.Fatalf("AddDecision: %v", err)
	}
}

func exportDoc(t *testing.T, p *project.Project, mode export.Mode) *export.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := export.NewFCPXML(logging.NewNop()).Export(p, mode, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	doc, err := export.ParseFCPXML(&buf)
	if err != nil {
		t.Fatalf("ParseFCPXML: %v", err)
	}
	return doc
}
