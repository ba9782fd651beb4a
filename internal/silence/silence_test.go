package silence_test

import (
	"errors"
	"testing"

	"avid/internal/services"
	"avid/internal/silence"
	"avid/internal/timeline"
)

func ffmpegRegion(startMS, endMS int64) silence.Region {
	return silence.Region{
		Range:      timeline.TimeRange{StartMS: startMS, EndMS: endMS},
		Source:     silence.SourceFFmpeg,
		Confidence: 1.0,
	}
}

func srtGap(startMS, endMS int64) silence.Region {
	return silence.Region{
		Range:      timeline.TimeRange{StartMS: startMS, EndMS: endMS},
		Source:     silence.SourceSRT,
		Confidence: 0.7,
	}
}

func TestCombineUnionMergesTouchingRegions(t *testing.T) {
	out, err := silence.Combine(
		[]silence.Region{ffmpegRegion(1000, 2000)},
		[]silence.Region{srtGap(1800, 3000)},
		silence.ModeUnion, 0)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("regions = %d, want 1", len(out))
	}
	got := out[0]
	if got.Range.StartMS != 1000 || got.Range.EndMS != 3000 {
		t.Fatalf("range = %v, want [1000..3000)", got.Range)
	}
	if got.Source != silence.SourceCombined || got.Confidence != 0.8 {
		t.Fatalf("tagging = %s/%f, want combined/0.8", got.Source, got.Confidence)
	}
}

func TestCombineIntersection(t *testing.T) {
	out, err := silence.Combine(
		[]silence.Region{ffmpegRegion(1000, 2000)},
		[]silence.Region{srtGap(1800, 3000)},
		silence.ModeIntersection, 0)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("regions = %d, want 1", len(out))
	}
	got := out[0]
	if got.Range.StartMS != 1800 || got.Range.EndMS != 2000 {
		t.Fatalf("range = %v, want [1800..2000)", got.Range)
	}
	if got.Confidence != 0.95 {
		t.Fatalf("confidence = %f, want 0.95", got.Confidence)
	}
}

func TestPadShrinksAndDrops(t *testing.T) {
	out := silence.Pad([]silence.Region{
		ffmpegRegion(1000, 3000),
		ffmpegRegion(5000, 5300),
	}, 200)
	if len(out) != 1 {
		t.Fatalf("regions = %d, want 1 (collapsed region dropped)", len(out))
	}
	if out[0].Range.StartMS != 1200 || out[0].Range.EndMS != 2800 {
		t.Fatalf("range = %v, want [1200..2800)", out[0].Range)
	}
}

func TestCombineNoSRTFallback(t *testing.T) {
	out, err := silence.Combine(
		[]silence.Region{ffmpegRegion(1000, 3000)},
		nil, silence.ModeIntersection, 200)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("regions = %d, want 1", len(out))
	}
	if out[0].Source != silence.SourceFFmpeg {
		t.Fatalf("fallback must keep ffmpeg regions verbatim, got %s", out[0].Source)
	}
	if out[0].Range.StartMS != 1200 || out[0].Range.EndMS != 2800 {
		t.Fatalf("padding not applied in fallback: %v", out[0].Range)
	}
}

func TestUnionIdempotence(t *testing.T) {
	regions := []silence.Region{ffmpegRegion(0, 500), ffmpegRegion(400, 900), ffmpegRegion(2000, 2500)}
	first, err := silence.Combine(regions, regions, silence.ModeUnion, 0)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	second, err := silence.Combine(first, first, silence.ModeUnion, 0)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("second union pass changed region count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Range != second[i].Range {
			t.Fatalf("region %d changed: %v vs %v", i, first[i].Range, second[i].Range)
		}
	}
}

func TestIntersectionContainedInUnion(t *testing.T) {
	a := []silence.Region{ffmpegRegion(100, 600), ffmpegRegion(1000, 1500)}
	b := []silence.Region{srtGap(400, 1200), srtGap(1400, 1700)}
	unionOut, err := silence.Combine(a, b, silence.ModeUnion, 0)
	if err != nil {
		t.Fatalf("Combine union: %v", err)
	}
	interOut, err := silence.Combine(a, b, silence.ModeIntersection, 0)
	if err != nil {
		t.Fatalf("Combine intersection: %v", err)
	}
	for _, inter := range interOut {
		contained := false
		for _, u := range unionOut {
			if inter.Range.StartMS >= u.Range.StartMS && inter.Range.EndMS <= u.Range.EndMS {
				contained = true
				break
			}
		}
		if !contained {
			t.Fatalf("intersection region %v not inside any union region", inter.Range)
		}
	}
}

func TestCombineDiff(t *testing.T) {
	out, err := silence.Combine(
		[]silence.Region{ffmpegRegion(0, 1000)},
		[]silence.Region{srtGap(200, 400), srtGap(600, 700)},
		silence.ModeDiff, 0)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	want := []timeline.TimeRange{
		{StartMS: 0, EndMS: 200},
		{StartMS: 400, EndMS: 600},
		{StartMS: 700, EndMS: 1000},
	}
	if len(out) != len(want) {
		t.Fatalf("regions = %d, want %d", len(out), len(want))
	}
	for i, w := range want {
		if out[i].Range != w {
			t.Fatalf("region %d = %v, want %v", i, out[i].Range, w)
		}
	}
}

func TestCombineUnknownMode(t *testing.T) {
	if _, err := silence.Combine(nil, nil, "fancy", 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSpeechRegionsInversion(t *testing.T) {
	regions := []silence.Region{ffmpegRegion(1000, 2000), ffmpegRegion(4000, 4500)}
	speech := silence.SpeechRegions(regions, 6000)
	want := []timeline.TimeRange{
		{StartMS: 0, EndMS: 1000},
		{StartMS: 2000, EndMS: 4000},
		{StartMS: 4500, EndMS: 6000},
	}
	if len(speech) != len(want) {
		t.Fatalf("speech regions = %d, want %d", len(speech), len(want))
	}
	for i, w := range want {
		if speech[i] != w {
			t.Fatalf("speech region %d = %v, want %v", i, speech[i], w)
		}
	}
}

func TestStats(t *testing.T) {
	regions := []silence.Region{ffmpegRegion(0, 1000), ffmpegRegion(2000, 3000)}
	stats := silence.Stats(regions, 10000)
	if stats.SilenceCount != 2 || stats.SilenceMS != 2000 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.SilenceRatio != 0.2 {
		t.Fatalf("ratio = %f, want 0.2", stats.SilenceRatio)
	}
}

func TestAutoThresholdDB(t *testing.T) {
	cases := []struct {
		tempo silence.Tempo
		want  float64
	}{
		{silence.TempoTight, -27},   // -21 - 20*0.3
		{silence.TempoNormal, -31},  // -21 - 20*0.5
		{silence.TempoRelaxed, -37}, // -21 - 20*0.8
	}
	for _, tc := range cases {
		if got := silence.AutoThresholdDB(-21, -1, tc.tempo); got != tc.want {
			t.Fatalf("threshold(%s) = %f, want %f", tc.tempo, got, tc.want)
		}
	}
	if got := silence.AutoThresholdDB(-90, -80, silence.TempoNormal); got != -60 {
		t.Fatalf("low clamp = %f, want -60", got)
	}
	if got := silence.AutoThresholdDB(-5, -1, silence.TempoTight); got != -20 {
		t.Fatalf("high clamp = %f, want -20", got)
	}
}

func TestDecisions(t *testing.T) {
	regions := []silence.Region{ffmpegRegion(100, 300)}
	decisions := silence.Decisions(regions, "v1", []string{"a1"})
	if len(decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(decisions))
	}
	d := decisions[0]
	if d.EditType != timeline.EditCut || d.Reason != timeline.ReasonSilence {
		t.Fatalf("unexpected decision %+v", d)
	}
	if d.ActiveVideoTrackID != "v1" || len(d.ActiveAudioTrackIDs) != 1 {
		t.Fatalf("track wiring wrong: %+v", d)
	}
}
