package subtitles_test

import (
	"strings"
	"testing"

	"avid/internal/silence"
	"avid/internal/subtitles"
	"avid/internal/timeline"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,500\nHello <i>there</i>\n\n" +
	"2\n00:00:04,000 --> 00:00:05,000\nSecond line\n\n" +
	"garbage block without timestamps\n\n" +
	"00:00:07,000 --> 00:00:08,000\nNo index line\n"

func TestParse(t *testing.T) {
	captions, err := subtitles.Parse(sampleSRT)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(captions) != 3 {
		t.Fatalf("captions = %d, want 3 (malformed block skipped)", len(captions))
	}
	if captions[0].Range.StartMS != 1000 || captions[0].Range.EndMS != 2500 {
		t.Fatalf("first range = %v", captions[0].Range)
	}
	if captions[0].Text != "Hello there" {
		t.Fatalf("html tags not stripped: %q", captions[0].Text)
	}
	if captions[2].Text != "No index line" {
		t.Fatalf("index-less block lost: %q", captions[2].Text)
	}
}

func TestParseBOMAndCRLF(t *testing.T) {
	content := "\uFEFF1\r\n00:00:00,100 --> 00:00:00,900\r\nhi\r\n"
	captions, err := subtitles.Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(captions) != 1 || captions[0].Text != "hi" {
		t.Fatalf("unexpected captions %+v", captions)
	}
}

func TestParseRejectsEmpty(t *testing.T) {
	if _, err := subtitles.Parse("not a subtitle file"); err == nil {
		t.Fatal("expected error for input with no valid entries")
	}
}

func TestParseSortsByStart(t *testing.T) {
	content := "1\n00:00:05,000 --> 00:00:06,000\nlate\n\n2\n00:00:01,000 --> 00:00:02,000\nearly\n"
	captions, err := subtitles.Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if captions[0].Text != "early" || captions[1].Text != "late" {
		t.Fatalf("not sorted: %+v", captions)
	}
}

func TestGaps(t *testing.T) {
	captions := []subtitles.Caption{
		{Range: timeline.TimeRange{StartMS: 1000, EndMS: 2000}},
		{Range: timeline.TimeRange{StartMS: 2300, EndMS: 4000}},
		{Range: timeline.TimeRange{StartMS: 7000, EndMS: 8000}},
	}
	gaps := subtitles.Gaps(captions, 500, 10000)
	want := []timeline.TimeRange{
		{StartMS: 0, EndMS: 1000},
		{StartMS: 4000, EndMS: 7000},
		{StartMS: 8000, EndMS: 10000},
	}
	if len(gaps) != len(want) {
		t.Fatalf("gaps = %d, want %d (300ms pause below threshold)", len(gaps), len(want))
	}
	for i, w := range want {
		if gaps[i].Range != w {
			t.Fatalf("gap %d = %v, want %v", i, gaps[i].Range, w)
		}
		if gaps[i].Source != silence.SourceSRT || gaps[i].Confidence != 0.7 {
			t.Fatalf("gap %d tagging = %s/%f", i, gaps[i].Source, gaps[i].Confidence)
		}
	}
}

func TestGapsWithoutTotalDuration(t *testing.T) {
	captions := []subtitles.Caption{
		{Range: timeline.TimeRange{StartMS: 1000, EndMS: 2000}},
		{Range: timeline.TimeRange{StartMS: 5000, EndMS: 6000}},
	}
	gaps := subtitles.Gaps(captions, 500, 0)
	if len(gaps) != 1 || gaps[0].Range.StartMS != 2000 || gaps[0].Range.EndMS != 5000 {
		t.Fatalf("unexpected gaps %+v", gaps)
	}
}

func TestRetime(t *testing.T) {
	captions := []subtitles.Caption{
		{Range: timeline.TimeRange{StartMS: 500, EndMS: 900}, Text: "keep"},
		{Range: timeline.TimeRange{StartMS: 1200, EndMS: 1800}, Text: "inside cut"},
		{Range: timeline.TimeRange{StartMS: 3000, EndMS: 3500}, Text: "shifted"},
	}
	cuts := []timeline.TimeRange{{StartMS: 1000, EndMS: 2000}}

	out := subtitles.Retime(captions, cuts)
	if len(out) != 2 {
		t.Fatalf("captions = %d, want 2 (swallowed caption dropped)", len(out))
	}
	if out[0].Range.StartMS != 500 {
		t.Fatalf("pre-cut caption moved: %v", out[0].Range)
	}
	if out[1].Range.StartMS != 2000 || out[1].Range.EndMS != 2500 {
		t.Fatalf("post-cut caption = %v, want [2000..2500)", out[1].Range)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	captions := []subtitles.Caption{
		{Range: timeline.TimeRange{StartMS: 61000, EndMS: 62500}, Text: "one minute in"},
	}
	formatted := subtitles.Format(captions)
	if !strings.Contains(formatted, "00:01:01,000 --> 00:01:02,500") {
		t.Fatalf("unexpected timestamp formatting:\n%s", formatted)
	}
	parsed, err := subtitles.Parse(formatted)
	if err != nil {
		t.Fatalf("Parse formatted output: %v", err)
	}
	if len(parsed) != 1 || parsed[0].Range != captions[0].Range || parsed[0].Text != captions[0].Text {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}
