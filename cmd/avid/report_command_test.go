package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"avid/internal/export"
	"avid/internal/media"
	"avid/internal/project"
	"avid/internal/timeline"
)

func savedProjectFile(t *testing.T) string {
	t.Helper()
	file, err := media.NewFile("/media/main.mp4", media.Info{
		DurationMS: 10000, Width: 1920, Height: 1080, FPS: 30, SampleRate: 48000,
	})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	p := project.New("episode")
	if _, err := p.AddSourceFile(file); err != nil {
		t.Fatalf("AddSourceFile: %v", err)
	}
	if err := p.AddDecision(timeline.EditDecision{
		Range:      timeline.TimeRange{StartMS: 3000, EndMS: 5000},
		EditType:   timeline.EditCut,
		Reason:     timeline.ReasonSilence,
		Confidence: 0.9,
	}); err != nil {
		t.Fatalf("AddDecision: %v", err)
	}

	path := filepath.Join(t.TempDir(), "episode.avid.json")
	if err := p.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}

func TestReportCommandMarkdown(t *testing.T) {
	isolateEnvironment(t)
	path := savedProjectFile(t)

	output, err := runCommand(t, "report", path)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	for _, want := range []string{"# Edit Report", "**Project**: episode", "## Silence (1)", "00:03.000 - 00:05.000"} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}
}

func TestReportCommandJSONToFile(t *testing.T) {
	isolateEnvironment(t)
	path := savedProjectFile(t)
	target := filepath.Join(t.TempDir(), "report")

	output, err := runCommand(t, "report", path, "--json", "-o", target)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(output, "Report written to ") {
		t.Fatalf("missing confirmation:\n%s", output)
	}

	data, err := os.ReadFile(target + ".json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var report export.Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if report.Summary.TotalCount != 1 || report.Summary.TotalDurationMS != 2000 {
		t.Fatalf("summary = %+v", report.Summary)
	}
}
