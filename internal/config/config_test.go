package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"avid/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("AVID_LLM_API_KEY", "env-key")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantProjects := filepath.Join(tempHome, ".local", "share", "avid", "projects")
	if cfg.Paths.ProjectsDir != wantProjects {
		t.Fatalf("unexpected projects dir: got %q want %q", cfg.Paths.ProjectsDir, wantProjects)
	}
	if !filepath.IsAbs(cfg.Paths.QueuePath) {
		t.Fatalf("queue path not expanded: %q", cfg.Paths.QueuePath)
	}
	if cfg.FFmpeg.Binary != "ffmpeg" || cfg.FFmpeg.FFprobeBinary != "ffprobe" {
		t.Fatalf("unexpected binaries: %+v", cfg.FFmpeg)
	}
	if cfg.Silence.Tempo != "normal" || cfg.Silence.Mode != "union" {
		t.Fatalf("unexpected silence defaults: %+v", cfg.Silence)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Export.Format != "fcpxml" || cfg.Export.Mode != "cut" {
		t.Fatalf("unexpected export defaults: %+v", cfg.Export)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadReadsFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[silence]",
		`tempo = " Tight "`,
		"threshold_db = -35.0",
		"",
		"[export]",
		`format = "PREMIERE"`,
		`mode = "review"`,
		"",
		"[logging]",
		`format = "JSON"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected existing config, got exists=%v resolved=%q", exists, resolved)
	}
	if cfg.Silence.Tempo != "tight" {
		t.Fatalf("tempo not normalized: %q", cfg.Silence.Tempo)
	}
	if cfg.Silence.ThresholdDB != -35 {
		t.Fatalf("threshold = %v", cfg.Silence.ThresholdDB)
	}
	if cfg.Export.Format != "premiere" || cfg.Export.Mode != "review" {
		t.Fatalf("export = %+v", cfg.Export)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging format = %q", cfg.Logging.Format)
	}
	// Untouched sections keep defaults.
	if cfg.Analysis.DecisionMaker != "claude" {
		t.Fatalf("decision maker = %q", cfg.Analysis.DecisionMaker)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"bad tempo", "[silence]\ntempo = \"fast\"\n", "silence.tempo"},
		{"bad mode", "[silence]\nmode = \"overlap\"\n", "silence.mode"},
		{"positive threshold", "[silence]\nthreshold_db = 5.0\n", "threshold_db"},
		{"bad format", "[export]\nformat = \"edl\"\n", "export.format"},
		{"bad export mode", "[export]\nmode = \"dry\"\n", "export.mode"},
		{"bad poll interval", "[workflow]\nqueue_poll_interval = -1\n", "queue_poll_interval"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample config not found after CreateSample")
	}
	if cfg.Export.Format != config.Default().Export.Format {
		t.Fatalf("sample diverges from defaults: %+v", cfg.Export)
	}
}

func TestExpandPathTilde(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	got, err := config.ExpandPath("~/media/session.json")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(tempHome, "media", "session.json") {
		t.Fatalf("expanded = %q", got)
	}
}
