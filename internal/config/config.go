package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ProjectsDir string `toml:"projects_dir"`
	ExportDir   string `toml:"export_dir"`
	LogDir      string `toml:"log_dir"`
	QueuePath   string `toml:"queue_path"`
}

// FFmpeg contains subprocess binary configuration.
type FFmpeg struct {
	Binary        string `toml:"binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Silence contains silence detection and combination settings.
type Silence struct {
	// ThresholdDB is the silencedetect noise floor. Zero means derive it
	// from measured volume and the tempo preset.
	ThresholdDB   float64 `toml:"threshold_db"`
	Tempo         string  `toml:"tempo"`
	MinDurationMS int64   `toml:"min_duration_ms"`
	PaddingMS     int64   `toml:"padding_ms"`
	Mode          string  `toml:"mode"`
	SRTMinGapMS   int64   `toml:"srt_min_gap_ms"`
}

// LLM contains shared LLM connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Analysis contains AI analysis provider settings.
type Analysis struct {
	DecisionMaker          string   `toml:"decision_maker"`
	ProviderTimeoutSeconds int      `toml:"provider_timeout_seconds"`
	CLIBinary              string   `toml:"cli_binary"`
	CLIArgs                []string `toml:"cli_args"`
}

// Export contains timeline export settings.
type Export struct {
	Format string `toml:"format"`
	Mode   string `toml:"mode"`
}

// Evaluation contains timeline comparison settings.
type Evaluation struct {
	OverlapThresholdMS int64 `toml:"overlap_threshold_ms"`
}

// Workflow contains daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values.
//
// Configuration sections by subsystem:
//   - Paths: project store, export output, logs, queue database
//   - FFmpeg: subprocess binaries
//   - Silence: detection threshold, tempo preset, combination mode
//   - LLM: shared connection settings for API-backed providers
//   - Analysis: provider selection, decision maker, timeouts
//   - Export: output format and cut/review mode
//   - Evaluation: cut matching threshold
//   - Workflow: daemon polling intervals
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	FFmpeg     FFmpeg     `toml:"ffmpeg"`
	Silence    Silence    `toml:"silence"`
	LLM        LLM        `toml:"llm"`
	Analysis   Analysis   `toml:"analysis"`
	Export     Export     `toml:"export"`
	Evaluation Evaluation `toml:"evaluation"`
	Workflow   Workflow   `toml:"workflow"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/avid/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The bool reports
// whether a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("avid.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.ProjectsDir,
		c.Paths.ExportDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.QueuePath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
