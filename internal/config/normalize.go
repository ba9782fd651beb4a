package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeSilence()
	c.normalizeLLM()
	c.normalizeAnalysis()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ProjectsDir, err = expandPath(c.Paths.ProjectsDir); err != nil {
		return fmt.Errorf("paths.projects_dir: %w", err)
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.QueuePath) == "" {
		c.Paths.QueuePath = defaultQueuePath
	}
	if c.Paths.QueuePath, err = expandPath(c.Paths.QueuePath); err != nil {
		return fmt.Errorf("paths.queue_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeSilence() {
	c.Silence.Tempo = strings.ToLower(strings.TrimSpace(c.Silence.Tempo))
	if c.Silence.Tempo == "" {
		c.Silence.Tempo = defaultSilenceTempo
	}
	c.Silence.Mode = strings.ToLower(strings.TrimSpace(c.Silence.Mode))
	if c.Silence.Mode == "" {
		c.Silence.Mode = defaultSilenceMode
	}
	if c.Silence.MinDurationMS <= 0 {
		c.Silence.MinDurationMS = defaultSilenceMinDuration
	}
	if c.Silence.PaddingMS < 0 {
		c.Silence.PaddingMS = 0
	}
	if c.Silence.SRTMinGapMS <= 0 {
		c.Silence.SRTMinGapMS = defaultSRTMinGap
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("AVID_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeAnalysis() {
	c.Analysis.DecisionMaker = strings.TrimSpace(c.Analysis.DecisionMaker)
	if c.Analysis.DecisionMaker == "" {
		c.Analysis.DecisionMaker = defaultDecisionMaker
	}
	if c.Analysis.ProviderTimeoutSeconds <= 0 {
		c.Analysis.ProviderTimeoutSeconds = defaultProviderTimeout
	}
	c.Analysis.CLIBinary = strings.TrimSpace(c.Analysis.CLIBinary)
}

func (c *Config) normalizeExport() {
	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	if c.Export.Format == "" {
		c.Export.Format = defaultExportFormat
	}
	c.Export.Mode = strings.ToLower(strings.TrimSpace(c.Export.Mode))
	if c.Export.Mode == "" {
		c.Export.Mode = defaultExportMode
	}
	if c.Evaluation.OverlapThresholdMS <= 0 {
		c.Evaluation.OverlapThresholdMS = defaultOverlapThreshold
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
