package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSilence(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSilence() error {
	switch c.Silence.Tempo {
	case "tight", "normal", "relaxed":
	default:
		return fmt.Errorf("silence.tempo must be tight, normal, or relaxed, got %q", c.Silence.Tempo)
	}
	switch c.Silence.Mode {
	case "union", "intersection", "ffmpeg_only", "srt_only", "diff":
	default:
		return fmt.Errorf("silence.mode must be union, intersection, ffmpeg_only, srt_only, or diff, got %q", c.Silence.Mode)
	}
	if c.Silence.ThresholdDB > 0 {
		return errors.New("silence.threshold_db must be negative (dBFS) or zero for automatic")
	}
	return nil
}

func (c *Config) validateExport() error {
	switch c.Export.Format {
	case "fcpxml", "premiere":
	default:
		return fmt.Errorf("export.format must be fcpxml or premiere, got %q", c.Export.Format)
	}
	switch c.Export.Mode {
	case "cut", "review":
	default:
		return fmt.Errorf("export.mode must be cut or review, got %q", c.Export.Mode)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	return nil
}
