package config

const (
	defaultProjectsDir        = "~/.local/share/avid/projects"
	defaultExportDir          = "~/.local/share/avid/exports"
	defaultLogDir             = "~/.local/share/avid/logs"
	defaultQueuePath          = "~/.local/share/avid/queue.db"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultSilenceTempo       = "normal"
	defaultSilenceMinDuration = 500
	defaultSilencePadding     = 200
	defaultSilenceMode        = "union"
	defaultSRTMinGap          = 1000
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "anthropic/claude-sonnet-4.5"
	defaultLLMTimeoutSeconds  = 120
	defaultDecisionMaker      = "claude"
	defaultProviderTimeout    = 300
	defaultExportFormat       = "fcpxml"
	defaultExportMode         = "cut"
	defaultOverlapThreshold   = 500
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectsDir: defaultProjectsDir,
			ExportDir:   defaultExportDir,
			LogDir:      defaultLogDir,
			QueuePath:   defaultQueuePath,
		},
		FFmpeg: FFmpeg{
			Binary:        defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Silence: Silence{
			Tempo:         defaultSilenceTempo,
			MinDurationMS: defaultSilenceMinDuration,
			PaddingMS:     defaultSilencePadding,
			Mode:          defaultSilenceMode,
			SRTMinGapMS:   defaultSRTMinGap,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Analysis: Analysis{
			DecisionMaker:          defaultDecisionMaker,
			ProviderTimeoutSeconds: defaultProviderTimeout,
		},
		Export: Export{
			Format: defaultExportFormat,
			Mode:   defaultExportMode,
		},
		Evaluation: Evaluation{
			OverlapThresholdMS: defaultOverlapThreshold,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
