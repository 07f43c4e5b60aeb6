package config

const (
	defaultStorageDir                = "~/.local/share/seen/jobs"
	defaultLogDir                    = "~/.local/share/seen/logs"
	defaultLogRetentionDays          = 30
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultAPIBind                   = "127.0.0.1:7490"
	defaultGuidedRadius              = 50
	defaultGuidedSigma               = 0
	defaultAutoRadius                = 25
	defaultAutoSigma                 = 30
	defaultOutputCodec               = "libx264"
	defaultOutputCRF                 = 18
	defaultSampleHz                  = 1
	defaultWorkbenchWidth            = 1400
	defaultWorkbenchHeight           = 1000
	defaultJPEGQuality               = 85
	defaultMaxUploadMiB              = 2048
	defaultWorkflowPollInterval      = 5
	defaultWorkflowErrorRetry        = 10
	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120
	defaultNotifyRequestTimeout      = 10
	defaultFFmpegBinary              = "ffmpeg"
	defaultFFprobeBinary             = "ffprobe"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Redaction: Redaction{
			GuidedRadius: defaultGuidedRadius,
			GuidedSigma:  defaultGuidedSigma,
			AutoRadius:   defaultAutoRadius,
			AutoSigma:    defaultAutoSigma,
			OutputCodec:  defaultOutputCodec,
			OutputCRF:    defaultOutputCRF,
			KeepAudio:    true,
		},
		Sampling: Sampling{
			SampleHz:        defaultSampleHz,
			WorkbenchWidth:  defaultWorkbenchWidth,
			WorkbenchHeight: defaultWorkbenchHeight,
			JPEGQuality:     defaultJPEGQuality,
		},
		Upload: Upload{
			MaxMiB: defaultMaxUploadMiB,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultWorkflowPollInterval,
			ErrorRetryInterval: defaultWorkflowErrorRetry,
			HeartbeatInterval:  defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:   defaultWorkflowHeartbeatTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			JobCompleted:   true,
			JobFailed:      true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
	}
}
