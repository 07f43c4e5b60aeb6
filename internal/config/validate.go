package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.StorageDir == "" {
		return errors.New("paths.storage_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if err := c.validateRedaction(); err != nil {
		return err
	}
	if err := c.validateSampling(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Upload.MaxMiB <= 0 {
		return errors.New("upload.max_mib must be positive")
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateRedaction() error {
	if c.Redaction.GuidedRadius <= 0 {
		return errors.New("redaction.guided_radius must be positive")
	}
	if c.Redaction.AutoRadius <= 0 {
		return errors.New("redaction.auto_radius must be positive")
	}
	if c.Redaction.GuidedSigma < 0 {
		return errors.New("redaction.guided_sigma must be >= 0")
	}
	if c.Redaction.AutoSigma < 0 {
		return errors.New("redaction.auto_sigma must be >= 0")
	}
	if c.Redaction.OutputCRF < 0 || c.Redaction.OutputCRF > 51 {
		return errors.New("redaction.output_crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateSampling() error {
	if c.Sampling.SampleHz <= 0 {
		return errors.New("sampling.sample_hz must be positive")
	}
	if c.Sampling.WorkbenchWidth <= 0 || c.Sampling.WorkbenchHeight <= 0 {
		return errors.New("sampling.workbench_width and sampling.workbench_height must be positive")
	}
	if c.Sampling.JPEGQuality < 1 || c.Sampling.JPEGQuality > 100 {
		return errors.New("sampling.jpeg_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.heartbeat_interval":   c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":    c.Workflow.HeartbeatTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
