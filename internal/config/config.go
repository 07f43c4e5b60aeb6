package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvPrefix is prepended to every environment override name.
const EnvPrefix = "SEEN_"

// Paths contains directory and bind address configuration.
type Paths struct {
	StorageDir string `toml:"storage_dir" env:"STORAGE_DIR"`
	LogDir     string `toml:"log_dir" env:"LOG_DIR"`
	APIBind    string `toml:"api_bind" env:"API_BIND"`
	// APIToken, when set, must be presented as a bearer token on every API
	// request except /metrics.
	APIToken string `toml:"api_token" env:"API_TOKEN"`
}

// Redaction contains blur kernel and output encoder settings.
type Redaction struct {
	GuidedRadius int     `toml:"guided_radius" env:"GUIDED_RADIUS"`
	GuidedSigma  float64 `toml:"guided_sigma" env:"GUIDED_SIGMA"`
	AutoRadius   int     `toml:"auto_radius" env:"AUTO_RADIUS"`
	AutoSigma    float64 `toml:"auto_sigma" env:"AUTO_SIGMA"`
	OutputCodec  string  `toml:"output_codec" env:"OUTPUT_CODEC"`
	OutputCRF    int     `toml:"output_crf" env:"OUTPUT_CRF"`
	KeepAudio    bool    `toml:"keep_audio" env:"KEEP_AUDIO"`
	// CascadePath points at an OpenCV Haar cascade used for automatic face
	// redaction. Empty disables auto mode.
	CascadePath string `toml:"cascade_path" env:"CASCADE_PATH"`
}

// Sampling contains settings for the annotation workbench frames.
type Sampling struct {
	SampleHz        float64 `toml:"sample_hz" env:"SAMPLE_HZ"`
	WorkbenchWidth  int     `toml:"workbench_width" env:"WORKBENCH_WIDTH"`
	WorkbenchHeight int     `toml:"workbench_height" env:"WORKBENCH_HEIGHT"`
	JPEGQuality     int     `toml:"jpeg_quality" env:"JPEG_QUALITY"`
}

// Upload contains limits for the HTTP upload endpoint.
type Upload struct {
	MaxMiB int `toml:"max_mib" env:"MAX_MIB"`
}

// Workflow contains configuration for daemon timing and intervals, in seconds.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval" env:"QUEUE_POLL_INTERVAL"`
	ErrorRetryInterval int `toml:"error_retry_interval" env:"ERROR_RETRY_INTERVAL"`
	HeartbeatInterval  int `toml:"heartbeat_interval" env:"HEARTBEAT_INTERVAL"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout" env:"HEARTBEAT_TIMEOUT"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic" env:"NTFY_TOPIC"`
	RequestTimeout int    `toml:"request_timeout" env:"REQUEST_TIMEOUT"`
	JobCompleted   bool   `toml:"job_completed" env:"JOB_COMPLETED"`
	JobFailed      bool   `toml:"job_failed" env:"JOB_FAILED"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format" env:"FORMAT"`
	Level         string `toml:"level" env:"LEVEL"`
	RetentionDays int    `toml:"retention_days" env:"RETENTION_DAYS"`
}

// FFmpeg names the external media binaries.
type FFmpeg struct {
	FFmpegBinary  string `toml:"ffmpeg_binary" env:"BINARY"`
	FFprobeBinary string `toml:"ffprobe_binary" env:"PROBE_BINARY"`
}

// Config encapsulates all configuration values for seen.
//
// Configuration sections by subsystem:
//   - Paths: job storage, logs, and API bind address
//   - Redaction: blur kernels, output codec, face cascade
//   - Sampling: workbench frame rate and size
//   - Upload: request size limits
//   - Workflow: daemon polling intervals and timeouts
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
//   - FFmpeg: decoder/encoder binaries
type Config struct {
	Paths         Paths         `toml:"paths" envPrefix:"PATHS_"`
	Redaction     Redaction     `toml:"redaction" envPrefix:"REDACTION_"`
	Sampling      Sampling      `toml:"sampling" envPrefix:"SAMPLING_"`
	Upload        Upload        `toml:"upload" envPrefix:"UPLOAD_"`
	Workflow      Workflow      `toml:"workflow" envPrefix:"WORKFLOW_"`
	Notifications Notifications `toml:"notifications" envPrefix:"NOTIFICATIONS_"`
	Logging       Logging       `toml:"logging" envPrefix:"LOG_"`
	FFmpeg        FFmpeg        `toml:"ffmpeg" envPrefix:"FFMPEG_"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/seen/config.toml")
}

// Load locates, parses, and validates a configuration file. Environment
// overrides are applied after the file. The returned config has all path
// fields expanded and normalized.
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
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
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

	projectPath, err := filepath.Abs("seen.toml")
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
	for _, dir := range []string{c.Paths.StorageDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath returns the SQLite job database location.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StorageDir, "queue.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StorageDir, "seend.lock")
}

// JobDir returns the working directory for a job's files.
func (c *Config) JobDir(publicID string) string {
	return filepath.Join(c.Paths.StorageDir, publicID)
}

// UploadLimitBytes returns the maximum accepted upload size.
func (c *Config) UploadLimitBytes() int64 {
	return int64(c.Upload.MaxMiB) << 20
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

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
