package normalizing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"seen/internal/config"
	"seen/internal/frames"
	"seen/internal/logging"
	"seen/internal/queue"
	"seen/internal/services"
	"seen/internal/stage"
)

// NormalizedFileName is the transcoded upload inside a job directory.
const NormalizedFileName = "normalized.mp4"

const stageName = "normalizer"

// Normalizer re-encodes uploads with ffmpeg.
type Normalizer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewNormalizer constructs the normalization stage handler.
func NewNormalizer(cfg *config.Config, logger *slog.Logger) *Normalizer {
	n := &Normalizer{cfg: cfg}
	n.SetLogger(logger)
	return n
}

// SetLogger updates the normalizer's logging destination while preserving component labeling.
func (n *Normalizer) SetLogger(logger *slog.Logger) {
	n.logger = logging.NewComponentLogger(logger, stageName)
}

func (n *Normalizer) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Normalizing", "Transcoding upload")
	logging.WithContext(ctx, n.logger).Debug("starting normalization preparation")
	return nil
}

func (n *Normalizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, n.logger)
	start := time.Now()

	source := strings.TrimSpace(item.SourcePath)
	if source == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate inputs", "Job has no uploaded file", nil)
	}
	if _, err := os.Stat(source); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, stageName, "stat upload", "Uploaded file is missing", err)
		}
		return services.Wrap(services.ErrTransient, stageName, "stat upload", "Uploaded file is unreadable", err)
	}

	workDir := item.WorkDir(n.cfg.Paths.StorageDir)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "create job directory", "Storage directory is not writable", err)
	}
	output := filepath.Join(workDir, NormalizedFileName)

	args := Args(source, output, n.cfg.Redaction.OutputCRF)
	logger.Info("launching ffmpeg normalization",
		logging.String("command", n.cfg.FFmpeg.FFmpegBinary+" "+strings.Join(args, " ")),
		logging.String("input", source),
	)
	cmd := exec.CommandContext(ctx, n.cfg.FFmpeg.FFmpegBinary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, stageName, "transcode", lastLine(out), err)
	}

	info, err := frames.Probe(ctx, n.cfg.FFmpeg.FFprobeBinary, output)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "probe", "Normalized file has no usable video stream", err)
	}

	item.NormalizedFile = output
	item.Width = info.Width
	item.Height = info.Height
	item.FrameRate = info.FrameRate
	item.FrameCount = info.FrameCount
	item.SetProgressComplete("Normalized", fmt.Sprintf("%dx%d at %.2f fps", info.Width, info.Height, info.FrameRate))

	logger.Info("normalization completed",
		logging.String(logging.FieldEventType, "normalize_complete"),
		logging.String("output", output),
		logging.Int("width", info.Width),
		logging.Int("height", info.Height),
		logging.Float64("frame_rate", info.FrameRate),
		logging.Int("frame_count", info.FrameCount),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (n *Normalizer) HealthCheck(ctx context.Context) stage.Health {
	if n.cfg == nil {
		return stage.Unhealthy(stageName, "configuration unavailable")
	}
	if strings.TrimSpace(n.cfg.Paths.StorageDir) == "" {
		return stage.Unhealthy(stageName, "storage directory not configured")
	}
	for _, binary := range []string{n.cfg.FFmpeg.FFmpegBinary, n.cfg.FFmpeg.FFprobeBinary} {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy(stageName, fmt.Sprintf("binary %q not found", binary))
		}
	}
	return stage.Healthy(stageName)
}

// Args builds the ffmpeg arguments that transcode source to an H.264 MP4 at
// output. The first audio stream is kept when present.
func Args(source, output string, crf int) []string {
	if crf <= 0 {
		crf = 18
	}
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", source,
		"-map", "0:v:0", "-map", "0:a:0?",
		"-c:v", "libx264", "-preset", "veryfast", "-crf", strconv.Itoa(crf),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "+faststart",
		output,
	}
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if msg := strings.TrimSpace(lines[len(lines)-1]); msg != "" {
		return "ffmpeg: " + msg
	}
	return "ffmpeg failed"
}
