package sampling

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"seen/internal/config"
	"seen/internal/frames"
	"seen/internal/logging"
	"seen/internal/metrics"
	"seen/internal/queue"
	"seen/internal/services"
	"seen/internal/stage"
)

// FramesDirName is the workbench directory inside a job directory.
const FramesDirName = "frames"

const stageName = "sampler"

// Sampler writes workbench frames for normalized jobs.
type Sampler struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
}

// NewSampler constructs the sampling stage handler.
func NewSampler(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Sampler {
	s := &Sampler{store: store, cfg: cfg}
	s.SetLogger(logger)
	return s
}

// SetLogger updates the sampler's logging destination while preserving component labeling.
func (s *Sampler) SetLogger(logger *slog.Logger) {
	s.logger = logging.NewComponentLogger(logger, stageName)
}

func (s *Sampler) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Sampling", "Extracting workbench frames")
	if item.SampleHz <= 0 {
		item.SampleHz = s.cfg.Sampling.SampleHz
	}
	logging.WithContext(ctx, s.logger).Debug("starting sampling preparation",
		logging.Float64("sample_hz", item.SampleHz))
	return nil
}

func (s *Sampler) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	start := time.Now()

	if strings.TrimSpace(item.NormalizedFile) == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate inputs",
			"No normalized file available; ensure the normalizer completed", nil)
	}
	dir := filepath.Join(item.WorkDir(s.cfg.Paths.StorageDir), FramesDirName)
	if err := os.RemoveAll(dir); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "reset frames dir", "Storage directory is not writable", err)
	}

	src, err := frames.OpenFFmpegSource(ctx, item.NormalizedFile, frames.FFmpegOptions{
		FFmpegBinary:  s.cfg.FFmpeg.FFmpegBinary,
		FFprobeBinary: s.cfg.FFmpeg.FFprobeBinary,
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "open decoder", "Could not decode the normalized file", err)
	}
	defer src.Close()

	sampler := logging.NewProgressSampler(10)
	res, err := Extract(ctx, src, Options{
		Dir:       dir,
		SampleHz:  item.SampleHz,
		MaxWidth:  s.cfg.Sampling.WorkbenchWidth,
		MaxHeight: s.cfg.Sampling.WorkbenchHeight,
		Quality:   s.cfg.Sampling.JPEGQuality,
		Progress: func(index, total int) {
			if total <= 0 {
				return
			}
			percent := min(100, float64(index+1)/float64(total)*100)
			if !sampler.ShouldLog(percent, "Sampling") {
				return
			}
			item.SetProgress("Sampling", fmt.Sprintf("Frame %d of %d", index+1, total), percent)
			if err := s.store.UpdateProgress(ctx, item); err != nil {
				logger.Debug("failed to persist sampling progress", logging.Error(err))
			}
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrExternalTool, stageName, "extract frames", "Decoding failed while sampling", err)
	}
	if len(res.Indices) == 0 {
		return services.Wrap(services.ErrValidation, stageName, "extract frames", "Video contains no frames", nil)
	}

	item.FramesDir = dir
	item.SampleEvery = res.Every
	item.SampledFrames = len(res.Indices)
	if item.FrameCount <= 0 {
		item.FrameCount = res.Total
	}
	item.SetProgressComplete("Awaiting Annotation", fmt.Sprintf("%d frames ready for annotation", len(res.Indices)))
	metrics.FramesSampledTotal.Add(float64(len(res.Indices)))

	logger.Info("sampling completed",
		logging.String(logging.FieldEventType, "sample_complete"),
		logging.String("frames_dir", dir),
		logging.Int("sample_every", res.Every),
		logging.Int("sampled_frames", len(res.Indices)),
		logging.Int("total_frames", res.Total),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (s *Sampler) HealthCheck(ctx context.Context) stage.Health {
	if s.cfg == nil {
		return stage.Unhealthy(stageName, "configuration unavailable")
	}
	if s.cfg.Sampling.SampleHz <= 0 {
		return stage.Unhealthy(stageName, "sample_hz must be positive")
	}
	if s.store == nil {
		return stage.Unhealthy(stageName, "queue store unavailable")
	}
	return stage.Healthy(stageName)
}
