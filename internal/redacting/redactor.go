package redacting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"seen/internal/config"
	"seen/internal/detect"
	"seen/internal/frames"
	"seen/internal/logging"
	"seen/internal/metrics"
	"seen/internal/pipeline"
	"seen/internal/queue"
	"seen/internal/redact"
	"seen/internal/services"
	"seen/internal/stage"
	"seen/internal/track"
)

const stageName = "redactor"

// DetectorFactory builds the detector used for auto-mode jobs.
type DetectorFactory func(cfg *config.Config) (detect.Detector, error)

// ErrNoCascade is returned by CascadeDetector when no cascade path is set.
var ErrNoCascade = errors.New("redaction.cascade_path is not configured")

// CascadeDetector loads the configured face cascade.
func CascadeDetector(cfg *config.Config) (detect.Detector, error) {
	path := strings.TrimSpace(cfg.Redaction.CascadePath)
	if path == "" {
		return nil, ErrNoCascade
	}
	return detect.NewCascade(path)
}

// DetectorUnavailableMessage describes why a detector could not be built.
func DetectorUnavailableMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoCascade):
		return "Automatic redaction is unavailable; configure redaction.cascade_path"
	case errors.Is(err, detect.ErrUnsupported):
		return "Automatic redaction is unavailable; this build has no face detector (rebuild with -tags gocv)"
	default:
		return "Face cascade could not be loaded; check redaction.cascade_path"
	}
}

// Redactor runs the redaction pipeline for annotated jobs.
type Redactor struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	detector DetectorFactory
}

// Option customizes a Redactor.
type Option func(*Redactor)

// WithDetectorFactory replaces the cascade detector for auto-mode jobs.
func WithDetectorFactory(factory DetectorFactory) Option {
	return func(r *Redactor) {
		if factory != nil {
			r.detector = factory
		}
	}
}

// NewRedactor constructs the redaction stage handler.
func NewRedactor(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...Option) *Redactor {
	r := &Redactor{store: store, cfg: cfg, detector: CascadeDetector}
	for _, opt := range opts {
		opt(r)
	}
	r.SetLogger(logger)
	return r
}

// SetLogger updates the redactor's logging destination while preserving component labeling.
func (r *Redactor) SetLogger(logger *slog.Logger) {
	r.logger = logging.NewComponentLogger(logger, stageName)
}

func (r *Redactor) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Redacting", "Preparing redaction")
	logging.WithContext(ctx, r.logger).Debug("starting redaction preparation",
		logging.String("mode", string(item.Mode)))
	return nil
}

func (r *Redactor) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	start := time.Now()

	if strings.TrimSpace(item.NormalizedFile) == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate inputs",
			"No normalized file available; ensure the normalizer completed", nil)
	}
	if _, err := os.Stat(item.NormalizedFile); err != nil {
		return services.Wrap(services.ErrNotFound, stageName, "stat normalized file", "Normalized file is missing", err)
	}

	kernels, err := r.kernels()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "build kernels", "Blur settings are invalid", err)
	}
	proc, closeDetector, err := r.processor(item, kernels)
	if err != nil {
		return err
	}
	defer closeDetector()

	ffopts := frames.FFmpegOptions{
		FFmpegBinary:  r.cfg.FFmpeg.FFmpegBinary,
		FFprobeBinary: r.cfg.FFmpeg.FFprobeBinary,
		Codec:         r.cfg.Redaction.OutputCodec,
		CRF:           r.cfg.Redaction.OutputCRF,
	}
	if r.cfg.Redaction.KeepAudio {
		ffopts.AudioFrom = item.NormalizedFile
	}

	src, err := frames.OpenFFmpegSource(ctx, item.NormalizedFile, ffopts)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "open decoder", "Could not decode the normalized file", err)
	}
	output := filepath.Join(item.WorkDir(r.cfg.Paths.StorageDir), item.OutputName())
	sink, err := frames.CreateFFmpegSink(output, src.Info(), ffopts)
	if err != nil {
		_ = src.Close()
		return services.Wrap(services.ErrExternalTool, stageName, "open encoder", "Could not start the encoder", err)
	}

	sampler := logging.NewProgressSampler(5)
	res, err := pipeline.Run(ctx, src, sink, proc,
		pipeline.WithLogger(logger),
		pipeline.WithProgress(func(p pipeline.Progress) {
			percent := p.Percent()
			if percent < 0 || !sampler.ShouldLog(percent, "Redacting") {
				return
			}
			item.SetProgress("Redacting", fmt.Sprintf("Frame %d of %d", p.Frame, p.Total), percent)
			if err := r.store.UpdateProgress(ctx, item); err != nil {
				logger.Debug("failed to persist redaction progress", logging.Error(err))
			}
		}),
	)
	metrics.RecordRedaction(string(proc.Mode()), res.Frames, res.Regions)
	if err != nil {
		_ = os.Remove(output)
		return classifyRunError(ctx, err)
	}
	if res.Frames == 0 {
		_ = os.Remove(output)
		return services.Wrap(services.ErrValidation, stageName, "redact", "Video contains no frames", nil)
	}

	item.OutputFile = output
	item.RedactedFrames = res.Redacted
	item.SetProgressComplete("Completed", fmt.Sprintf("%d of %d frames redacted", res.Redacted, res.Frames))

	logger.Info("redaction completed",
		logging.String(logging.FieldEventType, "redact_complete"),
		logging.String("mode", string(proc.Mode())),
		logging.String("output", output),
		logging.Int("frames", res.Frames),
		logging.Int("redacted_frames", res.Redacted),
		logging.Int("regions", res.Regions),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (r *Redactor) kernels() (*redact.Redactor, error) {
	return redact.NewRedactor(
		redact.Kernel{Radius: r.cfg.Redaction.GuidedRadius, Sigma: r.cfg.Redaction.GuidedSigma},
		redact.Kernel{Radius: r.cfg.Redaction.AutoRadius, Sigma: r.cfg.Redaction.AutoSigma},
	)
}

// processor builds the frame processor for the job's mode. The returned
// func releases the detector, if any.
func (r *Redactor) processor(item *queue.Item, kernels *redact.Redactor) (*redact.Processor, func(), error) {
	noop := func() {}
	switch item.Mode {
	case queue.ModeGuided:
		set, err := stage.ParseGuide(item.GuideData)
		if err != nil {
			return nil, noop, err
		}
		proc, err := redact.NewProcessor(&set, nil, redact.WithRedactor(kernels))
		if err != nil {
			return nil, noop, services.Wrap(services.ErrValidation, stageName, "build processor", "Guide data is invalid", err)
		}
		return proc, noop, nil
	case queue.ModeAuto:
		detector, err := r.detector(r.cfg)
		if err != nil {
			return nil, noop, services.Wrap(services.ErrConfiguration, stageName, "load detector",
				DetectorUnavailableMessage(err), err)
		}
		release := func() { _ = detect.Close(detector) }
		proc, err := redact.NewProcessor(nil, detector, redact.WithRedactor(kernels))
		if err != nil {
			release()
			return nil, noop, services.Wrap(services.ErrConfiguration, stageName, "build processor", "Detector is unusable", err)
		}
		return proc, release, nil
	default:
		return nil, noop, services.Wrap(services.ErrValidation, stageName, "validate inputs",
			fmt.Sprintf("Unknown redaction mode %q; resubmit the annotation", item.Mode), nil)
	}
}

func classifyRunError(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return ctx.Err()
	}
	var vErr *track.ValidationError
	switch {
	case errors.As(err, &vErr):
		return services.Wrap(services.ErrValidation, stageName, "redact", "Guide data is invalid", err)
	case errors.Is(err, redact.ErrDetector):
		return services.Wrap(services.ErrExternalTool, stageName, "redact", "Face detector failed", err)
	default:
		return services.Wrap(services.ErrExternalTool, stageName, "redact", "Decoding or encoding failed", err)
	}
}

func (r *Redactor) HealthCheck(ctx context.Context) stage.Health {
	if r.cfg == nil {
		return stage.Unhealthy(stageName, "configuration unavailable")
	}
	if r.store == nil {
		return stage.Unhealthy(stageName, "queue store unavailable")
	}
	if _, err := r.kernels(); err != nil {
		return stage.Unhealthy(stageName, err.Error())
	}
	for _, binary := range []string{r.cfg.FFmpeg.FFmpegBinary, r.cfg.FFmpeg.FFprobeBinary} {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy(stageName, fmt.Sprintf("binary %q not found", binary))
		}
	}
	return stage.Healthy(stageName)
}
