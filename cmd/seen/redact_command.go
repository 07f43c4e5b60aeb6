package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"seen/internal/config"
	"seen/internal/detect"
	"seen/internal/frames"
	"seen/internal/guide"
	"seen/internal/logging"
	"seen/internal/pipeline"
	"seen/internal/redact"
)

type redactOptions struct {
	input   string
	output  string
	guide   string
	cascade string
	noAudio bool
}

func newRedactCommand(ctx *commandContext) *cobra.Command {
	var opts redactOptions
	cmd := &cobra.Command{
		Use:   "redact",
		Short: "Blur a video locally using a guide file or face detection",
		Long: `Blur a video locally.

With --guide, the keyframe tracks in the guide (JSON, TOML, or YAML) are
interpolated across frames and each active region is blurred. Without a guide,
faces found by the Haar cascade given with --cascade (or redaction.cascade_path)
are blurred instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			res, err := runRedact(cmd.Context(), cfg, opts, logger)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d frames, %d redacted, %d regions blurred\n",
				opts.output, res.Frames, res.Redacted, res.Regions)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Source video")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Destination video")
	cmd.Flags().StringVarP(&opts.guide, "guide", "g", "", "Guide file with keyframe tracks")
	cmd.Flags().StringVar(&opts.cascade, "cascade", "", "Haar cascade for face detection when no guide is given")
	cmd.Flags().BoolVar(&opts.noAudio, "no-audio", false, "Drop the audio track")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runRedact(ctx context.Context, cfg *config.Config, opts redactOptions, logger *slog.Logger) (pipeline.Result, error) {
	input := strings.TrimSpace(opts.input)
	output := strings.TrimSpace(opts.output)
	if info, err := os.Stat(input); err != nil {
		return pipeline.Result{}, fmt.Errorf("input: %w", err)
	} else if info.IsDir() {
		return pipeline.Result{}, fmt.Errorf("input %s is a directory", input)
	}
	if abs(input) == abs(output) {
		return pipeline.Result{}, errors.New("output must differ from input")
	}

	kernels, err := redact.NewRedactor(
		redact.Kernel{Radius: cfg.Redaction.GuidedRadius, Sigma: cfg.Redaction.GuidedSigma},
		redact.Kernel{Radius: cfg.Redaction.AutoRadius, Sigma: cfg.Redaction.AutoSigma},
	)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("blur settings: %w", err)
	}

	proc, detector, err := buildProcessor(cfg, opts, kernels)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer func() { _ = detect.Close(detector) }()

	ffopts := frames.FFmpegOptions{
		FFmpegBinary:  cfg.FFmpeg.FFmpegBinary,
		FFprobeBinary: cfg.FFmpeg.FFprobeBinary,
		Codec:         cfg.Redaction.OutputCodec,
		CRF:           cfg.Redaction.OutputCRF,
	}
	if cfg.Redaction.KeepAudio && !opts.noAudio {
		ffopts.AudioFrom = input
	}
	src, err := frames.OpenFFmpegSource(ctx, input, ffopts)
	if err != nil {
		return pipeline.Result{}, err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		_ = src.Close()
		return pipeline.Result{}, fmt.Errorf("create output dir: %w", err)
	}
	sink, err := frames.CreateFFmpegSink(output, src.Info(), ffopts)
	if err != nil {
		_ = src.Close()
		return pipeline.Result{}, err
	}

	sampler := logging.NewProgressSampler(10)
	res, err := pipeline.Run(ctx, src, sink, proc,
		pipeline.WithLogger(logger),
		pipeline.WithProgress(func(p pipeline.Progress) {
			if pct := p.Percent(); pct >= 0 && sampler.ShouldLog(pct, "redact") {
				logger.Info("redaction progress",
					logging.Int("frame", p.Frame),
					logging.Int("total", p.Total),
					logging.Float64("percent", pct))
			}
		}),
	)
	if err != nil {
		if res.Fatal {
			_ = os.Remove(output)
		}
		return res, err
	}
	return res, nil
}

// buildProcessor picks guided mode when a guide file is given and auto mode
// otherwise. The returned detector is nil in guided mode.
func buildProcessor(cfg *config.Config, opts redactOptions, kernels *redact.Redactor) (*redact.Processor, detect.Detector, error) {
	if path := strings.TrimSpace(opts.guide); path != "" {
		set, err := guide.Load(path)
		if err != nil {
			return nil, nil, fmt.Errorf("load guide: %w", err)
		}
		proc, err := redact.NewProcessor(&set, nil, redact.WithRedactor(kernels))
		return proc, nil, err
	}

	cascade := strings.TrimSpace(opts.cascade)
	if cascade == "" {
		cascade = strings.TrimSpace(cfg.Redaction.CascadePath)
	}
	if cascade == "" {
		return nil, nil, errors.New("either --guide or --cascade (or redaction.cascade_path) is required")
	}
	detector, err := detect.NewCascade(cascade)
	if err != nil {
		return nil, nil, fmt.Errorf("load cascade: %w", err)
	}
	proc, err := redact.NewProcessor(nil, detector, redact.WithRedactor(kernels))
	if err != nil {
		_ = detector.Close()
		return nil, nil, err
	}
	return proc, detector, nil
}

func abs(path string) string {
	if resolved, err := filepath.Abs(path); err == nil {
		return resolved
	}
	return path
}
