package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"seen/internal/frames"
	"seen/internal/logging"
	"seen/internal/redact"
	"seen/internal/track"
)

// ErrIO marks a fatal failure of a collaborator during the run.
var ErrIO = errors.New("pipeline: i/o failure")

// Result summarizes a run.
type Result struct {
	// Frames is the number of frames written to the sink.
	Frames int
	// Redacted counts frames where at least one region was blurred.
	Redacted int
	// Regions is the total number of blurred regions across all frames.
	Regions  int
	Fatal    bool
	Canceled bool
	Elapsed  time.Duration
}

// Progress is reported after each written frame.
type Progress struct {
	Frame    int
	Total    int
	Redacted int
}

// Percent returns completion in [0, 100], or -1 when the total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	pct := float64(p.Frame) / float64(p.Total) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

type options struct {
	logger   *slog.Logger
	progress func(Progress)
	observer func(redact.FrameReport)
}

// Option customizes Run.
type Option func(*options)

// WithLogger attaches a logger for run summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProgress registers a callback invoked after each written frame.
func WithProgress(fn func(Progress)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithFrameObserver registers a callback that sees every frame report.
func WithFrameObserver(fn func(redact.FrameReport)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// IsFatal reports whether err ended a run abnormally: malformed guide data or
// a collaborator failure. Cancellation is not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var vErr *track.ValidationError
	return errors.Is(err, ErrIO) || errors.As(err, &vErr)
}

// Run redacts every frame of src into sink. Run owns both collaborators and
// closes them before returning.
func Run(ctx context.Context, src frames.Source, sink frames.Sink, proc *redact.Processor, opts ...Option) (Result, error) {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.NewComponentLogger(o.logger, "pipeline")
	started := time.Now()

	var res Result
	runErr := loop(ctx, src, sink, proc, &o, &res)
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		res.Canceled = true
	}

	if err := sink.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("%w: finalize output: %w", ErrIO, err)
	}
	if err := src.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("%w: close input: %w", ErrIO, err)
	}
	res.Fatal = IsFatal(runErr)
	res.Elapsed = time.Since(started)

	attrs := []logging.Attr{
		logging.Int("frames", res.Frames),
		logging.Int("redacted_frames", res.Redacted),
		logging.Int("regions", res.Regions),
		logging.Duration("elapsed", res.Elapsed),
		logging.String("mode", string(proc.Mode())),
	}
	switch {
	case res.Fatal:
		logger.Error("redaction run failed", logging.Args(append(attrs, logging.Error(runErr))...)...)
	case res.Canceled:
		logger.Info("redaction run canceled", logging.Args(attrs...)...)
	default:
		logger.Info("redaction run complete", logging.Args(attrs...)...)
	}
	return res, runErr
}

func loop(ctx context.Context, src frames.Source, sink frames.Sink, proc *redact.Processor, o *options, res *Result) error {
	info := src.Info()
	want := image.Rect(0, 0, info.Width, info.Height)

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := src.Next(ctx)
		if errors.Is(err, frames.ErrExhausted) {
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return ctxErr
			}
			return fmt.Errorf("%w: read frame %d: %w", ErrIO, index, err)
		}
		if !want.Empty() && frame.Bounds().Size() != want.Size() {
			return fmt.Errorf("%w: frame %d is %v, stream is %v", ErrIO, index, frame.Bounds().Size(), want.Size())
		}

		report, err := proc.ProcessFrame(frame, index)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		if err := sink.Write(frame); err != nil {
			return fmt.Errorf("%w: write frame %d: %w", ErrIO, index, err)
		}

		res.Frames++
		res.Regions += report.Regions
		if report.Regions > 0 {
			res.Redacted++
		}
		if o.observer != nil {
			o.observer(report)
		}
		if o.progress != nil {
			o.progress(Progress{Frame: res.Frames, Total: info.FrameCount, Redacted: res.Redacted})
		}
	}
}
