package daemon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"seen/internal/config"
	"seen/internal/detect"
	"seen/internal/fileutil"
	"seen/internal/guide"
	"seen/internal/logging"
	"seen/internal/logs"
	"seen/internal/metrics"
	"seen/internal/queue"
	"seen/internal/redacting"
	"seen/internal/sampling"
	"seen/internal/services"
	"seen/internal/textutil"
	"seen/internal/workflow"
)

// UploadBaseName is the stored name of an uploaded video inside its job
// directory, before the original extension.
const UploadBaseName = "upload"

// LocalClientAddr marks jobs enqueued from the command line. Their output
// can be downloaded from any address.
const LocalClientAddr = ""

var (
	// ErrForbidden is returned when a client other than the uploader asks
	// for a job's output.
	ErrForbidden = errors.New("output is only available to the uploading client")
	// ErrNotReady is returned when a job has not produced the requested
	// artefact yet.
	ErrNotReady = errors.New("job is not ready")
	// ErrAutoUnavailable is returned when automatic redaction is requested
	// but no face detector can be built.
	ErrAutoUnavailable = errors.New("automatic redaction is unavailable")
)

// Enqueue stores the video read from r in a fresh job directory and inserts
// a pending job for it.
func Enqueue(ctx context.Context, cfg *config.Config, store *queue.Store, name, clientAddr string, r io.Reader) (*queue.Item, error) {
	return enqueue(ctx, cfg, store, name, clientAddr, func(dst string) (fileutil.Written, error) {
		return fileutil.SaveStream(dst, r)
	})
}

// EnqueueFile copies a local video into a fresh job directory and inserts a
// pending job for it.
func EnqueueFile(ctx context.Context, cfg *config.Config, store *queue.Store, path string) (*queue.Item, error) {
	abs, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	return enqueue(ctx, cfg, store, filepath.Base(abs), LocalClientAddr, func(dst string) (fileutil.Written, error) {
		return fileutil.CopyFileVerified(abs, dst)
	})
}

func enqueue(ctx context.Context, cfg *config.Config, store *queue.Store, name, clientAddr string, save func(dst string) (fileutil.Written, error)) (*queue.Item, error) {
	name = textutil.SanitizeFileName(name, "upload.mp4")
	publicID := uuid.NewString()
	dir := cfg.JobDir(publicID)
	dst := filepath.Join(dir, UploadBaseName+strings.ToLower(filepath.Ext(name)))

	written, err := save(dst)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if written.Bytes == 0 {
		_ = os.RemoveAll(dir)
		return nil, services.Wrap(services.ErrValidation, "upload", "store upload", "Uploaded file is empty", nil)
	}

	item, err := store.NewUpload(ctx, queue.Upload{
		PublicID:   publicID,
		SourceName: name,
		SourcePath: written.Path,
		ClientAddr: clientAddr,
		SampleHz:   cfg.Sampling.SampleHz,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	metrics.UploadsTotal.Inc()
	return item, nil
}

// Upload accepts a video from an HTTP client.
func (d *Daemon) Upload(ctx context.Context, name, clientAddr string, r io.Reader) (*queue.Item, error) {
	item, err := Enqueue(ctx, d.cfg, d.store, name, clientAddr, r)
	if err != nil {
		return nil, err
	}
	logging.WithContext(ctx, d.logger).Info("upload queued",
		logging.String(logging.FieldEventType, "upload_queued"),
		logging.Int64(logging.FieldJobID, item.ID),
		logging.String(logging.FieldPublicID, item.PublicID),
		logging.String("source_name", item.SourceName),
		logging.String("client", clientAddr),
	)
	return item, nil
}

// Job looks up a job by public ID.
func (d *Daemon) Job(ctx context.Context, publicID string) (*queue.Item, error) {
	item, err := d.store.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, queue.ErrNotFound
	}
	return item, nil
}

// Workbench returns a sampled job with its frames in index order.
func (d *Daemon) Workbench(ctx context.Context, publicID string) (*queue.Item, []sampling.Frame, error) {
	item, err := d.Job(ctx, publicID)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(item.FramesDir) == "" || item.Status == queue.StatusSampling {
		return item, nil, fmt.Errorf("%w: workbench frames not sampled yet (status %s)", ErrNotReady, item.Status)
	}
	frames, err := sampling.LoadWorkbench(item.FramesDir)
	if err != nil {
		return item, nil, err
	}
	return item, frames, nil
}

// Annotate validates guide JSON, stores it in canonical form, and queues
// guided redaction.
func (d *Daemon) Annotate(ctx context.Context, publicID string, guideJSON []byte) (*queue.Item, error) {
	set, err := guide.Decode(bytes.NewReader(guideJSON), guide.FormatJSON)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "annotate", "decode guide", "Guide data is invalid", err)
	}
	canonical, err := guide.Encode(set)
	if err != nil {
		return nil, err
	}
	item, err := d.store.Annotate(ctx, publicID, string(canonical), queue.ModeGuided)
	if err != nil {
		return item, err
	}
	logging.WithContext(ctx, d.logger).Info("guide accepted",
		logging.String(logging.FieldEventType, "guide_accepted"),
		logging.Int64(logging.FieldJobID, item.ID),
		logging.String(logging.FieldPublicID, item.PublicID),
		logging.Int("tracks", set.Len()),
		logging.Int("last_keyframe", set.LastFrame()),
	)
	return item, nil
}

// AutoBlur queues detector-driven redaction for a job. It fails with
// ErrAutoUnavailable when no detector can be built, leaving the job as is.
func (d *Daemon) AutoBlur(ctx context.Context, publicID string) (*queue.Item, error) {
	detector, err := d.detectors(d.cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAutoUnavailable, redacting.DetectorUnavailableMessage(err), err)
	}
	_ = detect.Close(detector)

	item, err := d.store.Annotate(ctx, publicID, "", queue.ModeAuto)
	if err != nil {
		return item, err
	}
	logging.WithContext(ctx, d.logger).Info("automatic redaction queued",
		logging.String(logging.FieldEventType, "autoblur_queued"),
		logging.Int64(logging.FieldJobID, item.ID),
		logging.String(logging.FieldPublicID, item.PublicID),
	)
	return item, nil
}

// Download returns a completed job for clientAddr. Only the uploading client
// may fetch an uploaded job's output.
func (d *Daemon) Download(ctx context.Context, publicID, clientAddr string) (*queue.Item, error) {
	item, err := d.Job(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if item.ClientAddr != LocalClientAddr && item.ClientAddr != clientAddr {
		return nil, ErrForbidden
	}
	if item.Status != queue.StatusCompleted || strings.TrimSpace(item.OutputFile) == "" {
		return nil, fmt.Errorf("%w: status %s", ErrNotReady, item.Status)
	}
	return item, nil
}

// maxLogWait caps how long a follow request may hold the connection open.
const maxLogWait = 30 * time.Second

// JobLog reads a job's log file. A negative offset returns the last
// opts.Limit lines; otherwise lines written after the offset.
func (d *Daemon) JobLog(ctx context.Context, publicID string, opts logs.TailOptions) (logs.TailResult, error) {
	item, err := d.Job(ctx, publicID)
	if err != nil {
		return logs.TailResult{}, err
	}
	opts.Wait = min(opts.Wait, maxLogWait)
	return logs.Tail(ctx, workflow.JobLogPath(workflow.JobLogDir(d.cfg), item), opts)
}
