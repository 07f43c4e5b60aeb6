package frames

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"seen/internal/media/ffprobe"
)

// FFmpegOptions configures the ffmpeg-backed source and sink.
type FFmpegOptions struct {
	FFmpegBinary  string
	FFprobeBinary string
	// Codec and CRF apply to the sink; defaults are libx264 and 18.
	Codec string
	CRF   int
	// AudioFrom, when set, muxes the audio of this file into the sink output.
	AudioFrom string
}

func (o FFmpegOptions) ffmpeg() string {
	if b := strings.TrimSpace(o.FFmpegBinary); b != "" {
		return b
	}
	return "ffmpeg"
}

// Probe reads stream info for path with ffprobe.
func Probe(ctx context.Context, ffprobeBinary, path string) (StreamInfo, error) {
	result, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return StreamInfo{}, err
	}
	video, err := result.PrimaryVideo()
	if err != nil {
		return StreamInfo{}, fmt.Errorf("probe %s: %w", path, err)
	}
	info := StreamInfo{
		Width:      video.Width,
		Height:     video.Height,
		FrameRate:  video.FrameRate(),
		FrameCount: video.FrameCount(),
	}
	if err := info.Validate(); err != nil {
		return StreamInfo{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return info, nil
}

// FFmpegSource decodes a video file to RGBA frames through an ffmpeg pipe.
// The returned frame buffer is reused between calls to Next.
type FFmpegSource struct {
	info   StreamInfo
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer
	frame  *image.NRGBA
	done   bool
	closed bool
}

// OpenFFmpegSource probes path and starts the decoder.
func OpenFFmpegSource(ctx context.Context, path string, opts FFmpegOptions) (*FFmpegSource, error) {
	info, err := Probe(ctx, opts.FFprobeBinary, path)
	if err != nil {
		return nil, err
	}

	// The decoder is not bound to ctx: cancellation stops the pipeline at a
	// frame boundary and Close reaps the process.
	cmd := exec.Command(opts.ffmpeg(), //nolint:gosec
		"-v", "error", "-nostdin",
		"-i", path,
		"-map", "0:v:0",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := newTailBuffer(4096)
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start decoder: %w", err)
	}
	return &FFmpegSource{
		info:   info,
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		frame:  image.NewNRGBA(info.Bounds()),
	}, nil
}

// Info implements Source.
func (s *FFmpegSource) Info() StreamInfo {
	return s.info
}

// Next implements Source.
func (s *FFmpegSource) Next(ctx context.Context) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done || s.closed {
		return nil, ErrExhausted
	}
	_, err := io.ReadFull(s.stdout, s.frame.Pix)
	switch {
	case err == nil:
		return s.frame, nil
	case errors.Is(err, io.EOF):
		s.done = true
		if waitErr := s.wait(); waitErr != nil {
			return nil, waitErr
		}
		return nil, ErrExhausted
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
		_ = s.wait()
		return nil, fmt.Errorf("decoder: truncated frame: %s", s.stderr.String())
	default:
		return nil, fmt.Errorf("decoder read: %w", err)
	}
}

func (s *FFmpegSource) wait() error {
	if s.cmd == nil {
		return nil
	}
	cmd := s.cmd
	s.cmd = nil
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("decoder: %w: %s", err, s.stderr.String())
	}
	return nil
}

// Close stops the decoder. Closing before the stream is exhausted kills the
// process and its exit status is ignored.
func (s *FFmpegSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cmd == nil {
		return nil
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.stdout.Close()
	_ = s.cmd.Wait()
	s.cmd = nil
	return nil
}

// FFmpegSink encodes RGBA frames to a video file through an ffmpeg pipe.
type FFmpegSink struct {
	info   StreamInfo
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer
	closed bool
}

// CreateFFmpegSink starts an encoder writing to path.
func CreateFFmpegSink(path string, info StreamInfo, opts FFmpegOptions) (*FFmpegSink, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	cmd := exec.Command(opts.ffmpeg(), sinkArgs(path, info, opts)...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stderr := newTailBuffer(4096)
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start encoder: %w", err)
	}
	return &FFmpegSink{info: info, cmd: cmd, stdin: stdin, stderr: stderr}, nil
}

func sinkArgs(path string, info StreamInfo, opts FFmpegOptions) []string {
	codec := strings.TrimSpace(opts.Codec)
	if codec == "" {
		codec = "libx264"
	}
	crf := opts.CRF
	if crf <= 0 {
		crf = 18
	}
	args := []string{
		"-v", "error", "-y",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"-r", strconv.FormatFloat(info.FrameRate, 'f', -1, 64),
		"-i", "-",
	}
	if audio := strings.TrimSpace(opts.AudioFrom); audio != "" {
		args = append(args, "-i", audio, "-map", "0:v:0", "-map", "1:a?", "-c:a", "copy", "-shortest")
	}
	args = append(args,
		"-c:v", codec,
		"-crf", strconv.Itoa(crf),
		"-pix_fmt", "yuv420p",
		path,
	)
	return args
}

// Write implements Sink.
func (s *FFmpegSink) Write(frame *image.NRGBA) error {
	if s.closed {
		return errors.New("encoder: write after close")
	}
	b := frame.Bounds()
	if b.Dx() != s.info.Width || b.Dy() != s.info.Height {
		return fmt.Errorf("encoder: frame is %dx%d, stream is %dx%d", b.Dx(), b.Dy(), s.info.Width, s.info.Height)
	}
	rowBytes := b.Dx() * 4
	if frame.Stride == rowBytes {
		if _, err := s.stdin.Write(frame.Pix[:rowBytes*b.Dy()]); err != nil {
			return fmt.Errorf("encoder write: %w", err)
		}
		return nil
	}
	for y := 0; y < b.Dy(); y++ {
		offset := y * frame.Stride
		if _, err := s.stdin.Write(frame.Pix[offset : offset+rowBytes]); err != nil {
			return fmt.Errorf("encoder write: %w", err)
		}
	}
	return nil
}

// Close flushes the encoder and waits for it to finish the file.
func (s *FFmpegSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	closeErr := s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("encoder: %w: %s", err, s.stderr.String())
	}
	if closeErr != nil {
		return fmt.Errorf("encoder close: %w", closeErr)
	}
	return nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
