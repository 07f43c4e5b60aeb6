package sampling

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"seen/internal/frames"
)

// SampleEvery returns the decimation step for a stream at fps sampled at hz
// frames per second. The step is at least 1; non-positive inputs sample every
// frame.
func SampleEvery(fps, hz float64) int {
	if fps <= 0 || hz <= 0 {
		return 1
	}
	return max(1, int(fps/hz))
}

// FrameName returns the workbench file name for a frame index.
func FrameName(index int) string {
	return strconv.Itoa(index) + ".jpg"
}

// Options controls Extract.
type Options struct {
	Dir      string
	SampleHz float64
	// MaxWidth and MaxHeight bound the saved frames; larger frames are
	// scaled down preserving aspect ratio. Zero disables scaling.
	MaxWidth  int
	MaxHeight int
	Quality   int
	// Progress is called after each saved frame with the frame index and
	// the stream's frame count (0 when unknown).
	Progress func(index, total int)
}

// Result summarizes an extraction.
type Result struct {
	Every   int
	Total   int
	Indices []int
}

// Extract reads src to the end and writes every sampled frame into opts.Dir.
// The caller owns src and closes it.
func Extract(ctx context.Context, src frames.Source, opts Options) (Result, error) {
	info := src.Info()
	res := Result{Every: SampleEvery(info.FrameRate, opts.SampleHz)}
	if strings.TrimSpace(opts.Dir) == "" {
		return res, errors.New("sampling: output directory not set")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return res, fmt.Errorf("create frames dir: %w", err)
	}

	for index := 0; ; index++ {
		frame, err := src.Next(ctx)
		if errors.Is(err, frames.ErrExhausted) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("read frame %d: %w", index, err)
		}
		res.Total++
		if index%res.Every != 0 {
			continue
		}
		if err := save(filepath.Join(opts.Dir, FrameName(index)), frame, opts); err != nil {
			return res, err
		}
		res.Indices = append(res.Indices, index)
		if opts.Progress != nil {
			opts.Progress(index, info.FrameCount)
		}
	}
}

func save(path string, frame image.Image, opts Options) error {
	img := frame
	if opts.MaxWidth > 0 && opts.MaxHeight > 0 {
		img = imaging.Fit(frame, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)
	}
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("save frame %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Frame is one saved workbench image.
type Frame struct {
	Index int
	Data  []byte
}

// LoadWorkbench reads the sampled frames in dir ordered by frame index.
// Files that do not follow the "<index>.jpg" naming are ignored.
func LoadWorkbench(dir string) ([]Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}
	out := make([]Frame, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stem, ok := strings.CutSuffix(entry.Name(), ".jpg")
		if !ok {
			continue
		}
		index, err := strconv.Atoi(stem)
		if err != nil || index < 0 {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read frame %d: %w", index, err)
		}
		out = append(out, Frame{Index: index, Data: data})
	}
	slices.SortFunc(out, func(a, b Frame) int { return a.Index - b.Index })
	return out, nil
}
