package ffprobe

import (
	"errors"
	"math"
	"testing"
)

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "mjpeg", "codec_type": "video", "width": 300, "height": 300, "r_frame_rate": "0/0"},
    {"index": 1, "codec_name": "h264", "codec_type": "video", "pix_fmt": "yuv420p", "width": 1280, "height": 720,
     "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001", "nb_frames": "1798"},
    {"index": 2, "codec_name": "aac", "codec_type": "audio"}
  ],
  "format": {"filename": "in.mov", "nb_streams": 3, "duration": "60.0", "size": "1000", "bit_rate": "32000"}
}`

func TestParsePrimaryVideo(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected cover art to be ignored, got %d video streams", result.VideoStreamCount())
	}
	video, err := result.PrimaryVideo()
	if err != nil {
		t.Fatalf("PrimaryVideo: %v", err)
	}
	if video.Width != 1280 || video.Height != 720 {
		t.Fatalf("unexpected dimensions %dx%d", video.Width, video.Height)
	}
	if math.Abs(video.FrameRate()-29.97) > 0.01 {
		t.Fatalf("unexpected frame rate %v", video.FrameRate())
	}
	if video.FrameCount() != 1798 {
		t.Fatalf("unexpected frame count %d", video.FrameCount())
	}
	if result.DurationSeconds() != 60 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
	if len(result.RawJSON()) == 0 {
		t.Fatal("expected raw JSON to be retained")
	}
}

func TestPrimaryVideoMissing(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}}
	if _, err := result.PrimaryVideo(); !errors.Is(err, ErrNoVideoStream) {
		t.Fatalf("expected ErrNoVideoStream, got %v", err)
	}
}

func TestFrameRateParsing(t *testing.T) {
	tests := []struct {
		name   string
		stream Stream
		want   float64
	}{
		{name: "rational", stream: Stream{RFrameRate: "25/1"}, want: 25},
		{name: "decimal", stream: Stream{RFrameRate: "24"}, want: 24},
		{name: "zero denominator falls back", stream: Stream{RFrameRate: "0/0", AvgFrameRate: "50/2"}, want: 25},
		{name: "garbage", stream: Stream{RFrameRate: "fast"}, want: 0},
		{name: "empty", stream: Stream{}, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.stream.FrameRate(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if (Stream{NBFrames: "N/A"}).FrameCount() != 0 {
		t.Fatal("expected unknown frame count to be 0")
	}
}
