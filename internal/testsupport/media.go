package testsupport

import "fmt"

// ProbeJSON renders ffprobe -show_streams output for a single video stream.
func ProbeJSON(width, height int, frameRate string, frames int) string {
	return fmt.Sprintf(`{"streams":[{"index":0,"codec_name":"h264","codec_type":"video","width":%d,"height":%d,"r_frame_rate":%q,"avg_frame_rate":%q,"nb_frames":"%d"}],"format":{"filename":"stub.mp4","nb_streams":1,"duration":"1.0","format_name":"mov,mp4"}}`,
		width, height, frameRate, frameRate, frames)
}

// WithFakeMedia stubs ffprobe to report the given stream and ffmpeg to write
// a placeholder file at its final argument.
func WithFakeMedia(width, height int, frameRate string, frames int) ConfigOption {
	return func(b *configBuilder) {
		WithScript("ffprobe", fmt.Sprintf("cat <<'JSON'\n%s\nJSON\n", ProbeJSON(width, height, frameRate, frames)))(b)
		WithScript("ffmpeg", "for last; do :; done\nprintf 'normalized' > \"$last\"\n")(b)
	}
}

// WithRawMedia stubs ffprobe like WithFakeMedia and makes ffmpeg act as a raw
// RGBA pipe: decoding (final argument "-") emits frames of zero bytes, while
// encoding copies stdin into the file named by the final argument.
func WithRawMedia(width, height int, frameRate string, frames int) ConfigOption {
	return func(b *configBuilder) {
		WithScript("ffprobe", fmt.Sprintf("cat <<'JSON'\n%s\nJSON\n", ProbeJSON(width, height, frameRate, frames)))(b)
		WithScript("ffmpeg", fmt.Sprintf(
			"for last; do :; done\nif [ \"$last\" = \"-\" ]; then exec head -c %d /dev/zero; fi\ncat > \"$last\"\n",
			width*height*4*frames))(b)
	}
}
