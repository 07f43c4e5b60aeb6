package guide

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"seen/internal/track"
)

// Format identifies a guide document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(value string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), ".") {
	case "", "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported guide format %q", value)
	}
}

// KeyFrame is one operator placement in wire form.
type KeyFrame struct {
	FrameID int `json:"frameId" toml:"frameId" yaml:"frameId"`
	X       int `json:"x" toml:"x" yaml:"x"`
	Y       int `json:"y" toml:"y" yaml:"y"`
	Size    int `json:"size" toml:"size" yaml:"size"`
}

// UnmarshalJSON accepts fractional coordinates from browser clients and
// truncates them toward zero.
func (k *KeyFrame) UnmarshalJSON(data []byte) error {
	var raw struct {
		FrameID json.Number `json:"frameId"`
		X       json.Number `json:"x"`
		Y       json.Number `json:"y"`
		Size    json.Number `json:"size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := []struct {
		name  string
		value json.Number
		dst   *int
	}{
		{"frameId", raw.FrameID, &k.FrameID},
		{"x", raw.X, &k.X},
		{"y", raw.Y, &k.Y},
		{"size", raw.Size, &k.Size},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("keyframe is missing %q", f.name)
		}
		v, err := f.value.Float64()
		if err != nil {
			return fmt.Errorf("keyframe %q: %w", f.name, err)
		}
		*f.dst = int(v)
	}
	return nil
}

// Entry is one tracked region in wire form.
type Entry struct {
	ID        string     `json:"id" toml:"id" yaml:"id"`
	KeyFrames []KeyFrame `json:"keyFrames" toml:"keyFrames" yaml:"keyFrames"`
}

// Document is the wrapped form of a guide.
type Document struct {
	Guides []Entry `json:"guides" toml:"guides" yaml:"guides"`
}

// Decode reads a guide document and builds the validated track set.
func Decode(r io.Reader, format Format) (track.TrackSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return track.TrackSet{}, fmt.Errorf("read guide: %w", err)
	}
	entries, err := decodeEntries(data, format)
	if err != nil {
		return track.TrackSet{}, err
	}
	return Build(entries)
}

// Load reads a guide file, choosing the format from its extension.
func Load(path string) (track.TrackSet, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return track.TrackSet{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return track.TrackSet{}, fmt.Errorf("open guide: %w", err)
	}
	defer f.Close()
	return Decode(f, format)
}

// Build converts wire entries into a validated track set.
func Build(entries []Entry) (track.TrackSet, error) {
	tracks := make([]track.Track, 0, len(entries))
	for i, entry := range entries {
		b := track.NewBuilder(entry.ID)
		for _, kf := range entry.KeyFrames {
			b.Add(kf.FrameID, track.Rect{X: kf.X, Y: kf.Y, Size: kf.Size})
		}
		t, err := b.Build()
		if err != nil {
			var vErr *track.ValidationError
			if errors.As(err, &vErr) && vErr.TrackID == "" {
				vErr.TrackID = fmt.Sprintf("#%d", i+1)
			}
			return track.TrackSet{}, err
		}
		tracks = append(tracks, t)
	}
	return track.NewTrackSet(tracks...)
}

// Encode renders a track set back to the JSON wire form. The result is what
// the job store keeps for a guided job.
func Encode(set track.TrackSet) ([]byte, error) {
	entries := make([]Entry, 0, set.Len())
	for _, t := range set.Tracks() {
		entry := Entry{ID: t.ID()}
		for _, kf := range t.Keyframes() {
			entry.KeyFrames = append(entry.KeyFrames, KeyFrame{
				FrameID: kf.FrameIndex,
				X:       kf.Rect.X,
				Y:       kf.Rect.Y,
				Size:    kf.Rect.Size,
			})
		}
		entries = append(entries, entry)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode guide: %w", err)
	}
	return data, nil
}

func decodeEntries(data []byte, format Format) ([]Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &track.ValidationError{Reason: "guide document is empty"}
	}
	switch format {
	case FormatJSON, "":
		return decodeJSON(data)
	case FormatTOML:
		var doc Document
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, malformed(err)
		}
		return doc.Guides, nil
	case FormatYAML:
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported guide format %q", format)
	}
}

func decodeJSON(data []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '[' {
		var entries []Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, malformed(err)
		}
		return entries, nil
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, malformed(err)
	}
	return doc.Guides, nil
}

func decodeYAML(data []byte) ([]Entry, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, malformed(err)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var entries []Entry
		if err := node.Decode(&entries); err != nil {
			return nil, malformed(err)
		}
		return entries, nil
	}
	var doc Document
	if err := node.Decode(&doc); err != nil {
		return nil, malformed(err)
	}
	return doc.Guides, nil
}

func malformed(err error) error {
	return &track.ValidationError{Reason: "malformed guide document: " + err.Error()}
}
