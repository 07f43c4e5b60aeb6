package stage

import (
	"errors"
	"testing"

	"seen/internal/services"
	"seen/internal/track"
)

func TestParseGuide_Valid(t *testing.T) {
	raw := `[{"id":"face","keyFrames":[{"frameId":0,"x":1,"y":2,"size":10},{"frameId":8,"x":9,"y":2,"size":10}]}]`
	set, err := ParseGuide(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 1 || set.LastFrame() != 8 {
		t.Fatalf("unexpected track set: len=%d last=%d", set.Len(), set.LastFrame())
	}
}

func TestParseGuide_Empty(t *testing.T) {
	_, err := ParseGuide("")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	var vErr *track.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected wrapped ValidationError, got %T", err)
	}
}

func TestParseGuide_Invalid(t *testing.T) {
	if _, err := ParseGuide("{invalid json"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
