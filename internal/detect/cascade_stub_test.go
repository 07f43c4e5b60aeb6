//go:build !gocv

package detect

import (
	"errors"
	"testing"
)

func TestNewCascadeUnsupported(t *testing.T) {
	if _, err := NewCascade("haarcascade_frontalface_default.xml"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
