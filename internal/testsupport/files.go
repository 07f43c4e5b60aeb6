package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// fillByte pads placeholder uploads. It never forms a valid media header.
const fillByte = 0x42

// WriteFile creates path, with parent directories, holding size filler bytes.
// A size <= 0 still writes one byte so the file is never empty.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	WriteText(t, path, string(bytes.Repeat([]byte{fillByte}, int(max(size, 1)))))
}

// WriteText creates path, with parent directories, holding content.
func WriteText(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
