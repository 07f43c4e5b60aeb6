package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Written describes a file produced by SaveStream.
type Written struct {
	Path   string
	Bytes  int64
	SHA256 string
}

// SaveStream writes r to dst through a temporary file in the same directory
// and renames it into place, so dst either holds the full stream or does not
// exist. The SHA-256 of the written bytes is returned with the size.
func SaveStream(dst string, r io.Reader) (Written, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Written{}, fmt.Errorf("create destination dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return Written{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		return Written{}, err
	}
	if err := tmp.Close(); err != nil {
		return Written{}, err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return Written{}, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return Written{}, fmt.Errorf("rename into place: %w", err)
	}
	return Written{Path: dst, Bytes: n, SHA256: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// CopyFileVerified copies src to dst with SaveStream and checks that the
// copied size matches the source. dst is removed on mismatch.
func CopyFileVerified(src, dst string) (Written, error) {
	info, err := os.Stat(src)
	if err != nil {
		return Written{}, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return Written{}, fmt.Errorf("source %q is a directory", src)
	}
	in, err := os.Open(src)
	if err != nil {
		return Written{}, err
	}
	defer in.Close()

	written, err := SaveStream(dst, in)
	if err != nil {
		return Written{}, err
	}
	if written.Bytes != info.Size() {
		_ = os.Remove(dst)
		return Written{}, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written.Bytes)
	}
	return written, nil
}
