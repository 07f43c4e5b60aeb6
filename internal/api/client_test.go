package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(strings.TrimPrefix(srv.URL, "http://"), "secret", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestClientUploadSendsMultipart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("video-bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if r.Method != http.MethodPost || r.URL.Path != "/api/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "clip.mp4" || string(data) != "video-bytes" {
			t.Errorf("unexpected upload %q %q", header.Filename, data)
		}
		_ = json.NewEncoder(w).Encode(UploadResponse{ID: "abc", Name: header.Filename, Status: "pending"})
	})

	resp, err := client.Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resp.ID != "abc" || resp.Status != "pending" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestClientAnnotateBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req AnnotateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.ID != "abc" || !strings.Contains(string(req.Guides), `"keyFrames"`) {
			t.Errorf("unexpected request %+v", req)
		}
		_ = json.NewEncoder(w).Encode(ActionResponse{ID: req.ID, Status: "annotated"})
	})

	resp, err := client.Annotate(context.Background(), "abc", []byte(`[{"id":"a","keyFrames":[]}]`))
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if resp.Status != "annotated" {
		t.Fatalf("unexpected status %q", resp.Status)
	}
}

func TestClientDecodesErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "job not found"})
	})

	_, err := client.Job(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "job not found") {
		t.Fatalf("expected daemon message in error, got %v", err)
	}
}

func TestClientDownload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "abc" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Disposition", `attachment; filename="clip-redacted.mp4"`)
		_, _ = w.Write([]byte("redacted"))
	})

	var buf bytes.Buffer
	name, err := client.Download(context.Background(), "abc", &buf)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if name != "clip-redacted.mp4" || buf.String() != "redacted" {
		t.Fatalf("unexpected download %q %q", name, buf.String())
	}
}

func TestNewClientRequiresAddress(t *testing.T) {
	if _, err := NewClient("  ", "", time.Second); err == nil {
		t.Fatal("expected error for empty address")
	}
}
