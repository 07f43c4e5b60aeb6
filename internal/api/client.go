package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// StatusError is returned when the daemon answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("daemon returned HTTP %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the daemon.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}

// Client talks to a running daemon over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the daemon listening on bind. A bare
// host:port is treated as http. token is sent as a bearer token when set.
func NewClient(bind, token string, timeout time.Duration) (*Client, error) {
	base := strings.TrimSpace(bind)
	if base == "" {
		return nil, errors.New("api bind address is empty")
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// DaemonStatus fetches daemon runtime information.
func (c *Client) DaemonStatus(ctx context.Context) (*DaemonStatus, error) {
	var resp DaemonStatus
	if err := c.getJSON(ctx, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Job fetches one job by public ID.
func (c *Client) Job(ctx context.Context, id string) (*QueueItem, error) {
	var resp QueueItemResponse
	if err := c.getJSON(ctx, "/api/status", url.Values{"id": {id}}, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// Queue lists jobs, optionally filtered by status.
func (c *Client) Queue(ctx context.Context, statuses ...string) ([]QueueItem, error) {
	var resp QueueListResponse
	if err := c.getJSON(ctx, "/api/queue", url.Values{"status": statuses}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Workbench fetches the sampled frames of a job.
func (c *Client) Workbench(ctx context.Context, id string) (*WorkbenchResponse, error) {
	var resp WorkbenchResponse
	if err := c.getJSON(ctx, "/api/workbench", url.Values{"id": {id}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Upload streams the file at path to the daemon.
func (c *Client) Upload(ctx context.Context, path string) (*UploadResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	var resp UploadResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Annotate submits guide JSON for a job and queues guided redaction.
func (c *Client) Annotate(ctx context.Context, id string, guides []byte) (*ActionResponse, error) {
	body, err := json.Marshal(AnnotateRequest{ID: id, Guides: json.RawMessage(guides)})
	if err != nil {
		return nil, fmt.Errorf("encode annotate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/annotate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	var resp ActionResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AutoBlur queues automatic redaction for a job.
func (c *Client) AutoBlur(ctx context.Context, id string) (*ActionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/autoblur", url.Values{"id": {id}}), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var resp ActionResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Download copies the redacted video into w and returns the file name the
// daemon suggested.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/download", url.Values{"id": {id}}), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", decodeError(resp)
	}
	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return name, fmt.Errorf("download body: %w", err)
	}
	return name, nil
}

// JobLog fetches log lines for a job. A negative offset asks for the last
// lines entries; wait > 0 lets the daemon hold the request until new lines
// appear.
func (c *Client) JobLog(ctx context.Context, id string, offset int64, lines int, wait time.Duration) (*JobLogResponse, error) {
	query := url.Values{
		"id":     {id},
		"offset": {strconv.FormatInt(offset, 10)},
		"lines":  {strconv.Itoa(lines)},
	}
	if wait > 0 {
		query.Set("wait", strconv.Itoa(int(wait/time.Second)))
	}
	var resp JobLogResponse
	if err := c.getJSON(ctx, "/api/logs", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification asks the daemon to send a test notification.
func (c *Client) TestNotification(ctx context.Context) (*NotifyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/notify/test", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var resp NotifyResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	if len(query) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + query.Encode()
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var payload ErrorResponse
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	return &StatusError{Code: resp.StatusCode, Message: message}
}
