package daemon

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"seen/internal/api"
	"seen/internal/config"
	"seen/internal/logging"
	"seen/internal/logs"
	"seen/internal/metrics"
	"seen/internal/queue"
	"seen/internal/services"
)

const requestIDHeader = "X-Request-ID"

type apiServer struct {
	bind     string
	limit    int64
	logger   *slog.Logger
	daemon   *Daemon
	queueSvc *api.QueueService
	actions  api.StoreActions
	handler  http.Handler

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:     strings.TrimSpace(cfg.Paths.APIBind),
		limit:    cfg.UploadLimitBytes(),
		logger:   logger,
		daemon:   d,
		queueSvc: api.NewQueueService(d.store),
	}
	srv.actions = api.StoreActions{Store: d.store, StorageDir: cfg.Paths.StorageDir}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", authMiddleware(token, srv.handleUpload))
	mux.HandleFunc("GET /api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("GET /api/workbench", authMiddleware(token, srv.handleWorkbench))
	mux.HandleFunc("POST /api/annotate", authMiddleware(token, srv.handleAnnotate))
	mux.HandleFunc("POST /api/autoblur", authMiddleware(token, srv.handleAutoBlur))
	mux.HandleFunc("GET /api/download", authMiddleware(token, srv.handleDownload))
	mux.HandleFunc("GET /api/logs", authMiddleware(token, srv.handleJobLog))
	mux.HandleFunc("GET /api/queue", authMiddleware(token, srv.handleQueue))
	mux.HandleFunc("GET /api/queue/{id}", authMiddleware(token, srv.handleQueueItem))
	mux.HandleFunc("DELETE /api/queue/{id}", authMiddleware(token, srv.handleQueueRemove))
	mux.HandleFunc("POST /api/queue/{id}/retry", authMiddleware(token, srv.handleQueueRetry))
	mux.HandleFunc("POST /api/notify/test", authMiddleware(token, srv.handleTestNotify))
	mux.Handle("GET /metrics", metrics.Handler())

	srv.handler = withRequestID(mux)
	return srv
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	// Uploads and downloads can be large, so only headers are bounded.
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.shutdown()
	}()

	s.log().Info("api server listening",
		logging.String(logging.FieldEventType, "api_listening"),
		logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.shutdown()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) shutdown() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

// address reports the bound listener address, or "disabled" when the API
// is not served.
func (s *apiServer) address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return "disabled"
}

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.limit)
	}
	reader, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "expected multipart/form-data upload")
		return
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, `multipart body has no "file" part`)
			return
		}
		if err != nil {
			s.writeFailure(w, r, fmt.Errorf("read multipart: %w", err))
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		item, err := s.daemon.Upload(r.Context(), part.FileName(), clientHost(r), part)
		_ = part.Close()
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.UploadResponse{
			ID:     item.PublicID,
			Name:   item.SourceName,
			Status: string(item.Status),
		})
		return
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		item, err := s.daemon.Job(r.Context(), id)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.QueueItemResponse{Item: api.FromQueueItem(item)})
		return
	}

	status := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Dependencies: deps,
	})
}

func (s *apiServer) handleWorkbench(w http.ResponseWriter, r *http.Request) {
	item, frames, err := s.daemon.Workbench(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	resp := api.WorkbenchResponse{
		ID:          item.PublicID,
		Status:      string(item.Status),
		SampleHz:    item.SampleHz,
		SampleEvery: item.SampleEvery,
		FrameRate:   item.FrameRate,
		FrameCount:  item.FrameCount,
		Width:       item.Width,
		Height:      item.Height,
		Scale:       1,
		Frames:      make([]api.WorkbenchFrame, 0, len(frames)),
	}
	if len(frames) > 0 && item.Width > 0 {
		if cfg, err := jpeg.DecodeConfig(bytes.NewReader(frames[0].Data)); err == nil && cfg.Width > 0 {
			resp.Scale = float64(cfg.Width) / float64(item.Width)
		}
	}
	for _, frame := range frames {
		resp.Frames = append(resp.Frames, api.WorkbenchFrame{
			FrameID: frame.Index,
			Image:   base64.StdEncoding.EncodeToString(frame.Data),
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	var req api.AnnotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid annotate request: "+err.Error())
		return
	}
	guides := []byte(req.Guides)
	if len(bytes.TrimSpace(guides)) == 0 || string(bytes.TrimSpace(guides)) == "null" {
		guides = []byte(req.GuidesJSON)
	}
	if strings.TrimSpace(req.ID) == "" {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	item, err := s.daemon.Annotate(r.Context(), req.ID, guides)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.ActionResponse{
		ID:      item.PublicID,
		Status:  string(item.Status),
		Message: "guided redaction queued",
	})
}

func (s *apiServer) handleAutoBlur(w http.ResponseWriter, r *http.Request) {
	item, err := s.daemon.AutoBlur(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.ActionResponse{
		ID:      item.PublicID,
		Status:  string(item.Status),
		Message: "automatic redaction queued",
	})
}

func (s *apiServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	item, err := s.daemon.Download(r.Context(), r.URL.Query().Get("id"), clientHost(r))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	file, err := os.Open(item.OutputFile)
	if err != nil {
		s.writeFailure(w, r, fmt.Errorf("%w: open output: %w", queue.ErrNotFound, err))
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	name := item.OutputName()
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), file)
}

// defaultLogLines is returned when a log request names no line count.
const defaultLogLines = 200

func (s *apiServer) handleJobLog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	id := strings.TrimSpace(query.Get("id"))
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	opts := logs.TailOptions{Offset: -1, Limit: defaultLogLines}
	if value := query.Get("offset"); value != "" {
		offset, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		opts.Offset = offset
	}
	if value := query.Get("lines"); value != "" {
		lines, err := strconv.Atoi(value)
		if err != nil || lines < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid lines")
			return
		}
		opts.Limit = lines
	}
	if value := query.Get("wait"); value != "" {
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid wait")
			return
		}
		opts.Wait = time.Duration(seconds) * time.Second
	}

	res, err := s.daemon.JobLog(r.Context(), id, opts)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	lines := res.Lines
	if lines == nil {
		lines = []string{}
	}
	s.writeJSON(w, http.StatusOK, api.JobLogResponse{ID: id, Lines: lines, Offset: res.Offset})
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := queue.ParseStatus(trimmed)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", trimmed))
			return
		}
		statuses = append(statuses, status)
	}

	items, err := s.queueSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	api.SortQueueItemsNewestFirst(items)
	s.writeJSON(w, http.StatusOK, api.QueueListResponse{Items: items})
}

func (s *apiServer) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	item, err := s.queueSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "queue item not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueItemResponse{Item: *item})
}

func (s *apiServer) handleQueueRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	results, err := api.RemoveItemsByID(r.Context(), s.actions, []int64{id})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	result := results[0]
	switch result.Outcome {
	case api.RemoveItemNotFound:
		s.writeError(w, http.StatusNotFound, "queue item not found")
	case api.RemoveItemProcessing:
		s.writeError(w, http.StatusConflict, "queue item is being processed")
	default:
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *apiServer) handleQueueRetry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	result, err := api.RetryFailedItemsByID(r.Context(), s.actions, []int64{id})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	switch result.Items[0].Outcome {
	case api.RetryItemNotFound:
		s.writeError(w, http.StatusNotFound, "queue item not found")
	case api.RetryItemNotFailed:
		s.writeError(w, http.StatusConflict, "only failed jobs can be retried")
	default:
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *apiServer) handleTestNotify(w http.ResponseWriter, r *http.Request) {
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, message+": "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotifyResponse{Sent: sent, Message: message})
}

func (s *apiServer) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid queue item id")
		return 0, false
	}
	return id, true
}

// statusForError maps daemon and store errors onto HTTP status codes.
func statusForError(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, queue.ErrNotFound), errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, queue.ErrNotAnnotatable), errors.Is(err, ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, ErrAutoUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.log()).Error("api request failed",
			logging.String(logging.FieldEventType, "api_request_failed"),
			logging.String("path", r.URL.Path),
			logging.Error(err))
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
