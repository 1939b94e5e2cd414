package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vidsub/internal/catalog"
	"vidsub/internal/config"
	"vidsub/internal/logging"
	"vidsub/internal/media"
	"vidsub/internal/services"
	"vidsub/internal/workflow"
)

const maxEventWait = 30 * time.Second

type selectRequest struct {
	Path      string   `json:"path"`
	Paths     []string `json:"paths,omitempty"`
	MediaType string   `json:"media_type,omitempty"`
}

type targetRequest struct {
	Language string `json:"language"`
}

type downloadRequest struct {
	Dir string `json:"dir,omitempty"`
}

type languagesResponse struct {
	Languages []catalog.Option `json:"languages"`
}

type eventsResponse struct {
	Events  []workflow.Event `json:"events"`
	LastSeq int64            `json:"last_seq"`
}

type downloadResponse struct {
	Path string `json:"path"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, languagesResponse{Languages: s.catalog.Options()})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	since := int64(0)
	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = parsed
	}
	var wait time.Duration
	if raw := strings.TrimSpace(r.URL.Query().Get("wait")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "wait must be a duration such as 10s")
			return
		}
		wait = min(parsed, maxEventWait)
	}

	bus := s.controller.Events()
	events := bus.Since(since)
	if len(events) == 0 && wait > 0 {
		ch, cancel := bus.Subscribe(1)
		// Re-read after subscribing so an event published in between is not missed.
		events = bus.Since(since)
		if len(events) == 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ch:
			case <-timer.C:
			case <-r.Context().Done():
			}
			timer.Stop()
			events = bus.Since(since)
		}
		cancel()
	}
	if events == nil {
		events = []workflow.Event{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, LastSeq: bus.LastSeq()})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	paths := req.Paths
	if strings.TrimSpace(req.Path) != "" {
		paths = append([]string{req.Path}, paths...)
	}
	if _, err := s.controller.Select(paths, req.MediaType); err != nil {
		s.writeFailure(w, err, media.MessageNotVideo)
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.controller.SetTargetLanguage(req.Language); err != nil {
		s.writeFailure(w, err, "Unsupported target language")
		return
	}
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	done, err := s.controller.StartUploadAsync(s.runContext())
	if err != nil {
		s.writeFailure(w, err, "could not start")
		return
	}
	go func() {
		if err := <-done; err != nil {
			s.logger.Debug("api run finished with error", logging.Error(err))
		}
	}()
	writeJSON(w, http.StatusAccepted, s.controller.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.controller.Reset()
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleDismiss(w http.ResponseWriter, _ *http.Request) {
	s.controller.Dismiss()
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if s.downloader == nil {
		writeError(w, http.StatusServiceUnavailable, "subtitle download is not configured")
		return
	}
	var req downloadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	dir := strings.TrimSpace(req.Dir)
	if dir == "" {
		dir = s.outputDir
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid output directory: %v", err))
		return
	}
	path, err := s.controller.DownloadSubtitle(r.Context(), s.downloader, expanded)
	if err != nil {
		if errors.Is(err, workflow.ErrNoResult) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, workflow.MessageDownloadFailed)
		return
	}
	writeJSON(w, http.StatusOK, downloadResponse{Path: path})
}

func (s *Server) writeFailure(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	detail := services.UserMessage(err, fallback)
	if status == http.StatusConflict {
		detail = err.Error()
	}
	if status >= 500 {
		s.logger.Warn("api command failed", logging.Error(err), logging.Int("status", status))
	}
	writeError(w, status, detail)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrBusy),
		errors.Is(err, workflow.ErrNotSelected),
		errors.Is(err, workflow.ErrNoResult):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrTransport),
		errors.Is(err, services.ErrStatus),
		errors.Is(err, services.ErrMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads an optional JSON body into dst. An empty body leaves dst
// at its zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return true
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
