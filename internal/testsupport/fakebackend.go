package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Routes served by FakeBackend, usable as keys for SetHandler and Fail.
const (
	RouteLanguages = "languages"
	RouteUpload    = "upload"
	RouteProcess   = "process"
	RouteDownload  = "download"
	RouteHealth    = "health"
)

// DefaultSubtitle is the body served for subtitles produced by the fake.
const DefaultSubtitle = "1\n00:00:00,000 --> 00:00:01,200\nHola\n\n2\n00:00:01,200 --> 00:00:02,500\nmundo\n"

// UploadRecord captures one upload received by FakeBackend.
type UploadRecord struct {
	Filename    string
	ContentType string
	Size        int64
	RequestID   string
}

// ProcessRecord captures one processing request received by FakeBackend.
type ProcessRecord struct {
	FileID         string
	TargetLanguage string
}

// ProcessReply is the success payload FakeBackend returns from process-video.
type ProcessReply struct {
	Transcription    string
	LanguageDetected string
	SegmentsCount    int
}

// FakeBackend is an httptest server implementing the transcription backend's
// HTTP surface with programmable replies and recorded requests.
type FakeBackend struct {
	URL    string
	server *httptest.Server

	mu        sync.Mutex
	fileID    string
	languages map[string]string
	reply     ProcessReply
	subtitles map[string]string
	uploaded  map[string]struct{}
	overrides map[string]http.HandlerFunc
	failOnce  map[string]failure
	uploads   []UploadRecord
	processes []ProcessRecord
	downloads []string
	userAgent string
}

type failure struct {
	status int
	body   string
}

// NewFakeBackend starts a fake backend that answers the happy path: uploads
// get file_id "abc123" and processing returns "Hola mundo" detected as "es".
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{
		fileID: "abc123",
		languages: map[string]string{
			"original": "Original Language",
			"en":       "English",
			"es":       "Spanish",
			"fr":       "French",
			"de":       "German",
		},
		reply:     ProcessReply{Transcription: "Hola mundo", LanguageDetected: "es", SegmentsCount: 2},
		subtitles: map[string]string{},
		uploaded:  map[string]struct{}{},
		overrides: map[string]http.HandlerFunc{},
		failOnce:  map[string]failure{},
	}

	router := chi.NewRouter()
	router.Get("/api/languages", fb.route(RouteLanguages, fb.handleLanguages))
	router.Post("/api/upload-video", fb.route(RouteUpload, fb.handleUpload))
	router.Post("/api/process-video", fb.route(RouteProcess, fb.handleProcess))
	router.Get("/api/download-srt/{filename}", fb.route(RouteDownload, fb.handleDownload))
	router.Get("/api/health", fb.route(RouteHealth, fb.handleHealth))

	fb.server = httptest.NewServer(router)
	fb.URL = fb.server.URL
	t.Cleanup(fb.server.Close)
	return fb
}

// SetFileID changes the file_id returned by subsequent uploads.
func (fb *FakeBackend) SetFileID(id string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.fileID = id
}

// SetLanguages replaces the catalog served by /api/languages.
func (fb *FakeBackend) SetLanguages(languages map[string]string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.languages = languages
}

// SetProcessReply changes the processing success payload.
func (fb *FakeBackend) SetProcessReply(reply ProcessReply) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.reply = reply
}

// AddSubtitle makes name downloadable with the given contents.
func (fb *FakeBackend) AddSubtitle(name, contents string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.subtitles[name] = contents
}

// RegisterFileID lets process-video accept id without a prior upload.
func (fb *FakeBackend) RegisterFileID(id string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.uploaded[id] = struct{}{}
}

// SetHandler replaces the handler for route until cleared with a nil handler.
func (fb *FakeBackend) SetHandler(route string, handler http.HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if handler == nil {
		delete(fb.overrides, route)
		return
	}
	fb.overrides[route] = handler
}

// Fail makes route answer status with body on every request.
func (fb *FakeBackend) Fail(route string, status int, body string) {
	fb.SetHandler(route, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		writeRaw(w, status, body)
	})
}

// FailOnce makes the next request to route answer status with body.
func (fb *FakeBackend) FailOnce(route string, status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failOnce[route] = failure{status: status, body: body}
}

// Uploads returns the uploads received so far.
func (fb *FakeBackend) Uploads() []UploadRecord {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]UploadRecord(nil), fb.uploads...)
}

// Processes returns the processing requests received so far.
func (fb *FakeBackend) Processes() []ProcessRecord {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]ProcessRecord(nil), fb.processes...)
}

// Downloads returns the request paths of subtitle downloads received so far.
func (fb *FakeBackend) Downloads() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.downloads...)
}

// LastUserAgent returns the User-Agent of the most recent request.
func (fb *FakeBackend) LastUserAgent() string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.userAgent
}

func (fb *FakeBackend) route(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.userAgent = r.UserAgent()
		override := fb.overrides[name]
		once, failing := fb.failOnce[name]
		if failing {
			delete(fb.failOnce, name)
		}
		fb.mu.Unlock()

		switch {
		case failing:
			// Drain so streaming clients see the response, not a reset.
			_, _ = io.Copy(io.Discard, r.Body)
			writeRaw(w, once.status, once.body)
		case override != nil:
			override(w, r)
		default:
			next(w, r)
		}
	}
}

func (fb *FakeBackend) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	languages := make(map[string]string, len(fb.languages))
	for k, v := range fb.languages {
		languages[k] = v
	}
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"languages": languages})
}

func (fb *FakeBackend) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "field required: file"})
		return
	}
	defer file.Close()
	size, err := io.Copy(io.Discard, file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "read upload: " + err.Error()})
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "File must be a video"})
		return
	}

	fb.mu.Lock()
	fileID := fb.fileID
	fb.uploaded[fileID] = struct{}{}
	fb.uploads = append(fb.uploads, UploadRecord{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        size,
		RequestID:   r.Header.Get("X-Request-ID"),
	})
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"file_id":  fileID,
		"filename": header.Filename,
		"size":     size,
		"message":  "Video uploaded successfully",
	})
}

func (fb *FakeBackend) handleProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "invalid form"})
		return
	}
	fileID := r.FormValue("file_id")
	target := r.FormValue("target_language")
	if fileID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "field required: file_id"})
		return
	}

	fb.mu.Lock()
	fb.processes = append(fb.processes, ProcessRecord{FileID: fileID, TargetLanguage: target})
	_, known := fb.uploaded[fileID]
	reply := fb.reply
	srtName := fileID + ".srt"
	if known {
		fb.subtitles[srtName] = DefaultSubtitle
	}
	fb.mu.Unlock()

	if !known {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Video file not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file_id":           fileID,
		"srt_file":          srtName,
		"transcription":     reply.Transcription,
		"language_detected": reply.LanguageDetected,
		"segments_count":    reply.SegmentsCount,
		"message":           "Video processed successfully",
	})
}

func (fb *FakeBackend) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	fb.mu.Lock()
	fb.downloads = append(fb.downloads, r.URL.Path)
	contents, ok := fb.subtitles[name]
	fb.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "SRT file not found"})
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, contents)
}

func (fb *FakeBackend) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "message": "Video transcription service is running"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	if strings.HasPrefix(strings.TrimSpace(body), "{") {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
