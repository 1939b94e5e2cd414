package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"vidsub/internal/api"
	"vidsub/internal/backend"
	"vidsub/internal/catalog"
	"vidsub/internal/logging"
	"vidsub/internal/presenter"
	"vidsub/internal/testsupport"
	"vidsub/internal/workflow"
)

type harness struct {
	fake       *testsupport.FakeBackend
	controller *workflow.Controller
	server     *httptest.Server
	outputDir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := testsupport.NewFakeBackend(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(fake.URL))

	logger := logging.NewNop()
	client, err := backend.NewFromConfig(cfg, logger)
	if err != nil {
		t.Fatalf("backend client: %v", err)
	}
	languages := catalog.NewLoader(client, logger).Load(context.Background())
	controller := workflow.NewController(client,
		workflow.WithCatalog(languages),
		workflow.WithLogger(logger),
	)

	opts := api.OptionsFromConfig(cfg)
	opts.Controller = controller
	opts.Catalog = languages
	opts.Downloader = presenter.New(client, logger)
	opts.Logger = logger
	srv, err := api.New(opts)
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)

	return &harness{fake: fake, controller: controller, server: httpSrv, outputDir: cfg.Paths.OutputDir}
}

func (h *harness) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return out
}

type detailBody struct {
	Detail string `json:"detail"`
}

func waitForPhase(t *testing.T, c *workflow.Controller, phase workflow.Phase) workflow.Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		snap := c.Snapshot()
		if snap.Phase == phase {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("phase %s not reached, last snapshot %+v", phase, c.Snapshot())
	return workflow.Snapshot{}
}

func TestFullRunThroughAPI(t *testing.T) {
	h := newHarness(t)
	clip := testsupport.WriteVideo(t, "clip.mp4", 64*1024)

	resp, body := h.do(t, http.MethodPost, "/api/select", map[string]string{"path": clip})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select status %d: %s", resp.StatusCode, body)
	}
	snap := decode[workflow.Snapshot](t, body)
	if snap.Phase != workflow.PhaseSelected || snap.Asset == nil || snap.Asset.Name != "clip.mp4" {
		t.Fatalf("unexpected select snapshot: %s", body)
	}

	resp, body = h.do(t, http.MethodPost, "/api/target", map[string]string{"language": "es"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("target status %d: %s", resp.StatusCode, body)
	}

	resp, body = h.do(t, http.MethodPost, "/api/start", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start status %d: %s", resp.StatusCode, body)
	}

	done := waitForPhase(t, h.controller, workflow.PhaseComplete)
	if done.Result == nil || done.Result.SubtitleFile != "abc123.srt" {
		t.Fatalf("unexpected result: %+v", done.Result)
	}
	processes := h.fake.Processes()
	if len(processes) != 1 || processes[0].TargetLanguage != "es" {
		t.Fatalf("unexpected process requests: %+v", processes)
	}

	resp, body = h.do(t, http.MethodPost, "/api/download", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status %d: %s", resp.StatusCode, body)
	}
	saved := decode[struct {
		Path string `json:"path"`
	}](t, body)
	if saved.Path != filepath.Join(h.outputDir, "abc123.srt") {
		t.Fatalf("unexpected saved path %q", saved.Path)
	}
	contents, err := os.ReadFile(saved.Path)
	if err != nil {
		t.Fatalf("read saved subtitle: %v", err)
	}
	if string(contents) != testsupport.DefaultSubtitle {
		t.Fatalf("unexpected subtitle contents %q", contents)
	}

	resp, body = h.do(t, http.MethodPost, "/api/reset", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status %d: %s", resp.StatusCode, body)
	}
	snap = decode[workflow.Snapshot](t, body)
	if snap.Phase != workflow.PhaseIdle || snap.TargetLanguage != "original" {
		t.Fatalf("unexpected reset snapshot: %s", body)
	}
}

func TestSelectRejectsNonVideo(t *testing.T) {
	h := newHarness(t)
	doc := filepath.Join(t.TempDir(), "notes.txt")
	testsupport.WriteFile(t, doc, 128)

	resp, body := h.do(t, http.MethodPost, "/api/select", map[string]string{"path": doc})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}
	if got := decode[detailBody](t, body).Detail; got != "Please select a video file" {
		t.Fatalf("unexpected detail %q", got)
	}

	_, body = h.do(t, http.MethodGet, "/api/state", nil)
	snap := decode[workflow.Snapshot](t, body)
	if snap.Phase != workflow.PhaseIdle || snap.Error == nil {
		t.Fatalf("expected idle with error annotation, got %s", body)
	}

	_, body = h.do(t, http.MethodPost, "/api/dismiss", nil)
	if snap := decode[workflow.Snapshot](t, body); snap.Error != nil {
		t.Fatalf("dismiss kept the annotation: %s", body)
	}
}

func TestOutOfOrderCommandsConflict(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/api/start", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("start without selection: expected 409, got %d: %s", resp.StatusCode, body)
	}
	resp, body = h.do(t, http.MethodPost, "/api/download", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("download without result: expected 409, got %d: %s", resp.StatusCode, body)
	}
	if h.controller.Snapshot().Phase != workflow.PhaseIdle {
		t.Fatalf("rejected commands changed the state: %+v", h.controller.Snapshot())
	}
}

func TestTargetRejectsUnknownLanguage(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/api/target", map[string]string{"language": "xx"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}
	if got := decode[detailBody](t, body).Detail; !strings.Contains(got, "xx") {
		t.Fatalf("detail should name the code, got %q", got)
	}
	if h.controller.TargetLanguage() != "original" {
		t.Fatalf("target changed to %q", h.controller.TargetLanguage())
	}
}

func TestLanguagesListsOriginalFirst(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodGet, "/api/languages", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("languages status %d: %s", resp.StatusCode, body)
	}
	payload := decode[struct {
		Languages []catalog.Option `json:"languages"`
	}](t, body)
	if len(payload.Languages) != 5 {
		t.Fatalf("expected 5 options, got %+v", payload.Languages)
	}
	if payload.Languages[0].Code != "original" {
		t.Fatalf("expected original first, got %+v", payload.Languages[0])
	}
	if payload.Languages[1].Name != "English" {
		t.Fatalf("expected options sorted by name, got %+v", payload.Languages)
	}
}

func TestEventsSinceAndLongPoll(t *testing.T) {
	h := newHarness(t)
	clip := testsupport.WriteVideo(t, "clip.mkv", 1024)

	if _, err := h.controller.Select([]string{clip}, ""); err != nil {
		t.Fatalf("select: %v", err)
	}

	_, body := h.do(t, http.MethodGet, "/api/events?since=0", nil)
	first := decode[struct {
		Events  []workflow.Event `json:"events"`
		LastSeq int64            `json:"last_seq"`
	}](t, body)
	if len(first.Events) == 0 || first.LastSeq == 0 {
		t.Fatalf("expected events after select, got %s", body)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		h.controller.Reset()
	}()
	_, body = h.do(t, http.MethodGet, "/api/events?since="+itoa(first.LastSeq)+"&wait=2s", nil)
	next := decode[struct {
		Events []workflow.Event `json:"events"`
	}](t, body)
	if len(next.Events) == 0 || next.Events[0].Phase != workflow.PhaseIdle {
		t.Fatalf("long poll did not return the reset event: %s", body)
	}

	resp, _ := h.do(t, http.MethodGet, "/api/events?since=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad since, got %d", resp.StatusCode)
	}
}

func TestDownloadFailureKeepsResult(t *testing.T) {
	h := newHarness(t)
	clip := testsupport.WriteVideo(t, "clip.mp4", 2048)
	if _, err := h.controller.Select([]string{clip}, ""); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := h.controller.StartUpload(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	h.fake.Fail(testsupport.RouteDownload, http.StatusInternalServerError, `{"detail":"disk gone"}`)

	resp, body := h.do(t, http.MethodPost, "/api/download", map[string]string{"dir": t.TempDir()})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", resp.StatusCode, body)
	}
	if got := decode[detailBody](t, body).Detail; got != "Download failed" {
		t.Fatalf("unexpected detail %q", got)
	}
	snap := h.controller.Snapshot()
	if snap.Phase != workflow.PhaseComplete || snap.Error == nil || snap.Error.Message != "Download failed" {
		t.Fatalf("expected complete with download annotation, got %+v", snap)
	}
}

func TestCORSAndUnknownRoutes(t *testing.T) {
	h := newHarness(t)

	req, err := http.NewRequest(http.MethodGet, h.server.URL+"/api/state", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := h.server.Client().Do(req)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard CORS header, got %q", got)
	}

	resp, body := h.do(t, http.MethodGet, "/api/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if decode[detailBody](t, body).Detail == "" {
		t.Fatal("expected detail envelope on 404")
	}
}

func TestNewRequiresController(t *testing.T) {
	if _, err := api.New(api.Options{}); err == nil {
		t.Fatal("expected error without controller")
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
