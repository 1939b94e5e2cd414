package presenter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidsub/internal/backend"
	"vidsub/internal/catalog"
	"vidsub/internal/logging"
	"vidsub/internal/presenter"
	"vidsub/internal/services"
	"vidsub/internal/testsupport"
	"vidsub/internal/workflow"
)

func scenarioResult() backend.Result {
	return backend.Result{
		FileID:           "abc123",
		SubtitleFile:     "abc123.srt",
		Transcription:    "Hola mundo",
		DetectedLanguage: "es",
		SegmentCount:     2,
	}
}

func TestSummarize(t *testing.T) {
	names := catalog.New(map[string]string{"es": "Spanish"})
	summary := presenter.Summarize(scenarioResult(), names)

	if summary.DetectedLanguageName != "Spanish" || summary.SegmentCount != 2 || summary.SubtitleFile != "abc123.srt" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := summary.String(); got != "Detected Language: Spanish (es) | Segments: 2" {
		t.Fatalf("unexpected summary line %q", got)
	}

	unknown := presenter.Summarize(backend.Result{DetectedLanguage: "unknown"}, names)
	if got := unknown.String(); got != "Detected Language: unknown | Segments: 0" {
		t.Fatalf("unexpected summary line %q", got)
	}
	if got := presenter.Summarize(scenarioResult(), nil).String(); got != "Detected Language: es | Segments: 2" {
		t.Fatalf("unexpected summary line without names %q", got)
	}
}

func TestPreview(t *testing.T) {
	if got := presenter.Preview("Hola mundo", 80, 0); got != "Hola mundo" {
		t.Fatalf("unexpected preview %q", got)
	}
	if got := presenter.Preview("   ", 80, 0); got != "(no speech detected)" {
		t.Fatalf("unexpected empty preview %q", got)
	}

	long := strings.Repeat("palabra ", 40)
	preview := presenter.Preview(long, 20, 3)
	lines := strings.Split(preview, "\n")
	if len(lines) != 4 || lines[3] != "…" {
		t.Fatalf("expected 3 lines plus ellipsis, got %q", preview)
	}
	for _, line := range lines[:3] {
		if len([]rune(line)) > 20 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
}

func TestSaveWritesSubtitle(t *testing.T) {
	fb := testsupport.NewFakeBackend(t)
	fb.AddSubtitle("abc123.srt", testsupport.DefaultSubtitle)
	client, err := backend.New(fb.URL)
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	p := presenter.New(client, logging.NewNop())
	dir := filepath.Join(t.TempDir(), "out")

	path, err := p.DownloadSubtitle(context.Background(), scenarioResult(), dir)
	if err != nil {
		t.Fatalf("DownloadSubtitle: %v", err)
	}
	if path != filepath.Join(dir, "abc123.srt") {
		t.Fatalf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read subtitle: %v", err)
	}
	if string(data) != testsupport.DefaultSubtitle {
		t.Fatalf("unexpected subtitle contents %q", data)
	}
	if downloads := fb.Downloads(); len(downloads) != 1 || downloads[0] != "/api/download-srt/abc123.srt" {
		t.Fatalf("unexpected downloads %v", downloads)
	}

	if _, err := p.DownloadSubtitle(context.Background(), scenarioResult(), dir); err != nil {
		t.Fatalf("repeat download: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the subtitle in output dir, got %d entries", len(entries))
	}
}

func TestSaveFailureLeavesNoFile(t *testing.T) {
	fb := testsupport.NewFakeBackend(t)
	client, err := backend.New(fb.URL)
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	p := presenter.New(client, logging.NewNop())
	dir := t.TempDir()

	_, err = p.Save(context.Background(), "missing.srt", dir)
	if err == nil {
		t.Fatal("expected download failure")
	}
	var userErr *services.UserError
	if !errors.As(err, &userErr) || userErr.Message != presenter.MessageDownloadFailed {
		t.Fatalf("expected Download failed user error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no files after failure, found %d", len(entries))
	}
}

func TestSafeFileName(t *testing.T) {
	tests := map[string]string{
		"abc123.srt":           "abc123.srt",
		"../../etc/passwd":     "passwd",
		`..\windows\evil.srt`:  "evil.srt",
		"/srt_files/x.srt":     "x.srt",
		"":                     "",
		"..":                   "",
		"  spaced name.srt   ": "spaced name.srt",
	}
	for input, want := range tests {
		if got := presenter.SafeFileName(input); got != want {
			t.Errorf("SafeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestControllerDownloadFailureKeepsComplete(t *testing.T) {
	fb := testsupport.NewFakeBackend(t)
	client, err := backend.New(fb.URL)
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	c := workflow.NewController(client, workflow.WithLogger(logging.NewNop()))
	p := presenter.New(client, logging.NewNop())

	if _, err := c.DownloadSubtitle(context.Background(), p, t.TempDir()); !errors.Is(err, workflow.ErrNoResult) {
		t.Fatalf("expected ErrNoResult before completion, got %v", err)
	}

	path := testsupport.WriteVideo(t, "clip.mp4", 2048)
	if _, err := c.Select([]string{path}, ""); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := c.StartUpload(context.Background()); err != nil {
		t.Fatalf("StartUpload: %v", err)
	}

	fb.FailOnce(testsupport.RouteDownload, 500, `{"detail":"disk full"}`)
	if _, err := c.DownloadSubtitle(context.Background(), p, t.TempDir()); err == nil {
		t.Fatal("expected download failure")
	}
	snap := c.Snapshot()
	if snap.Phase != workflow.PhaseComplete || snap.Error == nil || snap.Error.Message != workflow.MessageDownloadFailed {
		t.Fatalf("expected Complete with Download failed, got %+v", snap)
	}

	saved, err := c.DownloadSubtitle(context.Background(), p, t.TempDir())
	if err != nil {
		t.Fatalf("retry download: %v", err)
	}
	if filepath.Base(saved) != "abc123.srt" {
		t.Fatalf("unexpected saved path %q", saved)
	}
}

func TestStepLabel(t *testing.T) {
	if presenter.StepLabel(workflow.PhaseUploading) != "Uploading video..." {
		t.Fatal("unexpected uploading label")
	}
	if presenter.StepLabel(workflow.PhaseComplete) != "Complete!" {
		t.Fatal("unexpected complete label")
	}
	if presenter.StepLabel(workflow.PhaseIdle) != "Select a video" {
		t.Fatal("unexpected idle label")
	}
}
