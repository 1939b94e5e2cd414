package workflow_test

import (
	"context"
	"sync"
	"testing"

	"vidsub/internal/backend"
	"vidsub/internal/catalog"
	"vidsub/internal/history"
	"vidsub/internal/logging"
	"vidsub/internal/media"
	"vidsub/internal/testsupport"
	"vidsub/internal/workflow"
)

type stubService struct {
	mu        sync.Mutex
	uploadFn  func(ctx context.Context, asset media.Asset, progress backend.ProgressFunc) (backend.UploadReply, error)
	processFn func(ctx context.Context, fileID, target string) (backend.Result, error)
	uploads   int
	processes []string
}

func (s *stubService) Upload(ctx context.Context, asset media.Asset, progress backend.ProgressFunc) (backend.UploadReply, error) {
	s.mu.Lock()
	s.uploads++
	fn := s.uploadFn
	s.mu.Unlock()
	if fn != nil {
		return fn(ctx, asset, progress)
	}
	if progress != nil {
		progress(100)
	}
	return backend.UploadReply{FileID: "abc123"}, nil
}

func (s *stubService) Process(ctx context.Context, fileID, target string) (backend.Result, error) {
	s.mu.Lock()
	s.processes = append(s.processes, fileID+":"+target)
	fn := s.processFn
	s.mu.Unlock()
	if fn != nil {
		return fn(ctx, fileID, target)
	}
	return backend.Result{
		FileID:           fileID,
		SubtitleFile:     fileID + ".srt",
		Transcription:    "Hola mundo",
		DetectedLanguage: "es",
		SegmentCount:     2,
	}, nil
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (r *memoryRecorder) Record(_ context.Context, entry history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryRecorder) Entries() []history.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]history.Entry(nil), r.entries...)
}

func testCatalog() *catalog.Catalog {
	return catalog.New(map[string]string{
		"original": "Original Language",
		"en":       "English",
		"es":       "Spanish",
		"fr":       "French",
	})
}

func newController(t *testing.T, svc workflow.Service, opts ...workflow.Option) *workflow.Controller {
	t.Helper()
	base := []workflow.Option{
		workflow.WithCatalog(testCatalog()),
		workflow.WithLogger(logging.NewNop()),
	}
	return workflow.NewController(svc, append(base, opts...)...)
}

func selectClip(t *testing.T, c *workflow.Controller, name string, size int64) media.Asset {
	t.Helper()
	path := testsupport.WriteVideo(t, name, size)
	asset, err := c.Select([]string{path}, "")
	if err != nil {
		t.Fatalf("Select(%s): %v", name, err)
	}
	return asset
}

func statePhases(events []workflow.Event) []workflow.Phase {
	var phases []workflow.Phase
	for _, event := range events {
		if event.Type == workflow.EventTypeState {
			phases = append(phases, event.Phase)
		}
	}
	return phases
}

func progressValues(events []workflow.Event) []int {
	var values []int
	for _, event := range events {
		if event.Type == workflow.EventTypeProgress {
			values = append(values, event.Progress)
		}
	}
	return values
}
