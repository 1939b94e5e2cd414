package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"vidsub/internal/history"
	"vidsub/internal/testsupport"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if filepath.Dir(store.Path()) != cfg.Paths.StateDir {
		t.Fatalf("journal outside state dir: %s", store.Path())
	}
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []history.Entry{
		{RunID: "run-1", FileName: "a.mp4", TargetLanguage: "original", Status: history.StatusFailed, ErrorMessage: "Upload failed", StartedAt: base},
		{RunID: "run-2", FileName: "b.mp4", TargetLanguage: "es", Status: history.StatusComplete, FileID: "abc123", DetectedLanguage: "en", SegmentCount: 2, SubtitleFile: "abc123.srt", StartedAt: base.Add(time.Second)},
		{RunID: "run-3", FileName: "c.mp4", TargetLanguage: "fr", Status: history.StatusReset, StartedAt: base.Add(1500 * time.Millisecond)},
	}
	for _, entry := range entries {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record(%s): %v", entry.RunID, err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].RunID != "run-3" || recent[1].RunID != "run-2" {
		t.Fatalf("unexpected order: %+v", recent)
	}
	got := recent[1]
	if got.SubtitleFile != "abc123.srt" || got.SegmentCount != 2 || got.DetectedLanguage != "en" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if !got.StartedAt.Equal(base.Add(time.Second)) {
		t.Fatalf("unexpected started_at %s", got.StartedAt)
	}
}

func TestRecordReplacesSameRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	entry := history.Entry{RunID: "run-1", FileName: "a.mp4", TargetLanguage: "es", Status: history.StatusFailed, ErrorMessage: "Processing failed"}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}
	entry.Status = history.StatusComplete
	entry.ErrorMessage = ""
	entry.SubtitleFile = "x.srt"
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record again: %v", err)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Status != history.StatusComplete || recent[0].ErrorMessage != "" {
		t.Fatalf("expected single updated row, got %+v", recent)
	}
}

func TestRecordValidates(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), history.Entry{Status: history.StatusComplete}); err == nil {
		t.Fatal("expected error for missing run id")
	}
	if err := store.Record(context.Background(), history.Entry{RunID: "r", Status: "running"}); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestLookup(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.Record(ctx, history.Entry{
		RunID: "4f1c2a9e-0000-4000-8000-000000000001", FileName: "clip.mp4", TargetLanguage: "es",
		Status: history.StatusComplete, SubtitleFile: "abc123.srt",
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, history.Entry{
		RunID: "9aa", FileName: "other.mp4", TargetLanguage: "es", Status: history.StatusFailed,
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	for _, ref := range []string{"abc123.srt", "4f1c2a9e", "4f1c2a9e-0000-4000-8000-000000000001"} {
		entry, err := store.Lookup(ctx, ref)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", ref, err)
		}
		if entry.SubtitleFile != "abc123.srt" {
			t.Fatalf("Lookup(%q) returned %+v", ref, entry)
		}
	}
	for _, ref := range []string{"", "9aa", "missing.srt", "%"} {
		if _, err := store.Lookup(ctx, ref); !errors.Is(err, history.ErrNotFound) {
			t.Fatalf("Lookup(%q): expected ErrNotFound, got %v", ref, err)
		}
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", cfg.HistoryPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.OpenPath(cfg.HistoryPath()); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
