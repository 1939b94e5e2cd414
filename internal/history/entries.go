package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the terminal outcome of a run.
type Status string

const (
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
	StatusReset    Status = "reset"
)

// ErrNotFound is returned when no run matches a lookup.
var ErrNotFound = errors.New("run not found")

// Entry is one journaled run.
type Entry struct {
	RunID            string    `json:"run_id"`
	FileName         string    `json:"file_name"`
	FilePath         string    `json:"file_path,omitempty"`
	SizeBytes        int64     `json:"size_bytes"`
	MediaType        string    `json:"media_type,omitempty"`
	TargetLanguage   string    `json:"target_language"`
	Status           Status    `json:"status"`
	FileID           string    `json:"file_id,omitempty"`
	DetectedLanguage string    `json:"detected_language,omitempty"`
	SegmentCount     int       `json:"segment_count"`
	SubtitleFile     string    `json:"subtitle_file,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

const entryColumns = `run_id, file_name, file_path, size_bytes, media_type, target_language, status,
    file_id, detected_language, segment_count, subtitle_file, error_message, started_at, finished_at`

// Record inserts entry, replacing an earlier row for the same run.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.RunID) == "" {
		return errors.New("history: run id is required")
	}
	switch entry.Status {
	case StatusComplete, StatusFailed, StatusReset:
	default:
		return fmt.Errorf("history: unsupported status %q", entry.Status)
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}
	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = time.Now()
	}

	err := s.write(ctx,
		`INSERT INTO runs (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(run_id) DO UPDATE SET
                status = excluded.status,
                file_id = excluded.file_id,
                detected_language = excluded.detected_language,
                segment_count = excluded.segment_count,
                subtitle_file = excluded.subtitle_file,
                error_message = excluded.error_message,
                finished_at = excluded.finished_at`,
		entry.RunID,
		entry.FileName,
		nullableString(entry.FilePath),
		entry.SizeBytes,
		nullableString(entry.MediaType),
		entry.TargetLanguage,
		string(entry.Status),
		nullableString(entry.FileID),
		nullableString(entry.DetectedLanguage),
		entry.SegmentCount,
		nullableString(entry.SubtitleFile),
		nullableString(entry.ErrorMessage),
		formatTime(entry.StartedAt),
		formatTime(entry.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", entry.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A non-positive limit means 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return entries, nil
}

// Lookup finds a completed run by run id (or unique run id prefix) or by
// subtitle file name.
func (s *Store) Lookup(ctx context.Context, ref string) (Entry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Entry{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM runs
        WHERE status = ? AND (subtitle_file = ? OR run_id = ? OR run_id LIKE ? ESCAPE '\')
        ORDER BY finished_at DESC LIMIT 1`,
		string(StatusComplete), ref, ref, escapeLike(ref)+"%")
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return entry, err
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry                                           Entry
		filePath, mediaType, fileID, detected, subtitle sql.NullString
		errorMessage                                    sql.NullString
		status, startedAt, finishedAt                   string
	)
	if err := scanner.Scan(
		&entry.RunID,
		&entry.FileName,
		&filePath,
		&entry.SizeBytes,
		&mediaType,
		&entry.TargetLanguage,
		&status,
		&fileID,
		&detected,
		&entry.SegmentCount,
		&subtitle,
		&errorMessage,
		&startedAt,
		&finishedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan run: %w", err)
	}
	entry.FilePath = filePath.String
	entry.MediaType = mediaType.String
	entry.Status = Status(status)
	entry.FileID = fileID.String
	entry.DetectedLanguage = detected.String
	entry.SubtitleFile = subtitle.String
	entry.ErrorMessage = errorMessage.String
	entry.StartedAt = parseTime(startedAt)
	entry.FinishedAt = parseTime(finishedAt)
	return entry, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// timeLayout keeps a fixed fraction width so stored values sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
