package presenter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"vidsub/internal/backend"
	"vidsub/internal/fileutil"
	"vidsub/internal/logging"
	"vidsub/internal/services"
	"vidsub/internal/textutil"
)

// MessageDownloadFailed is shown for every subtitle download failure.
const MessageDownloadFailed = "Download failed"

// NameLookup resolves language codes to display names. catalog.Catalog
// satisfies it.
type NameLookup interface {
	DisplayName(code string) string
}

// Summary is the metadata line shown above the transcript.
type Summary struct {
	DetectedLanguage     string `json:"language_detected"`
	DetectedLanguageName string `json:"language_name"`
	SegmentCount         int    `json:"segments_count"`
	SubtitleFile         string `json:"srt_file"`
}

// Summarize builds the summary for result.
func Summarize(result backend.Result, names NameLookup) Summary {
	name := result.DetectedLanguage
	if names != nil {
		name = names.DisplayName(result.DetectedLanguage)
	}
	return Summary{
		DetectedLanguage:     result.DetectedLanguage,
		DetectedLanguageName: name,
		SegmentCount:         result.SegmentCount,
		SubtitleFile:         result.SubtitleFile,
	}
}

// String renders the summary on one line.
func (s Summary) String() string {
	language := s.DetectedLanguage
	if s.DetectedLanguageName != "" && !strings.EqualFold(s.DetectedLanguageName, s.DetectedLanguage) {
		language = fmt.Sprintf("%s (%s)", s.DetectedLanguageName, s.DetectedLanguage)
	}
	return fmt.Sprintf("Detected Language: %s | Segments: %d", language, s.SegmentCount)
}

// Preview soft-wraps transcript to width columns and keeps at most maxLines
// lines (0 keeps all). Truncated output ends with an ellipsis line.
func Preview(transcript string, width, maxLines int) string {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "(no speech detected)"
	}
	if width <= 0 {
		width = 80
	}
	wrapped := text.WrapSoft(strings.Join(strings.Fields(transcript), " "), width)
	lines := strings.Split(wrapped, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.Join(lines, "\n")
}

// Downloader fetches subtitle bytes. backend.Client satisfies it.
type Downloader interface {
	DownloadSubtitle(ctx context.Context, ref string, w io.Writer) (int64, error)
}

// Presenter saves subtitles for finished runs.
type Presenter struct {
	downloader Downloader
	logger     *slog.Logger
}

// New constructs a presenter.
func New(downloader Downloader, logger *slog.Logger) *Presenter {
	return &Presenter{downloader: downloader, logger: logging.NewComponentLogger(logger, "presenter")}
}

// DownloadSubtitle saves the subtitle of result into dir and returns the
// written path.
func (p *Presenter) DownloadSubtitle(ctx context.Context, result backend.Result, dir string) (string, error) {
	return p.Save(ctx, result.SubtitleFile, dir)
}

// Save fetches ref and writes it to dir/<base(ref)> atomically, so a failed
// download never leaves a partial subtitle behind. Repeating the call
// overwrites the previous copy.
func (p *Presenter) Save(ctx context.Context, ref, dir string) (string, error) {
	name := SafeFileName(ref)
	if name == "" {
		return "", downloadError("subtitle reference is empty", nil)
	}
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}

	target := filepath.Join(dir, name)
	n, err := fileutil.WriteAtomic(target, 0o644, func(w io.Writer) (int64, error) {
		return p.downloader.DownloadSubtitle(ctx, ref, w)
	})
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "subtitle download failed", "download_failed",
			logging.String("srt_file", ref),
			logging.Error(err),
			logging.String(logging.FieldImpact, "subtitle file not saved; download can be retried"),
		)
		return "", downloadError("fetch subtitle", err)
	}
	p.logger.Info("subtitle saved", logging.String("path", target), logging.Int64("bytes", n))
	return target, nil
}

// SafeFileName reduces ref to a plain file name that is safe to create
// locally.
func SafeFileName(ref string) string {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, "\\", "/"))
	if ref == "" {
		return ""
	}
	name := filepath.Base(ref)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return textutil.SanitizeFileName(name)
}

func downloadError(message string, err error) error {
	cause := services.NewUserError(MessageDownloadFailed)
	if err != nil {
		cause = fmt.Errorf("%w: %w", cause, err)
	}
	return services.Wrap(services.ErrTransport, services.StageDownload, "save subtitle", message, cause)
}
