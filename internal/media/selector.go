package media

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/wailsapp/mimetype"

	"vidsub/internal/services"
)

// MessageNotVideo is the user-facing text for a rejected selection.
const MessageNotVideo = "Please select a video file"

// AcceptedExtensions lists the extensions offered by the file picker.
var AcceptedExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm"}

var extensionTypes = map[string]string{
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

// ErrNoFile is returned when a selection carries no paths.
var ErrNoFile = errors.New("no file provided")

// Select builds an Asset from the first of paths; the rest are ignored.
// override, when non-empty, is used as the declared media type instead of
// the one derived from the file.
func Select(paths []string, override string) (Asset, error) {
	var path string
	for _, candidate := range paths {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			path = candidate
			break
		}
	}
	if path == "" {
		return Asset{}, services.Wrap(services.ErrValidation, services.StageSelect, "", "", ErrNoFile)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Asset{}, rejection(fmt.Sprintf("File not found: %s", filepath.Base(path)), err)
		}
		return Asset{}, rejection("File could not be read", err)
	}
	if info.IsDir() {
		return Asset{}, rejection(MessageNotVideo, fmt.Errorf("%s is a directory", path))
	}
	if info.Size() == 0 {
		return Asset{}, rejection("Selected file is empty", fmt.Errorf("%s has no content", path))
	}

	mediaType := normalizeType(override)
	if mediaType == "" {
		mediaType = DeclaredType(path)
	}
	if !IsVideoType(mediaType) {
		return Asset{}, rejection(MessageNotVideo, fmt.Errorf("%s declared as %q", filepath.Base(path), mediaType))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return Asset{
		Name:      filepath.Base(path),
		Path:      abs,
		SizeBytes: info.Size(),
		MediaType: mediaType,
	}, nil
}

// DeclaredType returns the media type a file declares through its
// extension, falling back to content sniffing when the extension is unknown.
func DeclaredType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if ext != "" {
		if t := normalizeType(mime.TypeByExtension(ext)); t != "" {
			return t
		}
	}
	detected, err := mimetype.DetectFile(path)
	if err != nil || detected == nil {
		return ""
	}
	return normalizeType(detected.String())
}

// IsVideoType reports whether mediaType is in the video/ family.
func IsVideoType(mediaType string) bool {
	return strings.HasPrefix(normalizeType(mediaType), "video/")
}

func normalizeType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(value); err == nil {
		return parsed
	}
	return strings.ToLower(value)
}

func rejection(message string, err error) error {
	return services.Wrap(services.ErrValidation, services.StageSelect, "", "", fmt.Errorf("%w: %w", services.NewUserError(message), err))
}
