package workflow

import (
	"context"
	"errors"

	"vidsub/internal/backend"
	"vidsub/internal/services"
)

// MessageDownloadFailed is the annotation set when saving subtitles fails.
const MessageDownloadFailed = "Download failed"

// ErrNoResult is returned by DownloadSubtitle outside Complete.
var ErrNoResult = errors.New("no completed result")

// SubtitleDownloader saves a result's subtitle file into a directory.
// presenter.Presenter satisfies it.
type SubtitleDownloader interface {
	DownloadSubtitle(ctx context.Context, result backend.Result, dir string) (string, error)
}

// DownloadSubtitle saves the current result's subtitle into dir. A failure
// sets the error annotation and leaves the state Complete, so the call can be
// retried.
func (c *Controller) DownloadSubtitle(ctx context.Context, downloader SubtitleDownloader, dir string) (string, error) {
	c.mu.Lock()
	complete, ok := c.state.(Complete)
	generation := c.generation
	c.mu.Unlock()
	if !ok {
		return "", ErrNoResult
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithStage(ctx, services.StageDownload)

	path, err := downloader.DownloadSubtitle(ctx, complete.Result, dir)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, still := c.state.(Complete); !still || c.generation != generation {
		if err != nil {
			return "", err
		}
		return path, nil
	}
	if err != nil {
		c.setFailureLocked(services.StageDownload, MessageDownloadFailed)
		return "", err
	}
	return path, nil
}
