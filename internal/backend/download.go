package backend

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"vidsub/internal/services"
)

// DownloadSubtitle copies the subtitle named ref into w and returns the
// number of bytes written.
func (c *Client) DownloadSubtitle(ctx context.Context, ref string, w io.Writer) (int64, error) {
	const op = "download subtitle"

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, services.Wrap(services.ErrValidation, services.StageDownload, op, "subtitle reference is required", nil)
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/download-srt/"+url.PathEscape(ref), nil)
	if err != nil {
		return 0, services.Wrap(services.ErrTransport, services.StageDownload, op, "build request", err)
	}
	req.Header.Set("Accept", "application/x-subrip, application/octet-stream, */*")

	resp, err := c.do(req, services.StageDownload, op)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, services.Wrap(services.ErrTransport, services.StageDownload, op, "read body", err)
	}
	return n, nil
}
