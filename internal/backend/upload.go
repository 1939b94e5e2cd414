package backend

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"vidsub/internal/media"
	"vidsub/internal/services"
)

// ProgressFunc receives upload progress as an integer percentage. Calls are
// made from a single goroutine with strictly increasing values.
type ProgressFunc func(percent int)

// UploadReply is the payload of POST /api/upload-video.
type UploadReply struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Message  string `json:"message"`
}

// Upload streams asset to the service as the multipart "file" field and
// returns the file_id assigned to it. The body is produced through an io.Pipe
// so the file is never held in memory.
func (c *Client) Upload(ctx context.Context, asset media.Asset, progress ProgressFunc) (UploadReply, error) {
	const op = "upload video"

	source, err := asset.Open()
	if err != nil {
		return UploadReply{}, services.Wrap(services.ErrValidation, services.StageUpload, op, "open asset", err)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	tracker := newProgressTracker(asset.SizeBytes, progress)

	go func() {
		defer source.Close()
		pw.CloseWithError(writeUploadBody(writer, asset, source, tracker))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload-video", pr)
	if err != nil {
		pr.CloseWithError(err)
		return UploadReply{}, services.Wrap(services.ErrTransport, services.StageUpload, op, "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.do(req, services.StageUpload, op)
	if err != nil {
		pr.CloseWithError(err)
		return UploadReply{}, err
	}

	var reply UploadReply
	if err := decodeJSON(resp, services.StageUpload, op, &reply); err != nil {
		return UploadReply{}, err
	}
	reply.FileID = strings.TrimSpace(reply.FileID)
	if reply.FileID == "" {
		return UploadReply{}, missingField(services.StageUpload, op, "file_id")
	}
	return reply, nil
}

func writeUploadBody(writer *multipart.Writer, asset media.Asset, source io.Reader, tracker *progressTracker) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(asset.Name)))
	header.Set("Content-Type", asset.MediaType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(&countingWriter{w: part, tracker: tracker}, source); err != nil {
		return fmt.Errorf("stream asset: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}
	tracker.finish()
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// progressTracker converts written byte counts into monotonic percentages.
type progressTracker struct {
	total  int64
	sent   int64
	last   int
	report ProgressFunc
}

func newProgressTracker(total int64, report ProgressFunc) *progressTracker {
	return &progressTracker{total: total, report: report}
}

func (p *progressTracker) add(n int) {
	p.sent += int64(n)
	p.emit(Percent(p.sent, p.total))
}

func (p *progressTracker) finish() {
	p.emit(100)
}

func (p *progressTracker) emit(percent int) {
	if percent <= p.last || p.report == nil {
		return
	}
	p.last = percent
	p.report(percent)
}

// Percent returns floor(sent*100/total) clamped to [0,100]. A non-positive
// total yields 0 until the caller reports completion.
func Percent(sent, total int64) int {
	if total <= 0 || sent <= 0 {
		return 0
	}
	if sent >= total {
		return 100
	}
	return int(sent * 100 / total)
}

// countingWriter reports bytes after the pipe consumer has accepted them.
type countingWriter struct {
	w       io.Writer
	tracker *progressTracker
}

func (cw *countingWriter) Write(b []byte) (int, error) {
	n, err := cw.w.Write(b)
	if n > 0 {
		cw.tracker.add(n)
	}
	return n, err
}
