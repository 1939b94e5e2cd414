package backend

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"vidsub/internal/language"
	"vidsub/internal/services"
)

// Result is a successful processing outcome.
type Result struct {
	FileID           string `json:"file_id"`
	SubtitleFile     string `json:"srt_file"`
	Transcription    string `json:"transcription"`
	DetectedLanguage string `json:"language_detected"`
	SegmentCount     int    `json:"segments_count"`
	Message          string `json:"message,omitempty"`
}

type processReply struct {
	FileID           string  `json:"file_id"`
	SubtitleFile     *string `json:"srt_file"`
	Transcription    *string `json:"transcription"`
	DetectedLanguage *string `json:"language_detected"`
	SegmentCount     *int    `json:"segments_count"`
	Message          string  `json:"message"`
}

// Process asks the service to transcribe (and optionally translate) the
// uploaded file. The call blocks until the service answers.
func (c *Client) Process(ctx context.Context, fileID, targetLanguage string) (Result, error) {
	const op = "process video"

	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return Result{}, services.Wrap(services.ErrValidation, services.StageProcess, op, "file id is required", nil)
	}
	targetLanguage = strings.TrimSpace(targetLanguage)
	if targetLanguage == "" {
		targetLanguage = language.Original
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("file_id", fileID); err != nil {
		return Result{}, services.Wrap(services.ErrTransport, services.StageProcess, op, "encode form", err)
	}
	if err := writer.WriteField("target_language", targetLanguage); err != nil {
		return Result{}, services.Wrap(services.ErrTransport, services.StageProcess, op, "encode form", err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, services.Wrap(services.ErrTransport, services.StageProcess, op, "encode form", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/process-video", &body)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransport, services.StageProcess, op, "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.do(req, services.StageProcess, op)
	if err != nil {
		return Result{}, err
	}
	var reply processReply
	if err := decodeJSON(resp, services.StageProcess, op, &reply); err != nil {
		return Result{}, err
	}
	return reply.result(fileID)
}

func (r processReply) result(fileID string) (Result, error) {
	const op = "process video"
	switch {
	case r.SubtitleFile == nil || strings.TrimSpace(*r.SubtitleFile) == "":
		return Result{}, missingField(services.StageProcess, op, "srt_file")
	case r.Transcription == nil:
		return Result{}, missingField(services.StageProcess, op, "transcription")
	case r.SegmentCount == nil:
		return Result{}, missingField(services.StageProcess, op, "segments_count")
	case *r.SegmentCount < 0:
		return Result{}, services.Wrap(services.ErrMalformed, services.StageProcess, op, "negative segments_count", nil)
	}
	detected := language.Unknown
	if r.DetectedLanguage != nil {
		detected = language.NormalizeDetected(*r.DetectedLanguage)
	}
	if id := strings.TrimSpace(r.FileID); id != "" {
		fileID = id
	}
	return Result{
		FileID:           fileID,
		SubtitleFile:     strings.TrimSpace(*r.SubtitleFile),
		Transcription:    *r.Transcription,
		DetectedLanguage: detected,
		SegmentCount:     *r.SegmentCount,
		Message:          r.Message,
	}, nil
}
