package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrTransport  = errors.New("transport error")
	ErrStatus     = errors.New("unexpected status")
	ErrMalformed  = errors.New("malformed response")
	ErrBusy       = errors.New("workflow busy")
)

// Stage names used when wrapping errors.
const (
	StageSelect   = "select"
	StageUpload   = "upload"
	StageProcess  = "process"
	StageDownload = "download"
	StageCatalog  = "catalog"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// StatusError reports a non-success HTTP response. Detail holds the backend's
// {"detail": ...} text when one was returned.
type StatusError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Detail)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, body)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

// Is lets errors.Is(err, ErrStatus) match any StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// UserMessage returns the text shown to the user for err: the backend detail
// when the failure carried one, a validation message verbatim, or fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) && strings.TrimSpace(statusErr.Detail) != "" {
		return strings.TrimSpace(statusErr.Detail)
	}
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Message
	}
	return fallback
}

// UserError marks a failure whose message is meant for the user as-is.
type UserError struct {
	Message string
}

func (e *UserError) Error() string { return e.Message }

// NewUserError returns a UserError for message.
func NewUserError(message string) error {
	return &UserError{Message: message}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
