package services_test

import (
	"errors"
	"strings"
	"testing"

	"vidsub/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrTransport, services.StageUpload, "post", "send video", base)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"upload", "post", "send video"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err)
	}
}

func TestStatusErrorMatchesMarker(t *testing.T) {
	statusErr := &services.StatusError{StatusCode: 404, Detail: "Video file not found"}
	err := services.Wrap(services.ErrStatus, services.StageProcess, "post", "", statusErr)
	if !errors.Is(err, services.ErrStatus) {
		t.Fatal("expected ErrStatus match")
	}
	var target *services.StatusError
	if !errors.As(err, &target) || target.StatusCode != 404 {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
	if got := (&services.StatusError{StatusCode: 500}).Error(); got != "http 500" {
		t.Fatalf("unexpected bare status text %q", got)
	}
}

func TestUserMessage(t *testing.T) {
	withDetail := services.Wrap(services.ErrStatus, services.StageUpload, "", "",
		&services.StatusError{StatusCode: 400, Detail: " File must be a video "})
	if got := services.UserMessage(withDetail, "Upload failed"); got != "File must be a video" {
		t.Fatalf("expected backend detail, got %q", got)
	}

	noDetail := services.Wrap(services.ErrStatus, services.StageUpload, "", "",
		&services.StatusError{StatusCode: 500, Body: "Internal Server Error"})
	if got := services.UserMessage(noDetail, "Upload failed"); got != "Upload failed" {
		t.Fatalf("expected fallback, got %q", got)
	}

	validation := services.Wrap(services.ErrValidation, services.StageSelect, "", "",
		services.NewUserError("Please select a video file"))
	if got := services.UserMessage(validation, "Selection failed"); got != "Please select a video file" {
		t.Fatalf("expected verbatim user error, got %q", got)
	}

	if got := services.UserMessage(nil, "x"); got != "" {
		t.Fatalf("expected empty message for nil, got %q", got)
	}
}
