// Package backend talks to the remote transcription service over HTTP.
//
// The service exposes five endpoints under /api: languages, upload-video,
// process-video, download-srt and health. Failures are classified with the
// markers from internal/services; non-2xx replies surface the service's
// {"detail": ...} text through services.StatusError.
package backend
