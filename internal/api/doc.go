// Package api exposes the workflow controller over a local HTTP control API
// so a browser frontend can drive a run.
//
// Routes live under /api:
//
//	GET  /api/state       current snapshot
//	GET  /api/languages   target language options, "original" first
//	GET  /api/events      events after ?since=N, optionally long-polled with ?wait=
//	POST /api/select      {path, media_type?}
//	POST /api/target      {language}
//	POST /api/start       starts a run in the background (202)
//	POST /api/reset       returns to idle from any state
//	POST /api/dismiss     clears the error annotation
//	POST /api/download    {dir?} saves the subtitle of a completed run
//
// Errors are JSON objects with a single "detail" field, the same envelope
// the transcription backend uses. Commands issued in the wrong state answer
// 409 Conflict and leave the controller untouched.
package api
