// Package services defines shared utilities consumed by the workflow
// controller and the backend client.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging and request tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     (validation, transport, status, malformed response, busy).
//   - StatusError and UserMessage, which carry the backend's "detail" text to
//     the single user-visible error message.
package services
