// Package workflow drives one video from selection to finished subtitles.
//
// The Controller owns a single tagged-union State (Idle, Selected, Uploading,
// Processing, Complete) plus a separate error annotation. Commands mutate the
// state under a mutex; network calls to the backend run outside it so API
// handlers and CLI renderers can read snapshots while a run is in flight.
// Every transition is published on a bounded EventBus.
//
// Runs are sequenced by a generation counter: Reset bumps it, and any upload
// or processing reply that arrives for an older generation is dropped.
package workflow
