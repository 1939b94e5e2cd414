// Package language maps the language identifiers the transcription backend and
// users exchange: ISO 639-1 codes, ISO 639-2 codes, English names, and the
// "original" sentinel that asks the backend to keep the spoken language.
package language
