// Package config loads, normalizes, and validates vidsub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VIDSUB_BACKEND_URL. The Config type centralizes every knob the CLI and the
// local control API need, so the backend endpoint and output directories are
// discovered in one pass and injected into the orchestrators at construction.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a canonical base URL, and clear validation errors.
package config
