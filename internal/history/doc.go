// Package history keeps a SQLite journal of workflow runs in the state
// directory so finished subtitles can be found and downloaded again later.
package history
