// Package preflight verifies that the backend is reachable and the local
// directories vidsub writes to are usable before a run starts.
package preflight
