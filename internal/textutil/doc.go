// Package textutil cleans strings that end up on the filesystem or in
// terminal output.
package textutil
