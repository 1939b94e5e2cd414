// Package presenter renders finished results and saves subtitle files.
package presenter
