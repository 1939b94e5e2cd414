package media

import (
	"fmt"
	"io"
	"os"
)

// Asset is the candidate video held by the workflow controller.
type Asset struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	MediaType string `json:"media_type"`
}

// DisplaySize renders the size in megabytes with two decimals.
func (a Asset) DisplaySize() string {
	return fmt.Sprintf("%.2f MB", float64(a.SizeBytes)/1024/1024)
}

// Open returns the asset's byte stream.
func (a Asset) Open() (io.ReadCloser, error) {
	file, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.Name, err)
	}
	return file, nil
}

// IsZero reports whether a is the empty asset.
func (a Asset) IsZero() bool {
	return a.Path == "" && a.Name == ""
}
