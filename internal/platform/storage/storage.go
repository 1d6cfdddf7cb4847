package storage

import (
	"context"
	"io"
)

// FileInfo describes a stored object.
type FileInfo struct {
	Path     string `json:"path"`
	URL      string `json:"url"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

// Store persists generated documents (payslips, ledger exports).
type Store interface {
	Save(ctx context.Context, path string, r io.Reader, contentType string) (*FileInfo, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}
