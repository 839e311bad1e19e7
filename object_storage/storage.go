package object_storage

import (
	"context"
	"io"
)

// StorageInterface stores rendered reports. Uploads of the same name overwrite
// and Download of a missing name returns a FileNotFound error.
type StorageInterface interface {
	Upload(ctx context.Context, filename string, content io.Reader, contentType string) error
	GetUrl(filename string) string
	Download(ctx context.Context, filename string) ([]byte, error)
}

type FileNotFound struct {
	err string
}

func (f FileNotFound) Error() string {
	return f.err
}

func FileNotFoundError() error {
	return FileNotFound{"File not found"}
}
