// internal/common/storage/storage.go
// Media upload abstraction shared by chat media and profile pictures

package storage

import (
	"context"
	"io"
	"mime/multipart"
)

// Uploader stores uploaded media and returns a publicly servable URL
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename, contentType, folder string) (string, error)
	UploadMultipartFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, folder string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}
