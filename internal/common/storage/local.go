// internal/common/storage/local.go

package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type localUploader struct {
	uploadDir string
	baseURL   string
}

// NewLocalUploader creates an uploader that writes to the local filesystem.
// Used in development when S3 is not configured.
func NewLocalUploader(uploadDir, baseURL string) Uploader {
	return &localUploader{
		uploadDir: uploadDir,
		baseURL:   baseURL,
	}
}

func (l *localUploader) Upload(ctx context.Context, file io.Reader, filename, contentType, folder string) (string, error) {
	dir := filepath.Join(l.uploadDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.New().String() + filepath.Ext(filename)
	path := filepath.Join(dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", l.baseURL, folder, name), nil
}

func (l *localUploader) UploadMultipartFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, folder string) (string, error) {
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	contentType := http.DetectContentType(buffer[:n])

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	return l.Upload(ctx, file, header.Filename, contentType, folder)
}

func (l *localUploader) Delete(ctx context.Context, fileURL string) error {
	rel := strings.TrimPrefix(fileURL, l.baseURL+"/")
	if rel == fileURL {
		return fmt.Errorf("file URL %s not managed by local storage", fileURL)
	}
	return os.Remove(filepath.Join(l.uploadDir, rel))
}
