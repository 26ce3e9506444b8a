// internal/common/storage/s3.go

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

type s3Uploader struct {
	s3Client     *s3.S3
	bucketName   string
	baseURL      string
	maxFileSize  int64
	allowedTypes []string
}

// NewS3Uploader creates an uploader backed by an S3 bucket
func NewS3Uploader(awsSession *session.Session, bucketName, baseURL string, maxFileSize int64) Uploader {
	return &s3Uploader{
		s3Client:    s3.New(awsSession),
		bucketName:  bucketName,
		baseURL:     baseURL,
		maxFileSize: maxFileSize,
		allowedTypes: []string{
			"image/jpeg", "image/png", "image/gif", "image/webp",
			"video/mp4", "video/quicktime", "video/webm",
			"audio/mpeg", "audio/wav", "audio/ogg",
		},
	}
}

// Upload stores a file under a date-partitioned unique key
func (s *s3Uploader) Upload(ctx context.Context, file io.Reader, filename, contentType, folder string) (string, error) {
	if !s.isAllowedType(contentType) {
		return "", fmt.Errorf("file type %s not allowed", contentType)
	}

	ext := filepath.Ext(filename)
	key := fmt.Sprintf("%s/%s/%s%s",
		folder,
		time.Now().Format("2006/01/02"),
		uuid.New().String(),
		ext,
	)

	// Read file into buffer to check size
	buf := new(bytes.Buffer)
	size, err := io.Copy(buf, file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	if size > s.maxFileSize {
		return "", fmt.Errorf("file size %d exceeds maximum allowed size %d", size, s.maxFileSize)
	}

	_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		ACL:           aws.String("public-read"),
		Metadata: map[string]*string{
			"uploaded-at": aws.String(time.Now().Format(time.RFC3339)),
			"file-name":   aws.String(filename),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

// UploadMultipartFile detects the content type and uploads the file
func (s *s3Uploader) UploadMultipartFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, folder string) (string, error) {
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

	return s.Upload(ctx, file, header.Filename, contentType, folder)
}

// Delete removes a previously uploaded object
func (s *s3Uploader) Delete(ctx context.Context, fileURL string) error {
	key := strings.TrimPrefix(fileURL, s.baseURL+"/")

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	return err
}

func (s *s3Uploader) isAllowedType(contentType string) bool {
	for _, allowed := range s.allowedTypes {
		if allowed == contentType {
			return true
		}
	}
	return false
}
