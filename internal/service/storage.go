package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	a "startupconnect/api/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const minMultipartSize = 12 << 20

var ErrInvalidKey = errors.New("invalid storage key")

// Storage keeps uploaded verification files. Keys are slash separated and
// double as the file reference stored on the document.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// LocalStorage writes files under a directory on disk
type LocalStorage struct {
	Root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory, %w", err)
	}

	return &LocalStorage{Root: root}, nil
}

func (l *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}

	return filepath.Join(l.Root, clean), nil
}

func (l *LocalStorage) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("failed to write file, %w", err)
	}

	return f.Close()
}

func (l *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}

	return os.Open(p)
}

func (l *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}

	return os.Remove(p)
}

// S3Storage stores files in the configured bucket
type S3Storage struct {
	S3 *a.S3Client
}

func NewS3Storage(s *a.S3Client) *S3Storage {
	return &S3Storage{S3: s}
}

func (s *S3Storage) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      s.S3.Bucket,
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	}

	if size > minMultipartSize {
		uploader := manager.NewUploader(s.S3.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})

		if _, err := uploader.Upload(ctx, input); err != nil {
			return fmt.Errorf("failed to upload to s3, %w", err)
		}
		return nil
	}

	input.ContentLength = aws.Int64(size)
	if _, err := s.S3.C.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to s3, %w", err)
	}

	return nil
}

func (s *S3Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.S3.C.GetObject(ctx, &s3.GetObjectInput{
		Bucket: s.S3.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object from s3, %w", err)
	}

	return out.Body, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.S3.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.S3.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		zap.L().Error("Failed to delete object from s3", zap.String("key", key), zap.Error(err))
	}

	return err
}
