// Package storage archives uploaded resume files in object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/jobportal/apiserver/config"
)

const (
	resumePrefix = "resumes/"

	// filenameMetaKey holds the uploader's original filename on each object.
	filenameMetaKey = "original-filename"

	defaultContentType = "application/octet-stream"
)

// ResumeAttrs describes an archived resume file.
type ResumeAttrs struct {
	Filename    string
	ContentType string
	Size        int64
}

// Resume is an archived resume opened for reading.
type Resume struct {
	io.ReadCloser
	ResumeAttrs
}

// ObjectStorage is a bucket holding archived resumes. Get returns
// store.ErrNotFound for a missing key and Delete treats one as already done.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, data []byte, attrs ResumeAttrs) error
	Get(ctx context.Context, key string) (*Resume, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an ObjectStorage backend with resume-specific helpers.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// NewFromConfig builds the backend selected by cfg.Backend and makes sure its
// bucket exists. It returns a nil Storage when archiving is disabled.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return nil, nil
	case "minio":
		backend, err = NewMinioBackend(cfg.Minio)
	case "gcs":
		backend, err = NewGCSBackend(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewStorage(backend), nil
}

// ResumeKey returns a fresh object key for an uploaded resume, keeping the
// lower-cased extension of the original filename.
func ResumeKey(filename string) string {
	return resumePrefix + uuid.NewString() + strings.ToLower(path.Ext(filename))
}

// ArchiveResume uploads data under a new resume key and returns the key.
func (s *Storage) ArchiveResume(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	key := ResumeKey(filename)
	if contentType == "" {
		contentType = defaultContentType
	}
	attrs := ResumeAttrs{
		Filename:    path.Base(filename),
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	if err := s.backend.Put(ctx, key, data, attrs); err != nil {
		return "", fmt.Errorf("archive resume: %w", err)
	}
	return key, nil
}

// OpenResume opens an archived resume for reading. The returned reader is a
// *Resume. A key that is not in the bucket yields store.ErrNotFound.
func (s *Storage) OpenResume(ctx context.Context, key string) (io.ReadCloser, error) {
	if !strings.HasPrefix(key, resumePrefix) {
		return nil, fmt.Errorf("not a resume key: %q", key)
	}
	res, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open resume %s: %w", key, err)
	}
	if res.Filename == "" {
		res.Filename = path.Base(key)
	}
	return res, nil
}

// DeleteResume removes an archived resume. Deleting a missing key succeeds.
func (s *Storage) DeleteResume(ctx context.Context, key string) error {
	if !strings.HasPrefix(key, resumePrefix) {
		return fmt.Errorf("not a resume key: %q", key)
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete resume %s: %w", key, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}
