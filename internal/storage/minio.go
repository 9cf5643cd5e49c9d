package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/jobportal/apiserver/config"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioFilenameHeader is how MinIO reports the filename user metadata.
const minioFilenameHeader = "X-Amz-Meta-Original-Filename"

// MinioBackend archives resumes in a MinIO (or any S3 compatible) bucket.
type MinioBackend struct {
	client *minio.Client
	bucket string
}

// NewMinioBackend constructs a MinIO backend from config.
func NewMinioBackend(cfg config.MinioConfig) (*MinioBackend, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("minio access key and secret key are required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("minio bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinioBackend{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinioBackend) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}

// Put uploads a resume with its original filename as user metadata and an
// attachment disposition so direct bucket links download rather than render.
func (m *MinioBackend) Put(ctx context.Context, key string, data []byte, attrs ResumeAttrs) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        attrs.ContentType,
		ContentDisposition: "attachment",
		UserMetadata:       map[string]string{filenameMetaKey: attrs.Filename},
	})
	return err
}

// Get stats the object before opening it, so a missing resume fails here
// with store.ErrNotFound rather than on the first Read.
func (m *MinioBackend) Get(ctx context.Context, key string) (*Resume, error) {
	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, minioError(err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, minioError(err)
	}
	return &Resume{
		ReadCloser: obj,
		ResumeAttrs: ResumeAttrs{
			Filename:    info.Metadata.Get(minioFilenameHeader),
			ContentType: info.ContentType,
			Size:        info.Size,
		},
	}, nil
}

// Delete removes a resume. S3 reports success for a missing key.
func (m *MinioBackend) Delete(ctx context.Context, key string) error {
	return minioError(m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}))
}

func (m *MinioBackend) Bucket() string {
	return m.bucket
}

// minioError maps a missing object to store.ErrNotFound.
func minioError(err error) error {
	if err == nil {
		return nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return store.ErrNotFound
	}
	return err
}
