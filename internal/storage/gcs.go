package storage

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/jobportal/apiserver/config"
	"github.com/jobportal/apiserver/internal/store"
	"google.golang.org/api/option"
)

// GCSBackend archives resumes in a Google Cloud Storage bucket.
type GCSBackend struct {
	client    *storage.Client
	bucket    string
	projectID string
}

// NewGCSBackend constructs a GCS backend from config.
func NewGCSBackend(ctx context.Context, cfg config.GCSConfig) (*GCSBackend, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSBackend{
		client:    client,
		bucket:    cfg.Bucket,
		projectID: cfg.ProjectID,
	}, nil
}

func (g *GCSBackend) EnsureBucket(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create bucket")
	}
	return g.client.Bucket(g.bucket).Create(ctx, g.projectID, nil)
}

// Put uploads a resume in a single request. Keys are fresh UUIDs, so the
// write is made conditional on the object not existing yet.
func (g *GCSBackend) Put(ctx context.Context, key string, data []byte, attrs ResumeAttrs) error {
	obj := g.client.Bucket(g.bucket).Object(key).If(storage.Conditions{DoesNotExist: true})
	writer := obj.NewWriter(ctx)
	writer.ContentType = attrs.ContentType
	writer.ContentDisposition = "attachment"
	writer.Metadata = map[string]string{filenameMetaKey: attrs.Filename}
	writer.ChunkSize = 0
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// Get reads the resume's attributes first and then pins the reader to that
// generation, so the attributes always describe the bytes returned.
func (g *GCSBackend) Get(ctx context.Context, key string) (*Resume, error) {
	obj := g.client.Bucket(g.bucket).Object(key)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, gcsError(err)
	}
	reader, err := obj.Generation(attrs.Generation).NewReader(ctx)
	if err != nil {
		return nil, gcsError(err)
	}
	return &Resume{
		ReadCloser: reader,
		ResumeAttrs: ResumeAttrs{
			Filename:    attrs.Metadata[filenameMetaKey],
			ContentType: attrs.ContentType,
			Size:        attrs.Size,
		},
	}, nil
}

// Delete removes a resume. A resume that is already gone is not an error.
func (g *GCSBackend) Delete(ctx context.Context, key string) error {
	err := gcsError(g.client.Bucket(g.bucket).Object(key).Delete(ctx))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (g *GCSBackend) Bucket() string {
	return g.bucket
}

// gcsError maps a missing object to store.ErrNotFound.
func gcsError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return store.ErrNotFound
	}
	return err
}
