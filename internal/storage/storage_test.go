package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/jobportal/apiserver/config"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	objects map[string][]byte
	attrs   map[string]ResumeAttrs
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		objects: map[string][]byte{},
		attrs:   map[string]ResumeAttrs{},
	}
}

func (m *memoryBackend) EnsureBucket(context.Context) error { return nil }

func (m *memoryBackend) Put(_ context.Context, key string, data []byte, attrs ResumeAttrs) error {
	m.objects[key] = append([]byte(nil), data...)
	m.attrs[key] = attrs
	return nil
}

func (m *memoryBackend) Get(_ context.Context, key string) (*Resume, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &Resume{ReadCloser: io.NopCloser(bytes.NewReader(data)), ResumeAttrs: m.attrs[key]}, nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memoryBackend) Bucket() string { return "resumes-test" }

func TestResumeKey(t *testing.T) {
	key := ResumeKey("CV.PDF")
	assert.True(t, strings.HasPrefix(key, "resumes/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.Len(t, key, len("resumes/")+36+len(".pdf"))
	assert.NotEqual(t, key, ResumeKey("CV.PDF"))

	assert.Len(t, ResumeKey("resume"), len("resumes/")+36)
}

func TestArchiveAndOpenResume(t *testing.T) {
	backend := newMemoryBackend()
	s := NewStorage(backend)
	ctx := context.Background()

	key, err := s.ArchiveResume(ctx, "docs/cv.pdf", "", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, ResumeAttrs{Filename: "cv.pdf", ContentType: "application/octet-stream", Size: 8}, backend.attrs[key])

	rc, err := s.OpenResume(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	res, ok := rc.(*Resume)
	require.True(t, ok)
	assert.Equal(t, "cv.pdf", res.Filename)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, s.DeleteResume(ctx, key))
	_, err = s.OpenResume(ctx, key)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, s.DeleteResume(ctx, key))
}

func TestOpenResumeDefaultsFilenameToKey(t *testing.T) {
	backend := newMemoryBackend()
	backend.objects["resumes/abc.txt"] = []byte("cv")
	s := NewStorage(backend)

	rc, err := s.OpenResume(context.Background(), "resumes/abc.txt")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "abc.txt", rc.(*Resume).Filename)
}

func TestOpenResumeRejectsForeignKeys(t *testing.T) {
	s := NewStorage(newMemoryBackend())
	_, err := s.OpenResume(context.Background(), "secrets/config.json")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)

	assert.Error(t, s.DeleteResume(context.Background(), "secrets/config.json"))
}

func TestMinioErrorMapsMissingKey(t *testing.T) {
	assert.NoError(t, minioError(nil))
	assert.ErrorIs(t, minioError(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}), store.ErrNotFound)

	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}
	assert.NotErrorIs(t, minioError(denied), store.ErrNotFound)
	assert.NotErrorIs(t, minioError(minio.ErrorResponse{Code: "NoSuchBucket"}), store.ErrNotFound)
}

func TestGCSErrorMapsMissingObject(t *testing.T) {
	assert.NoError(t, gcsError(nil))
	assert.ErrorIs(t, gcsError(gcs.ErrObjectNotExist), store.ErrNotFound)
	assert.ErrorIs(t, gcsError(fmt.Errorf("attrs: %w", gcs.ErrObjectNotExist)), store.ErrNotFound)
	assert.NotErrorIs(t, gcsError(gcs.ErrBucketNotExist), store.ErrNotFound)
}

func TestNewFromConfig(t *testing.T) {
	s, err := NewFromConfig(context.Background(), config.StorageConfig{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = NewFromConfig(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)

	_, err = NewFromConfig(context.Background(), config.StorageConfig{Backend: "minio"})
	assert.ErrorContains(t, err, "endpoint")
}
