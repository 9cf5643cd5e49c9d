package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jobportal/apiserver/internal/roles"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/internal/store/memory"
	"github.com/jobportal/apiserver/types"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishJSON(_ context.Context, channel string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{channel: channel, payload: payload})
	return fmt.Sprintf("msg-%d", len(p.events)), nil
}

func (p *recordingPublisher) on(channel string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, e := range p.events {
		if e.channel == channel {
			out = append(out, e.payload)
		}
	}
	return out
}

type memoryArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	n       int
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{objects: make(map[string][]byte)}
}

func (a *memoryArchive) ArchiveResume(_ context.Context, filename, _ string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.n++
	key := fmt.Sprintf("resumes/%d-%s", a.n, filename)
	a.objects[key] = append([]byte(nil), data...)
	return key, nil
}

func (a *memoryArchive) OpenResume(_ context.Context, key string) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *memoryArchive) DeleteResume(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, key)
	return nil
}

func (a *memoryArchive) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.objects)
}

type fixture struct {
	db      *memory.DB
	events  *recordingPublisher
	archive *memoryArchive

	users        *UserService
	jobs         *JobService
	categories   *CategoryService
	applications *ApplicationService
	settings     *SettingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	f := &fixture{
		db:      db,
		events:  &recordingPublisher{},
		archive: newMemoryArchive(),
	}
	f.users = NewUserService(db.Users(), db.Settings(), "owner@example.com")
	f.jobs = NewJobService(db.Jobs())
	f.categories = NewCategoryService(db.Categories())
	f.applications = NewApplicationService(db.Applications(), db.Jobs(), f.archive, f.events)
	f.settings = NewSettingService(db.Settings())
	return f
}

// user stores an account directly, bypassing password hashing.
func (f *fixture) user(t *testing.T, username, role string) types.User {
	t.Helper()
	u, err := f.db.Users().Create(context.Background(), types.User{
		Username: username,
		Email:    username + "@example.com",
		Name:     username,
		Role:     role,
		IsActive: true,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) category(t *testing.T, name string) types.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), types.Category{Name: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) job(t *testing.T, employer types.User, category types.Category, title string) types.Job {
	t.Helper()
	job, err := f.jobs.Create(context.Background(), employer, JobInput{
		Title:       title,
		Description: title + " description",
		CategoryID:  category.ID,
	})
	require.NoError(t, err)
	return job
}

func (f *fixture) seedJob(t *testing.T) (types.User, types.Job) {
	t.Helper()
	employer := f.user(t, "acme", roles.Employer)
	return employer, f.job(t, employer, f.category(t, "Engineering"), "Backend Engineer")
}

func textResume(body string) *ResumeUpload {
	return &ResumeUpload{Field: ResumeFieldText, Data: []byte(body)}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
