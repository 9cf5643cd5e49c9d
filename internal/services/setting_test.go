package services

import (
	"context"
	"testing"

	"github.com/jobportal/apiserver/internal/roles"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/internal/store/memory"
	"github.com/jobportal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inserted, err := f.settings.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(types.DefaultSettings), inserted)

	admin := f.user(t, "root", roles.SuperAdmin)
	_, err = f.settings.Update(ctx, admin, []SettingValue{{Key: "site_name", Value: "Hire Me"}})
	require.NoError(t, err)

	inserted, err = f.settings.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	s, err := f.settings.Get(ctx, "site_name")
	require.NoError(t, err)
	assert.Equal(t, "Hire Me", s.Value)
	require.NotNil(t, s.UpdatedBy)
	assert.Equal(t, admin.ID, *s.UpdatedBy)
}

func TestUpdateSettingsValidatesBeforeWriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.settings.Seed(ctx)
	require.NoError(t, err)
	admin := f.user(t, "root", roles.SuperAdmin)

	_, err = f.settings.Update(ctx, admin, []SettingValue{
		{Key: "site_name", Value: "Changed"},
		{Key: "max_jobs_per_employer", Value: "many"},
	})
	assert.ErrorIs(t, err, ErrValidation)

	s, err := f.settings.Get(ctx, "site_name")
	require.NoError(t, err)
	assert.Equal(t, "Job Portal", s.Value)

	_, err = f.settings.Update(ctx, admin, []SettingValue{{Key: "no_such_key", Value: "1"}})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.settings.Update(ctx, admin, nil)
	assert.ErrorIs(t, err, ErrValidation)

	list, err := f.settings.Update(ctx, admin, []SettingValue{
		{Key: "maintenance_mode", Value: "TRUE"},
		{Key: "max_jobs_per_employer", Value: " 25 "},
	})
	require.NoError(t, err)
	values := make(map[string]string, len(list))
	for _, s := range list {
		values[s.Key] = s.Value
	}
	assert.Equal(t, "true", values["maintenance_mode"])
	assert.Equal(t, "25", values["max_jobs_per_employer"])
}

func TestNewsletterSubscribe(t *testing.T) {
	svc := NewNewsletterService(memory.New().Newsletter())
	ctx := context.Background()

	added, err := svc.Subscribe(ctx, "Reader@Example.com")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = svc.Subscribe(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = svc.Subscribe(ctx, "not-an-email")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, job := f.seedJob(t)
	seeker := f.user(t, "grace", roles.Applicant)
	_, err := f.applications.Submit(ctx, &seeker, SubmitInput{JobSlug: job.Slug, Resume: textResume("cv")})
	require.NoError(t, err)

	stats, err := NewStatsService(f.db.Stats()).Dashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, stats.Trend, 30)
	assert.Equal(t, 1, stats.Totals.ActiveJobs)
	assert.Equal(t, 1, stats.Totals.TotalApplications)
	assert.Equal(t, 1, stats.Totals.TotalEmployers)
	assert.Equal(t, 1, stats.Totals.TotalSeekers)
	require.Len(t, stats.Activity, 1)
	assert.Equal(t, "application", stats.Activity[0].Type)
	assert.Equal(t, job.Title, stats.Activity[0].Target)
	require.Len(t, stats.Distribution, 1)
	assert.Equal(t, "Engineering", stats.Distribution[0].Name)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Senior Go Engineer":    "senior-go-engineer",
		"  Café Crème  ":        "cafe-creme",
		"C++ / Rust -- Dev!!":   "c-rust-dev",
		"---":                   "",
		"2026 Grad Program":     "2026-grad-program",
		"already-slugged-value": "already-slugged-value",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := normalizeEmail("  Ada@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got)

	for _, bad := range []string{"", "ada", "Ada <ada@example.com>", "ada@"} {
		_, err := normalizeEmail(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}
