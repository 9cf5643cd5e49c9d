package services

import (
	"context"
	"testing"

	"github.com/jobportal/apiserver/internal/roles"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateJobSlugSuffixes(t *testing.T) {
	f := newFixture(t)
	employer := f.user(t, "acme", roles.Employer)
	category := f.category(t, "Engineering")

	first := f.job(t, employer, category, "Senior Go Engineer")
	second := f.job(t, employer, category, "Senior Go Engineer")
	third := f.job(t, employer, category, "Senior  Go -- Engineer!")

	assert.Equal(t, "senior-go-engineer", first.Slug)
	assert.Equal(t, "senior-go-engineer-1", second.Slug)
	assert.Equal(t, "senior-go-engineer-2", third.Slug)
	assert.Equal(t, types.JobTypeFullTime, first.JobType)
	assert.True(t, first.IsActive)
}

func TestCreateJobValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	employer := f.user(t, "acme", roles.Employer)
	seeker := f.user(t, "grace", roles.Applicant)
	category := f.category(t, "Engineering")

	_, err := f.jobs.Create(ctx, seeker, JobInput{Title: "x", Description: "y", CategoryID: category.ID})
	assert.ErrorIs(t, err, roles.ErrInsufficientRole)

	_, err = f.jobs.Create(ctx, employer, JobInput{Title: "x", CategoryID: category.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.jobs.Create(ctx, employer, JobInput{Title: "x", Description: "y", CategoryID: category.ID, JobType: "XX"})
	assert.ErrorIs(t, err, ErrValidation)

	lo, hi := int64(9000), int64(5000)
	_, err = f.jobs.Create(ctx, employer, JobInput{Title: "x", Description: "y", CategoryID: category.ID, SalaryMin: &lo, SalaryMax: &hi})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.jobs.Create(ctx, employer, JobInput{Title: "x", Description: "y", CategoryID: 999})
	assert.ErrorIs(t, err, ErrValidation)

	other := f.user(t, "initech", roles.Employer)
	_, err = f.jobs.Create(ctx, employer, JobInput{Title: "x", Description: "y", CategoryID: category.ID, EmployerID: other.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	admin := f.user(t, "root", roles.Admin)
	job, err := f.jobs.Create(ctx, admin, JobInput{Title: "x", Description: "y", CategoryID: category.ID, EmployerID: other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, job.EmployerID)
}

func TestUpdateJobOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	employer, job := f.seedJob(t)
	rival := f.user(t, "rival", roles.Employer)

	_, err := f.jobs.Update(ctx, rival, job.ID, JobInput{Title: "Hijacked"})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.jobs.Update(ctx, employer, job.ID, JobInput{Title: "Staff Engineer", JobType: "rm"})
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", updated.Title)
	assert.Equal(t, types.JobTypeRemote, updated.JobType)
	assert.Equal(t, job.Slug, updated.Slug)

	assert.ErrorIs(t, f.jobs.Delete(ctx, rival, job.ID), ErrForbidden)
	assert.NoError(t, f.jobs.Delete(ctx, employer, job.ID))
	assert.ErrorIs(t, f.jobs.Delete(ctx, employer, job.ID), store.ErrNotFound)
}

func TestPublicJobVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	employer, job := f.seedJob(t)
	hidden := f.job(t, employer, f.category(t, "Design"), "Designer")

	_, err := f.jobs.SetActive(ctx, []int{hidden.ID}, false)
	require.NoError(t, err)

	jobs, total, err := f.jobs.ListPublic(ctx, types.JobFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)
	assert.Equal(t, "Engineering", jobs[0].CategoryName)

	_, err = f.jobs.GetPublic(ctx, hidden.Slug)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := f.jobs.GetBySlug(ctx, hidden.Slug)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	all, total, err := f.jobs.List(ctx, types.JobFilter{Query: "design"}, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, all, 1)
}

func TestSetActiveReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, job := f.seedJob(t)

	report, err := f.jobs.SetActive(ctx, []int{job.ID, 31337}, false)
	require.NoError(t, err)
	assert.Equal(t, []int{job.ID}, report.Succeeded)
	assert.Equal(t, []types.BatchFailure{{ID: 31337, Error: "not found"}}, report.Failed)

	_, err = f.jobs.SetActive(ctx, []int{}, true)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteManyJobsCascadesApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	employer, job := f.seedJob(t)
	other := f.job(t, employer, f.category(t, "Design"), "Designer")
	seeker := f.user(t, "grace", roles.Applicant)

	for _, slug := range []string{job.Slug, other.Slug} {
		_, err := f.applications.Submit(ctx, &seeker, SubmitInput{JobSlug: slug, Resume: textResume("cv")})
		require.NoError(t, err)
	}
	require.Equal(t, 2, f.db.ApplicationCount())

	deleted, err := f.jobs.DeleteMany(ctx, []int{job.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 1, f.db.JobCount())
	assert.Equal(t, 1, f.db.ApplicationCount())
}

func TestDeleteCategoriesInUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, job := f.seedJob(t)
	unused := f.category(t, "Marketing")

	_, err := f.categories.Delete(ctx, []int{job.CategoryID, unused.ID})
	require.ErrorIs(t, err, ErrCategoriesInUse)

	var inUse *CategoriesInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, []types.CategoryUsage{{CategoryID: job.CategoryID, Count: 1}}, inUse.Usage)

	_, err = f.categories.Get(ctx, unused.ID)
	assert.NoError(t, err, "nothing is deleted when any category is in use")

	deleted, err := f.categories.Delete(ctx, []int{unused.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestCategoryCreateAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.categories.Create(ctx, types.Category{Name: "  Data Science  "})
	require.NoError(t, err)
	assert.Equal(t, "Data Science", c.Name)
	assert.Equal(t, "data-science", c.Slug)

	_, err = f.categories.Create(ctx, types.Category{Name: "Data-Science"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = f.categories.Create(ctx, types.Category{Name: " "})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := f.categories.Update(ctx, types.Category{ID: c.ID, Description: "Numbers"})
	require.NoError(t, err)
	assert.Equal(t, "Data Science", updated.Name)
	assert.Equal(t, "data-science", updated.Slug)
	assert.Equal(t, "Numbers", updated.Description)
}
