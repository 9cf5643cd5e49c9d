package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jobportal/apiserver/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func q(s string) string {
	return regexp.QuoteMeta(s)
}

func TestCategoryDeleteUnreferencedRefusesWhenJobsExist(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM jobs WHERE category_id = ANY($1) FOR SHARE")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "count"}).AddRow(7, 2))
	mock.ExpectCommit()

	deleted, usage, err := repo.DeleteUnreferenced(context.Background(), []int{7, 8})
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
	assert.Equal(t, []types.CategoryUsage{{CategoryID: 7, Count: 2}}, usage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryDeleteUnreferencedDeletesUnusedCategories(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCategoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM jobs WHERE category_id = ANY($1) FOR SHARE")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "count"}))
	mock.ExpectExec(q("DELETE FROM categories WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	deleted, usage, err := repo.DeleteUnreferenced(context.Background(), []int{7, 8})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Empty(t, usage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobDeleteCascadeRemovesApplicationsFirst(t *testing.T) {
	db, mock := newMock(t)
	repo := NewJobRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM applications WHERE job_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(q("DELETE FROM jobs WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.DeleteCascade(context.Background(), []int{3})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobDeleteCascadeRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewJobRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("DELETE FROM applications WHERE job_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(q("DELETE FROM jobs WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := repo.DeleteCascade(context.Background(), []int{3})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobSetActiveReturnsUpdatedIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewJobRepository(db)

	mock.ExpectQuery(q("UPDATE jobs SET is_active = $1")).
		WithArgs(false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(3))

	ids, err := repo.SetActive(context.Background(), []int{1, 2, 3}, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationCreateMapsUniqueViolationToConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(q("INSERT INTO applications")).
		WillReturnError(&pq.Error{Code: "23505"})

	applicantID := 4
	_, err := repo.Create(context.Background(), types.Application{
		JobID:          1,
		ApplicantID:    &applicantID,
		ApplicantName:  "Ada",
		ApplicantEmail: "ada@example.com",
		ResumeType:     types.ResumeText,
		ResumeText:     "resume",
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationCreateDefaultsToPending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(q("INSERT INTO applications")).
		WithArgs(1, nil, "Ada", "ada@example.com", types.StatusPending, types.ResumeText,
			"resume", "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	app, err := repo.Create(context.Background(), types.Application{
		JobID:          1,
		ApplicantName:  "Ada",
		ApplicantEmail: "ada@example.com",
		ResumeType:     types.ResumeText,
		ResumeText:     "resume",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, app.ID)
	assert.Equal(t, types.StatusPending, app.Status)
	assert.False(t, app.AppliedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserTransferOwnership(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE users SET role = 'superadmin'")).
		WithArgs(sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE users SET role = 'owner'")).
		WithArgs(sqlmock.AnyArg(), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.TransferOwnership(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserTransferOwnershipMissingTargetRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE users SET role = 'superadmin'")).
		WithArgs(sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE users SET role = 'owner'")).
		WithArgs(sqlmock.AnyArg(), 99).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.TransferOwnership(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteCascadeOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	for _, stmt := range []string{
		"DELETE FROM passkeys",
		"DELETE FROM sessions",
		"DELETE FROM accounts",
		"DELETE FROM applications WHERE job_id IN",
		"DELETE FROM jobs WHERE employer_id",
		"DELETE FROM applications WHERE applicant_id",
	} {
		mock.ExpectExec(q(stmt)).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(q("DELETE FROM users WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	deleted, err := repo.DeleteCascade(context.Background(), []int{5, 6})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505"}), ErrConflict)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23503"}), ErrReferenced)

	other := errors.New("other")
	assert.Equal(t, other, mapError(other))
}
