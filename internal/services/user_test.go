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

func register(t *testing.T, f *fixture, username, email string) types.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Name:     username,
		Password: "correct horse",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterBootstrapsOwner(t *testing.T) {
	f := newFixture(t)

	owner := register(t, f, "boss", "Owner@Example.com")
	assert.Equal(t, roles.Owner, owner.Role)
	assert.Equal(t, "owner@example.com", owner.Email)
	assert.True(t, owner.IsActive)
	assert.NotEqual(t, "correct horse", owner.PasswordHash)

	seeker := register(t, f, "grace", "grace@example.com")
	assert.Equal(t, roles.Applicant, seeker.Role)
}

func TestRegisterRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	employer, err := f.users.Register(ctx, RegisterInput{
		Username: "acme", Email: "hr@acme.test", Name: "Acme HR", Password: "password1",
		CompanyName: "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, roles.Employer, employer.Role)
	assert.Equal(t, "Acme", employer.CompanyName)

	_, err = f.users.Register(ctx, RegisterInput{
		Username: "mallory", Email: "m@example.com", Name: "M", Password: "password1", Role: "admin",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.users.Register(ctx, RegisterInput{
		Username: "shorty", Email: "s@example.com", Name: "S", Password: "short",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.users.Register(ctx, RegisterInput{
		Username: "acme", Email: "other@acme.test", Name: "Dup", Password: "password1",
	})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestRegisterClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.settings.Seed(ctx)
	require.NoError(t, err)
	admin := f.user(t, "root", roles.SuperAdmin)

	_, err = f.settings.Update(ctx, admin, []SettingValue{{Key: "enable_registrations", Value: "false"}})
	require.NoError(t, err)

	_, err = f.users.Register(ctx, RegisterInput{
		Username: "late", Email: "late@example.com", Name: "Late", Password: "password1",
	})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grace := register(t, f, "grace", "grace@example.com")

	u, err := f.users.Authenticate(ctx, "grace", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, grace.ID, u.ID)

	u, err = f.users.Authenticate(ctx, "GRACE@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, grace.ID, u.ID)

	_, err = f.users.Authenticate(ctx, "grace", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.users.Authenticate(ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	admin := f.user(t, "root", roles.Admin)
	inactive := false
	_, err = f.users.UpdateAccount(ctx, admin, grace.ID, AccountInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.users.Authenticate(ctx, "grace", "correct horse")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestUpdateProfileRoleSwitch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seeker := f.user(t, "grace", roles.Applicant)

	updated, err := f.users.UpdateProfile(ctx, seeker, ProfileUpdate{
		Role:    "Employer",
		Profile: types.Profile{CompanyName: "Grace Labs"},
	})
	require.NoError(t, err)
	assert.Equal(t, roles.Employer, updated.Role)
	assert.Equal(t, "Grace Labs", updated.CompanyName)

	_, err = f.users.UpdateProfile(ctx, updated, ProfileUpdate{Role: roles.Admin})
	assert.ErrorIs(t, err, ErrForbidden)

	admin := f.user(t, "root", roles.Admin)
	_, err = f.users.UpdateProfile(ctx, admin, ProfileUpdate{Role: roles.Applicant})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "root", roles.Admin)
	seeker := f.user(t, "grace", roles.Applicant)

	promoted, err := f.users.SetRole(ctx, admin, seeker.ID, roles.Employer)
	require.NoError(t, err)
	assert.Equal(t, roles.Employer, promoted.Role)

	_, err = f.users.SetRole(ctx, admin, seeker.ID, roles.Admin)
	assert.ErrorIs(t, err, roles.ErrInsufficientRole)

	_, err = f.users.SetRole(ctx, admin, seeker.ID, roles.SuperAdmin)
	assert.ErrorIs(t, err, roles.ErrForbiddenRole)

	_, err = f.users.SetRole(ctx, admin, seeker.ID, "janitor")
	assert.ErrorIs(t, err, roles.ErrUnknownRole)
}

func TestSetRoleTransfersOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "boss", roles.Owner)
	heir := f.user(t, "heir", roles.SuperAdmin)

	_, err := f.users.SetRole(ctx, heir, owner.ID, roles.Admin)
	assert.ErrorIs(t, err, roles.ErrOwnerProtected)

	_, err = f.users.SetRole(ctx, owner, owner.ID, roles.Admin)
	assert.ErrorIs(t, err, ErrForbidden)

	newOwner, err := f.users.SetRole(ctx, owner, heir.ID, roles.Owner)
	require.NoError(t, err)
	assert.Equal(t, roles.Owner, newOwner.Role)

	former, err := f.users.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, roles.SuperAdmin, former.Role)

	current, err := f.db.Users().GetOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, heir.ID, current.ID)
}

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "root", roles.Admin)
	super := f.user(t, "super", roles.SuperAdmin)

	in := AccountInput{Username: "ops", Email: "ops@example.com", Name: "Ops", Password: "password1", Role: roles.Admin}

	_, err := f.users.CreateAccount(ctx, admin, in)
	assert.ErrorIs(t, err, roles.ErrInsufficientRole)

	created, err := f.users.CreateAccount(ctx, super, in)
	require.NoError(t, err)
	assert.Equal(t, roles.Admin, created.Role)
	assert.True(t, created.IsActive)

	in.Username, in.Email, in.Role = "king", "king@example.com", roles.Owner
	_, err = f.users.CreateAccount(ctx, super, in)
	assert.ErrorIs(t, err, ErrValidation)

	company, err := f.users.CreateCompany(ctx, admin, AccountInput{
		Username: "initech", Email: "jobs@initech.test", Name: "Initech", Password: "password1",
		Profile: types.Profile{CompanyName: "Initech"},
	})
	require.NoError(t, err)
	assert.Equal(t, roles.Employer, company.Role)

	_, err = f.users.CreateCompany(ctx, admin, AccountInput{Username: "x", Email: "x@example.com", Name: "X", Password: "password1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateAccountCannotDeactivateSelf(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", roles.Admin)
	inactive := false

	_, err := f.users.UpdateAccount(context.Background(), admin, admin.ID, AccountInput{IsActive: &inactive})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteUsersProtectsOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "boss", roles.Owner)
	super := f.user(t, "super", roles.SuperAdmin)
	seeker := f.user(t, "grace", roles.Applicant)

	_, err := f.users.Delete(ctx, super, []int{seeker.ID, owner.ID})
	assert.ErrorIs(t, err, roles.ErrOwnerProtected)

	_, err = f.users.GetByID(ctx, seeker.ID)
	assert.NoError(t, err, "a refused batch deletes nothing")

	_, err = f.users.Delete(ctx, super, []int{super.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.users.Delete(ctx, owner, []int{owner.ID})
	assert.ErrorIs(t, err, roles.ErrOwnerProtected)
}

func TestDeleteUsersRequiresHigherRank(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "root", roles.Admin)
	peer := f.user(t, "peer", roles.Admin)

	_, err := f.users.Delete(context.Background(), admin, []int{peer.ID})
	assert.ErrorIs(t, err, roles.ErrInsufficientRole)
}

func TestDeleteUsersCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	employer, job := f.seedJob(t)
	admin := f.user(t, "root", roles.Admin)
	seeker := f.user(t, "grace", roles.Applicant)

	_, err := f.applications.Submit(ctx, &seeker, SubmitInput{JobSlug: job.Slug, Resume: textResume("cv")})
	require.NoError(t, err)

	deleted, err := f.users.Delete(ctx, admin, []int{employer.ID, 4242})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Zero(t, f.db.JobCount())
	assert.Zero(t, f.db.ApplicationCount())

	_, err = f.users.GetByID(ctx, seeker.ID)
	assert.NoError(t, err)
}

func TestListUsersValidatesFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "acme", roles.Employer)
	f.user(t, "grace", roles.Applicant)

	employers, err := f.users.List(ctx, types.UserFilter{Type: "employer"})
	require.NoError(t, err)
	require.Len(t, employers, 1)
	assert.Equal(t, "acme", employers[0].Username)

	_, err = f.users.List(ctx, types.UserFilter{Type: "robot"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.users.List(ctx, types.UserFilter{Role: "janitor"})
	assert.ErrorIs(t, err, ErrValidation)
}
