package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	for i, role := range All {
		assert.Equal(t, i, Level(role), role)
	}
	assert.Equal(t, 0, Level("intern"))
	assert.Equal(t, 0, Level(""))
	assert.Equal(t, 2, Level("  ADMIN "))
}

func TestHasPermissionMatchesLevels(t *testing.T) {
	for _, r1 := range All {
		for _, r2 := range All {
			assert.Equal(t, Level(r1) >= Level(r2), HasPermission(r1, r2), "%s vs %s", r1, r2)
		}
	}
}

func TestHasPermissionReflexiveAndTransitive(t *testing.T) {
	for _, r := range All {
		assert.True(t, HasPermission(r, r), r)
	}
	for _, a := range All {
		for _, b := range All {
			for _, c := range All {
				if HasPermission(a, b) && HasPermission(b, c) {
					assert.True(t, HasPermission(a, c), "%s >= %s >= %s", a, b, c)
				}
			}
		}
	}
}

func TestDerivedPredicates(t *testing.T) {
	assert.False(t, IsEmployerOrAbove(Applicant))
	assert.True(t, IsEmployerOrAbove(Employer))
	assert.False(t, IsAdminOrAbove(Employer))
	assert.True(t, IsAdminOrAbove(Admin))
	assert.True(t, IsAdminOrAbove(Owner))
	assert.False(t, IsOwnerOrSuperadmin(Admin))
	assert.True(t, IsOwnerOrSuperadmin(SuperAdmin))
	assert.True(t, IsOwnerOrSuperadmin(Owner))
	assert.False(t, IsAdminOrAbove("root"))
}

func TestCanManage(t *testing.T) {
	owner := Subject{ID: 1, Role: Owner}
	super := Subject{ID: 2, Role: SuperAdmin}
	admin := Subject{ID: 3, Role: Admin}
	otherAdmin := Subject{ID: 4, Role: Admin}
	seeker := Subject{ID: 5, Role: Applicant}

	tests := []struct {
		name   string
		actor  Subject
		target Subject
		want   error
	}{
		{"owner manages superadmin", owner, super, nil},
		{"owner manages self", owner, owner, nil},
		{"superadmin cannot touch owner", super, owner, ErrOwnerProtected},
		{"admin cannot touch owner", admin, owner, ErrOwnerProtected},
		{"admin manages applicant", admin, seeker, nil},
		{"admin cannot manage peer", admin, otherAdmin, ErrInsufficientRole},
		{"admin cannot manage superadmin", admin, super, ErrInsufficientRole},
		{"applicant manages self", seeker, seeker, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, CanManage(tt.actor, tt.target), tt.want)
			if tt.want == nil {
				assert.NoError(t, CanManage(tt.actor, tt.target))
			}
		})
	}
}

func TestCanAssign(t *testing.T) {
	owner := Subject{ID: 1, Role: Owner}
	super := Subject{ID: 2, Role: SuperAdmin}
	admin := Subject{ID: 3, Role: Admin}
	seeker := Subject{ID: 5, Role: Applicant}

	assert.NoError(t, CanAssign(owner, seeker, SuperAdmin))
	assert.NoError(t, CanAssign(owner, seeker, Owner))
	assert.ErrorIs(t, CanAssign(super, seeker, SuperAdmin), ErrForbiddenRole)
	assert.ErrorIs(t, CanAssign(super, seeker, Owner), ErrForbiddenRole)
	assert.NoError(t, CanAssign(super, seeker, Admin))
	assert.ErrorIs(t, CanAssign(admin, seeker, Admin), ErrInsufficientRole)
	assert.NoError(t, CanAssign(admin, seeker, Employer))
	assert.ErrorIs(t, CanAssign(super, owner, Applicant), ErrOwnerProtected)
	assert.ErrorIs(t, CanAssign(admin, admin, Employer), ErrInsufficientRole)
	assert.ErrorIs(t, CanAssign(owner, seeker, "god"), ErrUnknownRole)
}
