// Package roles implements the account role hierarchy used to authorize
// every protected route and mutation.
package roles

import (
	"errors"
	"strings"
)

const (
	Applicant  = "applicant"
	Employer   = "employer"
	Admin      = "admin"
	SuperAdmin = "superadmin"
	Owner      = "owner"
)

var (
	// ErrOwnerProtected is returned when anyone but the owner tries to modify the owner account.
	ErrOwnerProtected = errors.New("the owner account can only be modified by the owner")
	// ErrForbiddenRole is returned when a non-owner tries to grant owner or superadmin.
	ErrForbiddenRole = errors.New("only the owner can grant this role")
	// ErrInsufficientRole is returned when the actor ranks at or below the target account.
	ErrInsufficientRole = errors.New("insufficient role")
	// ErrUnknownRole is returned for role names outside the hierarchy.
	ErrUnknownRole = errors.New("unknown role")
)

var levels = map[string]int{
	Applicant:  0,
	Employer:   1,
	Admin:      2,
	SuperAdmin: 3,
	Owner:      4,
}

// All lists the roles from lowest to highest.
var All = []string{Applicant, Employer, Admin, SuperAdmin, Owner}

// Normalize trims and lower-cases a role name.
func Normalize(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// Valid reports whether role names a level in the hierarchy.
func Valid(role string) bool {
	_, ok := levels[Normalize(role)]
	return ok
}

// Level returns the rank of role. Unknown roles rank as applicant.
func Level(role string) int {
	return levels[Normalize(role)]
}

// HasPermission reports whether actor ranks at least as high as required.
func HasPermission(actor, required string) bool {
	return Level(actor) >= Level(required)
}

func IsEmployerOrAbove(role string) bool {
	return HasPermission(role, Employer)
}

func IsAdminOrAbove(role string) bool {
	return HasPermission(role, Admin)
}

func IsOwnerOrSuperadmin(role string) bool {
	return HasPermission(role, SuperAdmin)
}

// Subject is the minimal view of an account needed for authorization decisions.
type Subject struct {
	ID   int
	Role string
}

// CanManage decides whether actor may edit or delete target.
// The owner account is only manageable by itself; anyone else needs a
// strictly higher rank than the target.
func CanManage(actor, target Subject) error {
	if actor.ID == target.ID {
		return nil
	}
	if Normalize(target.Role) == Owner {
		return ErrOwnerProtected
	}
	if Normalize(actor.Role) == Owner {
		return nil
	}
	if Level(actor.Role) <= Level(target.Role) {
		return ErrInsufficientRole
	}
	return nil
}

// CanAssign decides whether actor may set target's role to newRole.
func CanAssign(actor, target Subject, newRole string) error {
	newRole = Normalize(newRole)
	if !Valid(newRole) {
		return ErrUnknownRole
	}
	actorIsOwner := Normalize(actor.Role) == Owner
	if Normalize(target.Role) == Owner && !(actorIsOwner && actor.ID == target.ID) {
		return ErrOwnerProtected
	}
	if (newRole == Owner || newRole == SuperAdmin) && !actorIsOwner {
		return ErrForbiddenRole
	}
	if actorIsOwner {
		return nil
	}
	if actor.ID == target.ID {
		return ErrInsufficientRole
	}
	if err := CanManage(actor, target); err != nil {
		return err
	}
	if Level(newRole) >= Level(actor.Role) {
		return ErrInsufficientRole
	}
	return nil
}
