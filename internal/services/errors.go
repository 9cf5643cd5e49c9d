package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jobportal/apiserver/types"
)

var (
	// ErrValidation marks errors caused by bad input. Use errors.Is to detect it;
	// the error text is safe to show to clients.
	ErrValidation = errors.New("validation failed")
	// ErrResumeRequired is returned when an application carries no resume.
	ErrResumeRequired = errors.New("resume is required")
	// ErrCategoriesInUse is matched by *CategoriesInUseError.
	ErrCategoriesInUse = errors.New("categories have jobs")
	// ErrForbidden is returned when the actor may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned by Authenticate for unknown users and bad passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned by Authenticate for inactive accounts.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrRegistrationClosed is returned when the enable_registrations setting is off.
	ErrRegistrationClosed = errors.New("registrations are disabled")
)

type validationErr struct {
	msg string
}

func (e *validationErr) Error() string { return e.msg }

func (e *validationErr) Is(target error) bool { return target == ErrValidation }

func validationError(format string, args ...any) error {
	return &validationErr{msg: fmt.Sprintf(format, args...)}
}

type forbiddenErr struct {
	msg string
}

func (e *forbiddenErr) Error() string { return e.msg }

func (e *forbiddenErr) Is(target error) bool { return target == ErrForbidden }

func forbidden(msg string) error {
	return &forbiddenErr{msg: msg}
}

// CategoriesInUseError lists the categories that still have jobs.
type CategoriesInUseError struct {
	Usage []types.CategoryUsage
}

func (e *CategoriesInUseError) Error() string {
	ids := make([]string, len(e.Usage))
	for i, u := range e.Usage {
		ids[i] = fmt.Sprint(u.CategoryID)
	}
	return "categories still have jobs: " + strings.Join(ids, ", ")
}

func (e *CategoriesInUseError) Is(target error) bool { return target == ErrCategoriesInUse }

func requireIDs(ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, validationError("ids are required")
	}
	for _, id := range ids {
		if id < 1 {
			return nil, validationError("invalid id %d", id)
		}
	}
	return ids, nil
}
