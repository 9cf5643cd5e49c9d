package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jobportal/apiserver/internal/roles"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetOwner(ctx context.Context) (types.User, error)
	List(ctx context.Context, filter types.UserFilter) ([]types.User, error)
	ListByIDs(ctx context.Context, ids []int) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	TransferOwnership(ctx context.Context, currentOwnerID, newOwnerID int) error
	DeleteCascade(ctx context.Context, ids []int) (int, error)
	ListCompanies(ctx context.Context) ([]types.Company, error)
	GetCompany(ctx context.Context, id int) (types.Company, error)
}

// SettingReader looks up a single site setting.
type SettingReader interface {
	Get(ctx context.Context, key string) (types.Setting, error)
}

// UserService encapsulates account, profile and user administration use-cases.
type UserService struct {
	repo       UserRepository
	settings   SettingReader
	ownerEmail string
}

// NewUserService constructs a UserService. ownerEmail, when set, is promoted
// to owner on registration while no owner exists. settings may be nil.
func NewUserService(repo UserRepository, settings SettingReader, ownerEmail string) *UserService {
	return &UserService{
		repo:       repo,
		settings:   settings,
		ownerEmail: strings.ToLower(strings.TrimSpace(ownerEmail)),
	}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	Username    string
	Email       string
	Name        string
	Password    string
	Role        string
	CompanyName string
}

// Register creates a self-service account. Only applicant and employer may
// be chosen; the configured owner email becomes the owner when none exists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	if !s.registrationsOpen(ctx) {
		return types.User{}, ErrRegistrationClosed
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	if in.Username == "" || in.Name == "" || in.Password == "" {
		return types.User{}, validationError("missing required fields")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return types.User{}, err
	}
	if len(in.Password) < minPasswordLength {
		return types.User{}, validationError("password must be at least %d characters", minPasswordLength)
	}

	role := roles.Normalize(in.Role)
	switch role {
	case "":
		role = roles.Applicant
	case roles.Applicant, roles.Employer:
	default:
		return types.User{}, validationError("role must be applicant or employer")
	}
	if strings.TrimSpace(in.CompanyName) != "" {
		role = roles.Employer
	}

	if s.ownerEmail != "" && email == s.ownerEmail {
		if _, err := s.repo.GetOwner(ctx); errors.Is(err, store.ErrNotFound) {
			role = roles.Owner
		} else if err != nil {
			return types.User{}, fmt.Errorf("look up owner: %w", err)
		}
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     in.Username,
		Email:        email,
		Name:         in.Name,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		Profile:      types.Profile{CompanyName: strings.TrimSpace(in.CompanyName)},
	})
}

func (s *UserService) registrationsOpen(ctx context.Context) bool {
	if s.settings == nil {
		return true
	}
	setting, err := s.settings.Get(ctx, "enable_registrations")
	if err != nil {
		return true
	}
	return setting.Value != "false"
}

// Authenticate checks credentials. login may be a username or an email.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (types.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return types.User{}, validationError("missing credentials")
	}

	var (
		user types.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.repo.GetByEmail(ctx, login)
	} else {
		user, err = s.repo.GetByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return types.User{}, ErrAccountDisabled
	}
	return user, nil
}

// ProfileUpdate is a partial profile edit. Empty fields keep stored values.
type ProfileUpdate struct {
	Name    string
	Role    string
	Profile types.Profile
}

// UpdateProfile applies a self-service profile edit. The role may only be
// switched between applicant and employer.
func (s *UserService) UpdateProfile(ctx context.Context, actor types.User, patch ProfileUpdate) (types.User, error) {
	user, err := s.repo.GetByID(ctx, actor.ID)
	if err != nil {
		return types.User{}, err
	}

	if role := roles.Normalize(patch.Role); role != "" && role != user.Role {
		selfService := func(r string) bool { return r == roles.Applicant || r == roles.Employer }
		if !selfService(role) || !selfService(user.Role) {
			return types.User{}, forbidden("role can only be switched between applicant and employer")
		}
		user.Role = role
	}
	if name := strings.TrimSpace(patch.Name); name != "" {
		user.Name = name
	}
	user.Profile = user.Profile.Merge(patch.Profile)

	return s.repo.Update(ctx, user)
}

// List returns users for the admin console.
func (s *UserService) List(ctx context.Context, filter types.UserFilter) ([]types.User, error) {
	if filter.Role != "" {
		filter.Role = roles.Normalize(filter.Role)
		if !roles.Valid(filter.Role) {
			return nil, validationError("unknown role %q", filter.Role)
		}
	}
	switch filter.Type {
	case "", "employer", "seeker":
	default:
		return nil, validationError("type must be employer or seeker")
	}
	return s.repo.List(ctx, filter)
}

// AccountInput creates or edits an account from the admin console.
type AccountInput struct {
	Username string
	Email    string
	Name     string
	Password string
	Role     string
	IsActive *bool
	Profile  types.Profile
}

// CreateAccount creates an account on behalf of actor. The requested role
// is subject to the same rules as a role change.
func (s *UserService) CreateAccount(ctx context.Context, actor types.User, in AccountInput) (types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	if in.Username == "" || in.Name == "" || in.Password == "" {
		return types.User{}, validationError("missing required fields")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return types.User{}, err
	}

	role := roles.Normalize(in.Role)
	if role == "" {
		role = roles.Applicant
	}
	if role == roles.Owner {
		return types.User{}, validationError("the owner role can only be transferred")
	}
	newAccount := roles.Subject{Role: roles.Applicant}
	if err := roles.CanAssign(subject(actor), newAccount, role); err != nil {
		return types.User{}, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return types.User{}, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return s.repo.Create(ctx, types.User{
		Username:     in.Username,
		Email:        email,
		Name:         in.Name,
		Role:         role,
		PasswordHash: hash,
		IsActive:     active,
		Profile:      in.Profile,
	})
}

// GetManaged loads a user that actor is allowed to administer.
func (s *UserService) GetManaged(ctx context.Context, actor types.User, id int) (types.User, error) {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if err := roles.CanManage(subject(actor), subject(target)); err != nil {
		return types.User{}, err
	}
	return target, nil
}

// UpdateAccount edits another account. Role changes go through SetRole.
func (s *UserService) UpdateAccount(ctx context.Context, actor types.User, id int, in AccountInput) (types.User, error) {
	target, err := s.GetManaged(ctx, actor, id)
	if err != nil {
		return types.User{}, err
	}

	if v := strings.TrimSpace(in.Username); v != "" {
		target.Username = v
	}
	if v := strings.TrimSpace(in.Name); v != "" {
		target.Name = v
	}
	if strings.TrimSpace(in.Email) != "" {
		email, err := normalizeEmail(in.Email)
		if err != nil {
			return types.User{}, err
		}
		target.Email = email
	}
	if in.Password != "" {
		if target.PasswordHash, err = hashPassword(in.Password); err != nil {
			return types.User{}, err
		}
	}
	if in.IsActive != nil {
		if target.ID == actor.ID && !*in.IsActive {
			return types.User{}, validationError("cannot deactivate your own account")
		}
		target.IsActive = *in.IsActive
	}
	target.Profile = target.Profile.Merge(in.Profile)

	return s.repo.Update(ctx, target)
}

// SetRole changes target's role. Granting owner transfers ownership: the
// actor (the current owner) becomes superadmin in the same transaction.
func (s *UserService) SetRole(ctx context.Context, actor types.User, id int, role string) (types.User, error) {
	role = roles.Normalize(role)
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if err := roles.CanAssign(subject(actor), subject(target), role); err != nil {
		return types.User{}, err
	}
	if target.Role == role {
		return target, nil
	}
	if target.Role == roles.Owner {
		return types.User{}, forbidden("transfer ownership to another account first")
	}

	if role == roles.Owner {
		if err := s.repo.TransferOwnership(ctx, actor.ID, target.ID); err != nil {
			return types.User{}, fmt.Errorf("transfer ownership: %w", err)
		}
		return s.repo.GetByID(ctx, target.ID)
	}

	target.Role = role
	return s.repo.Update(ctx, target)
}

// Delete removes the accounts in ids and everything they own. The batch is
// refused as a whole if it contains the owner, the actor, or any account the
// actor may not manage. It returns the number of accounts deleted.
func (s *UserService) Delete(ctx context.Context, actor types.User, ids []int) (int, error) {
	ids, err := requireIDs(ids)
	if err != nil {
		return 0, err
	}
	targets, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	for _, target := range targets {
		if target.Role == roles.Owner {
			return 0, roles.ErrOwnerProtected
		}
	}
	for _, target := range targets {
		if target.ID == actor.ID {
			return 0, validationError("cannot delete your own account")
		}
		if err := roles.CanManage(subject(actor), subject(target)); err != nil {
			return 0, err
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	existing := make([]int, len(targets))
	for i, target := range targets {
		existing[i] = target.ID
	}
	return s.repo.DeleteCascade(ctx, existing)
}

func (s *UserService) ListCompanies(ctx context.Context) ([]types.Company, error) {
	return s.repo.ListCompanies(ctx)
}

func (s *UserService) GetCompany(ctx context.Context, id int) (types.Company, error) {
	return s.repo.GetCompany(ctx, id)
}

// CreateCompany creates an employer account with a company profile.
func (s *UserService) CreateCompany(ctx context.Context, actor types.User, in AccountInput) (types.User, error) {
	if strings.TrimSpace(in.Profile.CompanyName) == "" {
		return types.User{}, validationError("company name is required")
	}
	in.Role = roles.Employer
	return s.CreateAccount(ctx, actor, in)
}

func subject(u types.User) roles.Subject {
	return roles.Subject{ID: u.ID, Role: u.Role}
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", validationError("password must be at least %d characters", minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}
