package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

type UserRepository struct {
	db *DB
}

func (r *UserRepository) find(match func(types.User) bool) (types.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if match(u) {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id int) (types.User, error) {
	return r.find(func(u types.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	return r.find(func(u types.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) GetOwner(_ context.Context) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Role == "owner" })
}

func (r *UserRepository) List(_ context.Context, filter types.UserFilter) ([]types.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := make([]types.User, 0)
	for _, u := range r.db.users {
		switch filter.Type {
		case "employer":
			if u.Role != "employer" && u.CompanyName == "" {
				continue
			}
		case "seeker":
			if u.Role != "applicant" {
				continue
			}
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Active != nil && u.IsActive != *filter.Active {
			continue
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

func (r *UserRepository) ListByIDs(_ context.Context, ids []int) ([]types.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := make([]types.User, 0, len(ids))
	for _, id := range sortedIDs(idSet(ids)) {
		if u, ok := r.db.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// uniqueLocked enforces the username, email and single owner constraints.
func (r *UserRepository) uniqueLocked(user types.User) error {
	for _, u := range r.db.users {
		if u.ID == user.ID {
			continue
		}
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return store.ErrConflict
		}
		if user.Role == "owner" && u.Role == "owner" {
			return store.ErrConflict
		}
	}
	return nil
}

func (r *UserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.uniqueLocked(user); err != nil {
		return types.User{}, err
	}
	user.ID = r.db.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.db.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) Update(_ context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	if err := r.uniqueLocked(user); err != nil {
		return types.User{}, err
	}
	user.UpdatedAt = time.Now()
	r.db.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) TransferOwnership(_ context.Context, currentOwnerID, newOwnerID int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.users[currentOwnerID]
	if !ok || current.Role != "owner" {
		return store.ErrNotFound
	}
	next, ok := r.db.users[newOwnerID]
	if !ok {
		return store.ErrNotFound
	}
	current.Role = "superadmin"
	next.Role = "owner"
	r.db.users[current.ID] = current
	r.db.users[next.ID] = next
	return nil
}

func (r *UserRepository) DeleteCascade(_ context.Context, ids []int) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	users := idSet(ids)
	owned := make(map[int]bool)
	for id, job := range r.db.jobs {
		if users[job.EmployerID] {
			owned[id] = true
		}
	}
	r.db.deleteJobsLocked(owned)
	for id, app := range r.db.applications {
		if app.ApplicantID != nil && users[*app.ApplicantID] {
			delete(r.db.applications, id)
		}
	}

	deleted := 0
	for id := range users {
		if _, ok := r.db.users[id]; ok {
			delete(r.db.users, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *UserRepository) companyLocked(u types.User) types.Company {
	c := types.Company{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Email:       u.Email,
		CompanyName: u.CompanyName,
		Description: u.Description,
		Website:     u.Website,
		City:        u.City,
		Country:     u.Country,
	}
	for _, job := range r.db.jobs {
		if job.EmployerID != u.ID {
			continue
		}
		c.TotalJobs++
		if job.IsActive {
			c.OpenJobs++
		}
	}
	return c
}

func isCompany(u types.User) bool {
	return u.Role == "employer" || u.CompanyName != ""
}

func (r *UserRepository) ListCompanies(_ context.Context) ([]types.Company, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	companies := make([]types.Company, 0)
	for _, u := range r.db.users {
		if isCompany(u) {
			companies = append(companies, r.companyLocked(u))
		}
	}
	sort.Slice(companies, func(i, j int) bool {
		if companies[i].OpenJobs != companies[j].OpenJobs {
			return companies[i].OpenJobs > companies[j].OpenJobs
		}
		return companies[i].CompanyName < companies[j].CompanyName
	})
	return companies, nil
}

func (r *UserRepository) GetCompany(_ context.Context, id int) (types.Company, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok || !isCompany(u) {
		return types.Company{}, store.ErrNotFound
	}
	return r.companyLocked(u), nil
}
