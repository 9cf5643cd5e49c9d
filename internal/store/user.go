package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jobportal/apiserver/types"
	"github.com/lib/pq"
)

const userColumns = `
	id, username, email, name, role, password_hash, is_active,
	first_name, last_name, phone, date_of_birth, address, city, state, country, postal_code,
	highest_qualification, college_name, major, graduation_year, gpa,
	years_of_experience, current_job_title, linkedin, portfolio, skills,
	company_name, description, website, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	p := &user.Profile
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.PasswordHash,
		&user.IsActive,
		&p.FirstName,
		&p.LastName,
		&p.Phone,
		&p.DateOfBirth,
		&p.Address,
		&p.City,
		&p.State,
		&p.Country,
		&p.PostalCode,
		&p.HighestQualification,
		&p.CollegeName,
		&p.Major,
		&p.GraduationYear,
		&p.GPA,
		&p.YearsOfExperience,
		&p.CurrentJobTitle,
		&p.LinkedIn,
		&p.Portfolio,
		&p.Skills,
		&p.CompanyName,
		&p.Description,
		&p.Website,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return r.getOne(ctx, `username = $1`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.getOne(ctx, `LOWER(email) = LOWER($1)`, email)
}

// GetOwner returns the single owner account.
func (r *UserRepository) GetOwner(ctx context.Context) (types.User, error) {
	return r.getOne(ctx, `role = $1`, "owner")
}

func (r *UserRepository) List(ctx context.Context, filter types.UserFilter) ([]types.User, error) {
	var (
		conditions []string
		args       []any
	)
	switch filter.Type {
	case "employer":
		conditions = append(conditions, `(role = 'employer' OR company_name <> '')`)
	case "seeker":
		conditions = append(conditions, `role = 'applicant'`)
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// ListByIDs returns the users among ids that exist, ordered by id.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []int) ([]types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Int64Array(int64s(ids)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	p := user.Profile

	const query = `
		INSERT INTO users (
			username, email, name, role, password_hash, is_active,
			first_name, last_name, phone, date_of_birth, address, city, state, country, postal_code,
			highest_qualification, college_name, major, graduation_year, gpa,
			years_of_experience, current_job_title, linkedin, portfolio, skills,
			company_name, description, website, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.Name,
		user.Role,
		user.PasswordHash,
		user.IsActive,
		p.FirstName,
		p.LastName,
		p.Phone,
		p.DateOfBirth,
		p.Address,
		p.City,
		p.State,
		p.Country,
		p.PostalCode,
		p.HighestQualification,
		p.CollegeName,
		p.Major,
		p.GraduationYear,
		p.GPA,
		p.YearsOfExperience,
		p.CurrentJobTitle,
		p.LinkedIn,
		p.Portfolio,
		p.Skills,
		p.CompanyName,
		p.Description,
		p.Website,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, mapError(err)
	}
	return user, nil
}

// Update replaces every mutable column of the user.
func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()
	p := user.Profile

	const query = `
		UPDATE users
		SET username = $1,
			email = $2,
			name = $3,
			role = $4,
			password_hash = $5,
			is_active = $6,
			first_name = $7,
			last_name = $8,
			phone = $9,
			date_of_birth = $10,
			address = $11,
			city = $12,
			state = $13,
			country = $14,
			postal_code = $15,
			highest_qualification = $16,
			college_name = $17,
			major = $18,
			graduation_year = $19,
			gpa = $20,
			years_of_experience = $21,
			current_job_title = $22,
			linkedin = $23,
			portfolio = $24,
			skills = $25,
			company_name = $26,
			description = $27,
			website = $28,
			updated_at = $29
		WHERE id = $30`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.Name,
		user.Role,
		user.PasswordHash,
		user.IsActive,
		p.FirstName,
		p.LastName,
		p.Phone,
		p.DateOfBirth,
		p.Address,
		p.City,
		p.State,
		p.Country,
		p.PostalCode,
		p.HighestQualification,
		p.CollegeName,
		p.Major,
		p.GraduationYear,
		p.GPA,
		p.YearsOfExperience,
		p.CurrentJobTitle,
		p.LinkedIn,
		p.Portfolio,
		p.Skills,
		p.CompanyName,
		p.Description,
		p.Website,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// TransferOwnership demotes the current owner to superadmin and promotes
// newOwnerID in one transaction.
func (r *UserRepository) TransferOwnership(ctx context.Context, currentOwnerID, newOwnerID int) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now()
		result, err := tx.ExecContext(ctx,
			`UPDATE users SET role = 'superadmin', updated_at = $1 WHERE id = $2 AND role = 'owner'`,
			now, currentOwnerID)
		if err != nil {
			return mapError(err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return err
		} else if affected == 0 {
			return ErrNotFound
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE users SET role = 'owner', updated_at = $1 WHERE id = $2`,
			now, newOwnerID)
		if err != nil {
			return mapError(err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return err
		} else if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteCascade removes users together with their auth records, their jobs
// (and the applications to those jobs) and their own applications.
// It returns the number of user rows deleted.
func (r *UserRepository) DeleteCascade(ctx context.Context, ids []int) (int, error) {
	var deleted int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		arg := pq.Int64Array(int64s(ids))
		statements := []string{
			`DELETE FROM passkeys WHERE user_id = ANY($1)`,
			`DELETE FROM sessions WHERE user_id = ANY($1)`,
			`DELETE FROM accounts WHERE user_id = ANY($1)`,
			`DELETE FROM applications WHERE job_id IN (SELECT id FROM jobs WHERE employer_id = ANY($1))`,
			`DELETE FROM jobs WHERE employer_id = ANY($1)`,
			`DELETE FROM applications WHERE applicant_id = ANY($1)`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, arg); err != nil {
				return err
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ANY($1)`, arg)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		deleted = int(affected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

const companyQuery = `
	SELECT u.id, u.username, u.name, u.email, u.company_name, u.description, u.website, u.city, u.country,
	       COUNT(j.id) FILTER (WHERE j.is_active = TRUE) AS open_jobs,
	       COUNT(j.id) AS total_jobs
	FROM users u
	LEFT JOIN jobs j ON j.employer_id = u.id
	WHERE (u.role = 'employer' OR u.company_name <> '')`

func scanCompany(row rowScanner) (types.Company, error) {
	var c types.Company
	err := row.Scan(&c.ID, &c.Username, &c.Name, &c.Email, &c.CompanyName, &c.Description, &c.Website, &c.City, &c.Country, &c.OpenJobs, &c.TotalJobs)
	return c, err
}

// ListCompanies returns employer accounts with their job counts.
func (r *UserRepository) ListCompanies(ctx context.Context) ([]types.Company, error) {
	query := companyQuery + `
		GROUP BY u.id
		ORDER BY open_jobs DESC, u.company_name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]types.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *UserRepository) GetCompany(ctx context.Context, id int) (types.Company, error) {
	query := companyQuery + ` AND u.id = $1 GROUP BY u.id`
	c, err := scanCompany(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Company{}, ErrNotFound
		}
		return types.Company{}, err
	}
	return c, nil
}

func int64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
