package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jobportal/apiserver/types"
	"github.com/lib/pq"
)

// CategoryRepository handles persistence for categories.
type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns every category with its count of active jobs, ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]types.Category, error) {
	const query = `
		SELECT c.id, c.name, c.slug, c.description,
		       COUNT(j.id) FILTER (WHERE j.is_active = TRUE)
		FROM categories c
		LEFT JOIN jobs j ON j.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]types.Category, 0)
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.JobCount); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id int) (types.Category, error) {
	const query = `SELECT id, name, slug, description FROM categories WHERE id = $1`
	var c types.Category
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c types.Category) (types.Category, error) {
	const query = `INSERT INTO categories (name, slug, description) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, c.Name, c.Slug, c.Description).Scan(&c.ID); err != nil {
		return types.Category{}, mapError(err)
	}
	return c, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c types.Category) (types.Category, error) {
	const query = `UPDATE categories SET name = $1, slug = $2, description = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, c.Name, c.Slug, c.Description, c.ID)
	if err != nil {
		return types.Category{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Category{}, err
	}
	if affected == 0 {
		return types.Category{}, ErrNotFound
	}
	return c, nil
}

// DeleteUnreferenced deletes the categories in ids only if no job references
// any of them. When some are referenced nothing is deleted and the per
// category job counts are returned instead. A job inserted concurrently makes
// the delete fail with ErrReferenced.
func (r *CategoryRepository) DeleteUnreferenced(ctx context.Context, ids []int) (int, []types.CategoryUsage, error) {
	var (
		deleted int
		usage   []types.CategoryUsage
	)
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		arg := pq.Int64Array(int64s(ids))

		const usageQuery = `
			SELECT category_id, COUNT(1)
			FROM (SELECT category_id FROM jobs WHERE category_id = ANY($1) FOR SHARE) referenced
			GROUP BY category_id
			ORDER BY category_id`
		rows, err := tx.QueryContext(ctx, usageQuery, arg)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var u types.CategoryUsage
			if err := rows.Scan(&u.CategoryID, &u.Count); err != nil {
				return err
			}
			usage = append(usage, u)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(usage) > 0 {
			return nil
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ANY($1)`, arg)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		deleted = int(affected)
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return deleted, usage, nil
}
