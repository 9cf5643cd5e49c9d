package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]types.Category, error)
	Get(ctx context.Context, id int) (types.Category, error)
	Create(ctx context.Context, c types.Category) (types.Category, error)
	Update(ctx context.Context, c types.Category) (types.Category, error)
	DeleteUnreferenced(ctx context.Context, ids []int) (int, []types.CategoryUsage, error)
}

type CategoryService struct {
	repo CategoryRepository
}

func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]types.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int) (types.Category, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new category. The slug defaults to the slugified name.
func (s *CategoryService) Create(ctx context.Context, c types.Category) (types.Category, error) {
	c, err := normalizeCategory(c)
	if err != nil {
		return types.Category{}, err
	}
	return s.repo.Create(ctx, c)
}

func (s *CategoryService) Update(ctx context.Context, c types.Category) (types.Category, error) {
	current, err := s.repo.Get(ctx, c.ID)
	if err != nil {
		return types.Category{}, err
	}
	if strings.TrimSpace(c.Name) == "" {
		c.Name = current.Name
	}
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = current.Slug
	}
	c, err = normalizeCategory(c)
	if err != nil {
		return types.Category{}, err
	}
	return s.repo.Update(ctx, c)
}

// Delete removes the categories in ids. If any of them still has jobs
// nothing is deleted and a *CategoriesInUseError lists the offenders.
func (s *CategoryService) Delete(ctx context.Context, ids []int) (int, error) {
	ids, err := requireIDs(ids)
	if err != nil {
		return 0, err
	}
	deleted, usage, err := s.repo.DeleteUnreferenced(ctx, ids)
	if err != nil {
		if errors.Is(err, store.ErrReferenced) {
			// A job was added between the check and the delete.
			return 0, &CategoriesInUseError{}
		}
		return 0, err
	}
	if len(usage) > 0 {
		return 0, &CategoriesInUseError{Usage: usage}
	}
	return deleted, nil
}

func normalizeCategory(c types.Category) (types.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	if c.Name == "" {
		return types.Category{}, validationError("name is required")
	}
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = c.Name
	}
	c.Slug = Slugify(c.Slug)
	if c.Slug == "" {
		return types.Category{}, validationError("invalid slug")
	}
	return c, nil
}
