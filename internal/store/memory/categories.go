package memory

import (
	"context"
	"sort"

	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

type CategoryRepository struct {
	db *DB
}

func (r *CategoryRepository) List(_ context.Context) ([]types.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	categories := make([]types.Category, 0, len(r.db.categories))
	for _, c := range r.db.categories {
		c.JobCount = 0
		for _, job := range r.db.jobs {
			if job.CategoryID == c.ID && job.IsActive {
				c.JobCount++
			}
		}
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (r *CategoryRepository) Get(_ context.Context, id int) (types.Category, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.categories[id]
	if !ok {
		return types.Category{}, store.ErrNotFound
	}
	return c, nil
}

func (r *CategoryRepository) slugTakenLocked(c types.Category) bool {
	for _, other := range r.db.categories {
		if other.ID != c.ID && other.Slug == c.Slug {
			return true
		}
	}
	return false
}

func (r *CategoryRepository) Create(_ context.Context, c types.Category) (types.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.slugTakenLocked(c) {
		return types.Category{}, store.ErrConflict
	}
	c.ID = r.db.id()
	c.JobCount = 0
	r.db.categories[c.ID] = c
	return c, nil
}

func (r *CategoryRepository) Update(_ context.Context, c types.Category) (types.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.categories[c.ID]; !ok {
		return types.Category{}, store.ErrNotFound
	}
	if r.slugTakenLocked(c) {
		return types.Category{}, store.ErrConflict
	}
	r.db.categories[c.ID] = c
	return c, nil
}

func (r *CategoryRepository) DeleteUnreferenced(_ context.Context, ids []int) (int, []types.CategoryUsage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	targets := idSet(ids)
	counts := make(map[int]int)
	for _, job := range r.db.jobs {
		if targets[job.CategoryID] {
			counts[job.CategoryID]++
		}
	}
	if len(counts) > 0 {
		usage := make([]types.CategoryUsage, 0, len(counts))
		for _, id := range sortedIDs(targets) {
			if n := counts[id]; n > 0 {
				usage = append(usage, types.CategoryUsage{CategoryID: id, Count: n})
			}
		}
		return 0, usage, nil
	}

	deleted := 0
	for id := range targets {
		if _, ok := r.db.categories[id]; ok {
			delete(r.db.categories, id)
			deleted++
		}
	}
	return deleted, nil, nil
}
