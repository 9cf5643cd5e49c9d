// Package memory is an in-process implementation of the repositories used
// by the services. It mirrors the constraints of the Postgres schema
// (unique keys, foreign keys and cascades) and backs the service and HTTP
// tests.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jobportal/apiserver/types"
)

// DB holds every table behind one lock.
type DB struct {
	mu sync.RWMutex

	users        map[int]types.User
	categories   map[int]types.Category
	jobs         map[int]types.Job
	applications map[int]types.Application
	settings     map[string]types.Setting
	subscribers  map[string]time.Time

	nextID int
}

func New() *DB {
	return &DB{
		users:        make(map[int]types.User),
		categories:   make(map[int]types.Category),
		jobs:         make(map[int]types.Job),
		applications: make(map[int]types.Application),
		settings:     make(map[string]types.Setting),
		subscribers:  make(map[string]time.Time),
	}
}

func (db *DB) id() int {
	db.nextID++
	return db.nextID
}

func (db *DB) Users() *UserRepository               { return &UserRepository{db: db} }
func (db *DB) Jobs() *JobRepository                 { return &JobRepository{db: db} }
func (db *DB) Categories() *CategoryRepository      { return &CategoryRepository{db: db} }
func (db *DB) Applications() *ApplicationRepository { return &ApplicationRepository{db: db} }
func (db *DB) Settings() *SettingRepository         { return &SettingRepository{db: db} }
func (db *DB) Stats() *StatsRepository              { return &StatsRepository{db: db} }
func (db *DB) Newsletter() *NewsletterRepository    { return &NewsletterRepository{db: db} }

// ApplicationCount returns the number of stored applications.
func (db *DB) ApplicationCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.applications)
}

// JobCount returns the number of stored jobs.
func (db *DB) JobCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.jobs)
}

// deleteJobsLocked removes the jobs in ids and their applications.
func (db *DB) deleteJobsLocked(ids map[int]bool) int {
	for id, app := range db.applications {
		if ids[app.JobID] {
			delete(db.applications, id)
		}
	}
	deleted := 0
	for id := range ids {
		if _, ok := db.jobs[id]; ok {
			delete(db.jobs, id)
			deleted++
		}
	}
	return deleted
}

func idSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func sortedIDs(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
