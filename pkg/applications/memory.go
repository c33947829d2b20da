package applications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
)

type savedKey struct {
	userID int64
	jobID  int64
}

// MemoryStore is an in-process Repository and SavedRepository. It knows
// nothing of jobs, so callers drop entries for tombstoned jobs themselves.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	apps   map[int64]Application
	saved  map[savedKey]time.Time
	clock  func() time.Time
}

// NewMemoryStore creates an empty in-memory application store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apps:  make(map[int64]Application),
		saved: make(map[savedKey]time.Time),
		clock: time.Now,
	}
}

// Create stores a new application
func (s *MemoryStore) Create(ctx context.Context, app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.apps {
		if existing.UserID == app.UserID && existing.JobID == app.JobID {
			return apperr.New(apperr.KindConflict, "already applied to this job")
		}
	}
	if app.Status == "" {
		app.Status = StatusPending
	}
	s.nextID++
	now := s.clock().UTC()
	app.ID = s.nextID
	app.CreatedAt = now
	app.UpdatedAt = now
	s.apps[app.ID] = *app
	return nil
}

// Get retrieves an application by ID
func (s *MemoryStore) Get(ctx context.Context, id int64) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[id]
	if !ok {
		return nil, apperr.NotFound("application")
	}
	return &app, nil
}

// ListByJob returns the candidates of a job, oldest first
func (s *MemoryStore) ListByJob(ctx context.Context, jobID int64) ([]*Application, error) {
	list := s.filter(func(a Application) bool { return a.JobID == jobID })
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// ListByUser returns the applications of a user, newest first
func (s *MemoryStore) ListByUser(ctx context.Context, userID int64) ([]*Application, error) {
	list := s.filter(func(a Application) bool { return a.UserID == userID })
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

// UpdateStatus moves an application to status
func (s *MemoryStore) UpdateStatus(ctx context.Context, id int64, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return apperr.NotFound("application")
	}
	app.Status = status
	app.UpdatedAt = s.clock().UTC()
	s.apps[id] = app
	return nil
}

// Delete removes an application
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[id]; !ok {
		return apperr.NotFound("application")
	}
	delete(s.apps, id)
	return nil
}

// ApplicantIDs lists the users who applied to a job
func (s *MemoryStore) ApplicantIDs(ctx context.Context, jobID int64) ([]int64, error) {
	ids := make([]int64, 0)
	for _, app := range s.filter(func(a Application) bool { return a.JobID == jobID }) {
		ids = append(ids, app.UserID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Save bookmarks a job for a user
func (s *MemoryStore) Save(ctx context.Context, userID, jobID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := savedKey{userID, jobID}
	if _, ok := s.saved[key]; !ok {
		s.saved[key] = s.clock()
	}
	return nil
}

// Unsave removes a bookmark
func (s *MemoryStore) Unsave(ctx context.Context, userID, jobID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := savedKey{userID, jobID}
	if _, ok := s.saved[key]; !ok {
		return apperr.NotFound("saved job")
	}
	delete(s.saved, key)
	return nil
}

// ListSaved returns the saved jobs of a user, most recent first
func (s *MemoryStore) ListSaved(ctx context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		jobID int64
		at    time.Time
	}
	entries := make([]entry, 0)
	for k, at := range s.saved {
		if k.userID == userID {
			entries = append(entries, entry{k.jobID, at})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].at.Equal(entries[j].at) {
			return entries[i].at.After(entries[j].at)
		}
		return entries[i].jobID > entries[j].jobID
	})

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.jobID)
	}
	return ids, nil
}

func (s *MemoryStore) filter(keep func(Application) bool) []*Application {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Application, 0)
	for _, app := range s.apps {
		if keep(app) {
			app := app
			list = append(list, &app)
		}
	}
	return list
}
