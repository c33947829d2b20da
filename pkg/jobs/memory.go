package jobs

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
)

// MemoryStore is an in-process Repository. Listings evaluate the predicate
// with Matches instead of SQL.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*Job
}

// NewMemoryStore creates an empty in-memory job store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[int64]*Job)}
}

// Create stores a job and fills in its ID and timestamps
func (s *MemoryStore) Create(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now().UTC()
	job.ID = s.nextID
	job.CreatedAt = now
	job.UpdatedAt = now
	s.byID[job.ID] = job.Clone()
	return nil
}

// Get retrieves a live job by ID
func (s *MemoryStore) Get(ctx context.Context, id int64) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.byID[id]
	if !ok || job.IsTombstoned() {
		return nil, apperr.NotFound("job")
	}
	return job.Clone(), nil
}

// Update replaces a live job
func (s *MemoryStore) Update(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[job.ID]
	if !ok || stored.IsTombstoned() {
		return apperr.NotFound("job")
	}
	job.UpdatedAt = time.Now().UTC()
	s.byID[job.ID] = job.Clone()
	return nil
}

// SoftDelete tombstones a live job
func (s *MemoryStore) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[id]
	if !ok || stored.IsTombstoned() {
		return apperr.NotFound("job")
	}
	stored.DeletedAt = &at
	return nil
}

// List returns the live jobs matching pred and the query filters, newest first
func (s *MemoryStore) List(ctx context.Context, pred Predicate, q Query) ([]*Job, error) {
	q = q.Normalize()
	search := strings.ToLower(strings.TrimSpace(q.Search))

	s.mu.RLock()
	matched := make([]*Job, 0)
	for _, job := range s.byID {
		if !pred.Matches(job) {
			continue
		}
		if q.Status != nil && job.Status != *q.Status {
			continue
		}
		if q.InstitutionID != nil && job.InstitutionID != *q.InstitutionID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(job.Title), search) &&
			!strings.Contains(strings.ToLower(job.Description), search) {
			continue
		}
		matched = append(matched, job.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	if q.Offset >= len(matched) {
		return []*Job{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end], nil
}
