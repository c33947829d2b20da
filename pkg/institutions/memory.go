package institutions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
)

// MemoryStore is an in-process Repository
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]Institution
}

// NewMemoryStore creates an empty in-memory institution store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[int64]Institution)}
}

// Create inserts an institution; a taken name is a Conflict
func (s *MemoryStore) Create(ctx context.Context, inst *Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.byID {
		if existing.Name == inst.Name {
			return apperr.New(apperr.KindConflict, "institution name already taken")
		}
	}
	s.nextID++
	now := time.Now().UTC()
	inst.ID = s.nextID
	inst.CreatedAt = now
	inst.UpdatedAt = now
	s.byID[inst.ID] = *inst
	return nil
}

// Get retrieves an institution by ID
func (s *MemoryStore) Get(ctx context.Context, id int64) (*Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.byID[id]
	if !ok {
		return nil, apperr.NotFound("institution")
	}
	return &inst, nil
}

// List returns institutions by name
func (s *MemoryStore) List(ctx context.Context, includeInactive bool) ([]*Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Institution, 0, len(s.byID))
	for _, inst := range s.byID {
		if !includeInactive && !inst.IsActive {
			continue
		}
		inst := inst
		list = append(list, &inst)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// Update replaces a stored institution
func (s *MemoryStore) Update(ctx context.Context, inst *Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[inst.ID]; !ok {
		return apperr.NotFound("institution")
	}
	for id, existing := range s.byID {
		if id != inst.ID && existing.Name == inst.Name {
			return apperr.New(apperr.KindConflict, "institution name already taken")
		}
	}
	inst.UpdatedAt = time.Now().UTC()
	s.byID[inst.ID] = *inst
	return nil
}
