package users

import (
	"context"
	"sync"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
)

// MemoryStore is an in-process Repository
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]User
}

// NewMemoryStore creates an empty in-memory user store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[int64]User)}
}

// Create inserts a user; a taken email is a Conflict
func (s *MemoryStore) Create(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = NormalizeEmail(user.Email)
	for _, u := range s.byID {
		if u.Email == user.Email {
			return apperr.New(apperr.KindConflict, "email already registered")
		}
	}
	s.nextID++
	now := time.Now().UTC()
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.byID[user.ID] = *user
	return nil
}

// Get retrieves a user by ID
func (s *MemoryStore) Get(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return &u, nil
}

// GetByEmail retrieves a user by email
func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = NormalizeEmail(email)
	for _, u := range s.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user")
}

// SetActiveInstitution stores the tenant lens of a user
func (s *MemoryStore) SetActiveInstitution(ctx context.Context, userID int64, institutionID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return apperr.NotFound("user")
	}
	if institutionID != nil {
		id := *institutionID
		u.ActiveInstitutionID = &id
	} else {
		u.ActiveInstitutionID = nil
	}
	u.UpdatedAt = time.Now().UTC()
	s.byID[userID] = u
	return nil
}

// Delete removes a user
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return apperr.NotFound("user")
	}
	delete(s.byID, id)
	return nil
}
