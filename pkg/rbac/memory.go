package rbac

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
)

type membershipKey struct {
	userID        int64
	institutionID int64
}

// MemoryStore is an in-process MembershipRepository. It backs tests and
// single-node development setups.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[membershipKey]Membership
}

// NewMemoryStore creates an empty in-memory membership store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[membershipKey]Membership)}
}

// MembershipsOf returns every membership of a user
func (s *MemoryStore) MembershipsOf(ctx context.Context, userID int64) (MembershipSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(MembershipSet, 0)
	for k, m := range s.rows {
		if k.userID == userID {
			set = append(set, m)
		}
	}
	sort.Slice(set, func(i, j int) bool { return set[i].InstitutionID < set[j].InstitutionID })
	return set, nil
}

// Get returns the membership of a user at an institution
func (s *MemoryStore) Get(ctx context.Context, userID, institutionID int64) (*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.rows[membershipKey{userID, institutionID}]
	if !ok {
		return nil, apperr.NotFound("membership")
	}
	return &m, nil
}

// Upsert creates the membership or replaces the role of the existing one
func (s *MemoryStore) Upsert(ctx context.Context, m *Membership) error {
	if !m.Role.Valid() {
		return apperr.Validation("invalid role", map[string]string{"role": string(m.Role)})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	key := membershipKey{m.UserID, m.InstitutionID}
	existing, ok := s.rows[key]
	if !ok {
		s.nextID++
		existing = Membership{ID: s.nextID, UserID: m.UserID, InstitutionID: m.InstitutionID, CreatedAt: now}
	}
	existing.Role = m.Role
	existing.GrantedBy = m.GrantedBy
	existing.UpdatedAt = now
	s.rows[key] = existing

	*m = existing
	return nil
}

// Remove deletes the membership of a user at an institution
func (s *MemoryStore) Remove(ctx context.Context, userID, institutionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey{userID, institutionID}
	if _, ok := s.rows[key]; !ok {
		return apperr.NotFound("membership")
	}
	delete(s.rows, key)
	return nil
}

// ListMembers returns the roster of an institution
func (s *MemoryStore) ListMembers(ctx context.Context, institutionID int64) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]Membership, 0)
	for k, m := range s.rows {
		if k.institutionID == institutionID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members, nil
}
