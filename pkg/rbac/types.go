package rbac

import (
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
)

// Role is a named position in the fixed hierarchy
type Role string

// Built-in roles
const (
	RoleSuperAdmin  Role = "superadmin"
	RoleAdmin       Role = "admin"
	RoleProfessor   Role = "professor"
	RoleCoordenador Role = "coordenador"
	RoleEmpresa     Role = "empresa"
	RoleStudent     Role = "student"
)

// Rank values. Peer operators share one rank.
const (
	rankUnknown = iota
	rankStudent
	rankOperator
	rankAdmin
	rankSuperAdmin
)

var roleRanks = map[Role]int{
	RoleSuperAdmin:  rankSuperAdmin,
	RoleAdmin:       rankAdmin,
	RoleProfessor:   rankOperator,
	RoleCoordenador: rankOperator,
	RoleEmpresa:     rankOperator,
	RoleStudent:     rankStudent,
}

// AllRoles returns every built-in role, highest rank first
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleProfessor, RoleCoordenador, RoleEmpresa, RoleStudent}
}

// ParseRole parses a role name, case-insensitively
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", apperr.Validation(fmt.Sprintf("unknown role %q", s), map[string]string{"role": "must be one of superadmin, admin, professor, coordenador, empresa, student"})
	}
	return r, nil
}

// Valid reports whether r is a built-in role
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the position of r in the hierarchy; unknown roles rank 0
func (r Role) Rank() int {
	return roleRanks[r]
}

// Outranks reports whether r sits strictly above other
func (r Role) Outranks(other Role) bool {
	return r.Rank() > other.Rank()
}

// IsOperator reports whether r may author jobs at its institution
func (r Role) IsOperator() bool {
	return r.Rank() >= rankOperator
}

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// Membership binds a user to an institution with exactly one role
type Membership struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	InstitutionID int64     `json:"institution_id"`
	Role          Role      `json:"role"`
	GrantedBy     *int64    `json:"granted_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MembershipSet is every membership one user holds
type MembershipSet []Membership

// RoleAt returns the caller's role at an institution
func (s MembershipSet) RoleAt(institutionID int64) (Role, bool) {
	for _, m := range s {
		if m.InstitutionID == institutionID {
			return m.Role, true
		}
	}
	return "", false
}

// HasRole reports whether any membership carries role
func (s MembershipSet) HasRole(role Role) bool {
	for _, m := range s {
		if m.Role == role {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the set grants tenant-transcendent rights.
// A superadmin row at any institution counts.
func (s MembershipSet) IsSuperAdmin() bool {
	return s.HasRole(RoleSuperAdmin)
}

// IsMemberOf reports whether the set holds any role at institutionID
func (s MembershipSet) IsMemberOf(institutionID int64) bool {
	_, ok := s.RoleAt(institutionID)
	return ok
}

// IsAdminOf reports whether the set holds admin (or higher) at institutionID
func (s MembershipSet) IsAdminOf(institutionID int64) bool {
	role, ok := s.RoleAt(institutionID)
	return ok && role.Rank() >= rankAdmin
}

// InstitutionIDs lists the institutions the set spans
func (s MembershipSet) InstitutionIDs() []int64 {
	ids := make([]int64, 0, len(s))
	for _, m := range s {
		ids = append(ids, m.InstitutionID)
	}
	return ids
}

// Caller is the identity an action is evaluated for
type Caller struct {
	UserID      int64
	Anonymous   bool
	Memberships MembershipSet
}

// AnonymousCaller returns the identity of an unauthenticated request
func AnonymousCaller() Caller {
	return Caller{Anonymous: true}
}

// NewCaller builds an authenticated caller
func NewCaller(userID int64, memberships MembershipSet) Caller {
	return Caller{UserID: userID, Memberships: memberships}
}

// Authenticated reports whether the caller carries a user identity
func (c Caller) Authenticated() bool {
	return !c.Anonymous && c.UserID != 0
}

// IsSuperAdmin reports whether an authenticated caller is a superadmin
func (c Caller) IsSuperAdmin() bool {
	return c.Authenticated() && c.Memberships.IsSuperAdmin()
}
