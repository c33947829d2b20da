package board

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/audit"
	"github.com/platinummonkey/jobboard/pkg/rbac"
	"github.com/platinummonkey/jobboard/pkg/users"
)

// UserLookup finds users by ID
type UserLookup interface {
	Get(ctx context.Context, id int64) (*users.User, error)
}

// MembershipService grants and revokes institution roles
type MembershipService struct {
	members      rbac.MembershipRepository
	institutions InstitutionLookup
	users        UserLookup
	deps         Deps
}

// NewMembershipService creates a membership service
func NewMembershipService(members rbac.MembershipRepository, institutionLookup InstitutionLookup, userLookup UserLookup, deps Deps) *MembershipService {
	return &MembershipService{
		members:      members,
		institutions: institutionLookup,
		users:        userLookup,
		deps:         deps.withDefaults(),
	}
}

// AssignRole gives userID the role at institutionID, replacing any role the
// user already holds there. The caller must be allowed to grant the new role
// and to revoke the old one. Membership audit events, denials included, are
// keyed by the member's user ID.
func (s *MembershipService) AssignRole(ctx context.Context, caller rbac.Caller, institutionID, userID int64, rawRole string) (*rbac.Membership, error) {
	role, err := rbac.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}

	denied := target(ctx, audit.ResourceTypeMembership, userID, institutionID)
	if err := s.deps.authorize(ctx, caller, ActionMembershipAssign, rbac.CanAssignRole(caller, institutionID, role), denied); err != nil {
		return nil, err
	}

	if _, err := s.institutions.Get(ctx, institutionID); err != nil {
		return nil, err
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	var previous rbac.Role
	existing, err := s.members.Get(ctx, userID, institutionID)
	switch {
	case err == nil:
		previous = existing.Role
		// an admin may not overwrite a role it could not grant
		if err := s.deps.authorize(ctx, caller, ActionMembershipRemove, rbac.CanRemoveMember(caller, institutionID, previous), denied); err != nil {
			return nil, err
		}
	case !apperr.Is(err, apperr.KindNotFound):
		return nil, err
	}

	grantedBy := caller.UserID
	m := &rbac.Membership{
		UserID:        userID,
		InstitutionID: institutionID,
		Role:          role,
		GrantedBy:     &grantedBy,
	}
	if err := s.members.Upsert(ctx, m); err != nil {
		return nil, err
	}

	event := audit.NewEvent(ctx, audit.EventTypeMembershipUpsert, audit.EventStatusSuccess).
		ForResource(audit.ResourceTypeMembership, userID).
		By(caller.UserID).
		At(institutionID).
		WithMetadata("membership_id", m.ID).
		WithMetadata("role", role)
	if previous != "" {
		event.WithMetadata("previous_role", previous)
	}
	s.deps.record(ctx, event)

	s.deps.Logger.WithFields(logrus.Fields{
		"institution_id": institutionID,
		"member_id":      userID,
		"role":           role,
		"granted_by":     caller.UserID,
	}).Info("Role assigned")
	return m, nil
}

// RemoveMember revokes the membership of userID at institutionID
func (s *MembershipService) RemoveMember(ctx context.Context, caller rbac.Caller, institutionID, userID int64) error {
	if err := requireAuthenticated(caller); err != nil {
		return err
	}
	existing, err := s.members.Get(ctx, userID, institutionID)
	if err != nil {
		return err
	}

	decision := rbac.CanRemoveMember(caller, institutionID, existing.Role)
	if err := s.deps.authorize(ctx, caller, ActionMembershipRemove, decision,
		target(ctx, audit.ResourceTypeMembership, userID, institutionID)); err != nil {
		return err
	}

	if err := s.members.Remove(ctx, userID, institutionID); err != nil {
		return err
	}

	s.deps.record(ctx, audit.NewEvent(ctx, audit.EventTypeMembershipRemove, audit.EventStatusSuccess).
		ForResource(audit.ResourceTypeMembership, userID).
		By(caller.UserID).
		At(institutionID).
		WithMetadata("membership_id", existing.ID).
		WithMetadata("role", existing.Role))
	return nil
}

// ListMembers returns the roster of an institution
func (s *MembershipService) ListMembers(ctx context.Context, caller rbac.Caller, institutionID int64) ([]rbac.Membership, error) {
	decision := rbac.CanListMembers(caller, institutionID)
	if err := s.deps.authorize(ctx, caller, ActionMembershipList, decision,
		target(ctx, audit.ResourceTypeInstitution, institutionID, institutionID)); err != nil {
		return nil, err
	}
	return s.members.ListMembers(ctx, institutionID)
}

// MembershipsOf returns the memberships of the caller
func (s *MembershipService) MembershipsOf(ctx context.Context, caller rbac.Caller) (rbac.MembershipSet, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	return s.members.MembershipsOf(ctx, caller.UserID)
}
