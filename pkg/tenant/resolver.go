// Package tenant resolves the active institution a caller views the board
// through, and guards switching it.
package tenant

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/institutions"
	"github.com/platinummonkey/jobboard/pkg/rbac"
	"github.com/platinummonkey/jobboard/pkg/users"
)

// UserStore reads and writes the stored lens of a user
type UserStore interface {
	Get(ctx context.Context, id int64) (*users.User, error)
	SetActiveInstitution(ctx context.Context, userID int64, institutionID *int64) error
}

// InstitutionLookup finds institutions by ID
type InstitutionLookup interface {
	Get(ctx context.Context, id int64) (*institutions.Institution, error)
}

// Resolver manages the active institution of callers
type Resolver struct {
	users        UserStore
	institutions InstitutionLookup
	logger       logrus.FieldLogger
}

// NewResolver creates a tenant resolver
func NewResolver(userStore UserStore, institutionLookup InstitutionLookup, logger logrus.FieldLogger) *Resolver {
	return &Resolver{
		users:        userStore,
		institutions: institutionLookup,
		logger:       logger,
	}
}

// Switch points the caller's lens at target. The institution must exist and
// the caller must belong to it, unless the caller is a superadmin. Only a
// superadmin may clear the lens.
func (r *Resolver) Switch(ctx context.Context, caller rbac.Caller, target *int64) error {
	if !caller.Authenticated() {
		return rbac.Deny(rbac.ReasonUnauthenticated).Err()
	}

	if target == nil {
		if !caller.IsSuperAdmin() {
			return apperr.New(apperr.KindForbidden, "only a superadmin may clear the active institution").
				WithReason(string(rbac.ReasonInsufficientRole))
		}
		return r.users.SetActiveInstitution(ctx, caller.UserID, nil)
	}

	if _, err := r.institutions.Get(ctx, *target); err != nil {
		return err
	}

	if !caller.IsSuperAdmin() && !caller.Memberships.IsMemberOf(*target) {
		r.logger.WithFields(logrus.Fields{
			"user_id":        caller.UserID,
			"institution_id": *target,
		}).Debug("Tenant switch denied: not a member")
		return apperr.New(apperr.KindForbidden, "not a member of the institution").
			WithReason(string(rbac.ReasonNotMember))
	}

	return r.users.SetActiveInstitution(ctx, caller.UserID, target)
}

// Active returns the caller's current lens, nil when none is set. Anonymous
// callers have no lens.
func (r *Resolver) Active(ctx context.Context, caller rbac.Caller) (*int64, error) {
	if !caller.Authenticated() {
		return nil, nil
	}
	user, err := r.users.Get(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return user.ActiveInstitutionID, nil
}

// TargetInstitution picks the institution an action applies to: the
// requested one when given, else the active one.
func (r *Resolver) TargetInstitution(ctx context.Context, caller rbac.Caller, requested *int64) (int64, error) {
	if requested != nil {
		return *requested, nil
	}
	active, err := r.Active(ctx, caller)
	if err != nil {
		return 0, err
	}
	if active == nil {
		return 0, rbac.Deny(rbac.ReasonNoActiveTenant).Err()
	}
	return *active, nil
}
