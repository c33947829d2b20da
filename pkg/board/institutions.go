package board

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/audit"
	"github.com/platinummonkey/jobboard/pkg/institutions"
	"github.com/platinummonkey/jobboard/pkg/rbac"
)

// CreateInstitutionInput registers a new tenant
type CreateInstitutionInput struct {
	Name         string            `json:"name"`
	Kind         institutions.Kind `json:"kind"`
	LogoURL      string            `json:"logo_url,omitempty"`
	PrimaryColor string            `json:"primary_color,omitempty"`
	Website      string            `json:"website,omitempty"`
}

// InstitutionService manages tenants
type InstitutionService struct {
	institutions institutions.Repository
	deps         Deps
}

// NewInstitutionService creates an institution service
func NewInstitutionService(repo institutions.Repository, deps Deps) *InstitutionService {
	return &InstitutionService{institutions: repo, deps: deps.withDefaults()}
}

// Create registers an institution. Only a superadmin may.
func (s *InstitutionService) Create(ctx context.Context, caller rbac.Caller, in CreateInstitutionInput) (*institutions.Institution, error) {
	if err := s.deps.authorize(ctx, caller, ActionInstitutionCreate, rbac.CanCreateInstitution(caller), nil); err != nil {
		return nil, err
	}

	inst := &institutions.Institution{
		Name:         in.Name,
		Kind:         in.Kind,
		IsActive:     true,
		LogoURL:      in.LogoURL,
		PrimaryColor: in.PrimaryColor,
		Website:      in.Website,
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if err := s.institutions.Create(ctx, inst); err != nil {
		return nil, err
	}

	s.deps.record(ctx, audit.NewEvent(ctx, audit.EventTypeInstitutionCreate, audit.EventStatusSuccess).
		ForResource(audit.ResourceTypeInstitution, inst.ID).
		By(caller.UserID).
		At(inst.ID).
		WithMetadata("name", inst.Name).
		WithMetadata("kind", inst.Kind))

	s.deps.Logger.WithFields(logrus.Fields{
		"institution_id": inst.ID,
		"kind":           inst.Kind,
	}).Info("Institution created")
	return inst, nil
}

// UpdateBranding changes the presentation of an institution
func (s *InstitutionService) UpdateBranding(ctx context.Context, caller rbac.Caller, id int64, branding institutions.Branding) (*institutions.Institution, error) {
	decision := rbac.CanManageInstitution(caller, id)
	if err := s.deps.authorize(ctx, caller, ActionInstitutionManage, decision,
		target(ctx, audit.ResourceTypeInstitution, id, id)); err != nil {
		return nil, err
	}

	inst, err := s.institutions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	branding.Apply(inst)
	if err := s.institutions.Update(ctx, inst); err != nil {
		return nil, err
	}

	s.deps.record(ctx, audit.NewEvent(ctx, audit.EventTypeInstitutionUpdate, audit.EventStatusSuccess).
		ForResource(audit.ResourceTypeInstitution, inst.ID).
		By(caller.UserID).
		At(inst.ID).
		WithMetadata("change", "branding"))
	return inst, nil
}

// SetActive deactivates or reactivates an institution. Only a superadmin
// may.
func (s *InstitutionService) SetActive(ctx context.Context, caller rbac.Caller, id int64, active bool) (*institutions.Institution, error) {
	if err := s.deps.authorize(ctx, caller, ActionInstitutionSetFlag, rbac.CanCreateInstitution(caller),
		target(ctx, audit.ResourceTypeInstitution, id, id)); err != nil {
		return nil, err
	}

	inst, err := s.institutions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst.IsActive == active {
		return inst, nil
	}
	inst.IsActive = active
	if err := s.institutions.Update(ctx, inst); err != nil {
		return nil, err
	}

	s.deps.record(ctx, audit.NewEvent(ctx, audit.EventTypeInstitutionUpdate, audit.EventStatusSuccess).
		ForResource(audit.ResourceTypeInstitution, inst.ID).
		By(caller.UserID).
		At(inst.ID).
		WithMetadata("is_active", active))
	return inst, nil
}

// Get returns an institution. Deactivated institutions are only shown to
// a superadmin and to their members.
func (s *InstitutionService) Get(ctx context.Context, caller rbac.Caller, id int64) (*institutions.Institution, error) {
	inst, err := s.institutions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inst.IsActive && !caller.IsSuperAdmin() && !(caller.Authenticated() && caller.Memberships.IsMemberOf(id)) {
		return nil, apperr.NotFound("institution")
	}
	return inst, nil
}

// List returns the institutions. includeInactive is honored for a
// superadmin only.
func (s *InstitutionService) List(ctx context.Context, caller rbac.Caller, includeInactive bool) ([]*institutions.Institution, error) {
	return s.institutions.List(ctx, includeInactive && caller.IsSuperAdmin())
}
