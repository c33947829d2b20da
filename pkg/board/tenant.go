package board

import (
	"context"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/audit"
	"github.com/platinummonkey/jobboard/pkg/rbac"
)

// TenantSwitcher changes the caller's active institution
type TenantSwitcher interface {
	TenantResolver
	Switch(ctx context.Context, caller rbac.Caller, target *int64) error
}

// TenantService exposes the caller's lens on the board
type TenantService struct {
	resolver TenantSwitcher
	deps     Deps
}

// NewTenantService creates a tenant service
func NewTenantService(resolver TenantSwitcher, deps Deps) *TenantService {
	return &TenantService{resolver: resolver, deps: deps.withDefaults()}
}

// Switch points the caller's lens at target, nil clearing it. Every attempt
// is audited.
func (s *TenantService) Switch(ctx context.Context, caller rbac.Caller, target *int64) error {
	err := s.resolver.Switch(ctx, caller, target)

	event := audit.NewEvent(ctx, audit.EventTypeTenantSwitch, audit.EventStatusSuccess).By(caller.UserID)
	if target != nil {
		event.ForResource(audit.ResourceTypeInstitution, *target).At(*target)
	} else {
		event.WithMetadata("cleared", true)
	}
	switch {
	case err == nil:
	case apperr.Is(err, apperr.KindForbidden), apperr.Is(err, apperr.KindUnauthenticated):
		event.Status = audit.EventStatusDenied
		event.Reason = apperr.ReasonOf(err)
	default:
		event.Status = audit.EventStatusFailure
		event.Message = err.Error()
	}
	if caller.Authenticated() {
		s.deps.record(ctx, event)
	}
	return err
}

// Active returns the caller's lens, nil when none is set
func (s *TenantService) Active(ctx context.Context, caller rbac.Caller) (*int64, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	return s.resolver.Active(ctx, caller)
}
