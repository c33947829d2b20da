package board

import (
	"context"
	"strconv"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/audit"
	"github.com/platinummonkey/jobboard/pkg/rbac"
)

// ActionAuditRead guards the audit trail
const ActionAuditRead = "audit.read"

// AuditService reads the audit trail. Tombstoned jobs stay readable here.
type AuditService struct {
	deps Deps
}

// NewAuditService creates an audit reader over deps.Audit
func NewAuditService(deps Deps) *AuditService {
	return &AuditService{deps: deps.withDefaults()}
}

// Trail returns the events about one resource, oldest first. Only a
// superadmin may read it.
func (s *AuditService) Trail(ctx context.Context, caller rbac.Caller, resourceType audit.ResourceType, id int64) ([]audit.Event, error) {
	switch resourceType {
	case audit.ResourceTypeJob, audit.ResourceTypeMembership, audit.ResourceTypeInstitution,
		audit.ResourceTypeApplication, audit.ResourceTypeUser:
	default:
		return nil, apperr.Validation("unknown resource type", map[string]string{
			"resource_type": "must be job, membership, institution, application or user",
		})
	}

	decision := rbac.Deny(rbac.ReasonInsufficientRole)
	switch {
	case !caller.Authenticated():
		decision = rbac.Deny(rbac.ReasonUnauthenticated)
	case caller.IsSuperAdmin():
		decision = rbac.Allow(rbac.ReasonSuperAdmin)
	}
	if err := s.deps.authorize(ctx, caller, ActionAuditRead, decision, nil); err != nil {
		return nil, err
	}
	return s.deps.Audit.ListByResource(ctx, resourceType, strconv.FormatInt(id, 10))
}
