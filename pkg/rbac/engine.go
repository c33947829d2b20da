package rbac

import (
	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/jobs"
)

// Reason is a stable code explaining a decision
type Reason string

// Decision reasons
const (
	ReasonSuperAdmin            Reason = "superadmin"
	ReasonAuthor                Reason = "author"
	ReasonInstitutionAdmin      Reason = "institution_admin"
	ReasonInstitutionMember     Reason = "institution_member"
	ReasonGlobalAdmin           Reason = "global_admin"
	ReasonPublicJob             Reason = "public_job"
	ReasonInsufficientRole      Reason = "insufficient_role"
	ReasonNotMember             Reason = "not_member"
	ReasonUnauthenticated       Reason = "unauthenticated"
	ReasonTransferRequiresAdmin Reason = "transfer_requires_admin"
	ReasonNoActiveTenant        Reason = "no_active_tenant"
	ReasonNotFound              Reason = "not_found"
)

// Decision is the outcome of a permission check
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
}

// Allow returns an allowing decision
func Allow(reason Reason) Decision {
	return Decision{Allowed: true, Reason: reason}
}

// Deny returns a denying decision
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Err converts a denial into the matching application error. It returns nil
// when the decision allows.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	var kind apperr.Kind
	var message string
	switch d.Reason {
	case ReasonUnauthenticated:
		kind, message = apperr.KindUnauthenticated, "authentication required"
	case ReasonNotFound:
		kind, message = apperr.KindNotFound, "job not found"
	case ReasonNoActiveTenant:
		kind, message = apperr.KindNoActiveTenant, "no active institution selected"
	default:
		kind, message = apperr.KindForbidden, "insufficient permissions"
	}
	return apperr.New(kind, message).WithReason(string(d.Reason))
}

// CanCreateJob decides whether the caller may create a job at institutionID
func CanCreateJob(caller Caller, institutionID int64) Decision {
	if !caller.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	if caller.Memberships.IsSuperAdmin() {
		return Allow(ReasonSuperAdmin)
	}
	role, ok := caller.Memberships.RoleAt(institutionID)
	switch {
	case !ok:
		return Deny(ReasonNotMember)
	case role == RoleAdmin:
		return Allow(ReasonInstitutionAdmin)
	case role.IsOperator():
		return Allow(ReasonInstitutionMember)
	default:
		return Deny(ReasonInsufficientRole)
	}
}

// SeedIsPublic returns the initial visibility of a job created by caller at
// institutionID: public only when the creator is a company there.
func SeedIsPublic(caller Caller, institutionID int64) bool {
	role, ok := caller.Memberships.RoleAt(institutionID)
	return ok && role == RoleEmpresa
}

// canAlterJob is the shared superadmin / author / institution admin rule
func canAlterJob(caller Caller, job *jobs.Job) Decision {
	if job.IsTombstoned() {
		return Deny(ReasonNotFound)
	}
	if !caller.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	if caller.Memberships.IsSuperAdmin() {
		return Allow(ReasonSuperAdmin)
	}
	// authorship survives membership loss
	if job.AuthorID == caller.UserID {
		return Allow(ReasonAuthor)
	}
	if caller.Memberships.IsAdminOf(job.InstitutionID) {
		return Allow(ReasonInstitutionAdmin)
	}
	if !caller.Memberships.IsMemberOf(job.InstitutionID) {
		return Deny(ReasonNotMember)
	}
	return Deny(ReasonInsufficientRole)
}

// CanEditJob decides whether the caller may edit job. newInstitutionID is
// the institution the edit moves the job to, or nil when it stays put.
func CanEditJob(caller Caller, job *jobs.Job, newInstitutionID *int64) Decision {
	d := canAlterJob(caller, job)
	if !d.Allowed {
		return d
	}
	if newInstitutionID == nil || *newInstitutionID == job.InstitutionID {
		return d
	}
	if d.Reason == ReasonSuperAdmin {
		return d
	}
	if caller.Memberships.IsAdminOf(*newInstitutionID) {
		return d
	}
	return Deny(ReasonTransferRequiresAdmin)
}

// CanDeleteJob decides whether the caller may tombstone job
func CanDeleteJob(caller Caller, job *jobs.Job) Decision {
	return canAlterJob(caller, job)
}

// CanManageApplication decides whether the caller may list the candidates
// of job and move their applications between statuses
func CanManageApplication(caller Caller, job *jobs.Job) Decision {
	return canAlterJob(caller, job)
}

// CanViewJob decides whether the caller may see the detail of job
func CanViewJob(caller Caller, job *jobs.Job) Decision {
	if job.IsTombstoned() {
		return Deny(ReasonNotFound)
	}
	if job.IsPublic && job.Status.IsListed() {
		return Allow(ReasonPublicJob)
	}
	if !caller.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	if caller.Memberships.IsSuperAdmin() {
		return Allow(ReasonSuperAdmin)
	}
	if job.AuthorID == caller.UserID {
		return Allow(ReasonAuthor)
	}
	if caller.Memberships.IsMemberOf(job.InstitutionID) {
		return Allow(ReasonInstitutionMember)
	}
	if caller.Memberships.HasRole(RoleAdmin) {
		return Allow(ReasonGlobalAdmin)
	}
	return Deny(ReasonNotMember)
}

// CanAssignRole decides whether the caller may grant role at institutionID.
// An institution admin may grant any role up to admin.
func CanAssignRole(caller Caller, institutionID int64, role Role) Decision {
	if !caller.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	if caller.Memberships.IsSuperAdmin() {
		return Allow(ReasonSuperAdmin)
	}
	if !caller.Memberships.IsAdminOf(institutionID) {
		if !caller.Memberships.IsMemberOf(institutionID) {
			return Deny(ReasonNotMember)
		}
		return Deny(ReasonInsufficientRole)
	}
	if role.Outranks(RoleAdmin) {
		return Deny(ReasonInsufficientRole)
	}
	return Allow(ReasonInstitutionAdmin)
}

// CanRemoveMember decides whether the caller may remove a member currently
// holding memberRole at institutionID
func CanRemoveMember(caller Caller, institutionID int64, memberRole Role) Decision {
	return CanAssignRole(caller, institutionID, memberRole)
}

// CanListMembers decides whether the caller may see the roster of institutionID
func CanListMembers(caller Caller, institutionID int64) Decision {
	if !caller.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	if caller.Memberships.IsSuperAdmin() {
		return Allow(ReasonSuperAdmin)
	}
	if caller.Memberships.IsMemberOf(institutionID) {
		return Allow(ReasonInstitutionMember)
	}
	return Deny(ReasonNotMember)
}

// CanCreateInstitution decides whether the caller may register institutions
func CanCreateInstitution(caller Caller) Decision {
	if !caller.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	if caller.Memberships.IsSuperAdmin() {
		return Allow(ReasonSuperAdmin)
	}
	return Deny(ReasonInsufficientRole)
}

// CanManageInstitution decides whether the caller may edit the branding of
// institutionID
func CanManageInstitution(caller Caller, institutionID int64) Decision {
	if !caller.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	if caller.Memberships.IsSuperAdmin() {
		return Allow(ReasonSuperAdmin)
	}
	if caller.Memberships.IsAdminOf(institutionID) {
		return Allow(ReasonInstitutionAdmin)
	}
	if !caller.Memberships.IsMemberOf(institutionID) {
		return Deny(ReasonNotMember)
	}
	return Deny(ReasonInsufficientRole)
}
