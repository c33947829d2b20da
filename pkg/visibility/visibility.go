// Package visibility builds the listing predicate for a caller viewing the
// board through an active institution.
package visibility

import (
	"github.com/platinummonkey/jobboard/pkg/jobs"
	"github.com/platinummonkey/jobboard/pkg/rbac"
)

// Build returns the predicate selecting the jobs caller may list while
// looking through activeTenant.
//
// A superadmin sees every live job. Anonymous callers see the public set.
// Anyone else needs an active institution and sees the union of its local
// set and the public set. The local set carries every status for an admin of
// the institution; other callers get listed jobs plus their own drafts. A
// stale lens on an institution the caller no longer belongs to yields the
// public set and the caller's own drafts there.
func Build(caller rbac.Caller, activeTenant *int64) (jobs.Predicate, error) {
	if caller.IsSuperAdmin() {
		return jobs.Predicate{Unrestricted: true}, nil
	}
	if !caller.Authenticated() {
		return jobs.Predicate{PublicOnly: true}, nil
	}
	if activeTenant == nil {
		return jobs.Predicate{}, rbac.Deny(rbac.ReasonNoActiveTenant).Err()
	}

	// a lens left on an institution the caller was since removed from
	if !caller.Memberships.IsMemberOf(*activeTenant) {
		return jobs.Predicate{PublicOnly: true, TenantID: *activeTenant, DraftAuthorID: caller.UserID}, nil
	}

	pred := jobs.Predicate{TenantID: *activeTenant}
	if caller.Memberships.IsAdminOf(*activeTenant) {
		pred.AllLocalStatuses = true
		return pred, nil
	}
	pred.DraftAuthorID = caller.UserID
	return pred, nil
}
