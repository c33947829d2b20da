package jobs

import (
	"fmt"
	"strings"
)

// Predicate describes the set of jobs a caller may see in a listing. It is
// produced by the visibility package and consumed by the store, which renders
// it to SQL. Tombstoned jobs never match.
type Predicate struct {
	// Unrestricted matches every live job
	Unrestricted bool

	// PublicOnly restricts to the public set. With DraftAuthorID set it
	// also keeps that author's drafts in TenantID.
	PublicOnly bool

	// TenantID is the institution whose local set is included
	TenantID int64

	// AllLocalStatuses includes every status of the local set
	AllLocalStatuses bool

	// DraftAuthorID adds drafts in the tenant authored by this user
	DraftAuthorID int64
}

// Matches evaluates the predicate against a single job
func (p Predicate) Matches(job *Job) bool {
	if job.IsTombstoned() {
		return false
	}
	if p.Unrestricted {
		return true
	}
	if job.IsPublic && job.Status.IsListed() {
		return true
	}
	if p.PublicOnly || job.InstitutionID != p.TenantID {
		return p.ownDraft(job)
	}
	if p.AllLocalStatuses || job.Status.IsListed() {
		return true
	}
	return p.ownDraft(job)
}

func (p Predicate) ownDraft(job *Job) bool {
	return p.DraftAuthorID != 0 &&
		job.InstitutionID == p.TenantID &&
		job.Status == StatusDraft &&
		job.AuthorID == p.DraftAuthorID
}

var listedStatuses = fmt.Sprintf("('%s', '%s')", StatusPublished, StatusOpen)

// SQL renders the predicate as a WHERE fragment. Placeholders start at
// $argOffset+1.
func (p Predicate) SQL(argOffset int) (string, []interface{}) {
	clauses := []string{"deleted_at IS NULL"}
	var args []interface{}

	if p.Unrestricted {
		return clauses[0], args
	}

	public := "(is_public AND status IN " + listedStatuses + ")"
	if p.PublicOnly {
		if p.DraftAuthorID == 0 {
			clauses = append(clauses, public)
			return strings.Join(clauses, " AND "), args
		}
		args = append(args, p.TenantID, p.DraftAuthorID)
		own := fmt.Sprintf("(institution_id = $%d AND status = '%s' AND author_id = $%d)",
			argOffset+1, StatusDraft, argOffset+2)
		clauses = append(clauses, "("+public+" OR "+own+")")
		return strings.Join(clauses, " AND "), args
	}

	args = append(args, p.TenantID)
	local := fmt.Sprintf("institution_id = $%d", argOffset+len(args))
	if !p.AllLocalStatuses {
		statuses := "status IN " + listedStatuses
		if p.DraftAuthorID != 0 {
			args = append(args, p.DraftAuthorID)
			statuses = fmt.Sprintf("(%s OR (status = '%s' AND author_id = $%d))",
				statuses, StatusDraft, argOffset+len(args))
		}
		local = "(" + local + " AND " + statuses + ")"
	}

	clauses = append(clauses, "("+local+" OR "+public+")")
	return strings.Join(clauses, " AND "), args
}
