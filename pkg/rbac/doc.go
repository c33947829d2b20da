// Package rbac provides multi-tenant role-based authorization for the job board.
//
// # Overview
//
// Users hold institution-scoped roles through memberships. A membership binds
// one user to one institution with exactly one role; a user may belong to
// many institutions with a different role in each.
//
// # Roles
//
// Roles form a fixed total order:
//
//	superadmin > admin > {professor, coordenador, empresa} > student
//
// The three peer operators share a rank. A superadmin membership at any
// institution grants rights everywhere. Admin rights apply only at the
// institution the admin row belongs to. Operators may create jobs at their
// institution and act on the jobs they authored.
//
//	role, err := rbac.ParseRole("Professor")
//	role.Outranks(rbac.RoleStudent) // true
//	role.Outranks(rbac.RoleEmpresa) // false, peers
//
// # Decisions
//
// The Can* functions are pure: they take a Caller (user id plus the full
// membership set, or the anonymous identity) and the target, and return a
// Decision carrying a stable Reason code. They never touch storage and are
// safe for concurrent use.
//
//	caller := rbac.NewCaller(userID, memberships)
//	d := rbac.CanEditJob(caller, job, nil)
//	if err := d.Err(); err != nil {
//		return err // Forbidden, NotFound or Unauthenticated with d.Reason attached
//	}
//
// The author of a job keeps edit and delete rights on it after losing their
// membership at the owning institution. Moving a job to another institution
// additionally requires admin rights at the destination.
//
// # Storage
//
// Store persists memberships in PostgreSQL. Upsert is a single
// INSERT ... ON CONFLICT statement keyed on (user_id, institution_id), so
// the table never holds two rows for the same pair. MemoryStore is an
// in-process implementation of the same MembershipRepository interface.
package rbac
