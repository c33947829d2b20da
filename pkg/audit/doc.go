// Package audit records security-relevant actions of the job board.
//
// # Overview
//
// Job create/update/delete, membership upserts and removals, tenant switches
// and denied authorization checks are written to the audit_events table.
// The trail is append-only: a tombstoned job disappears from every listing
// but its events remain queryable through ListByResource.
//
// # Usage Example
//
//	logger := audit.NewDBLogger(db)
//	_ = logger.Log(ctx, &audit.Event{
//		EventType:    audit.EventTypeJobDelete,
//		Status:       audit.EventStatusSuccess,
//		UserID:       &caller.UserID,
//		ResourceType: audit.ResourceTypeJob,
//		ResourceID:   strconv.FormatInt(job.ID, 10),
//	})
//
// Loggers are combined with MultiLogger; NoOpLogger is used when auditing is
// disabled.
package audit
