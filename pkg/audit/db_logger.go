package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// DBLogger implements audit logging to the audit_events table
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a new database-based audit logger. The table is
// created by database.RunMigrations.
func NewDBLogger(db *sql.DB) *DBLogger {
	return &DBLogger{db: db}
}

// Log logs an audit event to the database
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	var metadataJSON []byte
	if event.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (
			occurred_at, event_type, status,
			user_id, institution_id,
			resource_type, resource_id,
			reason, request_id, message, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := l.db.QueryRowContext(ctx, query,
		event.OccurredAt, string(event.EventType), string(event.Status),
		event.UserID, event.InstitutionID,
		string(event.ResourceType), event.ResourceID,
		event.Reason, event.RequestID, event.Message, metadataJSON,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// ListByResource returns every event for a resource, oldest first
func (l *DBLogger) ListByResource(ctx context.Context, resourceType ResourceType, resourceID string) ([]Event, error) {
	query := `
		SELECT id, occurred_at, event_type, status, user_id, institution_id,
			resource_type, resource_id, reason, request_id, message, metadata
		FROM audit_events
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY occurred_at ASC, id ASC
	`

	rows, err := l.db.QueryContext(ctx, query, string(resourceType), resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e             Event
			eventType     string
			status        string
			resType       string
			userID        sql.NullInt64
			institutionID sql.NullInt64
			metadataJSON  []byte
		)
		if err := rows.Scan(&e.ID, &e.OccurredAt, &eventType, &status, &userID, &institutionID,
			&resType, &e.ResourceID, &e.Reason, &e.RequestID, &e.Message, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.EventType = EventType(eventType)
		e.Status = EventStatus(status)
		e.ResourceType = ResourceType(resType)
		if userID.Valid {
			e.UserID = &userID.Int64
		}
		if institutionID.Valid {
			e.InstitutionID = &institutionID.Int64
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}
	return events, nil
}
