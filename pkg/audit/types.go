package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/platinummonkey/jobboard/pkg/contextkeys"
)

// EventType represents the category of audit event
type EventType string

const (
	// Job events
	EventTypeJobCreate EventType = "job.create"
	EventTypeJobUpdate EventType = "job.update"
	EventTypeJobDelete EventType = "job.delete"

	// Membership events
	EventTypeMembershipUpsert EventType = "membership.upsert"
	EventTypeMembershipRemove EventType = "membership.remove"

	// Institution events
	EventTypeInstitutionCreate EventType = "institution.create"
	EventTypeInstitutionUpdate EventType = "institution.update"

	EventTypeTenantSwitch EventType = "tenant.switch"

	// Authorization events
	EventTypeAuthzAccessDenied EventType = "authz.access_denied"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// ResourceType represents the type of resource being accessed
type ResourceType string

const (
	ResourceTypeJob         ResourceType = "job"
	ResourceTypeMembership  ResourceType = "membership"
	ResourceTypeInstitution ResourceType = "institution"
	ResourceTypeApplication ResourceType = "application"
	ResourceTypeUser        ResourceType = "user"
)

// Event is a single audit trail entry
type Event struct {
	ID            int64                  `json:"id"`
	OccurredAt    time.Time              `json:"occurred_at"`
	EventType     EventType              `json:"event_type"`
	Status        EventStatus            `json:"status"`
	UserID        *int64                 `json:"user_id,omitempty"`
	InstitutionID *int64                 `json:"institution_id,omitempty"`
	ResourceType  ResourceType           `json:"resource_type,omitempty"`
	ResourceID    string                 `json:"resource_id,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
	RequestID     string                 `json:"request_id,omitempty"`
	Message       string                 `json:"message,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent builds an event stamped with the current time and the request ID
// carried by ctx.
func NewEvent(ctx context.Context, eventType EventType, status EventStatus) *Event {
	return &Event{
		OccurredAt: time.Now().UTC(),
		EventType:  eventType,
		Status:     status,
		RequestID:  contextkeys.GetRequestID(ctx),
	}
}

// ForResource sets the resource the event is about
func (e *Event) ForResource(resourceType ResourceType, id int64) *Event {
	e.ResourceType = resourceType
	e.ResourceID = strconv.FormatInt(id, 10)
	return e
}

// By sets the acting user; zero means anonymous
func (e *Event) By(userID int64) *Event {
	if userID != 0 {
		id := userID
		e.UserID = &id
	}
	return e
}

// At sets the institution the event happened in; zero leaves it unset
func (e *Event) At(institutionID int64) *Event {
	if institutionID != 0 {
		id := institutionID
		e.InstitutionID = &id
	}
	return e
}

// WithMetadata adds a metadata key
func (e *Event) WithMetadata(key string, value interface{}) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}
