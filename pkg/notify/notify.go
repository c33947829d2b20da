// Package notify resolves who hears about job lifecycle triggers and hands
// the notifications to external delivery gateways.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/jobboard/pkg/jobs"
)

// Notification is one lifecycle event addressed to a set of users
type Notification struct {
	ID            string       `json:"id"`
	Kind          jobs.Trigger `json:"kind"`
	JobID         int64        `json:"job_id"`
	InstitutionID int64        `json:"institution_id"`
	Title         string       `json:"title"`
	Status        jobs.Status  `json:"status"`
	Recipients    []int64      `json:"recipients"`
	CreatedAt     time.Time    `json:"created_at"`
}

// NewNotification builds a notification about job
func NewNotification(kind jobs.Trigger, job *jobs.Job, recipients []int64) Notification {
	return Notification{
		ID:            uuid.New().String(),
		Kind:          kind,
		JobID:         job.ID,
		InstitutionID: job.InstitutionID,
		Title:         job.Title,
		Status:        job.Status,
		Recipients:    recipients,
		CreatedAt:     time.Now().UTC(),
	}
}

// Gateway delivers notifications to an external system
type Gateway interface {
	Notify(ctx context.Context, n Notification) error
}

// GatewayFunc adapts a function to Gateway
type GatewayFunc func(ctx context.Context, n Notification) error

// Notify calls f
func (f GatewayFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
