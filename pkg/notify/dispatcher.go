package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/jobboard/pkg/jobs"
	"github.com/platinummonkey/jobboard/pkg/rbac"
)

// MemberLister lists the roster of an institution
type MemberLister interface {
	ListMembers(ctx context.Context, institutionID int64) ([]rbac.Membership, error)
}

// ApplicantLister lists the users who applied to a job
type ApplicantLister interface {
	ApplicantIDs(ctx context.Context, jobID int64) ([]int64, error)
}

// Recorder counts dispatch outcomes
type Recorder interface {
	RecordNotification(kind, status string)
}

// Dispatch outcomes
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Dispatcher turns lifecycle triggers into notifications
type Dispatcher struct {
	gateway    Gateway
	members    MemberLister
	applicants ApplicantLister
	recorder   Recorder
	logger     logrus.FieldLogger
}

// NewDispatcher creates a dispatcher. recorder may be nil.
func NewDispatcher(gateway Gateway, members MemberLister, applicants ApplicantLister, recorder Recorder, logger logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		gateway:    gateway,
		members:    members,
		applicants: applicants,
		recorder:   recorder,
		logger:     logger,
	}
}

// Recipients resolves who hears about trigger on job: the students of the
// owning institution for a new job, the applicants otherwise
func (d *Dispatcher) Recipients(ctx context.Context, trigger jobs.Trigger, job *jobs.Job) ([]int64, error) {
	switch trigger {
	case jobs.TriggerNew:
		members, err := d.members.ListMembers(ctx, job.InstitutionID)
		if err != nil {
			return nil, fmt.Errorf("failed to list members: %w", err)
		}
		ids := make([]int64, 0, len(members))
		for _, m := range members {
			if m.Role == rbac.RoleStudent {
				ids = append(ids, m.UserID)
			}
		}
		return ids, nil
	case jobs.TriggerModified, jobs.TriggerClosed:
		ids, err := d.applicants.ApplicantIDs(ctx, job.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list applicants: %w", err)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("unknown trigger %q", trigger)
	}
}

// Dispatch emits trigger for job. Failures are logged and counted, never
// returned: delivery must not fail the change that caused it.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger jobs.Trigger, job *jobs.Job) {
	log := d.logger.WithFields(logrus.Fields{
		"kind":   trigger,
		"job_id": job.ID,
	})

	recipients, err := d.Recipients(ctx, trigger, job)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve notification recipients")
		d.record(trigger, OutcomeFailed)
		return
	}
	if len(recipients) == 0 {
		log.Debug("No recipients for notification")
		d.record(trigger, OutcomeSkipped)
		return
	}

	n := NewNotification(trigger, job, recipients)
	if err := d.gateway.Notify(ctx, n); err != nil {
		log.WithError(err).WithField("notification_id", n.ID).Warn("Notification dispatch failed")
		d.record(trigger, OutcomeFailed)
		return
	}
	d.record(trigger, OutcomeSent)
}

func (d *Dispatcher) record(trigger jobs.Trigger, outcome string) {
	if d.recorder != nil {
		d.recorder.RecordNotification(string(trigger), outcome)
	}
}
