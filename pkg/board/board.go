package board

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/jobboard/pkg/async"
	"github.com/platinummonkey/jobboard/pkg/audit"
	"github.com/platinummonkey/jobboard/pkg/institutions"
	"github.com/platinummonkey/jobboard/pkg/jobs"
	"github.com/platinummonkey/jobboard/pkg/rbac"
)

// Authorization actions, used as metric labels and audit metadata
const (
	ActionJobCreate          = "job.create"
	ActionJobView            = "job.view"
	ActionJobEdit            = "job.edit"
	ActionJobDelete          = "job.delete"
	ActionApplicationManage  = "application.manage"
	ActionMembershipAssign   = "membership.assign"
	ActionMembershipRemove   = "membership.remove"
	ActionMembershipList     = "membership.list"
	ActionInstitutionCreate  = "institution.create"
	ActionInstitutionManage  = "institution.manage"
	ActionInstitutionSetFlag = "institution.set_active"
)

// DecisionRecorder counts authorization outcomes
type DecisionRecorder interface {
	RecordAuthzDecision(action string, allowed bool, reason string)
}

// Notifier emits lifecycle notifications for a job
type Notifier interface {
	Dispatch(ctx context.Context, trigger jobs.Trigger, job *jobs.Job)
}

// TenantResolver supplies the caller's active institution
type TenantResolver interface {
	Active(ctx context.Context, caller rbac.Caller) (*int64, error)
	TargetInstitution(ctx context.Context, caller rbac.Caller, requested *int64) (int64, error)
}

// InstitutionLookup finds institutions by ID
type InstitutionLookup interface {
	Get(ctx context.Context, id int64) (*institutions.Institution, error)
}

// Deps are the collaborators every service shares. Zero values are replaced
// with no-op implementations.
type Deps struct {
	Audit   audit.Logger
	Metrics DecisionRecorder
	Logger  logrus.FieldLogger
}

func (d Deps) withDefaults() Deps {
	if d.Audit == nil {
		d.Audit = audit.NoOpLogger{}
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	return d
}

// observe counts a decision and logs denials
func (d Deps) observe(caller rbac.Caller, action string, decision rbac.Decision) {
	if d.Metrics != nil {
		d.Metrics.RecordAuthzDecision(action, decision.Allowed, string(decision.Reason))
	}
	if !decision.Allowed {
		d.Logger.WithFields(logrus.Fields{
			"action":  action,
			"reason":  decision.Reason,
			"user_id": caller.UserID,
		}).Debug("Access denied")
	}
}

// authorize observes decision and turns a deny into an error. Denials are
// written to the audit trail using target for the resource fields.
func (d Deps) authorize(ctx context.Context, caller rbac.Caller, action string, decision rbac.Decision, target *audit.Event) error {
	d.observe(caller, action, decision)
	if decision.Allowed {
		return nil
	}
	if target == nil {
		target = audit.NewEvent(ctx, audit.EventTypeAuthzAccessDenied, audit.EventStatusDenied)
	}
	target.EventType = audit.EventTypeAuthzAccessDenied
	target.Status = audit.EventStatusDenied
	target.Reason = string(decision.Reason)
	d.record(ctx, target.By(caller.UserID).WithMetadata("action", action))
	return decision.Err()
}

// record writes an audit event. A failing audit sink never fails the action.
func (d Deps) record(ctx context.Context, event *audit.Event) {
	if err := d.Audit.Log(ctx, event); err != nil {
		d.Logger.WithError(err).WithField("event_type", event.EventType).Warn("Failed to write audit event")
	}
}

// target builds the resource part of an audit event
func target(ctx context.Context, resourceType audit.ResourceType, id, institutionID int64) *audit.Event {
	return audit.NewEvent(ctx, audit.EventTypeAuthzAccessDenied, audit.EventStatusDenied).
		ForResource(resourceType, id).
		At(institutionID)
}

// AsyncNotifier runs dispatches in the background, detached from the
// request that caused them
type AsyncNotifier struct {
	next    Notifier
	timeout time.Duration
	logger  logrus.FieldLogger
	wg      sync.WaitGroup
}

// NewAsyncNotifier wraps next. Each dispatch gets at most timeout.
func NewAsyncNotifier(next Notifier, timeout time.Duration, logger logrus.FieldLogger) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AsyncNotifier{next: next, timeout: timeout, logger: logger}
}

// Dispatch schedules the notification and returns immediately
func (a *AsyncNotifier) Dispatch(ctx context.Context, trigger jobs.Trigger, job *jobs.Job) {
	snapshot := job.Clone()
	a.wg.Add(1)
	async.SafeGoNoError(ctx, a.logger, a.timeout, "notification dispatch", func(ctx context.Context) {
		defer a.wg.Done()
		a.next.Dispatch(ctx, trigger, snapshot)
	})
}

// Wait blocks until every scheduled dispatch has finished or ctx is done
func (a *AsyncNotifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
