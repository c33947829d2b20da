package board

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/audit"
	"github.com/platinummonkey/jobboard/pkg/jobs"
	"github.com/platinummonkey/jobboard/pkg/rbac"
	"github.com/platinummonkey/jobboard/pkg/visibility"
)

// CreateJobInput is a new job posting. InstitutionID falls back to the
// caller's active institution.
type CreateJobInput struct {
	InstitutionID *int64 `json:"institution_id,omitempty"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Location      string `json:"location,omitempty"`
	Status        string `json:"status,omitempty"`
}

// UpdateJobInput carries the fields an edit changes. A set InstitutionID
// different from the current one transfers the job.
type UpdateJobInput struct {
	InstitutionID *int64  `json:"institution_id,omitempty"`
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Location      *string `json:"location,omitempty"`
	Status        *string `json:"status,omitempty"`
	IsPublic      *bool   `json:"is_public,omitempty"`
}

// JobService handles job postings
type JobService struct {
	jobs         jobs.Repository
	institutions InstitutionLookup
	tenants      TenantResolver
	notifier     Notifier
	deps         Deps
	now          func() time.Time
}

// NewJobService creates a job service
func NewJobService(repo jobs.Repository, institutionLookup InstitutionLookup, tenants TenantResolver, notifier Notifier, deps Deps) *JobService {
	return &JobService{
		jobs:         repo,
		institutions: institutionLookup,
		tenants:      tenants,
		notifier:     notifier,
		deps:         deps.withDefaults(),
		now:          time.Now,
	}
}

// Create posts a job at the requested or active institution. The job starts
// as a draft unless a status is given, and is public when the author is a
// company at that institution.
func (s *JobService) Create(ctx context.Context, caller rbac.Caller, in CreateJobInput) (*jobs.Job, error) {
	if !caller.Authenticated() {
		return nil, s.deps.authorize(ctx, caller, ActionJobCreate, rbac.Deny(rbac.ReasonUnauthenticated), nil)
	}

	institutionID, err := s.tenants.TargetInstitution(ctx, caller, in.InstitutionID)
	if err != nil {
		return nil, err
	}

	decision := rbac.CanCreateJob(caller, institutionID)
	if err := s.deps.authorize(ctx, caller, ActionJobCreate, decision,
		target(ctx, audit.ResourceTypeInstitution, institutionID, institutionID)); err != nil {
		return nil, err
	}

	status := jobs.StatusDraft
	if in.Status != "" {
		if status, err = jobs.ParseStatus(in.Status); err != nil {
			return nil, err
		}
	}
	if err := validateJobText(in.Title, in.Description); err != nil {
		return nil, err
	}
	if err := s.requireActiveInstitution(ctx, institutionID); err != nil {
		return nil, err
	}

	job := &jobs.Job{
		InstitutionID: institutionID,
		AuthorID:      caller.UserID,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Location:      in.Location,
		Status:        status,
		IsPublic:      rbac.SeedIsPublic(caller, institutionID),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	s.deps.record(ctx, audit.NewEvent(ctx, audit.EventTypeJobCreate, audit.EventStatusSuccess).
		ForResource(audit.ResourceTypeJob, job.ID).
		By(caller.UserID).
		At(job.InstitutionID).
		WithMetadata("status", job.Status).
		WithMetadata("is_public", job.IsPublic))

	s.deps.Logger.WithFields(logrus.Fields{
		"job_id":         job.ID,
		"institution_id": job.InstitutionID,
		"author_id":      job.AuthorID,
		"reason":         decision.Reason,
	}).Info("Job created")

	if trigger, ok := jobs.CreationTrigger(job); ok {
		s.notifier.Dispatch(ctx, trigger, job)
	}
	return job, nil
}

// Get returns the detail of a job the caller may view
func (s *JobService) Get(ctx context.Context, caller rbac.Caller, id int64) (*jobs.Job, error) {
	return s.viewable(ctx, caller, id)
}

// Update edits a job. Moving it to another institution needs admin rights
// at the destination too.
func (s *JobService) Update(ctx context.Context, caller rbac.Caller, id int64, in UpdateJobInput) (*jobs.Job, error) {
	before, err := s.viewable(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	decision := rbac.CanEditJob(caller, before, in.InstitutionID)
	if err := s.deps.authorize(ctx, caller, ActionJobEdit, decision,
		target(ctx, audit.ResourceTypeJob, before.ID, before.InstitutionID)); err != nil {
		return nil, err
	}

	after := before.Clone()
	if in.Title != nil {
		after.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		after.Description = *in.Description
	}
	if in.Location != nil {
		after.Location = *in.Location
	}
	if in.IsPublic != nil {
		after.IsPublic = *in.IsPublic
	}
	if err := validateJobText(after.Title, after.Description); err != nil {
		return nil, err
	}
	if in.Status != nil {
		status, err := jobs.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		if err := jobs.Transition(after, status); err != nil {
			return nil, err
		}
	}
	if in.InstitutionID != nil && *in.InstitutionID != before.InstitutionID {
		if err := s.requireActiveInstitution(ctx, *in.InstitutionID); err != nil {
			return nil, err
		}
		after.InstitutionID = *in.InstitutionID
	}

	if err := s.jobs.Update(ctx, after); err != nil {
		return nil, err
	}

	event := audit.NewEvent(ctx, audit.EventTypeJobUpdate, audit.EventStatusSuccess).
		ForResource(audit.ResourceTypeJob, after.ID).
		By(caller.UserID).
		At(after.InstitutionID)
	if before.Status != after.Status {
		event.WithMetadata("status_from", before.Status).WithMetadata("status_to", after.Status)
	}
	if before.InstitutionID != after.InstitutionID {
		event.WithMetadata("transferred_from", before.InstitutionID)
	}
	s.deps.record(ctx, event)

	if trigger, ok := jobs.DetectTrigger(before, after); ok {
		s.notifier.Dispatch(ctx, trigger, after)
	}
	return after, nil
}

// Delete tombstones a job. Tombstoned jobs vanish from every listing and
// detail view; only the audit trail keeps them.
func (s *JobService) Delete(ctx context.Context, caller rbac.Caller, id int64) error {
	job, err := s.viewable(ctx, caller, id)
	if err != nil {
		return err
	}

	decision := rbac.CanDeleteJob(caller, job)
	if err := s.deps.authorize(ctx, caller, ActionJobDelete, decision,
		target(ctx, audit.ResourceTypeJob, job.ID, job.InstitutionID)); err != nil {
		return err
	}

	at := s.now().UTC()
	if err := jobs.Tombstone(job, at); err != nil {
		return err
	}
	if err := s.jobs.SoftDelete(ctx, job.ID, at); err != nil {
		return err
	}

	s.deps.record(ctx, audit.NewEvent(ctx, audit.EventTypeJobDelete, audit.EventStatusSuccess).
		ForResource(audit.ResourceTypeJob, job.ID).
		By(caller.UserID).
		At(job.InstitutionID).
		WithMetadata("title", job.Title).
		WithMetadata("status", job.Status))
	return nil
}

// List returns the jobs the caller may see through their active
// institution, narrowed by q
func (s *JobService) List(ctx context.Context, caller rbac.Caller, q jobs.Query) ([]*jobs.Job, error) {
	active, err := s.tenants.Active(ctx, caller)
	if err != nil {
		return nil, err
	}
	pred, err := visibility.Build(caller, active)
	if err != nil {
		return nil, err
	}
	return s.jobs.List(ctx, pred, q.Normalize())
}

// viewable loads a live job and hides it when the caller may not view it
func (s *JobService) viewable(ctx context.Context, caller rbac.Caller, id int64) (*jobs.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	decision := rbac.CanViewJob(caller, job)
	s.deps.observe(caller, ActionJobView, decision)
	if !decision.Allowed {
		return nil, apperr.NotFound("job")
	}
	return job, nil
}

func (s *JobService) requireActiveInstitution(ctx context.Context, institutionID int64) error {
	inst, err := s.institutions.Get(ctx, institutionID)
	if err != nil {
		return err
	}
	if !inst.IsActive {
		return apperr.Validation("institution is inactive", map[string]string{
			"institution_id": "institution is deactivated",
		})
	}
	return nil
}

func validateJobText(title, description string) error {
	fields := map[string]string{}
	if strings.TrimSpace(title) == "" {
		fields["title"] = "required"
	}
	if strings.TrimSpace(description) == "" {
		fields["description"] = "required"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid job", fields)
	}
	return nil
}
