package board

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/applications"
	"github.com/platinummonkey/jobboard/pkg/audit"
	"github.com/platinummonkey/jobboard/pkg/jobs"
	"github.com/platinummonkey/jobboard/pkg/rbac"
)

// ApplicationService handles candidacies and saved jobs
type ApplicationService struct {
	apps  applications.Repository
	saved applications.SavedRepository
	jobs  jobs.Repository
	deps  Deps
}

// NewApplicationService creates an application service
func NewApplicationService(apps applications.Repository, saved applications.SavedRepository, jobRepo jobs.Repository, deps Deps) *ApplicationService {
	return &ApplicationService{
		apps:  apps,
		saved: saved,
		jobs:  jobRepo,
		deps:  deps.withDefaults(),
	}
}

// Apply submits the caller's candidacy to a listed job they can view
func (s *ApplicationService) Apply(ctx context.Context, caller rbac.Caller, jobID int64) (*applications.Application, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	job, err := s.viewable(ctx, caller, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Status.IsListed() {
		return nil, apperr.Validation("job is not accepting applications", map[string]string{
			"status": "job must be published or open",
		})
	}

	app := &applications.Application{UserID: caller.UserID, JobID: job.ID}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}
	s.deps.Logger.WithFields(logrus.Fields{
		"application_id": app.ID,
		"job_id":         job.ID,
		"user_id":        caller.UserID,
	}).Debug("Application submitted")
	return app, nil
}

// ListCandidates returns the applications to a job
func (s *ApplicationService) ListCandidates(ctx context.Context, caller rbac.Caller, jobID int64) ([]*applications.Application, error) {
	job, err := s.manageable(ctx, caller, jobID)
	if err != nil {
		return nil, err
	}
	return s.apps.ListByJob(ctx, job.ID)
}

// UpdateStatus moves an application to a new review status
func (s *ApplicationService) UpdateStatus(ctx context.Context, caller rbac.Caller, applicationID int64, rawStatus string) (*applications.Application, error) {
	status, err := applications.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.manageable(ctx, caller, app.JobID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("application")
		}
		return nil, err
	}

	if err := s.apps.UpdateStatus(ctx, app.ID, status); err != nil {
		return nil, err
	}
	return s.apps.Get(ctx, app.ID)
}

// ListMine returns the caller's own applications
func (s *ApplicationService) ListMine(ctx context.Context, caller rbac.Caller) ([]*applications.Application, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	return s.apps.ListByUser(ctx, caller.UserID)
}

// Withdraw deletes the caller's own application while it is still pending
func (s *ApplicationService) Withdraw(ctx context.Context, caller rbac.Caller, applicationID int64) error {
	if err := requireAuthenticated(caller); err != nil {
		return err
	}
	app, err := s.apps.Get(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.UserID != caller.UserID {
		return apperr.NotFound("application")
	}
	if app.Status != applications.StatusPending {
		return apperr.Newf(apperr.KindConflict, "application is %s and can no longer be withdrawn", app.Status)
	}
	return s.apps.Delete(ctx, app.ID)
}

// Save bookmarks a job the caller can view
func (s *ApplicationService) Save(ctx context.Context, caller rbac.Caller, jobID int64) error {
	if err := requireAuthenticated(caller); err != nil {
		return err
	}
	if _, err := s.viewable(ctx, caller, jobID); err != nil {
		return err
	}
	return s.saved.Save(ctx, caller.UserID, jobID)
}

// Unsave drops a bookmark
func (s *ApplicationService) Unsave(ctx context.Context, caller rbac.Caller, jobID int64) error {
	if err := requireAuthenticated(caller); err != nil {
		return err
	}
	return s.saved.Unsave(ctx, caller.UserID, jobID)
}

// ListSaved returns the caller's bookmarked jobs, most recent first.
// Tombstoned jobs and jobs the caller can no longer view are skipped.
func (s *ApplicationService) ListSaved(ctx context.Context, caller rbac.Caller) ([]*jobs.Job, error) {
	if err := requireAuthenticated(caller); err != nil {
		return nil, err
	}
	ids, err := s.saved.ListSaved(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]*jobs.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.jobs.Get(ctx, id)
		if apperr.Is(err, apperr.KindNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if rbac.CanViewJob(caller, job).Allowed {
			out = append(out, job)
		}
	}
	return out, nil
}

func (s *ApplicationService) viewable(ctx context.Context, caller rbac.Caller, jobID int64) (*jobs.Job, error) {
	job, err := s.jobs.Get(ctx, jobID)
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

// manageable loads a job whose applications the caller may manage
func (s *ApplicationService) manageable(ctx context.Context, caller rbac.Caller, jobID int64) (*jobs.Job, error) {
	job, err := s.viewable(ctx, caller, jobID)
	if err != nil {
		return nil, err
	}
	decision := rbac.CanManageApplication(caller, job)
	if err := s.deps.authorize(ctx, caller, ActionApplicationManage, decision,
		target(ctx, audit.ResourceTypeJob, job.ID, job.InstitutionID)); err != nil {
		return nil, err
	}
	return job, nil
}

func requireAuthenticated(caller rbac.Caller) error {
	if !caller.Authenticated() {
		return rbac.Deny(rbac.ReasonUnauthenticated).Err()
	}
	return nil
}
