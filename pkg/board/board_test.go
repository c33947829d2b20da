package board

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/applications"
	"github.com/platinummonkey/jobboard/pkg/audit"
	"github.com/platinummonkey/jobboard/pkg/institutions"
	"github.com/platinummonkey/jobboard/pkg/jobs"
	"github.com/platinummonkey/jobboard/pkg/rbac"
	"github.com/platinummonkey/jobboard/pkg/tenant"
	"github.com/platinummonkey/jobboard/pkg/users"
)

type sent struct {
	trigger jobs.Trigger
	jobID   int64
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []sent
}

func (n *recordingNotifier) Dispatch(ctx context.Context, trigger jobs.Trigger, job *jobs.Job) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sent{trigger, job.ID})
}

func (n *recordingNotifier) all() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sent(nil), n.calls...)
}

type decisionCounter struct {
	mu      sync.Mutex
	denials map[string]int
	allows  map[string]int
}

func (c *decisionCounter) RecordAuthzDecision(action string, allowed bool, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if allowed {
		c.allows[action]++
	} else {
		c.denials[action]++
	}
}

type fixture struct {
	ctx      context.Context
	users    *users.MemoryStore
	insts    *institutions.MemoryStore
	members  *rbac.MemoryStore
	jobRepo  *jobs.MemoryStore
	apps     *applications.MemoryStore
	audit    *audit.MemoryLogger
	notifier *recordingNotifier
	metrics  *decisionCounter
	logHook  *test.Hook

	jobs         *JobService
	applications *ApplicationService
	memberships  *MembershipService
	institutions *InstitutionService
	tenants      *TenantService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	f := &fixture{
		ctx:      context.Background(),
		users:    users.NewMemoryStore(),
		insts:    institutions.NewMemoryStore(),
		members:  rbac.NewMemoryStore(),
		jobRepo:  jobs.NewMemoryStore(),
		apps:     applications.NewMemoryStore(),
		audit:    audit.NewMemoryLogger(),
		notifier: &recordingNotifier{},
		metrics:  &decisionCounter{denials: map[string]int{}, allows: map[string]int{}},
		logHook:  hook,
	}
	deps := Deps{Audit: f.audit, Metrics: f.metrics, Logger: logger}
	resolver := tenant.NewResolver(f.users, f.insts, logger)

	f.jobs = NewJobService(f.jobRepo, f.insts, resolver, f.notifier, deps)
	f.applications = NewApplicationService(f.apps, f.apps, f.jobRepo, deps)
	f.memberships = NewMembershipService(f.members, f.insts, f.users, deps)
	f.institutions = NewInstitutionService(f.insts, deps)
	f.tenants = NewTenantService(resolver, deps)
	return f
}

func (f *fixture) institution(t *testing.T, name string, kind institutions.Kind) int64 {
	t.Helper()
	inst := &institutions.Institution{Name: name, Kind: kind, IsActive: true}
	require.NoError(t, f.insts.Create(f.ctx, inst))
	return inst.ID
}

func (f *fixture) user(t *testing.T, email string) int64 {
	t.Helper()
	u := &users.User{Email: email, FullName: email}
	require.NoError(t, f.users.Create(f.ctx, u))
	return u.ID
}

func (f *fixture) grant(t *testing.T, userID, institutionID int64, role rbac.Role) {
	t.Helper()
	require.NoError(t, f.members.Upsert(f.ctx, &rbac.Membership{UserID: userID, InstitutionID: institutionID, Role: role}))
}

// caller reads memberships fresh, as the request middleware does
func (f *fixture) caller(t *testing.T, userID int64) rbac.Caller {
	t.Helper()
	set, err := f.members.MembershipsOf(f.ctx, userID)
	require.NoError(t, err)
	return rbac.NewCaller(userID, set)
}

func (f *fixture) lens(t *testing.T, userID, institutionID int64) {
	t.Helper()
	require.NoError(t, f.tenants.Switch(f.ctx, f.caller(t, userID), &institutionID))
}

// postJob stores a job directly, bypassing the service
func (f *fixture) postJob(t *testing.T, institutionID, authorID int64, status jobs.Status, public bool) *jobs.Job {
	t.Helper()
	job := &jobs.Job{
		InstitutionID: institutionID,
		AuthorID:      authorID,
		Title:         "Job " + string(status),
		Description:   "description",
		Status:        status,
		IsPublic:      public,
	}
	require.NoError(t, f.jobRepo.Create(f.ctx, job))
	return job
}

func jobIDs(list []*jobs.Job) []int64 {
	ids := make([]int64, 0, len(list))
	for _, j := range list {
		ids = append(ids, j.ID)
	}
	return ids
}

func ptr[T any](v T) *T {
	return &v
}

func TestAuthorize_DenialIsAuditedAndCounted(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	student := f.user(t, "s@uf.br")
	f.grant(t, student, uf, rbac.RoleStudent)

	_, err := f.jobs.Create(f.ctx, f.caller(t, student), CreateJobInput{
		InstitutionID: &uf, Title: "Intern", Description: "desc",
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, string(rbac.ReasonInsufficientRole), apperr.ReasonOf(err))

	denied := f.audit.EventsOfType(audit.EventTypeAuthzAccessDenied)
	require.Len(t, denied, 1)
	assert.Equal(t, audit.EventStatusDenied, denied[0].Status)
	assert.Equal(t, string(rbac.ReasonInsufficientRole), denied[0].Reason)
	assert.Equal(t, ActionJobCreate, denied[0].Metadata["action"])
	require.NotNil(t, denied[0].UserID)
	assert.Equal(t, student, *denied[0].UserID)

	assert.Equal(t, 1, f.metrics.denials[ActionJobCreate])

	entry := f.logHook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Access denied", entry.Message)
	assert.Equal(t, rbac.ReasonInsufficientRole, entry.Data["reason"])
}

type failingAudit struct{ audit.NoOpLogger }

func (failingAudit) Log(ctx context.Context, event *audit.Event) error {
	return assert.AnError
}

func TestRecord_AuditFailureDoesNotFailAction(t *testing.T) {
	f := newFixture(t)
	logger, hook := test.NewNullLogger()
	f.institutions = NewInstitutionService(f.insts, Deps{Audit: failingAudit{}, Logger: logger})

	root := f.user(t, "root@board.io")
	uf := f.institution(t, "UF", institutions.KindUniversity)
	f.grant(t, root, uf, rbac.RoleSuperAdmin)

	inst, err := f.institutions.Create(f.ctx, f.caller(t, root), CreateInstitutionInput{Name: "PUC", Kind: institutions.KindUniversity})
	require.NoError(t, err)
	assert.NotZero(t, inst.ID)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Failed to write audit event" {
			warned = true
		}
	}
	assert.True(t, warned)
}

type panickingNotifier struct{}

func (panickingNotifier) Dispatch(ctx context.Context, trigger jobs.Trigger, job *jobs.Job) {
	panic("gateway exploded")
}

func TestAsyncNotifier(t *testing.T) {
	logger, hook := test.NewNullLogger()

	t.Run("delivers in background", func(t *testing.T) {
		rec := &recordingNotifier{}
		n := NewAsyncNotifier(rec, time.Second, logger)
		n.Dispatch(context.Background(), jobs.TriggerNew, &jobs.Job{ID: 7})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, n.Wait(ctx))
		assert.Equal(t, []sent{{jobs.TriggerNew, 7}}, rec.all())
	})

	t.Run("survives a cancelled request", func(t *testing.T) {
		rec := &recordingNotifier{}
		n := NewAsyncNotifier(rec, time.Second, logger)
		reqCtx, cancelReq := context.WithCancel(context.Background())
		cancelReq()
		n.Dispatch(reqCtx, jobs.TriggerClosed, &jobs.Job{ID: 9})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, n.Wait(ctx))
		assert.Len(t, rec.all(), 1)
	})

	t.Run("recovers panics", func(t *testing.T) {
		n := NewAsyncNotifier(panickingNotifier{}, time.Second, logger)
		n.Dispatch(context.Background(), jobs.TriggerNew, &jobs.Job{ID: 1})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, n.Wait(ctx))

		// the recovery log is written after the dispatch has unwound
		assert.Eventually(t, func() bool {
			for _, e := range hook.AllEntries() {
				if e.Message == "Background task panicked" {
					return true
				}
			}
			return false
		}, time.Second, 10*time.Millisecond)
	})
}
