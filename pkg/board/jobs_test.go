package board

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/audit"
	"github.com/platinummonkey/jobboard/pkg/institutions"
	"github.com/platinummonkey/jobboard/pkg/jobs"
	"github.com/platinummonkey/jobboard/pkg/rbac"
)

func TestScenario_EmpresaCreatesPublicDraft(t *testing.T) {
	f := newFixture(t)
	techco := f.institution(t, "TechCo", institutions.KindCompany)
	e := f.user(t, "e@techco.com")
	f.grant(t, e, techco, rbac.RoleEmpresa)
	f.lens(t, e, techco)

	job, err := f.jobs.Create(f.ctx, f.caller(t, e), CreateJobInput{Title: "Backend Intern", Description: "Go and SQL"})
	require.NoError(t, err)

	assert.Equal(t, techco, job.InstitutionID)
	assert.Equal(t, e, job.AuthorID)
	assert.True(t, job.IsPublic)
	assert.Equal(t, jobs.StatusDraft, job.Status)
	assert.Empty(t, f.notifier.all(), "drafts are silent")

	created := f.audit.EventsOfType(audit.EventTypeJobCreate)
	require.Len(t, created, 1)
	assert.Equal(t, audit.EventStatusSuccess, created[0].Status)
}

func TestCreate_ProfessorJobIsPrivate(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	p := f.user(t, "p@uf.br")
	f.grant(t, p, uf, rbac.RoleProfessor)

	job, err := f.jobs.Create(f.ctx, f.caller(t, p), CreateJobInput{InstitutionID: &uf, Title: "TA", Description: "Grading"})
	require.NoError(t, err)
	assert.False(t, job.IsPublic)
}

func TestCreate_SuperAdminWithoutLocalMembershipIsPrivate(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	techco := f.institution(t, "TechCo", institutions.KindCompany)
	root := f.user(t, "root@board.io")
	f.grant(t, root, uf, rbac.RoleSuperAdmin)

	job, err := f.jobs.Create(f.ctx, f.caller(t, root), CreateJobInput{InstitutionID: &techco, Title: "Ops", Description: "On call"})
	require.NoError(t, err)
	assert.Equal(t, techco, job.InstitutionID)
	assert.False(t, job.IsPublic)
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	closed := &institutions.Institution{Name: "Closed U", Kind: institutions.KindUniversity}
	require.NoError(t, f.insts.Create(f.ctx, closed))

	p := f.user(t, "p@uf.br")
	f.grant(t, p, uf, rbac.RoleProfessor)
	f.grant(t, p, closed.ID, rbac.RoleAdmin)
	valid := CreateJobInput{Title: "TA", Description: "Grading"}

	tests := []struct {
		name   string
		caller rbac.Caller
		input  CreateJobInput
		kind   apperr.Kind
	}{
		{
			name:   "anonymous",
			caller: rbac.AnonymousCaller(),
			input:  CreateJobInput{InstitutionID: &uf, Title: "TA", Description: "Grading"},
			kind:   apperr.KindUnauthenticated,
		},
		{
			name:   "no active institution",
			caller: f.caller(t, p),
			input:  valid,
			kind:   apperr.KindNoActiveTenant,
		},
		{
			name:   "missing title",
			caller: f.caller(t, p),
			input:  CreateJobInput{InstitutionID: &uf, Description: "Grading"},
			kind:   apperr.KindValidation,
		},
		{
			name:   "unknown status",
			caller: f.caller(t, p),
			input:  CreateJobInput{InstitutionID: &uf, Title: "TA", Description: "Grading", Status: "archived"},
			kind:   apperr.KindValidation,
		},
		{
			name:   "deactivated institution",
			caller: f.caller(t, p),
			input:  CreateJobInput{InstitutionID: &closed.ID, Title: "TA", Description: "Grading"},
			kind:   apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.jobs.Create(f.ctx, tt.caller, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestCreate_ListedJobNotifies(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	p := f.user(t, "p@uf.br")
	f.grant(t, p, uf, rbac.RoleProfessor)

	job, err := f.jobs.Create(f.ctx, f.caller(t, p), CreateJobInput{
		InstitutionID: &uf, Title: "TA", Description: "Grading", Status: "open",
	})
	require.NoError(t, err)
	assert.Equal(t, []sent{{jobs.TriggerNew, job.ID}}, f.notifier.all())
}

func TestScenario_TransferRequiresAdminAtDestination(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	puc := f.institution(t, "PUC", institutions.KindUniversity)
	a := f.user(t, "a@uf.br")
	p := f.user(t, "p@uf.br")
	root := f.user(t, "root@board.io")
	f.grant(t, a, uf, rbac.RoleAdmin)
	f.grant(t, p, uf, rbac.RoleProfessor)
	f.grant(t, root, uf, rbac.RoleSuperAdmin)

	job := f.postJob(t, uf, p, jobs.StatusOpen, false)

	_, err := f.jobs.Update(f.ctx, f.caller(t, a), job.ID, UpdateJobInput{InstitutionID: &puc})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, string(rbac.ReasonTransferRequiresAdmin), apperr.ReasonOf(err))

	// the author can never move a job either
	_, err = f.jobs.Update(f.ctx, f.caller(t, p), job.ID, UpdateJobInput{InstitutionID: &puc})
	assert.Equal(t, string(rbac.ReasonTransferRequiresAdmin), apperr.ReasonOf(err))

	f.grant(t, a, puc, rbac.RoleAdmin)
	moved, err := f.jobs.Update(f.ctx, f.caller(t, a), job.ID, UpdateJobInput{InstitutionID: &puc})
	require.NoError(t, err)
	assert.Equal(t, puc, moved.InstitutionID)
	assert.Equal(t, p, moved.AuthorID)

	back, err := f.jobs.Update(f.ctx, f.caller(t, root), job.ID, UpdateJobInput{InstitutionID: &uf})
	require.NoError(t, err)
	assert.Equal(t, uf, back.InstitutionID)

	updates := f.audit.EventsOfType(audit.EventTypeJobUpdate)
	require.Len(t, updates, 2)
	assert.Equal(t, uf, updates[0].Metadata["transferred_from"])
}

func TestScenario_PrivateJobHiddenFromOutsiders(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	p := f.user(t, "p@uf.br")
	s := f.user(t, "s@elsewhere.br")
	f.grant(t, p, uf, rbac.RoleProfessor)

	private := f.postJob(t, uf, p, jobs.StatusPublished, false)
	public := f.postJob(t, uf, p, jobs.StatusPublished, true)

	for name, caller := range map[string]rbac.Caller{
		"anonymous":  rbac.AnonymousCaller(),
		"non-member": f.caller(t, s),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.jobs.Get(f.ctx, caller, private.ID)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindNotFound))

			got, err := f.jobs.Get(f.ctx, caller, public.ID)
			require.NoError(t, err)
			assert.Equal(t, public.ID, got.ID)
		})
	}

	// a hidden job cannot be probed through edits either
	_, err := f.jobs.Update(f.ctx, f.caller(t, s), private.ID, UpdateJobInput{Title: ptr("x")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = f.jobs.Update(f.ctx, f.caller(t, s), public.ID, UpdateJobInput{Title: ptr("x")})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestScenario_DemotedAuthorKeepsRights(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	p := f.user(t, "p@uf.br")
	f.grant(t, p, uf, rbac.RoleProfessor)

	job, err := f.jobs.Create(f.ctx, f.caller(t, p), CreateJobInput{InstitutionID: &uf, Title: "TA", Description: "Grading"})
	require.NoError(t, err)

	f.grant(t, p, uf, rbac.RoleStudent)
	demoted := f.caller(t, p)

	edited, err := f.jobs.Update(f.ctx, demoted, job.ID, UpdateJobInput{Description: ptr("Grading and labs")})
	require.NoError(t, err)
	assert.Equal(t, "Grading and labs", edited.Description)

	_, err = f.jobs.Create(f.ctx, demoted, CreateJobInput{InstitutionID: &uf, Title: "RA", Description: "Research"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	// removal of every membership changes nothing for the author
	require.NoError(t, f.members.Remove(f.ctx, p, uf))
	require.NoError(t, f.jobs.Delete(f.ctx, f.caller(t, p), job.ID))
}

func TestList_RemovedAuthorKeepsOwnDraft(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	p := f.user(t, "p@uf.br")
	other := f.user(t, "o@uf.br")
	f.grant(t, p, uf, rbac.RoleProfessor)
	f.grant(t, other, uf, rbac.RoleProfessor)
	f.lens(t, p, uf)

	draft, err := f.jobs.Create(f.ctx, f.caller(t, p), CreateJobInput{Title: "TA", Description: "Grading"})
	require.NoError(t, err)
	require.Equal(t, jobs.StatusDraft, draft.Status)
	othersDraft := f.postJob(t, uf, other, jobs.StatusDraft, false)
	private := f.postJob(t, uf, other, jobs.StatusOpen, false)

	list, err := f.jobs.List(f.ctx, f.caller(t, p), jobs.Query{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{draft.ID, private.ID}, jobIDs(list))

	require.NoError(t, f.members.Remove(f.ctx, p, uf))
	removed := f.caller(t, p)

	_, err = f.jobs.Get(f.ctx, removed, draft.ID)
	require.NoError(t, err)

	list, err = f.jobs.List(f.ctx, removed, jobs.Query{})
	require.NoError(t, err)
	ids := jobIDs(list)
	assert.Contains(t, ids, draft.ID)
	assert.NotContains(t, ids, othersDraft.ID)
	assert.NotContains(t, ids, private.ID)
}

func TestScenario_AdminListing(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	puc := f.institution(t, "PUC", institutions.KindUniversity)
	a := f.user(t, "a@uf.br")
	p := f.user(t, "p@uf.br")
	q := f.user(t, "q@puc.br")
	f.grant(t, a, uf, rbac.RoleAdmin)
	f.grant(t, p, uf, rbac.RoleProfessor)
	f.grant(t, q, puc, rbac.RoleProfessor)
	f.lens(t, a, uf)

	ufDraft := f.postJob(t, uf, p, jobs.StatusDraft, false)
	ufClosed := f.postJob(t, uf, p, jobs.StatusClosed, false)
	ufOpen := f.postJob(t, uf, p, jobs.StatusOpen, false)
	pucPublic := f.postJob(t, puc, q, jobs.StatusPublished, true)
	f.postJob(t, puc, q, jobs.StatusPublished, false)
	f.postJob(t, puc, q, jobs.StatusDraft, true)
	gone := f.postJob(t, uf, p, jobs.StatusOpen, true)
	require.NoError(t, f.jobRepo.SoftDelete(f.ctx, gone.ID, time.Now()))

	list, err := f.jobs.List(f.ctx, f.caller(t, a), jobs.Query{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{ufDraft.ID, ufClosed.ID, ufOpen.ID, pucPublic.ID}, jobIDs(list))
}

func TestList_DraftIsolation(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	m := f.user(t, "m@uf.br")
	other := f.user(t, "o@uf.br")
	f.grant(t, m, uf, rbac.RoleProfessor)
	f.grant(t, other, uf, rbac.RoleProfessor)
	f.lens(t, m, uf)

	mine := f.postJob(t, uf, m, jobs.StatusDraft, false)
	theirs := f.postJob(t, uf, other, jobs.StatusDraft, false)
	open := f.postJob(t, uf, other, jobs.StatusOpen, false)
	f.postJob(t, uf, other, jobs.StatusClosed, false)

	list, err := f.jobs.List(f.ctx, f.caller(t, m), jobs.Query{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{mine.ID, open.ID}, jobIDs(list))
	assert.NotContains(t, jobIDs(list), theirs.ID)
}

func TestList_QueryFiltersAndLens(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	root := f.user(t, "root@board.io")
	m := f.user(t, "m@uf.br")
	f.grant(t, root, uf, rbac.RoleSuperAdmin)
	f.grant(t, m, uf, rbac.RoleStudent)

	golang := f.postJob(t, uf, root, jobs.StatusOpen, true)
	require.NoError(t, f.jobRepo.Update(f.ctx, &jobs.Job{
		ID: golang.ID, InstitutionID: uf, AuthorID: root, Title: "Go developer",
		Description: "APIs", Status: jobs.StatusOpen, IsPublic: true, CreatedAt: golang.CreatedAt,
	}))
	f.postJob(t, uf, root, jobs.StatusDraft, false)

	_, err := f.jobs.List(f.ctx, f.caller(t, m), jobs.Query{})
	assert.True(t, apperr.Is(err, apperr.KindNoActiveTenant), "members need a lens")

	anon, err := f.jobs.List(f.ctx, rbac.AnonymousCaller(), jobs.Query{})
	require.NoError(t, err)
	assert.Equal(t, []int64{golang.ID}, jobIDs(anon))

	all, err := f.jobs.List(f.ctx, f.caller(t, root), jobs.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := f.jobs.List(f.ctx, f.caller(t, root), jobs.Query{Search: "go"})
	require.NoError(t, err)
	assert.Equal(t, []int64{golang.ID}, jobIDs(found))

	draft := jobs.StatusDraft
	drafts, err := f.jobs.List(f.ctx, f.caller(t, root), jobs.Query{Status: &draft, Limit: 500})
	require.NoError(t, err)
	assert.Len(t, drafts, 1)
}

func TestSuperAdminSupremacy_ThroughServices(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	puc := f.institution(t, "PUC", institutions.KindUniversity)
	root := f.user(t, "root@board.io")
	p := f.user(t, "p@puc.br")
	f.grant(t, root, uf, rbac.RoleSuperAdmin)
	f.grant(t, p, puc, rbac.RoleProfessor)

	for _, status := range []jobs.Status{jobs.StatusDraft, jobs.StatusPublished, jobs.StatusOpen, jobs.StatusClosed} {
		job := f.postJob(t, puc, p, status, false)
		caller := f.caller(t, root)

		_, err := f.jobs.Get(f.ctx, caller, job.ID)
		require.NoError(t, err, status)
		_, err = f.jobs.Update(f.ctx, caller, job.ID, UpdateJobInput{Title: ptr("Reviewed")})
		require.NoError(t, err, status)
		require.NoError(t, f.jobs.Delete(f.ctx, caller, job.ID), status)
	}
}

func TestUpdate_Triggers(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	p := f.user(t, "p@uf.br")
	f.grant(t, p, uf, rbac.RoleProfessor)
	caller := f.caller(t, p)

	job := f.postJob(t, uf, p, jobs.StatusOpen, false)

	_, err := f.jobs.Update(f.ctx, caller, job.ID, UpdateJobInput{Location: ptr("Remote")})
	require.NoError(t, err)
	assert.Empty(t, f.notifier.all(), "location edits are silent")

	_, err = f.jobs.Update(f.ctx, caller, job.ID, UpdateJobInput{Description: ptr("new duties")})
	require.NoError(t, err)
	_, err = f.jobs.Update(f.ctx, caller, job.ID, UpdateJobInput{Status: ptr("closed")})
	require.NoError(t, err)

	assert.Equal(t, []sent{
		{jobs.TriggerModified, job.ID},
		{jobs.TriggerClosed, job.ID},
	}, f.notifier.all())

	_, err = f.jobs.Update(f.ctx, caller, job.ID, UpdateJobInput{Status: ptr("archived")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = f.jobs.Update(f.ctx, caller, job.ID, UpdateJobInput{Title: ptr("  ")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdate_VisibilityToggle(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	p := f.user(t, "p@uf.br")
	f.grant(t, p, uf, rbac.RoleProfessor)

	job := f.postJob(t, uf, p, jobs.StatusPublished, false)
	_, err := f.jobs.Update(f.ctx, f.caller(t, p), job.ID, UpdateJobInput{IsPublic: ptr(true)})
	require.NoError(t, err)

	got, err := f.jobs.Get(f.ctx, rbac.AnonymousCaller(), job.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublic)
}

func TestDelete_Tombstones(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	a := f.user(t, "a@uf.br")
	p := f.user(t, "p@uf.br")
	other := f.user(t, "o@uf.br")
	f.grant(t, a, uf, rbac.RoleAdmin)
	f.grant(t, p, uf, rbac.RoleProfessor)
	f.grant(t, other, uf, rbac.RoleCoordenador)
	f.lens(t, a, uf)

	job := f.postJob(t, uf, p, jobs.StatusOpen, true)

	err := f.jobs.Delete(f.ctx, f.caller(t, other), job.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "peers cannot delete each other's jobs")

	require.NoError(t, f.jobs.Delete(f.ctx, f.caller(t, a), job.ID))

	_, err = f.jobs.Get(f.ctx, f.caller(t, a), job.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	list, err := f.jobs.List(f.ctx, f.caller(t, a), jobs.Query{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, apperr.Is(f.jobs.Delete(f.ctx, f.caller(t, a), job.ID), apperr.KindNotFound))

	trail, err := f.audit.ListByResource(f.ctx, audit.ResourceTypeJob, strconv.FormatInt(job.ID, 10))
	require.NoError(t, err)
	var deleted bool
	for _, e := range trail {
		if e.EventType == audit.EventTypeJobDelete {
			deleted = true
		}
	}
	assert.True(t, deleted, "the audit trail keeps tombstoned jobs")
}

func TestAuditTrail_KeepsTombstonedJobs(t *testing.T) {
	f := newFixture(t)
	uf := f.institution(t, "UF", institutions.KindUniversity)
	root := f.user(t, "root@board.io")
	p := f.user(t, "p@uf.br")
	f.grant(t, root, uf, rbac.RoleSuperAdmin)
	f.grant(t, p, uf, rbac.RoleProfessor)
	trail := NewAuditService(Deps{Audit: f.audit})

	job, err := f.jobs.Create(f.ctx, f.caller(t, p), CreateJobInput{InstitutionID: &uf, Title: "TA", Description: "Grading"})
	require.NoError(t, err)
	require.NoError(t, f.jobs.Delete(f.ctx, f.caller(t, p), job.ID))

	events, err := trail.Trail(f.ctx, f.caller(t, root), audit.ResourceTypeJob, job.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.EventTypeJobCreate, events[0].EventType)
	assert.Equal(t, audit.EventTypeJobDelete, events[1].EventType)

	_, err = trail.Trail(f.ctx, f.caller(t, p), audit.ResourceTypeJob, job.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = trail.Trail(f.ctx, f.caller(t, root), "spaceship", job.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
