package visibility

import (
	"testing"
	"time"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/jobs"
	"github.com/platinummonkey/jobboard/pkg/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	instX int64 = 10
	instY int64 = 20
)

func ptr(v int64) *int64 { return &v }

func board() []*jobs.Job {
	deleted := time.Now()
	return []*jobs.Job{
		{ID: 1, InstitutionID: instX, AuthorID: 100, Status: jobs.StatusOpen},
		{ID: 2, InstitutionID: instX, AuthorID: 100, Status: jobs.StatusDraft},
		{ID: 3, InstitutionID: instX, AuthorID: 101, Status: jobs.StatusDraft},
		{ID: 4, InstitutionID: instX, AuthorID: 101, Status: jobs.StatusClosed},
		{ID: 5, InstitutionID: instY, AuthorID: 200, Status: jobs.StatusPublished, IsPublic: true},
		{ID: 6, InstitutionID: instY, AuthorID: 200, Status: jobs.StatusOpen},
		{ID: 7, InstitutionID: instX, AuthorID: 100, Status: jobs.StatusOpen, IsPublic: true, DeletedAt: &deleted},
	}
}

func member(userID int64, roles map[int64]rbac.Role) rbac.Caller {
	set := rbac.MembershipSet{}
	for inst, role := range roles {
		set = append(set, rbac.Membership{UserID: userID, InstitutionID: inst, Role: role})
	}
	return rbac.NewCaller(userID, set)
}

// filter applies the predicate for caller the way the memory store does
func filter(caller rbac.Caller, activeTenant *int64, list []*jobs.Job) ([]*jobs.Job, error) {
	pred, err := Build(caller, activeTenant)
	if err != nil {
		return nil, err
	}
	out := make([]*jobs.Job, 0, len(list))
	for _, job := range list {
		if pred.Matches(job) {
			out = append(out, job)
		}
	}
	return out, nil
}

func visibleIDs(t *testing.T, caller rbac.Caller, active *int64) []int64 {
	t.Helper()
	list, err := filter(caller, active, board())
	require.NoError(t, err)
	ids := []int64{}
	for _, job := range list {
		ids = append(ids, job.ID)
	}
	return ids
}

func TestBuild_SuperAdminIsUnrestricted(t *testing.T) {
	super := member(1, map[int64]rbac.Role{instY: rbac.RoleSuperAdmin})

	pred, err := Build(super, nil)
	require.NoError(t, err)
	assert.True(t, pred.Unrestricted)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, visibleIDs(t, super, nil))
}

func TestBuild_AnonymousSeesPublicSet(t *testing.T) {
	assert.Equal(t, []int64{5}, visibleIDs(t, rbac.AnonymousCaller(), nil))
}

func TestBuild_RequiresActiveTenant(t *testing.T) {
	_, err := Build(member(100, map[int64]rbac.Role{instX: rbac.RoleProfessor}), nil)
	assert.True(t, apperr.Is(err, apperr.KindNoActiveTenant))
	assert.Equal(t, string(rbac.ReasonNoActiveTenant), apperr.ReasonOf(err))
}

func TestBuild_AdminSeesAllLocalStatuses(t *testing.T) {
	admin := member(300, map[int64]rbac.Role{instX: rbac.RoleAdmin})
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, visibleIDs(t, admin, ptr(instX)))
}

func TestBuild_DraftIsolation(t *testing.T) {
	for _, role := range []rbac.Role{rbac.RoleProfessor, rbac.RoleCoordenador, rbac.RoleEmpresa, rbac.RoleStudent} {
		t.Run(string(role), func(t *testing.T) {
			m := member(100, map[int64]rbac.Role{instX: role})
			list, err := filter(m, ptr(instX), board())
			require.NoError(t, err)
			for _, job := range list {
				if job.Status == jobs.StatusDraft {
					assert.Equal(t, int64(100), job.AuthorID, "saw another author's draft %d", job.ID)
				}
			}
			assert.Equal(t, []int64{1, 2, 5}, visibleIDs(t, m, ptr(instX)))
		})
	}
}

func TestBuild_LensSelectsLocalSet(t *testing.T) {
	m := member(100, map[int64]rbac.Role{instX: rbac.RoleStudent, instY: rbac.RoleStudent})

	assert.Equal(t, []int64{1, 2, 5}, visibleIDs(t, m, ptr(instX)))
	// private job 6 only appears through the institution Y lens
	assert.Equal(t, []int64{5, 6}, visibleIDs(t, m, ptr(instY)))
}

func TestBuild_StaleLensFallsBackToPublic(t *testing.T) {
	m := member(300, map[int64]rbac.Role{instY: rbac.RoleStudent})
	assert.Equal(t, []int64{5}, visibleIDs(t, m, ptr(instX)))
}

func TestBuild_StaleLensKeepsOwnDrafts(t *testing.T) {
	// author 100 of draft 2 no longer belongs to institution X
	removed := member(100, map[int64]rbac.Role{instY: rbac.RoleStudent})
	assert.Equal(t, []int64{2, 5}, visibleIDs(t, removed, ptr(instX)))

	pred, err := Build(rbac.NewCaller(100, nil), ptr(instX))
	require.NoError(t, err)
	assert.Equal(t, jobs.Predicate{PublicOnly: true, TenantID: instX, DraftAuthorID: 100}, pred)
}
