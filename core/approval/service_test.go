package approval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/approval"
	"github.com/eakinwale/acadia/core/user"
	emailsvc "github.com/eakinwale/acadia/services/email"
	inmemdb "github.com/eakinwale/acadia/storage/database/inmem"
	testutil "github.com/eakinwale/acadia/tests"
)

type approvalFixture struct {
	svc  *approval.Service
	repo approval.Repository
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)

	repo := inmemdb.NewApprovalRepository(db)
	return &approvalFixture{
		svc:  approval.NewService(repo, nil, nil, nil),
		repo: repo,
	}
}

func approveAction(role string) approval.Action {
	return approval.Action{
		ActorID:   "admin-" + role,
		ActorRole: role,
		Decision:  approval.DecisionApprove,
	}
}

func TestService_Submit(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()

	appr, err := f.svc.Submit(ctx, "result-1")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, appr.Status)
	assert.Equal(t, approval.LevelDepartment, appr.Level)
	assert.Equal(t, 1, appr.Version)
	assert.False(t, appr.Terminal())

	// a second cycle cannot open while one is in flight
	_, err = f.svc.Submit(ctx, "result-1")
	assert.True(t, core.IsDuplicate(err))
}

func TestService_Act_fullChain(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()

	appr, err := f.svc.Submit(ctx, "result-1")
	require.NoError(t, err)

	appr, err = f.svc.Act(ctx, appr.ID, approveAction(user.RoleAdminDepartment))
	require.NoError(t, err)
	assert.Equal(t, approval.StatusDepartmentApproved, appr.Status)
	assert.Equal(t, approval.LevelSchool, appr.Level)
	assert.True(t, appr.DepartmentApproverID.Valid)
	assert.True(t, appr.DepartmentActedAt.Valid)
	assert.Equal(t, 2, appr.Version)

	appr, err = f.svc.Act(ctx, appr.ID, approveAction(user.RoleAdminSchool))
	require.NoError(t, err)
	assert.Equal(t, approval.StatusFacultyApproved, appr.Status)
	assert.Equal(t, approval.LevelSenate, appr.Level)
	assert.True(t, appr.SchoolApproverID.Valid)

	appr, err = f.svc.Act(ctx, appr.ID, approveAction(user.RoleAdminSenate))
	require.NoError(t, err)
	assert.Equal(t, approval.StatusSenateApproved, appr.Status)
	assert.True(t, appr.SenateApproverID.Valid)
	assert.True(t, appr.Terminal())

	// earlier tier stamps survive later transitions
	assert.Equal(t, "admin-"+user.RoleAdminDepartment, appr.DepartmentApproverID.String)

	// no action is possible past the terminal state
	_, err = f.svc.Act(ctx, appr.ID, approveAction(user.RoleAdminSenate))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finalized")
}

func TestService_Act_wrongTier(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()

	appr, err := f.svc.Submit(ctx, "result-1")
	require.NoError(t, err)

	// pending at department; school and senate admins must be refused
	for _, role := range []string{user.RoleAdminSchool, user.RoleAdminSenate} {
		_, err = f.svc.Act(ctx, appr.ID, approveAction(role))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tier")
	}

	// record unchanged
	got, err := f.svc.GetByResultID(ctx, "result-1")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, got.Status)
	assert.Equal(t, 1, got.Version)
}

func TestService_Act_reject(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()

	appr, err := f.svc.Submit(ctx, "result-1")
	require.NoError(t, err)

	t.Run("comments are required", func(t *testing.T) {
		_, err := f.svc.Act(ctx, appr.ID, approval.Action{
			ActorID:   "dept-admin",
			ActorRole: user.RoleAdminDepartment,
			Decision:  approval.DecisionReject,
		})
		require.Error(t, err)

		got, err := f.svc.GetByResultID(ctx, "result-1")
		require.NoError(t, err)
		assert.Equal(t, approval.StatusPending, got.Status)
	})

	t.Run("rejection is terminal from any tier", func(t *testing.T) {
		got, err := f.svc.Act(ctx, appr.ID, approval.Action{
			ActorID:   "dept-admin",
			ActorRole: user.RoleAdminDepartment,
			Decision:  approval.DecisionReject,
			Comments:  "CA scores missing for half the class",
		})
		require.NoError(t, err)
		assert.Equal(t, approval.StatusRejected, got.Status)
		assert.True(t, got.Terminal())
		assert.Equal(t, "CA scores missing for half the class", got.Comments.String)
	})
}

func TestService_Act_invalidDecision(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()

	appr, err := f.svc.Submit(ctx, "result-1")
	require.NoError(t, err)

	_, err = f.svc.Act(ctx, appr.ID, approval.Action{
		ActorID:   "dept-admin",
		ActorRole: user.RoleAdminDepartment,
		Decision:  "MAYBE",
	})
	assert.Error(t, err)
}

func TestRepository_SaveTransition_conflict(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()

	appr, err := f.svc.Submit(ctx, "result-1")
	require.NoError(t, err)

	// two admins loaded the same version; the first transition wins
	stale := appr
	_, err = f.svc.Act(ctx, appr.ID, approveAction(user.RoleAdminDepartment))
	require.NoError(t, err)

	stale.Status = approval.StatusRejected
	_, err = f.repo.SaveTransition(ctx, stale)
	assert.True(t, core.IsConflict(err))
}

func TestService_notifications(t *testing.T) {
	db, err := inmemdb.Open()
	require.NoError(t, err)

	usrRepo := inmemdb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo)
	mailSvc := emailsvc.NewConsoleServiceMock()
	svc := approval.NewService(inmemdb.NewApprovalRepository(db), usrSvc, mailSvc, nil)

	testutil.CreateUser(t, usrRepo, "School Admin", "school@acadia.test", "",
		[]string{user.RoleAdmin, user.RoleAdminSchool}, true)

	ctx := context.Background()
	appr, err := svc.Submit(ctx, "result-1")
	require.NoError(t, err)

	emailsvc.ClearSentMessages()
	_, err = svc.Act(ctx, appr.ID, approveAction(user.RoleAdminDepartment))
	require.NoError(t, err)

	// the next tier's admins are notified after persistence
	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	require.Len(t, msg.To, 1)
	assert.Equal(t, "school@acadia.test", msg.To[0].Address)
	assert.Contains(t, msg.Subject, "awaiting")
}

func TestService_StatusesByResultIDs(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := context.Background()

	a1, err := f.svc.Submit(ctx, "result-1")
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, "result-2")
	require.NoError(t, err)

	_, err = f.svc.Act(ctx, a1.ID, approveAction(user.RoleAdminDepartment))
	require.NoError(t, err)

	statuses, err := f.svc.StatusesByResultIDs(ctx, []string{"result-1", "result-2", "result-3"})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusDepartmentApproved, statuses["result-1"])
	assert.Equal(t, approval.StatusPending, statuses["result-2"])
	_, ok := statuses["result-3"]
	assert.False(t, ok)
}
