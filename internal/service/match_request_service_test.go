package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-match/internal/dto"
	"mentor-match/internal/model"
	"mentor-match/internal/repository"
	"mentor-match/internal/testutil"
)

// ── 测试辅助 ──

type matchFixture struct {
	db   *gorm.DB
	repo *repository.Repository
	svc  MatchRequestService
}

func setupMatchFixture(t *testing.T) *matchFixture {
	t.Helper()
	db := testutil.OpenInMemoryDB(t)
	repo := repository.NewRepository(db)
	links := newImageLinker("http://api.test", newMockStorage())
	return &matchFixture{
		db:   db,
		repo: repo,
		svc:  NewMatchRequestService(repo, links, zap.NewNop()),
	}
}

func asCaller(u *model.User) Caller { return Caller{ID: u.ID, Role: u.Role} }

func createReq(mentorID, menteeID int64, msg string) *dto.CreateMatchRequestRequest {
	return &dto.CreateMatchRequestRequest{MentorID: &mentorID, MenteeID: &menteeID, Message: msg}
}

func (f *matchFixture) status(t *testing.T, id int64) model.MatchStatus {
	t.Helper()
	var mr model.MatchRequest
	require.NoError(t, f.db.First(&mr, id).Error)
	return mr.Status
}

func (f *matchFixture) count(t *testing.T, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.MatchRequest{}).Where(where, args...).Count(&n).Error)
	return n
}

// ── Create 测试 ──

func TestMatchRequestService_Create(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	mentee := testutil.CreateUser(t, f.db, "Mentee One", model.RoleMentee)

	resp, err := f.svc.Create(ctx, asCaller(mentee), createReq(mentor.ID, mentee.ID, "Please mentor me"))
	require.NoError(t, err)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, model.MatchStatusPending, f.status(t, resp.ID))
}

func TestMatchRequestService_Create_Errors(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	mentee := testutil.CreateUser(t, f.db, "Mentee One", model.RoleMentee)
	other := testutil.CreateUser(t, f.db, "Mentee Two", model.RoleMentee)

	_, err := f.svc.Create(ctx, asCaller(mentor), createReq(mentor.ID, mentee.ID, "hi"))
	assert.ErrorIs(t, err, ErrForbidden, "导师不能发起请求")

	_, err = f.svc.Create(ctx, asCaller(mentee), createReq(mentor.ID, mentee.ID, "  "))
	assert.ErrorIs(t, err, ErrMessageRequired)

	_, err = f.svc.Create(ctx, asCaller(mentee), createReq(mentor.ID, other.ID, "hi"))
	assert.ErrorIs(t, err, ErrNotSelf)

	_, err = f.svc.Create(ctx, asCaller(mentee), createReq(other.ID, mentee.ID, "hi"))
	assert.ErrorIs(t, err, ErrMentorNotFound, "对方不是导师")

	_, err = f.svc.Create(ctx, asCaller(mentee), createReq(9999, mentee.ID, "hi"))
	assert.ErrorIs(t, err, ErrMentorNotFound)

	assert.Zero(t, f.count(t, "1 = 1"), "失败的请求不应落库")
}

func TestMatchRequestService_Create_DuplicateActivePair(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	mentee := testutil.CreateUser(t, f.db, "Mentee One", model.RoleMentee)

	first, err := f.svc.Create(ctx, asCaller(mentee), createReq(mentor.ID, mentee.ID, "first"))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, asCaller(mentee), createReq(mentor.ID, mentee.ID, "second"))
	assert.ErrorIs(t, err, ErrRequestAlreadyActive)

	// ACCEPTED 之后同样视为进行中
	require.NoError(t, f.repo.MatchRequest.TransitionStatus(ctx, first.ID, model.MatchStatusPending, model.MatchStatusAccepted))
	_, err = f.svc.Create(ctx, asCaller(mentee), createReq(mentor.ID, mentee.ID, "third"))
	assert.ErrorIs(t, err, ErrRequestAlreadyActive)

	assert.EqualValues(t, 1, f.count(t, "mentor_id = ? AND mentee_id = ?", mentor.ID, mentee.ID), "存储不应变化")
}

func TestMatchRequestService_Create_OnePendingPerMentee(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	m1 := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	m2 := testutil.CreateUser(t, f.db, "Mentor Two", model.RoleMentor)
	m3 := testutil.CreateUser(t, f.db, "Mentor Three", model.RoleMentor)
	mentee := testutil.CreateUser(t, f.db, "Mentee One", model.RoleMentee)

	_, err := f.svc.Create(ctx, asCaller(mentee), createReq(m1.ID, mentee.ID, "hi"))
	require.NoError(t, err)

	for _, m := range []*model.User{m2, m3} {
		_, err := f.svc.Create(ctx, asCaller(mentee), createReq(m.ID, mentee.ID, "hi"))
		assert.ErrorIs(t, err, ErrMenteeHasPending)
	}
	assert.EqualValues(t, 1, f.count(t, "mentee_id = ? AND status = ?", mentee.ID, model.MatchStatusPending))
}

func TestMatchRequestService_Create_AfterRejectionAllowed(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	mentee := testutil.CreateUser(t, f.db, "Mentee One", model.RoleMentee)

	first, err := f.svc.Create(ctx, asCaller(mentee), createReq(mentor.ID, mentee.ID, "hi"))
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, asCaller(mentor), first.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, asCaller(mentee), createReq(mentor.ID, mentee.ID, "again"))
	assert.NoError(t, err, "被拒绝后可重新发起")
}

// ── Accept 测试 ──

func TestMatchRequestService_Accept_RejectsSiblings(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	a := testutil.CreateUser(t, f.db, "Mentee A", model.RoleMentee)
	b := testutil.CreateUser(t, f.db, "Mentee B", model.RoleMentee)
	c := testutil.CreateUser(t, f.db, "Mentee C", model.RoleMentee)

	r1, err := f.svc.Create(ctx, asCaller(a), createReq(mentor.ID, a.ID, "a"))
	require.NoError(t, err)
	r2, err := f.svc.Create(ctx, asCaller(b), createReq(mentor.ID, b.ID, "b"))
	require.NoError(t, err)
	r3, err := f.svc.Create(ctx, asCaller(c), createReq(mentor.ID, c.ID, "c"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), r1.ID)
	assert.Equal(t, int64(2), r2.ID)

	resp, err := f.svc.Accept(ctx, asCaller(mentor), r1.ID)
	require.NoError(t, err)
	assert.Equal(t, &dto.MatchStatusResponse{ID: r1.ID, Status: "ACCEPTED"}, resp)

	assert.Equal(t, model.MatchStatusAccepted, f.status(t, r1.ID))
	assert.Equal(t, model.MatchStatusRejected, f.status(t, r2.ID))
	assert.Equal(t, model.MatchStatusRejected, f.status(t, r3.ID))
	assert.Zero(t, f.count(t, "mentor_id = ? AND status = ?", mentor.ID, model.MatchStatusPending))
}

func TestMatchRequestService_Accept_OnlyOnePerMentor(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	a := testutil.CreateUser(t, f.db, "Mentee A", model.RoleMentee)
	b := testutil.CreateUser(t, f.db, "Mentee B", model.RoleMentee)

	r1, err := f.svc.Create(ctx, asCaller(a), createReq(mentor.ID, a.ID, "a"))
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, asCaller(mentor), r1.ID)
	require.NoError(t, err)

	// 导师已有 ACCEPTED 后，新的 PENDING 无法被接受
	r2, err := f.svc.Create(ctx, asCaller(b), createReq(mentor.ID, b.ID, "b"))
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, asCaller(mentor), r2.ID)
	assert.ErrorIs(t, err, ErrMentorAlreadyMatched)

	assert.EqualValues(t, 1, f.count(t, "mentor_id = ? AND status = ?", mentor.ID, model.MatchStatusAccepted))
	assert.Equal(t, model.MatchStatusPending, f.status(t, r2.ID))
}

func TestMatchRequestService_Accept_NotFound(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	other := testutil.CreateUser(t, f.db, "Mentor Two", model.RoleMentor)
	mentee := testutil.CreateUser(t, f.db, "Mentee One", model.RoleMentee)

	r, err := f.svc.Create(ctx, asCaller(mentee), createReq(mentor.ID, mentee.ID, "hi"))
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, asCaller(other), r.ID)
	assert.ErrorIs(t, err, ErrMatchRequestNotFound, "不是自己的请求")

	_, err = f.svc.Accept(ctx, asCaller(mentor), 9999)
	assert.ErrorIs(t, err, ErrMatchRequestNotFound)

	_, err = f.svc.Reject(ctx, asCaller(mentor), r.ID)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, asCaller(mentor), r.ID)
	assert.ErrorIs(t, err, ErrMatchRequestNotFound, "REJECTED 是终态")

	_, err = f.svc.Accept(ctx, asCaller(mentee), r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

// 兄弟请求的批量拒绝失败时，目标请求的接受必须一起回滚
func TestMatchRequestService_Accept_RollsBackOnSiblingFailure(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	a := testutil.CreateUser(t, f.db, "Mentee A", model.RoleMentee)
	b := testutil.CreateUser(t, f.db, "Mentee B", model.RoleMentee)

	r1, err := f.svc.Create(ctx, asCaller(a), createReq(mentor.ID, a.ID, "a"))
	require.NoError(t, err)
	r2, err := f.svc.Create(ctx, asCaller(b), createReq(mentor.ID, b.ID, "b"))
	require.NoError(t, err)

	injected := errors.New("injected failure")
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:fail_reject", func(tx *gorm.DB) {
		if dest, ok := tx.Statement.Dest.(map[string]interface{}); ok && dest["status"] == model.MatchStatusRejected {
			_ = tx.AddError(injected)
		}
	}))

	_, err = f.svc.Accept(ctx, asCaller(mentor), r1.ID)
	assert.ErrorIs(t, err, injected)

	assert.Equal(t, model.MatchStatusPending, f.status(t, r1.ID), "目标请求应回滚为 PENDING")
	assert.Equal(t, model.MatchStatusPending, f.status(t, r2.ID))
}

// ── Reject 测试 ──

func TestMatchRequestService_Reject(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	mentee := testutil.CreateUser(t, f.db, "Mentee One", model.RoleMentee)

	r, err := f.svc.Create(ctx, asCaller(mentee), createReq(mentor.ID, mentee.ID, "hi"))
	require.NoError(t, err)

	resp, err := f.svc.Reject(ctx, asCaller(mentor), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", resp.Status)

	_, err = f.svc.Reject(ctx, asCaller(mentor), r.ID)
	assert.ErrorIs(t, err, ErrMatchRequestNotFound, "只有 PENDING 可以拒绝")

	_, err = f.svc.Reject(ctx, asCaller(mentee), r.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

// ── Cancel 测试 ──

func TestMatchRequestService_Cancel(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	mentee := testutil.CreateUser(t, f.db, "Mentee One", model.RoleMentee)
	other := testutil.CreateUser(t, f.db, "Mentee Two", model.RoleMentee)

	r, err := f.svc.Create(ctx, asCaller(mentee), createReq(mentor.ID, mentee.ID, "hi"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Cancel(ctx, asCaller(mentor), r.ID), ErrForbidden)
	assert.ErrorIs(t, f.svc.Cancel(ctx, asCaller(other), r.ID), ErrMatchRequestNotFound, "不能撤回别人的请求")

	require.NoError(t, f.svc.Cancel(ctx, asCaller(mentee), r.ID))
	assert.Zero(t, f.count(t, "id = ?", r.ID), "撤回为物理删除")

	assert.ErrorIs(t, f.svc.Cancel(ctx, asCaller(mentee), r.ID), ErrMatchRequestNotFound)
}

func TestMatchRequestService_Cancel_RejectedNotCancellable(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	mentee := testutil.CreateUser(t, f.db, "Mentee One", model.RoleMentee)

	r := testutil.CreateMatchRequest(t, f.db, mentor.ID, mentee.ID, model.MatchStatusRejected)
	assert.ErrorIs(t, f.svc.Cancel(ctx, asCaller(mentee), r.ID), ErrMatchRequestNotFound)
	assert.EqualValues(t, 1, f.count(t, "id = ?", r.ID))
}

// rejectAfterLookup 在归属校验通过后、删除前把请求改为 REJECTED，模拟导师并发拒绝
type rejectAfterLookup struct {
	repository.MatchRequestRepository
	db *gorm.DB
}

func (r *rejectAfterLookup) GetForMentee(ctx context.Context, id, menteeID int64, statuses []model.MatchStatus) (*model.MatchRequest, error) {
	mr, err := r.MatchRequestRepository.GetForMentee(ctx, id, menteeID, statuses)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.MatchRequest{}).Where("id = ?", id).Update("status", model.MatchStatusRejected).Error; err != nil {
		return nil, err
	}
	return mr, nil
}

func TestMatchRequestService_Cancel_ConcurrentReject(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	mentee := testutil.CreateUser(t, f.db, "Mentee One", model.RoleMentee)
	r := testutil.CreateMatchRequest(t, f.db, mentor.ID, mentee.ID, model.MatchStatusPending)

	repo := &repository.Repository{
		User:         f.repo.User,
		MatchRequest: &rejectAfterLookup{MatchRequestRepository: f.repo.MatchRequest, db: f.db},
	}
	svc := NewMatchRequestService(repo, newImageLinker("http://api.test", newMockStorage()), zap.NewNop())

	assert.ErrorIs(t, svc.Cancel(ctx, asCaller(mentee), r.ID), ErrMatchRequestNotFound)
	assert.EqualValues(t, 1, f.count(t, "id = ?", r.ID), "已被拒绝的请求不应被删除")
	assert.Equal(t, model.MatchStatusRejected, f.status(t, r.ID))
}

// ── 端到端示例流程 ──

func TestMatchRequestService_ExampleFlow(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor, "Go")
	a := testutil.CreateUser(t, f.db, "Mentee A", model.RoleMentee)
	b := testutil.CreateUser(t, f.db, "Mentee B", model.RoleMentee)

	r1, err := f.svc.Create(ctx, asCaller(a), createReq(mentor.ID, a.ID, "from a"))
	require.NoError(t, err)
	r2, err := f.svc.Create(ctx, asCaller(b), createReq(mentor.ID, b.ID, "from b"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, []int64{r1.ID, r2.ID})

	incoming, err := f.svc.ListIncoming(ctx, asCaller(mentor))
	require.NoError(t, err)
	require.Len(t, incoming, 2)
	assert.Equal(t, "http://api.test/api/images/mentee/"+strconv.FormatInt(b.ID, 10), incoming[0].Mentee.ImageURL)

	_, err = f.svc.Accept(ctx, asCaller(mentor), r1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusRejected, f.status(t, r2.ID))

	outgoing, err := f.svc.ListOutgoing(ctx, asCaller(a))
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "ACCEPTED", outgoing[0].Status)
	assert.Equal(t, "Mentor One", outgoing[0].Mentor.Name)
	assert.Equal(t, []string{"Go"}, outgoing[0].Mentor.Skills)

	// 撤回已接受的请求后，双方列表中都不再出现
	require.NoError(t, f.svc.Cancel(ctx, asCaller(a), r1.ID))

	outgoing, err = f.svc.ListOutgoing(ctx, asCaller(a))
	require.NoError(t, err)
	assert.Empty(t, outgoing)

	incoming, err = f.svc.ListIncoming(ctx, asCaller(mentor))
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, r2.ID, incoming[0].ID)

	// 导师重新空闲，可以接受新的请求
	c := testutil.CreateUser(t, f.db, "Mentee C", model.RoleMentee)
	r3, err := f.svc.Create(ctx, asCaller(c), createReq(mentor.ID, c.ID, "from c"))
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, asCaller(mentor), r3.ID)
	assert.NoError(t, err)
}

func TestMatchRequestService_ListRoles(t *testing.T) {
	f := setupMatchFixture(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, f.db, "Mentor One", model.RoleMentor)
	mentee := testutil.CreateUser(t, f.db, "Mentee One", model.RoleMentee)

	_, err := f.svc.ListIncoming(ctx, asCaller(mentee))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.ListOutgoing(ctx, asCaller(mentor))
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := f.svc.ListIncoming(ctx, asCaller(mentor))
	require.NoError(t, err)
	assert.NotNil(t, list, "空列表序列化为 []")
	assert.Empty(t, list)
}
