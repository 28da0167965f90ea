package repository

import (
	"context"

	"gorm.io/gorm"

	"mentor-match/internal/model"
	pkgerrors "mentor-match/pkg/errors"
)

// MatchRequestRepository 匹配请求数据访问接口
type MatchRequestRepository interface {
	Create(ctx context.Context, mr *model.MatchRequest) error
	// FindActiveByPair 该导师-学员组合下的 PENDING/ACCEPTED 请求，不存在返回 (nil, nil)
	FindActiveByPair(ctx context.Context, mentorID, menteeID int64) (*model.MatchRequest, error)
	// FindPendingByMentee 学员任意一条 PENDING 请求，不存在返回 (nil, nil)
	FindPendingByMentee(ctx context.Context, menteeID int64) (*model.MatchRequest, error)
	// FindAcceptedByMentor 导师已接受的请求，不存在返回 (nil, nil)
	FindAcceptedByMentor(ctx context.Context, mentorID int64) (*model.MatchRequest, error)
	GetForMentor(ctx context.Context, id, mentorID int64, status model.MatchStatus) (*model.MatchRequest, error)
	GetForMentee(ctx context.Context, id, menteeID int64, statuses []model.MatchStatus) (*model.MatchRequest, error)
	ListByMentor(ctx context.Context, mentorID int64) ([]model.MatchRequest, error)
	ListByMentee(ctx context.Context, menteeID int64) ([]model.MatchRequest, error)
	// TransitionStatus 条件更新 from → to；未命中返回 ErrStateChanged
	TransitionStatus(ctx context.Context, id int64, from, to model.MatchStatus) error
	// RejectOtherPending 将导师除 exceptID 外的全部 PENDING 请求置为 REJECTED
	RejectOtherPending(ctx context.Context, mentorID, exceptID int64) (int64, error)
	// DeleteForMentee 仅当请求属于该学员且状态仍在 statuses 中时物理删除；未命中返回 ErrStateChanged
	DeleteForMentee(ctx context.Context, id, menteeID int64, statuses []model.MatchStatus) error
}

type matchRequestRepo struct {
	db *gorm.DB
}

// NewMatchRequestRepo 创建 MatchRequestRepository 实例
func NewMatchRequestRepo(db *gorm.DB) MatchRequestRepository {
	return &matchRequestRepo{db: db}
}

func (r *matchRequestRepo) Create(ctx context.Context, mr *model.MatchRequest) error {
	return r.db.WithContext(ctx).Create(mr).Error
}

func (r *matchRequestRepo) FindActiveByPair(ctx context.Context, mentorID, menteeID int64) (*model.MatchRequest, error) {
	return r.findOne(r.db.WithContext(ctx).
		Where("mentor_id = ? AND mentee_id = ?", mentorID, menteeID).
		Where("status IN ?", model.ActiveMatchStatuses))
}

func (r *matchRequestRepo) FindPendingByMentee(ctx context.Context, menteeID int64) (*model.MatchRequest, error) {
	return r.findOne(r.db.WithContext(ctx).
		Where("mentee_id = ? AND status = ?", menteeID, model.MatchStatusPending))
}

func (r *matchRequestRepo) FindAcceptedByMentor(ctx context.Context, mentorID int64) (*model.MatchRequest, error) {
	return r.findOne(r.db.WithContext(ctx).
		Where("mentor_id = ? AND status = ?", mentorID, model.MatchStatusAccepted))
}

// findOne 取第一条记录；未找到不视为错误
func (r *matchRequestRepo) findOne(db *gorm.DB) (*model.MatchRequest, error) {
	var mrs []model.MatchRequest
	if err := db.Order("id ASC").Limit(1).Find(&mrs).Error; err != nil {
		return nil, err
	}
	if len(mrs) == 0 {
		return nil, nil
	}
	return &mrs[0], nil
}

func (r *matchRequestRepo) GetForMentor(ctx context.Context, id, mentorID int64, status model.MatchStatus) (*model.MatchRequest, error) {
	var mr model.MatchRequest
	err := r.db.WithContext(ctx).
		Where("id = ? AND mentor_id = ? AND status = ?", id, mentorID, status).
		First(&mr).Error
	if err != nil {
		return nil, err
	}
	return &mr, nil
}

func (r *matchRequestRepo) GetForMentee(ctx context.Context, id, menteeID int64, statuses []model.MatchStatus) (*model.MatchRequest, error) {
	var mr model.MatchRequest
	err := r.db.WithContext(ctx).
		Where("id = ? AND mentee_id = ?", id, menteeID).
		Where("status IN ?", statuses).
		First(&mr).Error
	if err != nil {
		return nil, err
	}
	return &mr, nil
}

func (r *matchRequestRepo) ListByMentor(ctx context.Context, mentorID int64) ([]model.MatchRequest, error) {
	var mrs []model.MatchRequest
	err := r.db.WithContext(ctx).
		Preload("Mentee").
		Where("mentor_id = ?", mentorID).
		Order("created_at DESC").Order("id DESC").
		Find(&mrs).Error
	return mrs, err
}

func (r *matchRequestRepo) ListByMentee(ctx context.Context, menteeID int64) ([]model.MatchRequest, error) {
	var mrs []model.MatchRequest
	err := r.db.WithContext(ctx).
		Preload("Mentor").
		Where("mentee_id = ?", menteeID).
		Order("created_at DESC").Order("id DESC").
		Find(&mrs).Error
	return mrs, err
}

func (r *matchRequestRepo) TransitionStatus(ctx context.Context, id int64, from, to model.MatchStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.MatchRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStateChanged
	}
	return nil
}

func (r *matchRequestRepo) RejectOtherPending(ctx context.Context, mentorID, exceptID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.MatchRequest{}).
		Where("mentor_id = ? AND status = ? AND id <> ?", mentorID, model.MatchStatusPending, exceptID).
		Update("status", model.MatchStatusRejected)
	return result.RowsAffected, result.Error
}

func (r *matchRequestRepo) DeleteForMentee(ctx context.Context, id, menteeID int64, statuses []model.MatchStatus) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND mentee_id = ? AND status IN ?", id, menteeID, statuses).
		Delete(&model.MatchRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStateChanged
	}
	return nil
}
