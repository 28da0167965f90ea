package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-match/internal/dto"
	"mentor-match/internal/model"
	"mentor-match/internal/repository"
	pkgerrors "mentor-match/pkg/errors"
)

// ── 匹配请求模块业务错误 ──

var (
	ErrMessageRequired      = errors.New("message is required")
	ErrNotSelf              = errors.New("you can only send requests for yourself")
	ErrMentorNotFound       = errors.New("mentor not found")
	ErrRequestAlreadyActive = errors.New("request already exists or is already accepted")
	ErrMenteeHasPending     = errors.New("you already have a pending request")
	ErrMatchRequestNotFound = errors.New("match request not found")
	ErrMentorAlreadyMatched = errors.New("mentor already has an accepted request")
)

// MatchRequestService 匹配请求工作流
//
// 状态机：
//   - PENDING → ACCEPTED | REJECTED（导师操作）
//   - PENDING | ACCEPTED → 删除（学员取消）
//
// 不变量（服务层先检查，数据库部分唯一索引兜底）：
//   - 每位导师至多一条 ACCEPTED
//   - 同一导师/学员对至多一条 PENDING 或 ACCEPTED
//   - 每位学员至多一条 PENDING
type MatchRequestService interface {
	Create(ctx context.Context, caller Caller, req *dto.CreateMatchRequestRequest) (*dto.MatchStatusResponse, error)
	ListIncoming(ctx context.Context, caller Caller) ([]dto.IncomingRequestResponse, error)
	ListOutgoing(ctx context.Context, caller Caller) ([]dto.OutgoingRequestResponse, error)
	Accept(ctx context.Context, caller Caller, id int64) (*dto.MatchStatusResponse, error)
	Reject(ctx context.Context, caller Caller, id int64) (*dto.MatchStatusResponse, error)
	Cancel(ctx context.Context, caller Caller, id int64) error
}

type matchRequestService struct {
	repo   *repository.Repository
	links  imageLinker
	logger *zap.Logger
}

// NewMatchRequestService 创建 MatchRequestService 实例
func NewMatchRequestService(repo *repository.Repository, links imageLinker, logger *zap.Logger) MatchRequestService {
	return &matchRequestService{repo: repo, links: links, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Create：学员发起请求
// ═══════════════════════════════════════════════════════════

func (s *matchRequestService) Create(ctx context.Context, caller Caller, req *dto.CreateMatchRequestRequest) (*dto.MatchStatusResponse, error) {
	if caller.Role != model.RoleMentee {
		return nil, ErrForbidden
	}
	if req.MentorID == nil || req.MenteeID == nil || strings.TrimSpace(req.Message) == "" {
		return nil, ErrMessageRequired
	}
	mentorID, menteeID := *req.MentorID, *req.MenteeID
	if menteeID != caller.ID {
		return nil, ErrNotSelf
	}

	// 1. 导师存在且角色正确
	if _, err := s.repo.User.GetByIDAndRole(ctx, mentorID, model.RoleMentor); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMentorNotFound
		}
		s.logger.Error("查询导师失败", zap.Int64("mentor_id", mentorID), zap.Error(err))
		return nil, err
	}

	// 2. 不变量检查
	if err := s.checkCreateConflicts(ctx, mentorID, menteeID); err != nil {
		return nil, err
	}

	// 3. 落库
	mr := &model.MatchRequest{
		MentorID: mentorID,
		MenteeID: menteeID,
		Message:  req.Message,
		Status:   model.MatchStatusPending,
	}
	if err := s.repo.MatchRequest.Create(ctx, mr); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发创建被唯一索引拦截：重新判定是哪条不变量
			if cerr := s.checkCreateConflicts(ctx, mentorID, menteeID); cerr != nil {
				return nil, cerr
			}
			return nil, ErrMenteeHasPending
		}
		s.logger.Error("创建匹配请求失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("匹配请求已创建",
		zap.Int64("id", mr.ID),
		zap.Int64("mentor_id", mentorID),
		zap.Int64("mentee_id", menteeID),
	)
	return &dto.MatchStatusResponse{ID: mr.ID, Status: string(mr.Status)}, nil
}

func (s *matchRequestService) checkCreateConflicts(ctx context.Context, mentorID, menteeID int64) error {
	active, err := s.repo.MatchRequest.FindActiveByPair(ctx, mentorID, menteeID)
	if err != nil {
		s.logger.Error("查询进行中请求失败", zap.Error(err))
		return err
	}
	if active != nil {
		return ErrRequestAlreadyActive
	}

	pending, err := s.repo.MatchRequest.FindPendingByMentee(ctx, menteeID)
	if err != nil {
		s.logger.Error("查询待处理请求失败", zap.Error(err))
		return err
	}
	if pending != nil {
		return ErrMenteeHasPending
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// 列表
// ═══════════════════════════════════════════════════════════

func (s *matchRequestService) ListIncoming(ctx context.Context, caller Caller) ([]dto.IncomingRequestResponse, error) {
	if caller.Role != model.RoleMentor {
		return nil, ErrForbidden
	}

	mrs, err := s.repo.MatchRequest.ListByMentor(ctx, caller.ID)
	if err != nil {
		s.logger.Error("查询收到的请求失败", zap.Int64("mentor_id", caller.ID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.IncomingRequestResponse, 0, len(mrs))
	for _, mr := range mrs {
		item := dto.IncomingRequestResponse{
			ID:        mr.ID,
			Message:   mr.Message,
			Status:    string(mr.Status),
			CreatedAt: mr.CreatedAt,
			Mentee: dto.MenteeSummary{
				ID:       mr.MenteeID,
				ImageURL: s.links.endpointURL(model.RoleMentee, mr.MenteeID),
			},
		}
		if mr.Mentee != nil {
			item.Mentee.Name = mr.Mentee.Name
			item.Mentee.Bio = bioOrEmpty(mr.Mentee.Bio)
			item.Mentee.HasImage = mr.Mentee.HasImage()
		}
		list = append(list, item)
	}
	return list, nil
}

func (s *matchRequestService) ListOutgoing(ctx context.Context, caller Caller) ([]dto.OutgoingRequestResponse, error) {
	if caller.Role != model.RoleMentee {
		return nil, ErrForbidden
	}

	mrs, err := s.repo.MatchRequest.ListByMentee(ctx, caller.ID)
	if err != nil {
		s.logger.Error("查询发出的请求失败", zap.Int64("mentee_id", caller.ID), zap.Error(err))
		return nil, err
	}

	list := make([]dto.OutgoingRequestResponse, 0, len(mrs))
	for _, mr := range mrs {
		item := dto.OutgoingRequestResponse{
			ID:        mr.ID,
			Message:   mr.Message,
			Status:    string(mr.Status),
			CreatedAt: mr.CreatedAt,
			Mentor: dto.MentorSummary{
				ID:       mr.MentorID,
				Skills:   []string{},
				ImageURL: s.links.endpointURL(model.RoleMentor, mr.MentorID),
			},
		}
		if mr.Mentor != nil {
			item.Mentor.Name = mr.Mentor.Name
			item.Mentor.Bio = bioOrEmpty(mr.Mentor.Bio)
			item.Mentor.Skills = mr.Mentor.Skills.Strings()
			item.Mentor.HasImage = mr.Mentor.HasImage()
		}
		list = append(list, item)
	}
	return list, nil
}

// ═══════════════════════════════════════════════════════════
// Accept：接受目标请求并在同一事务中拒绝导师其余待处理请求
// ═══════════════════════════════════════════════════════════

func (s *matchRequestService) Accept(ctx context.Context, caller Caller, id int64) (*dto.MatchStatusResponse, error) {
	if caller.Role != model.RoleMentor {
		return nil, ErrForbidden
	}

	if _, err := s.pendingForMentor(ctx, caller.ID, id); err != nil {
		return nil, err
	}

	accepted, err := s.repo.MatchRequest.FindAcceptedByMentor(ctx, caller.ID)
	if err != nil {
		s.logger.Error("查询已接受请求失败", zap.Error(err))
		return nil, err
	}
	if accepted != nil {
		return nil, ErrMentorAlreadyMatched
	}

	var rejected int64
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.MatchRequest.TransitionStatus(ctx, id, model.MatchStatusPending, model.MatchStatusAccepted); err != nil {
			return err
		}
		n, err := tx.MatchRequest.RejectOtherPending(ctx, caller.ID, id)
		rejected = n
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrStateChanged):
			return nil, ErrMatchRequestNotFound
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrMentorAlreadyMatched
		}
		s.logger.Error("接受匹配请求失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("匹配请求已接受",
		zap.Int64("id", id),
		zap.Int64("mentor_id", caller.ID),
		zap.Int64("auto_rejected", rejected),
	)
	return &dto.MatchStatusResponse{ID: id, Status: string(model.MatchStatusAccepted)}, nil
}

// ═══════════════════════════════════════════════════════════
// Reject
// ═══════════════════════════════════════════════════════════

func (s *matchRequestService) Reject(ctx context.Context, caller Caller, id int64) (*dto.MatchStatusResponse, error) {
	if caller.Role != model.RoleMentor {
		return nil, ErrForbidden
	}

	if _, err := s.pendingForMentor(ctx, caller.ID, id); err != nil {
		return nil, err
	}

	if err := s.repo.MatchRequest.TransitionStatus(ctx, id, model.MatchStatusPending, model.MatchStatusRejected); err != nil {
		if errors.Is(err, pkgerrors.ErrStateChanged) {
			return nil, ErrMatchRequestNotFound
		}
		s.logger.Error("拒绝匹配请求失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return &dto.MatchStatusResponse{ID: id, Status: string(model.MatchStatusRejected)}, nil
}

func (s *matchRequestService) pendingForMentor(ctx context.Context, mentorID, id int64) (*model.MatchRequest, error) {
	mr, err := s.repo.MatchRequest.GetForMentor(ctx, id, mentorID, model.MatchStatusPending)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchRequestNotFound
		}
		s.logger.Error("查询匹配请求失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return mr, nil
}

// ═══════════════════════════════════════════════════════════
// Cancel：学员撤回（物理删除）
// ═══════════════════════════════════════════════════════════

func (s *matchRequestService) Cancel(ctx context.Context, caller Caller, id int64) error {
	if caller.Role != model.RoleMentee {
		return ErrForbidden
	}

	if _, err := s.repo.MatchRequest.GetForMentee(ctx, id, caller.ID, model.ActiveMatchStatuses); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMatchRequestNotFound
		}
		s.logger.Error("查询匹配请求失败", zap.Int64("id", id), zap.Error(err))
		return err
	}

	// 删除时重新校验归属与状态，期间被拒绝或接受的请求不会被删掉
	if err := s.repo.MatchRequest.DeleteForMentee(ctx, id, caller.ID, model.ActiveMatchStatuses); err != nil {
		if errors.Is(err, pkgerrors.ErrStateChanged) {
			return ErrMatchRequestNotFound
		}
		s.logger.Error("删除匹配请求失败", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}
